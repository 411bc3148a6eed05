package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BerylCAtieno/translation-checkout-api/internal/db"
	"github.com/BerylCAtieno/translation-checkout-api/internal/dispatch"
	"github.com/BerylCAtieno/translation-checkout-api/internal/pricing"
	"github.com/BerylCAtieno/translation-checkout-api/internal/reconcile"
	"github.com/BerylCAtieno/translation-checkout-api/internal/repository"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && strings.HasSuffix(key, s.failOn) {
		return errors.New("connection reset")
	}
	s.objects[key] = data
	return nil
}

func (s *memStorage) RemoveIfExists(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("%s: %w", key, utils.ErrStorageMiss)
	}
	delete(s.objects, key)
	return nil
}

func (s *memStorage) URL(key string) string { return "http://localhost:9000/documents/" + key }

func (s *memStorage) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type fakeNotifier struct {
	mu       sync.Mutex
	payloads []dispatch.Payload
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, p dispatch.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, p)
	return n.err
}

type fixedCounter struct {
	pages int
	err   error
}

func (c fixedCounter) CountPages([]byte, string) (int, error) {
	return c.pages, c.err
}

type fixture struct {
	docs          repository.DocumentRepository
	verifications repository.VerificationRepository
	translated    repository.TranslatedRepository
	sessions      repository.SessionRepository
	storage       *memStorage
	notifier      *fakeNotifier
	cleaner       *reconcile.Cleaner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := db.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database))

	f := &fixture{
		docs:          repository.NewDocumentRepository(database),
		verifications: repository.NewVerificationRepository(database),
		translated:    repository.NewTranslatedRepository(database),
		sessions:      repository.NewSessionRepository(database),
		storage:       newMemStorage(),
		notifier:      &fakeNotifier{},
	}
	f.cleaner = reconcile.NewCleaner(f.docs, f.verifications, f.translated, f.storage, reconcile.Settings{
		Bucket:     "documents",
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
	}, utils.NewNopLogger())
	return f
}

func (f *fixture) documentService(pages int) DocumentService {
	return NewDocumentService(f.docs, f.verifications, f.translated, f.storage,
		fixedCounter{pages: pages}, pricing.Default(), f.cleaner, f.notifier, utils.NewNopLogger())
}

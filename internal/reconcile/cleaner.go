package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/BerylCAtieno/translation-checkout-api/internal/metrics"
	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/repository"
	"github.com/BerylCAtieno/translation-checkout-api/internal/storage"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/sethvargo/go-retry"
)

// minSweepFragment keeps the filename-contains sweep from matching every
// translation an owner has.
const minSweepFragment = 3

type Settings struct {
	Bucket     string
	MaxRetries uint64
	BaseDelay  time.Duration
}

type Result struct {
	RemovedRecords int `json:"removedRecords"`
}

// Cleaner removes every verification row, translated row and stored object
// that still points at a failed document.
type Cleaner struct {
	docs          repository.DocumentRepository
	verifications repository.VerificationRepository
	translated    repository.TranslatedRepository
	storage       storage.Storage
	settings      Settings
	logger        *utils.Logger
}

func NewCleaner(
	docs repository.DocumentRepository,
	verifications repository.VerificationRepository,
	translated repository.TranslatedRepository,
	store storage.Storage,
	settings Settings,
	logger *utils.Logger,
) *Cleaner {
	if settings.BaseDelay <= 0 {
		settings.BaseDelay = 500 * time.Millisecond
	}
	return &Cleaner{
		docs:          docs,
		verifications: verifications,
		translated:    translated,
		storage:       store,
		settings:      settings,
		logger:        logger,
	}
}

// target is what the cleaner knows about a document. Only ID is
// guaranteed; the rest is empty when the row is already gone.
type target struct {
	ID         string
	OwnerID    string
	Filename   string
	ClientName string
	FileRef    string
	FileID     string
}

func targetOf(doc *models.Document) target {
	t := target{
		ID:         doc.ID,
		OwnerID:    doc.OwnerID,
		Filename:   doc.Filename,
		ClientName: doc.ClientName,
	}
	if doc.FileRef != nil {
		t.FileRef = *doc.FileRef
	}
	if doc.FileID != nil {
		t.FileID = *doc.FileID
	}
	return t
}

// Reconcile cleans up after documentID using whatever the store still
// holds for it. A failed document has its storage references cleared, so
// callers that still have the pre-failure row should use
// ReconcileDocument instead.
func (c *Cleaner) Reconcile(ctx context.Context, documentID string) (*Result, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("documentId is required: %w", utils.ErrValidation)
	}

	doc, err := c.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	t := target{ID: documentID}
	if doc != nil {
		t = targetOf(doc)
	}
	return c.run(ctx, t)
}

// ReconcileDocument cleans up using a snapshot of the document taken before
// its storage references were cleared.
func (c *Cleaner) ReconcileDocument(ctx context.Context, doc *models.Document) (*Result, error) {
	return c.run(ctx, targetOf(doc))
}

func (c *Cleaner) run(ctx context.Context, t target) (*Result, error) {
	log := c.logger.With("document_id", t.ID)
	result := &Result{}

	res, err := c.cleanup(ctx, t, log, result)
	if err == nil {
		err = c.lateRecheck(ctx, t, res, log, result)
	}

	metrics.Reconciliations.WithLabelValues(metrics.Outcome(err)).Inc()
	metrics.ReconciledRecords.Add(float64(result.RemovedRecords))

	if err != nil {
		log.Error("Reconciliation failed", "error", err, "removed_records", result.RemovedRecords)
		return nil, err
	}

	log.Info("Reconciliation finished", "removed_records", result.RemovedRecords)
	return result, nil
}

// cleanup runs the primary, secondary and fallback lookups, the defensive
// re-check, the translated cascade and storage removal. It returns the ids
// of every verification row that matched.
func (c *Cleaner) cleanup(ctx context.Context, t target, log *utils.Logger, result *Result) ([]string, error) {
	matched, err := c.findVerifications(ctx, t)
	if err != nil {
		return nil, err
	}

	resolved := make([]string, 0, len(matched))
	for _, rec := range matched {
		resolved = append(resolved, rec.ID)
	}

	n, err := c.verifications.DeleteByIDs(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to delete verification records: %w", err)
	}
	result.RemovedRecords += n

	remaining, err := c.verifications.FindByOriginalDocumentID(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-check verification records: %w", err)
	}
	if len(remaining) > 0 {
		return nil, fmt.Errorf("%d verification records still reference %s: %w",
			len(remaining), t.ID, utils.ErrReconciliationFailure)
	}

	n, err = c.deleteTranslated(ctx, t, resolved)
	if err != nil {
		return nil, err
	}
	result.RemovedRecords += n

	c.removeObjects(ctx, t, log)

	return resolved, nil
}

// findVerifications merges the three lookups, de-duplicated by id.
func (c *Cleaner) findVerifications(ctx context.Context, t target) ([]models.VerificationRecord, error) {
	seen := make(map[string]bool)
	var out []models.VerificationRecord
	add := func(recs []models.VerificationRecord) {
		for _, rec := range recs {
			if !seen[rec.ID] {
				seen[rec.ID] = true
				out = append(out, rec)
			}
		}
	}

	primary, err := c.verifications.FindByOriginalDocumentID(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up verification records by document: %w", err)
	}
	add(primary)

	if t.FileID != "" {
		byFile, err := c.verifications.FindByFileID(ctx, t.FileID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up verification records by file id: %w", err)
		}
		add(byFile)
	}

	if t.OwnerID != "" {
		names := c.historicalNames(t)
		if len(names) > 0 {
			byName, err := c.verifications.FindByOwnerFilename(ctx, t.OwnerID, names)
			if err != nil {
				return nil, fmt.Errorf("failed to look up verification records by filename: %w", err)
			}
			add(filterClient(byName, t.ClientName))
		}
	}

	return out, nil
}

// historicalNames lists the names a document may have been recorded under:
// as uploaded, as stored (with the timestamp prefix) and without it.
func (c *Cleaner) historicalNames(t target) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		n = strings.TrimSpace(n)
		if n == "" || n == "." || n == "/" || seen[n] {
			return
		}
		seen[n] = true
		names = append(names, n)
	}

	add(t.Filename)
	add(storage.StripTimestampPrefix(t.Filename))
	if t.Filename != "" {
		add(storage.SanitizeFilename(t.Filename))
	}
	if t.FileRef != "" {
		if key := storage.KeyFromRef(c.settings.Bucket, t.FileRef); key != "" {
			base := path.Base(key)
			add(base)
			add(storage.StripTimestampPrefix(base))
		}
	}

	return names
}

func filterClient(recs []models.VerificationRecord, clientName string) []models.VerificationRecord {
	want := strings.TrimSpace(clientName)
	if want == "" {
		return recs
	}

	out := recs[:0:0]
	for _, rec := range recs {
		got := strings.TrimSpace(rec.ClientName)
		if got != "" && !strings.EqualFold(got, want) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (c *Cleaner) deleteTranslated(ctx context.Context, t target, verificationIDs []string) (int, error) {
	ids, err := c.findTranslated(ctx, t, verificationIDs)
	if err != nil {
		return 0, err
	}

	n, err := c.translated.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete translated documents: %w", err)
	}
	return n, nil
}

// findTranslated returns the ids of translated rows reached through the
// verification lineage or the owner's filename sweep.
func (c *Cleaner) findTranslated(ctx context.Context, t target, verificationIDs []string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	add := func(docs []models.TranslatedDocument) {
		for _, d := range docs {
			if !seen[d.ID] {
				seen[d.ID] = true
				ids = append(ids, d.ID)
			}
		}
	}

	byLineage, err := c.translated.FindByOriginalIDs(ctx, verificationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up translated documents: %w", err)
	}
	add(byLineage)

	if fragment := sweepFragment(t.Filename); t.OwnerID != "" && fragment != "" {
		swept, err := c.translated.FindByOwnerFilenameContains(ctx, t.OwnerID, fragment)
		if err != nil {
			return nil, fmt.Errorf("failed to sweep translated documents: %w", err)
		}
		add(swept)
	}

	return ids, nil
}

// sweepFragment is the filename stem used to find translations whose names
// were derived from the original ("passport_EN.pdf" from "passport.pdf").
func sweepFragment(filename string) string {
	stem := storage.StripTimestampPrefix(strings.TrimSpace(filename))
	stem = strings.TrimSuffix(stem, path.Ext(stem))
	if len([]rune(stem)) < minSweepFragment {
		return ""
	}
	return stem
}

func (c *Cleaner) removeObjects(ctx context.Context, t target, log *utils.Logger) {
	keys := storage.CandidateKeys(c.settings.Bucket, t.FileRef, t.FileID, t.OwnerID, t.Filename)
	if len(keys) == 0 || c.storage == nil {
		return
	}

	removed := 0
	for _, key := range keys {
		err := c.storage.RemoveIfExists(ctx, key)
		switch {
		case err == nil:
			removed++
			log.Info("Removed stored object", "key", key)
		case errors.Is(err, utils.ErrStorageMiss):
		default:
			log.Warn("Failed to remove stored object", "key", key, "error", err)
		}
	}

	if removed == 0 {
		log.Info("No stored object found", "candidates", len(keys), "error", utils.ErrStorageMiss)
	}
}

// errLateRecords marks a re-check pass that still found records to delete.
var errLateRecords = errors.New("late records removed")

// lateRecheck waits for in-flight ingestion to settle and then keeps
// deleting stragglers with exponential backoff until a pass finds none.
func (c *Cleaner) lateRecheck(ctx context.Context, t target, resolved []string, log *utils.Logger, result *Result) error {
	timer := time.NewTimer(c.settings.BaseDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
	}

	backoff := retry.WithMaxRetries(c.settings.MaxRetries, retry.NewExponential(c.settings.BaseDelay))
	lineage := append([]string{}, resolved...)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		n, lateIDs, err := c.sweepStragglers(ctx, t, lineage)
		lineage = append(lineage, lateIDs...)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		result.RemovedRecords += n
		log.Warn("Removed late records", "count", n)
		return retry.RetryableError(fmt.Errorf("%d %w", n, errLateRecords))
	})
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, errLateRecords):
		return fmt.Errorf("late re-check failed: %w", err)
	}

	// retries exhausted; only fail if something is still there
	verifications, err := c.findVerifications(ctx, t)
	if err != nil {
		return fmt.Errorf("late re-check failed: %w", err)
	}
	for _, rec := range verifications {
		lineage = append(lineage, rec.ID)
	}
	translated, err := c.findTranslated(ctx, t, lineage)
	if err != nil {
		return fmt.Errorf("late re-check failed: %w", err)
	}
	if left := len(verifications) + len(translated); left > 0 {
		return fmt.Errorf("%d records reappeared after %d retries: %w",
			left, c.settings.MaxRetries, utils.ErrReconciliationFailure)
	}
	return nil
}

// sweepStragglers deletes records that showed up after cleanup. It also
// returns the ids of the late verification rows so later passes keep
// following their lineage.
func (c *Cleaner) sweepStragglers(ctx context.Context, t target, lineage []string) (int, []string, error) {
	late, err := c.findVerifications(ctx, t)
	if err != nil {
		return 0, nil, err
	}

	ids := make([]string, 0, len(late))
	for _, rec := range late {
		ids = append(ids, rec.ID)
	}

	removed, err := c.verifications.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, ids, fmt.Errorf("failed to delete late verification records: %w", err)
	}

	n, err := c.deleteTranslated(ctx, t, append(append([]string{}, lineage...), ids...))
	if err != nil {
		return 0, ids, err
	}

	return removed + n, ids, nil
}

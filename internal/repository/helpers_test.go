package repository

import (
	"context"
	"testing"

	"github.com/BerylCAtieno/translation-checkout-api/internal/db"
	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := db.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database))
	return database
}

func strPtr(s string) *string { return &s }

func statusPtr(s models.Status) *models.Status { return &s }

func seedDocument(t *testing.T, repo DocumentRepository, id string) *models.Document {
	t.Helper()
	doc := &models.Document{
		ID:             id,
		OwnerID:        "user-1",
		Filename:       "passport.pdf",
		PageCount:      2,
		FileRef:        strPtr("user-1/1700000000_passport.pdf"),
		FileID:         strPtr("file-" + id),
		ClientName:     "Maria Souza",
		PaymentMethod:  "card",
		TotalCost:      30,
		SourceLanguage: "Portuguese",
		TargetLanguage: "English",
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	return doc
}

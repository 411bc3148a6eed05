package repository

import (
	"context"
	"testing"

	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationRepository_Lookups(t *testing.T) {
	database := setupDB(t)
	repo := NewVerificationRepository(database)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.VerificationRecord{
		ID: "v1", OriginalDocumentID: strPtr("doc-1"), OwnerID: "user-1", Filename: "passport.pdf",
	}))
	require.NoError(t, repo.Create(ctx, &models.VerificationRecord{
		ID: "v2", FileID: strPtr("file-doc-1"), OwnerID: "user-1", Filename: "passport.pdf",
	}))
	require.NoError(t, repo.Create(ctx, &models.VerificationRecord{
		ID: "v3", OwnerID: "user-1", Filename: "1700000000_passport.pdf",
	}))
	require.NoError(t, repo.Create(ctx, &models.VerificationRecord{
		ID: "v4", OwnerID: "user-2", Filename: "passport.pdf",
	}))

	byOriginal, err := repo.FindByOriginalDocumentID(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, byOriginal, 1)
	assert.Equal(t, "v1", byOriginal[0].ID)

	byFile, err := repo.FindByFileID(ctx, "file-doc-1")
	require.NoError(t, err)
	require.Len(t, byFile, 1)
	assert.Equal(t, "v2", byFile[0].ID)

	byName, err := repo.FindByOwnerFilename(ctx, "user-1", []string{"passport.pdf", "1700000000_passport.pdf"})
	require.NoError(t, err)
	assert.Len(t, byName, 3)

	none, err := repo.FindByOwnerFilename(ctx, "user-1", nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	got, err := repo.GetByID(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pending", got.Status)

	n, err := repo.DeleteByIDs(ctx, []string{"v1", "v2", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err = repo.GetByID(ctx, "v1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTranslatedRepository_Lookups(t *testing.T) {
	database := setupDB(t)
	repo := NewTranslatedRepository(database)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.TranslatedDocument{
		ID: "t1", OriginalDocumentID: strPtr("v1"), OwnerID: "user-1", Filename: "passport_translated.pdf",
	}))
	require.NoError(t, repo.Create(ctx, &models.TranslatedDocument{
		ID: "t2", OwnerID: "user-1", Filename: "translated_passport.pdf",
	}))
	require.NoError(t, repo.Create(ctx, &models.TranslatedDocument{
		ID: "t3", OwnerID: "user-1", Filename: "100%_diploma.pdf",
	}))

	byOriginal, err := repo.FindByOriginalIDs(ctx, []string{"v1", "v9"})
	require.NoError(t, err)
	require.Len(t, byOriginal, 1)
	assert.Equal(t, "t1", byOriginal[0].ID)

	byName, err := repo.FindByOwnerFilenameContains(ctx, "user-1", "passport")
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	literal, err := repo.FindByOwnerFilenameContains(ctx, "user-1", "100%")
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "t3", literal[0].ID)

	empty, err := repo.FindByOwnerFilenameContains(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Empty(t, empty)

	n, err := repo.DeleteByIDs(ctx, []string{"t1", "t2", "t3"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	repo := NewSessionRepository(setupDB(t))
	ctx := context.Background()

	session := &models.CheckoutSession{
		SessionID:   "cs_test_1",
		OwnerID:     "user-1",
		DocumentIDs: []string{"doc-2", "doc-1"},
		Items: []models.DocumentItem{
			{DocumentID: "doc-2", Filename: "a.pdf", Pages: 3, IsNotarized: true, Price: 60},
			{DocumentID: "doc-1", Filename: "b.pdf", Pages: 1, Price: 15},
		},
		Amount:      75,
		Currency:    "usd",
		Environment: "test",
	}
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.GetByID(ctx, "cs_test_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"doc-2", "doc-1"}, got.DocumentIDs)
	assert.Equal(t, session.Items, got.Items)
	assert.Equal(t, int64(75), got.Amount)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)

	require.NoError(t, repo.UpdatePaymentStatus(ctx, "cs_test_1", models.PaymentPaid))
	got, err = repo.GetByID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)

	missing, err := repo.GetByID(ctx, "cs_missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, repo.UpdatePaymentStatus(ctx, "cs_missing", models.PaymentPaid))
}

package repository

import (
	"context"
	"strings"

	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/jmoiron/sqlx"
)

type TranslatedRepository interface {
	Create(ctx context.Context, doc *models.TranslatedDocument) error
	FindByOriginalIDs(ctx context.Context, verificationIDs []string) ([]models.TranslatedDocument, error)
	FindByOwnerFilenameContains(ctx context.Context, ownerID, fragment string) ([]models.TranslatedDocument, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}

type translatedRepository struct {
	db *sqlx.DB
}

func NewTranslatedRepository(db *sqlx.DB) TranslatedRepository {
	return &translatedRepository{db: db}
}

const translatedColumns = `id, original_document_id, owner_id, filename, translated_file_ref, source_language,
	target_language, total_cost, is_authenticated, authenticated_by, authentication_date, created_at`

func (r *translatedRepository) Create(ctx context.Context, doc *models.TranslatedDocument) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO translated_documents (`+translatedColumns+`)
		VALUES (:id, :original_document_id, :owner_id, :filename, :translated_file_ref, :source_language,
			:target_language, :total_cost, :is_authenticated, :authenticated_by, :authentication_date, :created_at)
	`, doc)
	return err
}

func (r *translatedRepository) FindByOriginalIDs(ctx context.Context, verificationIDs []string) ([]models.TranslatedDocument, error) {
	if len(verificationIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`SELECT `+translatedColumns+` FROM translated_documents WHERE original_document_id IN (?)`, verificationIDs)
	if err != nil {
		return nil, err
	}

	var docs []models.TranslatedDocument
	err = r.db.SelectContext(ctx, &docs, r.db.Rebind(query), args...)
	return docs, err
}

// FindByOwnerFilenameContains matches filenames containing fragment
// literally; LIKE wildcards in the fragment are escaped.
func (r *translatedRepository) FindByOwnerFilenameContains(ctx context.Context, ownerID, fragment string) ([]models.TranslatedDocument, error) {
	if fragment == "" {
		return nil, nil
	}

	pattern := "%" + escapeLike(fragment) + "%"

	var docs []models.TranslatedDocument
	err := r.db.SelectContext(ctx, &docs,
		`SELECT `+translatedColumns+` FROM translated_documents WHERE owner_id = ? AND filename LIKE ? ESCAPE '\'`,
		ownerID, pattern)
	return docs, err
}

func (r *translatedRepository) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	return deleteByIDs(ctx, r.db, "translated_documents", ids)
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

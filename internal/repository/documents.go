package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BerylCAtieno/translation-checkout-api/internal/db"
	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/jmoiron/sqlx"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
	Transition(ctx context.Context, id string, from *models.Status, to models.Status) (*models.Document, error)
	MarkUploadFailed(ctx context.Context, id string) (*models.Document, error)
}

type documentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `id, owner_id, filename, page_count, status, file_ref, file_id, client_name,
	payment_method, total_cost, source_language, target_language, is_notarized, is_bank_statement,
	translation_type, content_type, file_size, created_at, updated_at, upload_failed_at`

// now is the store clock. Values are UTC without a monotonic reading so a
// timestamp read back from the database compares equal to the one written.
func now() time.Time {
	return time.Now().UTC()
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.Status == "" {
		doc.Status = models.StatusPending
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now()
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	doc.UpdatedAt = doc.CreatedAt

	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES (:id, :owner_id, :filename, :page_count, :status, :file_ref, :file_id, :client_name,
			:payment_method, :total_cost, :source_language, :target_language, :is_notarized, :is_bank_statement,
			:translation_type, :content_type, :file_size, :created_at, :updated_at, :upload_failed_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, doc)
	return err
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	return getDocument(ctx, r.db, id)
}

func getDocument(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Document, error) {
	var doc models.Document
	err := sqlx.GetContext(ctx, q, &doc, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.SelectContext(ctx, &docs,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	return docs, err
}

// Update writes every mutable field. The row must still carry the
// updated_at the caller read, otherwise ErrStateConflict is returned.
func (r *documentRepository) Update(ctx context.Context, doc *models.Document) error {
	expected := doc.UpdatedAt.UTC()
	updated := now()
	if !updated.After(expected) {
		updated = expected.Add(time.Microsecond)
	}

	query := `
		UPDATE documents
		SET filename = ?, page_count = ?, status = ?, file_ref = ?, file_id = ?, client_name = ?,
		    payment_method = ?, total_cost = ?, source_language = ?, target_language = ?,
		    is_notarized = ?, is_bank_statement = ?, translation_type = ?, content_type = ?, file_size = ?,
		    upload_failed_at = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?
	`

	res, err := r.db.ExecContext(ctx, query,
		doc.Filename,
		doc.PageCount,
		doc.Status,
		doc.FileRef,
		doc.FileID,
		doc.ClientName,
		doc.PaymentMethod,
		doc.TotalCost,
		doc.SourceLanguage,
		doc.TargetLanguage,
		doc.IsNotarized,
		doc.IsBankStatement,
		doc.TranslationType,
		doc.ContentType,
		doc.FileSize,
		doc.UploadFailedAt,
		updated,
		doc.ID,
		expected,
	)
	if err != nil {
		return err
	}

	if err := r.checkAffected(ctx, res, doc.ID); err != nil {
		return err
	}

	doc.UpdatedAt = updated
	return nil
}

func (r *documentRepository) checkAffected(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("document %s: %w", id, utils.ErrNotFound)
	}
	return fmt.Errorf("document %s was modified concurrently: %w", id, utils.ErrStateConflict)
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return err
}

// Transition moves a document to a new status. When from is set, the
// current status must equal it or ErrStateConflict is returned; a repeated
// delivery of the same transition therefore fails instead of re-applying.
func (r *documentRepository) Transition(ctx context.Context, id string, from *models.Status, to models.Status) (*models.Document, error) {
	var out *models.Document

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := getDocument(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("document %s: %w", id, utils.ErrNotFound)
		}

		if from != nil && current.Status != *from {
			return fmt.Errorf("document %s is %s, expected %s: %w", id, current.Status, *from, utils.ErrStateConflict)
		}
		if !models.CanTransition(current.Status, to) {
			return fmt.Errorf("document %s cannot move from %s to %s: %w", id, current.Status, to, utils.ErrInvalidTransition)
		}

		updated := now()
		res, err := tx.ExecContext(ctx,
			`UPDATE documents SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			to, updated, id, current.Status)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("document %s changed during transition: %w", id, utils.ErrStateConflict)
		}

		current.Status = to
		current.UpdatedAt = updated
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// MarkUploadFailed moves a document to upload_failed and clears its storage
// references in the same statement. It returns the document as it was
// before the change so callers still know which storage keys to clean up.
// Marking an already failed document is a no-op.
func (r *documentRepository) MarkUploadFailed(ctx context.Context, id string) (*models.Document, error) {
	var before *models.Document

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := getDocument(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("document %s: %w", id, utils.ErrNotFound)
		}
		before = current

		if current.Status == models.StatusUploadFailed {
			return nil
		}
		if !models.CanTransition(current.Status, models.StatusUploadFailed) {
			return fmt.Errorf("document %s is %s: %w", id, current.Status, utils.ErrInvalidTransition)
		}

		ts := now()
		_, err = tx.ExecContext(ctx, `
			UPDATE documents
			SET status = ?, file_ref = NULL, file_id = NULL, upload_failed_at = ?, updated_at = ?
			WHERE id = ?`,
			models.StatusUploadFailed, ts, ts, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return before, nil
}

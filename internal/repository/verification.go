package repository

import (
	"context"

	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/jmoiron/sqlx"
)

type VerificationRepository interface {
	Create(ctx context.Context, rec *models.VerificationRecord) error
	GetByID(ctx context.Context, id string) (*models.VerificationRecord, error)
	FindByOriginalDocumentID(ctx context.Context, documentID string) ([]models.VerificationRecord, error)
	FindByFileID(ctx context.Context, fileID string) ([]models.VerificationRecord, error)
	FindByOwnerFilename(ctx context.Context, ownerID string, filenames []string) ([]models.VerificationRecord, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}

type verificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

const verificationColumns = `id, original_document_id, file_id, owner_id, filename, client_name, status, created_at`

func (r *verificationRepository) Create(ctx context.Context, rec *models.VerificationRecord) error {
	if rec.Status == "" {
		rec.Status = "pending"
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO verification_records (`+verificationColumns+`)
		VALUES (:id, :original_document_id, :file_id, :owner_id, :filename, :client_name, :status, :created_at)
	`, rec)
	return err
}

func (r *verificationRepository) GetByID(ctx context.Context, id string) (*models.VerificationRecord, error) {
	var recs []models.VerificationRecord
	if err := r.db.SelectContext(ctx, &recs, `SELECT `+verificationColumns+` FROM verification_records WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (r *verificationRepository) FindByOriginalDocumentID(ctx context.Context, documentID string) ([]models.VerificationRecord, error) {
	var recs []models.VerificationRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT `+verificationColumns+` FROM verification_records WHERE original_document_id = ?`, documentID)
	return recs, err
}

func (r *verificationRepository) FindByFileID(ctx context.Context, fileID string) ([]models.VerificationRecord, error) {
	var recs []models.VerificationRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT `+verificationColumns+` FROM verification_records WHERE file_id = ?`, fileID)
	return recs, err
}

func (r *verificationRepository) FindByOwnerFilename(ctx context.Context, ownerID string, filenames []string) ([]models.VerificationRecord, error) {
	if len(filenames) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`SELECT `+verificationColumns+` FROM verification_records WHERE owner_id = ? AND filename IN (?)`,
		ownerID, filenames)
	if err != nil {
		return nil, err
	}

	var recs []models.VerificationRecord
	err = r.db.SelectContext(ctx, &recs, r.db.Rebind(query), args...)
	return recs, err
}

func (r *verificationRepository) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	return deleteByIDs(ctx, r.db, "verification_records", ids)
}

func deleteByIDs(ctx context.Context, db *sqlx.DB, table string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM `+table+` WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}

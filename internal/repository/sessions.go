package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/jmoiron/sqlx"
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.CheckoutSession) error
	GetByID(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
	UpdatePaymentStatus(ctx context.Context, sessionID string, status models.PaymentStatus) error
}

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

type sessionRow struct {
	models.CheckoutSession
	DocumentIDsJSON string `db:"document_ids"`
	MetadataJSON    string `db:"metadata"`
}

func (r *sessionRepository) Create(ctx context.Context, session *models.CheckoutSession) error {
	idsJSON, err := json.Marshal(session.DocumentIDs)
	if err != nil {
		return err
	}
	metadataJSON, err := json.Marshal(session.Items)
	if err != nil {
		return err
	}

	if session.PaymentStatus == "" {
		session.PaymentStatus = models.PaymentPending
	}
	ts := now()
	session.CreatedAt = ts
	session.UpdatedAt = ts

	query := `
		INSERT INTO checkout_sessions (session_id, owner_id, document_ids, metadata, payment_status,
			amount, currency, environment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		session.SessionID,
		session.OwnerID,
		string(idsJSON),
		string(metadataJSON),
		session.PaymentStatus,
		session.Amount,
		session.Currency,
		session.Environment,
		session.CreatedAt,
		session.UpdatedAt,
	)

	return err
}

func (r *sessionRepository) GetByID(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	var row sessionRow

	query := `
		SELECT session_id, owner_id, document_ids, metadata, payment_status, amount, currency,
		       environment, created_at, updated_at
		FROM checkout_sessions
		WHERE session_id = ?
	`

	err := r.db.GetContext(ctx, &row, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	session := row.CheckoutSession
	if err := json.Unmarshal([]byte(row.DocumentIDsJSON), &session.DocumentIDs); err != nil {
		return nil, fmt.Errorf("decode document_ids: %w", err)
	}
	if err := json.Unmarshal([]byte(row.MetadataJSON), &session.Items); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	return &session, nil
}

func (r *sessionRepository) UpdatePaymentStatus(ctx context.Context, sessionID string, status models.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE checkout_sessions SET payment_status = ?, updated_at = ? WHERE session_id = ?`,
		status, now(), sessionID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("checkout session %s: %w", sessionID, utils.ErrNotFound)
	}
	return nil
}

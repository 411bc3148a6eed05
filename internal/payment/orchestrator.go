package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/translation-checkout-api/internal/environment"
	"github.com/BerylCAtieno/translation-checkout-api/internal/metrics"
	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/pricing"
	"github.com/BerylCAtieno/translation-checkout-api/internal/repository"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
)

type Settings struct {
	Currency   string
	SuccessURL string
	CancelURL  string
	Timeout    time.Duration
}

type Orchestrator struct {
	pricing  *pricing.Engine
	provider Provider
	docs     repository.DocumentRepository
	sessions repository.SessionRepository
	settings Settings
	logger   *utils.Logger
}

func NewOrchestrator(
	engine *pricing.Engine,
	provider Provider,
	docs repository.DocumentRepository,
	sessions repository.SessionRepository,
	settings Settings,
	logger *utils.Logger,
) *Orchestrator {
	return &Orchestrator{
		pricing:  engine,
		provider: provider,
		docs:     docs,
		sessions: sessions,
		settings: settings,
		logger:   logger,
	}
}

// CreateSession prices every document, opens one provider session with a
// line item per document, then marks the documents stripe_pending and
// stores the session locally.
//
// The provider is called before any local write: a provider failure leaves
// the store untouched. Once the provider session exists, local write
// failures are logged and the session is still returned.
func (o *Orchestrator) CreateSession(ctx context.Context, req models.CheckoutRequest, res environment.Resolution) (*models.CheckoutResponse, error) {
	items, total, err := o.priceItems(req)
	if err != nil {
		return nil, err
	}
	if err := o.checkDocuments(ctx, req.UserID, items); err != nil {
		return nil, err
	}

	flat, err := EncodeMetadata(Metadata{
		UserID:     req.UserID,
		UserEmail:  req.UserEmail,
		TotalPrice: total,
		Items:      items,
	})
	if err != nil {
		return nil, err
	}

	params := SessionParams{
		Currency:          o.settings.Currency,
		SuccessURL:        o.settings.SuccessURL,
		CancelURL:         o.settings.CancelURL,
		CustomerEmail:     req.UserEmail,
		ClientReferenceID: req.UserID,
		Metadata:          flat,
	}
	for _, item := range items {
		params.LineItems = append(params.LineItems, LineItem{
			Name:        item.Filename,
			Description: describe(item),
			UnitAmount:  ToMinorUnits(item.Price),
			Quantity:    1,
		})
	}

	callCtx, cancel := o.withTimeout(ctx)
	session, err := o.provider.CreateCheckoutSession(callCtx, res.Credentials.SecretKey, params)
	cancel()
	if err != nil {
		metrics.CheckoutSessions.WithLabelValues(string(res.Environment), "provider_error").Inc()
		o.logger.Error("Payment provider rejected checkout session",
			"error", err,
			"user_id", req.UserID,
			"environment", res.Environment)
		if !errors.Is(err, utils.ErrProvider) {
			err = fmt.Errorf("%w: %v", utils.ErrProvider, err)
		}
		return nil, err
	}

	log := o.logger.With("session_id", session.ID, "user_id", req.UserID)

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.DocumentID)
		o.markAwaitingPayment(ctx, log, item.DocumentID)
	}

	record := &models.CheckoutSession{
		SessionID:   session.ID,
		OwnerID:     req.UserID,
		DocumentIDs: ids,
		Items:       items,
		Amount:      total,
		Currency:    o.settings.Currency,
		Environment: string(res.Environment),
	}
	if err := o.sessions.Create(ctx, record); err != nil {
		log.Error("Failed to persist checkout session; it will be rebuilt from provider metadata", "error", err)
	}

	metrics.CheckoutSessions.WithLabelValues(string(res.Environment), "ok").Inc()
	log.Info("Checkout session created",
		"documents", len(items),
		"total_price", total,
		"environment", res.Environment)

	return &models.CheckoutResponse{
		SessionID:  session.ID,
		URL:        session.URL,
		TotalPrice: total,
		LineItems:  len(params.LineItems),
	}, nil
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.settings.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.settings.Timeout)
}

func (o *Orchestrator) priceItems(req models.CheckoutRequest) ([]models.DocumentItem, int64, error) {
	if len(req.Documents) == 0 {
		return nil, 0, fmt.Errorf("at least one document is required: %w", utils.ErrValidation)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, 0, fmt.Errorf("userId is required: %w", utils.ErrValidation)
	}

	items := make([]models.DocumentItem, len(req.Documents))
	seen := make(map[string]bool, len(req.Documents))
	var total int64

	for i, doc := range req.Documents {
		name := doc.Filename
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}

		if strings.TrimSpace(doc.DocumentID) == "" {
			return nil, 0, fmt.Errorf("document %s: documentId is required: %w", name, utils.ErrValidation)
		}
		if seen[doc.DocumentID] {
			return nil, 0, fmt.Errorf("document %s: %s listed more than once: %w", name, doc.DocumentID, utils.ErrValidation)
		}
		seen[doc.DocumentID] = true
		if doc.Pages < 1 {
			return nil, 0, fmt.Errorf("document %s: pages must be at least 1: %w", name, utils.ErrValidation)
		}
		if req.Client.Mobile && strings.TrimSpace(doc.FilePath) == "" {
			return nil, 0, fmt.Errorf("document %s: filePath is required: %w", name, utils.ErrValidation)
		}
		if !req.Client.Mobile && strings.TrimSpace(doc.FileID) == "" {
			return nil, 0, fmt.Errorf("document %s: fileId is required: %w", name, utils.ErrValidation)
		}

		price, err := o.pricing.Price(doc.Pages, doc.IsNotarized, doc.IsBankStatement)
		if err != nil {
			return nil, 0, fmt.Errorf("document %s: %v: %w", name, err, utils.ErrValidation)
		}

		items[i] = doc
		items[i].Price = price
		total += price
	}

	return items, total, nil
}

// checkDocuments refuses items whose document is missing, belongs to someone
// else, or has moved past payment. Only reads happen here.
func (o *Orchestrator) checkDocuments(ctx context.Context, userID string, items []models.DocumentItem) error {
	for _, item := range items {
		doc, err := o.docs.GetByID(ctx, item.DocumentID)
		if err != nil {
			return fmt.Errorf("failed to load document %s: %w", item.DocumentID, err)
		}
		if doc == nil || doc.OwnerID != userID {
			return fmt.Errorf("document %s not found: %w", item.DocumentID, utils.ErrValidation)
		}
		if doc.Status != models.StatusPending && doc.Status != models.StatusStripePending {
			return fmt.Errorf("document %s is %s and cannot be paid for: %w", item.DocumentID, doc.Status, utils.ErrValidation)
		}
		if doc.PageCount > 0 && doc.PageCount != item.Pages {
			o.logger.Warn("Checkout page count differs from counted pages",
				"document_id", item.DocumentID,
				"requested_pages", item.Pages,
				"counted_pages", doc.PageCount)
		}
	}
	return nil
}

func (o *Orchestrator) markAwaitingPayment(ctx context.Context, log *utils.Logger, documentID string) {
	from := models.StatusPending
	_, err := o.docs.Transition(ctx, documentID, &from, models.StatusStripePending)
	switch {
	case err == nil:
		metrics.DocumentTransitions.WithLabelValues(string(models.StatusStripePending), "ok").Inc()
	case errors.Is(err, utils.ErrStateConflict):
		// a retried checkout for a document already awaiting payment
		metrics.DocumentTransitions.WithLabelValues(string(models.StatusStripePending), "conflict").Inc()
		log.Warn("Document not pending; leaving status unchanged", "document_id", documentID, "error", err)
	default:
		metrics.DocumentTransitions.WithLabelValues(string(models.StatusStripePending), "error").Inc()
		log.Error("Failed to mark document awaiting payment", "document_id", documentID, "error", err)
	}
}

func describe(item models.DocumentItem) string {
	parts := []string{fmt.Sprintf("%d page(s)", item.Pages)}
	if item.OriginalLanguage != "" && item.TargetLanguage != "" {
		parts = append(parts, item.OriginalLanguage+" → "+item.TargetLanguage)
	}
	if item.IsNotarized {
		parts = append(parts, "notarized")
	}
	if item.IsBankStatement {
		parts = append(parts, "bank statement")
	}
	return strings.Join(parts, ", ")
}

// ConfirmResult lists the documents a confirmation moved to processing.
type ConfirmResult struct {
	Session   *models.CheckoutSession
	Processed []*models.Document
	Skipped   int
}

// ConfirmPayment handles the provider's payment confirmation. The local
// session row is authoritative; when it is missing it is rebuilt from the
// provider metadata. Repeated confirmations for the same session move no
// document twice.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, sessionID string, flat map[string]string) (*ConfirmResult, error) {
	session, err := o.loadOrRebuild(ctx, sessionID, flat)
	if err != nil {
		return nil, err
	}

	log := o.logger.With("session_id", sessionID)

	if session.PaymentStatus != models.PaymentPaid {
		if err := o.sessions.UpdatePaymentStatus(ctx, sessionID, models.PaymentPaid); err != nil {
			log.Error("Failed to mark checkout session paid", "error", err)
		}
		session.PaymentStatus = models.PaymentPaid
	}

	result := &ConfirmResult{Session: session}
	from := models.StatusStripePending

	for _, id := range session.DocumentIDs {
		doc, err := o.docs.Transition(ctx, id, &from, models.StatusProcessing)
		switch {
		case err == nil:
			metrics.DocumentTransitions.WithLabelValues(string(models.StatusProcessing), "ok").Inc()
			result.Processed = append(result.Processed, doc)
		case errors.Is(err, utils.ErrStateConflict), errors.Is(err, utils.ErrNotFound):
			metrics.DocumentTransitions.WithLabelValues(string(models.StatusProcessing), "conflict").Inc()
			log.Info("Skipping document on payment confirmation", "document_id", id, "reason", err.Error())
			result.Skipped++
		default:
			return nil, fmt.Errorf("failed to move document %s to processing: %w", id, err)
		}
	}

	log.Info("Payment confirmed", "processed", len(result.Processed), "skipped", result.Skipped)
	return result, nil
}

// ExpireSession cancels a session the customer never paid and returns its
// documents to pending so they can be checked out again.
func (o *Orchestrator) ExpireSession(ctx context.Context, sessionID string, flat map[string]string) error {
	session, err := o.loadOrRebuild(ctx, sessionID, flat)
	if err != nil {
		return err
	}
	if session.PaymentStatus == models.PaymentPaid {
		return nil
	}

	if err := o.sessions.UpdatePaymentStatus(ctx, sessionID, models.PaymentCancelled); err != nil {
		o.logger.Error("Failed to mark checkout session cancelled", "session_id", sessionID, "error", err)
	}

	from := models.StatusStripePending
	for _, id := range session.DocumentIDs {
		if _, err := o.docs.Transition(ctx, id, &from, models.StatusPending); err != nil &&
			!errors.Is(err, utils.ErrStateConflict) && !errors.Is(err, utils.ErrNotFound) {
			return fmt.Errorf("failed to release document %s: %w", id, err)
		}
	}

	o.logger.Info("Checkout session expired", "session_id", sessionID, "documents", len(session.DocumentIDs))
	return nil
}

func (o *Orchestrator) loadOrRebuild(ctx context.Context, sessionID string, flat map[string]string) (*models.CheckoutSession, error) {
	session, err := o.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout session %s: %w", sessionID, err)
	}
	if session != nil {
		return session, nil
	}

	md, err := DecodeMetadata(flat)
	if err != nil {
		return nil, fmt.Errorf("checkout session %s unknown and metadata unusable: %w", sessionID, err)
	}

	session = &models.CheckoutSession{
		SessionID: sessionID,
		OwnerID:   md.UserID,
		Items:     md.Items,
		Amount:    md.TotalPrice,
		Currency:  o.settings.Currency,
	}
	for i, item := range session.Items {
		session.DocumentIDs = append(session.DocumentIDs, item.DocumentID)
		// prices do not travel in metadata
		if price, err := o.pricing.Price(item.Pages, item.IsNotarized, item.IsBankStatement); err == nil {
			session.Items[i].Price = price
		}
	}

	if err := o.sessions.Create(ctx, session); err != nil {
		o.logger.Error("Failed to store rebuilt checkout session", "session_id", sessionID, "error", err)
	} else {
		o.logger.Warn("Rebuilt missing checkout session from provider metadata", "session_id", sessionID)
	}

	return session, nil
}

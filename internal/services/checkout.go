package services

import (
	"context"
	"fmt"

	"github.com/BerylCAtieno/translation-checkout-api/internal/dispatch"
	"github.com/BerylCAtieno/translation-checkout-api/internal/environment"
	"github.com/BerylCAtieno/translation-checkout-api/internal/metrics"
	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/payment"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
)

type CheckoutService interface {
	CreateCheckout(ctx context.Context, req models.CheckoutRequest, res environment.Resolution) (*models.CheckoutResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// EventParser verifies a signed provider event.
type EventParser func(payload []byte, signature, secret string) (*payment.WebhookEvent, error)

type checkoutService struct {
	orchestrator *payment.Orchestrator
	resolver     *environment.Resolver
	parse        EventParser
	notifier     dispatch.Notifier
	logger       *utils.Logger
}

func NewCheckoutService(
	orchestrator *payment.Orchestrator,
	resolver *environment.Resolver,
	parse EventParser,
	notifier dispatch.Notifier,
	logger *utils.Logger,
) CheckoutService {
	return &checkoutService{
		orchestrator: orchestrator,
		resolver:     resolver,
		parse:        parse,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *checkoutService) CreateCheckout(ctx context.Context, req models.CheckoutRequest, res environment.Resolution) (*models.CheckoutResponse, error) {
	return s.orchestrator.CreateSession(ctx, req, res)
}

// HandleWebhook verifies the event against the production secret and then
// the test secret, since one endpoint receives both environments.
func (s *checkoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.verify(payload, signature)
	if err != nil {
		return err
	}

	log := s.logger.With("event_id", event.ID, "event_type", event.Type, "session_id", event.SessionID)

	switch event.Type {
	case payment.EventCheckoutCompleted:
		if !event.Paid {
			log.Info("Checkout completed without payment yet; waiting for settlement")
			return nil
		}
		result, err := s.orchestrator.ConfirmPayment(ctx, event.SessionID, event.Metadata)
		if err != nil {
			return err
		}
		s.dispatchPaid(ctx, log, result)
		return nil

	case payment.EventCheckoutExpired:
		return s.orchestrator.ExpireSession(ctx, event.SessionID, event.Metadata)

	default:
		log.Debug("Ignoring webhook event")
		return nil
	}
}

func (s *checkoutService) verify(payload []byte, signature string) (*payment.WebhookEvent, error) {
	var secrets []string
	for _, env := range []environment.Environment{environment.Production, environment.Test} {
		if secret, err := s.resolver.WebhookSecret(env); err == nil {
			secrets = append(secrets, secret)
		}
	}
	if len(secrets) == 0 {
		return nil, fmt.Errorf("no webhook secret configured: %w", utils.ErrConfiguration)
	}

	var lastErr error
	for _, secret := range secrets {
		event, err := s.parse(payload, signature, secret)
		if err == nil {
			return event, nil
		}
		lastErr = err
	}

	s.logger.Warn("Rejected webhook with invalid signature", "error", lastErr)
	return nil, lastErr
}

// dispatchPaid hands paid documents to the processing pipeline. The
// provider has already been paid, so a dispatch failure is logged for
// retry rather than bounced back to the provider.
func (s *checkoutService) dispatchPaid(ctx context.Context, log *utils.Logger, result *payment.ConfirmResult) {
	prices := make(map[string]int64, len(result.Session.Items))
	for _, item := range result.Session.Items {
		prices[item.DocumentID] = item.Price
	}

	for _, doc := range result.Processed {
		value, ok := prices[doc.ID]
		if !ok {
			value = doc.TotalCost
		}

		err := s.notifier.Notify(ctx, payloadFor(doc, value))
		metrics.Dispatches.WithLabelValues(metrics.Outcome(err)).Inc()
		if err != nil {
			log.Error("Failed to dispatch paid document", "doc_id", doc.ID, "error", err)
		}
	}
}

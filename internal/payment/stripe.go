package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeProvider struct {
	backends *stripe.Backends
}

// NewStripeProvider talks to the public Stripe API. apiURL overrides the
// endpoint (used against local fakes); empty means the default.
func NewStripeProvider(apiURL string, timeout time.Duration) *StripeProvider {
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(1),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if apiURL != "" {
		cfg.URL = stripe.String(apiURL)
	}

	return &StripeProvider{
		backends: &stripe.Backends{
			API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
			Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
			Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
		},
	}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, secretKey string, params SessionParams) (*ProviderSession, error) {
	sc := client.New(secretKey, p.backends)

	sp := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(params.SuccessURL),
		CancelURL:          stripe.String(params.CancelURL),
	}
	sp.Context = ctx

	if params.CustomerEmail != "" {
		sp.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	if params.ClientReferenceID != "" {
		sp.ClientReferenceID = stripe.String(params.ClientReferenceID)
	}

	for _, li := range params.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Description != "" {
			product.Description = stripe.String(li.Description)
		}

		sp.LineItems = append(sp.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(params.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	for k, v := range params.Metadata {
		sp.AddMetadata(k, v)
	}

	session, err := sc.CheckoutSessions.New(sp)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			return nil, fmt.Errorf("%w: %s", utils.ErrProvider, stripeErr.Msg)
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrProvider, err)
	}

	return &ProviderSession{ID: session.ID, URL: session.URL}, nil
}

// ParseStripeEvent verifies the Stripe-Signature header against secret and
// extracts the checkout session carried by the event.
func ParseStripeEvent(payload []byte, signature, secret string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signature: %w", utils.ErrValidation)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", utils.ErrValidation)
	}

	out.SessionID = session.ID
	out.Metadata = session.Metadata
	out.Paid = session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid

	return out, nil
}

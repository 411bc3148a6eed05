package payment

import "context"

type LineItem struct {
	Name        string
	Description string
	// UnitAmount is in the currency's minor unit.
	UnitAmount int64
	Quantity   int64
}

type SessionParams struct {
	Currency          string
	SuccessURL        string
	CancelURL         string
	CustomerEmail     string
	ClientReferenceID string
	LineItems         []LineItem
	Metadata          map[string]string
}

type ProviderSession struct {
	ID  string
	URL string
}

// Provider creates hosted checkout sessions. The secret key is chosen per
// request by the environment resolver.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, secretKey string, params SessionParams) (*ProviderSession, error)
}

// Event types delivered to the payment webhook.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
	Paid      bool
	Metadata  map[string]string
}

// ToMinorUnits converts whole currency units to cents.
func ToMinorUnits(amount int64) int64 {
	return amount * 100
}

package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

func TestStripeProviderCreateCheckoutSession(t *testing.T) {
	var form url.Values
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		auth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_abc","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_abc"}`))
	}))
	defer srv.Close()

	p := NewStripeProvider(srv.URL, 5*time.Second)
	session, err := p.CreateCheckoutSession(context.Background(), "sk_test_123", SessionParams{
		Currency:      "usd",
		SuccessURL:    "https://app.example/success",
		CancelURL:     "https://app.example/cancel",
		CustomerEmail: "maria@example.com",
		LineItems: []LineItem{
			{Name: "a.pdf", Description: "6 page(s)", UnitAmount: 9000, Quantity: 1},
			{Name: "b.pdf", UnitAmount: 2000, Quantity: 1},
		},
		Metadata: map[string]string{"userId": "user-1", "documentCount": "2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_abc", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_abc", session.URL)
	assert.Equal(t, "Bearer sk_test_123", auth)
	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "9000", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "2000", form.Get("line_items[1][price_data][unit_amount]"))
	assert.Equal(t, "b.pdf", form.Get("line_items[1][price_data][product_data][name]"))
	assert.Equal(t, "user-1", form.Get("metadata[userId]"))
	assert.Equal(t, "maria@example.com", form.Get("customer_email"))
}

func TestStripeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid currency: xyz"}}`))
	}))
	defer srv.Close()

	p := NewStripeProvider(srv.URL, 5*time.Second)
	_, err := p.CreateCheckoutSession(context.Background(), "sk_test_123", SessionParams{Currency: "xyz"})
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrProvider)
	assert.Contains(t, err.Error(), "Invalid currency: xyz")
}

func TestParseStripeEvent(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_abc",
			"object": "checkout.session",
			"payment_status": "paid",
			"metadata": {"userId": "user-1", "documentCount": "1"}
		}}
	}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  "whsec_test",
	})

	event, err := ParseStripeEvent(signed.Payload, signed.Header, "whsec_test")
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, "cs_test_abc", event.SessionID)
	assert.True(t, event.Paid)
	assert.Equal(t, "user-1", event.Metadata["userId"])

	_, err = ParseStripeEvent(signed.Payload, signed.Header, "whsec_other")
	assert.ErrorIs(t, err, utils.ErrValidation)
}

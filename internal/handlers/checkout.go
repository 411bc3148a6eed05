package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/BerylCAtieno/translation-checkout-api/internal/environment"
	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/services"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
)

// maxWebhookBody is the largest event payload the provider sends.
const maxWebhookBody = 64 << 10

type CheckoutHandler struct {
	service  services.CheckoutService
	resolver *environment.Resolver
	logger   *utils.Logger
}

func NewCheckoutHandler(service services.CheckoutService, resolver *environment.Resolver, logger *utils.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service:  service,
		resolver: resolver,
		logger:   logger,
	}
}

func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, err)
		return
	}

	if req.Client.UserAgent == "" {
		req.Client.UserAgent = r.UserAgent()
	}

	res, err := h.resolver.ResolveRequest(r)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	resp, err := h.service.CreateCheckout(r.Context(), req, res)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, resp)
}

// StripeWebhook always reads the raw body: the signature covers the exact
// bytes the provider sent.
func (h *CheckoutHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(h.logger, w, utils.NewBadRequestError("Invalid webhook body"))
		return
	}

	signature := strings.TrimSpace(r.Header.Get("Stripe-Signature"))
	if signature == "" {
		respondError(h.logger, w, utils.NewBadRequestError("Missing Stripe-Signature header"))
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, signature); err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]bool{"received": true})
}

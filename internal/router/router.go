package router

import (
	"net/http"

	"github.com/BerylCAtieno/translation-checkout-api/internal/environment"
	"github.com/BerylCAtieno/translation-checkout-api/internal/handlers"
	"github.com/BerylCAtieno/translation-checkout-api/internal/middleware"
	"github.com/BerylCAtieno/translation-checkout-api/internal/services"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Documents   services.DocumentService
	Checkout    services.CheckoutService
	Resolver    *environment.Resolver
	MaxFileSize int64
	Logger      *utils.Logger
}

func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics())
	r.Use(middleware.Recovery(d.Logger))

	docHandler := handlers.NewDocumentHandler(d.Documents, d.MaxFileSize, d.Logger)
	checkoutHandler := handlers.NewCheckoutHandler(d.Checkout, d.Resolver, d.Logger)
	adminHandler := handlers.NewAdminHandler(d.Documents, d.Logger)
	pipelineHandler := handlers.NewPipelineHandler(d.Documents, d.Logger)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Checkout
	api.HandleFunc("/checkout/sessions", checkoutHandler.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/webhooks/stripe", checkoutHandler.StripeWebhook).Methods(http.MethodPost)

	// Documents
	api.HandleFunc("/documents/upload", docHandler.UploadDocuments).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}", docHandler.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docHandler.DeleteDocument).Methods(http.MethodDelete)
	api.HandleFunc("/users/{ownerId}/documents", docHandler.ListDocuments).Methods(http.MethodGet)

	// Admin
	api.HandleFunc("/admin/reconcile", adminHandler.Reconcile).Methods(http.MethodPost)
	api.HandleFunc("/admin/documents/{id}/simulate-failure", adminHandler.SimulateFailure).Methods(http.MethodPost)

	// Pipeline callbacks
	api.HandleFunc("/pipeline/verifications", pipelineHandler.RecordVerification).Methods(http.MethodPost)
	api.HandleFunc("/pipeline/translations", pipelineHandler.RecordTranslation).Methods(http.MethodPost)
	api.HandleFunc("/pipeline/documents/{id}/complete", pipelineHandler.Complete).Methods(http.MethodPost)
	api.HandleFunc("/pipeline/documents/{id}/reject", pipelineHandler.Reject).Methods(http.MethodPost)

	// CORS preflight for every API route
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

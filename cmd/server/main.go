package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/translation-checkout-api/internal/config"
	"github.com/BerylCAtieno/translation-checkout-api/internal/db"
	"github.com/BerylCAtieno/translation-checkout-api/internal/dispatch"
	"github.com/BerylCAtieno/translation-checkout-api/internal/environment"
	"github.com/BerylCAtieno/translation-checkout-api/internal/extractor"
	"github.com/BerylCAtieno/translation-checkout-api/internal/payment"
	"github.com/BerylCAtieno/translation-checkout-api/internal/pricing"
	"github.com/BerylCAtieno/translation-checkout-api/internal/reconcile"
	"github.com/BerylCAtieno/translation-checkout-api/internal/repository"
	"github.com/BerylCAtieno/translation-checkout-api/internal/router"
	"github.com/BerylCAtieno/translation-checkout-api/internal/services"
	"github.com/BerylCAtieno/translation-checkout-api/internal/storage"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Initialize database
	database, err := db.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open database", "error", err)
	}
	defer database.Close()

	// Run migrations
	if err := db.RunMigrations(database); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	s3Storage, err := storage.NewS3Storage(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize S3 storage", "error", err)
	}

	docRepo := repository.NewDocumentRepository(database)
	verificationRepo := repository.NewVerificationRepository(database)
	translatedRepo := repository.NewTranslatedRepository(database)
	sessionRepo := repository.NewSessionRepository(database)

	resolver := environment.NewResolver(cfg.ProductionDomain, cfg.ProductionHosts, environment.Secrets{
		ProductionKey:     cfg.StripeSecretKeyProd,
		DefaultKey:        cfg.StripeSecretKey,
		TestKey:           cfg.StripeSecretKeyTest,
		ProductionWebhook: cfg.StripeWebhookSecret,
		TestWebhook:       cfg.StripeWebhookSecretTS,
	}, logger)

	engine := pricing.Default()
	notifier := dispatch.NewWebhookNotifier(cfg.ProcessingWebhookURL, cfg.DispatchTimeout, logger)

	cleaner := reconcile.NewCleaner(docRepo, verificationRepo, translatedRepo, s3Storage, reconcile.Settings{
		Bucket:     cfg.S3BucketName,
		MaxRetries: cfg.ReconcileMaxRetries,
		BaseDelay:  cfg.ReconcileBaseDelay,
	}, logger)

	orchestrator := payment.NewOrchestrator(engine, payment.NewStripeProvider("", cfg.ProviderTimeout),
		docRepo, sessionRepo, payment.Settings{
			Currency:   cfg.Currency,
			SuccessURL: cfg.SuccessURL,
			CancelURL:  cfg.CancelURL,
			Timeout:    cfg.ProviderTimeout,
		}, logger)

	docService := services.NewDocumentService(docRepo, verificationRepo, translatedRepo, s3Storage,
		extractor.NewCounter(), engine, cleaner, notifier, logger)
	checkoutService := services.NewCheckoutService(orchestrator, resolver, payment.ParseStripeEvent, notifier, logger)

	// Setup HTTP router
	handler := router.NewRouter(router.Deps{
		Documents:   docService,
		Checkout:    checkoutService,
		Resolver:    resolver,
		MaxFileSize: cfg.MaxFileSize,
		Logger:      logger,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port         string
	DatabasePath string
	LogLevel     string

	// S3
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool
	S3PublicBaseURL   string

	// Stripe
	ProductionDomain      string
	ProductionHosts       []string
	StripeSecretKeyProd   string
	StripeSecretKey       string
	StripeSecretKeyTest   string
	StripeWebhookSecret   string
	StripeWebhookSecretTS string
	Currency              string
	SuccessURL            string
	CancelURL             string

	// Processing pipeline
	ProcessingWebhookURL string

	// Timeouts for external calls
	ProviderTimeout time.Duration
	DispatchTimeout time.Duration
	StorageTimeout  time.Duration

	// Reconciliation late re-check
	ReconcileMaxRetries uint64
	ReconcileBaseDelay  time.Duration

	// Upload limits
	MaxFileSize int64
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		DatabasePath:          getEnv("DATABASE_PATH", "data/translations.db"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		S3Endpoint:            getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:         getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey:     getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:          getEnv("S3_BUCKET_NAME", "documents"),
		S3UseSSL:              getEnv("S3_USE_SSL", "false") == "true",
		S3PublicBaseURL:       getEnv("S3_PUBLIC_BASE_URL", "http://localhost:9000/documents"),
		ProductionDomain:      getEnv("PRODUCTION_DOMAIN", "lushamerica.com"),
		ProductionHosts:       getEnvList("PRODUCTION_HOSTS"),
		StripeSecretKeyProd:   getEnv("STRIPE_SECRET_KEY_PROD", ""),
		StripeSecretKey:       getEnv("STRIPE_SECRET_KEY", ""),
		StripeSecretKeyTest:   getEnv("STRIPE_SECRET_KEY_TEST", ""),
		StripeWebhookSecret:   getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookSecretTS: getEnv("STRIPE_WEBHOOK_SECRET_TEST", ""),
		Currency:              getEnv("CHECKOUT_CURRENCY", "usd"),
		SuccessURL:            getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:5173/payment-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:             getEnv("CHECKOUT_CANCEL_URL", "http://localhost:5173/payment-cancelled"),
		ProcessingWebhookURL:  getEnv("PROCESSING_WEBHOOK_URL", ""),
		MaxFileSize:           10 * 1024 * 1024,
	}

	var err error
	if cfg.ProviderTimeout, err = getEnvDuration("PROVIDER_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.DispatchTimeout, err = getEnvDuration("DISPATCH_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.StorageTimeout, err = getEnvDuration("STORAGE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReconcileBaseDelay, err = getEnvDuration("RECONCILE_BASE_DELAY", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.ReconcileMaxRetries, err = getEnvUint("RECONCILE_MAX_RETRIES", 3); err != nil {
		return nil, err
	}

	if cfg.ProcessingWebhookURL == "" {
		return nil, fmt.Errorf("PROCESSING_WEBHOOK_URL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getEnvUint(key string, defaultValue uint64) (uint64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PROCESSING_WEBHOOK_URL", "https://hooks.example.com/process")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "lushamerica.com", cfg.ProductionDomain)
	assert.Empty(t, cfg.ProductionHosts)
	assert.Equal(t, 20*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, uint64(3), cfg.ReconcileMaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.ReconcileBaseDelay)
	assert.Equal(t, "usd", cfg.Currency)
}

func TestLoad_RequiresWebhookURL(t *testing.T) {
	t.Setenv("PROCESSING_WEBHOOK_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROCESSING_WEBHOOK_URL")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PROCESSING_WEBHOOK_URL", "https://hooks.example.com/process")
	t.Setenv("PRODUCTION_HOSTS", "App.LushAmerica.com, lushamerica.com ,")
	t.Setenv("PROVIDER_TIMEOUT", "5s")
	t.Setenv("RECONCILE_MAX_RETRIES", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"app.lushamerica.com", "lushamerica.com"}, cfg.ProductionHosts)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, uint64(7), cfg.ReconcileMaxRetries)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("PROCESSING_WEBHOOK_URL", "https://hooks.example.com/process")
	t.Setenv("DISPATCH_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISPATCH_TIMEOUT")
}

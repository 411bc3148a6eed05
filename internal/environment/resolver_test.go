package environment

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allSecrets() Secrets {
	return Secrets{
		ProductionKey:     "sk_live_prod",
		DefaultKey:        "sk_live_default",
		TestKey:           "sk_test_only",
		ProductionWebhook: "whsec_prod",
		TestWebhook:       "whsec_test",
	}
}

func newResolver(secrets Secrets, hosts ...string) *Resolver {
	return NewResolver("lushamerica.com", hosts, secrets, utils.NewNopLogger())
}

func TestResolve_ProductionHost(t *testing.T) {
	res, err := newResolver(allSecrets()).Resolve(http.Header{}, "app.lushamerica.com")
	require.NoError(t, err)
	assert.Equal(t, Production, res.Environment)
	assert.Equal(t, "sk_live_prod", res.Credentials.SecretKey)
}

func TestResolve_LocalhostIsTest(t *testing.T) {
	res, err := newResolver(allSecrets()).Resolve(http.Header{}, "localhost:5173")
	require.NoError(t, err)
	assert.Equal(t, Test, res.Environment)
	assert.Equal(t, "sk_test_only", res.Credentials.SecretKey)
}

func TestResolve_NoHeadersIsTest(t *testing.T) {
	res, err := newResolver(allSecrets()).Resolve(http.Header{}, "")
	require.NoError(t, err)
	assert.Equal(t, Test, res.Environment)
}

func TestResolve_RefererOrOriginSelectsProduction(t *testing.T) {
	h := http.Header{}
	h.Set("Referer", "https://lushamerica.com/checkout")
	res, err := newResolver(allSecrets()).Resolve(h, "api.internal:8080")
	require.NoError(t, err)
	assert.Equal(t, Production, res.Environment)

	h = http.Header{}
	h.Set("Origin", "https://www.LushAmerica.com")
	res, err = newResolver(allSecrets()).Resolve(h, "")
	require.NoError(t, err)
	assert.Equal(t, Production, res.Environment)
}

func TestResolve_FromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://app.lushamerica.com/api/v1/checkout/sessions", nil)
	res, err := newResolver(allSecrets()).ResolveRequest(req)
	require.NoError(t, err)
	assert.Equal(t, Production, res.Environment)
}

func TestResolve_ProductionFallsBackToDefaultKey(t *testing.T) {
	s := allSecrets()
	s.ProductionKey = ""
	res, err := newResolver(s).Resolve(http.Header{}, "lushamerica.com")
	require.NoError(t, err)
	assert.Equal(t, "sk_live_default", res.Credentials.SecretKey)
}

func TestResolve_MissingSecretIsConfigurationError(t *testing.T) {
	_, err := newResolver(Secrets{DefaultKey: "sk_live_default"}).Resolve(http.Header{}, "localhost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConfiguration))

	_, err = newResolver(Secrets{TestKey: "sk_test"}).Resolve(http.Header{}, "lushamerica.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConfiguration))
}

func TestResolve_SubstringMatchAcceptsLookalikes(t *testing.T) {
	h := http.Header{}
	h.Set("Referer", "https://evil.example/?lushamerica.com")
	res, err := newResolver(allSecrets()).Resolve(h, "localhost")
	require.NoError(t, err)
	assert.Equal(t, Production, res.Environment)
}

func TestResolve_AllowListRequiresExactHost(t *testing.T) {
	r := newResolver(allSecrets(), "lushamerica.com", "app.lushamerica.com")

	h := http.Header{}
	h.Set("Referer", "https://evil.example/?lushamerica.com")
	res, err := r.Resolve(h, "localhost")
	require.NoError(t, err)
	assert.Equal(t, Test, res.Environment)

	res, err = r.Resolve(http.Header{}, "app.lushamerica.com:443")
	require.NoError(t, err)
	assert.Equal(t, Production, res.Environment)
}

func TestWebhookSecret(t *testing.T) {
	r := newResolver(allSecrets())

	s, err := r.WebhookSecret(Production)
	require.NoError(t, err)
	assert.Equal(t, "whsec_prod", s)

	_, err = newResolver(Secrets{TestKey: "k"}).WebhookSecret(Test)
	assert.True(t, errors.Is(err, utils.ErrConfiguration))
}

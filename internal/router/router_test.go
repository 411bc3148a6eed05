package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BerylCAtieno/translation-checkout-api/internal/environment"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() http.Handler {
	return NewRouter(Deps{
		Resolver:    environment.NewResolver("lushamerica.com", nil, environment.Secrets{}, utils.NewNopLogger()),
		MaxFileSize: 1 << 20,
		Logger:      utils.NewNopLogger(),
	})
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `translation_http_requests_total{method="GET",route="/api/v1/health",status="200"}`)
}

func TestPanicsAreCounted(t *testing.T) {
	h := newTestRouter()

	// no document service is wired, so the handler panics
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc-1", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `translation_http_requests_total{method="GET",route="/api/v1/documents/{id}",status="500"}`)
}

func TestPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/checkout/sessions", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/documents/abc", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opsdesk/opsdesk-api/internal/config"
	"github.com/opsdesk/opsdesk-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func preflight(t *testing.T, cfg *config.CORSConfig, environment, origin string) *httptest.ResponseRecorder {
	t.Helper()
	h := middleware.CORS(cfg, environment, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func corsConfig(origins ...string) *config.CORSConfig {
	return &config.CORSConfig{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func TestCORS_DevelopmentAllowsAllOrigins(t *testing.T) {
	w := preflight(t, corsConfig(), "development", "http://localhost:5173")

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	cfg := corsConfig("https://ops.example.com", "https://admin.example.com")

	w := preflight(t, cfg, "production", "https://ops.example.com")
	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight(t, cfg, "production", "https://evil.example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ProductionWithoutOriginsDeniesAll(t *testing.T) {
	w := preflight(t, corsConfig(), "production", "https://ops.example.com")

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Wildcard(t *testing.T) {
	w := preflight(t, corsConfig("*"), "staging", "https://preview.example.com")

	assert.Equal(t, "https://preview.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

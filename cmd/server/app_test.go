package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayush/myblog/backend/internal/auth"
	"github.com/ayush/myblog/backend/internal/blog"
	"github.com/ayush/myblog/backend/internal/config"
	"github.com/ayush/myblog/backend/internal/graph"
	"github.com/ayush/myblog/backend/internal/observability"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{StoreBackend: "memory", JWTSecret: "k", CORSOrigins: []string{"http://localhost:3000"}}

	b, err := openBackend(context.Background(), cfg)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	exec, err := graph.NewExecutor(blog.NewService(b.store, auth.NewTokenService(cfg.JWTSecret), zap.NewNop()), metrics)
	require.NoError(t, err)

	return newRouter(cfg, exec, metrics, reg, zap.NewNop())
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_GraphQLAndMetrics(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ hello }"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `graphql_operations_total{operation="hello",status="ok"} 1`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()

	newTestServer(t).ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenBackend_Unknown(t *testing.T) {
	_, err := openBackend(context.Background(), &config.Config{StoreBackend: "sqlite"})
	assert.ErrorContains(t, err, "unknown store backend")
}

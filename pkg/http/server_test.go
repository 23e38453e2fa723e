package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicRoute struct{}

func (panicRoute) RegisterRoutes(e *echo.Echo) {
	e.GET("/boom", func(echo.Context) error { panic("boom") })
}

func serve(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body APIResponse
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthEndpoints(t *testing.T) {
	health := NewHealthHandler(0)
	health.Register("storage", CheckerFunc(func(context.Context) error { return nil }))
	s := NewServer([]Handler{health}, WithMetrics("/metrics", prometheus.NewRegistry()))

	rec, body := serve(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", body.Data)

	rec, _ = serve(t, s, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"storage","healthy":true`)

	health.Register("cache", CheckerFunc(func(context.Context) error { return errors.New("redis down") }))
	rec, body = serve(t, s, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusServiceUnavailable, body.Status)
	assert.Contains(t, rec.Body.String(), "redis down")
}

func TestHealthCheckSortedResults(t *testing.T) {
	h := NewHealthHandler(0)
	h.Register("b", CheckerFunc(func(context.Context) error { return nil }))
	h.Register("a", CheckerFunc(func(context.Context) error { return errors.New("x") }))
	h.Register("ignored", nil)

	results, ok := h.Check(context.Background())
	assert.False(t, ok)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Name)
	assert.Equal(t, "x", results[0].Error)
	assert.True(t, results[1].Healthy)
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "finsight_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	s := NewServer([]Handler{NewHealthHandler(0)}, WithMetrics("/metrics", reg))
	serve(t, s, "/healthz")

	rec, _ := serve(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "finsight_test_total 1")
	assert.Contains(t, rec.Body.String(), `finsight_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestRecoverReturns500(t *testing.T) {
	s := NewServer([]Handler{panicRoute{}}, WithMetrics("", prometheus.NewRegistry()))
	rec, _ := serve(t, s, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSharedRegistryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		NewServer(nil, WithMetrics("/metrics", reg))
		NewServer(nil, WithMetrics("/metrics", reg))
	})
}

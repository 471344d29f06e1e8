package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aescanero/dago-chat-gateway/internal/server"
	"github.com/aescanero/dago-chat-gateway/internal/telemetry"
	"github.com/m-mizutani/gt"
	"go.uber.org/zap"
)

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthServerHealthy(t *testing.T) {
	hs := server.NewHealthServer(0, map[string]server.Check{
		"redis": func(ctx context.Context) error { return nil },
	}, telemetry.NewMetrics().Handler(), zap.NewNop())
	h := hs.Handler()

	rec := get(h, "/health")
	gt.Equal(t, rec.Code, http.StatusOK)
	var resp server.HealthResponse
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	gt.Equal(t, resp.Status, "healthy")
	gt.Equal(t, resp.Checks["redis"], "healthy")

	gt.Equal(t, get(h, "/ready").Code, http.StatusOK)

	rec = get(h, "/metrics")
	gt.Equal(t, rec.Code, http.StatusOK)
	gt.S(t, rec.Body.String()).Contains("go_goroutines")
}

func TestHealthServerUnhealthy(t *testing.T) {
	hs := server.NewHealthServer(0, map[string]server.Check{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	}, nil, zap.NewNop())
	h := hs.Handler()

	rec := get(h, "/health")
	gt.Equal(t, rec.Code, http.StatusServiceUnavailable)
	var resp server.HealthResponse
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	gt.Equal(t, resp.Status, "unhealthy")
	gt.S(t, resp.Checks["redis"]).Contains("connection refused")

	rec = get(h, "/ready")
	gt.Equal(t, rec.Code, http.StatusServiceUnavailable)
	gt.Equal(t, get(h, "/metrics").Code, http.StatusNotFound)
}

func TestHealthServerNoChecks(t *testing.T) {
	hs := server.NewHealthServer(0, nil, nil, zap.NewNop())
	gt.Equal(t, get(hs.Handler(), "/health").Code, http.StatusOK)
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Check probes one dependency; a nil error means healthy
type Check func(ctx context.Context) error

// HealthServer serves liveness, readiness and metrics on a separate port
type HealthServer struct {
	port    int
	checks  map[string]Check
	metrics http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// NewHealthServer creates a new health server. metrics may be nil.
func NewHealthServer(port int, checks map[string]Check, metrics http.Handler, logger *zap.Logger) *HealthServer {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &HealthServer{
		port:    port,
		checks:  checks,
		metrics: metrics,
		logger:  logger,
	}
}

// Handler returns the health endpoints
func (hs *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/ready", hs.handleReady)
	if hs.metrics != nil {
		mux.Handle("/metrics", hs.metrics)
	}
	return mux
}

// Start starts the health check server
func (hs *HealthServer) Start() error {
	hs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", hs.port),
		Handler:           hs.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	hs.logger.Info("starting health server", zap.Int("port", hs.port))

	go func() {
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			hs.logger.Error("health server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the health check server
func (hs *HealthServer) Stop() error {
	if hs.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hs.logger.Info("stopping health server")
	return hs.server.Shutdown(ctx)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// runChecks reports each check's result and whether all passed
func (hs *HealthServer) runChecks(ctx context.Context) (map[string]string, bool) {
	names := make([]string, 0, len(hs.checks))
	for name := range hs.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := hs.checks[name](ctx); err != nil {
			results[name] = fmt.Sprintf("unhealthy: %v", err)
			healthy = false
			continue
		}
		results[name] = "healthy"
	}
	return results, healthy
}

// handleHealth handles the /health endpoint
func (hs *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks, healthy := hs.runChecks(ctx)
	if !healthy {
		respondJSON(w, hs.logger, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Checks: checks,
		})
		return
	}

	respondJSON(w, hs.logger, http.StatusOK, HealthResponse{
		Status: "healthy",
		Checks: checks,
	})
}

// handleReady handles the /ready endpoint
func (hs *HealthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, ready := hs.runChecks(ctx); !ready {
		respondJSON(w, hs.logger, http.StatusServiceUnavailable, HealthResponse{
			Status: "not ready",
		})
		return
	}

	respondJSON(w, hs.logger, http.StatusOK, HealthResponse{
		Status: "ready",
	})
}

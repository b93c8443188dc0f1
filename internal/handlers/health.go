package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pocketdrop/internal/history"
	"pocketdrop/internal/metrics"
	"pocketdrop/internal/mirror"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	logger       *zap.Logger
	metrics      *metrics.Metrics
	history      history.Store
	mirror       mirror.Mirror
	uploadRoot   string
	downloadRoot string
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(logger *zap.Logger, m *metrics.Metrics, hist history.Store, mir mirror.Mirror, uploadRoot, downloadRoot string) *HealthHandler {
	return &HealthHandler{
		logger:       logger,
		metrics:      m,
		history:      hist,
		mirror:       mir,
		uploadRoot:   uploadRoot,
		downloadRoot: downloadRoot,
	}
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Version string            `json:"version,omitempty"`
}

// Health runs every dependency check concurrently and reports the
// aggregate. A disabled history store or mirror answers its check with a
// nop success, so the report shape is stable across configurations.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	type check struct {
		name string
		run  func(context.Context) error
	}
	checks := []check{
		{"upload_root", func(context.Context) error { return checkRoot(h.uploadRoot) }},
		{"download_root", func(context.Context) error { return checkRoot(h.downloadRoot) }},
		{"history", h.history.Ping},
		{"mirror", h.mirror.HealthCheck},
	}

	// Each goroutine owns one slot; failures are collected, not returned,
	// so one bad dependency never cancels the remaining checks.
	results := make([]error, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = c.run(ctx)
			return nil
		})
	}
	g.Wait()

	allHealthy := true
	statuses := make(map[string]string, len(checks))
	for i, c := range checks {
		if results[i] == nil {
			statuses[c.name] = "ok"
			h.metrics.HealthStatus.WithLabelValues(c.name).Set(1)
			continue
		}
		statuses[c.name] = "unavailable"
		allHealthy = false
		h.metrics.HealthStatus.WithLabelValues(c.name).Set(0)
		h.metrics.HealthChecksFailed.WithLabelValues(c.name).Inc()
		h.logger.Warn("health check failed", zap.String("component", c.name), zap.Error(results[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	if !allHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(healthResponse{
		Status:  map[bool]string{true: "healthy", false: "unhealthy"}[allHealthy],
		Checks:  statuses,
		Version: "1.0.0",
	})
}

func checkRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

package handlers

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pocketdrop/internal/archive"
	"pocketdrop/internal/catalog"
	"pocketdrop/internal/circuitbreaker"
	"pocketdrop/internal/history"
	"pocketdrop/internal/metrics"
	"pocketdrop/internal/mirror"
	"pocketdrop/internal/models"
	"pocketdrop/internal/observer"
	"pocketdrop/internal/upload"
)

// Handler serves the transfer surface: the themed page, the catalog API,
// multipart uploads, and the three download variants.
type Handler struct {
	logger   *zap.Logger
	metrics  *metrics.Metrics
	recorder *observer.Recorder
	catalog  *catalog.Catalog
	builder  *archive.Builder
	saver    *upload.Saver
	history  history.Store
	mirror   mirror.Mirror

	downloadRoot   string
	theme          string
	maxUploadBytes int64
	recentLimit    int
}

// NewHandler creates the transfer handler. downloadRoot must match the
// root the catalog and builder were created over.
func NewHandler(
	logger *zap.Logger,
	m *metrics.Metrics,
	recorder *observer.Recorder,
	cat *catalog.Catalog,
	builder *archive.Builder,
	saver *upload.Saver,
	hist history.Store,
	mir mirror.Mirror,
	downloadRoot string,
	theme string,
	maxUploadBytes int64,
	recentLimit int,
) *Handler {
	return &Handler{
		logger:         logger,
		metrics:        m,
		recorder:       recorder,
		catalog:        cat,
		builder:        builder,
		saver:          saver,
		history:        hist,
		mirror:         mir,
		downloadRoot:   downloadRoot,
		theme:          theme,
		maxUploadBytes: maxUploadBytes,
		recentLimit:    recentLimit,
	}
}

// recordHistory writes a transfer record to the optional history store on
// its own goroutine. The store is an audit sink; failures are logged and
// never surface to the request.
func (h *Handler) recordHistory(r *http.Request, kind, path, name string, size int64, status string) {
	rec := &models.TransferRecord{
		ID:        uuid.New().String(),
		Kind:      kind,
		Path:      path,
		Name:      name,
		SizeBytes: size,
		Status:    status,
		Remote:    remoteHost(r),
		CreatedAt: time.Now().UTC(),
	}

	// The goroutine outlives the request, so the correlation ID is captured
	// here rather than read from the request context later.
	reqID := GetRequestID(r.Context())
	go func() {
		if err := h.history.RecordTransfer(context.Background(), rec); err != nil {
			if circuitbreaker.Rejected(err) {
				h.logger.Debug("history write skipped while breaker open",
					zap.String("kind", kind),
					zap.String("request_id", reqID))
				return
			}
			h.logger.Warn("history write failed",
				zap.String("kind", kind),
				zap.String("request_id", reqID),
				zap.Error(err))
		}
	}()
}

// mirrorUpload copies a stored upload to the configured mirror on its own
// goroutine. Mirror failures never affect the upload response.
func (h *Handler) mirrorUpload(key string, data []byte) {
	if h.mirror.Type() == "" {
		return
	}

	go func() {
		if err := h.mirror.Put(context.Background(), key, data); err != nil {
			if circuitbreaker.Rejected(err) {
				h.logger.Debug("mirror copy skipped while breaker open", zap.String("key", key))
				return
			}
			h.logger.Warn("mirror copy failed", zap.String("key", key), zap.Error(err))
			h.recorder.Logf("✗ Mirror copy failed: %s", key)
			return
		}
		h.recorder.Logf("✓ Copied to mirror: %s", key)
	}()
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

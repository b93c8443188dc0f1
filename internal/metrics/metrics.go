package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP requests
	RequestsTotal *prometheus.CounterVec // by status code

	// Transfer outcomes
	UploadsTotal   *prometheus.CounterVec // by status: completed, partial, failed
	DownloadsTotal *prometheus.CounterVec // by kind (file, folder, selection) and status

	// Upload parts
	UploadedFilesTotal prometheus.Counter // files persisted across all uploads
	SkippedPartsTotal  prometheus.Counter // malformed or unwritable parts dropped

	// Performance metrics
	DurationHist      prometheus.Histogram
	UploadBytesHist   prometheus.Histogram
	DownloadBytesHist prometheus.Histogram

	// Archive statistics
	ArchiveEntriesHist prometheus.Histogram
	ArchiveBytesHist   prometheus.Histogram
	CompressionRatio   prometheus.Histogram

	// Catalog
	CatalogFallbacksTotal prometheus.Counter // listings that fell back to the root

	// Session activity
	ConnectionsGauge prometheus.Gauge // current observer counter value

	// Backend performance
	HistoryWriteDuration *prometheus.HistogramVec // transfer-log write latency by engine
	MirrorUploadDuration *prometheus.HistogramVec // mirror upload latency by type and result

	// Webhook metrics
	WebhooksTotal  *prometheus.CounterVec // by status: success, failure
	WebhookRetries prometheus.Counter

	// Concurrency
	ActiveTransfers prometheus.Gauge
	ActiveArchives  prometheus.Gauge

	// Client behavior
	ClientDisconnectsTotal prometheus.Counter

	// Auth
	AuthFailuresTotal prometheus.Counter // rejected metrics-endpoint credentials

	// Circuit breaker
	CircuitBreakerState      *prometheus.GaugeVec   // by backend: history, mirror
	CircuitBreakerRejections *prometheus.CounterVec // calls refused while open

	// Health checks
	HealthStatus       *prometheus.GaugeVec   // by component (1=healthy, 0=unhealthy)
	HealthChecksFailed *prometheus.CounterVec // by component

	// System metrics
	MemoryGauge     prometheus.Gauge
	GoroutinesGauge prometheus.Gauge
}

// New creates and registers all metrics
func New() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = &Metrics{
			// HTTP requests
			RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "pocketdrop_requests_total",
				Help: "Total number of HTTP requests by status code",
			}, []string{"status"}),

			// Transfer outcomes
			UploadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "pocketdrop_uploads_total",
				Help: "Total number of upload requests by outcome (completed, partial, failed)",
			}, []string{"status"}),
			DownloadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "pocketdrop_downloads_total",
				Help: "Total number of download requests by kind and outcome",
			}, []string{"kind", "status"}),

			// Upload parts
			UploadedFilesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "pocketdrop_uploaded_files_total",
				Help: "Total number of files persisted from multipart uploads",
			}),
			SkippedPartsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "pocketdrop_skipped_parts_total",
				Help: "Total number of multipart parts dropped as malformed or unwritable",
			}),

			// Performance metrics
			DurationHist: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "pocketdrop_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			}),
			UploadBytesHist: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "pocketdrop_upload_bytes",
				Help:    "Request body size per upload",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 15), // 1KiB to ~1TiB
			}),
			DownloadBytesHist: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "pocketdrop_download_bytes",
				Help:    "Outgoing bytes per single-file download",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 15),
			}),

			// Archive statistics
			ArchiveEntriesHist: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "pocketdrop_archive_entries",
				Help:    "Number of entries written per ZIP archive",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 500, 1000},
			}),
			ArchiveBytesHist: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "pocketdrop_archive_bytes",
				Help:    "Compressed ZIP size per archive download",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 15),
			}),
			CompressionRatio: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "pocketdrop_compression_ratio",
				Help:    "Compression ratio (compressed/uncompressed)",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			}),

			// Catalog
			CatalogFallbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "pocketdrop_catalog_fallbacks_total",
				Help: "Total number of listings that fell back to the root for a bad path",
			}),

			// Session activity
			ConnectionsGauge: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "pocketdrop_connections",
				Help: "Current value of the session connection counter",
			}),

			// Backend performance
			HistoryWriteDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "pocketdrop_history_write_duration_seconds",
				Help:    "Transfer-log write duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			}, []string{"engine"}),
			MirrorUploadDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "pocketdrop_mirror_upload_duration_seconds",
				Help:    "Mirror upload duration per file in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			}, []string{"type", "result"}),

			// Webhook metrics
			WebhooksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "pocketdrop_webhooks_total",
				Help: "Total number of event webhook attempts by status",
			}, []string{"status"}),
			WebhookRetries: promauto.NewCounter(prometheus.CounterOpts{
				Name: "pocketdrop_webhook_retries_total",
				Help: "Total number of event webhook retry attempts",
			}),

			// Concurrency
			ActiveTransfers: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "pocketdrop_active_transfers",
				Help: "Number of currently active upload/download requests",
			}),
			ActiveArchives: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "pocketdrop_active_archives",
				Help: "Number of ZIP archives currently being built",
			}),

			// Client behavior
			ClientDisconnectsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "pocketdrop_client_disconnects_total",
				Help: "Total number of client disconnects during a transfer",
			}),

			// Auth
			AuthFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "pocketdrop_auth_failures_total",
				Help: "Total number of rejected metrics-endpoint credentials",
			}),

			// Circuit breaker
			CircuitBreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "pocketdrop_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			}, []string{"backend"}),
			CircuitBreakerRejections: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "pocketdrop_circuit_breaker_rejections_total",
				Help: "Calls refused because the circuit breaker was open",
			}, []string{"backend"}),

			// Health checks
			HealthStatus: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "pocketdrop_health_status",
				Help: "Health status by component (1=healthy, 0=unhealthy)",
			}, []string{"component"}),
			HealthChecksFailed: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "pocketdrop_health_checks_failed_total",
				Help: "Total number of failed health checks by component",
			}, []string{"component"}),

			// System metrics
			MemoryGauge: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "pocketdrop_memory_heap_alloc_bytes",
				Help: "Current heap allocation in bytes",
			}),
			GoroutinesGauge: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "pocketdrop_goroutines",
				Help: "Number of goroutines",
			}),
		}
	})

	return defaultMetrics
}

// StartRuntimeMetricsCollector starts a goroutine that updates runtime metrics
func (m *Metrics) StartRuntimeMetricsCollector() {
	go func() {
		for {
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			m.MemoryGauge.Set(float64(mem.HeapAlloc))
			m.GoroutinesGauge.Set(float64(runtime.NumGoroutine()))
			time.Sleep(10 * time.Second)
		}
	}()
}

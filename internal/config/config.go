package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// DefaultMaxUploadBytes is the hard cap on an upload body. Requests
// declaring a larger Content-Length are rejected before the body is read.
const DefaultMaxUploadBytes = 500000000

// Config holds all application configuration
type Config struct {
	// Server
	Port   string
	Theme  string // "wifi" or "hotspot" page styling
	ShowQR bool

	// Roots
	UploadDir   string
	DownloadDir string

	// Limits
	MaxUploadBytes        int64
	MaxConcurrentArchives int64

	// History store (optional transfer log)
	HistoryURL          string
	HistoryEngine       string // derived from HISTORY_URL scheme; "" = disabled
	TableName           string
	KeyPrefix           string // For Redis
	DBMaxConnections    int    // connection pool size (default: 20)
	HistoryQueryTimeout time.Duration
	HistoryRecentLimit  int

	// Upload mirror (optional off-box copy of uploads)
	MirrorType        string // "s3", "local", or "" when disabled
	MirrorPath        string // base directory for the local mirror
	MirrorBucket      string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UsePathStyle    bool
	MirrorTimeout     time.Duration
	MirrorMaxRetries  int
	MirrorRetryDelay  time.Duration

	// Circuit Breaker
	CircuitBreakerThreshold   int           // failures before opening
	CircuitBreakerTimeout     time.Duration // time to wait before half-open
	CircuitBreakerMaxRequests int           // max requests in half-open state

	// Event webhook (optional activity listener)
	EventWebhookURL   string
	WebhookMaxRetries int
	WebhookRetryDelay time.Duration

	// Metrics
	MetricsUsername string
	MetricsPassword string // plain or bcrypt hash
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return nil, fmt.Errorf("invalid PORT %q: must be a number between 1 and 65535", port)
	}

	theme := os.Getenv("THEME")
	if theme == "" {
		theme = "wifi"
	}
	if theme != "wifi" && theme != "hotspot" {
		return nil, fmt.Errorf("invalid THEME %q: must be \"wifi\" or \"hotspot\"", theme)
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	downloadDir := os.Getenv("DOWNLOAD_DIR")
	if downloadDir == "" {
		downloadDir = "shared"
	}

	maxUploadBytes := int64(DefaultMaxUploadBytes)
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %q", v)
		}
		maxUploadBytes = parsed
	}

	maxConcurrentArchives := int64(4)
	if v := os.Getenv("MAX_CONCURRENT_ARCHIVES"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("invalid MAX_CONCURRENT_ARCHIVES: %q", v)
		}
		maxConcurrentArchives = parsed
	}

	// The history store is optional; the engine comes from the URL scheme.
	historyURL := os.Getenv("HISTORY_URL")
	historyEngine := ""
	if historyURL != "" {
		u, err := url.Parse(historyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid HISTORY_URL: %w", err)
		}
		historyEngine = u.Scheme
	}

	tableName := os.Getenv("TABLE_NAME")
	if tableName == "" {
		tableName = "transfers"
	}

	s3UsePathStyle := false
	if v := os.Getenv("S3_USE_PATH_STYLE"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			s3UsePathStyle = parsed
		}
	}

	// The mirror type follows from which destination is configured
	// unless MIRROR_TYPE pins it explicitly.
	mirrorType := os.Getenv("MIRROR_TYPE")
	if mirrorType == "" {
		switch {
		case os.Getenv("MIRROR_BUCKET") != "":
			mirrorType = "s3"
		case os.Getenv("MIRROR_PATH") != "":
			mirrorType = "local"
		}
	}

	return &Config{
		Port:   port,
		Theme:  theme,
		ShowQR: parseBool(os.Getenv("SHOW_QR"), true),

		UploadDir:   uploadDir,
		DownloadDir: downloadDir,

		MaxUploadBytes:        maxUploadBytes,
		MaxConcurrentArchives: maxConcurrentArchives,

		HistoryURL:          historyURL,
		HistoryEngine:       historyEngine,
		TableName:           tableName,
		KeyPrefix:           os.Getenv("KEY_PREFIX"),
		DBMaxConnections:    parseInt(os.Getenv("DB_MAX_CONNECTIONS"), 20),
		HistoryQueryTimeout: parseDuration(os.Getenv("HISTORY_QUERY_TIMEOUT"), 5*time.Second),
		HistoryRecentLimit:  parseInt(os.Getenv("HISTORY_RECENT_LIMIT"), 50),

		MirrorType:        mirrorType,
		MirrorPath:        os.Getenv("MIRROR_PATH"),
		MirrorBucket:      os.Getenv("MIRROR_BUCKET"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          os.Getenv("S3_REGION"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3UsePathStyle:    s3UsePathStyle,
		MirrorTimeout:     parseDuration(os.Getenv("MIRROR_TIMEOUT"), 60*time.Second),
		MirrorMaxRetries:  parseInt(os.Getenv("MIRROR_MAX_RETRIES"), 3),
		MirrorRetryDelay:  parseDuration(os.Getenv("MIRROR_RETRY_DELAY"), 1*time.Second),

		CircuitBreakerThreshold:   parseInt(os.Getenv("CIRCUIT_BREAKER_THRESHOLD"), 5),
		CircuitBreakerTimeout:     parseDuration(os.Getenv("CIRCUIT_BREAKER_TIMEOUT"), 60*time.Second),
		CircuitBreakerMaxRequests: parseInt(os.Getenv("CIRCUIT_BREAKER_MAX_REQUESTS"), 2),

		EventWebhookURL:   os.Getenv("EVENT_WEBHOOK_URL"),
		WebhookMaxRetries: parseInt(os.Getenv("WEBHOOK_MAX_RETRIES"), 3),
		WebhookRetryDelay: parseDuration(os.Getenv("WEBHOOK_RETRY_DELAY"), 5*time.Second),

		MetricsUsername: os.Getenv("METRICS_USERNAME"),
		MetricsPassword: os.Getenv("METRICS_PASSWORD"),
	}, nil
}

// HistoryEnabled reports whether a transfer log backend is configured.
func (c *Config) HistoryEnabled() bool {
	return c.HistoryURL != ""
}

// MirrorEnabled reports whether an upload mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.MirrorType != ""
}

// Helper functions for parsing configuration values

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	if s == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

func parseBool(s string, defaultValue bool) bool {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue
	}
	return val
}

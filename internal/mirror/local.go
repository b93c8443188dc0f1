package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pocketdrop/internal/circuitbreaker"
	"pocketdrop/internal/metrics"
)

// LocalMirror implements Mirror for a second directory, typically an
// external disk or network mount
type LocalMirror struct {
	basePath       string
	circuitBreaker *circuitbreaker.Breaker
	metrics        *metrics.Metrics
	putTimeout     time.Duration
	maxRetries     int
	retryDelay     time.Duration
}

// NewLocalMirror creates a new local filesystem mirror. The base
// directory is created if it does not exist yet.
func NewLocalMirror(basePath string, m *metrics.Metrics, cb *circuitbreaker.Breaker, putTimeout time.Duration, maxRetries int, retryDelay time.Duration) (*LocalMirror, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("mirror path error: %w", err)
	}

	// Get absolute path for security checks
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mirror path: %w", err)
	}

	return &LocalMirror{
		basePath:       absPath,
		circuitBreaker: cb,
		metrics:        m,
		putTimeout:     putTimeout,
		maxRetries:     maxRetries,
		retryDelay:     retryDelay,
	}, nil
}

// Put stores one uploaded file under basePath
func (l *LocalMirror) Put(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	var resultLabel string
	defer func() {
		duration := time.Since(start)
		l.metrics.MirrorUploadDuration.WithLabelValues("local", resultLabel).Observe(duration.Seconds())
	}()

	return l.circuitBreaker.Do(func() error {
		putCtx, cancel := context.WithTimeout(ctx, l.putTimeout)
		defer cancel()

		fullPath := filepath.Join(l.basePath, key)

		// Clean the path to resolve any .. or . segments
		fullPath = filepath.Clean(fullPath)

		// Security: ensure the resolved path is still within basePath
		if fullPath != l.basePath && !strings.HasPrefix(fullPath, l.basePath+string(filepath.Separator)) {
			resultLabel = "error"
			return fmt.Errorf("path traversal attempt detected: key=%s", key)
		}

		// Retry loop with exponential backoff. The write itself is not
		// cancellable, so the deadline is enforced between attempts.
		var lastErr error
		for attempt := 0; attempt <= l.maxRetries; attempt++ {
			if attempt > 0 {
				// Exponential backoff: retryDelay * 2^(attempt-1)
				delay := l.retryDelay * time.Duration(1<<(attempt-1))
				time.Sleep(delay)
			}

			select {
			case <-putCtx.Done():
				resultLabel = "error"
				return putCtx.Err()
			default:
			}

			err := writeMirrorFile(fullPath, data)
			if err == nil {
				resultLabel = "success"
				return nil
			}

			lastErr = err

			// Check if error is retryable
			if !isLocalRetryableError(err) || attempt == l.maxRetries {
				break
			}
		}

		resultLabel = "error"
		return fmt.Errorf("failed to write mirror file: %w", lastErr)
	})
}

// writeMirrorFile writes via a temp file and rename so a crashed
// write never leaves a half file behind.
func writeMirrorFile(fullPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".mirror-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// isLocalRetryableError determines if a local filesystem error should trigger a retry
func isLocalRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	// Permission errors are not retryable
	if os.IsPermission(err) {
		return false
	}

	// Temporary errors (network filesystem issues) are retryable
	return true
}

// HealthCheck verifies the mirror directory is still accessible
func (l *LocalMirror) HealthCheck(ctx context.Context) error {
	// Stat the base path to ensure mount is still accessible
	_, err := os.Stat(l.basePath)
	if err != nil {
		return fmt.Errorf("mirror path unavailable: %w", err)
	}
	return nil
}

// Type returns the mirror type
func (l *LocalMirror) Type() string {
	return "local"
}

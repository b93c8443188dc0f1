package observer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pocketdrop/internal/metrics"
	"pocketdrop/internal/models"
)

// WebhookListener posts recorder notifications to a configured URL as JSON.
// Delivery runs on its own goroutine per event so the request path never
// waits on the remote end.
type WebhookListener struct {
	logger     *zap.Logger
	metrics    *metrics.Metrics
	url        string
	maxRetries int
	retryDelay time.Duration
	client     *http.Client
}

// NewWebhookListener creates a webhook listener for the given URL.
func NewWebhookListener(logger *zap.Logger, m *metrics.Metrics, url string, maxRetries int, retryDelay time.Duration) *WebhookListener {
	return &WebhookListener{
		logger:     logger,
		metrics:    m,
		url:        url,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// ConnectionsChanged implements Listener.
func (w *WebhookListener) ConnectionsChanged(count int64) {
	go w.deliverWithRetry(models.EventPayload{
		Kind:        "connections",
		Connections: count,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Activity implements Listener.
func (w *WebhookListener) Activity(e Event) {
	go w.deliverWithRetry(models.EventPayload{
		Kind:      string(e.Kind),
		Message:   e.Message,
		Timestamp: e.Time.UTC().Format(time.RFC3339),
	})
}

// deliverWithRetry posts the payload with exponential backoff retry logic
func (w *WebhookListener) deliverWithRetry(payload models.EventPayload) {
	if w.url == "" {
		return
	}

	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			w.metrics.WebhookRetries.Inc()
			// Exponential backoff: retryDelay * 2^(attempt-1)
			delay := w.retryDelay * time.Duration(1<<(attempt-1))
			time.Sleep(delay)
		}

		err := w.deliver(payload)
		if err == nil {
			w.metrics.WebhooksTotal.WithLabelValues("success").Inc()
			return
		}

		w.logger.Warn("webhook attempt failed", zap.String("url", w.url), zap.Int("attempt", attempt), zap.Error(err))

		if attempt == w.maxRetries {
			w.metrics.WebhooksTotal.WithLabelValues("failure").Inc()
			w.logger.Error("webhook failed after retries", zap.String("url", w.url), zap.Int("total_attempts", attempt+1), zap.Error(err))
		}
	}
}

// deliver sends a single webhook request
func (w *WebhookListener) deliver(payload models.EventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	req, err := http.NewRequest("POST", w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request creation error: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("bad status: %d", resp.StatusCode)
	}

	return nil
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"pocketdrop/internal/metrics"
	"pocketdrop/internal/observer"
)

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Counting bumps the connection counter before a request is dispatched and
// records per-request metrics after it completes. Probe and scrape paths
// are left out of the counter so dashboards and health checks do not
// inflate the activity numbers they read.
func Counting(rec *observer.Recorder, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			rec.RecordConnection()

			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sr, r)

			m.RequestsTotal.WithLabelValues(strconv.Itoa(sr.status)).Inc()
			m.DurationHist.Observe(time.Since(start).Seconds())
		})
	}
}

package observer

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"pocketdrop/internal/metrics"
)

// Kind classifies an activity line for display by a listener front end.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
	KindPlain   Kind = "plain"
)

// Event is one classified activity line.
type Event struct {
	Kind    Kind
	Message string
	Time    time.Time
}

// Listener receives counter updates and activity events from the recorder.
// Zero or one listener is registered at construction. Implementations must
// return quickly; the recorder calls them on the request path.
type Listener interface {
	ConnectionsChanged(count int64)
	Activity(e Event)
}

// Recorder is the process-wide session/activity observer. It owns the
// monotonic connection counter and the classified activity feed, forwarding
// both to the structured log and to the optional listener. Handlers receive
// it at construction; there is no package-level state.
type Recorder struct {
	logger   *zap.Logger
	metrics  *metrics.Metrics
	listener Listener
	count    atomic.Int64
}

// NewRecorder creates a recorder. listener may be nil.
func NewRecorder(logger *zap.Logger, m *metrics.Metrics, listener Listener) *Recorder {
	return &Recorder{
		logger:   logger,
		metrics:  m,
		listener: listener,
	}
}

// RecordConnection increments the connection counter and notifies the
// listener with the new value.
func (r *Recorder) RecordConnection() int64 {
	n := r.count.Add(1)
	r.metrics.ConnectionsGauge.Set(float64(n))
	if r.listener != nil {
		r.listener.ConnectionsChanged(n)
	}
	return n
}

// Connections returns the current counter value.
func (r *Recorder) Connections() int64 {
	return r.count.Load()
}

// ResetConnections zeroes the counter and notifies the listener. The server
// calls this when it stops listening.
func (r *Recorder) ResetConnections() {
	r.count.Store(0)
	r.metrics.ConnectionsGauge.Set(0)
	if r.listener != nil {
		r.listener.ConnectionsChanged(0)
	}
}

// Log classifies the message by content and forwards it to the structured
// log and to the listener.
func (r *Recorder) Log(message string) {
	e := Event{Kind: Classify(message), Message: message, Time: time.Now()}

	switch e.Kind {
	case KindError:
		r.logger.Error(message)
	case KindWarning:
		r.logger.Warn(message)
	default:
		r.logger.Info(message)
	}

	if r.listener != nil {
		r.listener.Activity(e)
	}
}

// Logf is Log with fmt.Sprintf formatting.
func (r *Recorder) Logf(format string, args ...interface{}) {
	r.Log(fmt.Sprintf(format, args...))
}

// Classify maps a line to its display kind by content. Cases are checked in
// precedence order: success, then error, warning, info, plain.
func Classify(message string) Kind {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(message, "✓"),
		strings.Contains(lower, "success"),
		strings.Contains(lower, "started"),
		strings.Contains(lower, "uploaded"),
		strings.Contains(lower, "downloaded"),
		strings.Contains(lower, "copied"):
		return KindSuccess
	case strings.Contains(message, "✗"),
		strings.Contains(lower, "error"),
		strings.Contains(lower, "failed"):
		return KindError
	case strings.Contains(lower, "warning"):
		return KindWarning
	case strings.Contains(lower, "mode:"),
		strings.Contains(lower, "info"):
		return KindInfo
	default:
		return KindPlain
	}
}

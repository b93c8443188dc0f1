package circuitbreaker

import (
	"errors"

	"github.com/sony/gobreaker"

	"pocketdrop/internal/config"
	"pocketdrop/internal/metrics"
)

// Breaker guards one optional backend, the transfer log or the upload
// mirror. Both are write-mostly audit sinks, so the guarded call carries
// only an error; results travel through closure captures at the call site.
type Breaker struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
}

// New builds a breaker named after the backend it guards. It opens after
// CircuitBreakerThreshold consecutive failures, stays open for
// CircuitBreakerTimeout, then admits CircuitBreakerMaxRequests probes while
// half-open. State transitions land in the breaker-state gauge.
func New(name string, cfg *config.Config, m *metrics.Metrics) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(cfg.CircuitBreakerMaxRequests),
		Interval:    cfg.CircuitBreakerTimeout,
		Timeout:     cfg.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.CircuitBreakerThreshold)
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &Breaker{name: name, cb: cb, metrics: m}
}

// Do runs fn through the breaker. While the breaker is open fn is not
// called and Do fails fast; Rejected tells that case apart from a real
// backend error.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if Rejected(err) {
		b.metrics.CircuitBreakerRejections.WithLabelValues(b.name).Inc()
	}
	return err
}

// State reports the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Rejected reports whether err means the breaker refused the call without
// consulting the backend.
func Rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"pocketdrop/internal/config"
	"pocketdrop/internal/metrics"
)

func TestCircuitBreaker(t *testing.T) {
	m := metrics.New()
	cfg := &config.Config{
		CircuitBreakerThreshold:   3, // Open after 3 failures
		CircuitBreakerTimeout:     100 * time.Millisecond,
		CircuitBreakerMaxRequests: 1,
	}

	cb := New("history", cfg, m)

	t.Run("successful calls keep circuit closed", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			err := cb.Do(func() error {
				return nil
			})
			if err != nil {
				t.Errorf("Do() error = %v, want nil", err)
			}
		}
	})

	t.Run("consecutive failures open circuit", func(t *testing.T) {
		backendErr := errors.New("backend down")

		for i := 0; i < 4; i++ {
			cb.Do(func() error {
				return backendErr
			})
		}

		if state := cb.State(); state != gobreaker.StateOpen {
			t.Fatalf("State() = %v, want %v", state, gobreaker.StateOpen)
		}

		// An open circuit refuses calls without consulting the backend
		err := cb.Do(func() error {
			t.Error("function should not be called when circuit is open")
			return nil
		})

		if err == nil {
			t.Fatal("Do() should return error when circuit is open")
		}
		if !Rejected(err) {
			t.Errorf("Rejected(%v) = false, want true", err)
		}
	})

	t.Run("backend errors are not rejections", func(t *testing.T) {
		if Rejected(errors.New("backend down")) {
			t.Error("Rejected() = true for a plain backend error")
		}
		if Rejected(nil) {
			t.Error("Rejected(nil) = true")
		}
	})

	t.Run("circuit recovers after timeout", func(t *testing.T) {
		// Wait for circuit to enter half-open state
		time.Sleep(150 * time.Millisecond)

		err := cb.Do(func() error {
			return nil
		})

		if err != nil {
			t.Errorf("Do() after timeout error = %v, want nil", err)
		}
	})
}

package history

import (
	"context"
	"fmt"

	"pocketdrop/internal/circuitbreaker"
	"pocketdrop/internal/config"
	"pocketdrop/internal/metrics"
	"pocketdrop/internal/models"
)

// Store defines the interface for transfer log backends
type Store interface {
	RecordTransfer(ctx context.Context, rec *models.TransferRecord) error
	Recent(ctx context.Context, limit int) ([]models.TransferRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

// These indirection variables allow tests to override the concrete
// store constructors so we can exercise New(...) without real backends.
var (
	newPostgresStoreFunc = func(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (Store, error) {
		return NewPostgresStore(ctx, cfg, m)
	}
	newMySQLStoreFunc = func(cfg *config.Config, m *metrics.Metrics) (Store, error) {
		return NewMySQLStore(cfg, m)
	}
	newRedisStoreFunc = func(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (Store, error) {
		return NewRedisStore(ctx, cfg, m)
	}
)

// New creates a transfer log store based on the configured engine.
// A NopStore is returned when no HISTORY_URL is set; transfers still
// work, they just leave no trail.
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (Store, error) {
	if !cfg.HistoryEnabled() {
		return NopStore{}, nil
	}

	switch cfg.HistoryEngine {
	case "postgres", "postgresql":
		return newPostgresStoreFunc(ctx, cfg, m)
	case "mysql":
		return newMySQLStoreFunc(cfg, m)
	case "redis":
		return newRedisStoreFunc(ctx, cfg, m)
	default:
		return nil, fmt.Errorf("unsupported history engine: %s", cfg.HistoryEngine)
	}
}

// NopStore discards every record. It backs deployments that run
// without a transfer log.
type NopStore struct{}

func (NopStore) RecordTransfer(ctx context.Context, rec *models.TransferRecord) error {
	return nil
}

func (NopStore) Recent(ctx context.Context, limit int) ([]models.TransferRecord, error) {
	return nil, nil
}

func (NopStore) Ping(ctx context.Context) error { return nil }

func (NopStore) Close() error { return nil }

// WithBreaker wraps a store so every call runs through the circuit
// breaker. A tripped breaker fails fast instead of piling timeouts
// onto a dead backend.
func WithBreaker(s Store, b *circuitbreaker.Breaker) Store {
	return &breakerStore{store: s, breaker: b}
}

type breakerStore struct {
	store   Store
	breaker *circuitbreaker.Breaker
}

func (bs *breakerStore) RecordTransfer(ctx context.Context, rec *models.TransferRecord) error {
	return bs.breaker.Do(func() error {
		return bs.store.RecordTransfer(ctx, rec)
	})
}

func (bs *breakerStore) Recent(ctx context.Context, limit int) ([]models.TransferRecord, error) {
	var records []models.TransferRecord
	err := bs.breaker.Do(func() error {
		var err error
		records, err = bs.store.Recent(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (bs *breakerStore) Ping(ctx context.Context) error {
	return bs.breaker.Do(func() error {
		return bs.store.Ping(ctx)
	})
}

func (bs *breakerStore) Close() error {
	return bs.store.Close()
}

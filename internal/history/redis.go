package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pocketdrop/internal/config"
	"pocketdrop/internal/metrics"
	"pocketdrop/internal/models"
)

// feedMaxEntries caps the Redis transfer list so an always-on box
// never grows it without bound.
const feedMaxEntries = 1000

// RedisStore implements Store for Redis. Transfers live in a single
// capped list, newest first.
type RedisStore struct {
	client  *redis.Client
	listKey string
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewRedisStore creates a new Redis store
func NewRedisStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.HistoryURL)
	if err != nil {
		return nil, fmt.Errorf("redis parse url error: %w", err)
	}

	// Configure connection pool
	opts.PoolSize = cfg.DBMaxConnections
	opts.MinIdleConns = min(2, cfg.DBMaxConnections) // Keep a few connections warm (or max if max < 2)
	opts.ConnMaxLifetime = 1 * time.Hour             // Recycle connections after 1 hour
	opts.ConnMaxIdleTime = 30 * time.Minute          // Close idle connections after 30 min

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect error: %w", err)
	}

	return &RedisStore{
		client:  client,
		listKey: cfg.KeyPrefix + cfg.TableName,
		timeout: cfg.HistoryQueryTimeout,
		metrics: m,
	}, nil
}

// RecordTransfer appends one transfer to the log
func (s *RedisStore) RecordTransfer(ctx context.Context, rec *models.TransferRecord) error {
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		s.metrics.HistoryWriteDuration.WithLabelValues("redis").Observe(duration.Seconds())
	}()

	// Apply timeout
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(queryCtx, s.listKey, data)
	pipe.LTrim(queryCtx, s.listKey, 0, feedMaxEntries-1)
	_, err = pipe.Exec(queryCtx)
	return err
}

// Recent returns the most recent transfers, newest first
func (s *RedisStore) Recent(ctx context.Context, limit int) ([]models.TransferRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, err := s.client.LRange(queryCtx, s.listKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	records := make([]models.TransferRecord, 0, len(items))
	for _, item := range items {
		var rec models.TransferRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Ping verifies the backend is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(queryCtx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

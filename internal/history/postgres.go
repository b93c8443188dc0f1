package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pocketdrop/internal/config"
	"pocketdrop/internal/metrics"
	"pocketdrop/internal/models"
)

// PostgresStore implements Store for PostgreSQL
type PostgresStore struct {
	pool      *pgxpool.Pool
	tableName string
	timeout   time.Duration
	metrics   *metrics.Metrics
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, cfg.HistoryURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect error: %w", err)
	}

	return &PostgresStore{
		pool:      pool,
		tableName: cfg.TableName,
		timeout:   cfg.HistoryQueryTimeout,
		metrics:   m,
	}, nil
}

// RecordTransfer appends one transfer to the log
func (s *PostgresStore) RecordTransfer(ctx context.Context, rec *models.TransferRecord) error {
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		s.metrics.HistoryWriteDuration.WithLabelValues("postgres").Observe(duration.Seconds())
	}()

	// Apply timeout
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(
		"INSERT INTO %s (id, kind, path, name, size_bytes, status, remote, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		s.tableName,
	)

	_, err := s.pool.Exec(queryCtx, query,
		rec.ID,
		rec.Kind,
		rec.Path,
		rec.Name,
		rec.SizeBytes,
		rec.Status,
		rec.Remote,
		rec.CreatedAt,
	)
	return err
}

// Recent returns the most recent transfers, newest first
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]models.TransferRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT id, kind, path, name, size_bytes, status, remote, created_at FROM %s ORDER BY created_at DESC LIMIT $1",
		s.tableName,
	)

	rows, err := s.pool.Query(queryCtx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.TransferRecord
	for rows.Next() {
		var rec models.TransferRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Kind,
			&rec.Path,
			&rec.Name,
			&rec.SizeBytes,
			&rec.Status,
			&rec.Remote,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Ping verifies the backend is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.pool.Ping(queryCtx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

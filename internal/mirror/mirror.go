package mirror

import (
	"context"
	"fmt"

	"pocketdrop/internal/circuitbreaker"
	"pocketdrop/internal/config"
	"pocketdrop/internal/metrics"
)

// Mirror replicates uploaded files to a second location. Uploads
// succeed or fail on local disk alone; the mirror is best effort.
type Mirror interface {
	// Put stores one uploaded file under the given key
	Put(ctx context.Context, key string, data []byte) error

	// HealthCheck performs a lightweight connectivity check
	HealthCheck(ctx context.Context) error

	// Type returns the mirror kind, or "" for the nop mirror
	Type() string
}

// New creates a mirror based on configuration. A NopMirror is
// returned when no mirror destination is configured.
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics, cb *circuitbreaker.Breaker) (Mirror, error) {
	switch cfg.MirrorType {
	case "":
		return NopMirror{}, nil
	case "s3":
		if cfg.MirrorBucket == "" {
			return nil, fmt.Errorf("MIRROR_BUCKET required for s3 mirror")
		}
		return NewS3Mirror(ctx, cfg, m, cb)
	case "local":
		if cfg.MirrorPath == "" {
			return nil, fmt.Errorf("MIRROR_PATH required for local mirror")
		}
		return NewLocalMirror(cfg.MirrorPath, m, cb, cfg.MirrorTimeout, cfg.MirrorMaxRetries, cfg.MirrorRetryDelay)
	default:
		return nil, fmt.Errorf("unsupported mirror type: %s", cfg.MirrorType)
	}
}

// NopMirror accepts every Put and does nothing.
type NopMirror struct{}

func (NopMirror) Put(ctx context.Context, key string, data []byte) error { return nil }

func (NopMirror) HealthCheck(ctx context.Context) error { return nil }

func (NopMirror) Type() string { return "" }

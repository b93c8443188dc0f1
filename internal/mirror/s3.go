package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"pocketdrop/internal/circuitbreaker"
	appconfig "pocketdrop/internal/config"
	"pocketdrop/internal/metrics"
)

// S3Mirror implements Mirror for S3-compatible storage
type S3Mirror struct {
	client         *s3.Client
	bucket         string
	circuitBreaker *circuitbreaker.Breaker
	metrics        *metrics.Metrics
	putTimeout     time.Duration
	maxRetries     int
	retryDelay     time.Duration
}

// NewS3Mirror creates a new S3-compatible upload mirror
func NewS3Mirror(ctx context.Context, cfg *appconfig.Config, m *metrics.Metrics, cb *circuitbreaker.Breaker) (*S3Mirror, error) {
	region := cfg.S3Region
	if region == "" {
		// Reasonable default; works for MinIO and AWS if caller doesn't care.
		region = "us-east-1"
	}

	cfgOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	// Static credentials (typical for MinIO and many S3-compatible providers)
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		cfgOpts = append(cfgOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.S3AccessKeyID,
				cfg.S3SecretAccessKey,
				"",
			),
		))
	}

	// Custom endpoint (MinIO, Wasabi, etc.)
	if cfg.S3Endpoint != "" {
		endpoint := cfg.S3Endpoint
		cfgOpts = append(cfgOpts, config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(
				func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
					if service == s3.ServiceID {
						return aws.Endpoint{
							URL:               endpoint,
							HostnameImmutable: true, // don't rewrite host when using a custom endpoint
						}, nil
					}
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				},
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, err
	}

	usePathStyle := cfg.S3UsePathStyle

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = usePathStyle
	})

	return &S3Mirror{
		client:         client,
		bucket:         cfg.MirrorBucket,
		circuitBreaker: cb,
		metrics:        m,
		putTimeout:     cfg.MirrorTimeout,
		maxRetries:     cfg.MirrorMaxRetries,
		retryDelay:     cfg.MirrorRetryDelay,
	}, nil
}

// Put stores one uploaded file in the mirror bucket
func (s *S3Mirror) Put(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	var resultLabel string
	defer func() {
		duration := time.Since(start)
		s.metrics.MirrorUploadDuration.WithLabelValues("s3", resultLabel).Observe(duration.Seconds())
	}()

	return s.circuitBreaker.Do(func() error {
		// Retry loop with exponential backoff
		var lastErr error
		for attempt := 0; attempt <= s.maxRetries; attempt++ {
			if attempt > 0 {
				// Exponential backoff: retryDelay * 2^(attempt-1)
				delay := s.retryDelay * time.Duration(1<<(attempt-1))
				time.Sleep(delay)
			}

			// Apply timeout to this attempt
			putCtx, cancel := context.WithTimeout(ctx, s.putTimeout)

			// A fresh reader per attempt; a retried body must start at zero
			_, err := s.client.PutObject(putCtx, &s3.PutObjectInput{
				Bucket:        aws.String(s.bucket),
				Key:           aws.String(key),
				Body:          bytes.NewReader(data),
				ContentLength: aws.Int64(int64(len(data))),
			})
			cancel()

			if err == nil {
				resultLabel = "success"
				return nil
			}

			lastErr = err

			// Check if error is retryable
			if !isRetryableError(err) || attempt == s.maxRetries {
				break
			}
		}

		resultLabel = "error"
		return lastErr
	})
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check for context errors (timeout/cancellation)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	// Terminal S3 errors fail fast; everything else (network issues,
	// throttling, 5xx) gets another attempt.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return false
		}
	}

	return true
}

// HealthCheck performs a lightweight connectivity check against the
// mirror bucket
func (s *S3Mirror) HealthCheck(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := s.client.HeadBucket(checkCtx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 mirror check failed: %w", err)
	}
	return nil
}

// Type returns the mirror type
func (s *S3Mirror) Type() string {
	return "s3"
}

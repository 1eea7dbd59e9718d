package client

import (
	"context"
	"fmt"
	"time"

	"github.com/birmarket-labs/catalog-scraper/pkg/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	catalogRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_retries_total",
		Help: "Total number of retry attempts by error kind",
	}, []string{"kind"})

	catalogRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_retry_backoff_seconds",
		Help:    "Backoff duration before retries",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30},
	})

	catalogRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_retry_exhausted_total",
		Help: "Total number of pages that exhausted all retry attempts",
	})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per page, including
	// the initial request.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64

	// MaxBackoff caps the backoff duration.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration: three
// attempts with 1s, 2s, 4s backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// normalize fills in missing fields with defaults.
func (rc RetryConfig) normalize() RetryConfig {
	def := DefaultRetryConfig()
	if rc.MaxAttempts <= 0 {
		rc.MaxAttempts = def.MaxAttempts
	}
	if rc.InitialBackoff <= 0 {
		rc.InitialBackoff = def.InitialBackoff
	}
	if rc.BackoffMultiplier <= 1 {
		rc.BackoffMultiplier = def.BackoffMultiplier
	}
	if rc.MaxBackoff <= 0 {
		rc.MaxBackoff = def.MaxBackoff
	}
	return rc
}

// FetchPageWithRetry fetches a page with bounded retries and exponential
// backoff. Every error kind is retried the same way: the catalog API has
// shown transient 4xx responses under load, so no error class is treated
// as permanent. The backoff sleep blocks only the calling goroutine and
// respects context cancellation.
//
// On success the first successful attempt's page is returned. When all
// attempts fail, the returned error wraps ErrRetryExhausted and the last
// attempt's error.
func (c *Client) FetchPageWithRetry(ctx context.Context, req PageRequest, cfg RetryConfig) (*catalog.PageResponse, error) {
	cfg = cfg.normalize()

	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		page, err := c.FetchPage(ctx, req)
		if err == nil {
			if attempt > 1 {
				c.logger.Info().
					Int("page", req.Page).
					Int("attempt", attempt).
					Msg("Page fetch succeeded after retry")
			}
			return page, nil
		}

		lastErr = err
		c.logger.Warn().
			Err(err).
			Int("page", req.Page).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Str("kind", string(Kind(err))).
			Msg("Page fetch attempt failed")

		if attempt >= cfg.MaxAttempts {
			break
		}

		catalogRetriesTotal.WithLabelValues(string(Kind(err))).Inc()
		catalogRetryBackoffSeconds.Observe(backoff.Seconds())

		select {
		case <-ctx.Done():
			c.logger.Warn().
				Int("page", req.Page).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	catalogRetryExhaustedTotal.Inc()
	c.logger.Warn().
		Int("page", req.Page).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, cfg.MaxAttempts, lastErr)
}

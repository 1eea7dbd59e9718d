// Package failures persists the set of permanently failed pages from a
// scrape run, so a later run can target only those pages instead of
// re-fetching the whole catalog.
package failures

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for failed-page tracking.
var (
	failedPagesGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_failed_pages",
		Help: "Number of permanently failed pages recorded for the last run",
	}, []string{"category"})

	failedPagesSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_failed_pages_saved_total",
		Help: "Total failed-page sets persisted to the store",
	})
)

// redisKey is the Redis key pattern for a category's failed pages.
const redisKey = "catalog:failed_pages:%d"

// Store persists failed page sets in Redis, keyed by catalog category.
type Store struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewStore creates a failed-page store.
func NewStore(redisClient *redis.Client, logger zerolog.Logger) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Store{
		redis:  redisClient,
		logger: logger,
	}
}

// Save replaces the recorded failed pages for a category. Saving an empty
// set clears the record: a clean run leaves nothing behind to retry.
func (s *Store) Save(ctx context.Context, categoryID int, pages []int) error {
	category := fmt.Sprintf("%d", categoryID)

	if len(pages) == 0 {
		failedPagesGauge.WithLabelValues(category).Set(0)
		return s.Clear(ctx, categoryID)
	}

	sorted := make([]int, len(pages))
	copy(sorted, pages)
	sort.Ints(sorted)

	data, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("marshal failed pages: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(categoryID), data, 0).Err(); err != nil {
		return fmt.Errorf("save failed pages: %w", err)
	}

	failedPagesGauge.WithLabelValues(category).Set(float64(len(sorted)))
	failedPagesSavedTotal.Inc()

	s.logger.Info().
		Int("category_id", categoryID).
		Ints("pages", sorted).
		Msg("Failed pages recorded")

	return nil
}

// Load returns the recorded failed pages for a category, sorted ascending.
// Returns nil with no error when nothing is recorded.
func (s *Store) Load(ctx context.Context, categoryID int) ([]int, error) {
	data, err := s.redis.Get(ctx, s.key(categoryID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load failed pages: %w", err)
	}

	var pages []int
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("parse failed pages: %w", err)
	}

	sort.Ints(pages)
	return pages, nil
}

// Clear removes the failed-page record for a category.
func (s *Store) Clear(ctx context.Context, categoryID int) error {
	if err := s.redis.Del(ctx, s.key(categoryID)).Err(); err != nil {
		return fmt.Errorf("clear failed pages: %w", err)
	}
	return nil
}

func (s *Store) key(categoryID int) string {
	return fmt.Sprintf(redisKey, categoryID)
}

package scraper

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/birmarket-labs/catalog-scraper/pkg/catalog"
	"github.com/birmarket-labs/catalog-scraper/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for scrape runs.
var (
	pagesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_pages_in_flight",
		Help: "Pages currently holding an admission slot",
	})

	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_pages_fetched_total",
		Help: "Terminal page outcomes by result",
	}, []string{"result"})

	scrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_scrape_duration_seconds",
		Help:    "Full scrape run duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

// Config holds scrape run configuration.
type Config struct {
	// CategoryID is the catalog category to scrape.
	CategoryID int

	// PerPage is the page size requested from the API.
	PerPage int

	// Sort is the catalog sort key.
	Sort string

	// Concurrency bounds the number of pages in flight at once. A page
	// occupies its slot for its whole retry lifetime, backoff included.
	Concurrency int

	// Retry configures the per-page retry policy.
	Retry client.RetryConfig
}

// DefaultConfig returns the configuration the catalog is normally
// scraped with.
func DefaultConfig() Config {
	return Config{
		CategoryID:  15,
		PerPage:     24,
		Sort:        "global_popular_score",
		Concurrency: 10,
		Retry:       client.DefaultRetryConfig(),
	}
}

// Scraper fetches every page of a catalog category and assembles the
// flattened records.
type Scraper struct {
	client *client.Client
	cfg    Config
	logger zerolog.Logger
}

// pageOutcome is the terminal result for one page: either a response or
// the error from the final retry attempt. Produced exactly once per page.
type pageOutcome struct {
	page int
	resp *catalog.PageResponse
	err  error
}

// New creates a scraper.
func New(c *client.Client, cfg Config) (*Scraper, error) {
	if c == nil {
		return nil, fmt.Errorf("client is required")
	}
	if cfg.CategoryID < 1 {
		return nil, fmt.Errorf("category_id must be >= 1 (got %d)", cfg.CategoryID)
	}
	if cfg.PerPage < 1 {
		return nil, fmt.Errorf("per_page must be >= 1 (got %d)", cfg.PerPage)
	}
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be >= 1 (got %d)", cfg.Concurrency)
	}

	return &Scraper{
		client: c,
		cfg:    cfg,
		logger: log.With().Str("component", "scraper").Logger(),
	}, nil
}

// Run scrapes the whole category and returns the assembled result.
//
// Page 1 is fetched first to discover the total page count; if it
// permanently fails no total can be derived and the run aborts with an
// error. Every later page degrades gracefully: exhausted retries put the
// page in Result.FailedPages instead of failing the run. Run returns only
// once every dispatched page has a terminal outcome.
func (s *Scraper) Run(ctx context.Context) (*catalog.Result, error) {
	start := time.Now()
	defer func() {
		scrapeDuration.Observe(time.Since(start).Seconds())
	}()

	first, err := s.client.FetchPageWithRetry(ctx, s.request(1), s.cfg.Retry)
	if err != nil {
		s.logger.Error().Err(err).Msg("First page fetch failed, aborting run")
		return nil, fmt.Errorf("fetch first page: %w", err)
	}
	pagesFetchedTotal.WithLabelValues("success").Inc()

	total := first.Total()
	totalPages := 1
	if total > 0 {
		totalPages = (total + s.cfg.PerPage - 1) / s.cfg.PerPage
	}

	s.logger.Info().
		Int("category_id", s.cfg.CategoryID).
		Int("total_products", total).
		Int("total_pages", totalPages).
		Int("concurrency", s.cfg.Concurrency).
		Msg("Starting catalog scrape")

	pageMap := map[int]*catalog.PageResponse{1: first}
	var failed []int

	if totalPages > 1 {
		pages := make([]int, 0, totalPages-1)
		for page := 2; page <= totalPages; page++ {
			pages = append(pages, page)
		}
		fetched, failedPages := s.fetchAll(ctx, pages)
		for page, resp := range fetched {
			pageMap[page] = resp
		}
		failed = failedPages
	}

	result := assemble(total, pageMap, failed)

	s.logger.Info().
		Int("records", len(result.Records)).
		Int("failed_pages", len(result.FailedPages)).
		Dur("duration", time.Since(start)).
		Msg("Scrape complete")

	return result, nil
}

// FetchPages fetches an explicit list of pages under the same concurrency
// bound, for re-running pages that failed in an earlier run. There is no
// probe phase and no derived total; duplicates are collapsed so each page
// still gets exactly one terminal outcome.
func (s *Scraper) FetchPages(ctx context.Context, pages []int) (*catalog.Result, error) {
	unique := make([]int, 0, len(pages))
	seen := make(map[int]struct{}, len(pages))
	for _, page := range pages {
		if page < 1 {
			return nil, fmt.Errorf("page must be >= 1 (got %d)", page)
		}
		if _, ok := seen[page]; ok {
			continue
		}
		seen[page] = struct{}{}
		unique = append(unique, page)
	}
	if len(unique) == 0 {
		return &catalog.Result{Records: []catalog.Record{}, FailedPages: []int{}}, nil
	}

	s.logger.Info().
		Int("category_id", s.cfg.CategoryID).
		Ints("pages", unique).
		Msg("Fetching explicit page list")

	fetched, failed := s.fetchAll(ctx, unique)
	return assemble(0, fetched, failed), nil
}

// fetchAll runs the bounded fan-out: a worker pool of cfg.Concurrency
// goroutines drains the page queue while a single collector receives
// every terminal outcome. Returns the successful responses by page number
// and the sorted list of permanently failed pages.
func (s *Scraper) fetchAll(ctx context.Context, pages []int) (map[int]*catalog.PageResponse, []int) {
	pageQueue := make(chan int, len(pages))
	for _, page := range pages {
		pageQueue <- page
	}
	close(pageQueue)

	outcomes := make(chan pageOutcome, len(pages))

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Concurrency; i++ {
		wg.Add(1)
		go s.worker(ctx, pageQueue, outcomes, &wg)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make(map[int]*catalog.PageResponse, len(pages))
	var failed []int
	fetched := 0

	for outcome := range outcomes {
		if outcome.err != nil {
			pagesFetchedTotal.WithLabelValues("failure").Inc()
			failed = append(failed, outcome.page)
			s.logger.Warn().
				Err(outcome.err).
				Int("page", outcome.page).
				Msg("Page permanently failed")
			continue
		}

		pagesFetchedTotal.WithLabelValues("success").Inc()
		results[outcome.page] = outcome.resp
		fetched++

		// Progress logging every 50 pages.
		if fetched%50 == 0 {
			s.logger.Info().
				Int("fetched", fetched).
				Int("total", len(pages)).
				Msg("Fetch progress")
		}
	}

	sort.Ints(failed)
	return results, failed
}

// worker drains the page queue. The worker itself is the admission slot:
// it processes one page at a time and only takes the next page after the
// current one reached a terminal outcome, so retries and backoff keep the
// slot occupied.
func (s *Scraper) worker(ctx context.Context, pageQueue <-chan int, outcomes chan<- pageOutcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for page := range pageQueue {
		pagesInFlight.Inc()
		resp, err := s.client.FetchPageWithRetry(ctx, s.request(page), s.cfg.Retry)
		pagesInFlight.Dec()

		outcomes <- pageOutcome{page: page, resp: resp, err: err}
	}
}

// assemble flattens the fetched pages into the final result. Ordering is
// reconstructed here, independent of completion order: ascending page
// number, then each page's own item order.
func assemble(total int, pages map[int]*catalog.PageResponse, failed []int) *catalog.Result {
	pageNumbers := make([]int, 0, len(pages))
	for page := range pages {
		pageNumbers = append(pageNumbers, page)
	}
	sort.Ints(pageNumbers)

	records := make([]catalog.Record, 0, total)
	for _, page := range pageNumbers {
		for _, product := range pages[page].Products {
			records = append(records, catalog.Flatten(product))
		}
	}

	if failed == nil {
		failed = []int{}
	}

	return &catalog.Result{
		Records:       records,
		FailedPages:   failed,
		TotalExpected: total,
	}
}

// request builds the immutable page request for a page index.
func (s *Scraper) request(page int) client.PageRequest {
	return client.PageRequest{
		Page:       page,
		PerPage:    s.cfg.PerPage,
		CategoryID: s.cfg.CategoryID,
		Sort:       s.cfg.Sort,
	}
}

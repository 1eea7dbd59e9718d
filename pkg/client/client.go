// Package client provides the HTTP client for the Umico catalog products
// API: single-page fetching with error classification, retry with
// exponential backoff, and optional response caching.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/birmarket-labs/catalog-scraper/pkg/cache"
	"github.com/birmarket-labs/catalog-scraper/pkg/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for catalog API requests.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog API requests by status",
	}, []string{"status"})

	catalogRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog API request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	catalogFetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetch_errors_total",
		Help: "Total failed catalog fetch attempts by error kind",
	}, []string{"kind"})
)

// productsPath is the catalog products endpoint path.
const productsPath = "/api/v1/products"

// defaultHeaders is the fixed header set for content negotiation with the
// catalog API. The endpoint serves the birmarket storefront and expects
// its origin headers.
var defaultHeaders = map[string]string{
	"accept":           "application/json, text/plain, */*",
	"accept-language":  "az",
	"content-language": "az",
	"origin":           "https://birmarket.az",
	"referer":          "https://birmarket.az/",
	"sec-fetch-dest":   "empty",
	"sec-fetch-mode":   "cors",
	"sec-fetch-site":   "cross-site",
}

// PageRequest identifies one page of the catalog. Immutable value, created
// once per page index and never modified.
type PageRequest struct {
	Page       int
	PerPage    int
	CategoryID int
	Sort       string
}

// Validate checks the request parameters.
func (r PageRequest) Validate() error {
	if r.Page < 1 {
		return fmt.Errorf("page must be >= 1 (got %d)", r.Page)
	}
	if r.PerPage < 1 {
		return fmt.Errorf("per_page must be >= 1 (got %d)", r.PerPage)
	}
	if r.CategoryID < 1 {
		return fmt.Errorf("category_id must be >= 1 (got %d)", r.CategoryID)
	}
	return nil
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the catalog API origin, e.g. "https://mp-catalog.umico.az".
	BaseURL string

	// UserAgent sent with every request.
	UserAgent string

	// Timeout is the per-request deadline. One attempt either returns a
	// full page within this deadline or fails; there is no partial data.
	Timeout time.Duration

	// Cache is an optional read-through page response cache.
	// Nil disables caching.
	Cache *cache.Manager
}

// DefaultConfig returns a safe default configuration for the Umico catalog.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://mp-catalog.umico.az",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36",
		Timeout:   30 * time.Second,
	}
}

// Client fetches catalog pages. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base URL must include a host")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "catalog-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// FetchPage performs exactly one retrieval attempt for the given page.
// There are no retries at this level; a failed attempt is reported as a
// *FetchError classifying the outcome. A cache hit counts as a successful
// fetch and issues no network call.
func (c *Client) FetchPage(ctx context.Context, req PageRequest) (*catalog.PageResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid page request: %w", err)
	}

	if page, ok := c.cachedPage(ctx, req); ok {
		return page, nil
	}

	startTime := time.Now()
	defer func() {
		catalogRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, value := range defaultHeaders {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		kind := classifyTransportError(err)
		catalogRequestsTotal.WithLabelValues("network_error").Inc()
		catalogFetchErrorsTotal.WithLabelValues(string(kind)).Inc()
		return nil, &FetchError{Kind: kind, Page: req.Page, Err: err}
	}
	defer resp.Body.Close()

	catalogRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		catalogFetchErrorsTotal.WithLabelValues(string(KindHTTPStatus)).Inc()
		c.logger.Warn().
			Int("page", req.Page).
			Int("status", resp.StatusCode).
			Msg("Catalog request returned non-OK status")
		return nil, &FetchError{Kind: KindHTTPStatus, Page: req.Page, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := classifyTransportError(err)
		catalogFetchErrorsTotal.WithLabelValues(string(kind)).Inc()
		return nil, &FetchError{Kind: kind, Page: req.Page, Err: err}
	}

	var page catalog.PageResponse
	if err := json.Unmarshal(body, &page); err != nil {
		catalogFetchErrorsTotal.WithLabelValues(string(KindDecode)).Inc()
		return nil, &FetchError{Kind: KindDecode, Page: req.Page, Err: err}
	}

	c.storePage(ctx, req, body)

	c.logger.Debug().
		Int("page", req.Page).
		Int("products", len(page.Products)).
		Dur("duration", time.Since(startTime)).
		Msg("Page fetched")

	return &page, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// pageURL builds the products endpoint URL for a page request.
func (c *Client) pageURL(req PageRequest) string {
	query := url.Values{}
	query.Set("page", strconv.Itoa(req.Page))
	query.Set("category_id", strconv.Itoa(req.CategoryID))
	query.Set("per_page", strconv.Itoa(req.PerPage))
	query.Set("sort", req.Sort)
	return c.config.BaseURL + productsPath + "?" + query.Encode()
}

// cachedPage looks the page up in the response cache, if one is configured.
func (c *Client) cachedPage(ctx context.Context, req PageRequest) (*catalog.PageResponse, bool) {
	if c.config.Cache == nil {
		return nil, false
	}

	entry, err := c.config.Cache.Get(ctx, cacheKey(req))
	if err != nil {
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Int("page", req.Page).Msg("Cache get error")
		}
		return nil, false
	}

	var page catalog.PageResponse
	if err := json.Unmarshal(entry.Data, &page); err != nil {
		c.logger.Warn().Err(err).Int("page", req.Page).Msg("Discarding undecodable cache entry")
		return nil, false
	}

	c.logger.Debug().Int("page", req.Page).Msg("Page served from cache")
	return &page, true
}

// storePage writes a fetched page body to the response cache, if one is
// configured. Cache errors never fail the fetch.
func (c *Client) storePage(ctx context.Context, req PageRequest, body []byte) {
	if c.config.Cache == nil {
		return
	}
	if err := c.config.Cache.Set(ctx, cacheKey(req), body); err != nil {
		c.logger.Warn().Err(err).Int("page", req.Page).Msg("Failed to cache page")
	}
}

func cacheKey(req PageRequest) cache.Key {
	return cache.Key{
		CategoryID: req.CategoryID,
		Page:       req.Page,
		PerPage:    req.PerPage,
		Sort:       req.Sort,
	}
}

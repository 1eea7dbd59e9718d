// Command catalog-scraper fetches every page of a Umico catalog category
// under a concurrency cap and writes the flattened records to CSV or JSONL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/birmarket-labs/catalog-scraper/pkg/cache"
	"github.com/birmarket-labs/catalog-scraper/pkg/catalog"
	"github.com/birmarket-labs/catalog-scraper/pkg/client"
	"github.com/birmarket-labs/catalog-scraper/pkg/failures"
	"github.com/birmarket-labs/catalog-scraper/pkg/logging"
	"github.com/birmarket-labs/catalog-scraper/pkg/scraper"
	"github.com/birmarket-labs/catalog-scraper/pkg/sink"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	baseURL := flag.String("base-url", getEnv("CATALOG_BASE_URL", "https://mp-catalog.umico.az"), "Catalog API origin")
	categoryID := flag.Int("category", getEnvInt("CATALOG_CATEGORY_ID", 15), "Catalog category to scrape")
	perPage := flag.Int("per-page", 24, "Products per page")
	sortKey := flag.String("sort", "global_popular_score", "Catalog sort key")
	concurrency := flag.Int("concurrency", getEnvInt("CATALOG_CONCURRENCY", 10), "Maximum pages in flight")
	maxAttempts := flag.Int("max-attempts", 3, "Attempts per page, including the first")
	timeout := flag.Duration("timeout", 30*time.Second, "Per-request timeout")
	output := flag.String("output", getEnv("CATALOG_OUTPUT", "umico_products.csv"), "Output file path")
	format := flag.String("format", "csv", "Output format: csv or jsonl")
	failedPagesFile := flag.String("failed-pages", "failed_pages.json", "Failed pages JSON file")
	redisAddr := flag.String("redis", getEnv("REDIS_URL", ""), "Redis address for page cache and failed-page store (empty disables)")
	cacheTTL := flag.Duration("cache-ttl", 5*time.Minute, "Page cache TTL")
	metricsAddr := flag.String("metrics-addr", getEnv("CATALOG_METRICS_ADDR", ""), "Prometheus metrics listen address (empty disables)")
	logLevel := flag.String("log-level", getEnv("CATALOG_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	pretty := flag.Bool("pretty", false, "Human-readable console logging")
	retryFailed := flag.Bool("retry-failed", false, "Fetch only the pages recorded as failed by the previous run")
	flag.Parse()

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(*logLevel),
		Pretty: *pretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: without it the scraper just skips response
	// caching and failed-page persistence.
	var redisClient *redis.Client
	var failureStore *failures.Store
	var cacheManager *cache.Manager
	if *redisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: *redisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", *redisAddr).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		cacheManager = cache.NewManager(cache.Config{
			Redis: redisClient,
			TTL:   *cacheTTL,
		})
		failureStore = failures.NewStore(redisClient, logger)
		logger.Info().Str("addr", *redisAddr).Msg("Connected to Redis")
	}

	clientCfg := client.DefaultConfig()
	clientCfg.BaseURL = *baseURL
	clientCfg.Timeout = *timeout
	clientCfg.Cache = cacheManager

	catalogClient, err := client.New(clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create catalog client")
	}

	retryCfg := client.DefaultRetryConfig()
	retryCfg.MaxAttempts = *maxAttempts

	s, err := scraper.New(catalogClient, scraper.Config{
		CategoryID:  *categoryID,
		PerPage:     *perPage,
		Sort:        *sortKey,
		Concurrency: *concurrency,
		Retry:       retryCfg,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create scraper")
	}

	metricsServer := startMetricsServer(*metricsAddr, logger)

	startTime := time.Now()

	var result *catalog.Result
	if *retryFailed {
		result, err = runRetryFailed(ctx, s, failureStore, *categoryID, *failedPagesFile, logger)
	} else {
		result, err = s.Run(ctx)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Scrape failed")
	}
	if result == nil {
		return
	}

	if err := writeRecords(*format, *output, result.Records); err != nil {
		logger.Fatal().Err(err).Msg("Failed to write output")
	}

	persistFailedPages(ctx, result, failureStore, *categoryID, *failedPagesFile, logger)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
		cancel()
	}

	printSummary(result, *output, time.Since(startTime))
}

// runRetryFailed re-fetches only the pages persisted by a previous run,
// preferring the Redis store over the local file.
func runRetryFailed(
	ctx context.Context,
	s *scraper.Scraper,
	store *failures.Store,
	categoryID int,
	failedPagesFile string,
	logger zerolog.Logger,
) (*catalog.Result, error) {
	var pages []int
	var err error

	if store != nil {
		pages, err = store.Load(ctx, categoryID)
		if err != nil {
			return nil, fmt.Errorf("load failed pages from redis: %w", err)
		}
	}
	if len(pages) == 0 {
		pages, err = sink.ReadFailedPages(failedPagesFile)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Info().Msg("No failed pages recorded, nothing to retry")
				return nil, nil
			}
			return nil, err
		}
	}
	if len(pages) == 0 {
		logger.Info().Msg("No failed pages recorded, nothing to retry")
		return nil, nil
	}

	return s.FetchPages(ctx, pages)
}

// writeRecords sends the final record sequence to the configured sink.
func writeRecords(format, filename string, records []catalog.Record) error {
	writer, err := newWriter(format, filename)
	if err != nil {
		return err
	}

	if err := writer.Write(records); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	if len(records) > 0 {
		return writer.Validate()
	}
	return nil
}

func newWriter(format, filename string) (sink.Writer, error) {
	switch format {
	case "csv":
		return sink.NewCSVWriter(filename)
	case "jsonl":
		return sink.NewJSONLWriter(filename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// persistFailedPages records the failed page set in the local file and,
// when Redis is configured, in the failed-page store for --retry-failed.
func persistFailedPages(
	ctx context.Context,
	result *catalog.Result,
	store *failures.Store,
	categoryID int,
	filename string,
	logger zerolog.Logger,
) {
	if len(result.FailedPages) > 0 {
		if err := sink.WriteFailedPages(filename, result.FailedPages); err != nil {
			logger.Warn().Err(err).Msg("Failed to write failed-pages file")
		} else {
			logger.Info().Str("file", filename).Ints("pages", result.FailedPages).Msg("Failed pages saved")
		}
	}

	if store != nil {
		if err := store.Save(ctx, categoryID, result.FailedPages); err != nil {
			logger.Warn().Err(err).Msg("Failed to persist failed pages to Redis")
		}
	}
}

func startMetricsServer(addr string, logger zerolog.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	logger.Info().Str("addr", addr).Msg("Metrics server enabled")

	return server
}

func printSummary(result *catalog.Result, outputFile string, duration time.Duration) {
	separator := "--------------------------------------------------"
	fmt.Println(separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Total expected: %d\n", result.TotalExpected)
	fmt.Printf("  Records:        %d\n", len(result.Records))
	fmt.Printf("  Failed pages:   %d\n", len(result.FailedPages))
	if len(result.FailedPages) > 0 {
		fmt.Printf("  Failed numbers: %v\n", result.FailedPages)
	}
	fmt.Printf("  Duration:       %v\n", duration.Round(time.Millisecond))
	fmt.Printf("  Output file:    %s\n", outputFile)
	fmt.Println(separator)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var parsed int
		if _, err := fmt.Sscanf(value, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return defaultValue
}

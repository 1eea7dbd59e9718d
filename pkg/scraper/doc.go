// Package scraper orchestrates the bounded-concurrency paginated fetch of
// the catalog.
//
// A run is a two-phase protocol. Phase 1 fetches page 1 synchronously
// (through the retry policy) to learn the total product count; its
// permanent failure is the only fatal condition. Phase 2 fans the
// remaining pages out over a worker pool, where each worker is one
// admission slot held for a page's entire retry lifetime, backoff
// included. A single collector goroutine receives every page's terminal
// outcome, so no shared accumulator needs locking.
//
// Example usage:
//
//	c, _ := client.New(client.DefaultConfig())
//	s, _ := scraper.New(c, scraper.DefaultConfig())
//	result, err := s.Run(ctx)
//
// The final record order is deterministic regardless of completion order:
// ascending page number, then the item order each page's response
// returned. Pages that exhaust their retry budget end up in
// Result.FailedPages and contribute no records; the run still completes.
package scraper

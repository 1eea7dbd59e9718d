// Package sink persists scraped catalog records: CSV and JSONL writers
// plus the failed-pages file used to target re-runs.
package sink

import "github.com/birmarket-labs/catalog-scraper/pkg/catalog"

// Writer is the interface record output destinations implement.
type Writer interface {
	Write(records []catalog.Record) error
	Close() error
	Validate() error
}

package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// WriteFailedPages persists the failed page numbers as a JSON array, so a
// later run can target only those pages.
func WriteFailedPages(filename string, pages []int) error {
	if err := ensureDir(filename); err != nil {
		return err
	}

	sorted := make([]int, len(pages))
	copy(sorted, pages)
	sort.Ints(sorted)

	data, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("marshal failed pages: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write failed pages file: %w", err)
	}
	return nil
}

// ReadFailedPages loads a failed-pages file written by WriteFailedPages.
func ReadFailedPages(filename string) ([]int, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read failed pages file: %w", err)
	}

	var pages []int
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("parse failed pages file: %w", err)
	}

	sort.Ints(pages)
	return pages, nil
}

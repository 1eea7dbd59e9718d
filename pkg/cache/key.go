package cache

import "fmt"

// Key identifies one cached catalog page response.
type Key struct {
	// CategoryID is the catalog category being scraped.
	CategoryID int

	// Page is the 1-based page number.
	Page int

	// PerPage is the page size the response was fetched with.
	PerPage int

	// Sort is the sort key the response was fetched with.
	Sort string
}

// String generates a deterministic cache key string.
// Format: catalog:pages:<category>:<sort>:<per_page>:<page>
//
// Example:
//
//	catalog:pages:15:global_popular_score:24:7
func (k Key) String() string {
	sort := k.Sort
	if sort == "" {
		sort = "default"
	}
	return fmt.Sprintf("catalog:pages:%d:%s:%d:%d", k.CategoryID, sort, k.PerPage, k.Page)
}

package catalog

// Result is the terminal artifact of a scrape run.
//
// Records are ordered by ascending page number and, within a page, by the
// item order the API returned. FailedPages lists the pages that exhausted
// every retry attempt, sorted ascending; page 1 never appears here because
// its failure aborts the run instead. TotalExpected is the product count
// reported by page 1's envelope (0 if absent).
type Result struct {
	Records       []Record
	FailedPages   []int
	TotalExpected int
}

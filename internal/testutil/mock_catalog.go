// Package testutil provides testing utilities for the catalog scraper.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/birmarket-labs/catalog-scraper/pkg/catalog"
)

// failureSpec makes a page fail with a status code for a number of
// attempts. remaining < 0 means every attempt fails.
type failureSpec struct {
	status    int
	remaining int
}

// MockCatalog is a configurable mock of the catalog products API. It
// serves deterministic product pages derived from a total product count
// and tracks per-page attempts and the in-flight request high-water mark.
type MockCatalog struct {
	server *httptest.Server

	mu            sync.Mutex
	totalProducts int
	failures      map[int]*failureSpec
	bodies        map[string]string
	delay         time.Duration
	requestCount  int
	attempts      map[int]int
	inFlight      int
	maxInFlight   int
}

// NewMockCatalog creates a mock catalog server reporting the given total
// product count on page 1.
func NewMockCatalog(totalProducts int) *MockCatalog {
	mock := &MockCatalog{
		totalProducts: totalProducts,
		failures:      make(map[int]*failureSpec),
		bodies:        make(map[string]string),
		attempts:      make(map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// FailPage makes a page respond with the given status for the first
// `times` attempts; pass times < 0 to fail every attempt.
func (m *MockCatalog) FailPage(page, status, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[page] = &failureSpec{status: status, remaining: times}
}

// SetPageBody overrides the raw response body for a page.
func (m *MockCatalog) SetPageBody(page int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies[strconv.Itoa(page)] = body
}

// SetDelay inserts a delay before every response, to keep requests in
// flight long enough for concurrency assertions.
func (m *MockCatalog) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// RequestCount returns the total number of requests served.
func (m *MockCatalog) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// Attempts returns how many times a page was requested.
func (m *MockCatalog) Attempts(page int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[page]
}

// MaxInFlight returns the highest number of simultaneously in-flight
// requests observed.
func (m *MockCatalog) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

func (m *MockCatalog) handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	perPage, _ := strconv.Atoi(query.Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 24
	}

	m.mu.Lock()
	m.requestCount++
	m.attempts[page]++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	delay := m.delay
	body, hasBody := m.bodies[strconv.Itoa(page)]
	spec := m.failures[page]
	fail := spec != nil && spec.remaining != 0
	status := 0
	if fail {
		status = spec.status
		if spec.remaining > 0 {
			spec.remaining--
		}
	}
	total := m.totalProducts
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if delay > 0 {
		time.Sleep(delay)
	}

	if fail {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error": "simulated failure"}`)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if hasBody {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
		return
	}

	resp := PageResponse(total, page, perPage)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// PageResponse builds the deterministic envelope the mock serves for a
// page: product IDs are sequential across pages, and only page 1 carries
// the meta block, like the real API.
func PageResponse(totalProducts, page, perPage int) catalog.PageResponse {
	firstIndex := (page - 1) * perPage
	lastIndex := firstIndex + perPage
	if lastIndex > totalProducts {
		lastIndex = totalProducts
	}

	products := make([]catalog.Product, 0, perPage)
	for i := firstIndex; i < lastIndex; i++ {
		products = append(products, Product(i+1))
	}

	resp := catalog.PageResponse{Products: products}
	if page == 1 {
		resp.Meta = &catalog.Meta{Total: totalProducts}
	}
	return resp
}

// Product builds a deterministic raw product for an ID.
func Product(id int) catalog.Product {
	return catalog.Product{
		ID:          int64(id),
		Name:        fmt.Sprintf("Product %d", id),
		SluggedName: fmt.Sprintf("product-%d", id),
		Status:      "active",
		Brand:       fmt.Sprintf("Brand %d", id%5),
		MinQty:      1,
		Category: catalog.Category{
			ID:   15,
			Name: "Electronics",
		},
		Ratings: catalog.Ratings{
			RatingValue:  4.5,
			SessionCount: id % 100,
		},
		MainImg: catalog.Image{
			Small:  fmt.Sprintf("https://img.example/%d-s.jpg", id),
			Medium: fmt.Sprintf("https://img.example/%d-m.jpg", id),
			Big:    fmt.Sprintf("https://img.example/%d-b.jpg", id),
		},
		DefaultOffer: catalog.Offer{
			UUID:        fmt.Sprintf("offer-%d", id),
			OldPrice:    float64(100 + id),
			RetailPrice: float64(80 + id),
			Qty:         10,
			Seller: catalog.Seller{
				ExtID:    fmt.Sprintf("S%04d", id%50),
				Rating:   4.8,
				RoleName: "marketplace",
				VatPayer: true,
				MarketingName: catalog.MarketingName{
					Name: fmt.Sprintf("Seller %d", id%50),
				},
			},
		},
	}
}

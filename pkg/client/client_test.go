package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/birmarket-labs/catalog-scraper/pkg/cache"
	"github.com/jarcoal/httpmock"
)

const testBaseURL = "https://mp-catalog.umico.az"

// newTestClient builds a client backed by an httpmock transport.
func newTestClient(t *testing.T, cacheManager *cache.Manager) (*Client, *httpmock.MockTransport) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Cache = cacheManager

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	transport := httpmock.NewMockTransport()
	c.SetHTTPClient(&http.Client{Transport: transport, Timeout: cfg.Timeout})

	return c, transport
}

func testRequest(page int) PageRequest {
	return PageRequest{Page: page, PerPage: 24, CategoryID: 15, Sort: "global_popular_score"}
}

func pageBody(t *testing.T, productIDs []int64, total int) string {
	t.Helper()

	products := make([]map[string]any, 0, len(productIDs))
	for _, id := range productIDs {
		products = append(products, map[string]any{"id": id, "name": "Product"})
	}
	envelope := map[string]any{"products": products}
	if total > 0 {
		envelope["meta"] = map[string]any{"total": total}
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return string(data)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid config", func(*Config) {}, false},
		{"empty base URL", func(cfg *Config) { cfg.BaseURL = "" }, true},
		{"base URL without host", func(cfg *Config) { cfg.BaseURL = "not-a-url" }, true},
		{"empty user agent", func(cfg *Config) { cfg.UserAgent = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := New(cfg)
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPageRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		req         PageRequest
		expectError bool
	}{
		{"valid", testRequest(1), false},
		{"zero page", PageRequest{Page: 0, PerPage: 24, CategoryID: 15}, true},
		{"zero per_page", PageRequest{Page: 1, PerPage: 0, CategoryID: 15}, true},
		{"zero category", PageRequest{Page: 1, PerPage: 24, CategoryID: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFetchPage_Success(t *testing.T) {
	c, transport := newTestClient(t, nil)

	var captured *http.Request
	transport.RegisterResponder("GET", testBaseURL+"/api/v1/products",
		func(req *http.Request) (*http.Response, error) {
			captured = req
			return httpmock.NewStringResponse(200, pageBody(t, []int64{1, 2, 3}, 240)), nil
		})

	page, err := c.FetchPage(context.Background(), testRequest(1))
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if len(page.Products) != 3 {
		t.Errorf("len(Products) = %d, want 3", len(page.Products))
	}
	if page.Total() != 240 {
		t.Errorf("Total() = %d, want 240", page.Total())
	}

	query := captured.URL.Query()
	if query.Get("page") != "1" || query.Get("per_page") != "24" ||
		query.Get("category_id") != "15" || query.Get("sort") != "global_popular_score" {
		t.Errorf("unexpected query params: %v", query)
	}
	if captured.Header.Get("accept-language") != "az" {
		t.Errorf("accept-language = %q, want az", captured.Header.Get("accept-language"))
	}
	if captured.Header.Get("origin") != "https://birmarket.az" {
		t.Errorf("origin = %q", captured.Header.Get("origin"))
	}
	if captured.Header.Get("User-Agent") == "" {
		t.Error("User-Agent header missing")
	}
}

func TestFetchPage_InvalidRequest(t *testing.T) {
	c, _ := newTestClient(t, nil)

	if _, err := c.FetchPage(context.Background(), PageRequest{Page: 0, PerPage: 24, CategoryID: 15}); err == nil {
		t.Error("expected validation error, got nil")
	}
}

func TestFetchPage_HTTPStatusError(t *testing.T) {
	c, transport := newTestClient(t, nil)
	transport.RegisterResponder("GET", testBaseURL+"/api/v1/products",
		httpmock.NewStringResponder(503, `{"error": "unavailable"}`))

	_, err := c.FetchPage(context.Background(), testRequest(4))

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.Kind != KindHTTPStatus {
		t.Errorf("Kind = %q, want %q", fe.Kind, KindHTTPStatus)
	}
	if fe.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", fe.StatusCode)
	}
	if fe.Page != 4 {
		t.Errorf("Page = %d, want 4", fe.Page)
	}
}

func TestFetchPage_DecodeError(t *testing.T) {
	c, transport := newTestClient(t, nil)
	transport.RegisterResponder("GET", testBaseURL+"/api/v1/products",
		httpmock.NewStringResponder(200, "<html>not json</html>"))

	_, err := c.FetchPage(context.Background(), testRequest(2))

	if Kind(err) != KindDecode {
		t.Errorf("Kind = %q, want %q", Kind(err), KindDecode)
	}
}

func TestFetchPage_TransportError(t *testing.T) {
	c, transport := newTestClient(t, nil)
	transport.RegisterResponder("GET", testBaseURL+"/api/v1/products",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := c.FetchPage(context.Background(), testRequest(2))

	if Kind(err) != KindTransport {
		t.Errorf("Kind = %q, want %q", Kind(err), KindTransport)
	}
}

func TestFetchPage_Timeout(t *testing.T) {
	c, transport := newTestClient(t, nil)
	transport.RegisterResponder("GET", testBaseURL+"/api/v1/products",
		httpmock.NewErrorResponder(context.DeadlineExceeded))

	_, err := c.FetchPage(context.Background(), testRequest(2))

	if Kind(err) != KindTimeout {
		t.Errorf("Kind = %q, want %q", Kind(err), KindTimeout)
	}
}

func TestFetchPage_CacheHit(t *testing.T) {
	manager := cache.NewManager(cache.Config{MemorySize: 16, TTL: time.Minute})
	c, transport := newTestClient(t, manager)

	transport.RegisterResponder("GET", testBaseURL+"/api/v1/products",
		httpmock.NewStringResponder(200, pageBody(t, []int64{7, 8}, 0)))

	// First fetch hits the network and populates the cache.
	if _, err := c.FetchPage(context.Background(), testRequest(3)); err != nil {
		t.Fatalf("first FetchPage failed: %v", err)
	}
	if transport.GetTotalCallCount() != 1 {
		t.Fatalf("call count = %d, want 1", transport.GetTotalCallCount())
	}

	// Second fetch is served from cache without a network call.
	page, err := c.FetchPage(context.Background(), testRequest(3))
	if err != nil {
		t.Fatalf("second FetchPage failed: %v", err)
	}
	if len(page.Products) != 2 {
		t.Errorf("len(Products) = %d, want 2", len(page.Products))
	}
	if transport.GetTotalCallCount() != 1 {
		t.Errorf("call count = %d, want 1 (cache hit expected)", transport.GetTotalCallCount())
	}
}

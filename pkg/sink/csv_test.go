package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/birmarket-labs/catalog-scraper/pkg/catalog"
)

func sampleRecords() []catalog.Record {
	return []catalog.Record{
		{
			ProductID:       101,
			Name:            "Wireless Mouse",
			SluggedName:     "wireless-mouse",
			Status:          "active",
			Brand:           "Logi",
			CategoryID:      15,
			CategoryName:    "Electronics",
			OldPrice:        50,
			RetailPrice:     40,
			DiscountPercent: 20,
			SellerID:        "S0001",
			SellerName:      "Tech Store",
			RatingValue:     4.5,
			RatingCount:     12,
			MinQty:          1,
			ProductLabels:   "new, sale",
			OfferUUID:       "uuid-101",
			StockQty:        3,
		},
		{
			ProductID:   102,
			Name:        "Keyboard, mechanical",
			CategoryID:  15,
			RetailPrice: 89.99,
		},
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "products.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter failed: %v", err)
	}

	records := sampleRecords()
	if err := w.Write(records); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (header + 2 records)", len(rows))
	}
	if len(rows[0]) != len(recordHeader) {
		t.Errorf("header has %d columns, want %d", len(rows[0]), len(recordHeader))
	}
	if rows[0][0] != "product_id" {
		t.Errorf("first header column = %q, want product_id", rows[0][0])
	}
	if rows[1][0] != "101" {
		t.Errorf("first record product_id = %q, want 101", rows[1][0])
	}
	if rows[1][9] != "20" {
		t.Errorf("discount_percent = %q, want 20", rows[1][9])
	}
	// The embedded comma in the name survives the round trip.
	if rows[2][1] != "Keyboard, mechanical" {
		t.Errorf("second record name = %q", rows[2][1])
	}
}

func TestCSVRow_ColumnCount(t *testing.T) {
	row := csvRow(catalog.Record{})
	if len(row) != len(recordHeader) {
		t.Errorf("csvRow has %d columns, header has %d", len(row), len(recordHeader))
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{20, "20"},
		{33.33, "33.33"},
		{89.99, "89.99"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

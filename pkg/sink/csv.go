package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/birmarket-labs/catalog-scraper/pkg/catalog"
)

// recordHeader lists the CSV columns in output order. It must stay in
// sync with csvRow below.
var recordHeader = []string{
	"product_id",
	"name",
	"slugged_name",
	"status",
	"brand",
	"category_id",
	"category_name",
	"old_price",
	"retail_price",
	"discount_percent",
	"installment_enabled",
	"max_installment_months",
	"seller_id",
	"seller_name",
	"seller_rating",
	"seller_role",
	"seller_vat_payer",
	"rating_value",
	"rating_count",
	"min_qty",
	"preorder_available",
	"product_labels",
	"image_small",
	"image_medium",
	"image_big",
	"offer_uuid",
	"stock_qty",
	"discount_start_date",
	"discount_end_date",
}

// CSVWriter writes records to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(recordHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends records to the CSV output.
func (cw *CSVWriter) Write(records []catalog.Record) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, record := range records {
		if err := cw.writer.Write(csvRow(record)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

func csvRow(r catalog.Record) []string {
	return []string{
		strconv.FormatInt(r.ProductID, 10),
		r.Name,
		r.SluggedName,
		r.Status,
		r.Brand,
		strconv.FormatInt(r.CategoryID, 10),
		r.CategoryName,
		formatFloat(r.OldPrice),
		formatFloat(r.RetailPrice),
		formatFloat(r.DiscountPercent),
		strconv.FormatBool(r.InstallmentEnabled),
		strconv.Itoa(r.MaxInstallmentMonths),
		r.SellerID,
		r.SellerName,
		formatFloat(r.SellerRating),
		r.SellerRole,
		strconv.FormatBool(r.SellerVATPayer),
		formatFloat(r.RatingValue),
		strconv.Itoa(r.RatingCount),
		strconv.Itoa(r.MinQty),
		strconv.FormatBool(r.PreorderAvailable),
		r.ProductLabels,
		r.ImageSmall,
		r.ImageMedium,
		r.ImageBig,
		r.OfferUUID,
		strconv.Itoa(r.StockQty),
		r.DiscountStartDate,
		r.DiscountEndDate,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

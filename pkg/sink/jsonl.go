package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/birmarket-labs/catalog-scraper/pkg/catalog"
)

// JSONLWriter writes newline-delimited JSON records.
type JSONLWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONLWriter initialises the JSONL writer.
func NewJSONLWriter(filename string) (*JSONLWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create jsonl file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONLWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends records in JSONL format.
func (jw *JSONLWriter) Write(records []catalog.Record) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, record := range records {
		if err := jw.encoder.Encode(record); err != nil {
			return fmt.Errorf("encode jsonl record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush jsonl writer: %w", err)
	}

	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush jsonl writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSONL file has data.
func (jw *JSONLWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat jsonl file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("jsonl file is empty")
	}
	return nil
}

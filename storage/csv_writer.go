package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"villa-importer/models"
)

// CSVReportWriter writes one row per attempted batch to a CSV file.
// It is safe for concurrent use.
type CSVReportWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVReportWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVReportWriter(path string) (*CSVReportWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"run_id", "collection", "batch", "size", "status", "first_id", "last_id", "duration_ms", "error",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVReportWriter{file: f, writer: w}, nil
}

// WriteSummary writes a row for every batch result in the summary.
func (c *CSVReportWriter) WriteSummary(s *models.ImportSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range s.Results {
		status, errText := "committed", ""
		if r.Err != nil {
			status, errText = "failed", r.Err.Error()
		}

		var first, last string
		if len(r.IDs) > 0 {
			first, last = r.IDs[0], r.IDs[len(r.IDs)-1]
		}

		row := []string{
			s.RunID,
			s.Collection,
			strconv.Itoa(r.Index),
			strconv.Itoa(r.Size),
			status,
			first,
			last,
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			errText,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVReportWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// Package exporter writes aggregation results to CSV and Excel files.
// All writes are atomic: content goes to a temp file in the target
// directory and is renamed into place, so a failed run leaves no
// partial output.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVWriter provides CSV export functionality rooted at an output
// directory.
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer for the given output directory
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{dir: dir, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM for Excel compatibility
}

// WriteCSV writes a CSV file under the output directory and returns its
// full path.
func (w *CSVWriter) WriteCSV(name string, options WriteOptions) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	fullPath := filepath.Join(w.dir, name)

	w.logger.Info("writing CSV file",
		slog.String("path", fullPath),
		slog.Int("record_count", len(options.Records)))

	tmp, err := os.CreateTemp(w.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if options.BOMPrefix {
		if _, err := tmp.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return "", fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(tmp)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return "", fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", fullPath, err)
	}
	return fullPath, nil
}

// WriteSummary writes the per-period summary CSV
func (w *CSVWriter) WriteSummary(r *Report, stamp string) (string, error) {
	return w.WriteCSV(fmt.Sprintf("tou_summary_%s.csv", stamp), WriteOptions{
		Headers:   summaryHeaders,
		Records:   summaryRecords(r),
		BOMPrefix: true,
	})
}

// WriteDetails writes the per-interval detail CSV
func (w *CSVWriter) WriteDetails(r *Report, stamp string) (string, error) {
	return w.WriteCSV(fmt.Sprintf("tou_details_%s.csv", stamp), WriteOptions{
		Headers:   detailHeaders,
		Records:   detailRecords(r),
		BOMPrefix: true,
	})
}

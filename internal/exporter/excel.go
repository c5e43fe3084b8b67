package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet   = "Summary"
	intervalsSheet = "Intervals"
)

// ExcelWriter exports reports as a workbook with a Summary sheet and,
// when interval detail is requested, an Intervals sheet.
type ExcelWriter struct {
	dir    string
	logger *slog.Logger
}

// NewExcelWriter creates an Excel writer for the given output directory
func NewExcelWriter(dir string, logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{dir: dir, logger: logger}
}

// WriteWorkbook writes the workbook and returns its full path.
func (w *ExcelWriter) WriteWorkbook(r *Report, stamp string, includeDetails bool) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	fullPath := filepath.Join(w.dir, fmt.Sprintf("tou_report_%s.xlsx", stamp))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", err
	}
	if err := writeSheet(f, summarySheet, summaryHeaders, summaryRecords(r)); err != nil {
		return "", fmt.Errorf("failed to build summary sheet: %w", err)
	}

	if includeDetails {
		if _, err := f.NewSheet(intervalsSheet); err != nil {
			return "", err
		}
		if err := writeSheet(f, intervalsSheet, detailHeaders, detailRecords(r)); err != nil {
			return "", fmt.Errorf("failed to build intervals sheet: %w", err)
		}
	}

	w.logger.Info("writing Excel workbook",
		slog.String("path", fullPath),
		slog.Int("periods", len(r.Aggregates)),
		slog.Bool("include_details", includeDetails))

	// SaveAs validates the extension, so the temp name must end in .xlsx
	tmp, err := os.CreateTemp(w.dir, "tou_report_tmp_*.xlsx")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := f.SaveAs(tmpName); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", fullPath, err)
	}
	return fullPath, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, records [][]string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}

	for i, record := range records {
		row := make([]interface{}, len(record))
		for j, cell := range record {
			row[j] = cell
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

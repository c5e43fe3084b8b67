package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	dir := t.TempDir()
	w := NewExcelWriter(dir, nil)

	path, err := w.WriteWorkbook(testReport(t), "20240610_120000", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tou_report_20240610_120000.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{summarySheet, intervalsSheet}, f.GetSheetList())

	name, err := f.GetCellValue(summarySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "period", name)

	peak, err := f.GetCellValue(summarySheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Peak", peak)

	cost, err := f.GetCellValue(summarySheet, "H2")
	require.NoError(t, err)
	assert.Equal(t, "12.25", cost)

	period, err := f.GetCellValue(intervalsSheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, "Off-peak", period)
}

func TestWriteWorkbookSummaryOnly(t *testing.T) {
	w := NewExcelWriter(t.TempDir(), nil)

	path, err := w.WriteWorkbook(testReport(t), "20240610_120000", false)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet}, f.GetSheetList())
}

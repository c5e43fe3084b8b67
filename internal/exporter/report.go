package exporter

import (
	"strconv"
	"time"

	"nemcli/internal/meterdata"
	"nemcli/internal/timezone"
	"nemcli/internal/tou"
)

// Report bundles everything one export run needs.
type Report struct {
	Dataset    *meterdata.ParsedDataset
	State      timezone.State
	Aggregates []tou.PeriodAggregate
	Stats      *tou.SummaryStats
	Intervals  []tou.ClassifiedInterval
}

// Stamp returns the wall-clock filename stamp for this run
func Stamp(t time.Time) string {
	return t.Format("20060102_150405")
}

var summaryHeaders = []string{
	"period", "total_kwh", "interval_count", "missing_count",
	"estimated_count", "avg_kwh_per_interval", "pct_of_total", "total_cost",
}

func summaryRecords(r *Report) [][]string {
	records := make([][]string, 0, len(r.Aggregates))
	for _, a := range r.Aggregates {
		cost := ""
		if a.TotalCost != nil {
			cost = a.TotalCost.StringFixed(2)
		}
		records = append(records, []string{
			a.Name,
			formatKWh(a.TotalKWh),
			strconv.Itoa(a.IntervalCount),
			strconv.Itoa(a.MissingCount),
			strconv.Itoa(a.EstimatedCount),
			formatKWh(a.AvgKWhPerInterval),
			formatPct(a.PctOfTotal),
			cost,
		})
	}
	return records
}

var detailHeaders = []string{
	"timestamp_local", "timestamp_industry", "consumption_kwh",
	"period", "day_type", "quality_method", "is_estimate",
}

func detailRecords(r *Report) [][]string {
	records := make([][]string, 0, len(r.Intervals))
	for _, iv := range r.Intervals {
		consumption := ""
		if iv.Consumption != nil {
			consumption = formatKWh(*iv.Consumption)
		}
		records = append(records, []string{
			iv.TimestampLocal.Format("2006-01-02 15:04:05 MST"),
			iv.TimestampIndustry.Format("2006-01-02 15:04:05"),
			consumption,
			iv.PeriodName,
			string(iv.DayType),
			iv.QualityMethod,
			strconv.FormatBool(iv.IsEstimate),
		})
	}
	return records
}

func formatKWh(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

package tou

import (
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"nemcli/internal/timezone"
)

// PeriodAggregate is the consumption rollup for one period bucket.
type PeriodAggregate struct {
	Name              string
	TotalKWh          float64
	IntervalCount     int // includes intervals with missing readings
	MissingCount      int
	EstimatedCount    int
	AvgKWhPerInterval float64
	PctOfTotal        float64
	TotalCost         *decimal.Decimal // nil when the period has no price
}

// SummaryStats describe the whole classified dataset independent of the
// period grouping.
type SummaryStats struct {
	TotalIntervals    int
	TotalKWh          float64
	MissingCount      int
	EstimatedCount    int
	EstimatedPct      float64
	UnclassifiedCount int
	UnclassifiedPct   float64
	RangeStart        time.Time // industry time
	RangeEnd          time.Time
	TotalDays         int
	WeekdayIntervals  int
	WeekendIntervals  int
	HolidayIntervals  int
	Transitions       []timezone.TransitionInfo
}

// Aggregator groups classified intervals by period and computes the
// per-period rollups and dataset summary. Output order is deterministic:
// configuration order with Unclassified last.
type Aggregator struct {
	config *Configuration
	state  timezone.State
	logger *slog.Logger
}

// NewAggregator creates an aggregator for the given configuration
func NewAggregator(config *Configuration, state timezone.State, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{config: config, state: state, logger: logger}
}

// Aggregate computes per-period aggregates and summary statistics.
// intervalLength (minutes) drives the expected daily interval count used
// for DST transition detection.
func (a *Aggregator) Aggregate(intervals []ClassifiedInterval, intervalLength int) ([]PeriodAggregate, *SummaryStats) {
	// fixed bucket layout: configured periods in order, Unclassified last
	buckets := make([]PeriodAggregate, 0, len(a.config.Periods)+1)
	index := make(map[string]int, len(a.config.Periods)+1)
	for _, p := range a.config.Periods {
		index[p.Name] = len(buckets)
		buckets = append(buckets, PeriodAggregate{Name: p.Name})
	}
	index[Unclassified] = len(buckets)
	buckets = append(buckets, PeriodAggregate{Name: Unclassified})

	stats := &SummaryStats{TotalIntervals: len(intervals)}

	for _, iv := range intervals {
		b := &buckets[index[iv.PeriodName]]
		b.IntervalCount++

		if iv.Consumption == nil {
			b.MissingCount++
			stats.MissingCount++
		} else {
			b.TotalKWh += *iv.Consumption
			stats.TotalKWh += *iv.Consumption
		}
		if iv.IsEstimate {
			b.EstimatedCount++
			stats.EstimatedCount++
		}

		switch iv.DayType {
		case Holiday:
			stats.HolidayIntervals++
		case Weekend:
			stats.WeekendIntervals++
		default:
			stats.WeekdayIntervals++
		}
		if iv.PeriodName == Unclassified {
			stats.UnclassifiedCount++
		}
	}

	for i := range buckets {
		b := &buckets[i]

		if counted := b.IntervalCount - b.MissingCount; counted > 0 {
			b.AvgKWhPerInterval = b.TotalKWh / float64(counted)
		}
		if stats.TotalKWh > 0 {
			b.PctOfTotal = b.TotalKWh / stats.TotalKWh * 100
		}
		if p := a.config.Find(b.Name); p != nil && p.PricePerKWh != nil {
			cost := p.PricePerKWh.Mul(decimal.NewFromFloat(b.TotalKWh))
			b.TotalCost = &cost
		}
	}

	if len(intervals) > 0 {
		stats.RangeStart = intervals[0].TimestampIndustry
		stats.RangeEnd = intervals[len(intervals)-1].TimestampIndustry
		stats.TotalDays = int(dayOf(stats.RangeEnd).Sub(dayOf(stats.RangeStart)).Hours()/24) + 1
		stats.EstimatedPct = float64(stats.EstimatedCount) / float64(stats.TotalIntervals) * 100
		stats.UnclassifiedPct = float64(stats.UnclassifiedCount) / float64(stats.TotalIntervals) * 100
	}

	stats.Transitions = a.detectTransitions(intervals, intervalLength)

	a.logger.Info("aggregated intervals",
		slog.Int("periods", len(a.config.Periods)),
		slog.Float64("total_kwh", stats.TotalKWh),
		slog.Int("missing", stats.MissingCount),
		slog.Int("dst_transition_days", len(stats.Transitions)))

	return buckets, stats
}

// detectTransitions scans daily interval counts for DST irregularities.
// Days are keyed on the industry calendar; a reading stamped exactly
// midnight belongs to the day it ends on, which is the preceding
// calendar date.
func (a *Aggregator) detectTransitions(intervals []ClassifiedInterval, intervalLength int) []timezone.TransitionInfo {
	if intervalLength <= 0 || len(intervals) == 0 {
		return nil
	}
	expected := 24 * 60 / intervalLength

	counts := make(map[string]int)
	days := make(map[string]time.Time)
	for _, iv := range intervals {
		day := dayOf(iv.TimestampIndustry)
		key := day.Format("2006-01-02")
		counts[key]++
		days[key] = day
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var transitions []timezone.TransitionInfo
	for _, k := range keys {
		if t := timezone.DetectTransition(days[k], a.state, counts[k], expected); t != nil {
			transitions = append(transitions, *t)
		}
	}
	return transitions
}

// dayOf returns the industry calendar day an interval-end timestamp
// belongs to: the date of the instant just before it, so a midnight end
// counts against the day it closes.
func dayOf(end time.Time) time.Time {
	adjusted := end.In(timezone.Industry).Add(-time.Second)
	return time.Date(adjusted.Year(), adjusted.Month(), adjusted.Day(), 0, 0, 0, 0, timezone.Industry)
}

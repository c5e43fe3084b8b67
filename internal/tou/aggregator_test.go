package tou

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nemcli/internal/timezone"
)

func classified(ts time.Time, kwh float64, period string, dayType DayType) ClassifiedInterval {
	iv := ClassifiedInterval{
		TimestampLocal: ts,
		DayType:        dayType,
		PeriodName:     period,
	}
	iv.TimestampIndustry = ts
	iv.Consumption = &kwh
	return iv
}

func missingInterval(ts time.Time, period string) ClassifiedInterval {
	iv := ClassifiedInterval{
		TimestampLocal: ts,
		DayType:        Weekday,
		PeriodName:     period,
	}
	iv.TimestampIndustry = ts
	return iv
}

func TestAggregateBuckets(t *testing.T) {
	cfg := testConfig(t)
	agg := NewAggregator(cfg, timezone.NSW, nil)

	base := time.Date(2024, time.June, 12, 8, 0, 0, 0, timezone.Industry)
	intervals := []ClassifiedInterval{
		classified(base, 1.5, "Peak", Weekday),
		classified(base.Add(30*time.Minute), 2.5, "Peak", Weekday),
		classified(base.Add(14*time.Hour), 1.0, "Off-peak", Weekday),
		classified(base.Add(15*time.Hour), 0.0, Unclassified, Weekday),
	}

	buckets, stats := agg.Aggregate(intervals, 30)
	require.Len(t, buckets, 3, "configured periods plus Unclassified")

	assert.Equal(t, "Peak", buckets[0].Name)
	assert.Equal(t, "Off-peak", buckets[1].Name)
	assert.Equal(t, Unclassified, buckets[2].Name)

	assert.InDelta(t, 4.0, buckets[0].TotalKWh, 1e-9)
	assert.Equal(t, 2, buckets[0].IntervalCount)
	assert.InDelta(t, 2.0, buckets[0].AvgKWhPerInterval, 1e-9)
	assert.InDelta(t, 80.0, buckets[0].PctOfTotal, 1e-9)

	assert.InDelta(t, 1.0, buckets[1].TotalKWh, 1e-9)
	assert.InDelta(t, 20.0, buckets[1].PctOfTotal, 1e-9)

	assert.Equal(t, 1, buckets[2].IntervalCount)
	assert.Zero(t, buckets[2].TotalKWh)

	assert.Equal(t, 4, stats.TotalIntervals)
	assert.InDelta(t, 5.0, stats.TotalKWh, 1e-9)
	assert.Equal(t, 1, stats.UnclassifiedCount)
}

func TestAggregateTotalsMatchInput(t *testing.T) {
	cfg := testConfig(t)
	agg := NewAggregator(cfg, timezone.NSW, nil)

	base := time.Date(2024, time.June, 10, 0, 30, 0, 0, timezone.Industry)
	var intervals []ClassifiedInterval
	var want float64
	for i := 0; i < 100; i++ {
		kwh := float64(i%7) * 0.25
		period := "Peak"
		if i%3 == 0 {
			period = "Off-peak"
		}
		intervals = append(intervals, classified(base.Add(time.Duration(i)*30*time.Minute), kwh, period, Weekday))
		want += kwh
	}

	buckets, _ := agg.Aggregate(intervals, 30)
	var got float64
	for _, b := range buckets {
		got += b.TotalKWh
	}
	assert.InDelta(t, want, got, 1e-9, "bucket totals must sum to input total")
}

func TestAggregateCostUsesDecimalPrice(t *testing.T) {
	price := decimal.RequireFromString("0.35")
	cfg := &Configuration{Periods: []PeriodDefinition{
		{Name: "Flat", WeekdayRanges: []TimeRange{mustRange(t, "00:00-00:00")}, PricePerKWh: &price},
	}}
	agg := NewAggregator(cfg, timezone.NSW, nil)

	base := time.Date(2024, time.June, 10, 0, 30, 0, 0, timezone.Industry)
	var intervals []ClassifiedInterval
	for i := 0; i < 100; i++ {
		intervals = append(intervals, classified(base.Add(time.Duration(i)*30*time.Minute), 1.0, "Flat", Weekday))
	}

	buckets, _ := agg.Aggregate(intervals, 30)
	require.NotNil(t, buckets[0].TotalCost)
	assert.Equal(t, "35.00", buckets[0].TotalCost.StringFixed(2))

	// Unclassified bucket never has a cost.
	assert.Nil(t, buckets[1].TotalCost)
}

func TestAggregateMissingReadings(t *testing.T) {
	cfg := testConfig(t)
	agg := NewAggregator(cfg, timezone.NSW, nil)

	base := time.Date(2024, time.June, 12, 8, 0, 0, 0, timezone.Industry)
	intervals := []ClassifiedInterval{
		classified(base, 3.0, "Peak", Weekday),
		missingInterval(base.Add(30*time.Minute), "Peak"),
		missingInterval(base.Add(60*time.Minute), "Off-peak"),
	}

	buckets, stats := agg.Aggregate(intervals, 30)

	assert.Equal(t, 2, buckets[0].IntervalCount, "missing readings still count intervals")
	assert.Equal(t, 1, buckets[0].MissingCount)
	assert.InDelta(t, 3.0, buckets[0].AvgKWhPerInterval, 1e-9, "average excludes missing readings")

	// all readings missing: average guarded to zero
	assert.Equal(t, 1, buckets[1].MissingCount)
	assert.Zero(t, buckets[1].AvgKWhPerInterval)

	assert.Equal(t, 2, stats.MissingCount)
}

func TestAggregateDSTTransitionDetection(t *testing.T) {
	cfg := testConfig(t)

	// Build a day with 46 thirty-minute intervals ending 2024-10-06:
	// the spring-forward deficit.
	start := time.Date(2024, time.October, 6, 0, 0, 0, 0, timezone.Industry)
	var intervals []ClassifiedInterval
	for i := 1; i <= 46; i++ {
		intervals = append(intervals, classified(start.Add(time.Duration(i)*30*time.Minute), 1.0, "Peak", Weekend))
	}

	t.Run("observing state flags transition", func(t *testing.T) {
		agg := NewAggregator(cfg, timezone.NSW, nil)
		_, stats := agg.Aggregate(intervals, 30)
		require.Len(t, stats.Transitions, 1)
		assert.Equal(t, timezone.SpringForward, stats.Transitions[0].Type)
		assert.Equal(t, 46, stats.Transitions[0].Observed)
		assert.Equal(t, 48, stats.Transitions[0].Expected)
	})

	t.Run("non observing state stays quiet", func(t *testing.T) {
		agg := NewAggregator(cfg, timezone.QLD, nil)
		_, stats := agg.Aggregate(intervals, 30)
		assert.Empty(t, stats.Transitions)
	})

	t.Run("surplus is fall back", func(t *testing.T) {
		var surplus []ClassifiedInterval
		for i := 1; i <= 50; i++ {
			surplus = append(surplus, classified(start.Add(time.Duration(i)*30*time.Minute), 1.0, "Peak", Weekend))
		}
		agg := NewAggregator(cfg, timezone.NSW, nil)
		_, stats := agg.Aggregate(surplus, 30)
		require.Len(t, stats.Transitions, 1)
		assert.Equal(t, timezone.FallBack, stats.Transitions[0].Type)
	})
}

func TestAggregateMidnightEndBelongsToClosingDay(t *testing.T) {
	cfg := testConfig(t)
	agg := NewAggregator(cfg, timezone.QLD, nil)

	// A full 48-interval day: first reading ends 00:30, last ends
	// exactly at midnight of the next date. All 48 must count against
	// one day.
	start := time.Date(2024, time.June, 10, 0, 0, 0, 0, timezone.Industry)
	var intervals []ClassifiedInterval
	for i := 1; i <= 48; i++ {
		intervals = append(intervals, classified(start.Add(time.Duration(i)*30*time.Minute), 1.0, "Peak", Weekday))
	}

	_, stats := agg.Aggregate(intervals, 30)
	assert.Equal(t, 1, stats.TotalDays)
	assert.Empty(t, stats.Transitions, "a complete day is not a transition")
}

func TestAggregateDeterministic(t *testing.T) {
	cfg := testConfig(t)
	agg := NewAggregator(cfg, timezone.NSW, nil)

	base := time.Date(2024, time.June, 12, 8, 0, 0, 0, timezone.Industry)
	var intervals []ClassifiedInterval
	for i := 0; i < 200; i++ {
		period := []string{"Peak", "Off-peak", Unclassified}[i%3]
		intervals = append(intervals, classified(base.Add(time.Duration(i)*30*time.Minute), float64(i)*0.1, period, Weekday))
	}

	first, firstStats := agg.Aggregate(intervals, 30)
	second, secondStats := agg.Aggregate(intervals, 30)

	assert.Equal(t, first, second, "re-running aggregation must be bit-identical")
	assert.Equal(t, firstStats, secondStats)
}

func TestAggregateEmptyInput(t *testing.T) {
	cfg := testConfig(t)
	agg := NewAggregator(cfg, timezone.NSW, nil)

	buckets, stats := agg.Aggregate(nil, 30)
	require.Len(t, buckets, 3)
	for _, b := range buckets {
		assert.Zero(t, b.TotalKWh)
		assert.Zero(t, b.IntervalCount)
	}
	assert.Zero(t, stats.TotalIntervals)
	assert.Empty(t, stats.Transitions)
}

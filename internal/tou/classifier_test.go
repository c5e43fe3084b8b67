package tou

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nemcli/internal/holiday"
	"nemcli/internal/meterdata"
	"nemcli/internal/timezone"
)

func reading(ts time.Time, kwh float64) meterdata.IntervalReading {
	return meterdata.IntervalReading{
		TimestampIndustry: ts,
		MeterID:           "6001234567",
		Consumption:       &kwh,
		QualityMethod:     "A",
	}
}

func testConfig(t *testing.T) *Configuration {
	t.Helper()
	return &Configuration{Periods: []PeriodDefinition{
		{
			Name:          "Peak",
			WeekdayRanges: []TimeRange{mustRange(t, "07:00-21:00")},
		},
		{
			Name:          "Off-peak",
			WeekdayRanges: []TimeRange{mustRange(t, "21:00-07:00")},
			WeekendRanges: []TimeRange{mustRange(t, "00:00-00:00")},
			HolidayRanges: []TimeRange{mustRange(t, "00:00-00:00")},
		},
	}}
}

func TestClassifierAssignsPeriods(t *testing.T) {
	// Mid-June: NSW is on standard time, local equals industry time.
	// 2024-06-12 is a Wednesday.
	c, err := NewClassifier(testConfig(t), timezone.NSW, holiday.None{}, nil)
	require.NoError(t, err)

	ds := &meterdata.ParsedDataset{Readings: []meterdata.IntervalReading{
		reading(time.Date(2024, time.June, 12, 8, 0, 0, 0, timezone.Industry), 1.0),  // weekday morning
		reading(time.Date(2024, time.June, 12, 23, 30, 0, 0, timezone.Industry), 0.5), // weekday night
		reading(time.Date(2024, time.June, 15, 12, 0, 0, 0, timezone.Industry), 2.0), // Saturday midday
	}}

	out, stats := c.Classify(ds)
	require.Len(t, out, 3)

	assert.Equal(t, "Peak", out[0].PeriodName)
	assert.Equal(t, Weekday, out[0].DayType)
	assert.Equal(t, "Off-peak", out[1].PeriodName)
	assert.Equal(t, "Off-peak", out[2].PeriodName)
	assert.Equal(t, Weekend, out[2].DayType)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 0, stats.Unclassified)
}

func TestClassifierHolidayBeatsWeekend(t *testing.T) {
	// 2024-10-12 is a Saturday; declare it a holiday.
	saturday := time.Date(2024, time.October, 12, 0, 0, 0, 0, timezone.Industry)
	provider := holiday.NewStaticProvider(saturday)

	c, err := NewClassifier(testConfig(t), timezone.QLD, provider, nil)
	require.NoError(t, err)

	ds := &meterdata.ParsedDataset{Readings: []meterdata.IntervalReading{
		reading(time.Date(2024, time.October, 12, 10, 0, 0, 0, timezone.Industry), 1.0),
	}}

	out, _ := c.Classify(ds)
	require.Len(t, out, 1)
	assert.Equal(t, Holiday, out[0].DayType, "holiday has priority over weekend")
}

func TestClassifierUnclassifiedIsTerminal(t *testing.T) {
	cfg := &Configuration{Periods: []PeriodDefinition{
		{Name: "Peak", WeekdayRanges: []TimeRange{mustRange(t, "07:00-09:00")}},
	}}
	c, err := NewClassifier(cfg, timezone.QLD, holiday.None{}, nil)
	require.NoError(t, err)

	ds := &meterdata.ParsedDataset{Readings: []meterdata.IntervalReading{
		reading(time.Date(2024, time.June, 12, 8, 0, 0, 0, timezone.Industry), 1.0),
		reading(time.Date(2024, time.June, 12, 12, 0, 0, 0, timezone.Industry), 1.0),
		reading(time.Date(2024, time.June, 15, 8, 0, 0, 0, timezone.Industry), 1.0), // Saturday, no weekend ranges
	}}

	out, stats := c.Classify(ds)
	require.Len(t, out, 3)
	assert.Equal(t, "Peak", out[0].PeriodName)
	assert.Equal(t, Unclassified, out[1].PeriodName)
	assert.Equal(t, Unclassified, out[2].PeriodName)
	assert.Equal(t, 2, stats.Unclassified)
}

func TestClassifierFirstMatchWins(t *testing.T) {
	// Both periods cover 08:00 on weekdays; definition order decides.
	cfg := &Configuration{Periods: []PeriodDefinition{
		{Name: "Shoulder", WeekdayRanges: []TimeRange{mustRange(t, "06:00-10:00")}},
		{Name: "Peak", WeekdayRanges: []TimeRange{mustRange(t, "07:00-09:00")}},
	}}
	c, err := NewClassifier(cfg, timezone.QLD, holiday.None{}, nil)
	require.NoError(t, err)

	ds := &meterdata.ParsedDataset{Readings: []meterdata.IntervalReading{
		reading(time.Date(2024, time.June, 12, 8, 0, 0, 0, timezone.Industry), 1.0),
	}}

	out, _ := c.Classify(ds)
	assert.Equal(t, "Shoulder", out[0].PeriodName)
}

func TestClassifierUsesLocalTime(t *testing.T) {
	// January in NSW: local time is AEDT, one hour ahead of industry
	// time. An interval ending 20:30 industry is 21:30 local and falls
	// in Off-peak even though 20:30 is inside the Peak range.
	c, err := NewClassifier(testConfig(t), timezone.NSW, holiday.None{}, nil)
	require.NoError(t, err)

	ds := &meterdata.ParsedDataset{Readings: []meterdata.IntervalReading{
		reading(time.Date(2024, time.January, 10, 20, 30, 0, 0, timezone.Industry), 1.0),
	}}

	out, _ := c.Classify(ds)
	require.Len(t, out, 1)
	assert.Equal(t, "Off-peak", out[0].PeriodName)
	assert.Equal(t, "21:30", out[0].TimestampLocal.Format("15:04"))
}

func TestClassifierEstimateCounting(t *testing.T) {
	c, err := NewClassifier(testConfig(t), timezone.QLD, holiday.None{}, nil)
	require.NoError(t, err)

	est := reading(time.Date(2024, time.June, 12, 8, 0, 0, 0, timezone.Industry), 1.0)
	est.QualityMethod = "E64"
	est.IsEstimate = true

	ds := &meterdata.ParsedDataset{Readings: []meterdata.IntervalReading{
		est,
		reading(time.Date(2024, time.June, 12, 8, 30, 0, 0, timezone.Industry), 1.0),
	}}

	_, stats := c.Classify(ds)
	assert.Equal(t, 1, stats.Estimated)
}

func TestClassifierRejectsInvalidInput(t *testing.T) {
	_, err := NewClassifier(testConfig(t), timezone.State("ZZ"), holiday.None{}, nil)
	assert.Error(t, err)

	_, err = NewClassifier(&Configuration{}, timezone.NSW, holiday.None{}, nil)
	assert.Error(t, err)
}

func TestClassifierDoesNotMutateInput(t *testing.T) {
	c, err := NewClassifier(testConfig(t), timezone.QLD, holiday.None{}, nil)
	require.NoError(t, err)

	original := reading(time.Date(2024, time.June, 12, 8, 0, 0, 0, timezone.Industry), 1.0)
	ds := &meterdata.ParsedDataset{Readings: []meterdata.IntervalReading{original}}

	out, _ := c.Classify(ds)
	out[0].PeriodName = "mutated"
	out[0].QualityMethod = "X"

	assert.Equal(t, original, ds.Readings[0])
}

// Package meterdata parses interval meter data files (NEM12 and generic
// wide-format interval CSV) into a normalized dataset of interval
// readings stamped in industry time.
package meterdata

import (
	"sort"
	"time"

	apperrors "nemcli/internal/errors"
)

// Format identifies a recognized input file format
type Format string

const (
	FormatNEM12   Format = "nem12"
	FormatGeneric Format = "generic_interval"
	FormatUnknown Format = "unknown"
)

// IntervalReading is one metering sample. TimestampIndustry is the civil
// timestamp in fixed UTC+10 industry time and marks the exclusive end of
// the interval: a reading stamped 00:30 covers consumption from 00:00 to
// 00:30. Consumption is nil when the source value was blank or
// non-numeric; a missing reading is data, not an error.
type IntervalReading struct {
	TimestampIndustry time.Time
	MeterID           string
	RegisterID        string
	Consumption       *float64 // kWh
	QualityMethod     string
	IsEstimate        bool
}

// Missing reports whether the consumption value was absent in the source
func (r IntervalReading) Missing() bool {
	return r.Consumption == nil
}

// ParsedDataset is the normalized output of a parser: the ordered reading
// sequence plus header metadata. It is created once and not mutated by
// later pipeline stages.
type ParsedDataset struct {
	Readings []IntervalReading

	MeterID        string
	RegisterID     string
	MeterSerial    string
	UOM            string
	IntervalLength int // minutes: 5, 15 or 30
	MultipleMeters bool
	TotalDays      int

	Warnings apperrors.WarningList
}

// ExpectedIntervalsPerDay returns the interval count of a normal
// (non-DST-transition) day for the dataset's interval length
func (d *ParsedDataset) ExpectedIntervalsPerDay() int {
	if d.IntervalLength <= 0 {
		return 0
	}
	return 24 * 60 / d.IntervalLength
}

// TotalKWh sums all non-missing consumption values
func (d *ParsedDataset) TotalKWh() float64 {
	var total float64
	for _, r := range d.Readings {
		if r.Consumption != nil {
			total += *r.Consumption
		}
	}
	return total
}

// DateRange returns the first and last reading timestamps. The zero time
// is returned for an empty dataset.
func (d *ParsedDataset) DateRange() (time.Time, time.Time) {
	if len(d.Readings) == 0 {
		return time.Time{}, time.Time{}
	}
	return d.Readings[0].TimestampIndustry, d.Readings[len(d.Readings)-1].TimestampIndustry
}

// sortReadings orders readings by timestamp, preserving input order for
// equal timestamps
func sortReadings(readings []IntervalReading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].TimestampIndustry.Before(readings[j].TimestampIndustry)
	})
}

// validIntervalLength reports whether minutes is one of the supported
// interval lengths
func validIntervalLength(minutes int) bool {
	return minutes == 5 || minutes == 15 || minutes == 30
}

// isEstimateQuality reports whether a NEM quality method code marks an
// estimated or substituted reading. Codes may carry a method suffix
// (e.g. "E64", "S14"); the leading letter decides.
func isEstimateQuality(quality string) bool {
	if quality == "" {
		return false
	}
	switch quality[0] {
	case 'E', 'F', 'S', 'e', 'f', 's':
		return true
	default:
		return false
	}
}

package tou

import (
	"fmt"
	"log/slog"
	"time"

	"nemcli/internal/holiday"
	"nemcli/internal/meterdata"
	"nemcli/internal/timezone"
)

// Unclassified is the sentinel period name for intervals matching no
// configured period. It is a legitimate terminal classification, not an
// error.
const Unclassified = "Unclassified"

// ClassifiedInterval is an interval reading extended with its local
// timestamp, day type and assigned period.
type ClassifiedInterval struct {
	meterdata.IntervalReading

	TimestampLocal time.Time
	DayType        DayType
	PeriodName     string
}

// ClassifyStats are the counters accumulated during classification
type ClassifyStats struct {
	Total        int
	Unclassified int
	Estimated    int
	ByDayType    map[DayType]int
}

// Classifier assigns a day type and period to every interval of a
// dataset. It is a pure per-interval mapping: day type from the local
// calendar date (holiday > weekend > weekday), local time via the
// timezone resolver on the interval's end timestamp, then the first
// matching period in configuration order.
type Classifier struct {
	config   *Configuration
	state    timezone.State
	holidays holiday.Provider
	logger   *slog.Logger
}

// NewClassifier creates a classifier for a validated configuration and
// state. The holiday provider supplies the public-holiday capability;
// passing nil selects the built-in Australian calendar.
func NewClassifier(config *Configuration, state timezone.State, holidays holiday.Provider, logger *slog.Logger) (*Classifier, error) {
	if !timezone.Valid(state) {
		return nil, fmt.Errorf("unknown state code: %q", state)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if holidays == nil {
		holidays = holiday.NewCalendarProvider()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{
		config:   config,
		state:    state,
		holidays: holidays,
		logger:   logger,
	}, nil
}

// Classify maps every reading of the dataset to a ClassifiedInterval.
// The input dataset is not mutated; the output is one-to-one with the
// input readings.
func (c *Classifier) Classify(dataset *meterdata.ParsedDataset) ([]ClassifiedInterval, *ClassifyStats) {
	stats := &ClassifyStats{
		Total:     len(dataset.Readings),
		ByDayType: make(map[DayType]int, 3),
	}
	classified := make([]ClassifiedInterval, 0, len(dataset.Readings))

	for _, reading := range dataset.Readings {
		// state validity was checked at construction, the resolver
		// cannot fail here
		local, _ := timezone.ToLocal(reading.TimestampIndustry, c.state)

		dayType := c.dayType(local)
		periodName := c.periodFor(ClockOf(local), dayType)

		if periodName == Unclassified {
			stats.Unclassified++
		}
		if reading.IsEstimate {
			stats.Estimated++
		}
		stats.ByDayType[dayType]++

		classified = append(classified, ClassifiedInterval{
			IntervalReading: reading,
			TimestampLocal:  local,
			DayType:         dayType,
			PeriodName:      periodName,
		})
	}

	c.logger.Info("classified intervals",
		slog.String("state", string(c.state)),
		slog.Int("total", stats.Total),
		slog.Int("unclassified", stats.Unclassified),
		slog.Int("estimated", stats.Estimated))

	return classified, stats
}

// dayType classifies the local calendar date. Priority is strictly
// holiday > weekend > weekday: a holiday falling on a Saturday is a
// holiday.
func (c *Classifier) dayType(local time.Time) DayType {
	if c.holidays.IsHoliday(local, c.state) {
		return Holiday
	}
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return Weekend
	}
	return Weekday
}

// periodFor returns the first matching period name in configuration
// order, or Unclassified
func (c *Classifier) periodFor(t ClockTime, dayType DayType) string {
	for _, p := range c.config.Periods {
		if p.Matches(t, dayType) {
			return p.Name
		}
	}
	return Unclassified
}

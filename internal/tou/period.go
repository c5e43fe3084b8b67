// Package tou implements the time-of-use model: named periods made of
// time-of-day ranges per day type, interval classification against an
// ordered period configuration, and per-period aggregation.
package tou

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "nemcli/internal/errors"
)

// ClockTime is a time of day expressed as seconds since midnight.
type ClockTime int

// ParseClock parses "HH:MM" or "HH:MM:SS" (24-hour) into a ClockTime
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM or HH:MM:SS", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	second := 0
	if len(parts) == 3 {
		second, err = strconv.Atoi(parts[2])
		if err != nil || second < 0 || second > 59 {
			return 0, fmt.Errorf("invalid second in %q", s)
		}
	}

	return ClockTime(hour*3600 + minute*60 + second), nil
}

// ClockOf extracts the time of day from a timestamp
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// String formats the clock time as HH:MM
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/3600, int(c)%3600/60)
}

// Valid reports whether the value lies within a single day
func (c ClockTime) Valid() bool {
	return c >= 0 && c < 24*3600
}

// DayType classifies a local calendar date
type DayType string

const (
	Weekday DayType = "weekday"
	Weekend DayType = "weekend"
	Holiday DayType = "holiday"
)

// TimeRange is a half-open time-of-day range [Start, End). When Start is
// numerically greater than End the range wraps midnight (22:00-07:00
// covers late evening and early morning). Start == End is the full-day
// sentinel, not a zero-width range.
type TimeRange struct {
	Start ClockTime
	End   ClockTime
}

// ParseRange parses "HH:MM-HH:MM" into a TimeRange. En and em dashes are
// accepted as separators.
func ParseRange(s string) (TimeRange, error) {
	normalized := strings.NewReplacer("–", "-", "—", "-").Replace(s)
	parts := strings.Split(normalized, "-")
	if len(parts) != 2 {
		return TimeRange{}, fmt.Errorf("invalid range %q: expected START-END (e.g. 07:00-09:00)", s)
	}

	start, err := ParseClock(parts[0])
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	end, err := ParseClock(parts[1])
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid range %q: %w", s, err)
	}

	return TimeRange{Start: start, End: end}, nil
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t ClockTime) bool {
	switch {
	case r.Start == r.End:
		// full-day sentinel
		return true
	case r.Start < r.End:
		return t >= r.Start && t < r.End
	default:
		// wraps midnight
		return t >= r.Start || t < r.End
	}
}

// IsFullDay reports whether the range is the 24-hour sentinel
func (r TimeRange) IsFullDay() bool {
	return r.Start == r.End
}

// String formats the range as HH:MM-HH:MM
func (r TimeRange) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// PeriodDefinition is one named time-of-use period. Each day type carries
// its own ordered list of ranges; a day type with no ranges never matches.
type PeriodDefinition struct {
	Name          string
	WeekdayRanges []TimeRange
	WeekendRanges []TimeRange
	HolidayRanges []TimeRange
	PricePerKWh   *decimal.Decimal
}

// Ranges returns the range list applying to the given day type
func (p PeriodDefinition) Ranges(dayType DayType) []TimeRange {
	switch dayType {
	case Holiday:
		return p.HolidayRanges
	case Weekend:
		return p.WeekendRanges
	default:
		return p.WeekdayRanges
	}
}

// Matches reports whether t falls inside any of the period's ranges for
// the given day type
func (p PeriodDefinition) Matches(t ClockTime, dayType DayType) bool {
	for _, r := range p.Ranges(dayType) {
		if r.Contains(t) {
			return true
		}
	}
	return false
}

// Configuration is an ordered list of period definitions. Order encodes
// priority: the classifier assigns the first period that matches.
type Configuration struct {
	Periods []PeriodDefinition
}

// Validate checks structural well-formedness: at least one period, unique
// non-empty names, every period with at least one range, all clock values
// within a day and prices non-negative.
func (c *Configuration) Validate() error {
	if len(c.Periods) == 0 {
		return apperrors.NewConfigError("periods", "at least one period must be defined")
	}

	seen := make(map[string]bool, len(c.Periods))
	for i, p := range c.Periods {
		field := fmt.Sprintf("periods[%d]", i)

		if strings.TrimSpace(p.Name) == "" {
			return apperrors.NewConfigError(field+".name", "period name must not be empty")
		}
		if seen[p.Name] {
			return apperrors.NewConfigError(field+".name", fmt.Sprintf("duplicate period name %q", p.Name))
		}
		seen[p.Name] = true

		if len(p.WeekdayRanges)+len(p.WeekendRanges)+len(p.HolidayRanges) == 0 {
			return apperrors.NewConfigError(field, fmt.Sprintf("period %q has no time ranges", p.Name))
		}
		for _, ranges := range [][]TimeRange{p.WeekdayRanges, p.WeekendRanges, p.HolidayRanges} {
			for _, r := range ranges {
				if !r.Start.Valid() || !r.End.Valid() {
					return apperrors.NewConfigError(field, fmt.Sprintf("period %q has an out-of-day time range %s", p.Name, r))
				}
			}
		}
		if p.PricePerKWh != nil && p.PricePerKWh.IsNegative() {
			return apperrors.NewConfigError(field+".price_per_kwh",
				fmt.Sprintf("period %q has a negative price %s", p.Name, p.PricePerKWh))
		}
	}

	return nil
}

// PeriodNames returns the period names in configuration order
func (c *Configuration) PeriodNames() []string {
	names := make([]string, len(c.Periods))
	for i, p := range c.Periods {
		names[i] = p.Name
	}
	return names
}

// Find returns the period with the given name, or nil
func (c *Configuration) Find(name string) *PeriodDefinition {
	for i := range c.Periods {
		if c.Periods[i].Name == name {
			return &c.Periods[i]
		}
	}
	return nil
}

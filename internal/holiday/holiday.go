// Package holiday provides the public-holiday capability used for
// day-type classification. The default provider is backed by the
// rickar/cal Australian calendar; a static provider exists for callers
// that bring their own holiday data and for tests.
package holiday

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/au"

	"nemcli/internal/timezone"
)

// Provider answers whether a local calendar date is a public holiday in
// the given state.
type Provider interface {
	IsHoliday(date time.Time, state timezone.State) bool
}

// stateHolidays maps each state to its rickar/cal holiday definitions.
var stateHolidays = map[timezone.State][]*cal.Holiday{
	timezone.NSW: au.HolidaysNSW,
	timezone.VIC: au.HolidaysVIC,
	timezone.QLD: au.HolidaysQLD,
	timezone.SA:  au.HolidaysSA,
	timezone.WA:  au.HolidaysWA,
	timezone.TAS: au.HolidaysTAS,
	timezone.NT:  au.HolidaysNT,
	timezone.ACT: au.HolidaysACT,
}

// CalendarProvider is the default Provider, built on the rickar/cal
// Australian holiday definitions. Calendars are constructed lazily per
// state and reused across lookups.
type CalendarProvider struct {
	calendars map[timezone.State]*cal.Calendar
}

// NewCalendarProvider creates the default holiday provider
func NewCalendarProvider() *CalendarProvider {
	return &CalendarProvider{calendars: make(map[timezone.State]*cal.Calendar)}
}

// IsHoliday reports whether the date (its year/month/day in its own
// location) is an actual or observed public holiday in the state.
func (p *CalendarProvider) IsHoliday(date time.Time, state timezone.State) bool {
	c, ok := p.calendars[state]
	if !ok {
		c = &cal.Calendar{
			Name:      string(state),
			Holidays:  stateHolidays[state],
			Cacheable: true,
		}
		p.calendars[state] = c
	}

	actual, observed, _ := c.IsHoliday(date)
	return actual || observed
}

// StaticProvider answers from a fixed set of dates, ignoring the state.
type StaticProvider struct {
	dates map[string]bool
}

// NewStaticProvider creates a provider for an explicit list of holiday
// dates
func NewStaticProvider(dates ...time.Time) *StaticProvider {
	p := &StaticProvider{dates: make(map[string]bool, len(dates))}
	for _, d := range dates {
		p.dates[d.Format("2006-01-02")] = true
	}
	return p
}

// IsHoliday reports whether the date is in the configured set
func (p *StaticProvider) IsHoliday(date time.Time, _ timezone.State) bool {
	return p.dates[date.Format("2006-01-02")]
}

// None is a provider with no holidays at all.
type None struct{}

// IsHoliday always returns false
func (None) IsHoliday(time.Time, timezone.State) bool { return false }

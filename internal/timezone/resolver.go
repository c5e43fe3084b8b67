// Package timezone converts NEM industry time to Australian state-local
// civil time and detects daylight-saving irregularities in interval data.
//
// Industry time is the fixed UTC+10 clock used uniformly in NEM12 files
// regardless of the meter's state, with no daylight saving. Local time for
// a state is derived from the unambiguous industry-time instant: the
// state's standard offset is applied, plus one hour when the instant falls
// inside the Australian DST window (first Sunday of October 02:00 standard
// time through first Sunday of April 03:00 daylight time). DST is never
// inferred from local wall time, which is ambiguous at the fold.
package timezone

import (
	"fmt"
	"time"
)

// State is an Australian state or territory code
type State string

const (
	NSW State = "NSW"
	VIC State = "VIC"
	QLD State = "QLD"
	SA  State = "SA"
	WA  State = "WA"
	TAS State = "TAS"
	NT  State = "NT"
	ACT State = "ACT"
)

// Industry is the fixed UTC+10 zone NEM12 data is recorded in.
var Industry = time.FixedZone("AEST", 10*3600)

type stateInfo struct {
	stdOffset   int // seconds east of UTC
	stdName     string
	dstName     string
	observesDST bool
}

var states = map[State]stateInfo{
	NSW: {stdOffset: 10 * 3600, stdName: "AEST", dstName: "AEDT", observesDST: true},
	VIC: {stdOffset: 10 * 3600, stdName: "AEST", dstName: "AEDT", observesDST: true},
	QLD: {stdOffset: 10 * 3600, stdName: "AEST", dstName: "AEDT", observesDST: false},
	SA:  {stdOffset: 9*3600 + 1800, stdName: "ACST", dstName: "ACDT", observesDST: true},
	WA:  {stdOffset: 8 * 3600, stdName: "AWST", dstName: "AWDT", observesDST: false},
	TAS: {stdOffset: 10 * 3600, stdName: "AEST", dstName: "AEDT", observesDST: true},
	NT:  {stdOffset: 9*3600 + 1800, stdName: "ACST", dstName: "ACDT", observesDST: false},
	ACT: {stdOffset: 10 * 3600, stdName: "AEST", dstName: "AEDT", observesDST: true},
}

// Valid reports whether code names a known state or territory
func Valid(code State) bool {
	_, ok := states[code]
	return ok
}

// All returns the known state codes in fixed order
func All() []State {
	return []State{NSW, VIC, QLD, SA, WA, TAS, NT, ACT}
}

// ObservesDST reports whether the state observes daylight saving
func ObservesDST(state State) bool {
	return states[state].observesDST
}

// ToLocal converts an industry-time timestamp to the state's local civil
// time. The returned time is the same instant expressed in a fixed zone
// carrying the resolved offset and abbreviation (e.g. AEST or AEDT).
func ToLocal(tIndustry time.Time, state State) (time.Time, error) {
	info, ok := states[state]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown state code: %q", state)
	}

	offset := info.stdOffset
	name := info.stdName
	if info.observesDST && inDSTWindow(tIndustry, info) {
		offset += 3600
		name = info.dstName
	}

	return tIndustry.In(time.FixedZone(name, offset)), nil
}

// inDSTWindow reports whether the absolute instant falls inside the DST
// window for a state with the given standard offset. The comparison is
// done on the standard-time clock, where the window boundaries are
// unambiguous: DST starts at 02:00 standard time on the first Sunday of
// October and ends at 02:00 standard time (03:00 daylight) on the first
// Sunday of April.
func inDSTWindow(instant time.Time, info stateInfo) bool {
	std := time.FixedZone(info.stdName, info.stdOffset)
	lt := instant.In(std)

	switch {
	case lt.Month() >= time.October:
		return !lt.Before(dstStart(lt.Year(), std))
	case lt.Month() <= time.April:
		return lt.Before(dstEnd(lt.Year(), std))
	default:
		return false
	}
}

// dstStart returns 02:00 standard time on the first Sunday of October
func dstStart(year int, std *time.Location) time.Time {
	return firstSunday(year, time.October, std).Add(2 * time.Hour)
}

// dstEnd returns 02:00 standard time on the first Sunday of April
func dstEnd(year int, std *time.Location) time.Time {
	return firstSunday(year, time.April, std).Add(2 * time.Hour)
}

func firstSunday(year int, month time.Month, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	days := (7 - int(first.Weekday())) % 7
	return first.AddDate(0, 0, days)
}

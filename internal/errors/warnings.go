package errors

import (
	"fmt"
)

// WarningType classifies data quality warnings
type WarningType string

const (
	// WarnMalformedRecord marks an individual record that could not be
	// parsed and was skipped
	WarnMalformedRecord WarningType = "malformed_record"
	// WarnUnknownRecord marks a record with an unrecognized type indicator
	WarnUnknownRecord WarningType = "unknown_record"
	// WarnMissingReading marks an interval whose consumption value was
	// blank or non-numeric
	WarnMissingReading WarningType = "missing_reading"
	// WarnSecondaryMeter marks a meter identifier that was skipped because
	// another meter was already selected as primary
	WarnSecondaryMeter WarningType = "secondary_meter"
	// WarnDSTTransition marks a day whose interval count indicates a
	// daylight-saving transition
	WarnDSTTransition WarningType = "dst_transition"
	// WarnEstimatedData marks a dataset containing estimated or
	// substituted readings
	WarnEstimatedData WarningType = "estimated_data"
	// WarnUnclassified marks intervals that matched no configured period
	WarnUnclassified WarningType = "unclassified"
)

// Warning is a non-fatal data quality finding. Warnings are accumulated
// during a run and reported next to the results; they never abort
// processing.
type Warning struct {
	Type    WarningType `json:"type"`
	Message string      `json:"message"`
	Line    int         `json:"line,omitempty"`
}

// String formats the warning for logs and console output
func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s", w.Type, w.Line, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Type, w.Message)
}

// WarningList accumulates warnings in the order they were found
type WarningList []Warning

// Add appends a warning
func (l *WarningList) Add(t WarningType, message string) {
	*l = append(*l, Warning{Type: t, Message: message})
}

// AddAt appends a warning tied to an input line number
func (l *WarningList) AddAt(t WarningType, line int, message string) {
	*l = append(*l, Warning{Type: t, Line: line, Message: message})
}

// Merge appends all warnings from another list
func (l *WarningList) Merge(other WarningList) {
	*l = append(*l, other...)
}

// Count returns the number of warnings of the given type
func (l WarningList) Count(t WarningType) int {
	n := 0
	for _, w := range l {
		if w.Type == t {
			n++
		}
	}
	return n
}

// Summary returns warning counts keyed by type, for the end-of-run report
func (l WarningList) Summary() map[WarningType]int {
	summary := make(map[WarningType]int)
	for _, w := range l {
		summary[w.Type]++
	}
	return summary
}

package timezone

import (
	"fmt"
	"time"
)

// TransitionType classifies a detected DST transition
type TransitionType string

const (
	// SpringForward is the October transition: one local hour is skipped,
	// leaving the day short of intervals
	SpringForward TransitionType = "spring_forward"
	// FallBack is the April transition: one local hour repeats, leaving
	// the day with surplus intervals
	FallBack TransitionType = "fall_back"
)

// TransitionInfo describes a day whose interval count deviates from the
// expected count in a way consistent with a DST transition.
type TransitionInfo struct {
	Date     time.Time      `json:"date"`
	State    State          `json:"state"`
	Observed int            `json:"observed"`
	Expected int            `json:"expected"`
	Type     TransitionType `json:"type"`
}

// String formats the transition for warnings and logs
func (t TransitionInfo) String() string {
	return fmt.Sprintf("%s on %s: %d intervals observed, %d expected (%s)",
		t.Type, t.Date.Format("2006-01-02"), t.Observed, t.Expected, t.State)
}

// DetectTransition classifies an anomalous daily interval count as a DST
// transition. It returns nil when the count matches the expectation or the
// state does not observe daylight saving. Detection is advisory: callers
// record it as a warning and keep processing every interval.
func DetectTransition(date time.Time, state State, observed, expected int) *TransitionInfo {
	info, ok := states[state]
	if !ok || !info.observesDST {
		return nil
	}
	if observed == expected {
		return nil
	}

	transitionType := FallBack
	if observed < expected {
		transitionType = SpringForward
	}

	return &TransitionInfo{
		Date:     date,
		State:    state,
		Observed: observed,
		Expected: expected,
		Type:     transitionType,
	}
}

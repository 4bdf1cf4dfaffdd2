package axis

import (
	"fmt"
	"time"
)

// limitingContinuation is the LIMITING activity: a slow bidirectional
// drive against both switches, polling until both are found or timeout.
type limitingContinuation struct {
	rec      *Record
	deadline time.Time
}

// StartLimiting issues the limit-search script. Per the Open Question
// noted in spec §9, the limit search clears is_homed on entry and does not
// restore it when the search completes; callers that need a combined home+limit cycle should re-run StartHoming
// afterwards rather than assume limit-finding preserves it.
func StartLimiting(rec *Record, timeout time.Duration) (Continuation, error) {
	if err := rec.Control.Write("limits"); err != nil {
		return nil, fmt.Errorf("axis %s: start limit search: %w", rec.ID, err)
	}
	rec.Limiting = true
	rec.IsHomed = false
	return &limitingContinuation{rec: rec, deadline: time.Now().Add(timeout)}, nil
}

func (l *limitingContinuation) State() State { return Limiting }

func (l *limitingContinuation) Poll(tick Tick) (Outcome, string) {
	rec := l.rec
	neg, err := rec.Status.ReadInt("=neglimfound")
	if err != nil {
		rec.Limiting = false
		return Failed, fmt.Sprintf("axis %s: limit search status read failed: %v", rec.ID, err)
	}
	pos, err := rec.Status.ReadInt("=poslimfound")
	if err != nil {
		rec.Limiting = false
		return Failed, fmt.Sprintf("axis %s: limit search status read failed: %v", rec.ID, err)
	}
	if neg != 0 && pos != 0 {
		rec.Limiting = false
		rec.HaveLimits = true
		return Done, fmt.Sprintf("0 axis %s: both limits found", rec.ID)
	}
	if tick.Now.After(l.deadline) {
		rec.Limiting = false
		return Failed, fmt.Sprintf("axis %s: limit search timed out", rec.ID)
	}
	return Continue, ""
}

package axis

import (
	"fmt"
	"time"
)

// homingContinuation is the HOMING activity: a home-search script has been
// issued on the node and this polls for the node reporting =homed.
type homingContinuation struct {
	rec      *Record
	deadline time.Time
}

// StartHoming issues the home-search script and returns its continuation.
// timeout bounds how long the search may run before being declared lost
// (spec §7's Homing error kind: "timeout or switch never triggered").
func StartHoming(rec *Record, timeout time.Duration) (Continuation, error) {
	if err := rec.Control.Write("home"); err != nil {
		return nil, fmt.Errorf("axis %s: start homing: %w", rec.ID, err)
	}
	rec.IsHomed = false
	rec.Homing = true
	return &homingContinuation{rec: rec, deadline: time.Now().Add(timeout)}, nil
}

func (h *homingContinuation) State() State { return Homing }

func (h *homingContinuation) Poll(tick Tick) (Outcome, string) {
	rec := h.rec
	homed, err := rec.Status.ReadInt("=homed")
	if err != nil {
		rec.Homing = false
		return Failed, fmt.Sprintf("axis %s: homing status read failed: %v", rec.ID, err)
	}
	if homed != 0 {
		rec.Homing = false
		rec.IsHomed = true
		if err := rec.RefreshPosition(); err != nil {
			return Failed, err.Error()
		}
		return Done, fmt.Sprintf("0 axis %s homed", rec.ID)
	}
	if tick.Now.After(h.deadline) {
		rec.Homing = false
		rec.IsHomed = false
		return Failed, fmt.Sprintf("axis %s: homing timed out", rec.ID)
	}
	return Continue, ""
}

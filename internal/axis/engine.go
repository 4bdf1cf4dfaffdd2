package axis

import "fmt"

// Engine owns at most one active Continuation per axis, matching spec
// §9's "there is never more than one active activity per subsystem."
type Engine struct {
	Rec     *Record
	current Continuation
}

// NewEngine returns an Engine in IDLE for rec.
func NewEngine(rec *Record) *Engine { return &Engine{Rec: rec} }

// State reports the axis's current activity state.
func (e *Engine) State() State {
	if e.current == nil {
		return Idle
	}
	return e.current.State()
}

// Active reports whether an activity is in progress.
func (e *Engine) Active() bool { return e.current != nil }

// Begin installs a new continuation. Per spec §5, a fresh command aborts
// whatever is running first; callers that need the motor physically
// stopped should call Stop instead, which both halts the node and clears
// the continuation.
func (e *Engine) Begin(c Continuation) {
	e.current = c
}

// Poll advances the active continuation by one tick. When outcome is Done
// or Failed, the continuation has already terminated and is cleared;
// Engine goes back to IDLE until the caller installs a new one (for
// Failed from TRACKING specifically, the caller is expected to install a
// fresh huntingContinuation via StartHunting, demoting rather than
// abandoning the axis).
func (e *Engine) Poll(tick Tick) (outcome Outcome, msg string) {
	if e.current == nil {
		return Done, ""
	}
	outcome, msg = e.current.Poll(tick)
	if outcome != Continue {
		e.current = nil
	}
	return outcome, msg
}

// Stop issues a polite (slim_acc-bounded deceleration) or fast (panic
// script plus interrupt) stop per spec §5, and clears any activity.
func (e *Engine) Stop(fast bool) error {
	if fast {
		if err := e.Rec.Control.Interrupt(); err != nil {
			return fmt.Errorf("axis %s: interrupt: %w", e.Rec.ID, err)
		}
		if err := e.Rec.Control.Write("pstop"); err != nil {
			return fmt.Errorf("axis %s: panic stop: %w", e.Rec.ID, err)
		}
	} else if err := e.Rec.Control.Write("stop"); err != nil {
		return fmt.Errorf("axis %s: stop: %w", e.Rec.ID, err)
	}
	e.current = nil
	e.Rec.Homing = false
	e.Rec.Limiting = false
	return nil
}

// StoppedComplete reports whether the controller confirms the axis has
// actually come to rest, per spec §5: "axis stop is considered complete
// when the controller reports =mvel = 0."
func (e *Engine) StoppedComplete() (bool, error) {
	vel, err := e.Rec.ReadVelocityCountsPerSec()
	if err != nil {
		return false, err
	}
	return vel == 0, nil
}

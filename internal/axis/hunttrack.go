package axis

import (
	"fmt"
	"time"
)

// TargetFunc reports whether an axis is currently within tolerance of its
// live (possibly moving) target. The tracking engine (C4) supplies the
// concrete predicate, since what "on target" means depends on the loaded
// trajectory; C3 only knows how to turn that predicate into a state.
type TargetFunc func() (onTarget bool, err error)

// huntingContinuation is the HUNTING activity: a trajectory has been
// loaded and this polls atTarget() until it holds stable for one second,
// at which point the caller promotes the axis to TRACKING.
type huntingContinuation struct {
	rec         *Record
	atTarget    TargetFunc
	stable      bool
	stableSince time.Time
}

// StartHunting begins HUNTING once a trajectory has already been loaded
// onto the node by the tracking engine.
func StartHunting(rec *Record, atTarget TargetFunc) Continuation {
	return &huntingContinuation{rec: rec, atTarget: atTarget}
}

func (h *huntingContinuation) State() State { return Hunting }

func (h *huntingContinuation) Poll(tick Tick) (Outcome, string) {
	if err := h.rec.RefreshPosition(); err != nil {
		return Failed, err.Error()
	}
	if ok, msg := axisLimitCheck(h.rec); !ok {
		return Failed, msg
	}

	onTarget, err := h.atTarget()
	if err != nil {
		return Failed, fmt.Sprintf("axis %s: trajectory refresh failed: %v", h.rec.ID, err)
	}
	if !onTarget {
		h.stable = false
		return Continue, ""
	}
	if !h.stable {
		h.stable = true
		h.stableSince = tick.Now
		return Continue, ""
	}
	if tick.Now.Sub(h.stableSince) >= time.Second {
		return Done, fmt.Sprintf("0 axis %s on target", h.rec.ID)
	}
	return Continue, ""
}

// trackingContinuation is the TRACKING activity. Per spec §4.3 it has no
// terminal success code: it simply continues for as long as onTarget()
// holds every poll. A false reading demotes to HUNTING, which Engine
// reports as Failed so the caller (the tracking engine) knows to rebuild a
// huntingContinuation rather than abandon the axis.
type trackingContinuation struct {
	rec      *Record
	onTarget TargetFunc
}

// StartTracking promotes an axis that has just stabilised out of HUNTING.
func StartTracking(rec *Record, onTarget TargetFunc) Continuation {
	return &trackingContinuation{rec: rec, onTarget: onTarget}
}

func (t *trackingContinuation) State() State { return Tracking }

func (t *trackingContinuation) Poll(tick Tick) (Outcome, string) {
	if err := t.rec.RefreshPosition(); err != nil {
		return Failed, err.Error()
	}
	if ok, msg := axisLimitCheck(t.rec); !ok {
		return Failed, msg
	}

	onTarget, err := t.onTarget()
	if err != nil {
		return Failed, fmt.Sprintf("axis %s: tracking check failed: %v", t.rec.ID, err)
	}
	if !onTarget {
		return Failed, fmt.Sprintf("axis %s: drifted off target, demoting to hunting", t.rec.ID)
	}
	return Continue, ""
}

package axis

import (
	"fmt"
	"time"
)

// DirectionSign decodes one jog direction character (N/n/S/s/E/e/W/w/0)
// into a sign and rate class. Uppercase is coarse, lowercase is fine; '0'
// requests a stop. Which Record (HA vs Dec) a given N/S or E/W pairing
// drives depends on mount geometry, so axis selection is left to the
// dispatcher (C5); this only resolves sign and rate class.
func DirectionSign(code byte) (sign int, coarse bool, stop bool, ok bool) {
	switch code {
	case 'N':
		return 1, true, false, true
	case 'n':
		return 1, false, false, true
	case 'S':
		return -1, true, false, true
	case 's':
		return -1, false, false, true
	case 'E':
		return 1, true, false, true
	case 'e':
		return 1, false, false, true
	case 'W':
		return -1, true, false, true
	case 'w':
		return -1, false, false, true
	case '0':
		return 0, false, true, true
	default:
		return 0, false, false, false
	}
}

// jogContinuation is the SLEWING activity used while jogging outside of
// tracking: it runs at a constant commanded velocity until the dispatcher
// cancels it (a jog key-up issues a stop, which Engine.Stop handles).
type jogContinuation struct {
	rec   *Record
	guard motionGuard
}

// StartJogVelocity issues a constant velocity command and transitions the
// axis to SLEWING, per spec §4.3: "outside tracking, jog applies a direct
// velocity and transitions the axis to SLEWING".
func StartJogVelocity(rec *Record, velCountsPerSec float64) (Continuation, error) {
	if err := rec.Control.Write(fmt.Sprintf("mtvel=%g", velCountsPerSec)); err != nil {
		return nil, fmt.Errorf("axis %s: jog velocity: %w", rec.ID, err)
	}
	return &jogContinuation{rec: rec}, nil
}

func (j *jogContinuation) State() State { return Slewing }

func (j *jogContinuation) Poll(tick Tick) (Outcome, string) {
	rec := j.rec
	if err := rec.RefreshPosition(); err != nil {
		return Failed, err.Error()
	}
	vel, err := rec.ReadVelocityCountsPerSec()
	if err != nil {
		return Failed, err.Error()
	}
	if ok, msg := axisLimitCheck(rec); !ok {
		return Failed, msg
	}
	if ok, msg := j.guard.check(rec, vel, tick.Now); !ok {
		return Failed, msg
	}
	return Continue, ""
}

// JogTrackingOffset applies a jog while TRACKING by pushing a constant
// step-rate into the node's toffset accumulator over the given duration
// instead of interrupting the loaded trajectory (spec §4.3).
func JogTrackingOffset(rec *Record, countsPerSec float64, dur time.Duration) error {
	steps := countsPerSec * dur.Seconds()
	return rec.Control.Write(fmt.Sprintf("toffset+=%g", steps))
}

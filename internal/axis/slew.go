package axis

import (
	"fmt"
	"math"
	"time"
)

// slewContinuation is the SLEWING activity: a motor target has been
// issued and this polls until the axis arrives and holds for one second
// (spec §4.3's acquisition-plus-stability gate), or is declared stuck.
type slewContinuation struct {
	rec        *Record
	goalRaw    int
	acquireAcc float64 // raw counts
	guard      motionGuard

	haveStableErr bool
	stableErr     float64
	stableSince   time.Time
	acquireDelt   float64
}

// StartSlew issues mtpos and returns the SLEWING continuation. acquireAcc
// is in raw counts (use rec.EffectiveAcquireAcc(0) for the 1.5-step
// default); acquireDelt is the maximum permitted drift in the residual
// error over a one-second window while considered "arrived but settling".
func StartSlew(rec *Record, goalRaw int, acquireAcc, acquireDelt float64) (Continuation, error) {
	if err := rec.Control.Write(fmt.Sprintf("mtpos=%d", goalRaw)); err != nil {
		return nil, fmt.Errorf("axis %s: start slew: %w", rec.ID, err)
	}
	return &slewContinuation{rec: rec, goalRaw: goalRaw, acquireAcc: acquireAcc, acquireDelt: acquireDelt}, nil
}

func (s *slewContinuation) State() State { return Slewing }

func (s *slewContinuation) Poll(tick Tick) (Outcome, string) {
	rec := s.rec
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
	if ok, msg := s.guard.check(rec, vel, tick.Now); !ok {
		return Failed, msg
	}

	errCounts := math.Abs(float64(s.goalRaw - rec.Raw))
	if errCounts > s.acquireAcc {
		s.haveStableErr = false
		return Continue, ""
	}

	if !s.haveStableErr {
		s.haveStableErr = true
		s.stableErr = errCounts
		s.stableSince = tick.Now
		return Continue, ""
	}
	if math.Abs(errCounts-s.stableErr) > s.acquireDelt {
		s.stableErr = errCounts
		s.stableSince = tick.Now
		return Continue, ""
	}
	if tick.Now.Sub(s.stableSince) >= time.Second {
		return Done, fmt.Sprintf("0 axis %s arrived", rec.ID)
	}
	return Continue, ""
}

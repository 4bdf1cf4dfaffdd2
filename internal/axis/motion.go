package axis

import (
	"fmt"
	"time"
)

// motionGuard is the per-activity bookkeeping behind axisMotionCheck: spec
// §9 calls for promoting the source's per-function static locals (the last
// observed raw count, the time progress was last seen) into the record of
// the owning activity rather than leaving them as hidden global state.
type motionGuard struct {
	haveLastRaw  bool
	lastRaw      int
	lastProgress time.Time
}

// stuckGrace is how long a reported-moving axis may show no counter
// progress before axisMotionCheck calls it stuck.
const stuckGrace = 2 * time.Second

// check implements axisMotionCheck: position must progress at a rate
// consistent with the controller's reported mtvel. A non-zero velocity
// with no counter movement for longer than stuckGrace is a stuck axis.
func (g *motionGuard) check(rec *Record, vel float64, now time.Time) (ok bool, msg string) {
	if !g.haveLastRaw {
		g.haveLastRaw = true
		g.lastRaw = rec.Raw
		g.lastProgress = now
		return true, ""
	}
	if rec.Raw != g.lastRaw {
		g.lastRaw = rec.Raw
		g.lastProgress = now
		return true, ""
	}
	if vel != 0 && now.Sub(g.lastProgress) > stuckGrace {
		return false, fmt.Sprintf("axis %s: no progress despite mtvel=%.1f, stopping", rec.ID, vel)
	}
	return true, ""
}

// axisLimitCheck implements the soft-limit half of the stuck/limit guard:
// the cooked position must stay strictly inside [neg_lim, pos_lim].
func axisLimitCheck(rec *Record) (ok bool, msg string) {
	if !rec.HaveLimits {
		return true, ""
	}
	if rec.CPos <= rec.NegLim || rec.CPos >= rec.PosLim {
		return false, fmt.Sprintf("axis %s: position %.6f rad outside soft limits [%.6f, %.6f]",
			rec.ID, rec.CPos, rec.NegLim, rec.PosLim)
	}
	return true, ""
}

package tracking

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// driftHistorySize bounds the rolling window DriftStats keeps, enough to
// see a trend developing well ahead of the hard MaxJitter cutoff.
const driftHistorySize = 32

// DriftStats tracks a rolling window of host/controller clock-drift
// samples so an operator can see drift trending toward MaxJitter before
// it trips, rather than only learning about it from the fatal error.
type DriftStats struct {
	samples []float64 // seconds, most recent last
}

// Record appends one drift sample, discarding the oldest once the window
// is full.
func (d *DriftStats) Record(drift time.Duration) {
	d.samples = append(d.samples, drift.Seconds())
	if len(d.samples) > driftHistorySize {
		d.samples = d.samples[len(d.samples)-driftHistorySize:]
	}
}

// MeanStdDev returns the rolling window's mean and standard deviation, in
// seconds. Both are zero until at least two samples have been recorded.
func (d *DriftStats) MeanStdDev() (mean, stddev float64) {
	if len(d.samples) < 2 {
		return 0, 0
	}
	return stat.MeanStdDev(d.samples, nil)
}

// SecondsPerDay is used to convert a controller clock's millisecond
// reading into the fractional-day units MJD arithmetic uses.
const SecondsPerDay = 86400.0

// MaxJitter is the clock-drift alarm threshold of spec §4.4/§8 scenario 5.
const MaxJitter = 10 * time.Second

// ClockSync records the host MJD at the instant a profile's controller
// clocks were last zeroed (the `strack` record of spec §4.4), used both to
// compute desired position from the controller's own clock and to detect
// drift between host and controller time.
type ClockSync struct {
	StrackMJD float64
	StartedAt time.Time
}

// NewClockSync zeroes the bookkeeping at the instant a profile download
// begins. hostMJD is the caller-supplied host modified Julian date (the
// ephemeris/time library itself is out of scope, spec §1).
func NewClockSync(hostMJD float64, now time.Time) ClockSync {
	return ClockSync{StrackMJD: hostMJD, StartedAt: now}
}

// DemandTime converts a controller-clock reading (milliseconds since the
// last zeroing) into the MJD instant the profile demands the axis be at,
// removing host-time jitter from the axis demand per spec §4.4.
func (c ClockSync) DemandTime(controllerClockMs int64) float64 {
	return c.StrackMJD + float64(controllerClockMs)/1000.0/SecondsPerDay
}

// Drift reports how far host time has diverged from the controller's
// reported clock, per spec §4.4/§8 invariant: drift must stay below
// MaxJitter or the current track is fatal.
func Drift(hostMJD float64, c ClockSync, controllerClockMs int64) time.Duration {
	demand := c.DemandTime(controllerClockMs)
	deltaDays := hostMJD - demand
	return time.Duration(deltaDays * SecondsPerDay * float64(time.Second))
}

// CheckDrift returns an error when the magnitude of Drift exceeds
// MaxJitter, the fatal condition of spec §8 boundary scenario 5.
func CheckDrift(hostMJD float64, c ClockSync, controllerClockMs int64) error {
	d := Drift(hostMJD, c, controllerClockMs)
	if d < 0 {
		d = -d
	}
	if d > MaxJitter {
		return fmt.Errorf("tracking: motion controller clock drift exceeds %s", MaxJitter)
	}
	return nil
}

// NeedsRefresh reports whether the profile must be rebuilt: either this is
// the first call for a new track (c is the zero value), or host time has
// advanced past strack + trackInt (spec §4.4's Refresh rule).
func NeedsRefresh(c ClockSync, now time.Time, trackInt time.Duration) bool {
	if c.StartedAt.IsZero() {
		return true
	}
	return now.After(c.StartedAt.Add(trackInt))
}

// ProfileIndex returns the index of the sample an n-sample profile demands
// at "now", given the instant the profile was loaded and downloaded
// (c.StartedAt) and the span it covers (trackInt). The profile is sampled
// uniformly at trackInt/n intervals (spec §4.4); the index is clamped to the
// last sample once the elapsed time reaches the profile's span, which
// NeedsRefresh treats as due for a rebuild.
func ProfileIndex(c ClockSync, now time.Time, trackInt time.Duration, n int) int {
	if n <= 0 {
		return 0
	}
	elapsed := now.Sub(c.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	idx := int(float64(elapsed) / float64(trackInt) * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

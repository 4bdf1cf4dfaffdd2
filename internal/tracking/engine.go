package tracking

import (
	"fmt"
	"math"
	"time"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
	"github.com/rockit-astro/superwasp-talon/internal/mountmodel"
	"github.com/rockit-astro/superwasp-talon/internal/tlog"
)

// AxisTarget pairs one axis engine with the function that extracts its
// coordinate out of a Sample, so Engine can drive an arbitrary subset of
// (HA, Dec, Rotator) axes without hard-coding which is which.
type AxisTarget struct {
	Eng        *axis.Engine
	HasEncoder bool
	EStep      int
	ESign      int
	Coord      func(Sample) float64

	// Rasterable marks an axis as eligible for the raster-mode overlay
	// (spec §13 supplement): only HA and Dec carry the small back-and-forth
	// scan pattern during an exposure, never the rotator.
	Rasterable bool
}

// Engine drives multi-axis pursuit of a moving target: profile
// construction and download, clock synchronisation, drift monitoring, and
// the HUNTING/TRACKING promotion/demotion that axis.Continuation defers
// to a TargetFunc.
type Engine struct {
	Axes     mountmodel.Axes
	Mesh     *mountmodel.MeshTable
	TrackInt time.Duration
	N        int
	TrackAcc float64 // mount-frame radians

	targets []AxisTarget

	sync    ClockSync
	current []Sample

	Raster         RasterState
	lastRasterStep time.Time

	Drift DriftStats
}

// NewEngine returns a tracking engine for the given axis targets.
func NewEngine(axes mountmodel.Axes, mesh *mountmodel.MeshTable, trackInt time.Duration, n int, trackAcc float64, targets []AxisTarget) *Engine {
	return &Engine{Axes: axes, Mesh: mesh, TrackInt: trackInt, N: n, TrackAcc: trackAcc, targets: targets}
}

// Start builds the first profile for a new track, downloads it to every
// configured axis, zeroes each controller's clock, and begins HUNTING on
// every axis. hostMJD is the host time at this instant.
func (e *Engine) Start(eph Ephemeris, hostMJD float64, t0 float64, parallactic func(ha, dec float64) float64) error {
	if err := e.refresh(eph, t0, parallactic); err != nil {
		return err
	}
	for _, tgt := range e.targets {
		if err := tgt.Eng.Rec.Control.Write("clock=0"); err != nil {
			return fmt.Errorf("tracking: zero controller clock: %w", err)
		}
	}
	e.sync = NewClockSync(hostMJD, time.Now())
	for _, tgt := range e.targets {
		tgt.Eng.Begin(axis.StartHunting(tgt.Eng.Rec, e.onTargetFunc(tgt)))
	}
	return nil
}

// refresh builds a new profile and downloads it to every axis, per spec
// §4.4's Profile construction step.
func (e *Engine) refresh(eph Ephemeris, t0 float64, parallactic func(ha, dec float64) float64) error {
	samples, intervalMs, err := BuildProfile(e.Axes, e.Mesh, eph, t0, e.TrackInt.Seconds(), e.N, parallactic)
	if err != nil {
		return err
	}
	for _, tgt := range e.targets {
		cmd := EncodeCommand(tgt.HasEncoder, intervalMs, samples, tgt.Coord)
		if err := tgt.Eng.Rec.Control.Write(cmd); err != nil {
			return fmt.Errorf("tracking: download profile: %w", err)
		}
	}
	e.current = samples
	return nil
}

// Poll advances the tracking engine by one tick: checks clock drift,
// refreshes the profile if due, and polls each axis's HUNTING/TRACKING
// continuation, promoting any axis that just stabilised out of HUNTING.
// eph/t0/parallactic are only used if a refresh is due.
func (e *Engine) Poll(now time.Time, hostMJD float64, eph Ephemeris, t0 float64, parallactic func(ha, dec float64) float64) error {
	for _, tgt := range e.targets {
		clockMs, err := tgt.Eng.Rec.Status.ReadInt("=clock")
		if err != nil {
			return fmt.Errorf("tracking: read controller clock: %w", err)
		}
		e.Drift.Record(Drift(hostMJD, e.sync, int64(clockMs)))
		if err := CheckDrift(hostMJD, e.sync, int64(clockMs)); err != nil {
			if mean, stddev := e.Drift.MeanStdDev(); stddev > 0 {
				tlog.Logf("tracking: axis %s: drift trend mean=%.3fs stddev=%.3fs before fatal", tgt.Eng.Rec.ID, mean, stddev)
			}
			return err
		}
	}

	if NeedsRefresh(e.sync, now, e.TrackInt) {
		if err := e.refresh(eph, t0, parallactic); err != nil {
			return err
		}
		for _, tgt := range e.targets {
			if err := tgt.Eng.Rec.Control.Write("clock=0"); err != nil {
				return fmt.Errorf("tracking: zero controller clock: %w", err)
			}
		}
		e.sync = NewClockSync(hostMJD, now)
	}

	for _, tgt := range e.targets {
		prevState := tgt.Eng.State()
		outcome, msg := tgt.Eng.Poll(axis.Tick{Now: now})
		switch outcome {
		case axis.Done:
			// Only HUNTING has a terminal success in spec §4.3; promote.
			tgt.Eng.Begin(axis.StartTracking(tgt.Eng.Rec, e.onTargetFunc(tgt)))
		case axis.Failed:
			if prevState == axis.Tracking {
				// TRACKING's "exit -1" is a demotion, not a fault.
				tgt.Eng.Begin(axis.StartHunting(tgt.Eng.Rec, e.onTargetFunc(tgt)))
				continue
			}
			return fmt.Errorf("tracking: axis %s: %s", tgt.Eng.Rec.ID, msg)
		}
	}
	return nil
}

// onTargetFunc builds the TargetFunc axis.StartHunting/StartTracking need:
// true when the axis's cooked position is within TrackAcc of the current
// profile's commanded value at "now" (the profile sample at or before the
// controller clock's elapsed time since it was last zeroed, since the
// controller itself interpolates continuously between samples).
func (e *Engine) onTargetFunc(tgt AxisTarget) axis.TargetFunc {
	return func() (bool, error) {
		if len(e.current) == 0 {
			return false, nil
		}
		if err := tgt.Eng.Rec.RefreshPosition(); err != nil {
			return false, err
		}
		clockMs, err := tgt.Eng.Rec.Status.ReadInt("=clock")
		if err != nil {
			return false, err
		}
		idx := ProfileIndex(e.sync, e.sync.StartedAt.Add(time.Duration(clockMs)*time.Millisecond), e.TrackInt, len(e.current))
		want := tgt.Coord(e.current[idx])
		tgt.Eng.Rec.DPos = want
		return math.Abs(tgt.Eng.Rec.CPos-want) <= e.TrackAcc, nil
	}
}

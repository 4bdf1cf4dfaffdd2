package dispatcher

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
	"github.com/rockit-astro/superwasp-talon/internal/axistransport"
	"github.com/rockit-astro/superwasp-talon/internal/mountmodel"
	"github.com/rockit-astro/superwasp-talon/internal/telstate"
	"github.com/rockit-astro/superwasp-talon/internal/tlog"
	"github.com/rockit-astro/superwasp-talon/internal/tracking"
)

// Ephemeris-adjacent target resolution is explicitly out of scope (spec
// §1: "only their signatures are named"). TargetResolver is the seam the
// real observatory's ephemeris library (obj_cir, aa_hadec, precession)
// plugs into; callers in this repository supply their own implementation
// or the internal/resolver.Fixed stub for virtual-mode testing.
type TargetResolver interface {
	// Apparent returns an Ephemeris producing the target's apparent
	// (HA, Dec) at time t seconds from now, for a fixed/apparent-place
	// target at the given equinox (hasEpoch false means EOD/apparent).
	Apparent(ra, dec, epoch float64, hasEpoch bool) (tracking.Ephemeris, error)
	// DBLine returns an Ephemeris for an xephem-format catalogue line.
	DBLine(line string) (tracking.Ephemeris, error)
}

// JogConfig holds the per-rate-class jog velocities of spec §4.3/§6:
// FGUIDEVEL/CGUIDEVEL (rad/s) apply during TRACKING via toffset; the
// plain motor jog velocities apply outside tracking via mtvel.
type JogConfig struct {
	FineMotorVel, CoarseMotorVel float64 // rad/s, direct mtvel jog
	FineGuideVel, CoarseGuideVel float64 // rad/s, toffset-rate jog while tracking
}

func (j JogConfig) motorRate(coarse bool) float64 {
	if coarse {
		return j.CoarseMotorVel
	}
	return j.FineMotorVel
}

func (j JogConfig) guideRate(coarse bool) float64 {
	if coarse {
		return j.CoarseGuideVel
	}
	return j.FineGuideVel
}

type jogIntent struct {
	sign   int
	coarse bool
}

// groupActivity tracks a home/limits command spanning more than one axis,
// since spec §4.5's `home`/`limits [HDR]` messages operate on a set rather
// than a single axis the way slew/jog do.
type groupActivity struct {
	kind    axis.State
	pending map[string]*axis.Engine
}

// Dispatcher is C5: the single-threaded command loop. It owns the per-axis
// engines (C3), the tracking engine (C4), the mount-model geometry (C2),
// and the observed-state record peers read, and drives all of it under a
// fixed-rate poll loop (spec §4.5/§5).
type Dispatcher struct {
	HA, Dec, Rot *axis.Engine // Rot is nil on a mount with no field rotator

	Mount mountmodel.Axes
	Mesh  *mountmodel.MeshTable
	Lat   float64

	Dome    DomeConfig
	EngMode bool

	StowAlt, StowAz float64

	// MinAlt is telsched.cfg's MINALT (spec §6): an altitude floor enforced
	// by chkLimits independently of any per-axis soft limit or dome
	// envelope (spec §8 boundary scenario 2). Zero disables the check.
	MinAlt float64

	Track      *tracking.Engine
	Resolver   TargetResolver
	Jog        JogConfig
	RasterStep time.Duration

	// Parallactic computes the parallactic angle for a rotator-equipped
	// mount (spec §4.2); nil when no rotator is fitted.
	Parallactic func(ha, dec float64) float64

	AcquireAccRaw float64 // raw-count override for EffectiveAcquireAcc, 0 = 1.5-step default
	AcquireDelt   float64 // spec §4.3's acquire_delt stability window

	State *telstate.State

	VirtualMode bool
	Virtual     *axistransport.VirtualTransport

	// Reopen is invoked by a `reset` message to close/reopen transports and
	// re-run axis setup; nil is a no-op (used by tests and the virtual
	// transport, which never needs to be reopened).
	Reopen func() error

	HomingTimeout, LimitingTimeout time.Duration

	trackActive bool
	group       *groupActivity
	jogIntents  map[string]jogIntent
	jogActive   bool

	lastPoll   time.Time
	lastCmd    uuid.UUID
	currentEph tracking.Ephemeris
}

// New returns a Dispatcher with sane defaults (30s homing and 60s
// limit-search timeouts, a 500ms raster step) for the given axis set.
func New(ha, dec, rot *axis.Engine) *Dispatcher {
	return &Dispatcher{
		HA: ha, Dec: dec, Rot: rot,
		Mesh:            mountmodel.IdentityMesh(),
		State:           telstate.New(),
		HomingTimeout:   30 * time.Second,
		LimitingTimeout: 60 * time.Second,
		RasterStep:      500 * time.Millisecond,
		jogIntents:      make(map[string]jogIntent),
	}
}

func (d *Dispatcher) engineFor(id string) *axis.Engine {
	switch id {
	case "HA", "ha":
		return d.HA
	case "DEC", "dec", "D", "d":
		return d.Dec
	case "ROT", "rot", "R", "r":
		return d.Rot
	default:
		return nil
	}
}

func (d *Dispatcher) allEngines() []*axis.Engine {
	engs := []*axis.Engine{d.HA, d.Dec}
	if d.Rot != nil {
		engs = append(engs, d.Rot)
	}
	return engs
}

// mjd converts a UTC instant to a modified Julian date. This is calendar
// bookkeeping, not ephemeris (no precession/nutation/aberration), so it
// stays in scope per spec §1.
func mjd(t time.Time) float64 {
	u := t.UTC()
	y, m, day := u.Date()
	if m <= 2 {
		y--
		m += 12
	}
	a := y / 100
	b := 2 - a + a/4
	jd := math.Floor(365.25*float64(y+4716)) + math.Floor(30.6001*float64(m+1)) + float64(day) + float64(b) - 1524.5
	frac := (float64(u.Hour())*3600 + float64(u.Minute())*60 + float64(u.Second())) / 86400.0
	return jd + frac - 2400000.5
}

// abortActivity stops every axis (polite deceleration) and clears any
// in-progress group/tracking activity, per spec §5's cancellation rule: "A
// fresh high-level command while an activity is in progress aborts that
// activity ... before installing itself."
func (d *Dispatcher) abortActivity() {
	for _, eng := range d.allEngines() {
		if eng != nil && eng.Active() {
			_ = eng.Stop(false)
		}
	}
	d.group = nil
	d.trackActive = false
	d.clearJog()
}

func (d *Dispatcher) clearJog() {
	d.jogIntents = make(map[string]jogIntent)
	d.jogActive = false
}

// aggregateMode derives the single observed-state telescope mode (spec
// §3) from the current per-axis/group/tracking state.
func (d *Dispatcher) aggregateMode() axis.State {
	if d.group != nil {
		return d.group.kind
	}
	if d.trackActive {
		allTracking := true
		anyHunting := false
		for _, eng := range d.allEngines() {
			switch eng.State() {
			case axis.Tracking:
			case axis.Hunting:
				allTracking = false
				anyHunting = true
			default:
				allTracking = false
			}
		}
		if allTracking {
			return axis.Tracking
		}
		if anyHunting {
			return axis.Hunting
		}
		return axis.Hunting
	}
	for _, eng := range d.allEngines() {
		if eng.State() == axis.Slewing {
			return axis.Slewing
		}
	}
	return axis.Idle
}

// Reset implements the `reset` message family: stop everything, invoke the
// transport-reopen hook if configured, and clear all activity.
func (d *Dispatcher) Reset() (int, string) {
	d.abortActivity()
	if d.Reopen != nil {
		if err := d.Reopen(); err != nil {
			tlog.Logf("dispatcher: reset: reopen failed: %v", err)
			return -1, fmt.Sprintf("Error: reset failed: %v", err)
		}
	}
	return 0, "reset complete"
}

package dispatcher

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
	"github.com/rockit-astro/superwasp-talon/internal/mountmodel"
	"github.com/rockit-astro/superwasp-talon/internal/tracking"
)

// arcsecToRad converts an arcsecond offset to radians, for the Δα/Δδ
// apparent-coordinate target offsets of spec §3.
const arcsecToRad = 1.0 / 206264.8

// Handle parses and dispatches one ASCII message line, per spec §4.5's
// message loop. The returned (code, text) pair is exactly the FIFO line
// contract of spec §6: code 0 is success/terminal, >0 progress, <0
// failure; callers format it as "code:text\n".
func (d *Dispatcher) Handle(line string) (int, string) {
	cmd := Parse(line)
	d.lastCmd = uuid.New()

	switch cmd.Family {
	case FamilyReset:
		return d.Reset()
	case FamilyHome:
		return d.handleHome(cmd)
	case FamilyLimits:
		return d.handleLimits(cmd)
	case FamilyStow:
		return d.handleStow()
	case FamilySlewHorizon:
		return d.handleSlewHorizon(cmd)
	case FamilySlewEquatorial:
		return d.handleSlewEquatorial(cmd)
	case FamilySlewApparent:
		return d.handleSlewApparent(cmd)
	case FamilyDBLine:
		return d.handleDBLine(cmd)
	case FamilyJog:
		return d.handleJog(cmd)
	case FamilyOffset:
		return d.handleOffset(cmd)
	case FamilyRaster:
		return d.handleRaster(cmd)
	case FamilyEngMode:
		d.EngMode = cmd.EngModeOn
		return 0, fmt.Sprintf("engmode %v", cmd.EngModeOn)
	default:
		return d.handleStop(cmd)
	}
}

// selectAxes resolves a home/limits axis subset (e.g. "HD") into the
// engines it names, or every configured axis when letters is empty.
func (d *Dispatcher) selectAxes(letters string) map[string]*axis.Engine {
	out := make(map[string]*axis.Engine)
	if letters == "" {
		out["HA"] = d.HA
		out["DEC"] = d.Dec
		if d.Rot != nil {
			out["ROT"] = d.Rot
		}
		return out
	}
	for _, c := range letters {
		switch c {
		case 'H':
			out["HA"] = d.HA
		case 'D':
			out["DEC"] = d.Dec
		case 'R':
			if d.Rot != nil {
				out["ROT"] = d.Rot
			}
		}
	}
	return out
}

func (d *Dispatcher) handleHome(cmd Command) (int, string) {
	d.abortActivity()
	pending := make(map[string]*axis.Engine)
	for id, eng := range d.selectAxes(cmd.Axes) {
		if eng == nil {
			continue
		}
		c, err := axis.StartHoming(eng.Rec, d.HomingTimeout)
		if err != nil {
			return -1, fmt.Sprintf("Error: %v", err)
		}
		eng.Begin(c)
		pending[id] = eng
	}
	if len(pending) == 0 {
		return -1, "Error: no axes to home"
	}
	d.group = &groupActivity{kind: axis.Homing, pending: pending}
	return 1, "homing started"
}

func (d *Dispatcher) handleLimits(cmd Command) (int, string) {
	d.abortActivity()
	pending := make(map[string]*axis.Engine)
	for id, eng := range d.selectAxes(cmd.Axes) {
		if eng == nil {
			continue
		}
		c, err := axis.StartLimiting(eng.Rec, d.LimitingTimeout)
		if err != nil {
			return -1, fmt.Sprintf("Error: %v", err)
		}
		eng.Begin(c)
		pending[id] = eng
	}
	if len(pending) == 0 {
		return -1, "Error: no axes to limit-find"
	}
	d.group = &groupActivity{kind: axis.Limiting, pending: pending}
	return 1, "limit search started"
}

func (d *Dispatcher) handleStow() (int, string) {
	return d.handleSlewHorizon(Command{Family: FamilySlewHorizon, Alt: d.StowAlt, Az: d.StowAz})
}

// slewTo validates (x,y,r) against limits/dome and, once clear, issues a
// one-shot SLEWING command on every configured axis (spec §4.3/§4.5's
// slew-horizon and slew-equatorial: "One-shot slew, no tracking").
func (d *Dispatcher) slewTo(ha, dec, parallactic float64) (int, string) {
	x, y, r, err := d.chkLimits(ha, dec, parallactic)
	if err != nil {
		return -1, fmt.Sprintf("Error: %v", err)
	}
	d.abortActivity()

	type axisGoal struct {
		eng *axis.Engine
		val float64
	}
	goals := []axisGoal{{d.HA, x}, {d.Dec, y}}
	if d.Rot != nil {
		goals = append(goals, axisGoal{d.Rot, r})
	}
	for _, g := range goals {
		goalRaw := g.eng.Rec.RawGoal(g.val)
		c, err := axis.StartSlew(g.eng.Rec, goalRaw, g.eng.Rec.EffectiveAcquireAcc(d.AcquireAccRaw), d.AcquireDelt)
		if err != nil {
			return -1, fmt.Sprintf("Error: %v", err)
		}
		g.eng.Begin(c)
	}
	return 1, "slewing"
}

func (d *Dispatcher) handleSlewHorizon(cmd Command) (int, string) {
	ha, dec := mountmodel.AltAzToHADec(cmd.Alt, cmd.Az, d.Lat)
	return d.slewTo(ha, dec, 0)
}

func (d *Dispatcher) handleSlewEquatorial(cmd Command) (int, string) {
	return d.slewTo(cmd.HA, cmd.Dec, 0)
}

// startTracking validates the target's instantaneous position then builds
// and downloads the first trajectory profile, handing subsequent
// HUNTING/TRACKING promotion to the tracking engine (C4).
func (d *Dispatcher) startTracking(eph tracking.Ephemeris) (int, string) {
	if d.Track == nil {
		return -1, "Error: tracking engine not configured"
	}
	ha0, dec0, err := eph(0)
	if err != nil {
		return -1, fmt.Sprintf("Error: %v", err)
	}
	var pa0 float64
	if d.Parallactic != nil {
		pa0 = d.Parallactic(ha0, dec0)
	}
	if _, _, _, err := d.chkLimits(ha0, dec0, pa0); err != nil {
		return -1, fmt.Sprintf("Error: %v", err)
	}

	d.abortActivity()
	now := time.Now()
	if err := d.Track.Start(eph, mjd(now), 0, d.Parallactic); err != nil {
		return -1, fmt.Sprintf("Error: %v", err)
	}
	d.trackActive = true
	d.currentEph = eph
	return 1, "tracking started"
}

func (d *Dispatcher) offsetEphemeris(eph tracking.Ephemeris, deltaRAArcsec, deltaDecArcsec float64) tracking.Ephemeris {
	if deltaRAArcsec == 0 && deltaDecArcsec == 0 {
		return eph
	}
	return func(t float64) (float64, float64, error) {
		ha, dec, err := eph(t)
		if err != nil {
			return 0, 0, err
		}
		return ha - deltaRAArcsec*arcsecToRad, dec + deltaDecArcsec*arcsecToRad, nil
	}
}

func (d *Dispatcher) handleSlewApparent(cmd Command) (int, string) {
	if d.Resolver == nil {
		return -1, "Error: no target resolver configured"
	}
	eph, err := d.Resolver.Apparent(cmd.RA, cmd.Dec, cmd.Epoch, cmd.HasEpoch)
	if err != nil {
		return -1, fmt.Sprintf("Error: %v", err)
	}
	return d.startTracking(eph)
}

func (d *Dispatcher) handleDBLine(cmd Command) (int, string) {
	if d.Resolver == nil {
		return -1, "Error: no target resolver configured"
	}
	eph, err := d.Resolver.DBLine(cmd.DBLine)
	if err != nil {
		return -1, fmt.Sprintf("Error: %v", err)
	}
	eph = d.offsetEphemeris(eph, cmd.DeltaRAArcsec, cmd.DeltaDecArcsec)
	return d.startTracking(eph)
}

func (d *Dispatcher) handleOffset(cmd Command) (int, string) {
	if !d.trackActive {
		return -1, "Error: offset requires an active track"
	}
	haSteps := tracking.ArcsecToSteps(cmd.OffsetXArcsec, d.HA.Rec.EStep, d.HA.Rec.ESign)
	if err := d.HA.Rec.Control.Write(fmt.Sprintf("toffset+=%d", haSteps)); err != nil {
		return -1, fmt.Sprintf("Error: %v", err)
	}
	decSteps := tracking.ArcsecToSteps(cmd.OffsetYArcsec, d.Dec.Rec.EStep, d.Dec.Rec.ESign)
	if err := d.Dec.Rec.Control.Write(fmt.Sprintf("toffset+=%d", decSteps)); err != nil {
		return -1, fmt.Sprintf("Error: %v", err)
	}
	return 0, "offset applied"
}

func (d *Dispatcher) handleRaster(cmd Command) (int, string) {
	if d.Track == nil {
		return -1, "Error: tracking engine not configured"
	}
	if cmd.RasterN > 0 && cmd.RasterSize != 0 {
		d.Track.EnableRaster(cmd.RasterN, cmd.RasterSize)
		return 0, "raster enabled"
	}
	d.Track.DisableRaster()
	return 0, "raster disabled"
}

func (d *Dispatcher) handleStop(cmd Command) (int, string) {
	for _, eng := range d.allEngines() {
		if eng != nil {
			_ = eng.Stop(cmd.StopFast)
		}
	}
	d.group = nil
	d.trackActive = false
	d.clearJog()
	return 0, "stopped"
}

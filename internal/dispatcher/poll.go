package dispatcher

import (
	"fmt"
	"time"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
	"github.com/rockit-astro/superwasp-talon/internal/mountmodel"
	"github.com/rockit-astro/superwasp-talon/internal/telstate"
	"github.com/rockit-astro/superwasp-talon/internal/tlog"
)

// Poll runs one iteration of spec §4.5's fixed-rate poll loop: advance the
// virtual simulation if applicable, drive whatever activity is in
// progress, re-check dome interference, and publish an observed-state
// snapshot. Returns any diagnostic lines produced this tick (empty most
// ticks), formatted as spec §6 FIFO lines ("code:text").
func (d *Dispatcher) Poll(now time.Time) []string {
	var dt float64
	if !d.lastPoll.IsZero() {
		dt = now.Sub(d.lastPoll).Seconds()
	}
	d.lastPoll = now

	if d.VirtualMode && d.Virtual != nil {
		d.Virtual.Step(int64(dt * 1000))
	}

	var msgs []string
	tick := axis.Tick{Now: now}

	switch {
	case d.group != nil:
		if msg := d.pollGroup(tick); msg != "" {
			msgs = append(msgs, msg)
		}
	case d.trackActive && d.Track != nil:
		if err := d.Track.Poll(now, mjd(now), d.currentEph, 0, d.Parallactic); err != nil {
			d.trackActive = false
			msgs = append(msgs, fmt.Sprintf("-1 Error: %v", err))
		} else {
			if err := d.Track.PollRaster(now, d.RasterStep); err != nil {
				msgs = append(msgs, fmt.Sprintf("-1 Error: %v", err))
			}
			if err := d.applyJogOffsets(dt); err != nil {
				msgs = append(msgs, fmt.Sprintf("-1 Error: %v", err))
			}
		}
	default:
		if msg := d.pollOneShot(tick); msg != "" {
			msgs = append(msgs, msg)
		} else {
			d.refreshIdlePositions()
		}
	}

	if msg := d.checkDomeDuringMotion(); msg != "" {
		msgs = append(msgs, msg)
	}

	d.publish(now)
	return msgs
}

// pollGroup advances a home/limits group activity spanning one or more
// axes, completing when every axis in the group has finished.
func (d *Dispatcher) pollGroup(tick axis.Tick) string {
	g := d.group
	for id, eng := range g.pending {
		outcome, msg := eng.Poll(tick)
		switch outcome {
		case axis.Continue:
		case axis.Done:
			delete(g.pending, id)
		case axis.Failed:
			for _, other := range g.pending {
				_ = other.Stop(false)
			}
			d.group = nil
			return fmt.Sprintf("-1 Error: %s", msg)
		}
	}
	if len(g.pending) == 0 {
		d.group = nil
		return fmt.Sprintf("0 %s complete", g.kind)
	}
	return ""
}

// pollOneShot advances any axis still running an un-grouped continuation
// (a one-shot horizon/equatorial slew, or a velocity jog).
func (d *Dispatcher) pollOneShot(tick axis.Tick) string {
	for _, eng := range d.allEngines() {
		if eng == nil || !eng.Active() {
			continue
		}
		outcome, msg := eng.Poll(tick)
		if outcome == axis.Failed {
			return fmt.Sprintf("-1 Error: %s", msg)
		}
		if outcome == axis.Done && msg != "" {
			return msg // Done messages already carry their "0 " code
		}
	}
	return ""
}

// refreshIdlePositions implements spec §4.5's idle poll step: "otherwise
// just re-read raw positions, recompute cooked coordinates, set
// desired=current for display."
func (d *Dispatcher) refreshIdlePositions() {
	for _, eng := range d.allEngines() {
		if eng == nil {
			continue
		}
		if err := eng.Rec.RefreshPosition(); err != nil {
			tlog.Logf("dispatcher: refresh %s position: %v", eng.Rec.ID, err)
			continue
		}
		eng.Rec.DPos = eng.Rec.CPos
	}
}

// checkDomeDuringMotion re-evaluates dome interference every poll while an
// activity that actually moves the mount is in progress, per spec §4.5:
// "Dome interference is re-checked every poll and can preempt a long
// slew."
func (d *Dispatcher) checkDomeDuringMotion() string {
	if !d.Dome.interferenceApplies(d.EngMode) {
		return ""
	}
	moving := d.trackActive
	for _, eng := range d.allEngines() {
		if eng != nil && eng.State() == axis.Slewing {
			moving = true
		}
	}
	if !moving {
		return ""
	}

	var r float64
	if d.Rot != nil {
		r = d.Rot.Rec.CPos
	}
	alt, az := mountmodel.XYR2AltAz(d.Mount, d.Mesh, d.HA.Rec.CPos, d.Dec.Rec.CPos, r, d.Lat)
	if err := checkDomeEnvelope(d.Dome, alt, az); err != nil {
		for _, eng := range d.allEngines() {
			if eng != nil {
				_ = eng.Stop(true)
			}
		}
		d.group = nil
		d.trackActive = false
		d.clearJog()
		return fmt.Sprintf("-1 Error: dome interference: %v", err)
	}
	return ""
}

// publish writes a fresh observed-state snapshot (spec §3/§5), bumping the
// state-change counter exactly once.
func (d *Dispatcher) publish(now time.Time) {
	mode := d.aggregateMode()
	var r float64
	if d.Rot != nil {
		r = d.Rot.Rec.CPos
	}
	alt, az := mountmodel.XYR2AltAz(d.Mount, d.Mesh, d.HA.Rec.CPos, d.Dec.Rec.CPos, r, d.Lat)

	d.State.Update(func(prev telstate.Snapshot) telstate.Snapshot {
		next := prev
		next.TelescopeMode = telstate.Mode(mode)
		next.Alt, next.Az = alt, az
		next.DesiredAlt, next.DesiredAz = alt, az

		axes := make([]telstate.AxisStatus, 0, 3)
		for _, eng := range d.allEngines() {
			if eng == nil {
				continue
			}
			axes = append(axes, telstate.AxisStatus{
				ID:      eng.Rec.ID,
				CPos:    eng.Rec.CPos,
				DPos:    eng.Rec.DPos,
				State:   eng.State(),
				IsHomed: eng.Rec.IsHomed,
			})
		}
		next.Axes = axes
		next.Dome = telstate.DomeStatus{
			Open:      d.Dome.Open,
			Azimuth:   prev.Dome.Azimuth,
			EngMode:   d.EngMode,
			JoggingOn: d.jogActive,
		}
		return next
	})
}

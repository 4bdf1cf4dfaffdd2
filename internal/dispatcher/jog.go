package dispatcher

import (
	"fmt"
	"math"
	"time"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
)

// jogAxisFor maps a jog direction character to the axis it drives (spec
// §4.3: "jog command direction characters N/n/S/s/E/e/W/w/0 map to (axis,
// sign, magnitude) per configuration"). This mount's convention: N/S jog
// Dec, E/W jog HA.
func jogAxisFor(c rune) string {
	switch c {
	case 'N', 'n', 'S', 's':
		return "DEC"
	case 'E', 'e', 'W', 'w':
		return "HA"
	default:
		return ""
	}
}

func countsPerSecFromRad(rec *axis.Record, radPerSec float64) float64 {
	if rec.HaveEncoder {
		return radPerSec * float64(rec.EStep) * float64(rec.ESign) / (2 * math.Pi)
	}
	return radPerSec * float64(rec.Step) * float64(rec.Sign) / (2 * math.Pi)
}

// handleJog implements spec §4.3's jog message. Outside tracking it issues
// a direct velocity and transitions the axis to SLEWING; while tracking it
// instead accumulates a toffset rate, applied every poll tick by
// applyJogOffsets rather than rebuilding the profile.
func (d *Dispatcher) handleJog(cmd Command) (int, string) {
	isTracking := d.trackActive
	for _, ch := range cmd.Jog[1:] {
		sign, coarse, stop, ok := axis.DirectionSign(byte(ch))
		if !ok {
			continue
		}
		if stop {
			d.stopJog()
			continue
		}
		axisID := jogAxisFor(ch)
		eng := d.engineFor(axisID)
		if eng == nil {
			continue
		}
		if isTracking {
			d.jogIntents[axisID] = jogIntent{sign: sign, coarse: coarse}
			d.jogActive = true
			continue
		}
		rate := d.Jog.motorRate(coarse) * float64(sign)
		cont, err := axis.StartJogVelocity(eng.Rec, countsPerSecFromRad(eng.Rec, rate))
		if err != nil {
			return -1, fmt.Sprintf("Error: %v", err)
		}
		eng.Begin(cont)
	}
	return 0, "jog"
}

// stopJog cancels any jog in progress: a velocity jog is stopped on its
// axis; a tracking-offset jog just has its intent cleared (the axis itself
// keeps tracking).
func (d *Dispatcher) stopJog() {
	if !d.trackActive {
		for _, eng := range d.allEngines() {
			if eng != nil && eng.State() == axis.Slewing {
				_ = eng.Stop(false)
			}
		}
	}
	d.clearJog()
}

// applyJogOffsets injects one tick's worth of toffset rate for every
// active tracking-mode jog intent (spec §4.3: "jog applies a tracking-
// offset ... via a small scripted loop on the node").
func (d *Dispatcher) applyJogOffsets(dt float64) error {
	if !d.jogActive || dt <= 0 {
		return nil
	}
	for axisID, intent := range d.jogIntents {
		eng := d.engineFor(axisID)
		if eng == nil {
			continue
		}
		rate := d.Jog.guideRate(intent.coarse) * float64(intent.sign)
		countsPerSec := countsPerSecFromRad(eng.Rec, rate)
		dur := time.Duration(dt * float64(time.Second))
		if err := axis.JogTrackingOffset(eng.Rec, countsPerSec, dur); err != nil {
			return fmt.Errorf("dispatcher: jog offset: %w", err)
		}
	}
	return nil
}

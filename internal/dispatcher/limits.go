package dispatcher

import (
	"fmt"
	"math"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
	"github.com/rockit-astro/superwasp-talon/internal/mountmodel"
)

// DomeConfig is the dome-interference envelope and liveness of spec §4.5's
// chkLimits dome check, sourced from the peer dome daemon (out of scope,
// spec §1) and the `telescoped.cfg` POS/NEGALT/AZLIMDC keys (spec §6).
type DomeConfig struct {
	// Absent reports that no dome is fitted at all.
	Absent bool
	// Open reports the dome shutter/dome itself is open.
	Open bool

	NegAltLimDC, PosAltLimDC float64
	NegAzLimDC, PosAzLimDC   float64
}

// interferenceApplies implements spec §4.5: "If dome is not absent-or-open
// and not in engineering mode" the envelope check runs.
func (d DomeConfig) interferenceApplies(engMode bool) bool {
	if engMode {
		return false
	}
	return !d.Absent && !d.Open
}

// checkAxisLimit tests v against rec's soft limits, escaping a wrap-around
// gap by adding/subtracting whole revolutions first when allowWrap is set
// (spec §4.5: "Axes with wrap-around (HA) add or subtract whole
// revolutions to escape the limit gap before rejection").
func checkAxisLimit(rec *axis.Record, name string, v float64, allowWrap bool) (float64, error) {
	if !rec.HaveLimits {
		return v, nil
	}
	if allowWrap {
		for v <= rec.NegLim {
			v += 2 * math.Pi
		}
		for v >= rec.PosLim {
			v -= 2 * math.Pi
		}
	}
	if v <= rec.NegLim {
		return 0, fmt.Errorf("%s hits negative limit", name)
	}
	if v >= rec.PosLim {
		return 0, fmt.Errorf("%s hits positive limit", name)
	}
	return v, nil
}

// checkDomeEnvelope implements spec §8 boundary scenario 3's failure
// messages.
func checkDomeEnvelope(d DomeConfig, alt, az float64) error {
	switch {
	case alt <= d.NegAltLimDC:
		return fmt.Errorf("hits negative altitude limit inside dome")
	case alt >= d.PosAltLimDC:
		return fmt.Errorf("hits positive altitude limit inside dome")
	case az <= d.NegAzLimDC:
		return fmt.Errorf("hits negative azimuth limit inside dome")
	case az >= d.PosAzLimDC:
		return fmt.Errorf("hits positive azimuth limit inside dome")
	}
	return nil
}

// chkLimits is spec §4.5's chkLimits: it runs HD2XYR, tests every computed
// mount-frame coordinate axis-by-axis against that axis's soft limits
// (HA allowed to wrap to escape the gap first), then tests the resulting
// Alt/Az against telsched.cfg's MINALT floor (spec §6/§8 boundary scenario
// 2) and — only when the dome genuinely interferes — against the dome
// envelope. It reports failure without ever touching a motor, per spec §8
// invariant 4.
func (d *Dispatcher) chkLimits(ha, dec, parallactic float64) (x, y, r float64, err error) {
	x, y, r = mountmodel.HD2XYR(d.Mount, d.Mesh, ha, dec, parallactic)

	if x, err = checkAxisLimit(d.HA.Rec, "HA", x, true); err != nil {
		return 0, 0, 0, err
	}
	if d.Dec != nil {
		if y, err = checkAxisLimit(d.Dec.Rec, "Dec", y, false); err != nil {
			return 0, 0, 0, err
		}
	}
	if d.Rot != nil {
		if r, err = checkAxisLimit(d.Rot.Rec, "Rotator", r, false); err != nil {
			return 0, 0, 0, err
		}
	}

	if d.MinAlt != 0 || d.Dome.interferenceApplies(d.EngMode) {
		alt, az := mountmodel.XYR2AltAz(d.Mount, d.Mesh, x, y, r, d.Lat)
		if d.MinAlt != 0 && alt <= d.MinAlt {
			return 0, 0, 0, fmt.Errorf("Alt hits negative limit")
		}
		if d.Dome.interferenceApplies(d.EngMode) {
			if err := checkDomeEnvelope(d.Dome, alt, az); err != nil {
				return 0, 0, 0, err
			}
		}
	}

	return x, y, r, nil
}

// Package mountmodel implements C2: the bidirectional, refraction-free
// mapping between apparent (HA, Dec) sky coordinates and mount encoder
// coordinates (x, y, r), including the polar-misalignment/collimation
// correction chain and a tabulated pointing-mesh residual. Refraction is
// applied only at the boundary where apparent equatorial coordinates are
// derived from an encoder reading (spec §4.2), never inside these
// transforms themselves.
package mountmodel

import "math"

// Axes holds the telescope-geometry parameters of spec §3's mount-axes
// record. It is read-only after initialisation from hc.cfg.
type Axes struct {
	HT, DT float64 // polar-axis misalignment error vector, rad
	XP     float64 // collimation error, rad
	YC, NP float64 // declination-axis non-perpendicularity, rad
	R0     float64 // rotator zero point, rad

	GermEq     bool // German-equatorial pier-flip geometry
	ZenFlip    bool // rotator zenith-flip sign convention
	HasRotator bool

	Latitude float64 // observer latitude, rad

	NegHA, PosHA float64 // HA soft-limit envelope, rad
}

// normalizeHA wraps an hour angle into (-pi, pi].
func normalizeHA(ha float64) float64 {
	for ha > math.Pi {
		ha -= 2 * math.Pi
	}
	for ha <= -math.Pi {
		ha += 2 * math.Pi
	}
	return ha
}

// clampDec folds a declination into [-pi/2, pi/2]. Values outside that
// range (as produced transiently by the German-equatorial flip branch of
// HD2XYR before the YC/DT offsets are removed) are left untouched by
// clampDec's callers — only genuinely out-of-range sky declinations are
// folded here.
func clampDec(dec float64) float64 {
	if dec > math.Pi/2 {
		return math.Pi - dec
	}
	if dec < -math.Pi/2 {
		return -math.Pi - dec
	}
	return dec
}

package mountmodel

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// HD2XYR is the sky-to-mount transform of spec §4.2: mesh correction, then
// the ideal equatorial-to-xy rotation (German-equatorial pier-flip folded
// in when the target is east of the meridian), then the non-ideal
// collimation/non-perpendicularity correction chain.
//
// parallacticAngle is only consulted when axes.HasRotator is set.
func HD2XYR(axes Axes, mesh *MeshTable, ha, dec, parallacticAngle float64) (x, y, r float64) {
	dha, ddec := mesh.Correct(ha, dec)
	ha = normalizeHA(ha + dha)
	dec = clampDec(dec + ddec)

	x0, y0 := ha, dec
	if axes.GermEq && ha < 0 {
		// The same sky position is reachable with the tube on the other
		// side of the pier by continuing the HA axis through +pi and
		// reading the Dec axis as its supplementary angle. x0/y0 are mount
		// encoder labels here, not sky coordinates, so this is a relabelling
		// rather than a rotation of the pointing direction.
		x0 = ha + math.Pi
		y0 = math.Pi - dec
	}

	x = x0 + axes.HT + axes.XP/math.Cos(y0) + axes.NP*math.Tan(y0)
	y = y0 + axes.DT + axes.YC

	if axes.HasRotator {
		sign := 1.0
		if axes.ZenFlip {
			sign = -1.0
		}
		r = parallacticAngle + sign*axes.R0
	}
	return x, y, r
}

// XYR2AltAz is the mount-to-sky transform: back out the non-ideal
// corrections, back out the ideal rotation (including any German-
// equatorial pier flip encoded by a declination axis reading past ±90°),
// back out the mesh correction, then project HA/Dec to Alt/Az for the
// given observer latitude.
func XYR2AltAz(axes Axes, mesh *MeshTable, x, y, _ /*r*/ float64, lat float64) (alt, az float64) {
	y0 := y - axes.DT - axes.YC
	x0 := x - axes.HT - axes.XP/math.Cos(y0) - axes.NP*math.Tan(y0)

	ha, dec := x0, y0
	if axes.GermEq && math.Abs(y0) > math.Pi/2 {
		ha = x0 - math.Pi
		if y0 > 0 {
			dec = math.Pi - y0
		} else {
			dec = -math.Pi - y0
		}
	}

	dha, ddec := mesh.Correct(ha, dec)
	ha = normalizeHA(ha - dha)
	dec = clampDec(dec - ddec)

	return HADecToAltAz(ha, dec, lat)
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// equatorialRotation builds the rotation matrix that carries the
// topocentric equatorial frame (HA increasing west, Dec) into the horizon
// frame (Alt, Az measured from north through east) for an observer at the
// given latitude: a rotation about the local east-west axis by (pi/2-lat).
// The north celestial pole sits at (North=cos(lat), East=0, Up=sin(lat)) and
// the equator/meridian crossing sits at (North=-sin(lat), East=0,
// Up=cos(lat)); the increasing-HA direction (west along the equator) maps
// to the negative-East axis, giving the East row its sign.
func equatorialRotation(lat float64) *mat.Dense {
	co, si := math.Cos(lat), math.Sin(lat)
	return mat.NewDense(3, 3, []float64{
		-si, 0, co,
		0, -1, 0,
		co, 0, si,
	})
}

// HADecToAltAz converts equatorial (HA, Dec) to horizon (Alt, Az) for an
// observer at the given latitude via a single rotation-matrix
// multiplication, composed with gonum.org/v1/gonum/mat. Azimuth is
// measured from north through east. This is a pure geometric projection;
// no refraction is applied.
func HADecToAltAz(ha, dec, lat float64) (alt, az float64) {
	v := mat.NewVecDense(3, []float64{
		math.Cos(dec) * math.Cos(ha),
		math.Cos(dec) * math.Sin(ha),
		math.Sin(dec),
	})
	var h mat.VecDense
	h.MulVec(equatorialRotation(lat), v)

	north, east, up := h.AtVec(0), h.AtVec(1), h.AtVec(2)
	alt = math.Asin(clampUnit(up))
	az = math.Atan2(east, north)
	if az < 0 {
		az += 2 * math.Pi
	}
	return alt, az
}

// AltAzToHADec is the inverse horizon projection (the rotation above is
// orthogonal, so its inverse is its transpose), used when a slew target is
// specified directly in Alt/Az (spec §4.5's slew-horizon command) and must
// first be converted to equatorial coordinates before HD2XYR runs.
func AltAzToHADec(alt, az, lat float64) (ha, dec float64) {
	h := mat.NewVecDense(3, []float64{
		math.Cos(alt) * math.Cos(az),
		math.Cos(alt) * math.Sin(az),
		math.Sin(alt),
	})
	var v mat.VecDense
	v.MulVec(equatorialRotation(lat).T(), h)

	x, y, z := v.AtVec(0), v.AtVec(1), v.AtVec(2)
	dec = math.Asin(clampUnit(z))
	ha = math.Atan2(y, x)
	return normalizeHA(ha), dec
}

package mountmodel

import "math"

// ApparentAltitude applies Bennett's 1982 refraction approximation to a
// true (geometric, refraction-free) altitude, returning the altitude at
// which the object actually appears. Pressure is in millibars, temperature
// in degrees Celsius. This is the only place refraction enters the mount
// model, consistent with spec §4.2: it is applied when producing apparent
// equatorial coordinates from an encoder reading, never inside HD2XYR or
// XYR2AltAz themselves.
func ApparentAltitude(pressureMbar, tempC, trueAlt float64) float64 {
	if trueAlt < -2*deg {
		return trueAlt
	}
	altDeg := trueAlt / deg
	rArcmin := 1.0 / math.Tan((altDeg+7.31/(altDeg+4.4))*deg)
	rArcmin *= (pressureMbar / 1010.0) * (283.0 / (273.0 + tempC))
	return trueAlt + (rArcmin/60.0)*deg
}

const deg = math.Pi / 180

package tracking

// ArcsecToSteps converts an arcsecond offset into an integer encoder-step
// count for injection as `toffset` on the node, per spec §4.4's "a
// commanded offset in arcseconds ... translates to an integer encoder
// step count." The divisor 1296000 = 360*3600 arcseconds per revolution;
// per spec §9's third Open Question this is only correct when estep is a
// full-revolution step count, which is the convention this module's
// per-axis configuration assumes (spec §6's HESTEP/DESTEP/RESTEP keys).
func ArcsecToSteps(arcsec float64, estep, esign int) int {
	return int(arcsec * float64(estep) * float64(esign) / 1296000.0)
}

// Offset is a commanded (ΔHA, ΔDec) tracking offset in arcseconds,
// applied during TRACKING without rebuilding the profile (spec §4.4).
type Offset struct {
	DeltaHAArcsec, DeltaDecArcsec float64
}

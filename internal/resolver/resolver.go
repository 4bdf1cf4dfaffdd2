// Package resolver is the seam spec §1 leaves open ("the ephemeris
// library ... only their signatures are named"): a minimal
// dispatcher.TargetResolver that is enough to drive the virtual-mode core
// end to end without a real precession/nutation/aberration engine. It
// treats "apparent place" as the catalogue RA/Dec unchanged — correct for
// a J2000 source observed near J2000, and a deliberate simplification
// documented in DESIGN.md rather than a claim of astrometric accuracy.
package resolver

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rockit-astro/superwasp-talon/internal/tracking"
)

// Fixed is a TargetResolver over a local sidereal-time clock: HA = LST -
// RA. LST itself is plain calendar/angle arithmetic (Greenwich Mean
// Sidereal Time plus observer longitude), not ephemeris, so it stays in
// scope under spec §1's boundary the same way internal/dispatcher's mjd
// helper does.
type Fixed struct {
	LongitudeRad float64
	Now          func() time.Time // indirected for deterministic tests; nil uses time.Now
}

func (f Fixed) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// gmst returns Greenwich Mean Sidereal Time in radians for a UTC instant,
// using the standard IAU 1982 polynomial approximation.
func gmst(t time.Time) float64 {
	u := t.UTC()
	y, m, d := u.Date()
	if m <= 2 {
		y--
		m += 12
	}
	a := y / 100
	b := 2 - a + a/4
	jd0h := math.Floor(365.25*float64(y+4716)) + math.Floor(30.6001*float64(m+1)) + float64(d) + float64(b) - 1524.5
	jd := jd0h + (float64(u.Hour())*3600+float64(u.Minute())*60+float64(u.Second()))/86400.0

	tCenturies := (jd - 2451545.0) / 36525.0
	gmstDeg := 280.46061837 + 360.98564736629*(jd-2451545.0) +
		0.000387933*tCenturies*tCenturies - tCenturies*tCenturies*tCenturies/38710000.0

	rad := math.Mod(gmstDeg, 360) * math.Pi / 180
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}

func normalizeHA(ha float64) float64 {
	for ha > math.Pi {
		ha -= 2 * math.Pi
	}
	for ha <= -math.Pi {
		ha += 2 * math.Pi
	}
	return ha
}

// Apparent implements dispatcher.TargetResolver: the returned Ephemeris
// ignores epoch/hasEpoch (no precession model is in scope) and reports
// HA = LST(t) - RA at each call.
func (f Fixed) Apparent(ra, dec, _ float64, _ bool) (tracking.Ephemeris, error) {
	return func(tOffsetSec float64) (ha, decOut float64, err error) {
		at := f.now().Add(time.Duration(tOffsetSec * float64(time.Second)))
		lst := gmst(at) + f.LongitudeRad
		return normalizeHA(lst - ra), dec, nil
	}, nil
}

// DBLine implements dispatcher.TargetResolver for a subset of the xephem
// catalogue format sufficient for a fixed star: "Name,f|S,HH:MM:SS,sDD:MM:SS,Mag".
func (f Fixed) DBLine(line string) (tracking.Ephemeris, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 4 {
		return nil, fmt.Errorf("resolver: db line %q: expected at least 4 comma-separated fields", line)
	}
	if !strings.HasPrefix(fields[1], "f") {
		return nil, fmt.Errorf("resolver: db line %q: only fixed (f|...) entries are supported", line)
	}
	ra, err := parseSexagesimalHours(fields[2])
	if err != nil {
		return nil, fmt.Errorf("resolver: db line %q: RA: %w", line, err)
	}
	dec, err := parseSexagesimalDegrees(fields[3])
	if err != nil {
		return nil, fmt.Errorf("resolver: db line %q: Dec: %w", line, err)
	}
	return f.Apparent(ra, dec, 2000, true)
}

// parseSexagesimalHours parses "HH:MM:SS.S" into radians.
func parseSexagesimalHours(s string) (float64, error) {
	h, m, sec, err := parseSexagesimal(s)
	if err != nil {
		return 0, err
	}
	hours := h + m/60 + sec/3600
	return hours * math.Pi / 12, nil
}

// parseSexagesimalDegrees parses "sDD:MM:SS.S" (sign-prefixed) into radians.
func parseSexagesimalDegrees(s string) (float64, error) {
	neg := strings.HasPrefix(s, "-")
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	d, m, sec, err := parseSexagesimal(trimmed)
	if err != nil {
		return 0, err
	}
	deg := d + m/60 + sec/3600
	if neg {
		deg = -deg
	}
	return deg * math.Pi / 180, nil
}

func parseSexagesimal(s string) (a, b, c float64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("expected D:M:S, got %q", s)
	}
	a, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, 0, err
	}
	b, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, 0, err
	}
	c, err = strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, 0, 0, err
	}
	return a, b, c, nil
}

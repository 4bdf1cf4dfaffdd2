// Package tracking implements C4, the tracking engine: building a
// segmented position profile for a moving celestial target, downloading
// it to each axis controller, synchronising host and controller clocks,
// and watching for drift or lock loss.
package tracking

import (
	"fmt"
	"math"
	"strings"

	"github.com/rockit-astro/superwasp-talon/internal/mountmodel"
)

// Sample is one computed mount-frame position at a point in time.
type Sample struct {
	X, Y, R float64
}

// Ephemeris computes a target's apparent (HA, Dec) at time t (seconds
// since an arbitrary epoch the caller controls). The tracking engine
// supplies one of these per target variant (fixed/apparent/object/
// horizon); ephemeris computation itself is out of scope (spec §1).
type Ephemeris func(t float64) (ha, dec float64, err error)

// BuildProfile samples ephemeris at n instants spaced trackInt/n seconds
// apart starting at t0, transforms each sample through the mount model,
// and returns it alongside the per-sample interval in milliseconds. Only
// each sample's x is wrapped by whole revolutions into the HA envelope
// (axes.NegHA, axes.PosHA); y and r are passed through unclamped.
func BuildProfile(axes mountmodel.Axes, mesh *mountmodel.MeshTable, eph Ephemeris, t0, trackInt float64, n int, parallactic func(ha, dec float64) float64) ([]Sample, int64, error) {
	if n <= 0 {
		return nil, 0, fmt.Errorf("tracking: profile sample count must be positive")
	}
	if trackInt <= 0 {
		return nil, 0, fmt.Errorf("tracking: TRACKINT must be > 0")
	}
	delta := trackInt / float64(n)
	intervalMs := int64(math.Round(delta * 1000))

	samples := make([]Sample, n)
	for i := 0; i < n; i++ {
		t := t0 + float64(i)*delta
		ha, dec, err := eph(t)
		if err != nil {
			return nil, 0, fmt.Errorf("tracking: ephemeris at sample %d: %w", i, err)
		}
		var pa float64
		if parallactic != nil {
			pa = parallactic(ha, dec)
		}
		x, y, r := mountmodel.HD2XYR(axes, mesh, ha, dec, pa)
		x = wrapIntoLimits(x, axes.NegHA, axes.PosHA)
		samples[i] = Sample{X: x, Y: y, R: r}
	}
	return samples, intervalMs, nil
}

// wrapIntoLimits adds or subtracts whole revolutions of 2π to bring x
// inside [negLim, posLim] when possible, rather than rejecting it — spec
// §4.4 allows "whole-revolution wrapping" during profile construction
// (geometry rejection proper happens at the dispatcher boundary, C5).
func wrapIntoLimits(x, negLim, posLim float64) float64 {
	if negLim >= posLim {
		return x
	}
	for x < negLim {
		x += 2 * math.Pi
	}
	for x > posLim {
		x -= 2 * math.Pi
	}
	return x
}

// EncodeCommand renders a profile as the single multi-argument download
// command spec §4.4 describes: "etrack(...)" for an encoder-equipped axis,
// "mtrack(...)" otherwise. The first argument is a literal 0 and the
// interval in milliseconds is the second, followed by one value per sample.
// axisOf selects which coordinate of each Sample this axis tracks.
func EncodeCommand(hasEncoder bool, intervalMs int64, samples []Sample, axisOf func(Sample) float64) string {
	name := "mtrack"
	if hasEncoder {
		name = "etrack"
	}
	parts := make([]string, 0, len(samples)+2)
	parts = append(parts, "0", fmt.Sprintf("%d", intervalMs))
	for _, s := range samples {
		parts = append(parts, fmt.Sprintf("%g", axisOf(s)))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ","))
}

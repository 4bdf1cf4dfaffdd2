package tracking

import (
	"fmt"
	"math"
	"time"
)

// RasterState is the small-amplitude back-and-forth scan pattern spec §13
// ("Supplemented features") describes superposed on the tracking profile
// during an exposure: `tel_raster_enable/start/stop/reset/update` in the
// original dome-aware `tel.c`. It never rebuilds the profile — it is
// injected through the same `toffset` accumulator as a jog or guide
// correction (spec §4.4).
type RasterState struct {
	enabled bool
	n       int
	sizeRad float64
	idx     int
	dir     int
}

// Enable starts (or restarts) a raster of n steps spanning sizeRad radians
// peak-to-peak.
func (r *RasterState) Enable(n int, sizeRad float64) {
	r.enabled = n > 0 && sizeRad != 0
	r.n = n
	r.sizeRad = sizeRad
	r.idx = 0
	r.dir = 1
}

// Disable stops the raster; the dispatcher's `raster n size` message with
// n<=0 maps to this.
func (r *RasterState) Disable() { r.enabled = false }

// Enabled reports whether a raster is currently running.
func (r *RasterState) Enabled() bool { return r.enabled }

// Next advances one triangle-wave step and returns the per-step position
// delta in radians, reversing direction at either end of the n-step
// excursion. Returns 0 when disabled.
func (r *RasterState) Next() float64 {
	if !r.enabled || r.n <= 0 {
		return 0
	}
	step := r.sizeRad / float64(r.n)
	delta := step * float64(r.dir)
	r.idx += r.dir
	if r.idx >= r.n || r.idx <= 0 {
		r.dir = -r.dir
	}
	return delta
}

// radToSteps converts a radian delta into the integer encoder-step count
// for one axis's toffset accumulator, the same estep/esign convention
// ArcsecToSteps uses for jog/guide offsets.
func radToSteps(rad float64, estep, esign int) int {
	return int(math.Round(rad * float64(estep) * float64(esign) / (2 * math.Pi)))
}

// EnableRaster turns raster mode on for this engine's rasterable axes
// (HA, Dec — never the rotator).
func (e *Engine) EnableRaster(n int, sizeRad float64) {
	e.Raster.Enable(n, sizeRad)
	e.lastRasterStep = time.Time{}
}

// DisableRaster turns raster mode off.
func (e *Engine) DisableRaster() { e.Raster.Disable() }

// PollRaster injects one raster step into every rasterable axis's toffset
// once per stepInterval, superposed on whatever profile or guide offset is
// already loaded. Called by the dispatcher alongside Poll; a no-op when
// raster mode is off.
func (e *Engine) PollRaster(now time.Time, stepInterval time.Duration) error {
	if !e.Raster.Enabled() {
		return nil
	}
	if !e.lastRasterStep.IsZero() && now.Sub(e.lastRasterStep) < stepInterval {
		return nil
	}
	e.lastRasterStep = now

	delta := e.Raster.Next()
	for _, tgt := range e.targets {
		if !tgt.Rasterable {
			continue
		}
		steps := radToSteps(delta, tgt.EStep, tgt.ESign)
		if steps == 0 {
			continue
		}
		if err := tgt.Eng.Rec.Control.Write(fmt.Sprintf("toffset+=%d", steps)); err != nil {
			return fmt.Errorf("tracking: raster toffset: %w", err)
		}
	}
	return nil
}

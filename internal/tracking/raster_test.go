package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRasterStateTriangleWave(t *testing.T) {
	var r RasterState
	r.Enable(4, 8)
	assert.True(t, r.Enabled())

	var total float64
	var steps []float64
	for i := 0; i < 8; i++ {
		d := r.Next()
		steps = append(steps, d)
		total += d
	}
	assert.InDelta(t, 2.0, steps[0], 1e-9)
	// a full there-and-back excursion returns to the start.
	assert.InDelta(t, 0, total, 1e-9)
}

func TestRasterStateDisabledYieldsNoStep(t *testing.T) {
	var r RasterState
	assert.False(t, r.Enabled())
	assert.Equal(t, 0.0, r.Next())

	r.Enable(0, 10)
	assert.False(t, r.Enabled())
}

func TestRadToStepsRoundTrips(t *testing.T) {
	steps := radToSteps(2*3.141592653589793, 51200, 1)
	assert.Equal(t, 51200, steps)
}

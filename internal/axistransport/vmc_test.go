package axistransport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualAxisHomingCompletesAfterEnoughSteps(t *testing.T) {
	axis := NewVirtualAxis()
	require.NoError(t, axis.write("home"))

	for i := 0; i < homingTicks-1; i++ {
		axis.Step(50)
		assert.False(t, axis.IsHomed())
	}
	axis.Step(50)
	assert.True(t, axis.IsHomed())

	pos, err := axis.readInt("=mpos")
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
}

func TestVirtualAxisSlewsTowardGoalAndStops(t *testing.T) {
	axis := NewVirtualAxis()
	require.NoError(t, axis.write("maxvel=1000"))
	require.NoError(t, axis.write("mtpos=5000"))

	// 1000 counts/s covers 5000 counts in 5s: 50 steps of 100ms.
	for i := 0; i < 50; i++ {
		axis.Step(100)
	}

	pos, err := axis.readInt("=mpos")
	require.NoError(t, err)
	assert.Equal(t, 5000, pos)

	vel, err := axis.readInt("=mvel")
	require.NoError(t, err)
	assert.Equal(t, 0, vel)
}

func TestVirtualAxisTrackProfileInterpolates(t *testing.T) {
	axis := NewVirtualAxis()
	require.NoError(t, axis.write("clock=0"))
	require.NoError(t, axis.write("etrack(0,1000,0,1000,2000,3000)"))

	axis.Step(500) // halfway between sample 0 and 1
	pos, err := axis.readInt("=mpos")
	require.NoError(t, err)
	assert.Equal(t, 500, pos)
}

func TestVirtualAxisToffsetShiftsTrackedPosition(t *testing.T) {
	axis := NewVirtualAxis()
	require.NoError(t, axis.write("etrack(0,1000,0,0,0,0)"))
	require.NoError(t, axis.write("toffset+=30"))

	axis.Step(10)
	pos, err := axis.readInt("=mpos")
	require.NoError(t, err)
	assert.Equal(t, 30, pos)
}

func TestVirtualAxisClearsHomedOnStepsChange(t *testing.T) {
	axis := NewVirtualAxis()
	require.NoError(t, axis.write("home"))
	for i := 0; i < homingTicks; i++ {
		axis.Step(50)
	}
	require.True(t, axis.IsHomed())

	require.NoError(t, axis.write("esteps=25600"))
	assert.False(t, axis.IsHomed())
}

func TestVirtualTransportStepAdvancesAllOpenedAxes(t *testing.T) {
	vt := NewVirtualTransport()
	c1, _, err := vt.Open(Address{Host: "vmc", Axis: 1})
	require.NoError(t, err)
	c2, _, err := vt.Open(Address{Host: "vmc", Axis: 2})
	require.NoError(t, err)

	require.NoError(t, c1.Write("maxvel=100"))
	require.NoError(t, c1.Write("mtpos=50"))
	require.NoError(t, c2.Write("maxvel=100"))
	require.NoError(t, c2.Write("mtpos=50"))

	vt.Step(1000)

	p1, err := c1.ReadInt("=mpos")
	require.NoError(t, err)
	p2, err := c2.ReadInt("=mpos")
	require.NoError(t, err)
	assert.Equal(t, 50, p1)
	assert.Equal(t, 50, p2)
}

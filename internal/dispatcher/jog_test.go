package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
)

func TestJogAxisForMapping(t *testing.T) {
	assert.Equal(t, "DEC", jogAxisFor('N'))
	assert.Equal(t, "DEC", jogAxisFor('s'))
	assert.Equal(t, "HA", jogAxisFor('E'))
	assert.Equal(t, "HA", jogAxisFor('w'))
	assert.Equal(t, "", jogAxisFor('Q'))
}

func TestHandleJogWhileIdleStartsVelocityJog(t *testing.T) {
	rig := newTestRig(t)
	code, _ := rig.d.Handle("jE")
	assert.Equal(t, 0, code)
	assert.True(t, rig.d.HA.Active())
	assert.Equal(t, axis.Slewing, rig.d.HA.State())
}

func TestHandleJogWhileTrackingAccumulatesOffset(t *testing.T) {
	rig := newTestRig(t)
	rig.d.trackActive = true

	code, _ := rig.d.Handle("jN")
	assert.Equal(t, 0, code)
	assert.True(t, rig.d.jogActive)
	assert.False(t, rig.d.Dec.Active())

	intent, ok := rig.d.jogIntents["DEC"]
	require.True(t, ok)
	assert.Equal(t, 1, intent.sign)
}

func TestHandleJogStopClearsIntents(t *testing.T) {
	rig := newTestRig(t)
	rig.d.trackActive = true
	_, _ = rig.d.Handle("jN")
	require.True(t, rig.d.jogActive)

	_, _ = rig.d.Handle("j0")
	assert.False(t, rig.d.jogActive)
	assert.Empty(t, rig.d.jogIntents)
}

func TestApplyJogOffsetsWritesControlLine(t *testing.T) {
	rig := newTestRig(t)
	rig.d.trackActive = true
	_, _ = rig.d.Handle("jE")

	require.NoError(t, rig.d.applyJogOffsets(0.1))
}

func TestApplyJogOffsetsNoopWhenInactive(t *testing.T) {
	rig := newTestRig(t)
	require.NoError(t, rig.d.applyJogOffsets(0.1))
}

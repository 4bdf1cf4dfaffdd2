package dispatcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
	"github.com/rockit-astro/superwasp-talon/internal/axistransport"
	"github.com/rockit-astro/superwasp-talon/internal/mountmodel"
)

// testRig bundles a dispatcher with its virtual transport so tests can
// drive simulated time forward and inspect the resulting observed state.
type testRig struct {
	d  *Dispatcher
	vt *axistransport.VirtualTransport
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	vt := axistransport.NewVirtualTransport()

	haAddr := axistransport.Address{Host: "vmc", Axis: 1}
	haControl, haStatus, err := vt.Open(haAddr)
	require.NoError(t, err)
	haRec := axis.NewRecord("HA", haControl, haStatus)
	haRec.Step, haRec.EStep = 51200, 51200
	haRec.HaveLimits = true
	haRec.NegLim, haRec.PosLim = -3.0, 3.0
	require.NoError(t, haRec.Control.Write("maxvel=20000"))

	decAddr := axistransport.Address{Host: "vmc", Axis: 2}
	decControl, decStatus, err := vt.Open(decAddr)
	require.NoError(t, err)
	decRec := axis.NewRecord("DEC", decControl, decStatus)
	decRec.Step, decRec.EStep = 51200, 51200
	decRec.HaveLimits = true
	decRec.NegLim, decRec.PosLim = -1.5, 1.5
	require.NoError(t, decRec.Control.Write("maxvel=20000"))

	d := New(axis.NewEngine(haRec), axis.NewEngine(decRec), nil)
	d.Mount = mountmodel.Axes{Latitude: 0.9, NegHA: -3.0, PosHA: 3.0}
	d.Lat = 0.9
	d.Dome = DomeConfig{Absent: true}
	d.VirtualMode = true
	d.Virtual = vt
	d.Jog = JogConfig{FineMotorVel: 0.001, CoarseMotorVel: 0.01, FineGuideVel: 0.0001, CoarseGuideVel: 0.001}

	return &testRig{d: d, vt: vt}
}

func (r *testRig) pollUntilIdle(t *testing.T, maxSteps int) {
	t.Helper()
	now := time.Now()
	for i := 0; i < maxSteps; i++ {
		now = now.Add(50 * time.Millisecond)
		r.d.Poll(now)
		snap := r.d.State.Read()
		if snap.TelescopeMode == axis.Idle {
			return
		}
	}
}

func TestDispatcherHomeCompletesBothAxes(t *testing.T) {
	rig := newTestRig(t)
	code, _ := rig.d.Handle("home")
	assert.Equal(t, 1, code)

	rig.pollUntilIdle(t, 200)

	assert.True(t, rig.d.HA.Rec.IsHomed)
	assert.True(t, rig.d.Dec.Rec.IsHomed)
}

func TestDispatcherSlewHorizonReachesTarget(t *testing.T) {
	rig := newTestRig(t)
	code, _ := rig.d.Handle("Alt:0.7 Az:1.0")
	require.Equal(t, 1, code)

	rig.pollUntilIdle(t, 400)

	snap := rig.d.State.Read()
	assert.Equal(t, axis.Idle, snap.TelescopeMode)
}

func TestDispatcherSlewRejectedBeyondSoftLimit(t *testing.T) {
	rig := newTestRig(t)
	rig.d.HA.Rec.PosLim = 0.01
	rig.d.HA.Rec.NegLim = -0.01

	code, msg := rig.d.Handle("HA:2.5 Dec:0.2")
	assert.Equal(t, -1, code)
	assert.Contains(t, msg, "Error")
}

func TestDispatcherResetStopsActivity(t *testing.T) {
	rig := newTestRig(t)
	_, _ = rig.d.Handle("Alt:0.7 Az:1.0")
	require.True(t, rig.d.HA.Active())

	code, _ := rig.d.Reset()
	assert.Equal(t, 0, code)
	assert.False(t, rig.d.HA.Active())
	assert.False(t, rig.d.Dec.Active())
}

func TestDispatcherStopClearsTrackingAndJog(t *testing.T) {
	rig := newTestRig(t)
	rig.d.trackActive = true
	rig.d.jogActive = true

	code, _ := rig.d.Handle("stop")
	assert.Equal(t, 0, code)
	assert.False(t, rig.d.trackActive)
	assert.False(t, rig.d.jogActive)
}

func TestDispatcherDomeInterferenceRejectsSlew(t *testing.T) {
	rig := newTestRig(t)
	rig.d.Dome = DomeConfig{
		Absent: false, Open: false,
		NegAltLimDC: -2, PosAltLimDC: -1, // impossibly narrow window, always violated
		NegAzLimDC: -10, PosAzLimDC: 10,
	}

	code, msg := rig.d.Handle("Alt:0.7 Az:1.0")
	require.Equal(t, -1, code)
	assert.Contains(t, msg, "altitude limit")
}

func TestAggregateModeReflectsGroupActivity(t *testing.T) {
	rig := newTestRig(t)
	_, _ = rig.d.Handle("home")
	assert.Equal(t, axis.Homing, rig.d.aggregateMode())
}

func TestMJDIsMonotonic(t *testing.T) {
	t1 := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)
	assert.Less(t, mjd(t1), mjd(t2))
}

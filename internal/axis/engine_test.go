package axis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockit-astro/superwasp-talon/internal/axistransport"
)

func newTestRecord(t *testing.T) (*Record, *axistransport.VirtualAxis) {
	t.Helper()
	vt := axistransport.NewVirtualTransport()
	addr := axistransport.Address{Host: "vmc", Axis: 1}
	control, status, err := vt.Open(addr)
	require.NoError(t, err)
	va, _ := vt.Axis(addr)

	rec := NewRecord("ha", control, status)
	rec.Step, rec.EStep = 51200, 51200
	rec.HaveLimits = true
	rec.NegLim, rec.PosLim = -3.2, 3.2
	return rec, va
}

func TestEngineHomingCompletes(t *testing.T) {
	rec, va := newTestRecord(t)
	eng := NewEngine(rec)

	c, err := StartHoming(rec, time.Minute)
	require.NoError(t, err)
	eng.Begin(c)

	var outcome Outcome
	for i := 0; i < 25; i++ {
		va.Step(50)
		outcome, _ = eng.Poll(Tick{Now: time.Now()})
		if outcome != Continue {
			break
		}
	}
	assert.Equal(t, Done, outcome)
	assert.True(t, rec.IsHomed)
	assert.False(t, eng.Active())
}

func TestEngineHomingTimesOut(t *testing.T) {
	rec, _ := newTestRecord(t)
	eng := NewEngine(rec)

	c, err := StartHoming(rec, -time.Second) // already expired
	require.NoError(t, err)
	eng.Begin(c)

	outcome, msg := eng.Poll(Tick{Now: time.Now()})
	assert.Equal(t, Failed, outcome)
	assert.Contains(t, msg, "timed out")
	assert.False(t, rec.IsHomed)
}

func TestEngineSlewArrivesAndStabilises(t *testing.T) {
	rec, va := newTestRecord(t)
	require.NoError(t, rec.Control.Write("maxvel=2000"))
	eng := NewEngine(rec)

	c, err := StartSlew(rec, 1000, rec.EffectiveAcquireAcc(0), 0.5)
	require.NoError(t, err)
	eng.Begin(c)

	now := time.Now()
	var outcome Outcome
	for i := 0; i < 40; i++ {
		va.Step(100)
		now = now.Add(100 * time.Millisecond)
		outcome, _ = eng.Poll(Tick{Now: now})
		if outcome != Continue {
			break
		}
	}
	assert.Equal(t, Done, outcome)
	assert.Equal(t, 1000, rec.Raw)
}

func TestEngineSlewFailsOnSoftLimit(t *testing.T) {
	rec, va := newTestRecord(t)
	rec.PosLim = 0.0001 // cpos will immediately exceed this once non-zero
	eng := NewEngine(rec)

	require.NoError(t, rec.Control.Write("maxvel=100000"))
	c, err := StartSlew(rec, 50000, rec.EffectiveAcquireAcc(0), 0.5)
	require.NoError(t, err)
	eng.Begin(c)

	va.Step(1000)
	outcome, msg := eng.Poll(Tick{Now: time.Now()})
	assert.Equal(t, Failed, outcome)
	assert.Contains(t, msg, "soft limits")
}

func TestEngineStopClearsActivity(t *testing.T) {
	rec, _ := newTestRecord(t)
	eng := NewEngine(rec)

	c, err := StartHoming(rec, time.Minute)
	require.NoError(t, err)
	eng.Begin(c)
	require.True(t, eng.Active())

	require.NoError(t, eng.Stop(false))
	assert.False(t, eng.Active())
	assert.Equal(t, Idle, eng.State())
}

func TestHuntingPromotesAfterStableSecond(t *testing.T) {
	rec, _ := newTestRecord(t)
	eng := NewEngine(rec)
	eng.Begin(StartHunting(rec, func() (bool, error) { return true, nil }))

	now := time.Now()
	outcome, _ := eng.Poll(Tick{Now: now})
	assert.Equal(t, Continue, outcome)

	outcome, _ = eng.Poll(Tick{Now: now.Add(1100 * time.Millisecond)})
	assert.Equal(t, Done, outcome)
}

func TestTrackingDemotesOnDrift(t *testing.T) {
	rec, _ := newTestRecord(t)
	eng := NewEngine(rec)
	drifted := false
	eng.Begin(StartTracking(rec, func() (bool, error) { return !drifted, nil }))

	outcome, _ := eng.Poll(Tick{Now: time.Now()})
	assert.Equal(t, Continue, outcome)

	drifted = true
	outcome, msg := eng.Poll(Tick{Now: time.Now()})
	assert.Equal(t, Failed, outcome)
	assert.Contains(t, msg, "demoting to hunting")
}

func TestDirectionSignDecoding(t *testing.T) {
	sign, coarse, stop, ok := DirectionSign('N')
	assert.True(t, ok)
	assert.Equal(t, 1, sign)
	assert.True(t, coarse)
	assert.False(t, stop)

	_, _, stop, ok = DirectionSign('0')
	assert.True(t, ok)
	assert.True(t, stop)

	_, _, _, ok = DirectionSign('Q')
	assert.False(t, ok)
}

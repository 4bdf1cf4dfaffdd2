package dispatcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
	"github.com/rockit-astro/superwasp-talon/internal/axistransport"
	"github.com/rockit-astro/superwasp-talon/internal/mountmodel"
)

func newLimitRecord(t *testing.T, id string, neg, pos float64) *axis.Record {
	t.Helper()
	vt := axistransport.NewVirtualTransport()
	addr := axistransport.Address{Host: "vmc", Axis: 1}
	control, status, err := vt.Open(addr)
	require.NoError(t, err)
	rec := axis.NewRecord(id, control, status)
	rec.HaveLimits = true
	rec.NegLim, rec.PosLim = neg, pos
	return rec
}

func TestCheckAxisLimitWithinRange(t *testing.T) {
	rec := newLimitRecord(t, "dec", -1.5, 1.5)
	v, err := checkAxisLimit(rec, "Dec", 0.5, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-9)
}

func TestCheckAxisLimitRejectsBeyondPositive(t *testing.T) {
	rec := newLimitRecord(t, "dec", -1.5, 1.5)
	_, err := checkAxisLimit(rec, "Dec", 2.0, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive limit")
}

func TestCheckAxisLimitWrapsHAEscapesGap(t *testing.T) {
	rec := newLimitRecord(t, "ha", -3.0, 3.0)
	// 3.5 is just past the positive limit; with wrap allowed it should
	// escape by subtracting a full revolution into range.
	v, err := checkAxisLimit(rec, "HA", 3.5, true)
	require.NoError(t, err)
	assert.Less(t, v, rec.PosLim)
	assert.Greater(t, v, rec.NegLim)
}

func TestCheckAxisLimitNoLimitsConfigured(t *testing.T) {
	rec := newLimitRecord(t, "rot", 0, 0)
	rec.HaveLimits = false
	v, err := checkAxisLimit(rec, "Rot", 1e6, false)
	require.NoError(t, err)
	assert.Equal(t, 1e6, v)
}

func TestDomeEnvelopeRejectsAltitude(t *testing.T) {
	cfg := DomeConfig{NegAltLimDC: 0.1, PosAltLimDC: 1.4, NegAzLimDC: -10, PosAzLimDC: 10}
	err := checkDomeEnvelope(cfg, 0.05, 1.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative altitude")
}

func TestDomeEnvelopeAcceptsWithinRange(t *testing.T) {
	cfg := DomeConfig{NegAltLimDC: 0.1, PosAltLimDC: 1.4, NegAzLimDC: -10, PosAzLimDC: 10}
	require.NoError(t, checkDomeEnvelope(cfg, 0.5, 1.0))
}

// TestChkLimitsRejectsBelowMinAlt covers spec §8 boundary scenario 2
// ("Limit protection"): a horizon request below MINALT must fail with a
// negative-limit message before any motor command is issued, independent
// of any per-axis soft limit or dome envelope.
func TestChkLimitsRejectsBelowMinAlt(t *testing.T) {
	lat := 0.5 // rad
	minAlt := 15.0 * math.Pi / 180

	haRec := newLimitRecord(t, "HA", 0, 0)
	haRec.HaveLimits = false
	decRec := newLimitRecord(t, "DEC", 0, 0)
	decRec.HaveLimits = false

	d := New(axis.NewEngine(haRec), axis.NewEngine(decRec), nil)
	d.Mount = mountmodel.Axes{Latitude: lat, NegHA: -3.0, PosHA: 3.0}
	d.Lat = lat
	d.MinAlt = minAlt
	d.Dome = DomeConfig{Absent: true}

	lowAlt := 0.1 * math.Pi / 180
	ha, dec := mountmodel.AltAzToHADec(lowAlt, 0, lat)

	_, _, _, err := d.chkLimits(ha, dec, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hits negative limit")
}

// TestChkLimitsAcceptsAboveMinAlt is the counterpart: a target well above
// the floor must not be rejected by the MinAlt check.
func TestChkLimitsAcceptsAboveMinAlt(t *testing.T) {
	lat := 0.5 // rad
	minAlt := 15.0 * math.Pi / 180

	haRec := newLimitRecord(t, "HA", 0, 0)
	haRec.HaveLimits = false
	decRec := newLimitRecord(t, "DEC", 0, 0)
	decRec.HaveLimits = false

	d := New(axis.NewEngine(haRec), axis.NewEngine(decRec), nil)
	d.Mount = mountmodel.Axes{Latitude: lat, NegHA: -3.0, PosHA: 3.0}
	d.Lat = lat
	d.MinAlt = minAlt
	d.Dome = DomeConfig{Absent: true}

	highAlt := 60.0 * math.Pi / 180
	ha, dec := mountmodel.AltAzToHADec(highAlt, 0, lat)

	_, _, _, err := d.chkLimits(ha, dec, 0)
	require.NoError(t, err)
}

func TestDomeInterferenceAppliesRespectsOpenAndEngMode(t *testing.T) {
	d := DomeConfig{Absent: false, Open: false}
	assert.True(t, d.interferenceApplies(false))
	assert.False(t, d.interferenceApplies(true))

	open := DomeConfig{Open: true}
	assert.False(t, open.interferenceApplies(false))

	absent := DomeConfig{Absent: true}
	assert.False(t, absent.interferenceApplies(false))
}

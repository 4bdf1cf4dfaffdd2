package resolver

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestApparentReturnsHAFromLST(t *testing.T) {
	at := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	f := Fixed{LongitudeRad: 0, Now: fixedClock(at)}

	eph, err := f.Apparent(1.0, 0.3, 2000, true)
	require.NoError(t, err)

	ha, dec, err := eph(0)
	require.NoError(t, err)
	assert.Equal(t, 0.3, dec)
	assert.True(t, ha >= -math.Pi && ha <= math.Pi)
}

func TestApparentAdvancesWithTimeOffset(t *testing.T) {
	at := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	f := Fixed{Now: fixedClock(at)}

	eph, err := f.Apparent(1.0, 0.3, 2000, true)
	require.NoError(t, err)

	ha0, _, _ := eph(0)
	ha1, _, _ := eph(3600) // one hour later: HA should have advanced by ~sidereal rate

	delta := ha1 - ha0
	if delta < -math.Pi {
		delta += 2 * math.Pi
	}
	assert.InDelta(t, 15*math.Pi/180, delta, 0.01)
}

func TestDBLineParsesFixedStar(t *testing.T) {
	at := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	f := Fixed{Now: fixedClock(at)}

	eph, err := f.DBLine("Vega,f|S,18:36:56.3,38:47:01,0.03")
	require.NoError(t, err)

	_, dec, err := eph(0)
	require.NoError(t, err)
	assert.InDelta(t, 38.78*math.Pi/180, dec, 0.01)
}

func TestDBLineRejectsNonFixed(t *testing.T) {
	f := Fixed{}
	_, err := f.DBLine("Mars,P,,,,,")
	assert.Error(t, err)
}

func TestDBLineRejectsMalformed(t *testing.T) {
	f := Fixed{}
	_, err := f.DBLine("onlyonefield")
	assert.Error(t, err)
}

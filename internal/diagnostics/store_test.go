package diagnostics

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockit-astro/superwasp-talon/internal/telstate"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telemetry.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordTransitionAndQuery(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordTransition(1000, "HA", "IDLE", "SLEWING", "goal set"))
	require.NoError(t, s.RecordTransition(1001, "HA", "SLEWING", "HUNTING", ""))
	require.NoError(t, s.RecordTransition(1002, "DEC", "IDLE", "SLEWING", "goal set"))

	rows, err := s.RecentTransitions("HA", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "HUNTING", rows[0].To)
	assert.Equal(t, "SLEWING", rows[1].To)
}

func TestRecordTransitionAllAxes(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RecordTransition(1, "HA", "IDLE", "SLEWING", ""))
	require.NoError(t, s.RecordTransition(2, "DEC", "IDLE", "SLEWING", ""))

	rows, err := s.RecentTransitions("", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRecordSnapshot(t *testing.T) {
	s := openTestStore(t)
	snap := &telstate.Snapshot{
		Version:     3,
		ApparentRA:  1.0,
		ApparentDec: 0.5,
		ApparentHA:  -0.1,
		Alt:         0.7,
		Az:          2.1,
	}
	require.NoError(t, s.RecordSnapshot(5000, snap))
}

func TestOpenTwiceIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	require.NoError(t, s2.RecordTransition(1, "ROT", "IDLE", "SLEWING", ""))
}

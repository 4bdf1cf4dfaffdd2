package telstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
)

func TestUpdateIncrementsVersionMonotonically(t *testing.T) {
	s := New()
	assert.Equal(t, int64(0), s.Read().Version)

	s.Update(func(prev Snapshot) Snapshot {
		prev.TelescopeMode = axis.Slewing
		return prev
	})
	assert.Equal(t, int64(1), s.Read().Version)

	s.Update(func(prev Snapshot) Snapshot {
		prev.TelescopeMode = axis.Tracking
		return prev
	})
	snap := s.Read()
	assert.Equal(t, int64(2), snap.Version)
	assert.Equal(t, axis.Tracking, snap.TelescopeMode)
}

func TestReadIsStableAcrossConcurrentUpdate(t *testing.T) {
	s := New()
	before := s.Read()
	s.Update(func(prev Snapshot) Snapshot {
		prev.Az = 42
		return prev
	})
	after := s.Read()

	assert.Equal(t, float64(0), before.Az)
	assert.Equal(t, float64(42), after.Az)
}

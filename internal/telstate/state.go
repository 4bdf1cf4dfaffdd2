// Package telstate implements the observed-state record of spec §3/§5: a
// single process-wide snapshot of telescope state, written only by the
// dispatcher thread and read by peers through a monotonically increasing
// state-change counter that lets readers detect a torn read.
package telstate

import (
	"sync"
	"time"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
)

// Mode mirrors the six telescope-wide modes of spec §3's observed state.
type Mode = axis.State

// AxisStatus is the per-axis slice of the observed-state record.
type AxisStatus struct {
	ID      string
	CPos    float64
	DPos    float64
	State   axis.State
	IsHomed bool
}

// DomeStatus is the dome/shutter slice of the observed-state record.
type DomeStatus struct {
	Open      bool
	Azimuth   float64
	EngMode   bool
	JoggingOn bool
}

// Snapshot is an immutable copy of the observed state at one instant,
// safe to read without synchronisation once obtained from State.Read.
type Snapshot struct {
	Version int64

	ApparentRA, ApparentDec, ApparentHA float64
	J2000RA, J2000Dec                   float64
	Alt, Az                             float64
	DesiredAlt, DesiredAz               float64

	TelescopeMode Mode
	Axes          []AxisStatus
	Dome          DomeStatus

	LastUpdate time.Time
}

// State is the single-writer, many-reader observed-state record. Only the
// dispatcher goroutine calls Update; any number of peers call Read
// concurrently. Read and Update both hold a mutex briefly: Update while it
// builds and installs the next snapshot, Read only to copy the current
// snapshot pointer, never the full record.
type State struct {
	mu      sync.Mutex
	current *Snapshot
	version int64
}

// New returns an empty observed-state record at version 0.
func New() *State {
	return &State{current: &Snapshot{}}
}

// Read returns the most recent snapshot. Per spec §5(c), a caller that
// needs a self-consistent view across multiple fields should call Read
// twice around its own work and compare Version; if it changed, retry.
func (s *State) Read() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update installs a new snapshot, incrementing the state-change counter.
// mutate receives a copy of the previous snapshot's value to modify and
// return; Update stamps Version and LastUpdate itself, satisfying spec §8
// invariant 5 ("the state-change counter is monotonically non-decreasing;
// every transition increments it exactly once").
func (s *State) Update(mutate func(prev Snapshot) Snapshot) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := mutate(*s.current)
	s.version++
	next.Version = s.version
	next.LastUpdate = timeNow()
	s.current = &next
	return s.current
}

// timeNow is indirected so tests can substitute a deterministic clock.
var timeNow = time.Now

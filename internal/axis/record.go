// Package axis implements C3, the per-axis activity engine: the state
// machine each mount axis (HA, Dec, Rotator, and the simpler focus/filter
// axes) runs through while homing, finding limits, slewing, hunting for
// lock, or tracking, plus the stuck-axis and jog primitives shared by all
// of those activities.
package axis

import (
	"fmt"
	"math"

	"github.com/rockit-astro/superwasp-talon/internal/axistransport"
)

// Record is one controllable axis (spec §3's axis record): its capability
// flags, sign/step conventions, soft limits, and the transport handles it
// polls and commands through.
type Record struct {
	ID string

	Have, HaveEncoder, HaveLimits, EncHome bool
	Sign, ESign                            int
	Step, EStep                            int
	MaxVel, MaxAcc, SLimAcc                float64
	PosLim, NegLim                         float64

	Raw  int
	CPos float64
	CVel float64
	DPos float64

	IsHomed, Homing, Limiting bool

	Control, Status axistransport.Channel
}

// NewRecord returns a Record with the default +1 sign conventions.
func NewRecord(id string, control, status axistransport.Channel) *Record {
	return &Record{ID: id, Sign: 1, ESign: 1, Control: control, Status: status}
}

// Validate checks the invariants spec §3 places on an axis record:
// sign·sign = 1 and neg_lim < pos_lim.
func (r *Record) Validate() error {
	if r.Sign != 1 && r.Sign != -1 {
		return fmt.Errorf("axis %s: sign must be +-1, got %d", r.ID, r.Sign)
	}
	if r.HaveEncoder && r.ESign != 1 && r.ESign != -1 {
		return fmt.Errorf("axis %s: esign must be +-1, got %d", r.ID, r.ESign)
	}
	if r.HaveLimits && r.NegLim >= r.PosLim {
		return fmt.Errorf("axis %s: neg_lim (%v) must be < pos_lim (%v)", r.ID, r.NegLim, r.PosLim)
	}
	return nil
}

// RefreshPosition polls the raw counter and recomputes the cooked position,
// enforcing spec §3's invariant: cpos = 2π·esign·raw/estep for an
// encoder-equipped axis, else cpos = 2π·sign·raw/step.
func (r *Record) RefreshPosition() error {
	query := "=mpos"
	if r.HaveEncoder {
		query = "=epos"
	}
	raw, err := r.Status.ReadInt(query)
	if err != nil {
		return fmt.Errorf("axis %s: read position: %w", r.ID, err)
	}
	r.Raw = raw
	if r.HaveEncoder {
		r.CPos = 2 * math.Pi * float64(r.ESign) * float64(raw) / float64(r.EStep)
	} else {
		r.CPos = 2 * math.Pi * float64(r.Sign) * float64(raw) / float64(r.Step)
	}
	return nil
}

// ReadVelocityCountsPerSec polls the controller-reported raw velocity.
func (r *Record) ReadVelocityCountsPerSec() (float64, error) {
	v, err := r.Status.ReadInt("=mvel")
	if err != nil {
		return 0, fmt.Errorf("axis %s: read velocity: %w", r.ID, err)
	}
	return float64(v), nil
}

// EffectiveAcquireAcc returns the configured acquisition tolerance, or, if
// unset, 1.5 encoder (or motor) steps expressed in raw counts — spec §4.3's
// "acquire_acc (or 1.5x one encoder step if zero)".
func (r *Record) EffectiveAcquireAcc(configuredRawCounts float64) float64 {
	if configuredRawCounts != 0 {
		return configuredRawCounts
	}
	return 1.5
}

// RawGoal converts a cooked-position goal (radians) into the raw counter
// value RefreshPosition's inverse would report, so continuations can
// compare against the controller's integer counts directly.
func (r *Record) RawGoal(goalCPos float64) int {
	if r.HaveEncoder {
		return int(math.Round(goalCPos * float64(r.EStep) / (2 * math.Pi * float64(r.ESign))))
	}
	return int(math.Round(goalCPos * float64(r.Step) / (2 * math.Pi * float64(r.Sign))))
}

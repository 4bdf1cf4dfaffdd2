package axistransport

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// homingTicks and limitingTicks are the simulated number of Step() calls a
// virtual axis takes to complete a home or limit search, independent of the
// dispatcher's real poll rate.
const (
	homingTicks  = 20
	limitingTicks = 30
)

// VirtualAxis simulates one axis's raw counter, velocity, tracking profile,
// and controller-local clock in memory, standing in for the real motor
// controller node when the process runs with virtual_mode set (spec §4.1).
type VirtualAxis struct {
	mu sync.Mutex

	stepsPerRev  int
	eStepsPerRev int
	sign         int
	esign        int
	maxVel       float64
	maxAcc       float64
	limAcc       float64
	ipolar       int

	raw          float64
	velCountsSec float64

	haveGoal bool
	goalRaw  float64
	velMode  bool // mtvel constant-velocity slew rather than mtpos

	profile         []float64
	profileInterval int64 // ms
	profileElapsed  int64 // ms since profile download
	profileActive   bool

	toffset float64

	clockMs int64
	timeout int64

	homed         bool
	homingLeft    int
	limitingLeft  int
	limitNegFound bool
	limitPosFound bool
	negLimRaw     float64
	posLimRaw     float64
	hasLimits     bool

	closed bool
}

// NewVirtualAxis returns a freshly reset simulated axis.
func NewVirtualAxis() *VirtualAxis {
	return &VirtualAxis{sign: 1, esign: 1, stepsPerRev: 51200, eStepsPerRev: 51200}
}

// Step advances the simulation by dtMillis milliseconds. The dispatcher
// calls this once per axis, per poll tick, only in virtual mode (spec §4.5:
// "for virtual mode, advance each simulated axis one step").
func (v *VirtualAxis) Step(dtMillis int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || dtMillis <= 0 {
		return
	}
	v.clockMs += dtMillis
	dt := float64(dtMillis) / 1000.0

	switch {
	case v.homingLeft > 0:
		v.homingLeft--
		if v.homingLeft == 0 {
			v.raw = 0
			v.velCountsSec = 0
			v.homed = true
		}
	case v.limitingLeft > 0:
		v.limitingLeft--
		if v.limitingLeft == 0 {
			v.limitNegFound = true
			v.limitPosFound = true
			v.hasLimits = true
		}
	case v.profileActive:
		v.profileElapsed += dtMillis
		v.raw = v.sampleProfile() + v.toffset
	case v.haveGoal:
		v.advanceTowardGoal(dt)
	}
}

func (v *VirtualAxis) sampleProfile() float64 {
	if len(v.profile) == 0 || v.profileInterval <= 0 {
		return v.raw
	}
	n := len(v.profile)
	total := v.profileInterval * int64(n)
	elapsed := v.profileElapsed % total
	pos := float64(elapsed) / float64(v.profileInterval)
	i := int(pos)
	if i >= n {
		i = n - 1
	}
	j := (i + 1) % n
	frac := pos - float64(i)
	return v.profile[i]*(1-frac) + v.profile[j]*frac
}

func (v *VirtualAxis) advanceTowardGoal(dt float64) {
	if v.velMode {
		v.raw += v.velCountsSec * dt
		return
	}
	delta := v.goalRaw - v.raw
	maxStep := v.maxVel * dt
	if maxStep <= 0 {
		maxStep = math.Abs(delta)
	}
	if math.Abs(delta) <= maxStep {
		v.raw = v.goalRaw
		v.velCountsSec = 0
		v.haveGoal = false
		return
	}
	if delta > 0 {
		v.raw += maxStep
		v.velCountsSec = v.maxVel
	} else {
		v.raw -= maxStep
		v.velCountsSec = -v.maxVel
	}
}

// write parses one textual setpoint or script command. Command names mirror
// the csimc-style vocabulary named in spec §4.1/§4.4: msteps, esteps, esign,
// maxvel, maxacc, limacc, ipolar, mtpos, mtvel, etrack/mtrack, toffset,
// clock, timeout, plus the home/limits/stop scripts dispatched by C3.
func (v *VirtualAxis) write(text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return fmt.Errorf("axistransport: vmc write on closed axis")
	}

	cmd := strings.TrimSuffix(strings.TrimSpace(text), ";")
	switch {
	case cmd == "home":
		v.homed = false
		v.homingLeft = homingTicks
		v.haveGoal = false
		v.profileActive = false
	case cmd == "limits":
		v.limitNegFound, v.limitPosFound = false, false
		v.limitingLeft = limitingTicks
		v.haveGoal = false
		v.profileActive = false
	case cmd == "stop" || cmd == "pstop":
		v.haveGoal = false
		v.profileActive = false
		v.velCountsSec = 0
		v.homingLeft = 0
		v.limitingLeft = 0
	case strings.HasPrefix(cmd, "msteps="):
		n, err := strconv.Atoi(valueOf(cmd))
		if err != nil {
			return err
		}
		v.stepsPerRev = n
		v.homed = false
	case strings.HasPrefix(cmd, "esteps="):
		n, err := strconv.Atoi(valueOf(cmd))
		if err != nil {
			return err
		}
		v.eStepsPerRev = n
		v.homed = false
	case strings.HasPrefix(cmd, "esign="):
		n, err := strconv.Atoi(valueOf(cmd))
		if err != nil {
			return err
		}
		v.esign = n
		v.homed = false
	case strings.HasPrefix(cmd, "sign="):
		n, err := strconv.Atoi(valueOf(cmd))
		if err != nil {
			return err
		}
		v.sign = n
	case strings.HasPrefix(cmd, "maxvel="):
		f, err := strconv.ParseFloat(valueOf(cmd), 64)
		if err != nil {
			return err
		}
		v.maxVel = f
	case strings.HasPrefix(cmd, "maxacc="):
		f, err := strconv.ParseFloat(valueOf(cmd), 64)
		if err != nil {
			return err
		}
		v.maxAcc = f
	case strings.HasPrefix(cmd, "limacc="):
		f, err := strconv.ParseFloat(valueOf(cmd), 64)
		if err != nil {
			return err
		}
		v.limAcc = f
	case strings.HasPrefix(cmd, "ipolar="):
		n, err := strconv.Atoi(valueOf(cmd))
		if err != nil {
			return err
		}
		v.ipolar = n
	case strings.HasPrefix(cmd, "mtpos="):
		f, err := strconv.ParseFloat(valueOf(cmd), 64)
		if err != nil {
			return err
		}
		v.goalRaw = f
		v.haveGoal = true
		v.velMode = false
		v.profileActive = false
	case strings.HasPrefix(cmd, "mtvel="):
		f, err := strconv.ParseFloat(valueOf(cmd), 64)
		if err != nil {
			return err
		}
		v.velCountsSec = f
		v.haveGoal = true
		v.velMode = true
		v.profileActive = false
	case strings.HasPrefix(cmd, "toffset+="):
		f, err := strconv.ParseFloat(strings.TrimPrefix(cmd, "toffset+="), 64)
		if err != nil {
			return err
		}
		v.toffset += f
	case strings.HasPrefix(cmd, "toffset="):
		f, err := strconv.ParseFloat(valueOf(cmd), 64)
		if err != nil {
			return err
		}
		v.toffset = f
	case cmd == "clock=0":
		v.clockMs = 0
	case strings.HasPrefix(cmd, "timeout="):
		n, err := strconv.ParseInt(valueOf(cmd), 10, 64)
		if err != nil {
			return err
		}
		v.timeout = n
	case strings.HasPrefix(cmd, "etrack(") || strings.HasPrefix(cmd, "mtrack("):
		return v.loadProfile(cmd)
	default:
		return fmt.Errorf("axistransport: vmc unrecognised command %q", cmd)
	}
	return nil
}

func valueOf(assignment string) string {
	idx := strings.IndexByte(assignment, '=')
	if idx < 0 {
		return ""
	}
	return assignment[idx+1:]
}

// loadProfile parses "etrack(0,intervalMs,v0,v1,...,vN-1)" / the mtrack
// equivalent into the simulated tracking profile (spec §4.4).
func (v *VirtualAxis) loadProfile(cmd string) error {
	open := strings.IndexByte(cmd, '(')
	close := strings.LastIndexByte(cmd, ')')
	if open < 0 || close < 0 || close <= open {
		return fmt.Errorf("axistransport: malformed track command %q", cmd)
	}
	fields := strings.Split(cmd[open+1:close], ",")
	if len(fields) < 3 {
		return fmt.Errorf("axistransport: track command %q missing samples", cmd)
	}
	interval, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return fmt.Errorf("axistransport: track command interval: %w", err)
	}
	samples := make([]float64, 0, len(fields)-2)
	for _, f := range fields[2:] {
		s, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return fmt.Errorf("axistransport: track command sample: %w", err)
		}
		samples = append(samples, s)
	}
	v.profile = samples
	v.profileInterval = interval
	v.profileElapsed = 0
	v.profileActive = true
	v.haveGoal = false
	return nil
}

func (v *VirtualAxis) readInt(query string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0, fmt.Errorf("axistransport: vmc read on closed axis")
	}
	switch strings.TrimSpace(query) {
	case "=mpos", "=epos":
		return int(math.Round(v.raw)), nil
	case "=mvel":
		return int(math.Round(v.velCountsSec)), nil
	case "=clock":
		return int(v.clockMs), nil
	case "=homed":
		if v.homed {
			return 1, nil
		}
		return 0, nil
	case "=neglimfound":
		if v.limitNegFound {
			return 1, nil
		}
		return 0, nil
	case "=poslimfound":
		if v.limitPosFound {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("axistransport: vmc unknown query %q", query)
	}
}

func (v *VirtualAxis) readNonBlocking() ([]byte, error) {
	return nil, nil
}

func (v *VirtualAxis) interrupt() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.haveGoal = false
	v.profileActive = false
	v.velCountsSec = 0
	v.homingLeft = 0
	v.limitingLeft = 0
	return nil
}

func (v *VirtualAxis) close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

// IsHomed reports the simulated axis's homed flag, for tests that want to
// assert on simulation state directly rather than through ReadInt.
func (v *VirtualAxis) IsHomed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.homed
}

type virtualChannel struct{ axis *VirtualAxis }

func (c *virtualChannel) Write(text string) error { return c.axis.write(text) }
func (c *virtualChannel) ReadInt(query string) (int, error) { return c.axis.readInt(query) }
func (c *virtualChannel) ReadNonBlocking() ([]byte, error) { return c.axis.readNonBlocking() }
func (c *virtualChannel) Interrupt() error { return c.axis.interrupt() }
func (c *virtualChannel) Close() error { return c.axis.close() }

// VirtualTransport is the vmc* transport: it simulates every operation
// without hardware so the dispatcher's two code paths (real/virtual)
// produce identical observable state (spec §4.1).
type VirtualTransport struct {
	mu    sync.Mutex
	axes  map[Address]*VirtualAxis
	order []Address
}

// NewVirtualTransport creates an empty virtual transport.
func NewVirtualTransport() *VirtualTransport {
	return &VirtualTransport{axes: make(map[Address]*VirtualAxis)}
}

func (t *VirtualTransport) Open(addr Address) (control, status Channel, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	axis, ok := t.axes[addr]
	if !ok {
		axis = NewVirtualAxis()
		t.axes[addr] = axis
		t.order = append(t.order, addr)
	}
	return &virtualChannel{axis}, &virtualChannel{axis}, nil
}

// Step advances every virtual axis opened so far by dtMillis milliseconds.
// The dispatcher poll loop calls this once per tick when running in
// virtual mode (spec §4.5).
func (t *VirtualTransport) Step(dtMillis int64) {
	t.mu.Lock()
	axes := make([]*VirtualAxis, 0, len(t.order))
	for _, addr := range t.order {
		axes = append(axes, t.axes[addr])
	}
	t.mu.Unlock()

	for _, axis := range axes {
		axis.Step(dtMillis)
	}
}

// Axis returns the simulated axis for addr if it has been opened, for tests
// that need to inject faults (e.g. force a limit hit) directly.
func (t *VirtualTransport) Axis(addr Address) (*VirtualAxis, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.axes[addr]
	return a, ok
}

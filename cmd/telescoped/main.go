// Command telescoped is the motion-control core process (spec §1/§2): it
// loads configuration, opens the axis transports (real or virtual), wires
// C1-C5 into a Dispatcher, and runs the fixed-rate poll loop against a
// message FIFO pair, mirroring the shape cmd/radar wires config -> serial
// transport -> domain engine -> admin/status surface in the teacher.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"tailscale.com/tsweb"

	"github.com/rockit-astro/superwasp-talon/internal/axis"
	"github.com/rockit-astro/superwasp-talon/internal/axistransport"
	"github.com/rockit-astro/superwasp-talon/internal/diagnostics"
	"github.com/rockit-astro/superwasp-talon/internal/dispatcher"
	"github.com/rockit-astro/superwasp-talon/internal/mountmodel"
	"github.com/rockit-astro/superwasp-talon/internal/resolver"
	"github.com/rockit-astro/superwasp-talon/internal/statusgrpc"
	"github.com/rockit-astro/superwasp-talon/internal/statusgrpc/statuspb"
	"github.com/rockit-astro/superwasp-talon/internal/tconfig"
	"github.com/rockit-astro/superwasp-talon/internal/tlog"
	"github.com/rockit-astro/superwasp-talon/internal/tracking"
)

var (
	configDir    = flag.String("config-dir", "/usr/local/telescope/etc", "directory containing telsched.cfg, telescoped.cfg, hc.cfg")
	meshPath     = flag.String("mesh", "", "path to the pointing-mesh table (empty uses the identity mesh)")
	virtualMode  = flag.Bool("vmc", false, "run against the in-process virtual motion controller instead of hardware")
	fifoIn       = flag.String("fifo-in", "", "path to the incoming command FIFO (empty reads stdin)")
	fifoOut      = flag.String("fifo-out", "", "path to the outgoing status FIFO (empty writes stdout)")
	pollHz       = flag.Float64("poll-hz", 10, "fixed poll rate in Hz (spec §4.5)")
	dbPath       = flag.String("diagnostics-db", "telescoped_diagnostics.db", "path to the sqlite telemetry log")
	grpcListen   = flag.String("grpc-listen", "localhost:50061", "gRPC listen address for observed-state streaming")
	debugListen  = flag.String("debug-listen", "localhost:8092", "HTTP listen address for /debug/ admin routes")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	d, err := buildDispatcher()
	if err != nil {
		log.Fatalf("telescoped: configuration error: %v", err)
	}

	store, err := diagnostics.Open(*dbPath)
	if err != nil {
		log.Fatalf("telescoped: open diagnostics store: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runGRPC(ctx, d)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runDebugHTTP(ctx, d)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runPollLoop(ctx, d, store)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runCommandLoop(ctx, d)
	}()

	wg.Wait()
	log.Printf("telescoped: shutdown complete")
}

// buildDispatcher loads telsched.cfg/telescoped.cfg/hc.cfg, constructs the
// mount-axes geometry, per-axis records and transports, and returns a
// ready-to-poll Dispatcher.
func buildDispatcher() (*dispatcher.Dispatcher, error) {
	sched, err := tconfig.Load(filepath.Join(*configDir, "telsched.cfg"))
	if err != nil {
		return nil, err
	}
	tel, err := tconfig.Load(filepath.Join(*configDir, "telescoped.cfg"))
	if err != nil {
		return nil, err
	}
	hc, err := tconfig.Load(filepath.Join(*configDir, "hc.cfg"))
	if err != nil {
		return nil, err
	}

	mount, err := loadMountAxes(hc, tel)
	if err != nil {
		return nil, err
	}

	mesh := mountmodel.IdentityMesh()
	if *meshPath != "" {
		mesh, err = mountmodel.LoadMeshTable(*meshPath)
		if err != nil {
			return nil, err
		}
	}

	var transport axistransport.Transport
	var virtual *axistransport.VirtualTransport
	if *virtualMode {
		virtual = axistransport.NewVirtualTransport()
		transport = virtual
	} else {
		transport = axistransport.NewSerialTransport(axistransport.DefaultPortOptions())
	}

	haRec, err := buildAxis(transport, "HA", "H", hc, tel)
	if err != nil {
		return nil, err
	}
	decRec, err := buildAxis(transport, "DEC", "D", hc, tel)
	if err != nil {
		return nil, err
	}
	var rotRec *axis.Record
	if mount.HasRotator {
		rotRec, err = buildAxis(transport, "ROT", "R", hc, tel)
		if err != nil {
			return nil, err
		}
	}

	haEng := axis.NewEngine(haRec)
	decEng := axis.NewEngine(decRec)
	var rotEng *axis.Engine
	if rotRec != nil {
		rotEng = axis.NewEngine(rotRec)
	}

	trackInt, err := tel.Float("TRACKINT")
	if err != nil {
		return nil, err
	}
	trackAcc, err := tel.Float("TRACKACC")
	if err != nil {
		return nil, err
	}
	acquireDelt, err := tel.FloatDefault("ACQUIREDELT", 0)
	if err != nil {
		return nil, err
	}

	targets := []tracking.AxisTarget{
		{Eng: haEng, HasEncoder: haRec.HaveEncoder, EStep: haRec.EStep, ESign: haRec.ESign,
			Coord: func(s tracking.Sample) float64 { return s.X }, Rasterable: true},
		{Eng: decEng, HasEncoder: decRec.HaveEncoder, EStep: decRec.EStep, ESign: decRec.ESign,
			Coord: func(s tracking.Sample) float64 { return s.Y }, Rasterable: true},
	}
	if rotEng != nil {
		targets = append(targets, tracking.AxisTarget{
			Eng: rotEng, HasEncoder: rotRec.HaveEncoder, EStep: rotRec.EStep, ESign: rotRec.ESign,
			Coord: func(s tracking.Sample) float64 { return s.R },
		})
	}
	trackEngine := tracking.NewEngine(mount, mesh, time.Duration(trackInt*float64(time.Second)), 60, trackAcc, targets)

	d := dispatcher.New(haEng, decEng, rotEng)
	d.Mount = mount
	d.Mesh = mesh
	d.Lat = mount.Latitude
	d.Track = trackEngine
	d.AcquireDelt = acquireDelt
	d.VirtualMode = *virtualMode
	d.Virtual = virtual
	d.Resolver = resolver.Fixed{LongitudeRad: mount.Latitude} // no distinct longitude config key; see DESIGN.md

	d.Dome = dispatcher.DomeConfig{Absent: true}
	if tel.Has("NEGALTLIMDC") {
		negAlt, _ := tel.Float("NEGALTLIMDC")
		posAlt, _ := tel.Float("POSALTLIMDC")
		negAz, _ := tel.Float("NEGAZLIMDC")
		posAz, _ := tel.Float("POSAZLIMDC")
		d.Dome = dispatcher.DomeConfig{NegAltLimDC: negAlt, PosAltLimDC: posAlt, NegAzLimDC: negAz, PosAzLimDC: posAz}
	}

	if sched.Has("STOWALT") {
		d.StowAlt, _ = sched.Float("STOWALT")
		d.StowAz, _ = sched.Float("STOWAZ")
	}
	if sched.Has("MINALT") {
		d.MinAlt, _ = sched.Float("MINALT")
	}

	d.Jog.FineMotorVel, _ = tel.FloatDefault("FJOGVEL", 0)
	d.Jog.CoarseMotorVel, _ = tel.FloatDefault("CJOGVEL", 0)
	d.Jog.FineGuideVel, _ = tel.FloatDefault("FGUIDEVEL", 0)
	d.Jog.CoarseGuideVel, _ = tel.FloatDefault("CGUIDEVEL", 0)

	if mount.HasRotator {
		d.Parallactic = func(ha, dec float64) float64 {
			return parallacticAngle(ha, dec, mount.Latitude)
		}
	}

	if err := runAxisSetup(haRec); err != nil {
		return nil, err
	}
	if err := runAxisSetup(decRec); err != nil {
		return nil, err
	}
	if rotRec != nil {
		if err := runAxisSetup(rotRec); err != nil {
			return nil, err
		}
	}

	d.Reopen = func() error { return nil } // transports are process-lifetime; reset re-runs setup only

	return d, nil
}

// parallacticAngle is the standard spherical-trigonometry formula for the
// angle between the hour circle and the vertical circle through a target —
// plain geometry given (HA, Dec, latitude), not ephemeris, so it stays in
// scope per spec §1 the same way mjd and gmst do.
func parallacticAngle(ha, dec, lat float64) float64 {
	return math.Atan2(math.Sin(ha), math.Cos(dec)*math.Tan(lat)-math.Sin(dec)*math.Cos(ha))
}

// loadMountAxes builds the mount-axes record (spec §3) from hc.cfg's
// HT/DT/XP/YC/NP/R0/LARGEXP and telescoped.cfg's GERMEQ/ZENFLIP.
func loadMountAxes(hc, tel *tconfig.File) (mountmodel.Axes, error) {
	ht, err := hc.Float("HT")
	if err != nil {
		return mountmodel.Axes{}, err
	}
	dt, err := hc.Float("DT")
	if err != nil {
		return mountmodel.Axes{}, err
	}
	xp, err := hc.Float("XP")
	if err != nil {
		return mountmodel.Axes{}, err
	}
	yc, err := hc.Float("YC")
	if err != nil {
		return mountmodel.Axes{}, err
	}
	np, err := hc.Float("NP")
	if err != nil {
		return mountmodel.Axes{}, err
	}
	r0, err := hc.FloatDefault("R0", 0)
	if err != nil {
		return mountmodel.Axes{}, err
	}
	largeXP, err := hc.BoolDefault("LARGEXP", false)
	if err != nil {
		return mountmodel.Axes{}, err
	}
	if largeXP {
		ht += 1.5707963267948966
		xp += 1.5707963267948966
	}

	germEq, err := tel.BoolDefault("GERMEQ", false)
	if err != nil {
		return mountmodel.Axes{}, err
	}
	zenFlip, err := tel.BoolDefault("ZENFLIP", false)
	if err != nil {
		return mountmodel.Axes{}, err
	}
	hasRotator, err := tel.BoolDefault("RHAVE", false)
	if err != nil {
		return mountmodel.Axes{}, err
	}
	lat, err := tel.FloatDefault("OBSLAT", 0)
	if err != nil {
		return mountmodel.Axes{}, err
	}
	negHA, err := tel.FloatDefault("MAXHA", 0)
	if err != nil {
		return mountmodel.Axes{}, err
	}

	return mountmodel.Axes{
		HT: ht, DT: dt, XP: xp, YC: yc, NP: np, R0: r0,
		GermEq: germEq, ZenFlip: zenFlip, HasRotator: hasRotator,
		Latitude: lat, NegHA: -negHA, PosHA: negHA,
	}, nil
}

// buildAxis constructs one axis Record from hc.cfg/telescoped.cfg using
// the configuration key prefix conventions of spec §6 (H.../D.../R...).
func buildAxis(transport axistransport.Transport, id, prefix string, hc, tel *tconfig.File) (*axis.Record, error) {
	have, err := tel.BoolDefault(prefix+"HAVE", true)
	if err != nil {
		return nil, err
	}

	addr := axistransport.Address{Host: tel.StringDefault(prefix+"HOST", "localhost"), Port: 0, Axis: 0}
	if tel.Has(prefix + "PORT") {
		p, err := tel.Int(prefix + "PORT")
		if err != nil {
			return nil, err
		}
		addr.Port = p
	}

	control, status, err := transport.Open(addr)
	if err != nil {
		return nil, fmt.Errorf("telescoped: open axis %s: %w", id, err)
	}

	rec := axis.NewRecord(id, control, status)
	rec.Have = have
	rec.HaveEncoder, _ = tel.BoolDefault(prefix+"ESTEP", false)
	if step, serr := tel.Int(prefix + "STEP"); serr == nil {
		rec.Step = step
	} else if serr2 := hc.Has(prefix + "STEP"); serr2 {
		rec.Step, _ = hc.Int(prefix + "STEP")
	}
	if estep, eerr := tel.Int(prefix + "ESTEP"); eerr == nil {
		rec.EStep = estep
		rec.HaveEncoder = true
	}
	if sign, serr := hc.Int(prefix + "SIGN"); serr == nil {
		rec.Sign = sign
	} else {
		rec.Sign = 1
	}
	if esign, eerr := tel.Int(prefix + "ESIGN"); eerr == nil {
		rec.ESign = esign
	} else {
		rec.ESign = 1
	}
	rec.MaxVel, _ = tel.FloatDefault(prefix+"MAXVEL", 0)
	rec.MaxAcc, _ = tel.FloatDefault(prefix+"MAXACC", 0)
	rec.SLimAcc, _ = tel.FloatDefault(prefix+"SLIMACC", 0)
	if negLim, lerr := hc.Float(prefix + "NEGLIM"); lerr == nil {
		rec.NegLim = negLim
		rec.HaveLimits = true
	}
	if posLim, lerr := hc.Float(prefix + "POSLIM"); lerr == nil {
		rec.PosLim = posLim
		rec.HaveLimits = true
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// runAxisSetup sends the spec §4.1 setup commands (msteps, esteps, esign,
// maxvel, maxacc, limacc) to a newly opened axis node.
func runAxisSetup(rec *axis.Record) error {
	if !rec.Have {
		return nil
	}
	cmds := []string{
		fmt.Sprintf("msteps=%d", rec.Step),
		fmt.Sprintf("maxvel=%g", rec.MaxVel),
		fmt.Sprintf("maxacc=%g", rec.MaxAcc),
		fmt.Sprintf("limacc=%g", rec.SLimAcc),
	}
	if rec.HaveEncoder {
		cmds = append(cmds, fmt.Sprintf("esteps=%d", rec.EStep), fmt.Sprintf("esign=%d", rec.ESign))
	}
	for _, c := range cmds {
		if err := rec.Control.Write(c); err != nil {
			return fmt.Errorf("telescoped: axis %s setup %q: %w", rec.ID, c, err)
		}
	}
	rec.IsHomed = false // spec §4.1: a steps/esign change clears the homed flag
	return nil
}

// runPollLoop drives the fixed-rate poll loop (spec §4.5), writing every
// FIFO diagnostic line produced and periodically recording a state
// snapshot to the diagnostics store.
func runPollLoop(ctx context.Context, d *dispatcher.Dispatcher, store *diagnostics.Store) {
	interval := time.Duration(float64(time.Second) / *pollHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	out := openOutFIFO()
	defer out.Close()

	lastSnapshot := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, msg := range d.Poll(now) {
				fmt.Fprintf(out, "%s\n", msg)
			}
			if now.Sub(lastSnapshot) >= time.Second {
				lastSnapshot = now
				_ = store.RecordSnapshot(now.Unix(), d.State.Read())
			}
		}
	}
}

func openOutFIFO() *os.File {
	if *fifoOut == "" {
		return os.Stdout
	}
	f, err := os.OpenFile(*fifoOut, os.O_WRONLY, 0)
	if err != nil {
		log.Fatalf("telescoped: open out fifo %s: %v", *fifoOut, err)
	}
	return f
}

// runCommandLoop reads spec §6 FIFO command lines and writes back the
// "code:text" response line on the same outgoing channel the poll loop
// uses for progress/failure diagnostics.
func runCommandLoop(ctx context.Context, d *dispatcher.Dispatcher) {
	in := os.Stdin
	if *fifoIn != "" {
		f, err := os.OpenFile(*fifoIn, os.O_RDONLY, 0)
		if err != nil {
			log.Fatalf("telescoped: open in fifo %s: %v", *fifoIn, err)
		}
		in = f
		defer f.Close()
	}
	out := openOutFIFO()
	if out != os.Stdout {
		defer out.Close()
	}

	sc := bufio.NewScanner(in)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			code, text := d.Handle(line)
			fmt.Fprintf(out, "%d:%s\n", code, text)
		}
	}
}

// runGRPC serves internal/statusgrpc's observed-state stream on grpcListen.
func runGRPC(ctx context.Context, d *dispatcher.Dispatcher) {
	lis, err := net.Listen("tcp", *grpcListen)
	if err != nil {
		log.Printf("telescoped: grpc listen %s: %v", *grpcListen, err)
		return
	}
	srv := grpc.NewServer()
	statuspb.RegisterStatusServiceServer(srv, statusgrpc.NewServer(d.State, time.Second))

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()
	if err := srv.Serve(lis); err != nil {
		tlog.Logf("telescoped: grpc serve: %v", err)
	}
}

// runDebugHTTP attaches tsweb /debug/ admin routes exposing the current
// observed-state snapshot, mirroring serialmux.AttachAdminRoutes's shape.
func runDebugHTTP(ctx context.Context, d *dispatcher.Dispatcher) {
	mux := http.NewServeMux()
	debug := tsweb.Debugger(mux)
	debug.HandleFunc("telstate", "current observed-state snapshot", func(w http.ResponseWriter, r *http.Request) {
		snap := d.State.Read()
		fmt.Fprintf(w, "mode=%s alt=%.4f az=%.4f version=%d last_update=%s\n",
			snap.TelescopeMode, snap.Alt, snap.Az, snap.Version, snap.LastUpdate.Format(time.RFC3339))
	})

	srv := &http.Server{Addr: *debugListen, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		tlog.Logf("telescoped: debug http: %v", err)
	}
}

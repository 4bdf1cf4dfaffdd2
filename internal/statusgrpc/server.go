// Package statusgrpc streams the observed-state record (internal/telstate)
// to peer processes — the operator UI and scheduler spec §1 names as
// external collaborators of the core — over a loopback gRPC socket,
// grounded on the teacher's internal/lidar/visualiser gRPC point-cloud
// streaming: one server-streaming RPC, polled from the publisher side
// rather than pushed by an internal event bus, since the dispatcher (C5)
// has no subscriber model of its own (spec §5: single-threaded poll loop,
// no internal preemption).
package statusgrpc

import (
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rockit-astro/superwasp-talon/internal/statusgrpc/statuspb"
	"github.com/rockit-astro/superwasp-talon/internal/telstate"
	"github.com/rockit-astro/superwasp-talon/internal/tlog"
)

// Server implements statuspb.StatusServiceServer over a telstate.State: each
// connected client receives a fresh snapshot at PollInterval for as long as
// the stream's context stays open.
type Server struct {
	State        *telstate.State
	PollInterval time.Duration
}

// NewServer returns a Server reading state at the given poll interval
// (zero defaults to 1s, a reasonable UI refresh rate well below the
// dispatcher's own ~10Hz tick per spec §4.5).
func NewServer(state *telstate.State, pollInterval time.Duration) *Server {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Server{State: state, PollInterval: pollInterval}
}

// StreamStatus implements statuspb.StatusServiceServer. It sends one
// snapshot immediately, then one every PollInterval, until the client
// disconnects or the stream's context is cancelled.
func (s *Server) StreamStatus(_ *emptypb.Empty, stream statuspb.StatusService_StreamStatusServer) error {
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	send := func() error {
		msg, err := snapshotToStruct(s.State.Read())
		if err != nil {
			tlog.Logf("statusgrpc: encode snapshot: %v", err)
			return nil
		}
		return stream.Send(msg)
	}
	if err := send(); err != nil {
		return err
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := send(); err != nil {
				return err
			}
		}
	}
}

// snapshotToStruct flattens a telstate.Snapshot into a google.protobuf.Struct,
// the field names mirroring spec §3's observed-state record.
func snapshotToStruct(snap *telstate.Snapshot) (*structpb.Struct, error) {
	axes := make([]interface{}, 0, len(snap.Axes))
	for _, a := range snap.Axes {
		axes = append(axes, map[string]interface{}{
			"id":       a.ID,
			"cpos":     a.CPos,
			"dpos":     a.DPos,
			"state":    a.State.String(),
			"is_homed": a.IsHomed,
		})
	}

	return structpb.NewStruct(map[string]interface{}{
		"version":        float64(snap.Version),
		"apparent_ra":    snap.ApparentRA,
		"apparent_dec":   snap.ApparentDec,
		"apparent_ha":    snap.ApparentHA,
		"j2000_ra":       snap.J2000RA,
		"j2000_dec":      snap.J2000Dec,
		"alt":            snap.Alt,
		"az":             snap.Az,
		"desired_alt":    snap.DesiredAlt,
		"desired_az":     snap.DesiredAz,
		"telescope_mode": snap.TelescopeMode.String(),
		"axes":           axes,
		"dome_open":      snap.Dome.Open,
		"dome_azimuth":   snap.Dome.Azimuth,
		"eng_mode":       snap.Dome.EngMode,
		"jogging":        snap.Dome.JoggingOn,
		"last_update":    snap.LastUpdate.Format(time.RFC3339Nano),
	})
}

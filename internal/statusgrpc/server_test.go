package statusgrpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/rockit-astro/superwasp-talon/internal/statusgrpc/statuspb"
	"github.com/rockit-astro/superwasp-talon/internal/telstate"
)

func TestSnapshotToStruct(t *testing.T) {
	state := telstate.New()
	state.Update(func(prev telstate.Snapshot) telstate.Snapshot {
		next := prev
		next.Alt = 0.5
		next.Az = 1.2
		next.Axes = []telstate.AxisStatus{{ID: "HA", CPos: 0.1, DPos: 0.1, IsHomed: true}}
		return next
	})

	msg, err := snapshotToStruct(state.Read())
	require.NoError(t, err)
	fields := msg.GetFields()
	assert.Equal(t, 0.5, fields["alt"].GetNumberValue())
	assert.Equal(t, 1.2, fields["az"].GetNumberValue())
	assert.Len(t, fields["axes"].GetListValue().GetValues(), 1)
}

func TestStreamStatusOverBufconn(t *testing.T) {
	lis := bufconn.Listen(1024 * 1024)
	t.Cleanup(func() { _ = lis.Close() })

	state := telstate.New()
	state.Update(func(prev telstate.Snapshot) telstate.Snapshot {
		next := prev
		next.Alt = 0.25
		return next
	})

	grpcServer := grpc.NewServer()
	statuspb.RegisterStatusServiceServer(grpcServer, NewServer(state, 10*time.Millisecond))
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(grpcServer.Stop)

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := statuspb.NewStatusServiceClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stream, err := client.StreamStatus(ctx, &emptypb.Empty{})
	require.NoError(t, err)

	msg, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, 0.25, msg.GetFields()["alt"].GetNumberValue())
}

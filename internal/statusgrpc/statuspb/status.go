// Package statuspb is the gRPC service glue for status.proto in this
// directory. It is maintained by hand rather than protoc-generated: the
// wire payload is google.protobuf.Struct (a well-known type already
// compiled into google.golang.org/protobuf), so there is no schema-specific
// message type that protoc-gen-go would need to produce, and the service
// boilerplate below is the same shape protoc-gen-go-grpc emits for a single
// server-streaming RPC.
package statuspb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// StatusServiceServer is the server-side interface status.proto's
// StatusService describes.
type StatusServiceServer interface {
	StreamStatus(*emptypb.Empty, StatusService_StreamStatusServer) error
}

// StatusService_StreamStatusServer is the per-call stream handle a server
// implementation sends snapshots through.
type StatusService_StreamStatusServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type statusServiceStreamStatusServer struct {
	grpc.ServerStream
}

func (x *statusServiceStreamStatusServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

func statusServiceStreamStatusHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(emptypb.Empty)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(StatusServiceServer).StreamStatus(req, &statusServiceStreamStatusServer{stream})
}

// StatusService_ServiceDesc is registered against a *grpc.Server via
// RegisterStatusServiceServer, exactly as a protoc-gen-go-grpc emitted
// _grpc.pb.go would register it.
var StatusService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "statusgrpc.StatusService",
	HandlerType: (*StatusServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamStatus",
			Handler:       statusServiceStreamStatusHandler,
			ServerStreams: true,
		},
	},
	Metadata: "statuspb/status.proto",
}

// RegisterStatusServiceServer registers srv's RPC methods on s.
func RegisterStatusServiceServer(s grpc.ServiceRegistrar, srv StatusServiceServer) {
	s.RegisterService(&StatusService_ServiceDesc, srv)
}

// StatusServiceClient is the client-side interface to StatusService.
type StatusServiceClient interface {
	StreamStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (StatusService_StreamStatusClient, error)
}

type statusServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewStatusServiceClient returns a client bound to cc.
func NewStatusServiceClient(cc grpc.ClientConnInterface) StatusServiceClient {
	return &statusServiceClient{cc}
}

func (c *statusServiceClient) StreamStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (StatusService_StreamStatusClient, error) {
	stream, err := c.cc.NewStream(ctx, &StatusService_ServiceDesc.Streams[0], "/statusgrpc.StatusService/StreamStatus", opts...)
	if err != nil {
		return nil, err
	}
	x := &statusServiceStreamStatusClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// StatusService_StreamStatusClient is the per-call stream handle a client
// receives snapshots through.
type StatusService_StreamStatusClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type statusServiceStreamStatusClient struct {
	grpc.ClientStream
}

func (x *statusServiceStreamStatusClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

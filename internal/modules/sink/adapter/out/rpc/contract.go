package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	SinkMapKey         = "statusrelay"
	serviceName        = "statusrelay.sink.v1.StatusSink"
	jsonCodecName      = "json"
	methodGetMetadata  = "/" + serviceName + "/GetMetadata"
	methodDeliverFrame = "/" + serviceName + "/Deliver"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "STATUSRELAY_SINK",
	MagicCookieValue: "statusrelay",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type DeliverRequest struct {
	Project     string  `json:"project"`
	State       string  `json:"state"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Stale       bool    `json:"stale"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp"`
}

type DeliverResponse struct {
	Accepted bool `json:"accepted"`
}

type StatusSinkServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Deliver(ctx context.Context, in *DeliverRequest) (*DeliverResponse, error)
}

type StatusSinkClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Deliver(ctx context.Context, in *DeliverRequest) (*DeliverResponse, error)
}

type statusSinkClient struct {
	conn *grpc.ClientConn
}

func NewStatusSinkClient(conn *grpc.ClientConn) StatusSinkClient {
	return &statusSinkClient{conn: conn}
}

func (c *statusSinkClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *statusSinkClient) Deliver(ctx context.Context, in *DeliverRequest) (*DeliverResponse, error) {
	out := &DeliverResponse{}
	if err := c.conn.Invoke(ctx, methodDeliverFrame, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterStatusSinkServer(server grpc.ServiceRegistrar, impl StatusSinkServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*StatusSinkServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetMetadata",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.GetMetadata(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetMetadata}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.GetMetadata(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "Deliver",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &DeliverRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Deliver(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDeliverFrame}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*DeliverRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Deliver(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/sink-rpc-v1.proto",
	}, impl)
}

type GRPCSink struct {
	plugin.NetRPCUnsupportedPlugin
	Impl StatusSinkServer
}

func (p *GRPCSink) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterStatusSinkServer(server, p.Impl)
	return nil
}

func (p *GRPCSink) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewStatusSinkClient(conn), nil
}

func SinkMap(impl StatusSinkServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		SinkMapKey: &GRPCSink{Impl: impl},
	}
}

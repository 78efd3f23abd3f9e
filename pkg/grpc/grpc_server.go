package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"firewatch.xyz/alert-dispatch-service/pkg/fire"
)

const ServiceName = "firewatch.v1.AlertService"

type AlertServer struct {
	Fire             *fire.Fire
	RateLimiterStore *fire.RateLimiterStore
}

func (s *AlertServer) GetLimiter(key string) *rate.Limiter {
	if s.RateLimiterStore == nil {
		return nil
	} else {
		return s.RateLimiterStore.GetLimiter(key)
	}
}

func (s *AlertServer) CheckLimiter(key string) bool {
	limiter := s.GetLimiter(key)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

// AlertServiceServer is the handler set registered under ServiceName. Every
// method takes and returns a Struct; see Response for the reply envelope.
type AlertServiceServer interface {
	CreateAlert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Decide(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateFirefighterStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListFirefighterAlerts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDispatchPlan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordDetection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Snapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetLimiter(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structCall func(AlertServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler(method string, call structCall) grpc.MethodHandler {
	fullMethod := FullMethod(method)

	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AlertServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AlertServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AlertServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlertServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAlert", Handler: unaryHandler("CreateAlert", AlertServiceServer.CreateAlert)},
		{MethodName: "Decide", Handler: unaryHandler("Decide", AlertServiceServer.Decide)},
		{MethodName: "UpdateFirefighterStatus", Handler: unaryHandler("UpdateFirefighterStatus", AlertServiceServer.UpdateFirefighterStatus)},
		{MethodName: "ListFirefighterAlerts", Handler: unaryHandler("ListFirefighterAlerts", AlertServiceServer.ListFirefighterAlerts)},
		{MethodName: "GetDispatchPlan", Handler: unaryHandler("GetDispatchPlan", AlertServiceServer.GetDispatchPlan)},
		{MethodName: "RecordDetection", Handler: unaryHandler("RecordDetection", AlertServiceServer.RecordDetection)},
		{MethodName: "Snapshot", Handler: unaryHandler("Snapshot", AlertServiceServer.Snapshot)},
		{MethodName: "SetLimiter", Handler: unaryHandler("SetLimiter", AlertServiceServer.SetLimiter)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "firewatch/v1/alert_service.proto",
}

func RegisterAlertServiceServer(registrar grpc.ServiceRegistrar, srv AlertServiceServer) {
	registrar.RegisterService(&AlertServiceDesc, srv)
}

// Response is the envelope every AlertService method replies with. Core
// failures travel here with Success false; only transport problems and rate
// limiting surface as gRPC status errors.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Kind    string          `json:"kind,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type AlertServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAlertServiceClient(cc grpc.ClientConnInterface) *AlertServiceClient {
	return &AlertServiceClient{cc: cc}
}

func (c *AlertServiceClient) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*Response, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(out.AsMap())
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	return &resp, nil
}

// DecodeData unmarshals the payload of a successful response.
func DecodeData[T any](resp *Response) (T, error) {
	var v T
	if len(resp.Data) == 0 {
		return v, nil
	}
	err := json.Unmarshal(resp.Data, &v)
	return v, err
}

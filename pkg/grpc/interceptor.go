package grpc

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
)

// LimitTarget names a method whose calls are throttled per id, and the
// request field carrying that id. Keys are Prefix followed by the id, the same
// keys the HTTP server uses, so one store throttles both transports.
type LimitTarget struct {
	Method string
	Field  string
	Prefix string
}

func DefaultLimitTargets() []LimitTarget {
	return []LimitTarget{
		{Method: FullMethod("Decide"), Field: "alert_id", Prefix: "alert:"},
		{Method: FullMethod("UpdateFirefighterStatus"), Field: "alert_id", Prefix: "alert:"},
		{Method: FullMethod("RecordDetection"), Field: "camera_id", Prefix: "camera:"},
	}
}

func limitKey(target LimitTarget, req *structpb.Struct) (string, bool) {
	v, ok := req.GetFields()[target.Field]
	if !ok {
		return "", false
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue < 0 {
		return "", false
	}
	return target.Prefix + strconv.FormatUint(uint64(n.NumberValue), 10), true
}

func (s *AlertServer) CreateRateLimitInterceptor(targets []LimitTarget) grpc.UnaryServerInterceptor {
	targetMap := common.Reducer(targets,
		func(m map[string]LimitTarget, t LimitTarget) map[string]LimitTarget {
			m[t.Method] = t
			return m
		},
		map[string]LimitTarget{},
	)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if target, ok := targetMap[info.FullMethod]; ok {
			if r, ok := req.(*structpb.Struct); ok {
				if key, ok := limitKey(target, r); ok && !s.CheckLimiter(key) {
					return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded")
				}
			}
		}

		return handler(ctx, req)
	}
}

func LoggingInterceptor() grpc.UnaryServerInterceptor {
	logger := common.GetLoggerWith(common.LoggerNameGrpcServer)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("Call served",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}

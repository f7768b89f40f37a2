// Package grpc exposes the standard health service and server reflection so
// orchestrators can probe the process over gRPC.
package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

const healthCheckTimeout = 3 * time.Second

// ServiceName is the name reported through the health service.
const ServiceName = "journal"

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthServer struct {
	*health.Server
	ping Pinger
}

func NewHealthServer(ping Pinger) *HealthServer {
	return &HealthServer{Server: health.NewServer(), ping: ping}
}

// Refresh pings the dependency and updates the serving status of both the
// overall server and ServiceName.
func (s *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	state := healthpb.HealthCheckResponse_SERVING
	if s.ping != nil {
		if err := s.ping(pingCtx); err != nil {
			logrus.WithError(err).Warn("gRPC health check failed")
			state = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	s.SetServingStatus("", state)
	s.SetServingStatus(ServiceName, state)
	return state
}

// NewServer builds a gRPC server with the health service and reflection
// registered.
func NewServer(healthServer *HealthServer) *gogrpc.Server {
	server := gogrpc.NewServer(gogrpc.UnaryInterceptor(LoggingUnaryInterceptor))
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	return server
}

func LoggingUnaryInterceptor(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
	start := time.Now()
	res, err := handler(ctx, req)

	entry := logrus.WithFields(logrus.Fields{
		"method":     info.FullMethod,
		"code":       status.Code(err).String(),
		"latency":    time.Since(start).String(),
		"latency_ns": time.Since(start).Nanoseconds(),
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("grpc_request")

	return res, err
}

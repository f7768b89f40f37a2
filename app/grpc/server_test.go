package grpc_test

import (
	"context"
	"errors"
	"net"
	"testing"

	journalgrpc "github.com/vibast-solutions/ms-go-journal/app/grpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func dialHealth(t *testing.T, hs *journalgrpc.HealthServer) healthpb.HealthClient {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	server := journalgrpc.NewServer(hs)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return healthpb.NewHealthClient(conn)
}

func TestHealthServing(t *testing.T) {
	hs := journalgrpc.NewHealthServer(func(context.Context) error { return nil })
	if state := hs.Refresh(context.Background()); state != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", state)
	}

	client := dialHealth(t, hs)
	res, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: journalgrpc.ServiceName})
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", res.GetStatus())
	}
}

func TestHealthNotServingWhenDatabaseDown(t *testing.T) {
	hs := journalgrpc.NewHealthServer(func(context.Context) error { return errors.New("connection refused") })
	hs.Refresh(context.Background())

	client := dialHealth(t, hs)
	res, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %v", res.GetStatus())
	}
}

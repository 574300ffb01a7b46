package health

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// startServer serves s on a loopback port and returns a connected client.
func startServer(t *testing.T, s *Server) healthpb.HealthClient {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)

	go func() { served <- s.Serve(lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()

		s.Stop()
		require.NoError(t, <-served)
	})

	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)

	return resp.GetStatus()
}

// TestServer_ServingTransitions follows the startup and shutdown statuses.
func TestServer_ServingTransitions(t *testing.T) {
	t.Parallel()

	s := NewServer("site-environment")
	require.Equal(t, "site-environment", s.Service())

	client := startServer(t, s)

	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ""))

	s.SetServing(true)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, "site-environment"))

	s.SetServing(false)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, "site-environment"))
}

// TestServer_StopEndsServe makes Serve return cleanly.
func TestServer_StopEndsServe(t *testing.T) {
	t.Parallel()

	s := NewServer("site-environment")

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)

	go func() { served <- s.Serve(lis) }()

	s.SetServing(true)
	s.Stop()

	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

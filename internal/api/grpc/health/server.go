package health

import (
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server wraps a gRPC server that only carries the health service.
type Server struct {
	// grpc is the underlying transport server.
	grpc *grpc.Server
	// health tracks per-service serving status.
	health *grpchealth.Server
	// service is the name reported alongside the overall "" entry.
	service string
}

// NewServer creates a health server reporting NOT_SERVING for service until
// SetServing is called.
func NewServer(service string) *Server {
	s := &Server{
		grpc:    grpc.NewServer(),
		health:  grpchealth.NewServer(),
		service: service,
	}

	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.SetServing(false)

	return s
}

// Service returns the reported service name.
func (s *Server) Service() string {
	return s.service
}

// SetServing flips the status of both the named service and the server as a whole.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
}

// Serve blocks accepting connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC health: %w", err)
	}

	return nil
}

// Stop marks everything NOT_SERVING, ends open watches and stops the server gracefully.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

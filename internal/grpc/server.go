//go:build grpcserver

package grpcserver

import (
	"context"
	"net"

	dispatchv1 "hospitalDroneLogistics/api/dispatch/v1"
	"hospitalDroneLogistics/internal/auth"
	"hospitalDroneLogistics/internal/config"
	"hospitalDroneLogistics/internal/dispatch"
	"hospitalDroneLogistics/repository"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// StartGRPC starts the gRPC server on the configured address and returns a
// shutdown function. The server implements DispatchService behind the JWT
// authentication interceptor.
func StartGRPC(cfg *config.Config, d *dispatch.Dispatcher, staff *repository.StaffRepository) (func(context.Context) error, error) {
	if cfg == nil {
		panic("config is required")
	}

	addr := cfg.GRPC.Address
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	// Allow plaintext for simplicity; in production, configure TLS.
	_ = insecure.NewCredentials

	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(cfg.Auth.JWTSecret, healthCheckMethod)))

	s := &DispatchServer{Dispatcher: d, Staff: staff}
	dispatchv1.RegisterDispatchServiceServer(srv, s)

	go func() { _ = srv.Serve(lis) }()

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}

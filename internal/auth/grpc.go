package auth

import (
	"context"
	"strings"

	"hospitalDroneLogistics/repository"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that extracts and
// validates a Bearer JWT from incoming metadata and injects the Principal
// into the context. Methods listed in allowUnauthenticated bypass
// authentication (e.g., health checks).
func NewUnaryAuthInterceptor(secret string, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, m := range allowUnauthenticated {
		allow[strings.TrimSpace(m)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		p, err := ParseFromMD(ctx, secret)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "auth error: %v", err)
		}
		return handler(WithPrincipal(ctx, p), req)
	}
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing principal")
	}
	return p, nil
}

// RequireKind ensures the principal has the given kind (lowercased compare).
func RequireKind(ctx context.Context, kind string) (*Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if p.Kind != strings.ToLower(kind) {
		return nil, status.Errorf(codes.PermissionDenied, "only %s can perform this action", strings.ToLower(kind))
	}
	return p, nil
}

// RequireDrone ensures the caller is a drone.
func RequireDrone(ctx context.Context) (*Principal, error) {
	return RequireKind(ctx, "drone")
}

// RequireStaffOrAdmin ensures the caller is hospital staff or an admin.
// Delivery requests, cancellations, and completions come through here.
func RequireStaffOrAdmin(ctx context.Context) (*Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if p.Kind != "staff" && p.Kind != "admin" {
		return nil, status.Error(codes.PermissionDenied, "only staff or admin can perform this action")
	}
	return p, nil
}

// RequireAdmin ensures the caller is an admin principal AND that the
// underlying staff account exists with role 'admin'. This prevents spoofing
// by a non-admin.
func RequireAdmin(ctx context.Context, staff *repository.StaffRepository) (*Principal, error) {
	p, err := RequireKind(ctx, "admin")
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, status.Error(codes.Internal, "staff repository not configured")
	}
	s, err := staff.GetByName(ctx, p.Name)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get staff: %v", err)
	}
	if s == nil || strings.ToLower(strings.TrimSpace(s.Role)) != "admin" {
		return nil, status.Error(codes.PermissionDenied, "only admin can perform this action")
	}
	return p, nil
}

package auth

import (
	"context"
	"testing"

	"hospitalDroneLogistics/internal/testutil"
	"hospitalDroneLogistics/repository"
	"google.golang.org/grpc"
)

func TestRequireKindAndHelpers(t *testing.T) {
	ctx := WithPrincipal(context.Background(), &Principal{Name: "drone-3", Kind: "drone"})
	if _, err := RequireDrone(ctx); err != nil {
		t.Fatalf("RequireDrone: %v", err)
	}
	if _, err := RequireStaffOrAdmin(ctx); err == nil {
		t.Fatalf("expected staff/admin rejection for drone")
	}

	sctx := WithPrincipal(context.Background(), &Principal{Name: "nurse.miller", Kind: "staff"})
	if _, err := RequireStaffOrAdmin(sctx); err != nil {
		t.Fatalf("RequireStaffOrAdmin: %v", err)
	}
}

func TestRequireAdmin_WithDBRoleCheck(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "authadmin")
	staff := repository.NewStaffRepository(d)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := staff.Create(ctx, "nurse.miller"); err != nil {
		t.Fatalf("create staff: %v", err)
	}
	// Spoofed principal kind=admin but DB role is plain staff
	pctx := WithPrincipal(context.Background(), &Principal{Name: "nurse.miller", Kind: "admin"})
	if _, err := RequireAdmin(pctx, staff); err == nil {
		t.Fatalf("expected PermissionDenied for non-admin role")
	}

	// Promote to real admin
	if err := staff.UpdateRoleByName(ctx, "nurse.miller", "admin"); err != nil {
		t.Fatalf("update role: %v", err)
	}
	if _, err := RequireAdmin(pctx, staff); err != nil {
		t.Fatalf("RequireAdmin real admin: %v", err)
	}
}

func TestUnaryAuthInterceptor(t *testing.T) {
	secret := "s3cr3t"
	interceptor := NewUnaryAuthInterceptor(secret, "/health")

	// 1) Allowlisted path: no header -> handler executes, no principal
	hCalled := false
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/health"}, func(ctx context.Context, req any) (any, error) {
		hCalled = true
		if p, ok := FromContext(ctx); ok && p != nil {
			t.Fatalf("expected no principal on allowlisted path")
		}
		return 123, nil
	})
	if err != nil || !hCalled {
		t.Fatalf("allowlisted call failed: %v called=%v", err, hCalled)
	}

	// 2) Protected path without token -> Unauthenticated
	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/dispatch"}, func(ctx context.Context, req any) (any, error) {
		t.Fatalf("handler must not run without auth")
		return nil, nil
	})
	if err == nil {
		t.Fatalf("expected auth error on protected path")
	}

	// 3) Protected path with valid token -> principal injected
	tok := testutil.GenerateJWTHS256(t, secret, "nurse.miller", "staff")
	ctx := testutil.CtxWithBearer(context.Background(), tok)
	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/dispatch"}, func(ctx context.Context, req any) (any, error) {
		p, ok := FromContext(ctx)
		if !ok || p.Name != "nurse.miller" || p.Kind != "staff" {
			t.Fatalf("principal not injected: %+v", p)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("authorized call failed: %v", err)
	}
}

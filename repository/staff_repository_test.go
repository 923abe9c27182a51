package repository

import (
	"context"
	"testing"

	"hospitalDroneLogistics/internal/db"
)

func TestStaffRepository_CreateAndRoles(t *testing.T) {
	d, err := db.Open("file:staffrepo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	repo := NewStaffRepository(d)
	ctx := context.Background()

	s, err := repo.Create(ctx, "nurse.miller")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID == 0 || s.Name != "nurse.miller" || s.Role != "staff" {
		t.Fatalf("unexpected staff: %+v", s)
	}

	got, err := repo.GetByName(ctx, "nurse.miller")
	if err != nil || got == nil || got.ID != s.ID {
		t.Fatalf("get by name: %v %+v", err, got)
	}

	if err := repo.UpdateRoleByName(ctx, "nurse.miller", "admin"); err != nil {
		t.Fatalf("update role: %v", err)
	}
	got2, _ := repo.GetByName(ctx, "nurse.miller")
	if got2.Role != "admin" {
		t.Fatalf("role not updated: %+v", got2)
	}

	// Missing staff returns nil without error.
	missing, err := repo.GetByName(ctx, "ghost")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing staff: %v %+v", err, missing)
	}
}

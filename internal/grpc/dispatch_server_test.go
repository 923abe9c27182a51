//go:build grpcserver

package grpcserver

import (
	"context"
	"math/rand"
	"testing"

	dispatchv1 "hospitalDroneLogistics/api/dispatch/v1"
	"hospitalDroneLogistics/internal/auth"
	"hospitalDroneLogistics/internal/config"
	"hospitalDroneLogistics/internal/dispatch"
	"hospitalDroneLogistics/internal/planner"
	"hospitalDroneLogistics/internal/testutil"
	"hospitalDroneLogistics/repository"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newTestServer(t *testing.T, name string) *DispatchServer {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	patients := repository.NewPatientRepository(d)
	staff := repository.NewStaffRepository(d)

	fp, err := config.LoadFloorplan("")
	if err != nil {
		t.Fatalf("floorplan: %v", err)
	}
	g := fp.BuildGraph()
	p := planner.New(g, fp.PlannerBounds(), rand.New(rand.NewSource(1)))
	disp := dispatch.New(g, p, patients, dispatch.Options{ChargingStations: fp.ChargingStations})

	return &DispatchServer{Dispatcher: disp, Staff: staff}
}

func staffCtx(name string) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{Name: name, Kind: "staff"})
}

func TestCreateRequest_RequiresStaff(t *testing.T) {
	s := newTestServer(t, "grpccreateauth")
	droneCtx := auth.WithPrincipal(context.Background(), &auth.Principal{Name: "drone-1", Kind: "drone"})
	_, err := s.CreateRequest(droneCtx, &dispatchv1.CreateRequestRequest{
		RequesterLocationId: 1, Priority: "ctas_iii",
	})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
}

func TestCreateRequest_QueuesAndLists(t *testing.T) {
	s := newTestServer(t, "grpccreate")
	ctx := staffCtx("nurse.miller")

	resp, err := s.CreateRequest(ctx, &dispatchv1.CreateRequestRequest{
		RequesterLocationId: 6,
		Priority:            "ctas_iv",
		Description:         "ward supplies",
		PayloadItems:        map[string]int32{"med_antibiotics": 1},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.RequestId == 0 || resp.Request == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Request.RequesterId != "nurse.miller" {
		t.Fatalf("requester should default to the principal: %+v", resp.Request)
	}

	// No drones registered, so the request is pending and listable.
	list, err := s.ListPendingRequests(ctx, &dispatchv1.ListPendingRequestsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Requests) != 1 || list.Requests[0].Id != resp.RequestId {
		t.Fatalf("unexpected pending list: %+v", list.Requests)
	}

	// Cancel and verify state.
	cresp, err := s.CancelRequest(ctx, &dispatchv1.CancelRequestRequest{RequestId: resp.RequestId})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cresp.Request.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %s", cresp.Request.Status)
	}
}

func TestCreateRequest_UnknownPatient(t *testing.T) {
	s := newTestServer(t, "grpcpatient")
	_, err := s.CreateRequest(staffCtx("dr.chen"), &dispatchv1.CreateRequestRequest{
		RequesterLocationId: 2,
		Priority:            "ctas_ii",
		PatientId:           "P999",
	})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound for unknown patient, got %v", err)
	}
}

func TestCreateRequest_SeededPatient(t *testing.T) {
	s := newTestServer(t, "grpcseeded")
	resp, err := s.CreateRequest(staffCtx("dr.chen"), &dispatchv1.CreateRequestRequest{
		RequesterLocationId: 2,
		Priority:            "ctas_iii",
		Description:         "cardiac medication",
		PatientId:           "P001",
		PayloadItems:        map[string]int32{"med_epinephrine": 1},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// P001 is critical, which escalates the request to the emergency pool.
	if !resp.Request.Emergency {
		t.Fatalf("expected emergency escalation for critical patient")
	}
}

func TestAddDrone_AdminOnly(t *testing.T) {
	s := newTestServer(t, "grpcadddrone")
	ctx := context.Background()
	if _, err := s.Staff.Create(ctx, "admin.root"); err != nil {
		t.Fatalf("create staff: %v", err)
	}
	if err := s.Staff.UpdateRoleByName(ctx, "admin.root", "admin"); err != nil {
		t.Fatalf("promote: %v", err)
	}

	// Plain staff cannot add drones.
	_, err := s.AddDrone(staffCtx("nurse.miller"), &dispatchv1.AddDroneRequest{LocationId: 1})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}

	adminCtx := auth.WithPrincipal(context.Background(), &auth.Principal{Name: "admin.root", Kind: "admin"})
	resp, err := s.AddDrone(adminCtx, &dispatchv1.AddDroneRequest{LocationId: 1, EmergencyDrone: true})
	if err != nil {
		t.Fatalf("add drone: %v", err)
	}
	if resp.DroneId == 0 {
		t.Fatalf("expected drone id")
	}

	drones, err := s.ListDrones(adminCtx, &dispatchv1.ListDronesRequest{})
	if err != nil || len(drones.Drones) != 1 {
		t.Fatalf("list drones: %v %+v", err, drones)
	}
	if !drones.Drones[0].EmergencyDrone {
		t.Fatalf("expected emergency drone")
	}

	// Unknown location rejected.
	_, err = s.AddDrone(adminCtx, &dispatchv1.AddDroneRequest{LocationId: 404})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestGetStatistics(t *testing.T) {
	s := newTestServer(t, "grpcstats")
	resp, err := s.GetStatistics(staffCtx("nurse.miller"), &dispatchv1.GetStatisticsRequest{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if resp.TotalDrones != 0 || resp.TotalRequests != 0 {
		t.Fatalf("expected empty system: %+v", resp)
	}
}

//go:build grpcserver

package grpcserver

import (
	"context"
	"errors"

	dispatchv1 "hospitalDroneLogistics/api/dispatch/v1"
	"hospitalDroneLogistics/internal/auth"
	"hospitalDroneLogistics/internal/dispatch"
	"hospitalDroneLogistics/models"
	"hospitalDroneLogistics/repository"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DispatchServer bundles dependencies and implements DispatchService.
type DispatchServer struct {
	dispatchv1.UnimplementedDispatchServiceServer
	Dispatcher *dispatch.Dispatcher
	Staff      *repository.StaffRepository
}

// CreateRequest submits a delivery request on behalf of the caller.
func (s *DispatchServer) CreateRequest(ctx context.Context, req *dispatchv1.CreateRequestRequest) (*dispatchv1.CreateRequestResponse, error) {
	p, err := auth.RequireStaffOrAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil || req.RequesterLocationId == 0 {
		return nil, status.Error(codes.InvalidArgument, "requester_location_id is required")
	}
	priority, err := models.ParsePriority(req.Priority)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "priority: %v", err)
	}

	in := dispatch.RequestInput{
		RequesterID:         req.RequesterId,
		RequesterName:       req.RequesterName,
		RequesterLocationID: req.RequesterLocationId,
		Priority:            priority,
		Description:         req.Description,
		Emergency:           req.Emergency,
		PatientID:           req.PatientId,
	}
	if in.RequesterID == "" {
		in.RequesterID = p.Name
	}
	if len(req.PayloadItems) > 0 {
		in.PayloadItems = make(map[string]int, len(req.PayloadItems))
		for id, qty := range req.PayloadItems {
			in.PayloadItems[id] = int(qty)
		}
	}

	id, err := s.Dispatcher.CreateRequest(ctx, in)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Errorf(codes.NotFound, "%v", err)
		}
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	return &dispatchv1.CreateRequestResponse{
		RequestId: id,
		Request:   s.requestState(id),
	}, nil
}

func (s *DispatchServer) CancelRequest(ctx context.Context, req *dispatchv1.CancelRequestRequest) (*dispatchv1.CancelRequestResponse, error) {
	if _, err := auth.RequireStaffOrAdmin(ctx); err != nil {
		return nil, err
	}
	if req == nil || req.RequestId == 0 {
		return nil, status.Error(codes.InvalidArgument, "request_id is required")
	}
	if err := s.Dispatcher.CancelRequest(req.RequestId); err != nil {
		return nil, status.Errorf(codes.NotFound, "%v", err)
	}
	return &dispatchv1.CancelRequestResponse{Request: s.requestState(req.RequestId)}, nil
}

func (s *DispatchServer) CompleteRequest(ctx context.Context, req *dispatchv1.CompleteRequestRequest) (*dispatchv1.CompleteRequestResponse, error) {
	if _, err := auth.RequireStaffOrAdmin(ctx); err != nil {
		return nil, err
	}
	if req == nil || req.RequestId == 0 {
		return nil, status.Error(codes.InvalidArgument, "request_id is required")
	}
	method := req.TraditionalMethod
	if method == "" {
		method = "vehicle"
	}
	var payload *float64
	if req.PayloadWeightKg > 0 {
		w := req.PayloadWeightKg
		payload = &w
	}
	if err := s.Dispatcher.CompleteRequest(req.RequestId, req.FinalLocationId, method, payload); err != nil {
		return nil, status.Errorf(codes.NotFound, "%v", err)
	}
	return &dispatchv1.CompleteRequestResponse{Request: s.requestState(req.RequestId)}, nil
}

func (s *DispatchServer) GetRequest(ctx context.Context, req *dispatchv1.GetRequestRequest) (*dispatchv1.GetRequestResponse, error) {
	if _, err := auth.RequireStaffOrAdmin(ctx); err != nil {
		return nil, err
	}
	if req == nil || req.RequestId == 0 {
		return nil, status.Error(codes.InvalidArgument, "request_id is required")
	}
	r, ok := s.Dispatcher.GetRequest(req.RequestId)
	if !ok {
		return nil, status.Error(codes.NotFound, "request not found")
	}
	return &dispatchv1.GetRequestResponse{Request: toProtoRequest(&r)}, nil
}

func (s *DispatchServer) ListPendingRequests(ctx context.Context, _ *dispatchv1.ListPendingRequestsRequest) (*dispatchv1.ListPendingRequestsResponse, error) {
	if _, err := auth.RequireStaffOrAdmin(ctx); err != nil {
		return nil, err
	}
	pending := s.Dispatcher.GetAllPendingRequests()
	out := make([]*dispatchv1.RequestState, 0, len(pending))
	for i := range pending {
		out = append(out, toProtoRequest(&pending[i]))
	}
	return &dispatchv1.ListPendingRequestsResponse{Requests: out}, nil
}

func (s *DispatchServer) GetStatistics(ctx context.Context, _ *dispatchv1.GetStatisticsRequest) (*dispatchv1.GetStatisticsResponse, error) {
	if _, err := auth.RequireStaffOrAdmin(ctx); err != nil {
		return nil, err
	}
	st := s.Dispatcher.GetStatistics()
	return &dispatchv1.GetStatisticsResponse{
		TotalDrones:                  int32(st.TotalDrones),
		EmergencyDrones:              int32(st.EmergencyDrones),
		NormalDrones:                 int32(st.NormalDrones),
		AvailableDrones:              int32(st.AvailableDrones),
		AssignedDrones:               int32(st.AssignedDrones),
		TotalRequests:                int32(st.TotalRequests),
		PendingRequests:              int32(st.PendingRequests),
		CompletedRequests:            int32(st.CompletedRequests),
		EmergencyRequests:            int32(st.EmergencyRequests),
		TotalEnergySavedKwh:          st.TotalEnergySavedKWh,
		TotalCo2SavedKg:              st.TotalCO2SavedKg,
		AverageEnergySavedPerTripKwh: st.AverageEnergySavedKWh,
		TripsWithEnergyData:          int32(st.TripsWithEnergyData),
	}, nil
}

func (s *DispatchServer) GetEnergyReport(ctx context.Context, req *dispatchv1.GetEnergyReportRequest) (*dispatchv1.GetEnergyReportResponse, error) {
	if _, err := auth.RequireStaffOrAdmin(ctx); err != nil {
		return nil, err
	}
	if req == nil || req.RequestId == 0 {
		return nil, status.Error(codes.InvalidArgument, "request_id is required")
	}
	report := s.Dispatcher.GetEnergyReport(req.RequestId)
	if report == nil {
		return nil, status.Error(codes.NotFound, "no energy data for request")
	}
	resp := &dispatchv1.GetEnergyReportResponse{
		DistanceMeters:       report.DistanceMeters,
		DroneEnergyKwh:       report.DroneEnergyKWh,
		TraditionalEnergyKwh: report.TraditionalEnergyKWh,
		EnergySavedKwh:       report.EnergySavedKWh,
	}
	if report.CO2SavedKg != nil {
		resp.Co2SavedKg = *report.CO2SavedKg
	}
	if report.TimeComparison != nil {
		resp.DroneTimeSeconds = report.DroneTimeSeconds
		resp.WalkingTimeSeconds = report.WalkingTimeSeconds
		resp.TimeSavedSeconds = report.TimeSavedSeconds
	}
	return resp, nil
}

// AddDrone registers a new drone. Admin only.
func (s *DispatchServer) AddDrone(ctx context.Context, req *dispatchv1.AddDroneRequest) (*dispatchv1.AddDroneResponse, error) {
	if _, err := auth.RequireAdmin(ctx, s.Staff); err != nil {
		return nil, err
	}
	if req == nil || req.LocationId == 0 {
		return nil, status.Error(codes.InvalidArgument, "location_id is required")
	}
	id, err := s.Dispatcher.AddDrone(req.LocationId, req.EmergencyDrone)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	return &dispatchv1.AddDroneResponse{DroneId: id}, nil
}

// ListDrones lists the fleet. Admin only.
func (s *DispatchServer) ListDrones(ctx context.Context, _ *dispatchv1.ListDronesRequest) (*dispatchv1.ListDronesResponse, error) {
	if _, err := auth.RequireAdmin(ctx, s.Staff); err != nil {
		return nil, err
	}
	drones := s.Dispatcher.Drones()
	out := make([]*dispatchv1.DroneState, 0, len(drones))
	for i := range drones {
		out = append(out, toProtoDrone(&drones[i]))
	}
	return &dispatchv1.ListDronesResponse{Drones: out}, nil
}

func (s *DispatchServer) requestState(id int64) *dispatchv1.RequestState {
	r, ok := s.Dispatcher.GetRequest(id)
	if !ok {
		return nil
	}
	return toProtoRequest(&r)
}

func toProtoRequest(r *models.Request) *dispatchv1.RequestState {
	state := &dispatchv1.RequestState{
		Id:                  r.ID,
		RequesterId:         r.RequesterID,
		RequesterLocationId: r.RequesterLocationID,
		Priority:            r.Priority.String(),
		Status:              string(r.Status),
		Emergency:           r.Emergency,
		AssignedDroneId:     r.AssignedDroneID,
		PatientId:           r.PatientID,
		PayloadWeightKg:     r.PayloadWeightKg,
		ParentRequestId:     r.ParentRequestID,
		DeliverySequence:    int32(r.DeliverySequence),
		TotalDeliveries:     int32(r.TotalDeliveries),
	}
	if len(r.PayloadItems) > 0 {
		state.PayloadItems = make(map[string]int32, len(r.PayloadItems))
		for id, qty := range r.PayloadItems {
			state.PayloadItems[id] = int32(qty)
		}
	}
	return state
}

func toProtoDrone(d *models.Drone) *dispatchv1.DroneState {
	return &dispatchv1.DroneState{
		Id:                 d.ID,
		CurrentLocationId:  d.CurrentLocationID,
		Status:             string(d.Status),
		EmergencyDrone:     d.EmergencyDrone,
		BatteryLevelKwh:    d.BatteryLevelKWh,
		BatteryCapacityKwh: d.BatteryCapacityKWh,
		IsCharging:         d.IsCharging,
		DeliveryRoute:      append([]int64(nil), d.DeliveryRoute...),
	}
}

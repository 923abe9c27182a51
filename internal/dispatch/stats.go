package dispatch

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"

	"hospitalDroneLogistics/internal/energy"
	"hospitalDroneLogistics/models"
)

// Statistics is a point-in-time snapshot of fleet and queue health.
type Statistics struct {
	TotalDrones              int     `json:"total_drones"`
	EmergencyDrones          int     `json:"emergency_drones"`
	NormalDrones             int     `json:"normal_drones"`
	AvailableDrones          int     `json:"available_drones"`
	AvailableEmergencyDrones int     `json:"available_emergency_drones"`
	AvailableNormalDrones    int     `json:"available_normal_drones"`
	AssignedDrones           int     `json:"assigned_drones"`
	AssignedEmergencyDrones  int     `json:"assigned_emergency_drones"`
	AssignedNormalDrones     int     `json:"assigned_normal_drones"`
	TotalRequests            int     `json:"total_requests"`
	PendingRequests          int     `json:"pending_requests"`
	CompletedRequests        int     `json:"completed_requests"`
	EmergencyRequests        int     `json:"emergency_requests"`
	TotalEnergySavedKWh      float64 `json:"total_energy_saved_kwh"`
	TotalCO2SavedKg          float64 `json:"total_co2_saved_kg"`
	AverageEnergySavedKWh    float64 `json:"average_energy_saved_per_trip_kwh"`
	TripsWithEnergyData      int     `json:"trips_with_energy_data"`
}

// GetStatistics aggregates fleet, queue, and energy counters.
func (d *Dispatcher) GetStatistics() Statistics {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Statistics{TotalDrones: len(d.drones), TotalRequests: len(d.requests)}
	for _, drone := range d.drones {
		if drone.EmergencyDrone {
			s.EmergencyDrones++
		} else {
			s.NormalDrones++
		}
		switch drone.Status {
		case models.DroneStatusAvailable:
			s.AvailableDrones++
			if drone.EmergencyDrone {
				s.AvailableEmergencyDrones++
			} else {
				s.AvailableNormalDrones++
			}
		case models.DroneStatusAssigned:
			s.AssignedDrones++
			if drone.EmergencyDrone {
				s.AssignedEmergencyDrones++
			} else {
				s.AssignedNormalDrones++
			}
		}
	}

	var savedSum float64
	for _, req := range d.requests {
		switch req.Status {
		case models.RequestStatusPending:
			s.PendingRequests++
		case models.RequestStatusCompleted:
			s.CompletedRequests++
			if req.EnergySavedKWh != nil {
				s.TripsWithEnergyData++
				savedSum += *req.EnergySavedKWh
			}
		}
		if req.Emergency {
			s.EmergencyRequests++
		}
	}
	if s.TripsWithEnergyData > 0 {
		s.AverageEnergySavedKWh = round4(savedSum / float64(s.TripsWithEnergyData))
	}
	s.TotalEnergySavedKWh = round4(d.totalEnergySavedKWh)
	s.TotalCO2SavedKg = round4(d.totalCO2SavedKg)
	return s
}

// GetEnergyReport builds the formatted energy report for a completed
// request, including the walking time comparison. Returns nil when the
// request is missing, not completed, or has no energy data.
func (d *Dispatcher) GetEnergyReport(requestID int64) *energy.Report {
	d.mu.Lock()
	defer d.mu.Unlock()

	req, ok := d.requests[requestID]
	if !ok || req.Status != models.RequestStatusCompleted || req.EnergySavedKWh == nil {
		return nil
	}

	speed := 0.0
	if drone, ok := d.drones[req.AssignedDroneID]; ok && drone.CurrentSpeedMPerSec > 0 {
		speed = drone.CurrentSpeedMPerSec
	}
	if speed <= 0 {
		speed = speedForPriority(req.Priority)
	}

	savings := energy.Savings{
		DroneKWh:       deref(req.DroneEnergyKWh),
		TraditionalKWh: deref(req.TraditionalEnergyKWh),
		SavedKWh:       *req.EnergySavedKWh,
	}
	report := energy.FormatReport(savings, deref(req.DistanceTraveledMeters), req.CO2SavedKg, speed)
	return &report
}

// GetAllPendingRequests lists pending requests sorted by CTAS class
// (descending) then submission time.
func (d *Dispatcher) GetAllPendingRequests() []models.Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending := lo.FilterMap(lo.Values(d.requests), func(r *models.Request, _ int) (models.Request, bool) {
		return *r, r.Status == models.RequestStatusPending
	})
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		return pending[i].Timestamp.Before(pending[j].Timestamp)
	})
	return pending
}

// CancelRequest cancels a pending request; anything already assigned or
// finished is left untouched. The queue evicts cancelled entries lazily.
func (d *Dispatcher) CancelRequest(requestID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	req, ok := d.requests[requestID]
	if !ok {
		return fmt.Errorf("request %d not found", requestID)
	}
	if req.Status == models.RequestStatusPending {
		req.Status = models.RequestStatusCancelled
	}
	return nil
}

// GetRequest returns a copy of a request's current state.
func (d *Dispatcher) GetRequest(requestID int64) (models.Request, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	req, ok := d.requests[requestID]
	if !ok {
		return models.Request{}, false
	}
	return *req, true
}

// GetDrone returns a copy of a drone's current state with in-flight
// battery consumption refreshed from elapsed flight time.
func (d *Dispatcher) GetDrone(droneID int64) (models.Drone, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	drone, ok := d.drones[droneID]
	if !ok {
		return models.Drone{}, false
	}
	d.trackFlightConsumption(drone)
	return *drone, true
}

// Drones returns a copy of every drone, ordered by id.
func (d *Dispatcher) Drones() []models.Drone {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]models.Drone, 0, len(d.drones))
	for _, id := range sortedDroneIDs(d.drones) {
		drone := d.drones[id]
		d.trackFlightConsumption(drone)
		out = append(out, *drone)
	}
	return out
}

// trackFlightConsumption samples the live battery consumption of a drone in
// motion: distance from elapsed flight time at the flight's speed, energy
// from the flight's payload. The sample is kept on the flight record so
// completion can settle against it. Callers hold the lock.
func (d *Dispatcher) trackFlightConsumption(drone *models.Drone) {
	switch drone.Status {
	case models.DroneStatusAssigned, models.DroneStatusInTransit, models.DroneStatusReturningToCharging:
	default:
		return
	}
	if len(drone.DeliveryRoute) < 2 {
		return
	}
	info, ok := d.activeFlights[drone.ID]
	if !ok {
		return
	}
	elapsed := d.clock.Since(info.StartTime).Seconds()
	if elapsed <= 0 {
		return
	}
	speed := info.SpeedMPerSec
	if speed <= 0 {
		speed = NormalSpeedMPerSec
	}
	distance := elapsed * speed
	info.DistanceTraveledMeters = distance
	consumed := energy.DroneEnergy(distance, info.PayloadWeightKg)
	info.BatteryConsumedKWh = &consumed
	drone.BatteryConsumedThisFlightKWh = consumed
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

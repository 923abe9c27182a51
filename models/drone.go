package models

import "time"

// DroneStatus tracks where a drone is in its delivery/charging lifecycle.
type DroneStatus string

const (
	DroneStatusAvailable           DroneStatus = "available"
	DroneStatusAssigned            DroneStatus = "assigned"
	DroneStatusInTransit           DroneStatus = "in_transit"
	DroneStatusReturningToCharging DroneStatus = "returning_to_charging"
	DroneStatusCharging            DroneStatus = "charging"
)

// Battery constants follow the Matternet M2 class of cargo drone:
// ~2 kWh pack, 20 km range with 1 kg payload.
const (
	DefaultBatteryCapacityKWh = 2.0
	DefaultDroneSpeedMPerSec  = 2.5
)

// Drone is a cargo drone owned by the dispatcher for its whole lifetime.
// Invariants: 0 <= BatteryLevelKWh <= BatteryCapacityKWh, and
// IsCharging iff Status == DroneStatusCharging.
type Drone struct {
	ID                int64       `json:"id"`
	CurrentLocationID int64       `json:"current_location_id"`
	Status            DroneStatus `json:"status"`
	AssignedRequestID int64       `json:"assigned_request_id"` // 0 when unassigned
	EmergencyDrone    bool        `json:"emergency_drone"`

	BatteryCapacityKWh           float64    `json:"battery_capacity_kwh"`
	BatteryLevelKWh              float64    `json:"battery_level_kwh"`
	IsCharging                   bool       `json:"is_charging"`
	FlightStartTime              *time.Time `json:"flight_start_time,omitempty"`
	BatteryConsumedThisFlightKWh float64    `json:"battery_consumed_this_flight_kwh"`

	// Multi-stop delivery support.
	DeliveryRoute          []int64 `json:"delivery_route"`
	CurrentPayloadWeightKg float64 `json:"current_payload_weight_kg"`
	CurrentSpeedMPerSec    float64 `json:"current_speed_m_per_sec"`
}

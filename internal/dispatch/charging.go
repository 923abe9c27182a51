package dispatch

import (
	"github.com/sirupsen/logrus"

	"hospitalDroneLogistics/internal/energy"
	"hospitalDroneLogistics/models"
)

// sendToCharging routes a drone to the nearest charging station. A drone
// already parked at a station starts charging immediately; otherwise the
// return trip is simulated with its own flight record and arrival timer.
// Callers hold the lock.
func (d *Dispatcher) sendToCharging(droneID int64) {
	drone, ok := d.drones[droneID]
	if !ok {
		return
	}

	if d.isChargingStation(drone.CurrentLocationID) {
		d.startCharging(drone)
		return
	}

	nearest, ok := d.graph.NearestOfSet(drone.CurrentLocationID, d.chargingStations)
	if !ok {
		nearest = d.chargingStations[0]
	}
	route, _, err := d.graph.ShortestPath(drone.CurrentLocationID, nearest)
	if err != nil || len(route) < 2 {
		// No usable route; dock in place.
		drone.CurrentLocationID = nearest
		d.startCharging(drone)
		return
	}

	returnDistance := d.graph.RouteDistance(route)
	returnSeconds := returnDistance/NormalSpeedMPerSec + arrivalBufferSeconds

	drone.Status = models.DroneStatusReturningToCharging
	drone.AssignedRequestID = 0
	drone.CurrentPayloadWeightKg = 0
	drone.DeliveryRoute = route
	drone.CurrentSpeedMPerSec = NormalSpeedMPerSec

	d.activeFlights[drone.ID] = &flight{
		Route:             route,
		StartTime:         d.clock.Now(),
		SpeedMPerSec:      NormalSpeedMPerSec,
		InitialBatteryKWh: drone.BatteryLevelKWh,
		IsReturnTrip:      true,
	}

	d.log.WithFields(logrus.Fields{
		"drone_id":   drone.ID,
		"station":    nearest,
		"distance_m": returnDistance,
	}).Info("drone returning to charging station")

	id := drone.ID
	d.scheduler.Schedule(secondsToDuration(returnSeconds), func() {
		d.arriveAtChargingStation(id, nearest, returnDistance)
	})
}

// arriveAtChargingStation lands the drone at the station, depletes the
// return-trip energy (no payload), and begins charging.
func (d *Dispatcher) arriveAtChargingStation(droneID, stationID int64, returnDistance float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	drone, ok := d.drones[droneID]
	if !ok {
		return
	}
	returnEnergy := energy.DroneEnergy(returnDistance, 0)
	drone.BatteryLevelKWh -= returnEnergy
	if drone.BatteryLevelKWh < 0 {
		drone.BatteryLevelKWh = 0
	}
	drone.CurrentLocationID = stationID
	drone.DeliveryRoute = nil
	delete(d.activeFlights, droneID)

	d.startCharging(drone)
}

// startCharging begins a charge cycle toward 80% of capacity and arms the
// completion timer. A drone already at the target is released immediately.
func (d *Dispatcher) startCharging(drone *models.Drone) {
	drone.Status = models.DroneStatusCharging
	drone.IsCharging = true
	drone.AssignedRequestID = 0
	drone.CurrentPayloadWeightKg = 0
	drone.DeliveryRoute = nil
	drone.CurrentSpeedMPerSec = 0

	needed := drone.BatteryCapacityKWh*chargeTargetFraction - drone.BatteryLevelKWh
	if needed <= 0 {
		// Already at the charge target: release the drone without
		// re-entering the assignment pass the caller may be inside.
		drone.IsCharging = false
		drone.Status = models.DroneStatusAvailable
		d.log.WithFields(logrus.Fields{
			"drone_id":    drone.ID,
			"battery_kwh": drone.BatteryLevelKWh,
		}).Info("battery at charge target, drone available")
		return
	}
	chargeSeconds := needed / ChargeRateKWhPerSec
	d.log.WithFields(logrus.Fields{
		"drone_id":    drone.ID,
		"battery_kwh": drone.BatteryLevelKWh,
		"charge_s":    chargeSeconds,
	}).Info("drone charging")

	id := drone.ID
	d.scheduler.Schedule(secondsToDuration(chargeSeconds), func() {
		d.completeCharging(id)
	})
}

// completeCharging is the timer entry point for a finished charge cycle.
func (d *Dispatcher) completeCharging(droneID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finishCharging(droneID)
}

// finishCharging tops the battery to 80%, releases the drone, and runs an
// assignment pass for anything still queued. Callers hold the lock.
func (d *Dispatcher) finishCharging(droneID int64) {
	drone, ok := d.drones[droneID]
	if !ok {
		return
	}
	drone.BatteryLevelKWh = drone.BatteryCapacityKWh * chargeTargetFraction
	drone.IsCharging = false
	drone.Status = models.DroneStatusAvailable

	d.log.WithFields(logrus.Fields{
		"drone_id":    droneID,
		"battery_kwh": drone.BatteryLevelKWh,
	}).Info("drone charged and available")

	d.processPending()
}

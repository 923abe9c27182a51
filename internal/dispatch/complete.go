package dispatch

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"hospitalDroneLogistics/internal/energy"
	"hospitalDroneLogistics/models"
)

// CompleteRequest marks a delivery as completed, records its energy and
// path-efficiency metrics, depletes the drone battery by the flown route,
// and sends the drone to the nearest charging station. A nil payload
// override uses the request's own payload weight.
func (d *Dispatcher) CompleteRequest(
	requestID, finalLocationID int64, traditionalMethod string, payloadWeightKg *float64,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.completeLocked(requestID, finalLocationID, traditionalMethod, payloadWeightKg)
}

func (d *Dispatcher) completeLocked(
	requestID, finalLocationID int64, traditionalMethod string, payloadWeightKg *float64,
) error {
	req, ok := d.requests[requestID]
	if !ok {
		return fmt.Errorf("request %d not found", requestID)
	}
	// Completing a cancelled or already-completed request is a no-op.
	if req.Status == models.RequestStatusCancelled || req.Status == models.RequestStatusCompleted {
		return nil
	}
	now := d.clock.Now()
	req.Status = models.RequestStatusCompleted
	req.CompletedAt = &now

	if req.AssignedDroneID != 0 {
		d.settleDelivery(req, finalLocationID, traditionalMethod, payloadWeightKg)
	}
	d.processPending()
	return nil
}

// settleDelivery computes the flown distance and all per-request metrics,
// then releases the drone toward a charging station.
func (d *Dispatcher) settleDelivery(
	req *models.Request, finalLocationID int64, traditionalMethod string, payloadWeightKg *float64,
) {
	drone, ok := d.drones[req.AssignedDroneID]
	if !ok {
		return
	}
	info := d.activeFlights[drone.ID]

	var route []int64
	switch {
	case info != nil && len(info.Route) >= 2:
		route = info.Route
	case len(drone.DeliveryRoute) >= 2:
		route = drone.DeliveryRoute
	default:
		route = []int64{drone.CurrentLocationID, req.RequesterLocationID}
	}
	startLocationID := route[0]

	totalDistance := d.graph.RouteDistance(route)
	if finalLocationID != route[len(route)-1] {
		_, tail, err := d.graph.ShortestPath(route[len(route)-1], finalLocationID)
		if err == nil {
			totalDistance += tail
		}
	}

	payload := req.PayloadWeightKg
	if payloadWeightKg != nil {
		payload = *payloadWeightKg
	}
	if payload <= 0 {
		payload = 0.5
	}

	savings := energy.CalculateSavings(totalDistance, payload, traditionalMethod)
	co2 := energy.CO2Equivalent(savings.SavedKWh, "grid")

	req.DistanceTraveledMeters = &totalDistance
	req.DroneEnergyKWh = &savings.DroneKWh
	req.TraditionalEnergyKWh = &savings.TraditionalKWh
	req.EnergySavedKWh = &savings.SavedKWh
	req.CO2SavedKg = &co2
	req.TraditionalMethod = traditionalMethod

	if len(route) >= 2 && startLocationID != req.RequesterLocationID {
		speed := drone.CurrentSpeedMPerSec
		if info != nil && info.SpeedMPerSec > 0 {
			speed = info.SpeedMPerSec
		}
		if speed <= 0 {
			speed = NormalSpeedMPerSec
		}
		d.recordPathEfficiency(req, startLocationID, req.RequesterLocationID, route, speed)
	}

	d.totalEnergySavedKWh += savings.SavedKWh
	d.totalCO2SavedKg += co2

	// Deplete the battery: prefer the live-tracked consumption when the
	// flight was sampled mid-air, otherwise reconstruct it from the route
	// with the per-leg payload profile of every request on this flight.
	var consumed float64
	if info != nil && info.BatteryConsumedKWh != nil {
		consumed = *info.BatteryConsumedKWh
	} else {
		requestIDs := []int64{req.ID}
		if info != nil && len(info.RequestIDs) > 0 {
			requestIDs = info.RequestIDs
		}
		consumed = d.routeEnergy(route, d.legPayloads(route, requestIDs, req))
	}
	drone.BatteryLevelKWh -= consumed
	if drone.BatteryLevelKWh < 0 {
		drone.BatteryLevelKWh = 0
	}
	drone.BatteryConsumedThisFlightKWh = consumed

	if info != nil && !info.IsReturnTrip {
		delete(d.activeFlights, drone.ID)
	}

	drone.CurrentLocationID = finalLocationID
	drone.AssignedRequestID = 0
	drone.CurrentPayloadWeightKg = 0
	drone.DeliveryRoute = nil
	drone.FlightStartTime = nil

	d.log.WithFields(logrus.Fields{
		"request_id":   req.ID,
		"drone_id":     drone.ID,
		"distance_m":   totalDistance,
		"consumed_kwh": consumed,
		"saved_kwh":    savings.SavedKWh,
	}).Info("delivery completed")

	d.sendToCharging(drone.ID)
}

// legPayloads reconstructs the carried weight on each leg of a multi-stop
// route: weight is added where a request's stop is first reached and
// dropped at its delivery.
func (d *Dispatcher) legPayloads(route []int64, requestIDs []int64, fallback *models.Request) []float64 {
	var flightRequests []*models.Request
	for _, id := range requestIDs {
		if r, ok := d.requests[id]; ok {
			flightRequests = append(flightRequests, r)
		}
	}
	if len(flightRequests) == 0 {
		flightRequests = []*models.Request{fallback}
	}

	weight := func(r *models.Request) float64 {
		if r.PayloadWeightKg > 0 {
			return r.PayloadWeightKg
		}
		return 0.5
	}

	var payloads []float64
	current := 0.0
	delivered := map[int64]bool{}
	for i := 0; i+1 < len(route); i++ {
		for _, r := range flightRequests {
			if r.RequesterLocationID == route[i] && !delivered[r.ID] {
				current += weight(r)
			}
		}
		payloads = append(payloads, current)
		for _, r := range flightRequests {
			if r.RequesterLocationID == route[i+1] && !delivered[r.ID] {
				current -= weight(r)
				if current < 0 {
					current = 0
				}
				delivered[r.ID] = true
			}
		}
	}
	if len(payloads) == 0 {
		payloads = []float64{weight(fallback)}
	}
	return payloads
}

// recordPathEfficiency compares the flown route against the plain shortest
// path between the drone's start and the delivery stop.
func (d *Dispatcher) recordPathEfficiency(
	req *models.Request, startID, destinationID int64, route []int64, speed float64,
) {
	if len(route) < 2 {
		return
	}
	chosen := d.graph.RouteDistance(route)
	_, alternative, err := d.graph.ShortestPath(startID, destinationID)
	if err != nil {
		return
	}

	var pct, ratio, saved float64
	if speed > 0 {
		chosenTime := chosen / speed
		alternativeTime := alternative / speed
		saved = alternativeTime - chosenTime
		if alternativeTime > 0 {
			pct = saved / alternativeTime * 100
		}
		ratio = 1.0
		if chosenTime > 0 {
			ratio = alternativeTime / chosenTime
		}
	} else {
		if alternative > 0 {
			pct = (alternative - chosen) / alternative * 100
		}
		ratio = 1.0
		if chosen > 0 {
			ratio = alternative / chosen
		}
	}

	req.ChosenPathDistanceMeters = &chosen
	req.AlternativePathDistanceMeters = &alternative
	req.PathEfficiencyPercentage = &pct
	req.TimeSavedVsAlternativeSeconds = &saved
	req.PathEfficiencyRatio = &ratio
}

// autoCompleteRequest fires when the simulated flight timer elapses. The
// drone is considered to have arrived at the requester's location.
func (d *Dispatcher) autoCompleteRequest(requestID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	req, ok := d.requests[requestID]
	if !ok || req.Status != models.RequestStatusAssigned {
		return
	}
	if err := d.completeLocked(requestID, req.RequesterLocationID, energy.MethodVehicle, nil); err != nil {
		d.log.WithError(err).WithField("request_id", requestID).Error("auto-completion failed")
	}
}

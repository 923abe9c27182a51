package dispatch

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"hospitalDroneLogistics/internal/energy"
	"hospitalDroneLogistics/internal/planner"
	"hospitalDroneLogistics/models"
)

func sortInt64s(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// processPending walks the pending requests in triage order. Non-urgent
// requests are first offered to in-flight drones for interception; whatever
// is not intercepted is assigned to the closest available drone of the
// matching pool. Requests with no drone stay queued. Callers hold the lock.
func (d *Dispatcher) processPending() {
	for _, entry := range d.orderedPending() {
		req := entry.req
		if req.Status != models.RequestStatusPending {
			continue
		}
		if !req.Priority.IsEmergency() && d.checkAndIntercept(req) {
			continue
		}
		d.assignDrone(req)
	}
}

// availableDroneLocations returns where assignable drones of the requested
// pool sit. A drone parked at a charging station but not charging counts.
func (d *Dispatcher) availableDroneLocations(forEmergency bool) []int64 {
	var locations []int64
	for _, drone := range d.drones {
		if drone.Status != models.DroneStatusAvailable || drone.IsCharging {
			continue
		}
		if drone.BatteryLevelKWh < MinBatteryThresholdKWh {
			continue
		}
		if drone.EmergencyDrone == forEmergency {
			locations = append(locations, drone.CurrentLocationID)
		}
	}
	return locations
}

// assignDrone assigns the closest eligible drone to a request, plans its
// route with collision avoidance, and arms the delivery completion timer.
// Returns false when no drone can serve the request right now.
func (d *Dispatcher) assignDrone(req *models.Request) bool {
	isEmergency := req.IsEmergencyRequest()
	locations := d.availableDroneLocations(isEmergency)
	if len(locations) == 0 {
		return false
	}
	closest, ok := d.graph.NearestOfSet(req.RequesterLocationID, locations)
	if !ok {
		return false
	}

	// Lowest drone id at the closest location wins ties.
	var drone *models.Drone
	for _, id := range sortedDroneIDs(d.drones) {
		candidate := d.drones[id]
		if candidate.Status == models.DroneStatusAvailable &&
			!candidate.IsCharging &&
			candidate.CurrentLocationID == closest &&
			candidate.EmergencyDrone == isEmergency &&
			candidate.BatteryLevelKWh >= MinBatteryThresholdKWh {
			drone = candidate
			break
		}
	}
	if drone == nil {
		return false
	}

	start, _ := d.graph.Location(closest)
	goal, ok := d.graph.Location(req.RequesterLocationID)
	if !ok {
		return false
	}
	route, err := d.planner.PlanWithTrafficRules(
		start, goal, drone.ID, isEmergency,
		d.plannerFlights(), d.drones, int(req.Priority),
	)
	if err != nil || len(route) < 2 {
		route, _, err = d.graph.ShortestPath(closest, req.RequesterLocationID)
		if err != nil || len(route) < 2 {
			return false
		}
	}
	distance := d.graph.RouteDistance(route)

	payload := req.PayloadWeightKg
	if payload <= 0 {
		payload = 0.5
	}
	required := energy.DroneEnergy(distance, payload)
	if drone.BatteryLevelKWh < required+MinBatteryThresholdKWh {
		d.log.WithFields(logrus.Fields{
			"drone_id":     drone.ID,
			"battery_kwh":  drone.BatteryLevelKWh,
			"required_kwh": required,
		}).Warn("battery too low for delivery, sending drone to charge")
		d.sendToCharging(drone.ID)
		return false
	}

	now := d.clock.Now()
	speed := speedForPriority(req.Priority)
	drone.CurrentSpeedMPerSec = speed
	drone.Status = models.DroneStatusAssigned
	drone.AssignedRequestID = req.ID
	drone.CurrentPayloadWeightKg = payload
	drone.DeliveryRoute = route
	drone.FlightStartTime = &now
	drone.BatteryConsumedThisFlightKWh = 0

	req.Status = models.RequestStatusAssigned
	req.AssignedDroneID = drone.ID

	d.activeFlights[drone.ID] = &flight{
		Route:             route,
		PayloadWeightKg:   payload,
		StartTime:         now,
		RequestIDs:        []int64{req.ID},
		SpeedMPerSec:      speed,
		IsEmergency:       isEmergency,
		InitialBatteryKWh: drone.BatteryLevelKWh,
	}

	travelSeconds := distance/speed + deliveryBufferSeconds
	requestID := req.ID
	d.scheduler.Schedule(secondsToDuration(travelSeconds), func() {
		d.autoCompleteRequest(requestID)
	})

	d.log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"drone_id":   drone.ID,
		"route":      route,
		"distance_m": distance,
		"eta_s":      travelSeconds,
	}).Info("drone assigned")
	return true
}

// checkAndIntercept offers a non-urgent request to in-flight normal drones
// and accepts the most energy-favorable interception. The combined flight
// must leave the battery reserve intact and cost at most 10% more energy
// than serving the request with a separate drone.
func (d *Dispatcher) checkAndIntercept(req *models.Request) bool {
	var (
		best      *multiStopEvaluation
		bestDrone *models.Drone
	)
	for _, droneID := range sortedFlightIDs(d.activeFlights) {
		info := d.activeFlights[droneID]
		drone, ok := d.drones[droneID]
		if !ok || drone.EmergencyDrone || info.IsReturnTrip {
			continue
		}
		if drone.Status != models.DroneStatusAssigned && drone.Status != models.DroneStatusInTransit {
			continue
		}
		if len(info.Route) < 2 {
			continue
		}
		eval := d.evaluateMultiStop(drone, info, info.Route[1], req)
		if !eval.Accept {
			continue
		}
		if best == nil || eval.EnergyDifferenceKWh > best.EnergyDifferenceKWh {
			best = &eval
			bestDrone = drone
		}
	}
	if bestDrone == nil {
		return false
	}

	info := d.activeFlights[bestDrone.ID]
	currentDestination := info.Route[1]
	currentPayload := info.PayloadWeightKg

	payload := req.PayloadWeightKg
	if payload <= 0 {
		payload = 0.5
	}

	start, _ := d.graph.Location(info.Route[0])
	goalID := req.RequesterLocationID
	if len(best.CombinedRoute) > 0 {
		goalID = best.CombinedRoute[len(best.CombinedRoute)-1]
	}
	goal, _ := d.graph.Location(goalID)

	route, err := d.planner.PlanWithTrafficRules(
		start, goal, bestDrone.ID, bestDrone.EmergencyDrone,
		d.plannerFlights(), d.drones, int(req.Priority),
	)
	if err != nil || len(route) < 2 {
		route = best.CombinedRoute
	} else {
		route = d.insertWaypoint(route, req.RequesterLocationID)
		// The avoidance detour must still clear the energy and battery
		// bars; otherwise fly the evaluated combined route.
		combinedKWh := d.combinedRouteEnergy(route, req.RequesterLocationID, currentDestination, currentPayload, payload)
		diff := best.BaselineKWh - combinedKWh
		if bestDrone.BatteryLevelKWh < combinedKWh+MinBatteryThresholdKWh ||
			(diff <= 0 && diff <= -0.1*best.BaselineKWh) {
			route = best.CombinedRoute
		}
	}

	speed := speedForPriority(req.Priority)
	info.Route = route
	info.PayloadWeightKg += payload
	info.RequestIDs = append(info.RequestIDs, req.ID)
	info.SpeedMPerSec = speed

	req.Status = models.RequestStatusAssigned
	req.AssignedDroneID = bestDrone.ID

	bestDrone.CurrentSpeedMPerSec = speed
	bestDrone.DeliveryRoute = route
	bestDrone.CurrentPayloadWeightKg = info.PayloadWeightKg

	// The intercepted request gets its own completion timer sized to the
	// combined route so both deliveries fire.
	travelSeconds := d.graph.RouteDistance(route)/speed + deliveryBufferSeconds
	requestID := req.ID
	d.scheduler.Schedule(secondsToDuration(travelSeconds), func() {
		d.autoCompleteRequest(requestID)
	})

	d.log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"drone_id":   bestDrone.ID,
		"saved_kwh":  best.EnergyDifferenceKWh,
		"route":      route,
	}).Info("request intercepted by in-flight drone")
	return true
}

type multiStopEvaluation struct {
	Accept              bool
	EnergyDifferenceKWh float64
	BatterySufficient   bool
	RequiredKWh         float64
	BaselineKWh         float64
	CombinedRoute       []int64
}

// evaluateMultiStop compares the energy of finishing the current flight and
// dispatching a separate drone (baseline) against rerouting this drone
// through the secondary stop (combined).
func (d *Dispatcher) evaluateMultiStop(
	drone *models.Drone, info *flight, currentDestination int64, secondary *models.Request,
) multiStopEvaluation {
	currentRoute := info.Route
	if len(currentRoute) == 0 {
		currentRoute = []int64{drone.CurrentLocationID, currentDestination}
	}
	currentPayload := info.PayloadWeightKg
	pickup := secondary.RequesterLocationID

	secondaryPayload := secondary.PayloadWeightKg
	if secondaryPayload <= 0 {
		secondaryPayload = 0.5
	}

	// Baseline: fly the current route as planned, serve the secondary with
	// its own drone from its pickup point.
	baselineEnergy := d.routeEnergy(currentRoute, []float64{currentPayload, 0})
	baselineEnergy += energy.DroneEnergy(0, secondaryPayload) // separate takeoff

	// Combined: insert the pickup on the way or after the first delivery.
	combined := make([]int64, len(currentRoute))
	copy(combined, currentRoute)
	if !lo.Contains(combined, pickup) {
		_, fromCurrent, _ := d.graph.ShortestPath(combined[0], pickup)
		_, fromDest, _ := d.graph.ShortestPath(currentDestination, pickup)
		at := 2
		if fromCurrent < fromDest {
			at = 1
		}
		if at > len(combined) {
			at = len(combined)
		}
		combined = append(combined[:at], append([]int64{pickup}, combined[at:]...)...)
	}

	combinedEnergy := d.combinedRouteEnergy(combined, pickup, currentDestination, currentPayload, secondaryPayload)

	diff := baselineEnergy - combinedEnergy
	sufficient := drone.BatteryLevelKWh >= combinedEnergy+MinBatteryThresholdKWh
	accept := sufficient && (diff > 0 || diff > -0.1*baselineEnergy)

	eval := multiStopEvaluation{
		Accept:              accept,
		EnergyDifferenceKWh: diff,
		BatterySufficient:   sufficient,
		RequiredKWh:         combinedEnergy,
		BaselineKWh:         baselineEnergy,
	}
	if accept {
		eval.CombinedRoute = combined
	}
	return eval
}

// routeEnergy sums per-leg drone energy over a route. Legs past the end of
// the weights slice carry the last known weight, defaulting to 0.5 kg.
func (d *Dispatcher) routeEnergy(route []int64, weights []float64) float64 {
	if len(route) < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i+1 < len(route); i++ {
		_, dist, err := d.graph.ShortestPath(route[i], route[i+1])
		if err != nil || math.IsInf(dist, 1) {
			continue
		}
		leg := 0.5
		if i < len(weights) {
			leg = weights[i]
		} else if len(weights) > 0 && i > 0 && i-1 < len(weights) {
			leg = weights[i-1]
		}
		total += energy.DroneEnergy(dist, leg)
	}
	return total
}

// plannerFlights projects active flights into the planner's obstacle form.
func (d *Dispatcher) plannerFlights() map[int64]planner.ActiveFlight {
	out := make(map[int64]planner.ActiveFlight, len(d.activeFlights))
	for id, info := range d.activeFlights {
		priority := 3
		if info.IsEmergency {
			priority = 5
		}
		out[id] = planner.ActiveFlight{Route: info.Route, PriorityLevel: priority}
	}
	return out
}

// combinedRouteEnergy prices a multi-stop route with the payload profile of
// carrying the current load plus the secondary payload to the pickup, the
// secondary payload alone past the first delivery, and nothing beyond.
func (d *Dispatcher) combinedRouteEnergy(
	route []int64, pickup, currentDestination int64,
	currentPayload, secondaryPayload float64,
) float64 {
	weights := make([]float64, len(route))
	for i, loc := range route {
		switch loc {
		case pickup:
			weights[i] = currentPayload + secondaryPayload
		case currentDestination:
			weights[i] = secondaryPayload
		default:
			weights[i] = 0
		}
	}
	return d.routeEnergy(route, weights)
}

// insertWaypoint splices a missing stop into a route right after the node
// nearest to it, keeping the detour as short as the corridor allows.
func (d *Dispatcher) insertWaypoint(route []int64, waypoint int64) []int64 {
	if lo.Contains(route, waypoint) {
		return route
	}
	wp, ok := d.graph.Location(waypoint)
	if !ok {
		return append(route, waypoint)
	}
	at := 1
	minDist := math.Inf(1)
	for i, id := range route {
		loc, ok := d.graph.Location(id)
		if !ok {
			continue
		}
		if dist := d.graph.EuclideanDistance(loc, wp); dist < minDist {
			minDist = dist
			at = i + 1
		}
	}
	if at > len(route) {
		at = len(route)
	}
	out := make([]int64, 0, len(route)+1)
	out = append(out, route[:at]...)
	out = append(out, waypoint)
	return append(out, route[at:]...)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func sortedDroneIDs(drones map[int64]*models.Drone) []int64 {
	ids := lo.Keys(drones)
	sortInt64s(ids)
	return ids
}

func sortedFlightIDs(flights map[int64]*flight) []int64 {
	ids := lo.Keys(flights)
	sortInt64s(ids)
	return ids
}

// Package planner provides sampling-based path planning with dynamic
// obstacle avoidance. The planner runs RRT* over the hospital search space,
// treats in-flight drones as moving obstacles, and enforces right-of-way:
// emergency drones always have priority, normal drones yield.
package planner

import (
	"math"
	"math/rand"

	"hospitalDroneLogistics/internal/graph"
	"hospitalDroneLogistics/models"
)

// Planning defaults. Step size and radii are in meters; altitude sampling
// up to 5 m lets the tree route over a conflict.
const (
	DefaultObstacleRadius = 1.5
	DefaultLaneWidth      = 1.0
	DefaultStepSize       = 2.0
	DefaultGoalRadius     = 3.0
	goalBias              = 0.1
	maxAltitude           = 5.0

	// Emergency drones plan with fewer iterations for faster turnaround.
	EmergencyIterations = 300
	NormalIterations    = 500
)

// Lane assignments in the 3-lane corridor system.
const (
	LaneLeft   = 0
	LaneMiddle = 1
	LaneRight  = 2
)

// Position is a drone's current or predicted position used as a dynamic
// obstacle during planning.
type Position struct {
	DroneID       int64
	LocationID    int64
	X, Y, Z       float64
	Timestamp     float64 // seconds from now at which the drone is here
	IsEmergency   bool
	Speed         float64
	Lane          int
	PriorityLevel int // CTAS class, 1-5, higher is more urgent
}

// ActiveFlight describes an in-progress delivery for obstacle prediction.
type ActiveFlight struct {
	Route         []int64
	PriorityLevel int
}

// Bounds delimit the planar search space.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Planner is an RRT* path planner over the hospital graph.
type Planner struct {
	graph          *graph.Graph
	bounds         Bounds
	obstacleRadius float64
	laneWidth      float64
	rng            *rand.Rand
}

// New builds a planner. rng is injected so tests can run deterministically.
func New(g *graph.Graph, bounds Bounds, rng *rand.Rand) *Planner {
	return &Planner{
		graph:          g,
		bounds:         bounds,
		obstacleRadius: DefaultObstacleRadius,
		laneWidth:      DefaultLaneWidth,
		rng:            rng,
	}
}

type point struct{ x, y, z float64 }

func dist3(a, b point) float64 {
	dx, dy, dz := a.x-b.x, a.y-b.y, a.z-b.z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func locPoint(loc models.Location) point {
	return point{x: loc.X, y: loc.Y}
}

// AssignLane picks a corridor lane by priority. High-priority drones
// (emergency or CTAS I/II) take the middle lane when free and may claim it
// even when occupied; others spread to the side lanes and only use the
// middle when no high-priority traffic holds it.
func (p *Planner) AssignLane(isEmergency bool, priorityLevel int, inSegment []Position) int {
	occupied := map[int]bool{}
	highPriorityInMiddle := false
	for _, pos := range inSegment {
		occupied[pos.Lane] = true
		if pos.Lane == LaneMiddle && (pos.IsEmergency || pos.PriorityLevel >= 4) {
			highPriorityInMiddle = true
		}
	}

	if isEmergency || priorityLevel >= 4 {
		if !occupied[LaneMiddle] {
			return LaneMiddle
		}
		for _, lane := range []int{LaneLeft, LaneMiddle, LaneRight} {
			if !occupied[lane] {
				return lane
			}
		}
		// All lanes held by lower-priority traffic; it must yield.
		return LaneMiddle
	}

	if !occupied[LaneLeft] {
		return LaneLeft
	}
	if !occupied[LaneRight] {
		return LaneRight
	}
	if !highPriorityInMiddle && !occupied[LaneMiddle] {
		return LaneMiddle
	}
	return LaneLeft
}

// collisionFree checks a candidate point against every other drone's
// predicted trajectory. Right-of-way rules: same-lane traffic keeps 1.5
// lane widths apart (0.8 when the planner outranks the other drone),
// cross-lane traffic keeps the obstacle radius, and normal drones give
// emergency drones a 3x radius berth plus predictive time-to-collision
// yielding within a 5 second horizon.
func (p *Planner) collisionFree(
	pt point, others map[int64][]Position, droneID int64,
	isEmergency bool, timestamp, speed float64, lane, priorityLevel int,
) bool {
	highPriority := isEmergency || priorityLevel >= 4
	for otherID, trajectory := range others {
		if otherID == droneID {
			continue
		}
		for i, other := range trajectory {
			predicted := point{other.X, other.Y, other.Z}
			if i+1 < len(trajectory) {
				next := trajectory[i+1]
				if delta := math.Abs(timestamp - other.Timestamp); delta > 0 {
					span := math.Max(0.1, math.Abs(next.Timestamp-other.Timestamp))
					progress := math.Min(1.0, delta/span)
					predicted = point{
						other.X + (next.X-other.X)*progress,
						other.Y + (next.Y-other.Y)*progress,
						other.Z + (next.Z-other.Z)*progress,
					}
				}
			}
			d := dist3(pt, predicted)
			otherHigh := other.IsEmergency || other.PriorityLevel >= 4

			if lane == other.Lane {
				if d < p.laneWidth*1.5 {
					switch {
					case !highPriority && otherHigh:
						return false
					case highPriority && !otherHigh:
						if d < p.laneWidth*0.8 {
							return false
						}
					default:
						return false
					}
				}
			} else if d < p.obstacleRadius {
				return false
			}

			// Yielding protocol for emergency traffic.
			if other.IsEmergency && !highPriority {
				emergencyRadius := p.obstacleRadius * 3.0
				if d < emergencyRadius {
					return false
				}
				if other.Speed > speed && d < emergencyRadius*1.5 {
					return false
				}
				if relative := math.Abs(other.Speed - speed); relative > 0 {
					if ttc := d / relative; ttc > 0 && ttc < 5.0 {
						return false
					}
				}
				if d < p.obstacleRadius*2.5 {
					return false
				}
			}
		}
	}
	return true
}

// steer moves from one point towards another, capped at the step size.
func steer(from, to point, step float64) point {
	d := dist3(from, to)
	if d <= step {
		return to
	}
	ratio := step / d
	return point{
		from.x + (to.x-from.x)*ratio,
		from.y + (to.y-from.y)*ratio,
		from.z + (to.z-from.z)*ratio,
	}
}

// PlanWithAvoidance grows an RRT* tree from start to goal around the given
// obstacle trajectories. It returns the planned route as graph location
// ids; when the tree never reaches the goal it falls back to the plain
// shortest path.
func (p *Planner) PlanWithAvoidance(
	start, goal models.Location, droneID int64, isEmergency bool,
	others map[int64][]Position, maxIterations int, priorityLevel int,
) ([]int64, error) {
	startPoint := locPoint(start)
	goalPoint := locPoint(goal)

	tree := []point{startPoint}
	parent := map[point]point{}
	cost := map[point]float64{startPoint: 0}

	lane := LaneLeft
	if isEmergency || priorityLevel >= 4 {
		lane = LaneMiddle
	}
	speed := models.DefaultDroneSpeedMPerSec

	var goalNode point
	goalReached := false
	for i := 0; i < maxIterations; i++ {
		randPoint := goalPoint
		if p.rng.Float64() >= goalBias {
			randPoint = point{
				p.bounds.MinX + p.rng.Float64()*(p.bounds.MaxX-p.bounds.MinX),
				p.bounds.MinY + p.rng.Float64()*(p.bounds.MaxY-p.bounds.MinY),
				p.rng.Float64() * maxAltitude,
			}
		}

		nearest := tree[0]
		minDist := math.Inf(1)
		for _, node := range tree {
			if d := dist3(node, randPoint); d < minDist {
				minDist = d
				nearest = node
			}
		}
		newPoint := steer(nearest, randPoint, DefaultStepSize)

		timestamp := float64(i) * 0.1
		if !p.collisionFree(newPoint, others, droneID, isEmergency, timestamp, speed, lane, priorityLevel) {
			continue
		}

		// Choose the cheapest collision-free parent among nearby nodes.
		var near []point
		for _, node := range tree {
			if dist3(node, newPoint) <= DefaultStepSize*2.0 {
				near = append(near, node)
			}
		}
		bestParent := nearest
		minCost := cost[nearest] + dist3(nearest, newPoint)
		for _, node := range near {
			if c := cost[node] + dist3(node, newPoint); c < minCost {
				minCost = c
				bestParent = node
			}
		}
		tree = append(tree, newPoint)
		parent[newPoint] = bestParent
		cost[newPoint] = minCost

		// Rewire neighbors through the new node when it shortens them.
		for _, node := range near {
			if node == bestParent {
				continue
			}
			rewired := cost[newPoint] + dist3(node, newPoint)
			if existing, ok := cost[node]; !ok || existing > rewired {
				if p.collisionFree(node, others, droneID, isEmergency, timestamp, speed, lane, priorityLevel) {
					parent[node] = newPoint
					cost[node] = rewired
				}
			}
		}

		if dist3(newPoint, goalPoint) <= DefaultGoalRadius {
			goalReached = true
			goalNode = newPoint
			break
		}
	}

	if !goalReached {
		route, _, err := p.graph.ShortestPath(start.ID, goal.ID)
		return route, err
	}

	// Walk back to the root, then map tree points onto graph locations.
	var points []point
	for cur, ok := goalNode, true; ok; cur, ok = parentLookup(parent, cur, startPoint) {
		points = append(points, cur)
		if cur == startPoint {
			break
		}
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	route := []int64{start.ID}
	for _, pt := range points[1:] {
		if id, ok := p.closestLocation(pt); ok && id != route[len(route)-1] {
			route = append(route, id)
		}
	}
	if route[len(route)-1] != goal.ID {
		route = append(route, goal.ID)
	}
	return route, nil
}

func parentLookup(parent map[point]point, cur, root point) (point, bool) {
	if cur == root {
		return point{}, false
	}
	next, ok := parent[cur]
	return next, ok
}

func (p *Planner) closestLocation(pt point) (int64, bool) {
	var closest int64
	found := false
	minDist := math.Inf(1)
	for _, loc := range p.graph.Locations() {
		if d := dist3(pt, locPoint(loc)); d < minDist {
			minDist = d
			closest = loc.ID
			found = true
		}
	}
	return closest, found
}

// PlanWithTrafficRules predicts every active flight's trajectory, assigns
// corridor lanes by priority, and plans a collision-free route. Emergency
// drones plan with a shorter iteration budget for faster turnaround.
func (p *Planner) PlanWithTrafficRules(
	start, goal models.Location, droneID int64, isEmergency bool,
	flights map[int64]ActiveFlight, drones map[int64]*models.Drone,
	priorityLevel int,
) ([]int64, error) {
	others := map[int64][]Position{}
	for otherID, flight := range flights {
		if otherID == droneID {
			continue
		}
		drone, ok := drones[otherID]
		if !ok || (drone.Status != models.DroneStatusAssigned && drone.Status != models.DroneStatusInTransit) {
			continue
		}
		if len(flight.Route) == 0 {
			continue
		}

		speed := drone.CurrentSpeedMPerSec
		if speed <= 0 {
			speed = models.DefaultDroneSpeedMPerSec
		}
		otherPriority := flight.PriorityLevel
		if otherPriority == 0 {
			otherPriority = 3
			if drone.EmergencyDrone {
				otherPriority = 5
			}
		}

		var positions []Position
		elapsed := 0.0
		var prev models.Location
		for i, locID := range flight.Route {
			loc, ok := p.graph.Location(locID)
			if !ok {
				continue
			}
			if i > 0 {
				elapsed += p.graph.EuclideanDistance(prev, loc) / speed
			}
			prev = loc

			var inSegment []Position
			for _, traj := range others {
				for _, pos := range traj {
					if pos.LocationID == locID {
						inSegment = append(inSegment, pos)
					}
				}
			}
			positions = append(positions, Position{
				DroneID:       otherID,
				LocationID:    locID,
				X:             loc.X,
				Y:             loc.Y,
				Timestamp:     elapsed,
				IsEmergency:   drone.EmergencyDrone,
				Speed:         speed,
				Lane:          p.AssignLane(drone.EmergencyDrone, otherPriority, inSegment),
				PriorityLevel: otherPriority,
			})
		}
		if len(positions) > 0 {
			others[otherID] = positions
		}
	}

	iterations := NormalIterations
	if isEmergency {
		iterations = EmergencyIterations
	}
	route, err := p.PlanWithAvoidance(start, goal, droneID, isEmergency, others, iterations, priorityLevel)
	if err != nil {
		return nil, err
	}
	if len(route) < 2 {
		route, _, err = p.graph.ShortestPath(start.ID, goal.ID)
		if err != nil {
			return nil, err
		}
	}
	return route, nil
}

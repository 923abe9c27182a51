package planner

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospitalDroneLogistics/internal/graph"
	"hospitalDroneLogistics/models"
)

var testBounds = Bounds{MinX: -5, MaxX: 35, MinY: -5, MaxY: 15}

func buildPlannerGraph() *graph.Graph {
	g := graph.New()
	g.AddLocation(models.Location{ID: 1, Name: "ER", X: 0, Y: 0, Floor: 1})
	g.AddLocation(models.Location{ID: 2, Name: "Pharmacy", X: 10, Y: 0, Floor: 1})
	g.AddLocation(models.Location{ID: 3, Name: "ICU", X: 20, Y: 0, Floor: 1})
	g.AddLocation(models.Location{ID: 4, Name: "Lab", X: 10, Y: 10, Floor: 1})
	g.AddPathway(1, 2, 10, true)
	g.AddPathway(2, 3, 10, true)
	g.AddPathway(1, 4, 14.1, true)
	g.AddPathway(4, 3, 14.1, true)
	return g
}

func newTestPlanner(g *graph.Graph) *Planner {
	return New(g, testBounds, rand.New(rand.NewSource(42)))
}

func TestPlanWithAvoidanceReachesGoal(t *testing.T) {
	g := buildPlannerGraph()
	p := newTestPlanner(g)
	start, _ := g.Location(1)
	goal, _ := g.Location(3)

	route, err := p.PlanWithAvoidance(start, goal, 1, false, nil, NormalIterations, 3)
	require.NoError(t, err)
	require.NotEmpty(t, route)
	assert.Equal(t, int64(1), route[0])
	assert.Equal(t, int64(3), route[len(route)-1])
}

func TestPlanWithAvoidanceFallsBackToShortestPath(t *testing.T) {
	g := buildPlannerGraph()
	p := newTestPlanner(g)
	start, _ := g.Location(1)
	goal, _ := g.Location(3)

	// Zero iterations means the tree never grows; the planner must fall
	// back to the graph shortest path.
	route, err := p.PlanWithAvoidance(start, goal, 1, false, nil, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, route)
}

func TestPlanWithTrafficRulesAvoidsEmergencyDrone(t *testing.T) {
	g := buildPlannerGraph()
	p := newTestPlanner(g)
	start, _ := g.Location(1)
	goal, _ := g.Location(3)

	drones := map[int64]*models.Drone{
		2: {
			ID:                  2,
			Status:              models.DroneStatusInTransit,
			EmergencyDrone:      true,
			CurrentSpeedMPerSec: 4.0,
		},
	}
	flights := map[int64]ActiveFlight{
		2: {Route: []int64{3, 2, 1}, PriorityLevel: 5},
	}

	route, err := p.PlanWithTrafficRules(start, goal, 1, false, flights, drones, 3)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(route), 2)
	assert.Equal(t, int64(1), route[0])
	assert.Equal(t, int64(3), route[len(route)-1])
}

func TestPlanWithTrafficRulesIgnoresIdleDrones(t *testing.T) {
	g := buildPlannerGraph()
	p := newTestPlanner(g)
	start, _ := g.Location(1)
	goal, _ := g.Location(2)

	drones := map[int64]*models.Drone{
		2: {ID: 2, Status: models.DroneStatusAvailable},
	}
	flights := map[int64]ActiveFlight{
		2: {Route: []int64{2, 1}},
	}

	route, err := p.PlanWithTrafficRules(start, goal, 1, false, flights, drones, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), route[0])
	assert.Equal(t, int64(2), route[len(route)-1])
}

func TestAssignLane(t *testing.T) {
	g := buildPlannerGraph()
	p := newTestPlanner(g)

	// Emergency traffic prefers the middle lane.
	assert.Equal(t, LaneMiddle, p.AssignLane(true, 5, nil))
	// Normal traffic spreads left first, then right.
	assert.Equal(t, LaneLeft, p.AssignLane(false, 3, nil))
	assert.Equal(t, LaneRight, p.AssignLane(false, 3, []Position{{Lane: LaneLeft}}))
	// Normal traffic may not take a middle lane held by emergency traffic.
	assert.Equal(t, LaneLeft, p.AssignLane(false, 3, []Position{
		{Lane: LaneLeft}, {Lane: LaneRight},
		{Lane: LaneMiddle, IsEmergency: true},
	}))
	// Emergency claims the middle even when all lanes are occupied.
	assert.Equal(t, LaneMiddle, p.AssignLane(true, 5, []Position{
		{Lane: LaneLeft}, {Lane: LaneMiddle}, {Lane: LaneRight},
	}))
}

func TestCollisionFreeEmergencyClearance(t *testing.T) {
	g := buildPlannerGraph()
	p := newTestPlanner(g)

	others := map[int64][]Position{
		2: {{
			DroneID: 2, LocationID: 2, X: 10, Y: 0,
			IsEmergency: true, Speed: 4.0, Lane: LaneMiddle, PriorityLevel: 5,
		}},
	}

	// A normal drone 3 m from an emergency drone sits inside the 3x
	// obstacle radius (4.5 m) and must yield.
	blocked := p.collisionFree(point{7, 0, 0}, others, 1, false, 0, 2.5, LaneLeft, 3)
	assert.False(t, blocked)

	// An emergency planner is not subject to the yielding protocol.
	clear := p.collisionFree(point{7, 0, 0}, others, 1, true, 0, 4.0, LaneRight, 5)
	assert.True(t, clear)

	// Far away is always safe.
	assert.True(t, p.collisionFree(point{30, 10, 0}, others, 1, false, 0, 2.5, LaneLeft, 3))
}

func TestCollisionFreeSameLaneSeparation(t *testing.T) {
	g := buildPlannerGraph()
	p := newTestPlanner(g)

	others := map[int64][]Position{
		2: {{DroneID: 2, X: 10, Y: 0, Speed: 2.5, Lane: LaneLeft, PriorityLevel: 3}},
	}

	// Same lane, under 1.5 lane widths: both normal priority, must yield.
	assert.False(t, p.collisionFree(point{11, 0, 0}, others, 1, false, 0, 2.5, LaneLeft, 3))
	// Different lane at the same distance only needs the obstacle radius.
	assert.True(t, p.collisionFree(point{11.6, 0, 0}, others, 1, false, 0, 2.5, LaneRight, 3))
}

func TestSteer(t *testing.T) {
	from := point{0, 0, 0}
	to := point{10, 0, 0}
	stepped := steer(from, to, 2.0)
	assert.InDelta(t, 2.0, stepped.x, 1e-9)
	assert.Zero(t, stepped.y)

	// Within step size the target is returned as-is.
	near := steer(from, point{1, 1, 0}, 2.0)
	assert.Equal(t, point{1, 1, 0}, near)
}

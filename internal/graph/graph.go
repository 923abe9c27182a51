// Package graph implements the weighted hospital floorplan graph used for
// routing: shortest path with early termination, second-shortest path via
// edge removal, and nearest-of-set queries for drone and charging-station
// selection.
package graph

import (
	"container/heap"
	"fmt"
	"math"

	"hospitalDroneLogistics/models"
)

// Graph is a weighted graph of hospital locations. Edges are bidirectional
// by default and the adjacency lists stay symmetric for such edges.
type Graph struct {
	nodes     map[int64]models.Location
	adjacency map[int64][]Edge
}

// Edge is a weighted connection to a neighboring location.
type Edge struct {
	To     int64
	Weight float64
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[int64]models.Location),
		adjacency: make(map[int64][]Edge),
	}
}

// AddLocation registers a node. Re-adding an id overwrites its metadata but
// keeps its edges.
func (g *Graph) AddLocation(loc models.Location) {
	g.nodes[loc.ID] = loc
	if _, ok := g.adjacency[loc.ID]; !ok {
		g.adjacency[loc.ID] = nil
	}
}

// AddPathway adds an edge between two locations. Weight represents travel
// distance in meters.
func (g *Graph) AddPathway(from, to int64, weight float64, bidirectional bool) {
	g.adjacency[from] = append(g.adjacency[from], Edge{To: to, Weight: weight})
	if bidirectional {
		g.adjacency[to] = append(g.adjacency[to], Edge{To: from, Weight: weight})
	}
}

// Location returns the node metadata for an id.
func (g *Graph) Location(id int64) (models.Location, bool) {
	loc, ok := g.nodes[id]
	return loc, ok
}

// Locations returns all registered nodes.
func (g *Graph) Locations() []models.Location {
	out := make([]models.Location, 0, len(g.nodes))
	for _, loc := range g.nodes {
		out = append(out, loc)
	}
	return out
}

// EuclideanDistance is the planar distance between two locations, with a
// 10x penalty across floors.
func (g *Graph) EuclideanDistance(a, b models.Location) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	penalty := 1.0
	if a.Floor != b.Floor {
		penalty = 10.0
	}
	return math.Sqrt(dx*dx+dy*dy) * penalty
}

// distEntry is a lazy-deletion priority queue entry.
type distEntry struct {
	id   int64
	dist float64
}

type distHeap []distEntry

func (h distHeap) Len() int            { return len(h) }
func (h distHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h distHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x interface{}) { *h = append(*h, x.(distEntry)) }
func (h *distHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// dijkstra runs a single-source shortest-path search. When target >= 0 the
// search terminates as soon as the target is settled. A skipped edge (both
// directions) supports the second-shortest-path search.
func (g *Graph) dijkstra(start, target int64, skip *Edge, skipFrom int64) (map[int64]float64, map[int64]int64, error) {
	if _, ok := g.nodes[start]; !ok {
		return nil, nil, fmt.Errorf("start location %d not in graph", start)
	}
	dist := make(map[int64]float64, len(g.nodes))
	for id := range g.nodes {
		dist[id] = math.Inf(1)
	}
	dist[start] = 0
	prev := make(map[int64]int64)
	visited := make(map[int64]bool, len(g.nodes))

	pq := &distHeap{{id: start, dist: 0}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(distEntry)
		if visited[cur.id] {
			continue // stale entry, lazy deletion
		}
		visited[cur.id] = true
		if target >= 0 && cur.id == target {
			break
		}
		for _, e := range g.adjacency[cur.id] {
			if visited[e.To] {
				continue
			}
			if skip != nil &&
				((cur.id == skipFrom && e.To == skip.To) || (cur.id == skip.To && e.To == skipFrom)) {
				continue
			}
			if next := cur.dist + e.Weight; next < dist[e.To] {
				dist[e.To] = next
				prev[e.To] = cur.id
				heap.Push(pq, distEntry{id: e.To, dist: next})
			}
		}
	}
	return dist, prev, nil
}

// ShortestPath returns the minimal-weight path between two locations and
// its total weight. An unreachable or unknown target yields an empty path
// and +Inf; an unknown start is a hard error.
func (g *Graph) ShortestPath(start, target int64) ([]int64, float64, error) {
	if _, ok := g.nodes[start]; !ok {
		return nil, math.Inf(1), fmt.Errorf("start location %d not in graph", start)
	}
	if _, ok := g.nodes[target]; !ok {
		return nil, math.Inf(1), nil
	}
	return g.shortestPathSkipping(start, target, nil, 0)
}

func (g *Graph) shortestPathSkipping(start, target int64, skip *Edge, skipFrom int64) ([]int64, float64, error) {
	dist, prev, err := g.dijkstra(start, target, skip, skipFrom)
	if err != nil {
		return nil, math.Inf(1), err
	}
	if math.IsInf(dist[target], 1) {
		return nil, math.Inf(1), nil
	}
	var path []int64
	for cur := target; ; {
		path = append(path, cur)
		if cur == start {
			break
		}
		cur = prev[cur]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, dist[target], nil
}

// SecondShortestPath finds the best path strictly different from the
// shortest one by removing each shortest-path edge in turn and re-running
// the search. Returns an empty path and +Inf when no alternative exists.
func (g *Graph) SecondShortestPath(start, target int64) ([]int64, float64, error) {
	best, _, err := g.ShortestPath(start, target)
	if err != nil {
		return nil, math.Inf(1), err
	}
	if len(best) < 2 {
		return nil, math.Inf(1), nil
	}
	var secondPath []int64
	secondDist := math.Inf(1)
	for i := 0; i < len(best)-1; i++ {
		skip := Edge{To: best[i+1]}
		path, dist, err := g.shortestPathSkipping(start, target, &skip, best[i])
		if err != nil {
			return nil, math.Inf(1), err
		}
		if len(path) == 0 || samePath(path, best) {
			continue
		}
		if dist < secondDist {
			secondDist = dist
			secondPath = path
		}
	}
	return secondPath, secondDist, nil
}

// NearestOfSet returns the candidate location closest to from by graph
// distance, or (0, false) when none is reachable.
func (g *Graph) NearestOfSet(from int64, candidates []int64) (int64, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	if _, ok := g.nodes[from]; !ok {
		return 0, false
	}
	dist, _, err := g.dijkstra(from, -1, nil, 0)
	if err != nil {
		return 0, false
	}
	var nearest int64
	found := false
	min := math.Inf(1)
	for _, id := range candidates {
		if d, ok := dist[id]; ok && d < min {
			min = d
			nearest = id
			found = true
		}
	}
	return nearest, found
}

// RouteDistance sums shortest-path leg distances along a route of node ids.
func (g *Graph) RouteDistance(route []int64) float64 {
	total := 0.0
	for i := 0; i+1 < len(route); i++ {
		_, dist, err := g.ShortestPath(route[i], route[i+1])
		if err != nil || math.IsInf(dist, 1) {
			continue
		}
		total += dist
	}
	return total
}

func samePath(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

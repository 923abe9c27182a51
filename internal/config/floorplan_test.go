package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFloorplan_BuiltIn(t *testing.T) {
	fp, err := LoadFloorplan("")
	if err != nil {
		t.Fatalf("LoadFloorplan: %v", err)
	}
	if len(fp.Locations) != 18 {
		t.Fatalf("expected 18 locations, got %d", len(fp.Locations))
	}
	if len(fp.ChargingStations) != 10 {
		t.Fatalf("expected 10 charging stations, got %d", len(fp.ChargingStations))
	}
	if len(fp.Drones) != 20 {
		t.Fatalf("expected 20 drones, got %d", len(fp.Drones))
	}
	emergency := 0
	for _, d := range fp.Drones {
		if d.Emergency {
			emergency++
		}
	}
	if emergency != 6 {
		t.Fatalf("expected 6 emergency drones, got %d", emergency)
	}

	g := fp.BuildGraph()
	// ER to Surgery across the building must be reachable.
	route, dist, err := g.ShortestPath(1, 8)
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	if len(route) < 2 || dist <= 0 {
		t.Fatalf("unexpected route %v dist %v", route, dist)
	}

	b := fp.PlannerBounds()
	if b.MinX >= b.MaxX || b.MinY >= b.MaxY {
		t.Fatalf("degenerate planner bounds: %+v", b)
	}
}

func TestLoadFloorplan_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	content := []byte(`
locations:
  - {id: 1, name: A, x: 0, y: 0, floor: 1}
  - {id: 2, name: B, x: 10, y: 0, floor: 1}
pathways:
  - {from: 1, to: 2, distance: 10.0}
charging_stations: [1]
bounds: {min_x: -5, max_x: 15, min_y: -5, max_y: 5}
drones:
  - {location: 1}
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fp, err := LoadFloorplan(path)
	if err != nil {
		t.Fatalf("LoadFloorplan: %v", err)
	}
	if len(fp.Locations) != 2 || fp.Locations[1].Name != "B" {
		t.Fatalf("unexpected floorplan: %+v", fp)
	}
}

func TestLoadFloorplan_RejectsBadReferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := []byte(`
locations:
  - {id: 1, name: A, x: 0, y: 0, floor: 1}
pathways:
  - {from: 1, to: 99, distance: 10.0}
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFloorplan(path); err == nil {
		t.Fatalf("expected error for pathway to unknown location")
	}
}

package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"hospitalDroneLogistics/internal/graph"
	"hospitalDroneLogistics/internal/planner"
	"hospitalDroneLogistics/models"
)

//go:embed default_floorplan.yaml
var defaultFloorplan []byte

// Floorplan describes the hospital layout: rooms, pathways, charging
// stations, planner bounds, and the initial drone fleet.
type Floorplan struct {
	Locations        []FloorplanLocation `yaml:"locations"`
	Pathways         []FloorplanPathway  `yaml:"pathways"`
	ChargingStations []int64             `yaml:"charging_stations"`
	Bounds           FloorplanBounds     `yaml:"bounds"`
	Drones           []FloorplanDrone    `yaml:"drones"`
}

type FloorplanLocation struct {
	ID    int64   `yaml:"id"`
	Name  string  `yaml:"name"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Floor int     `yaml:"floor"`
}

type FloorplanPathway struct {
	From     int64   `yaml:"from"`
	To       int64   `yaml:"to"`
	Distance float64 `yaml:"distance"`
	// One-way pathways are rare in a hospital but supported.
	OneWay bool `yaml:"one_way"`
}

type FloorplanBounds struct {
	MinX float64 `yaml:"min_x"`
	MaxX float64 `yaml:"max_x"`
	MinY float64 `yaml:"min_y"`
	MaxY float64 `yaml:"max_y"`
}

type FloorplanDrone struct {
	Location  int64 `yaml:"location"`
	Emergency bool  `yaml:"emergency"`
}

// LoadFloorplan reads a YAML floorplan from path, or the built-in hospital
// layout when path is empty.
func LoadFloorplan(path string) (*Floorplan, error) {
	data := defaultFloorplan
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read floorplan: %w", err)
		}
		data = b
	}
	var fp Floorplan
	if err := yaml.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("parse floorplan: %w", err)
	}
	if err := fp.validate(); err != nil {
		return nil, err
	}
	return &fp, nil
}

func (fp *Floorplan) validate() error {
	if len(fp.Locations) == 0 {
		return fmt.Errorf("floorplan has no locations")
	}
	ids := make(map[int64]bool, len(fp.Locations))
	for _, loc := range fp.Locations {
		if ids[loc.ID] {
			return fmt.Errorf("duplicate location id %d", loc.ID)
		}
		ids[loc.ID] = true
	}
	for _, p := range fp.Pathways {
		if !ids[p.From] || !ids[p.To] {
			return fmt.Errorf("pathway %d-%d references unknown location", p.From, p.To)
		}
		if p.Distance <= 0 {
			return fmt.Errorf("pathway %d-%d has non-positive distance", p.From, p.To)
		}
	}
	for _, s := range fp.ChargingStations {
		if !ids[s] {
			return fmt.Errorf("charging station %d is not a location", s)
		}
	}
	for _, d := range fp.Drones {
		if !ids[d.Location] {
			return fmt.Errorf("drone starts at unknown location %d", d.Location)
		}
	}
	return nil
}

// BuildGraph materializes the floorplan into a pathway graph.
func (fp *Floorplan) BuildGraph() *graph.Graph {
	g := graph.New()
	for _, loc := range fp.Locations {
		g.AddLocation(models.Location{
			ID:    loc.ID,
			Name:  loc.Name,
			X:     loc.X,
			Y:     loc.Y,
			Floor: loc.Floor,
		})
	}
	for _, p := range fp.Pathways {
		g.AddPathway(p.From, p.To, p.Distance, !p.OneWay)
	}
	return g
}

// PlannerBounds converts the YAML bounds to the planner's sampling window.
func (fp *Floorplan) PlannerBounds() planner.Bounds {
	return planner.Bounds{
		MinX: fp.Bounds.MinX,
		MaxX: fp.Bounds.MaxX,
		MinY: fp.Bounds.MinY,
		MaxY: fp.Bounds.MaxY,
	}
}

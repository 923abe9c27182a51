package models

// Location is a node in the hospital graph. Immutable after graph construction.
type Location struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Floor int     `json:"floor"`
}

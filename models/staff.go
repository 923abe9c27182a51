package models

// Staff is a hospital staff account allowed to submit delivery requests.
// It maps to the `staff` table in SQLite.
type Staff struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Role string `db:"role" json:"role"` // "staff" | "admin"
}

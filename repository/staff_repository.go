package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hospitalDroneLogistics/models"
)

type StaffRepository struct {
	db *sql.DB
}

func NewStaffRepository(db *sql.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// Create inserts a new staff account. Role defaults to 'staff'.
func (r *StaffRepository) Create(ctx context.Context, name string) (*models.Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO staff (name) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Staff{ID: id, Name: name, Role: "staff"}, nil
}

func (r *StaffRepository) GetByName(ctx context.Context, name string) (*models.Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s models.Staff
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, role FROM staff WHERE name = ?`, name).Scan(&s.ID, &s.Name, &s.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// UpdateRoleByName sets the role for the given staff name.
// Intended for administrative flows and tests.
func (r *StaffRepository) UpdateRoleByName(ctx context.Context, name, role string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE staff SET role = ? WHERE name = ?`, role, name)
	return err
}

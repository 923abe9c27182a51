package repository

import (
	"context"

	"hospitalDroneLogistics/models"
)

// PatientRepositoryI defines operations on patient records.
type PatientRepositoryI interface {
	GetPatient(ctx context.Context, patientID string) (*models.Patient, error)
	List(ctx context.Context, limit, offset int) ([]models.Patient, error)
	ListByStatus(ctx context.Context, status models.PatientStatus) ([]models.Patient, error)
	UpdateStatus(ctx context.Context, patientID string, status models.PatientStatus) error
	UpdateVitals(ctx context.Context, patientID string, v models.Vitals) error
}

// StaffRepositoryI defines operations on staff accounts.
type StaffRepositoryI interface {
	Create(ctx context.Context, name string) (*models.Staff, error)
	GetByName(ctx context.Context, name string) (*models.Staff, error)
	UpdateRoleByName(ctx context.Context, name, role string) error
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hospitalDroneLogistics/models"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

const patientColumns = `patient_id, name, date_of_birth, gender, date_of_admission,
    symptoms, current_status, reason_for_hospitalization,
    heart_rate, bp_systolic, bp_diastolic, temperature, oxygen_saturation, respiratory_rate, pain_level,
    health_risks, lifestyle_risks, allergies`

type PatientRepository struct {
	db *sql.DB
}

func NewPatientRepository(db *sql.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// GetPatient loads one patient by id. Returns ErrNotFound when the id is
// unknown; the dispatcher rejects requests for patients it cannot verify.
func (r *PatientRepository) GetPatient(ctx context.Context, patientID string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE patient_id = ?`, patientID)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient %s: %w", patientID, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (r *PatientRepository) List(ctx context.Context, limit, offset int) ([]models.Patient, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+patientColumns+` FROM patients ORDER BY patient_id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPatients(rows)
}

func (r *PatientRepository) ListByStatus(ctx context.Context, status models.PatientStatus) ([]models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE current_status = ? ORDER BY patient_id`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPatients(rows)
}

func (r *PatientRepository) UpdateStatus(ctx context.Context, patientID string, status models.PatientStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE patients SET current_status = ? WHERE patient_id = ?`, string(status), patientID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("patient %s: %w", patientID, ErrNotFound)
	}
	return nil
}

func (r *PatientRepository) UpdateVitals(ctx context.Context, patientID string, v models.Vitals) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE patients SET
        heart_rate = ?, bp_systolic = ?, bp_diastolic = ?, temperature = ?,
        oxygen_saturation = ?, respiratory_rate = ?, pain_level = ?
        WHERE patient_id = ?`,
		v.HeartRate, v.BloodPressureSystolic, v.BloodPressureDiastolic, v.TemperatureCelsius,
		v.OxygenSaturation, v.RespiratoryRate, v.PainLevel, patientID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("patient %s: %w", patientID, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*models.Patient, error) {
	var (
		p         models.Patient
		dob       sql.NullString
		admission sql.NullString
	)
	err := row.Scan(
		&p.PatientID, &p.Name, &dob, &p.Gender, &admission,
		&p.Symptoms, &p.CurrentStatus, &p.ReasonForHospitalization,
		&p.Vitals.HeartRate, &p.Vitals.BloodPressureSystolic, &p.Vitals.BloodPressureDiastolic,
		&p.Vitals.TemperatureCelsius, &p.Vitals.OxygenSaturation, &p.Vitals.RespiratoryRate, &p.Vitals.PainLevel,
		&p.HealthRisks, &p.LifestyleRisks, &p.Allergies,
	)
	if err != nil {
		return nil, err
	}
	if t, ok := parseDate(dob); ok {
		p.DateOfBirth = &t
	}
	if t, ok := parseDate(admission); ok {
		p.DateOfAdmission = &t
	}
	return &p, nil
}

func collectPatients(rows *sql.Rows) ([]models.Patient, error) {
	var out []models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseDate(s sql.NullString) (time.Time, bool) {
	if !s.Valid || s.String == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s.String)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

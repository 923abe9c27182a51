package models

import (
	"strings"
	"time"
)

// PatientStatus is the clinical trajectory recorded for an admitted patient.
type PatientStatus string

const (
	PatientStatusStable        PatientStatus = "stable"
	PatientStatusMonitoring    PatientStatus = "monitoring"
	PatientStatusCritical      PatientStatus = "critical"
	PatientStatusImproving     PatientStatus = "improving"
	PatientStatusDeteriorating PatientStatus = "deteriorating"
)

// Vitals is the most recent vital-sign reading for a patient.
// Zero values mean "not measured".
type Vitals struct {
	HeartRate              int     `db:"heart_rate" json:"heart_rate"`
	BloodPressureSystolic  int     `db:"bp_systolic" json:"blood_pressure_systolic"`
	BloodPressureDiastolic int     `db:"bp_diastolic" json:"blood_pressure_diastolic"`
	TemperatureCelsius     float64 `db:"temperature" json:"temperature"`
	OxygenSaturation       float64 `db:"oxygen_saturation" json:"oxygen_saturation"`
	RespiratoryRate        int     `db:"respiratory_rate" json:"respiratory_rate"`
	PainLevel              int     `db:"pain_level" json:"pain_level"` // 0-10
}

// Patient maps to the `patients` table. Risk lists are stored as
// comma-delimited strings and exposed through the list accessors.
type Patient struct {
	PatientID                 string        `db:"patient_id" json:"patient_id"`
	Name                      string        `db:"name" json:"name"`
	DateOfBirth               *time.Time    `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender                    string        `db:"gender" json:"gender"`
	DateOfAdmission           *time.Time    `db:"date_of_admission" json:"date_of_admission,omitempty"`
	Symptoms                  string        `db:"symptoms" json:"symptoms"`
	CurrentStatus             PatientStatus `db:"current_status" json:"current_status"`
	ReasonForHospitalization  string        `db:"reason_for_hospitalization" json:"reason_for_hospitalization"`
	Vitals                    Vitals        `json:"current_vitals"`
	HealthRisks               string        `db:"health_risks" json:"-"`
	LifestyleRisks            string        `db:"lifestyle_risks" json:"-"`
	Allergies                 string        `db:"allergies" json:"-"`
}

// HealthRiskList splits the stored comma-delimited health risks.
func (p *Patient) HealthRiskList() []string { return splitRisks(p.HealthRisks) }

// LifestyleRiskList splits the stored comma-delimited lifestyle risks.
func (p *Patient) LifestyleRiskList() []string { return splitRisks(p.LifestyleRisks) }

func splitRisks(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// AgeAt returns the patient's age in whole years at the given time,
// or 0 when the date of birth is unknown.
func (p *Patient) AgeAt(now time.Time) int {
	if p.DateOfBirth == nil {
		return 0
	}
	dob := *p.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age
}

// DaysInHospitalAt returns whole days since admission, or 0 when unknown.
func (p *Patient) DaysInHospitalAt(now time.Time) int {
	if p.DateOfAdmission == nil {
		return 0
	}
	days := int(now.Sub(*p.DateOfAdmission).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days
}

// IsCriticalVitals applies standard clinical thresholds to the latest
// reading. Unmeasured values never trigger.
func (p *Patient) IsCriticalVitals() bool {
	v := p.Vitals
	if v.HeartRate != 0 && (v.HeartRate < 50 || v.HeartRate > 120) {
		return true
	}
	if v.BloodPressureSystolic != 0 && (v.BloodPressureSystolic < 90 || v.BloodPressureSystolic > 180) {
		return true
	}
	if v.TemperatureCelsius != 0 && (v.TemperatureCelsius < 35.0 || v.TemperatureCelsius > 39.0) {
		return true
	}
	if v.OxygenSaturation != 0 && v.OxygenSaturation < 90 {
		return true
	}
	if v.PainLevel >= 7 {
		return true
	}
	return false
}

// IsCritical reports whether the patient is in a critical condition for
// item prioritization purposes.
func (p *Patient) IsCritical() bool {
	return p.CurrentStatus == PatientStatusCritical || p.IsCriticalVitals()
}

// RiskScore is the overall health risk on a 0-1 scale, combining status,
// risk lists and age extremes.
func (p *Patient) RiskScore(now time.Time) float64 {
	score := 0.0
	switch p.CurrentStatus {
	case PatientStatusCritical:
		score += 1.0 * 0.3
	case PatientStatusDeteriorating:
		score += 0.75 * 0.3
	case PatientStatusMonitoring:
		score += 0.5 * 0.3
	case PatientStatusImproving:
		score += 0.25 * 0.3
	case PatientStatusStable:
		score += 0.1 * 0.3
	}
	health := float64(len(p.HealthRiskList())) * 0.1
	if health > 0.2 {
		health = 0.2
	}
	score += health
	lifestyle := float64(len(p.LifestyleRiskList())) * 0.05
	if lifestyle > 0.1 {
		lifestyle = 0.1
	}
	score += lifestyle
	if age := p.AgeAt(now); age > 0 && (age < 2 || age > 75) {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Snapshot reduces the patient record to the attributes the priority
// function consumes.
func (p *Patient) Snapshot(now time.Time) PatientSnapshot {
	return PatientSnapshot{
		Age:                p.AgeAt(now),
		RiskScore:          p.RiskScore(now),
		IsCriticalVitals:   p.IsCriticalVitals(),
		HealthRiskCount:    len(p.HealthRiskList()),
		LifestyleRiskCount: len(p.LifestyleRiskList()),
		DaysInHospital:     p.DaysInHospitalAt(now),
	}
}

// QualityOfLifeBase is the expected quality-of-life improvement implied by
// the patient's trajectory, before age adjustment.
func (p *Patient) QualityOfLifeBase() float64 {
	switch p.CurrentStatus {
	case PatientStatusImproving:
		return 0.8
	case PatientStatusStable:
		return 0.6
	case PatientStatusMonitoring:
		return 0.4
	case PatientStatusDeteriorating:
		return 0.2
	case PatientStatusCritical:
		return 0.1
	}
	return 0.5
}

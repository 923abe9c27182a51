package models

import "time"

// RequestStatus tracks the lifecycle of a delivery request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAssigned  RequestStatus = "assigned"
	RequestStatusInTransit RequestStatus = "in_transit"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// Lifestyle responsibility values accepted on a request.
const (
	LifestyleResponsible   = "responsible"
	LifestyleModerate      = "moderate"
	LifestyleIrresponsible = "irresponsible"
)

// PatientSnapshot carries the patient attributes the priority function needs.
// The dispatcher resolves it from the patient store; requests hold only the
// patient id to avoid a cycle between requests and patient records.
type PatientSnapshot struct {
	Age               int     `json:"age"` // 0 when unknown
	RiskScore         float64 `json:"risk_score"`
	IsCriticalVitals  bool    `json:"is_critical_vitals"`
	HealthRiskCount   int     `json:"health_risk_count"`
	LifestyleRiskCount int    `json:"lifestyle_risk_count"`
	DaysInHospital    int     `json:"days_in_hospital"`
}

// Request is a medical delivery request ranked by the two-tier triage policy.
type Request struct {
	ID                  int64         `json:"id"`
	RequesterID         string        `json:"requester_id"`
	RequesterName       string        `json:"requester_name"`
	RequesterLocationID int64         `json:"requester_location_id"`
	Priority            Priority      `json:"priority"`
	Description         string        `json:"description"`
	Emergency           bool          `json:"emergency"`
	Timestamp           time.Time     `json:"timestamp"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
	Status              RequestStatus `json:"status"`
	AssignedDroneID     int64         `json:"assigned_drone_id"` // 0 when unassigned

	PatientID string `json:"patient_id,omitempty"`

	// Payload: item id -> unit count.
	PayloadItems    map[string]int `json:"payload_items"`
	PayloadWeightKg float64        `json:"payload_weight_kg"`

	// Split-order tracking. ParentRequestID is 0 for the first child and
	// for unsplit requests.
	ParentRequestID   int64 `json:"parent_request_id"`
	IsPartialDelivery bool  `json:"is_partial_delivery"`
	DeliverySequence  int   `json:"delivery_sequence"`
	TotalDeliveries   int   `json:"total_deliveries"`

	// Multi-criteria prioritization fields, auto-filled from patient data
	// when a patient id is supplied. Pointers distinguish "not provided".
	PatientAge              *int     `json:"patient_age,omitempty"`
	WaitingTimeMinutes      float64  `json:"waiting_time_minutes"`
	IsParent                bool     `json:"is_parent"`
	ExpectedLifeYearsGained *float64 `json:"expected_life_years_gained,omitempty"`
	QualityOfLifeScore      *float64 `json:"quality_of_life_score,omitempty"`
	LifestyleResponsibility string   `json:"lifestyle_responsibility,omitempty"`
	SocialRole              string   `json:"social_role,omitempty"`
	ClinicalSeverityScore   *float64 `json:"clinical_severity_score,omitempty"`

	// Energy tracking, populated on completion.
	DistanceTraveledMeters *float64 `json:"distance_traveled_meters,omitempty"`
	DroneEnergyKWh         *float64 `json:"drone_energy_kwh,omitempty"`
	TraditionalEnergyKWh   *float64 `json:"traditional_energy_kwh,omitempty"`
	EnergySavedKWh         *float64 `json:"energy_saved_kwh,omitempty"`
	CO2SavedKg             *float64 `json:"co2_saved_kg,omitempty"`
	TraditionalMethod      string   `json:"traditional_method"`

	// Path efficiency versus the plain shortest path.
	ChosenPathDistanceMeters      *float64 `json:"chosen_path_distance_meters,omitempty"`
	AlternativePathDistanceMeters *float64 `json:"alternative_path_distance_meters,omitempty"`
	PathEfficiencyPercentage      *float64 `json:"path_efficiency_percentage,omitempty"`
	TimeSavedVsAlternativeSeconds *float64 `json:"time_saved_vs_alternative_seconds,omitempty"`
	PathEfficiencyRatio           *float64 `json:"path_efficiency_ratio,omitempty"`
}

// TargetResponseTimeMinutes returns the CTAS target for this request's class.
func (r *Request) TargetResponseTimeMinutes() int {
	return r.Priority.ResponseTimeMinutes()
}

// IsEmergencyRequest reports whether the request consumes emergency drones,
// either via the explicit flag or by CTAS class.
func (r *Request) IsEmergencyRequest() bool {
	return r.Emergency || r.Priority.IsEmergency()
}

// Weights of the vital priority score terms. Clinical need dominates,
// social role and lifestyle contribute least.
const (
	severityWeight   = 30.0
	lifeYearsWeight  = 25.0
	waitWeight       = 20.0
	ageWeight        = 15.0
	parentBonus      = 8.0
	qualityWeight    = 6.0
	criticalBonus    = 10.0
	daysWeight       = 4.0
	lifeYearsHorizon = 50.0
)

// VitalPriorityScore computes the tie-breaking score used within one CTAS
// class. patient may be nil when the request carries no patient id; each
// term falls back to patient data only when the explicit field is absent.
func (r *Request) VitalPriorityScore(patient *PatientSnapshot) float64 {
	score := 0.0

	// Clinical severity, with the patient risk score as fallback.
	if r.ClinicalSeverityScore != nil {
		score += *r.ClinicalSeverityScore * severityWeight
	} else if patient != nil {
		score += patient.RiskScore * severityWeight
	}

	// Expected treatment effectiveness.
	if r.ExpectedLifeYearsGained != nil {
		score += clamp01(*r.ExpectedLifeYearsGained/lifeYearsHorizon) * lifeYearsWeight
	} else if patient != nil && patient.Age > 0 && patient.Age < 65 {
		score += float64(65-patient.Age) / 65.0 * lifeYearsWeight
	}

	// Waiting time relative to the CTAS target, capped at 2x for fairness.
	if target := r.TargetResponseTimeMinutes(); target > 0 {
		ratio := r.WaitingTimeMinutes / float64(target)
		if ratio > 2.0 {
			ratio = 2.0
		}
		score += ratio * waitWeight
	}

	// Age: the very young and very old are prioritized alongside young adults.
	age := 0
	if r.PatientAge != nil {
		age = *r.PatientAge
	} else if patient != nil {
		age = patient.Age
	}
	if age > 0 {
		var ageScore float64
		switch {
		case age < 5:
			ageScore = 1.0
		case age < 25:
			ageScore = 1.0 - float64(age)/100.0 + 0.3
		case age > 75:
			ageScore = 1.0 - float64(age)/100.0
			if ageScore < 0.5 {
				ageScore = 0.5
			}
		default:
			ageScore = 1.0 - float64(age)/100.0
		}
		score += clamp01(ageScore) * ageWeight
	}

	// Parental status, estimated from age when not declared.
	isParent := r.IsParent
	if !isParent && patient != nil && patient.Age >= 20 && patient.Age <= 60 {
		isParent = true
	}
	if isParent {
		score += parentBonus
	}

	if r.QualityOfLifeScore != nil {
		score += *r.QualityOfLifeScore * qualityWeight
	}

	// Patient condition terms.
	if patient != nil {
		if patient.IsCriticalVitals {
			score += criticalBonus
		}
		risk := float64(patient.HealthRiskCount) * 0.5
		if risk > 5.0 {
			risk = 5.0
		}
		score += risk
		if patient.DaysInHospital > 0 {
			days := float64(patient.DaysInHospital) / 30.0
			if days > 1.0 {
				days = 1.0
			}
			score += days * daysWeight
		}
	}

	// Social role, least influential. An unstated role contributes nothing;
	// only the catch-all "general" earns the 1-point floor.
	if r.SocialRole != "" {
		switch r.SocialRole {
		case "healthcare_worker":
			score += 4.0
		case "essential_worker":
			score += 3.0
		case "elderly_caregiver":
			score += 2.5
		default:
			score += 1.0
		}
	}

	// Lifestyle responsibility penalty, derived from patient lifestyle
	// risks when not declared (capped at -2).
	if r.LifestyleResponsibility != "" {
		switch r.LifestyleResponsibility {
		case LifestyleModerate:
			score -= 1.0
		case LifestyleIrresponsible:
			score -= 3.0
		}
	} else if patient != nil && patient.LifestyleRiskCount > 0 {
		penalty := float64(patient.LifestyleRiskCount) * 0.5
		if penalty > 2.0 {
			penalty = 2.0
		}
		score -= penalty
	}

	return score
}

// ScoreEpsilon guards float comparisons in the priority ordering.
const ScoreEpsilon = 0.01

// HigherPriorityThan reports whether r outranks other under the composite
// order: CTAS class, then vital priority score (with epsilon), then split
// tie-breaks, then timestamp.
func (r *Request) HigherPriorityThan(other *Request, rScore, otherScore float64) bool {
	if r.Priority != other.Priority {
		return r.Priority > other.Priority
	}
	if diff := rScore - otherScore; diff > ScoreEpsilon || diff < -ScoreEpsilon {
		return rScore > otherScore
	}
	// Split-order tie-breaks: earlier parts of the same order first,
	// unsplit requests before split parts, older parents before newer.
	switch {
	case r.ParentRequestID != 0 && other.ParentRequestID != 0:
		if r.ParentRequestID == other.ParentRequestID {
			return r.DeliverySequence < other.DeliverySequence
		}
		return r.ParentRequestID < other.ParentRequestID
	case r.ParentRequestID != 0:
		return false
	case other.ParentRequestID != 0:
		return true
	}
	return r.Timestamp.Before(other.Timestamp)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

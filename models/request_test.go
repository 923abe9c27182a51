package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVitalPriorityScoreTerms(t *testing.T) {
	severity := 0.8
	years := 40.0
	qol := 0.5

	req := &Request{
		Priority:              CTASIII,
		ClinicalSeverityScore: &severity,
	}
	base := req.VitalPriorityScore(nil)
	assert.InDelta(t, 0.8*30.0, base, 1e-9)

	req.ExpectedLifeYearsGained = &years
	withYears := req.VitalPriorityScore(nil)
	assert.InDelta(t, base+40.0/50.0*25.0, withYears, 1e-9)

	req.QualityOfLifeScore = &qol
	withQoL := req.VitalPriorityScore(nil)
	assert.InDelta(t, withYears+0.5*6.0, withQoL, 1e-9)

	req.IsParent = true
	assert.InDelta(t, withQoL+8.0, req.VitalPriorityScore(nil), 1e-9)
}

func TestVitalPriorityScoreWaitingCap(t *testing.T) {
	req := &Request{Priority: CTASIII} // 30 minute target
	req.WaitingTimeMinutes = 30
	assert.InDelta(t, 1.0*20.0, req.VitalPriorityScore(nil), 1e-9)

	// Waiting beyond 2x the target gains nothing more.
	req.WaitingTimeMinutes = 300
	assert.InDelta(t, 2.0*20.0, req.VitalPriorityScore(nil), 1e-9)
}

func TestVitalPriorityScoreAgeCurve(t *testing.T) {
	scoreAt := func(age int) float64 {
		r := &Request{Priority: CTASV, PatientAge: &age}
		return r.VitalPriorityScore(nil)
	}
	// Infants score the age term maximum.
	assert.InDelta(t, 15.0, scoreAt(3), 1e-9)
	// Young adults get the +0.3 boost (clamped to 1).
	assert.Greater(t, scoreAt(22), scoreAt(40))
	// The elderly never drop below half the age weight.
	assert.InDelta(t, 0.5*15.0, scoreAt(90), 1e-9)
}

func TestVitalPriorityScorePatientFallbacks(t *testing.T) {
	snapshot := &PatientSnapshot{
		Age:                45,
		RiskScore:          0.6,
		IsCriticalVitals:   true,
		HealthRiskCount:    3,
		LifestyleRiskCount: 2,
		DaysInHospital:     15,
	}
	req := &Request{Priority: CTASIII}
	score := req.VitalPriorityScore(snapshot)

	want := 0.6*30.0 + // severity fallback
		(65.0-45.0)/65.0*25.0 + // life-years fallback
		0.55*15.0 + // age 45
		8.0 + // parent inferred from age 20-60
		10.0 + // critical vitals bonus
		1.5 + // health risks
		0.5*4.0 - // half a month in hospital
		1.0 // lifestyle penalty (2 risks * 0.5)
	assert.InDelta(t, want, score, 1e-9)
}

func TestVitalPriorityScoreSocialRole(t *testing.T) {
	base := &Request{Priority: CTASV}
	hc := &Request{Priority: CTASV, SocialRole: "healthcare_worker"}
	general := &Request{Priority: CTASV, SocialRole: "general"}
	assert.InDelta(t, base.VitalPriorityScore(nil)+4.0, hc.VitalPriorityScore(nil), 1e-9)
	assert.InDelta(t, base.VitalPriorityScore(nil)+1.0, general.VitalPriorityScore(nil), 1e-9)
}

func TestHigherPriorityThanClassDominates(t *testing.T) {
	urgent := &Request{Priority: CTASII}
	routine := &Request{Priority: CTASV}
	// Class outranks any score difference.
	assert.True(t, urgent.HigherPriorityThan(routine, 0, 1000))
	assert.False(t, routine.HigherPriorityThan(urgent, 1000, 0))
}

func TestHigherPriorityThanScoreEpsilon(t *testing.T) {
	now := time.Now()
	older := &Request{Priority: CTASIII, Timestamp: now}
	newer := &Request{Priority: CTASIII, Timestamp: now.Add(time.Minute)}

	// Within epsilon the timestamps decide.
	assert.True(t, older.HigherPriorityThan(newer, 10.0, 10.005))
	assert.False(t, newer.HigherPriorityThan(older, 10.005, 10.0))

	// Beyond epsilon the score decides.
	assert.True(t, newer.HigherPriorityThan(older, 10.5, 10.0))
}

func TestHigherPriorityThanSplitTieBreaks(t *testing.T) {
	now := time.Now()
	part1 := &Request{Priority: CTASIV, ParentRequestID: 7, DeliverySequence: 1, Timestamp: now}
	part2 := &Request{Priority: CTASIV, ParentRequestID: 7, DeliverySequence: 2, Timestamp: now}
	unsplit := &Request{Priority: CTASIV, Timestamp: now.Add(time.Hour)}

	assert.True(t, part1.HigherPriorityThan(part2, 5, 5))
	assert.False(t, part2.HigherPriorityThan(part1, 5, 5))
	// Unsplit requests outrank split parts at equal score.
	assert.True(t, unsplit.HigherPriorityThan(part2, 5, 5))
	assert.False(t, part2.HigherPriorityThan(unsplit, 5, 5))
}

func TestIsEmergencyRequest(t *testing.T) {
	assert.True(t, (&Request{Priority: CTASI}).IsEmergencyRequest())
	assert.True(t, (&Request{Priority: CTASV, Emergency: true}).IsEmergencyRequest())
	assert.False(t, (&Request{Priority: CTASIII}).IsEmergencyRequest())
}

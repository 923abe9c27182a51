// Package dispatch implements the hospital drone dispatcher: a triage-ordered
// request queue, drone assignment and interception, battery and charging
// management, and simulated flight completion driven by one-shot timers.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"hospitalDroneLogistics/internal/graph"
	"hospitalDroneLogistics/internal/items"
	"hospitalDroneLogistics/internal/planner"
	"hospitalDroneLogistics/models"
)

// Speed tiers by CTAS class, in m/s.
const (
	EmergencySpeedMPerSec   = 4.0
	NormalSpeedMPerSec      = 2.5
	LowPrioritySpeedMPerSec = 1.5
)

// Battery management constants.
const (
	// MinBatteryThresholdKWh is the reserve a drone must keep after any
	// planned flight.
	MinBatteryThresholdKWh = 0.0243
	ChargeRateKWhPerSec    = 0.01
	// Drones charge to 80% of capacity for battery longevity.
	chargeTargetFraction = 0.8
)

// Simulated flight buffers in seconds: deliveries add a fixed handover
// window, return trips a shorter docking window.
const (
	deliveryBufferSeconds = 5.0
	arrivalBufferSeconds  = 2.0
)

// Scheduler arms one-shot timers. The production implementation delegates
// to the injected clock; tests substitute a manual scheduler and fire
// callbacks explicitly.
type Scheduler interface {
	Schedule(d time.Duration, fn func())
}

type clockScheduler struct {
	clock clock.WithTickerAndDelayedExecution
}

func (s clockScheduler) Schedule(d time.Duration, fn func()) {
	s.clock.AfterFunc(d, fn)
}

// PatientStore resolves patient records for request prioritization.
type PatientStore interface {
	GetPatient(ctx context.Context, patientID string) (*models.Patient, error)
}

// flight tracks one in-progress trip, delivery or return. The consumption
// fields are refreshed on drone reads while the flight is underway; a nil
// BatteryConsumedKWh means no live sample was taken.
type flight struct {
	Route                  []int64
	PayloadWeightKg        float64
	StartTime              time.Time
	RequestIDs             []int64
	SpeedMPerSec           float64
	IsEmergency            bool
	InitialBatteryKWh      float64
	IsReturnTrip           bool
	DistanceTraveledMeters float64
	BatteryConsumedKWh     *float64
}

// Dispatcher owns all drones and requests. A single mutex guards every
// state transition; timer callbacks re-acquire it.
type Dispatcher struct {
	mu sync.Mutex

	graph     *graph.Graph
	planner   *planner.Planner
	patients  PatientStore
	clock     clock.WithTickerAndDelayedExecution
	scheduler Scheduler
	log       *logrus.Logger

	chargingStations []int64

	requests      map[int64]*models.Request
	drones        map[int64]*models.Drone
	queue         []*models.Request
	activeFlights map[int64]*flight
	// Patient snapshots cached at request creation so priority comparisons
	// never touch the store.
	patientCache map[int64]*models.PatientSnapshot

	nextRequestID int64
	nextDroneID   int64

	totalEnergySavedKWh float64
	totalCO2SavedKg     float64
}

// Options configure a Dispatcher. Zero values select production defaults.
type Options struct {
	Clock            clock.WithTickerAndDelayedExecution
	Scheduler        Scheduler
	Logger           *logrus.Logger
	ChargingStations []int64
}

// New builds a dispatcher over the given floorplan graph and patient store.
func New(g *graph.Graph, p *planner.Planner, patients PatientStore, opts Options) *Dispatcher {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = clockScheduler{clock: opts.Clock}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if len(opts.ChargingStations) == 0 {
		opts.ChargingStations = []int64{9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
	}
	return &Dispatcher{
		graph:            g,
		planner:          p,
		patients:         patients,
		clock:            opts.Clock,
		scheduler:        opts.Scheduler,
		log:              opts.Logger,
		chargingStations: opts.ChargingStations,
		requests:         make(map[int64]*models.Request),
		drones:           make(map[int64]*models.Drone),
		activeFlights:    make(map[int64]*flight),
		patientCache:     make(map[int64]*models.PatientSnapshot),
		nextRequestID:    1,
		nextDroneID:      1,
	}
}

// AddDrone registers a new drone at a location with a full battery.
func (d *Dispatcher) AddDrone(locationID int64, emergencyDrone bool) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.graph.Location(locationID); !ok {
		return 0, fmt.Errorf("location %d not in floorplan", locationID)
	}
	drone := &models.Drone{
		ID:                  d.nextDroneID,
		CurrentLocationID:   locationID,
		Status:              models.DroneStatusAvailable,
		EmergencyDrone:      emergencyDrone,
		BatteryCapacityKWh:  models.DefaultBatteryCapacityKWh,
		BatteryLevelKWh:     models.DefaultBatteryCapacityKWh,
		CurrentSpeedMPerSec: models.DefaultDroneSpeedMPerSec,
	}
	d.drones[drone.ID] = drone
	d.nextDroneID++
	d.log.WithFields(logrus.Fields{
		"drone_id":  drone.ID,
		"location":  locationID,
		"emergency": emergencyDrone,
	}).Info("drone registered")
	return drone.ID, nil
}

// RequestInput carries the caller-supplied fields of a new delivery request.
// When PatientID is set, the prioritization fields are computed from the
// patient record and caller values for them are ignored.
type RequestInput struct {
	RequesterID         string
	RequesterName       string
	RequesterLocationID int64
	Priority            models.Priority
	Description         string
	Emergency           bool
	PatientID           string
	PayloadItems        map[string]int

	PatientAge              *int
	IsParent                bool
	ExpectedLifeYearsGained *float64
	QualityOfLifeScore      *float64
	LifestyleResponsibility string
	SocialRole              string
	ClinicalSeverityScore   *float64
}

// CreateRequest validates, prioritizes, and enqueues a delivery request,
// splitting payloads over the 2 kg capacity into sequenced partial
// deliveries. It returns the id of the first (parent) request and
// immediately runs an assignment pass.
func (d *Dispatcher) CreateRequest(ctx context.Context, in RequestInput) (int64, error) {
	// A nil payload is the optional default (0.5 kg); an explicitly empty
	// map is a rejected request.
	if in.PayloadItems != nil {
		if _, err := items.Validate(in.PayloadItems); err != nil {
			return 0, err
		}
	}

	var patient *models.Patient
	if in.PatientID != "" {
		p, err := d.patients.GetPatient(ctx, in.PatientID)
		if err != nil {
			return 0, fmt.Errorf("patient %s: %w", in.PatientID, err)
		}
		patient = p
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	patientCritical := false
	var snapshot *models.PatientSnapshot
	if patient != nil {
		patientCritical = patient.IsCritical()
		snap := patient.Snapshot(now)
		snapshot = &snap
		d.fillFromPatient(&in, patient, now)
		// Critical patients always flag the emergency pool, even when the
		// triage class alone would not.
		if patientCritical && !in.Priority.IsEmergency() {
			in.Emergency = true
		}
	}
	isEmergency := in.Emergency || in.Priority.IsEmergency()

	totalWeight := items.TotalWeight(in.PayloadItems)
	if totalWeight <= items.MaxPayloadCapacityKg {
		req := d.buildRequest(in, isEmergency, now, in.PayloadItems, totalWeight, 0, 1, 1)
		d.enqueue(req, snapshot)
		d.processPending()
		return req.ID, nil
	}

	loads := items.Split(in.PayloadItems, patientCritical)
	parentID := d.nextRequestID
	for idx, load := range loads {
		description := in.Description
		if len(loads) > 1 {
			description = fmt.Sprintf("%s (Part %d/%d)", in.Description, idx+1, len(loads))
		}
		parent := parentID
		if idx == 0 {
			parent = 0
		}
		sub := in
		sub.Description = description
		req := d.buildRequest(sub, isEmergency, now, load, items.TotalWeight(load), parent, idx+1, len(loads))
		d.enqueue(req, snapshot)
	}
	d.log.WithFields(logrus.Fields{
		"parent_request": parentID,
		"parts":          len(loads),
		"total_kg":       totalWeight,
	}).Info("payload split into partial deliveries")
	d.processPending()
	return parentID, nil
}

func (d *Dispatcher) buildRequest(
	in RequestInput, isEmergency bool, now time.Time,
	payload map[string]int, weight float64,
	parentID int64, sequence, total int,
) *models.Request {
	req := &models.Request{
		ID:                  d.nextRequestID,
		RequesterID:         in.RequesterID,
		RequesterName:       in.RequesterName,
		RequesterLocationID: in.RequesterLocationID,
		Priority:            in.Priority,
		Description:         in.Description,
		Emergency:           isEmergency,
		Timestamp:           now,
		Status:              models.RequestStatusPending,
		PatientID:           in.PatientID,
		PayloadItems:        payload,
		PayloadWeightKg:     weight,

		ParentRequestID:   parentID,
		IsPartialDelivery: total > 1,
		DeliverySequence:  sequence,
		TotalDeliveries:   total,

		PatientAge:              in.PatientAge,
		IsParent:                in.IsParent,
		ExpectedLifeYearsGained: in.ExpectedLifeYearsGained,
		QualityOfLifeScore:      in.QualityOfLifeScore,
		LifestyleResponsibility: in.LifestyleResponsibility,
		SocialRole:              in.SocialRole,
		ClinicalSeverityScore:   in.ClinicalSeverityScore,
	}
	d.nextRequestID++
	return req
}

func (d *Dispatcher) enqueue(req *models.Request, snapshot *models.PatientSnapshot) {
	d.requests[req.ID] = req
	if snapshot != nil {
		d.patientCache[req.ID] = snapshot
	}
	d.queue = append(d.queue, req)
}

// fillFromPatient derives every prioritization field from the patient
// record, overriding caller-supplied values.
func (d *Dispatcher) fillFromPatient(in *RequestInput, patient *models.Patient, now time.Time) {
	age := patient.AgeAt(now)
	risk := patient.RiskScore(now)
	in.ClinicalSeverityScore = &risk
	in.IsParent = age >= 20 && age <= 60
	if age > 0 {
		in.PatientAge = &age
		// Expected life years against a working-life/life-expectancy horizon.
		var horizon int
		switch {
		case age < 25:
			horizon = 65
		case age < 65:
			horizon = 75
		default:
			horizon = 85
		}
		years := float64(horizon - age)
		if years < 0 {
			years = 0
		}
		in.ExpectedLifeYearsGained = &years
	}

	qol := patient.QualityOfLifeBase()
	if age > 0 {
		factor := 1.0 - float64(age)/100.0
		if factor < 0.5 {
			factor = 0.5
		}
		qol *= factor
	}
	in.QualityOfLifeScore = &qol

	in.SocialRole = "general"
	switch risks := len(patient.LifestyleRiskList()); {
	case risks == 0:
		in.LifestyleResponsibility = models.LifestyleResponsible
	case risks <= 1:
		in.LifestyleResponsibility = models.LifestyleModerate
	default:
		in.LifestyleResponsibility = models.LifestyleIrresponsible
	}
}

func speedForPriority(p models.Priority) float64 {
	switch {
	case p.IsEmergency():
		return EmergencySpeedMPerSec
	case p == models.CTASIII:
		return NormalSpeedMPerSec
	default:
		return LowPrioritySpeedMPerSec
	}
}

func (d *Dispatcher) isChargingStation(locationID int64) bool {
	for _, id := range d.chargingStations {
		if id == locationID {
			return true
		}
	}
	return false
}

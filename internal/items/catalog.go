// Package items defines the deliverable hospital item catalog and the
// payload validation and splitting rules. Item weights follow typical
// medical supplies; the 2 kg payload ceiling matches the Matternet M2.
package items

import (
	"errors"
	"sort"

	"github.com/samber/lo"
)

// MaxPayloadCapacityKg is the hard payload ceiling per drone trip.
const MaxPayloadCapacityKg = 2.0

// ErrEmptyPayload is returned when a payload resolves to zero weight.
var ErrEmptyPayload = errors.New("payload must contain at least one item")

// Item is a deliverable catalog entry. Priorities are 1-10 (10 most
// critical); the emergency value applies when the patient is critical,
// the routine value otherwise.
type Item struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	WeightKg          float64 `json:"weight_kg"`
	Category          string  `json:"category"`
	Description       string  `json:"description"`
	EmergencyPriority int     `json:"emergency_priority"`
	RoutinePriority   int     `json:"routine_priority"`
}

var catalog = []Item{
	// medications
	{"med_epinephrine", "Epinephrine (EpiPen)", 0.1, "medications", "Emergency epinephrine auto-injector", 10, 7},
	{"med_insulin", "Insulin Vial", 0.05, "medications", "Insulin medication vial", 9, 8},
	{"med_pain_relief", "Pain Relief Medication", 0.08, "medications", "Standard pain relief medication pack", 8, 6},
	{"med_antibiotics", "Antibiotics", 0.12, "medications", "Antibiotic medication pack", 9, 7},
	{"med_saline_bag", "Saline Bag (100ml)", 0.15, "medications", "Small saline solution bag", 10, 6},
	{"med_blood_sample", "Blood Sample Vial", 0.02, "medications", "Blood collection vial", 8, 5},
	// emergency
	{"emerg_oxygen_mask", "Oxygen Mask", 0.08, "emergency", "Emergency oxygen delivery mask", 10, 5},
	{"emerg_defibrillator_pad", "Defibrillator Pads", 0.15, "emergency", "AED defibrillator pads", 10, 4},
	{"emerg_iv_kit", "IV Starter Kit", 0.2, "emergency", "Intravenous insertion kit", 10, 6},
	{"emerg_tourniquet", "Tourniquet", 0.05, "emergency", "Medical tourniquet", 9, 4},
	{"emerg_splint", "Splint (Small)", 0.3, "emergency", "Small medical splint", 7, 5},
	// supplies
	{"supp_bandages", "Bandage Pack", 0.05, "supplies", "Assorted bandages", 8, 5},
	{"supp_gloves", "Medical Gloves (Box)", 0.08, "supplies", "Box of medical examination gloves", 7, 6},
	{"supp_syringes", "Syringes (Pack)", 0.1, "supplies", "Pack of sterile syringes", 8, 6},
	{"supp_needles", "Needles (Pack)", 0.03, "supplies", "Pack of sterile needles", 7, 5},
	{"supp_gauze", "Gauze Pack", 0.06, "supplies", "Sterile gauze pack", 7, 5},
	{"supp_tape", "Medical Tape", 0.02, "supplies", "Medical adhesive tape", 6, 4},
	// lab samples
	{"lab_urine_sample", "Urine Sample", 0.05, "lab_samples", "Urine collection container", 6, 5},
	{"lab_blood_vial", "Blood Sample Vial", 0.02, "lab_samples", "Blood collection vial", 8, 6},
	{"lab_tissue_sample", "Tissue Sample", 0.03, "lab_samples", "Biological tissue sample container", 7, 5},
	{"lab_culture_swab", "Culture Swab", 0.01, "lab_samples", "Bacterial culture swab", 6, 4},
	// food
	{"food_meal", "Patient Meal", 0.4, "food", "Standard patient meal tray", 4, 7},
	{"food_snack", "Snack Pack", 0.15, "food", "Small snack pack", 3, 5},
	{"food_drink", "Drink Container", 0.2, "food", "Beverage container", 5, 6},
	{"food_nutrition", "Nutritional Supplement", 0.25, "food", "Nutritional supplement drink", 6, 6},
	// equipment
	{"eqp_thermometer", "Digital Thermometer", 0.05, "equipment", "Digital medical thermometer", 7, 5},
	{"eqp_stethoscope", "Stethoscope", 0.2, "equipment", "Medical stethoscope", 6, 5},
	{"eqp_blood_pressure", "Blood Pressure Cuff", 0.15, "equipment", "Portable blood pressure monitor", 8, 5},
	{"eqp_pulse_oximeter", "Pulse Oximeter", 0.08, "equipment", "Finger pulse oximeter", 8, 5},
	// documents
	{"doc_chart", "Patient Chart", 0.1, "documents", "Patient medical chart/folder", 7, 6},
	{"doc_xray", "X-Ray Film", 0.05, "documents", "X-Ray imaging film", 8, 6},
	{"doc_lab_results", "Lab Results", 0.02, "documents", "Laboratory test results", 7, 6},
}

var byID = lo.KeyBy(catalog, func(i Item) string { return i.ID })

// All returns every catalog item.
func All() []Item {
	out := make([]Item, len(catalog))
	copy(out, catalog)
	return out
}

// ByID looks an item up by its catalog id.
func ByID(id string) (Item, bool) {
	item, ok := byID[id]
	return item, ok
}

// ByCategory returns the items in one category.
func ByCategory(category string) []Item {
	return lo.Filter(catalog, func(i Item, _ int) bool { return i.Category == category })
}

// Categories lists the catalog categories in declaration order.
func Categories() []string {
	return lo.Uniq(lo.Map(catalog, func(i Item, _ int) string { return i.Category }))
}

// TotalWeight sums item weights for an item-id -> quantity payload.
// Unknown ids and non-positive quantities are ignored.
func TotalWeight(quantities map[string]int) float64 {
	total := 0.0
	for id, qty := range quantities {
		if item, ok := byID[id]; ok && qty > 0 {
			total += item.WeightKg * float64(qty)
		}
	}
	return total
}

// Validate checks a payload holds at least one known item and returns its
// total weight. Overweight payloads are valid; the dispatcher splits them.
func Validate(quantities map[string]int) (float64, error) {
	total := TotalWeight(quantities)
	if total <= 0 {
		return 0, ErrEmptyPayload
	}
	return total, nil
}

// PrioritizedItem is a payload line annotated with its priority score.
type PrioritizedItem struct {
	ItemID   string
	Quantity int
	WeightKg float64
	Priority int
}

// Prioritize orders payload lines by urgency: emergency priority when the
// patient is critical, routine otherwise; highest first, lighter lines
// first on ties, item id as the final tie-break for determinism.
func Prioritize(quantities map[string]int, patientCritical bool) []PrioritizedItem {
	lines := make([]PrioritizedItem, 0, len(quantities))
	for id, qty := range quantities {
		item, ok := byID[id]
		if !ok || qty <= 0 {
			continue
		}
		priority := item.RoutinePriority
		if patientCritical {
			priority = item.EmergencyPriority
		}
		lines = append(lines, PrioritizedItem{
			ItemID:   id,
			Quantity: qty,
			WeightKg: item.WeightKg * float64(qty),
			Priority: priority,
		})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Priority != lines[j].Priority {
			return lines[i].Priority > lines[j].Priority
		}
		if lines[i].WeightKg != lines[j].WeightKg {
			return lines[i].WeightKg < lines[j].WeightKg
		}
		return lines[i].ItemID < lines[j].ItemID
	})
	return lines
}

// Split breaks a payload into loads that each fit the 2 kg capacity,
// filling greedily in priority order so the most critical items ship on
// the first drone. Payloads already under capacity come back unchanged.
func Split(quantities map[string]int, patientCritical bool) []map[string]int {
	if len(quantities) == 0 {
		return nil
	}
	if TotalWeight(quantities) <= MaxPayloadCapacityKg {
		return []map[string]int{quantities}
	}

	var loads []map[string]int
	current := map[string]int{}
	currentWeight := 0.0
	flush := func() {
		if len(current) > 0 {
			loads = append(loads, current)
		}
		current = map[string]int{}
		currentWeight = 0.0
	}

	for _, line := range Prioritize(quantities, patientCritical) {
		item := byID[line.ItemID]
		remaining := line.Quantity
		for remaining > 0 {
			capacity := MaxPayloadCapacityKg - currentWeight
			if capacity < 0.01 {
				flush()
				capacity = MaxPayloadCapacityKg
			}
			fitting := remaining
			if max := int(capacity / item.WeightKg); max < fitting {
				fitting = max
			}
			if fitting > 0 {
				current[line.ItemID] += fitting
				currentWeight += float64(fitting) * item.WeightKg
				remaining -= fitting
				continue
			}
			// Not even one unit fits alongside the current load.
			flush()
			perLoad := int(MaxPayloadCapacityKg / item.WeightKg)
			if perLoad == 0 {
				// Single unit heavier than a drone can lift.
				break
			}
			if perLoad > remaining {
				perLoad = remaining
			}
			current[line.ItemID] = perLoad
			currentWeight = float64(perLoad) * item.WeightKg
			remaining -= perLoad
		}
	}
	flush()
	if len(loads) == 0 {
		return []map[string]int{quantities}
	}
	return loads
}

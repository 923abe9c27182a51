package items

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByID(t *testing.T) {
	item, ok := ByID("med_insulin")
	require.True(t, ok)
	assert.Equal(t, "Insulin Vial", item.Name)
	assert.InDelta(t, 0.05, item.WeightKg, 1e-9)

	_, ok = ByID("not_a_real_item")
	assert.False(t, ok)
}

func TestByCategory(t *testing.T) {
	meds := ByCategory("medications")
	assert.Len(t, meds, 6)
	for _, item := range meds {
		assert.Equal(t, "medications", item.Category)
	}
	assert.Empty(t, ByCategory("furniture"))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{
		"medications", "emergency", "supplies", "lab_samples",
		"food", "equipment", "documents",
	}, Categories())
}

func TestTotalWeight(t *testing.T) {
	weight := TotalWeight(map[string]int{
		"med_insulin":   2,   // 0.10
		"emerg_iv_kit":  1,   // 0.20
		"bogus_item":    3,   // ignored
		"supp_bandages": 0,   // ignored
		"food_meal":     -1,  // ignored
	})
	assert.InDelta(t, 0.30, weight, 1e-9)
}

func TestValidate(t *testing.T) {
	weight, err := Validate(map[string]int{"med_epinephrine": 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, weight, 1e-9)

	_, err = Validate(map[string]int{})
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = Validate(map[string]int{"bogus": 5})
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestPrioritizeCriticalPatient(t *testing.T) {
	lines := Prioritize(map[string]int{
		"food_meal":       1, // emergency 4
		"med_epinephrine": 1, // emergency 10, 0.1 kg
		"emerg_iv_kit":    1, // emergency 10, 0.2 kg
	}, true)
	require.Len(t, lines, 3)
	// Equal priority 10: lighter line first.
	assert.Equal(t, "med_epinephrine", lines[0].ItemID)
	assert.Equal(t, "emerg_iv_kit", lines[1].ItemID)
	assert.Equal(t, "food_meal", lines[2].ItemID)
}

func TestPrioritizeRoutinePatient(t *testing.T) {
	lines := Prioritize(map[string]int{
		"food_meal":       1, // routine 7
		"emerg_oxygen_mask": 1, // routine 5
	}, false)
	require.Len(t, lines, 2)
	assert.Equal(t, "food_meal", lines[0].ItemID)
}

func TestSplitUnderCapacity(t *testing.T) {
	payload := map[string]int{"med_insulin": 3}
	loads := Split(payload, false)
	require.Len(t, loads, 1)
	assert.Equal(t, payload, loads[0])
}

func TestSplitOverCapacity(t *testing.T) {
	// 8 meals at 0.4 kg = 3.2 kg, needs two loads.
	loads := Split(map[string]int{"food_meal": 8}, false)
	require.Len(t, loads, 2)
	assert.Equal(t, 5, loads[0]["food_meal"])
	assert.Equal(t, 3, loads[1]["food_meal"])
	for _, load := range loads {
		assert.LessOrEqual(t, TotalWeight(load), MaxPayloadCapacityKg+1e-9)
	}
}

func TestSplitCriticalItemsShipFirst(t *testing.T) {
	loads := Split(map[string]int{
		"food_meal":       5, // 2.0 kg routine
		"med_epinephrine": 2, // 0.2 kg life-critical
	}, true)
	require.GreaterOrEqual(t, len(loads), 2)
	assert.Equal(t, 2, loads[0]["med_epinephrine"], "critical items go on the first drone")
}

func TestSplitEmptyPayload(t *testing.T) {
	assert.Nil(t, Split(nil, false))
	assert.Nil(t, Split(map[string]int{}, true))
}

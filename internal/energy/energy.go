// Package energy models drone flight energy consumption and the savings
// versus traditional hospital transport methods. Drone figures follow the
// Matternet M2 class: ~1.08 Wh per meter with a 1 kg payload, 2 kg maximum
// payload, 20 km range at 1 kg dropping to 15 km at 2 kg.
package energy

import "math"

// Energy constants in kWh.
const (
	DroneEnergyPerMeterBase = 0.00108 // with 1 kg payload
	DroneEnergyBase         = 0.02    // takeoff and landing

	VehicleEnergyPerMeter = 0.0003
	VehicleEnergyBase     = 0.1

	WalkingEnergyPerMeter = 0.0002
	WalkingEnergyBase     = 0.001

	ElectricCartEnergyPerMeter = 0.00015
	ElectricCartEnergyBase     = 0.05

	MaxPayloadKg = 2.0
)

// Traditional transport methods accepted for comparison.
const (
	MethodVehicle      = "vehicle"
	MethodElectricCart = "electric_cart"
	MethodWalking      = "walking"
)

// CO2 emission factors in kg CO2 per kWh.
const (
	EmissionsGrid      = 0.4
	EmissionsRenewable = 0.0
	EmissionsFossil    = 0.8
)

// WalkingSpeedMPerSec is 3 mph converted to m/s.
const WalkingSpeedMPerSec = 3.0 * 1.60934 / 3.6

// payloadMultiplier scales per-meter consumption by payload weight.
// 0 kg draws ~0.9x, 1 kg exactly 1.0x, 2 kg ~1.33x (range drops from
// 20 km to 15 km when the payload doubles).
func payloadMultiplier(payloadKg float64) float64 {
	payloadKg = math.Min(math.Max(payloadKg, 0.0), MaxPayloadKg)
	switch {
	case payloadKg <= 0:
		return 0.9
	case payloadKg <= 1.0:
		return 0.9 + payloadKg*0.1
	default:
		return 1.0 + (payloadKg-1.0)*0.33
	}
}

// DroneEnergyPerMeter returns kWh consumed per meter at a payload weight,
// for real-time battery tracking during flight.
func DroneEnergyPerMeter(payloadKg float64) float64 {
	return DroneEnergyPerMeterBase * payloadMultiplier(payloadKg)
}

// DroneEnergy returns total kWh for a trip: takeoff base plus
// payload-adjusted distance consumption.
func DroneEnergy(distanceMeters, payloadKg float64) float64 {
	return DroneEnergyBase + distanceMeters*DroneEnergyPerMeter(payloadKg)
}

// TraditionalEnergy returns kWh the named traditional method would have
// consumed over the same distance. Unknown methods fall back to vehicle.
func TraditionalEnergy(distanceMeters float64, method string) float64 {
	var base, perMeter float64
	switch method {
	case MethodElectricCart:
		base, perMeter = ElectricCartEnergyBase, ElectricCartEnergyPerMeter
	case MethodWalking:
		base, perMeter = WalkingEnergyBase, WalkingEnergyPerMeter
	default:
		base, perMeter = VehicleEnergyBase, VehicleEnergyPerMeter
	}
	return base + distanceMeters*perMeter
}

// Savings bundles a drone-vs-traditional energy comparison.
type Savings struct {
	DroneKWh       float64
	TraditionalKWh float64
	SavedKWh       float64
}

// CalculateSavings compares drone consumption against a traditional method.
func CalculateSavings(distanceMeters, payloadKg float64, method string) Savings {
	drone := DroneEnergy(distanceMeters, payloadKg)
	traditional := TraditionalEnergy(distanceMeters, method)
	return Savings{
		DroneKWh:       drone,
		TraditionalKWh: traditional,
		SavedKWh:       traditional - drone,
	}
}

// CO2Equivalent converts kWh to kg CO2 for an energy source
// ("grid", "renewable", "fossil"); unknown sources use the grid mix.
func CO2Equivalent(energyKWh float64, source string) float64 {
	factor := EmissionsGrid
	switch source {
	case "renewable":
		factor = EmissionsRenewable
	case "fossil":
		factor = EmissionsFossil
	}
	return energyKWh * factor
}

// TimeComparison contrasts drone flight time with a staff member walking
// the same distance.
type TimeComparison struct {
	WalkingTimeSeconds    float64 `json:"walking_time_seconds"`
	WalkingTimeMinutes    float64 `json:"walking_time_minutes"`
	DroneTimeSeconds      float64 `json:"drone_time_seconds"`
	DroneTimeMinutes      float64 `json:"drone_time_minutes"`
	TimeSavedSeconds      float64 `json:"time_saved_seconds"`
	TimeSavedMinutes      float64 `json:"time_saved_minutes"`
	TimeSavingsPercentage float64 `json:"time_savings_percentage"`
	SpeedRatio            float64 `json:"speed_ratio"`
}

// CompareTime computes the walking-vs-drone time comparison for a distance
// at the given drone speed (emergency 4.0, normal 2.5, low 1.5 m/s).
func CompareTime(distanceMeters, droneSpeedMPerSec float64) TimeComparison {
	var walking, drone float64
	if WalkingSpeedMPerSec > 0 {
		walking = distanceMeters / WalkingSpeedMPerSec
	}
	if droneSpeedMPerSec > 0 {
		drone = distanceMeters / droneSpeedMPerSec
	}
	saved := walking - drone
	c := TimeComparison{
		WalkingTimeSeconds: round2(walking),
		WalkingTimeMinutes: round2(walking / 60.0),
		DroneTimeSeconds:   round2(drone),
		DroneTimeMinutes:   round2(drone / 60.0),
		TimeSavedSeconds:   round2(saved),
		TimeSavedMinutes:   round2(saved / 60.0),
	}
	if walking > 0 {
		c.TimeSavingsPercentage = round2(saved / walking * 100)
	}
	if drone > 0 {
		c.SpeedRatio = round2(walking / drone)
	}
	return c
}

// Report is a formatted per-delivery energy summary.
type Report struct {
	DistanceMeters           float64  `json:"distance_meters"`
	DistanceKm               float64  `json:"distance_km"`
	DroneEnergyKWh           float64  `json:"drone_energy_kwh"`
	TraditionalEnergyKWh     float64  `json:"traditional_energy_kwh"`
	EnergySavedKWh           float64  `json:"energy_saved_kwh"`
	EnergySavingsPercentage  float64  `json:"energy_savings_percentage"`
	CO2SavedKg               *float64 `json:"co2_saved_kg,omitempty"`
	*TimeComparison          `json:",omitempty"`
}

// FormatReport rounds a savings comparison into a report, optionally
// including CO2 and the walking time comparison when a drone speed is known.
func FormatReport(s Savings, distanceMeters float64, co2Saved *float64, droneSpeedMPerSec float64) Report {
	r := Report{
		DistanceMeters:       round2(distanceMeters),
		DistanceKm:           round3(distanceMeters / 1000.0),
		DroneEnergyKWh:       round4(s.DroneKWh),
		TraditionalEnergyKWh: round4(s.TraditionalKWh),
		EnergySavedKWh:       round4(s.SavedKWh),
	}
	if s.TraditionalKWh > 0 {
		r.EnergySavingsPercentage = round2(s.SavedKWh / s.TraditionalKWh * 100)
	}
	if co2Saved != nil {
		v := round4(*co2Saved)
		r.CO2SavedKg = &v
	}
	if droneSpeedMPerSec > 0 {
		tc := CompareTime(distanceMeters, droneSpeedMPerSec)
		r.TimeComparison = &tc
	}
	return r
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

package models

import (
	"fmt"
	"strings"
)

// Priority is a triage class on the Canadian Triage and Acuity Scale.
// Higher value = more urgent (CTAS I is resuscitation, CTAS V is non-urgent).
type Priority int

const (
	CTASV   Priority = 1 // non-urgent
	CTASIV  Priority = 2 // less-urgent
	CTASIII Priority = 3 // urgent
	CTASII  Priority = 4 // emergent
	CTASI   Priority = 5 // resuscitation
)

// ResponseTimeMinutes returns the CTAS target response time for the class.
func (p Priority) ResponseTimeMinutes() int {
	switch p {
	case CTASI:
		return 0
	case CTASII:
		return 15
	case CTASIII:
		return 30
	case CTASIV:
		return 60
	default:
		return 120
	}
}

// IsEmergency reports whether the class requires emergency resources (CTAS I or II).
func (p Priority) IsEmergency() bool {
	return p >= CTASII
}

func (p Priority) String() string {
	switch p {
	case CTASI:
		return "ctas_i"
	case CTASII:
		return "ctas_ii"
	case CTASIII:
		return "ctas_iii"
	case CTASIV:
		return "ctas_iv"
	case CTASV:
		return "ctas_v"
	}
	return "unknown"
}

// DisplayName returns the human-readable CTAS label.
func (p Priority) DisplayName() string {
	switch p {
	case CTASI:
		return "CTAS I - Resuscitation"
	case CTASII:
		return "CTAS II - Emergent"
	case CTASIII:
		return "CTAS III - Urgent"
	case CTASIV:
		return "CTAS IV - Less-urgent"
	case CTASV:
		return "CTAS V - Non-urgent"
	}
	return "Unknown"
}

// ParsePriority maps a priority string to a CTAS class. Legacy aliases from
// the previous dispatch system are accepted at the boundary only.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ctas_i", "emergency_critical":
		return CTASI, nil
	case "ctas_ii", "emergency_urgent":
		return CTASII, nil
	case "ctas_iii", "normal_high":
		return CTASIII, nil
	case "ctas_iv", "normal_low":
		return CTASIV, nil
	case "ctas_v":
		return CTASV, nil
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

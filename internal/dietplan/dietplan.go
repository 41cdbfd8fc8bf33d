// Package dietplan turns free-form completion text into day sections and meal records.
package dietplan

import (
	"fmt"
	"strings"
)

// DaySection is the text of one "Day N:" block, marker included.
type DaySection struct {
	Day  string `json:"day"`
	Diet string `json:"diet"`
}

// Body returns the section text without its leading "Day N:" marker.
func (d DaySection) Body() string {
	loc := dayMarker.FindStringIndex(d.Diet)
	if loc == nil || loc[0] != 0 {
		return d.Diet
	}
	return strings.TrimSpace(d.Diet[loc[1]:])
}

// MealEntry is a time-labeled meal with its food items in input order.
type MealEntry struct {
	Time string   `json:"time"`
	Food []string `json:"food"`
}

// Policy selects how day markers become section boundaries.
type Policy int

const (
	// PolicyCorrected makes every "Day N:" marker its own boundary.
	PolicyCorrected Policy = iota
	// PolicyFaithful skips every other marker when closing a section, so each
	// emitted section absorbs the text of the day that follows it.
	PolicyFaithful
)

func (p Policy) String() string {
	switch p {
	case PolicyCorrected:
		return "corrected"
	case PolicyFaithful:
		return "faithful"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "corrected" or "faithful" (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "corrected", "":
		return PolicyCorrected, nil
	case "faithful":
		return PolicyFaithful, nil
	default:
		return PolicyCorrected, fmt.Errorf("unknown segment policy %q", s)
	}
}

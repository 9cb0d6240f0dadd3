package models

import (
	"fmt"
	"strings"
)

// Grade is a textual grade label in one scale.
// Value is kept verbatim for display; lookups go through normalization.
type Grade struct {
	Value string `json:"value"`
	Scale string `json:"scale"`
}

// NewGrade creates a grade with its scale identifier in canonical form.
func NewGrade(value, scale string) Grade {
	return Grade{
		Value: value,
		Scale: CanonicalScaleID(scale),
	}
}

// String returns "value (SCALE)"
func (g Grade) String() string {
	return fmt.Sprintf("%s (%s)", g.Value, g.Scale)
}

// CanonicalScaleID maps a caller supplied scale identifier (e.g. "fr", " Uiaa ")
// to the uppercase form used as registry key.
func CanonicalScaleID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// DifficultyIndex is a rung on a scale's ordinal ladder.
// Indexes only relate across scales through the crosswalk rows they were loaded from.
type DifficultyIndex int

// Int returns the raw index value
func (i DifficultyIndex) Int() int {
	return int(i)
}

// Valid reports whether the index is a positive rung
func (i DifficultyIndex) Valid() bool {
	return i > 0
}

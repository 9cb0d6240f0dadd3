package services

import (
	"bytes"
	"encoding/json"
	"iter"

	"grade-platform/internal/models"
)

// ScaleConversion is the result for one target scale
type ScaleConversion struct {
	Scale  string         `json:"scale"`
	Grades []models.Grade `json:"grades"`
}

// Conversions holds per-scale results in registration order
type Conversions []ScaleConversion

// Get returns the grades for a scale id
func (c Conversions) Get(scale string) ([]models.Grade, bool) {
	scale = models.CanonicalScaleID(scale)
	for _, sc := range c {
		if sc.Scale == scale {
			return sc.Grades, true
		}
	}
	return nil, false
}

// Scales returns the scale ids in order
func (c Conversions) Scales() []string {
	ids := make([]string, len(c))
	for i, sc := range c {
		ids[i] = sc.Scale
	}
	return ids
}

// All iterates scale id / grades pairs in order
func (c Conversions) All() iter.Seq2[string, []models.Grade] {
	return func(yield func(string, []models.Grade) bool) {
		for _, sc := range c {
			if !yield(sc.Scale, sc.Grades) {
				return
			}
		}
	}
}

// Flatten returns every grade of every scale in order
func (c Conversions) Flatten() []models.Grade {
	var out []models.Grade
	for _, sc := range c {
		out = append(out, sc.Grades...)
	}
	return out
}

// MarshalJSON encodes an object keyed by scale id, keeping registration order
func (c Conversions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sc := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sc.Scale)
		if err != nil {
			return nil, err
		}
		grades := sc.Grades
		if grades == nil {
			grades = []models.Grade{}
		}
		value, err := json.Marshal(grades)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

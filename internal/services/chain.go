package services

import (
	"encoding/json"

	"grade-platform/internal/models"
)

// Conversion is a fluent handle on one source grade:
//
//	svc.From("6c+", "FR").To("YDS")
//	svc.From("7a", "fr").Towards("BR").Single(models.Lowest, models.Last)
type Conversion struct {
	svc   *ConversionService
	grade models.Grade
}

// From starts a conversion of value in scale
func (s *ConversionService) From(value, scale string) *Conversion {
	return &Conversion{svc: s, grade: models.NewGrade(value, scale)}
}

// Grade returns the source grade
func (c *Conversion) Grade() models.Grade {
	return c.grade
}

// To converts into one target scale
func (c *Conversion) To(scale string) ([]models.Grade, error) {
	return c.svc.Convert(c.grade, scale)
}

// ToAll converts into every registered scale
func (c *Conversion) ToAll(includeSource bool) (Conversions, error) {
	return c.svc.ConvertToAll(c.grade, includeSource)
}

// Grades flattens ToAll(true)
func (c *Conversion) Grades() ([]models.Grade, error) {
	all, err := c.ToAll(true)
	if err != nil {
		return nil, err
	}
	return all.Flatten(), nil
}

// MarshalJSON encodes ToAll(true)
func (c *Conversion) MarshalJSON() ([]byte, error) {
	all, err := c.ToAll(true)
	if err != nil {
		return nil, err
	}
	return json.Marshal(all)
}

// Towards fixes the target scale
func (c *Conversion) Towards(scale string) *Target {
	return &Target{conversion: c, scale: scale}
}

// Target is a conversion with a fixed target scale
type Target struct {
	conversion *Conversion
	scale      string
}

// All returns every equivalent grade in the target scale
func (t *Target) All() ([]models.Grade, error) {
	return t.conversion.To(t.scale)
}

// Single returns one equivalent grade chosen by the two policies
func (t *Target) Single(src models.PrimaryIndexPolicy, tgt models.TargetVariantPolicy) (models.Grade, bool, error) {
	return t.conversion.svc.ConvertOne(t.conversion.grade, t.scale, src, tgt)
}

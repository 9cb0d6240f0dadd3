package services

import (
	"context"
	"errors"
	"time"

	"grade-platform/internal/models"
	"grade-platform/internal/scales"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

// Operation labels used in metrics and logs
const (
	opConvert      = "convert"
	opConvertOne   = "convert_one"
	opConvertToAll = "convert_to_all"
)

// ConversionService bridges between registered scales through their shared index space.
// It is immutable after construction and safe for concurrent use.
type ConversionService struct {
	order   []*scales.GradeScale
	byID    map[string]*scales.GradeScale
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewConversionService registers scales in the given order.
// A later scale with an already registered id replaces the earlier one in place.
func NewConversionService(list []*scales.GradeScale, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ConversionService {
	s := &ConversionService{
		order:   make([]*scales.GradeScale, 0, len(list)),
		byID:    make(map[string]*scales.GradeScale, len(list)),
		logger:  logger,
		metrics: metricsCollector,
	}

	for _, scale := range list {
		if _, dup := s.byID[scale.ID()]; dup {
			for i, existing := range s.order {
				if existing.ID() == scale.ID() {
					s.order[i] = scale
				}
			}
		} else {
			s.order = append(s.order, scale)
		}
		s.byID[scale.ID()] = scale
	}

	return s
}

// Scales returns the registered scales in registration order
func (s *ConversionService) Scales() []*scales.GradeScale {
	out := make([]*scales.GradeScale, len(s.order))
	copy(out, s.order)
	return out
}

// Scale resolves a registered scale by (case-insensitive) id
func (s *ConversionService) Scale(id string) (*scales.GradeScale, error) {
	scale, ok := s.byID[models.CanonicalScaleID(id)]
	if !ok {
		return nil, &models.GradeError{
			Kind:  models.ErrScaleNotRegistered,
			Scale: models.CanonicalScaleID(id),
		}
	}
	return scale, nil
}

// Convert returns every target variant at every index of the source grade,
// in ascending index order then cell order, de-duplicated by normalized label.
func (s *ConversionService) Convert(from models.Grade, to string) ([]models.Grade, error) {
	start := time.Now()
	grades, err := s.convert(from, to)
	s.record(opConvert, outcome(err, len(grades) > 0), start, from, to)
	return grades, err
}

func (s *ConversionService) convert(from models.Grade, to string) ([]models.Grade, error) {
	source, target, err := s.resolve(from.Scale, to)
	if err != nil {
		return nil, err
	}

	indexes, err := source.AllIndexesFor(from)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	grades := make([]models.Grade, 0, len(indexes))
	for _, index := range indexes {
		for _, variant := range target.VariantsAt(index) {
			key := scales.Normalize(variant)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			grades = append(grades, models.Grade{Value: variant, Scale: target.ID()})
		}
	}

	return grades, nil
}

// ConvertOne picks one source index by srcPolicy and one variant at that index by
// tgtPolicy. The bool is false when the target scale has no cell at that index.
func (s *ConversionService) ConvertOne(from models.Grade, to string, srcPolicy models.PrimaryIndexPolicy, tgtPolicy models.TargetVariantPolicy) (models.Grade, bool, error) {
	start := time.Now()

	source, target, err := s.resolve(from.Scale, to)
	if err != nil {
		s.record(opConvertOne, outcome(err, false), start, from, to)
		return models.Grade{}, false, err
	}

	index, err := source.IndexFor(from, srcPolicy)
	if err != nil {
		s.record(opConvertOne, outcome(err, false), start, from, to)
		return models.Grade{}, false, err
	}

	variants := target.VariantsAt(index)
	if len(variants) == 0 {
		s.record(opConvertOne, outcome(nil, false), start, from, to)
		return models.Grade{}, false, nil
	}

	s.record(opConvertOne, outcome(nil, true), start, from, to)
	return models.Grade{Value: tgtPolicy.PickVariant(variants), Scale: target.ID()}, true, nil
}

// ConvertToAll converts into every registered scale in registration order.
// The source scale is included only when includeSource is set, and then holds
// the caller's grade unchanged.
func (s *ConversionService) ConvertToAll(from models.Grade, includeSource bool) (Conversions, error) {
	start := time.Now()
	sourceID := models.CanonicalScaleID(from.Scale)

	out := make(Conversions, 0, len(s.order))
	for _, scale := range s.order {
		if scale.ID() == sourceID {
			if includeSource {
				out = append(out, ScaleConversion{Scale: scale.ID(), Grades: []models.Grade{from}})
			}
			continue
		}

		grades, err := s.convert(from, scale.ID())
		if err != nil {
			s.record(opConvertToAll, outcome(err, false), start, from, "*")
			return nil, err
		}
		out = append(out, ScaleConversion{Scale: scale.ID(), Grades: grades})
	}

	s.record(opConvertToAll, outcome(nil, len(out) > 0), start, from, "*")
	return out, nil
}

func (s *ConversionService) resolve(from, to string) (*scales.GradeScale, *scales.GradeScale, error) {
	source, err := s.Scale(from)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.Scale(to)
	if err != nil {
		return nil, nil, err
	}
	return source, target, nil
}

func outcome(err error, found bool) string {
	switch {
	case errors.Is(err, models.ErrGradeNotFound):
		return "grade_not_found"
	case errors.Is(err, models.ErrScaleNotRegistered):
		return "scale_not_registered"
	case err != nil:
		return "error"
	case !found:
		return "absent"
	default:
		return "ok"
	}
}

func (s *ConversionService) record(operation, result string, start time.Time, from models.Grade, to string) {
	if s.metrics != nil {
		s.metrics.RecordConversion(operation, result, time.Since(start))
	}
	if result != "ok" && s.logger != nil {
		s.logger.Debug(context.Background(), "[CONVERT_MISS] Conversion produced no result", logging.Fields{
			"operation": operation,
			"outcome":   result,
			"value":     from.Value,
			"from":      from.Scale,
			"to":        to,
		})
	}
}

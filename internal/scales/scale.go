// Package scales holds the per-scale crosswalk structures used by the converter.
//
// A GradeScale is built once from an index → cell map and is read-only afterwards,
// so a single instance can serve concurrent lookups without locking.
package scales

import (
	"fmt"
	"sort"
	"strings"

	"grade-platform/internal/models"
)

// DefaultDelimiter separates textual variants inside one cell, e.g. "7/7+".
const DefaultDelimiter = "/"

// Splitter breaks a raw cell into its textual variants in cell order.
type Splitter func(cell string) []string

// Option configures a GradeScale at construction time
type Option func(*GradeScale)

// WithDelimiter changes the variant delimiter used by the default splitter
func WithDelimiter(delimiter string) Option {
	return func(s *GradeScale) {
		if delimiter != "" {
			s.delimiter = delimiter
		}
	}
}

// WithSplitter replaces the default cell splitting rule
func WithSplitter(fn Splitter) Option {
	return func(s *GradeScale) {
		s.splitter = fn
	}
}

// GradeScale answers index ↔ grade questions for one scale
type GradeScale struct {
	id        string
	delimiter string
	splitter  Splitter

	// index → raw cell, exactly as supplied
	cells map[int]string

	// normalized variant → ascending, de-duplicated indexes
	gradeIndexes map[string][]int
}

// New builds a scale from a contiguous 1..N (or empty) index map.
func New(id string, cells map[int]string, opts ...Option) (*GradeScale, error) {
	s := &GradeScale{
		id:           models.CanonicalScaleID(id),
		delimiter:    DefaultDelimiter,
		cells:        make(map[int]string, len(cells)),
		gradeIndexes: make(map[string][]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := checkContiguous(s.id, cells); err != nil {
		return nil, err
	}

	for index := 1; index <= len(cells); index++ {
		cell := cells[index]
		s.cells[index] = cell

		for _, variant := range s.split(cell) {
			key := Normalize(variant)
			if !containsIndex(s.gradeIndexes[key], index) {
				s.gradeIndexes[key] = append(s.gradeIndexes[key], index)
			}
		}
	}

	for _, indexes := range s.gradeIndexes {
		sort.Ints(indexes)
	}

	return s, nil
}

// ID returns the canonical scale identifier
func (s *GradeScale) ID() string {
	return s.id
}

// Len returns N, the highest index defined by this scale
func (s *GradeScale) Len() int {
	return len(s.cells)
}

// Keys returns every normalized grade key, sorted
func (s *GradeScale) Keys() []string {
	keys := make([]string, 0, len(s.gradeIndexes))
	for k := range s.gradeIndexes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IndexFor resolves a grade to one index chosen by policy.
func (s *GradeScale) IndexFor(grade models.Grade, policy models.PrimaryIndexPolicy) (models.DifficultyIndex, error) {
	indexes, err := s.lookup(grade)
	if err != nil {
		return 0, err
	}
	return models.DifficultyIndex(policy.PickIndex(indexes)), nil
}

// AllIndexesFor resolves a grade to every index it appears at, ascending.
func (s *GradeScale) AllIndexesFor(grade models.Grade) ([]models.DifficultyIndex, error) {
	indexes, err := s.lookup(grade)
	if err != nil {
		return nil, err
	}

	out := make([]models.DifficultyIndex, len(indexes))
	for i, index := range indexes {
		out[i] = models.DifficultyIndex(index)
	}
	return out, nil
}

// VariantsAt returns the textual variants of the cell at index, in cell order.
// An index without a cell yields an empty slice, not an error.
func (s *GradeScale) VariantsAt(index models.DifficultyIndex) []string {
	cell, ok := s.cells[index.Int()]
	if !ok {
		return []string{}
	}
	return s.split(cell)
}

// FirstGradeAt returns the first variant at index as a Grade of this scale.
func (s *GradeScale) FirstGradeAt(index models.DifficultyIndex) (models.Grade, error) {
	variants := s.VariantsAt(index)
	if len(variants) == 0 {
		return models.Grade{}, &models.GradeError{
			Kind:  models.ErrIndexOutOfRange,
			Scale: s.id,
			Index: index.Int(),
		}
	}
	return models.Grade{Value: variants[0], Scale: s.id}, nil
}

func (s *GradeScale) lookup(grade models.Grade) ([]int, error) {
	indexes, ok := s.gradeIndexes[Normalize(grade.Value)]
	if !ok {
		return nil, &models.GradeError{
			Kind:  models.ErrGradeNotFound,
			Scale: s.id,
			Value: grade.Value,
		}
	}
	return indexes, nil
}

// split applies the configured splitter; variants are always trimmed and blanks dropped
func (s *GradeScale) split(cell string) []string {
	if s.splitter == nil {
		return SplitCell(cell, s.delimiter)
	}
	parts := s.splitter(cell)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitCell splits on delimiter, trims each part and drops empty parts.
func SplitCell(cell, delimiter string) []string {
	parts := strings.Split(cell, delimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// checkContiguous enforces keys 1..N with no gaps
func checkContiguous(scaleID string, cells map[int]string) error {
	for index := 1; index <= len(cells); index++ {
		if _, ok := cells[index]; !ok {
			return &models.GradeError{
				Kind:    models.ErrInvalidScaleData,
				Scale:   scaleID,
				Message: fmt.Sprintf("scale %s must be continuous from 1 (missing index %d)", scaleID, index),
			}
		}
	}
	return nil
}

func containsIndex(indexes []int, index int) bool {
	for _, i := range indexes {
		if i == index {
			return true
		}
	}
	return false
}

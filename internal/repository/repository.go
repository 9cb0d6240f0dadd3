// Package repository loads the raw index → cell maps that grade scales are built from.
package repository

import (
	"context"
	"fmt"

	"grade-platform/internal/models"
)

// GradeScaleRepository provides the crosswalk data of one scale at a time
type GradeScaleRepository interface {
	// IndexToGradeMap returns the non-empty cells of a scale keyed by index.
	IndexToGradeMap(ctx context.Context, scaleID string) (map[int]string, error)
}

// ColumnLister is implemented by sources that can enumerate the scales they hold
type ColumnLister interface {
	Columns(ctx context.Context) ([]string, error)
}

// Snapshotter is implemented by sources that can freeze their whole crosswalk.
// Every read from the returned repository sees the same version of the data.
type Snapshotter interface {
	Snapshot(ctx context.Context) (GradeScaleRepository, error)
}

// IndexColumn is the header of the crosswalk column holding difficulty indexes
const IndexColumn = "INDEX"

// MissingColumnError is returned when a table has no column for the requested scale
type MissingColumnError struct {
	Source string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %s not found in %s", e.Column, e.Source)
}

// Unwrap classifies a missing column as invalid scale data
func (e *MissingColumnError) Unwrap() error {
	return models.ErrInvalidScaleData
}

func (e *MissingColumnError) IsTransient() bool {
	return false
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}

package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"grade-platform/internal/models"
)

// TableRepository serves scales from a tabular crosswalk: a header row with an
// INDEX column and one column per scale. The table is re-read on every call,
// so edits to the underlying file are picked up. Use Snapshot to read several
// scales from one version of the table.
type TableRepository struct {
	source string
	load   func(ctx context.Context) ([][]string, error)
}

var (
	_ GradeScaleRepository = (*TableRepository)(nil)
	_ ColumnLister         = (*TableRepository)(nil)
	_ Snapshotter          = (*TableRepository)(nil)
)

func newStaticTable(source string, rows [][]string) *TableRepository {
	return &TableRepository{
		source: source,
		load: func(context.Context) ([][]string, error) {
			return rows, nil
		},
	}
}

// Source describes where the table is read from
func (r *TableRepository) Source() string {
	return r.source
}

// IndexToGradeMap returns the non-empty cells of the scaleID column
func (r *TableRepository) IndexToGradeMap(ctx context.Context, scaleID string) (map[int]string, error) {
	rows, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return parseTable(r.source, rows, scaleID)
}

// Snapshot reads the table once and returns a repository serving that copy
func (r *TableRepository) Snapshot(ctx context.Context) (GradeScaleRepository, error) {
	rows, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return newStaticTable(r.source, rows), nil
}

// Columns returns the scale column headers in table order, excluding INDEX
func (r *TableRepository) Columns(ctx context.Context) ([]string, error) {
	rows, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", models.ErrInvalidScaleData, r.source)
	}

	columns := make([]string, 0, len(rows[0]))
	for _, h := range rows[0] {
		name := headerName(h)
		if name == "" || name == IndexColumn {
			continue
		}
		columns = append(columns, name)
	}
	return columns, nil
}

func headerName(h string) string {
	return models.CanonicalScaleID(strings.TrimPrefix(h, "\ufeff"))
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if headerName(h) == name {
			return i
		}
	}
	return -1
}

// parseTable extracts one scale column. Blank cells are skipped; rows without
// an index and without a cell are ignored.
func parseTable(source string, rows [][]string, scaleID string) (map[int]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", models.ErrInvalidScaleData, source)
	}

	header := rows[0]
	indexCol := columnIndex(header, IndexColumn)
	if indexCol < 0 {
		return nil, &MissingColumnError{Source: source, Column: IndexColumn}
	}
	scaleID = models.CanonicalScaleID(scaleID)
	scaleCol := columnIndex(header, scaleID)
	if scaleCol < 0 {
		return nil, &MissingColumnError{Source: source, Column: scaleID}
	}

	cells := make(map[int]string)
	for lineNo, row := range rows[1:] {
		cell := strings.TrimSpace(field(row, scaleCol))
		rawIndex := strings.TrimSpace(field(row, indexCol))
		if cell == "" {
			continue
		}

		index, err := strconv.Atoi(rawIndex)
		if err != nil || index < 1 {
			return nil, &models.GradeError{
				Kind:    models.ErrInvalidScaleData,
				Scale:   scaleID,
				Message: fmt.Sprintf("%s row %d: invalid index %q", source, lineNo+2, rawIndex),
			}
		}
		if _, dup := cells[index]; dup {
			return nil, &models.GradeError{
				Kind:    models.ErrInvalidScaleData,
				Scale:   scaleID,
				Message: fmt.Sprintf("%s row %d: duplicate index %d", source, lineNo+2, index),
			}
		}
		cells[index] = cell
	}

	return cells, nil
}

func field(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return row[col]
}

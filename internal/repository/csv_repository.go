package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"grade-platform/data"
	"grade-platform/internal/models"
)

// NewCSVRepository reads the crosswalk from a CSV file on every call
func NewCSVRepository(path string) *TableRepository {
	return &TableRepository{
		source: path,
		load: func(ctx context.Context) ([][]string, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open crosswalk: %w", err)
			}
			defer f.Close()
			return readCSV(path, f)
		},
	}
}

// NewCSVBytesRepository serves the crosswalk from an in-memory CSV document
func NewCSVBytesRepository(name string, b []byte) *TableRepository {
	return &TableRepository{
		source: name,
		load: func(ctx context.Context) ([][]string, error) {
			return readCSV(name, bytes.NewReader(b))
		},
	}
}

// NewEmbeddedRepository serves the crosswalk bundled with the binary
func NewEmbeddedRepository() *TableRepository {
	return NewCSVBytesRepository("embedded:grades.csv", data.GradesCSV)
}

func readCSV(source string, r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed csv %s: %v", models.ErrInvalidScaleData, source, err)
	}
	return rows, nil
}

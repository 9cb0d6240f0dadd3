package repository

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"grade-platform/internal/models"
)

// NewXLSXRepository reads the crosswalk from a sheet of an XLSX workbook.
// An empty sheet name selects the first sheet.
func NewXLSXRepository(path, sheet string) *TableRepository {
	return &TableRepository{
		source: path,
		load: func(ctx context.Context) ([][]string, error) {
			f, err := excelize.OpenFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open workbook: %w", err)
			}
			defer f.Close()
			return readSheet(path, f, sheet)
		},
	}
}

// NewXLSXBytesRepository serves the crosswalk from an in-memory workbook
func NewXLSXBytesRepository(name string, b []byte, sheet string) *TableRepository {
	return &TableRepository{
		source: name,
		load: func(ctx context.Context) ([][]string, error) {
			return readWorkbook(name, b, sheet)
		},
	}
}

func readWorkbook(source string, b []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable workbook %s: %v", models.ErrInvalidScaleData, source, err)
	}
	defer f.Close()
	return readSheet(source, f, sheet)
}

func readSheet(source string, f *excelize.File, sheet string) ([][]string, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook %s has no sheets", models.ErrInvalidScaleData, source)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheet, source, err)
	}
	return rows, nil
}

package repository

import (
	"bytes"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"grade-platform/internal/models"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type tableFormat int

const (
	formatUnknown tableFormat = iota
	formatCSV
	formatXLSX
)

func detectFormat(mt *mimetype.MIME) tableFormat {
	for ; mt != nil; mt = mt.Parent() {
		switch {
		case mt.Is(xlsxMIME), mt.Is("application/zip"):
			return formatXLSX
		case mt.Is("text/plain"):
			return formatCSV
		}
	}
	return formatUnknown
}

// Open returns a repository for a local crosswalk file, choosing CSV or XLSX
// by sniffing the file content rather than trusting its extension.
func Open(path, sheet string) (*TableRepository, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect crosswalk: %w", err)
	}

	switch detectFormat(mt) {
	case formatXLSX:
		return NewXLSXRepository(path, sheet), nil
	case formatCSV:
		return NewCSVRepository(path), nil
	default:
		return nil, fmt.Errorf("%w: unsupported crosswalk format %s for %s", models.ErrInvalidScaleData, mt.String(), path)
	}
}

func decodeTable(source string, b []byte, sheet string) ([][]string, error) {
	mt := mimetype.Detect(b)
	switch detectFormat(mt) {
	case formatXLSX:
		return readWorkbook(source, b, sheet)
	case formatCSV:
		return readCSV(source, bytes.NewReader(b))
	default:
		return nil, fmt.Errorf("%w: unsupported crosswalk format %s for %s", models.ErrInvalidScaleData, mt.String(), source)
	}
}

package models

import "time"

// ScaleRecord describes one scale stored in the SQL grade store
type ScaleRecord struct {
	ScaleID    string    `json:"scale_id" db:"scale_id"`
	Ordinal    int       `json:"ordinal" db:"ordinal"`
	CellCount  int       `json:"cell_count" db:"cell_count"`
	ImportedAt time.Time `json:"imported_at" db:"imported_at"`
}

// Import run statuses
const (
	ImportSucceeded = "succeeded"
	ImportFailed    = "failed"
)

// ImportRecord audits one crosswalk import run
type ImportRecord struct {
	ID         string    `json:"id" db:"id"`
	Source     string    `json:"source" db:"source"`
	ScaleCount int       `json:"scale_count" db:"scale_count"`
	CellCount  int       `json:"cell_count" db:"cell_count"`
	Status     string    `json:"status" db:"status"`
	Message    string    `json:"message,omitempty" db:"message"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
}

// ScaleColumn is one validated crosswalk column ready to be stored
type ScaleColumn struct {
	ScaleID string
	Ordinal int
	Cells   map[int]string
}

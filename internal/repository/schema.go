package repository

import "grade-platform/pkg/database"

func schemaUp(driver string) []string {
	timestamp, id := "TIMESTAMPTZ", "UUID"
	if driver == database.DriverSQLite {
		timestamp, id = "TIMESTAMP", "TEXT"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS grade_scales (
			scale_id    TEXT PRIMARY KEY,
			ordinal     INTEGER NOT NULL,
			cell_count  INTEGER NOT NULL DEFAULT 0,
			imported_at ` + timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS grade_cells (
			scale_id    TEXT NOT NULL REFERENCES grade_scales(scale_id) ON DELETE CASCADE,
			grade_index INTEGER NOT NULL CHECK (grade_index > 0),
			cell        TEXT NOT NULL,
			PRIMARY KEY (scale_id, grade_index)
		)`,
		`CREATE TABLE IF NOT EXISTS grade_imports (
			id          ` + id + ` PRIMARY KEY,
			source      TEXT NOT NULL,
			scale_count INTEGER NOT NULL,
			cell_count  INTEGER NOT NULL,
			status      TEXT NOT NULL,
			message     TEXT NOT NULL DEFAULT '',
			started_at  ` + timestamp + ` NOT NULL,
			finished_at ` + timestamp + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_grade_imports_started_at ON grade_imports (started_at)`,
	}
}

func schemaDown() []string {
	return []string{
		`DROP TABLE IF EXISTS grade_imports`,
		`DROP TABLE IF EXISTS grade_cells`,
		`DROP TABLE IF EXISTS grade_scales`,
	}
}

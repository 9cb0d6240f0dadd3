package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"grade-platform/internal/models"
	"grade-platform/pkg/database"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

// SQLRepository stores imported crosswalk columns in a relational database
type SQLRepository struct {
	db      *database.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

var (
	_ GradeScaleRepository = (*SQLRepository)(nil)
	_ ColumnLister         = (*SQLRepository)(nil)
	_ Snapshotter          = (*SQLRepository)(nil)
)

// NewSQLRepository creates a new SQL grade store
func NewSQLRepository(db *database.DB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SQLRepository {
	return &SQLRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Migrate applies ("up") or drops ("down") the grade store schema
func (r *SQLRepository) Migrate(ctx context.Context, direction string) error {
	var statements []string
	switch direction {
	case "up":
		statements = schemaUp(r.db.Driver())
	case "down":
		statements = schemaDown()
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, "migrate_"+direction, stmt); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", direction, err)
		}
	}

	r.logger.Info(ctx, "[REPO_MIGRATE] Schema migration applied", logging.Fields{
		"direction":  direction,
		"driver":     r.db.Driver(),
		"statements": len(statements),
	})

	return nil
}

// IndexToGradeMap returns the stored cells of a scale
func (r *SQLRepository) IndexToGradeMap(ctx context.Context, scaleID string) (map[int]string, error) {
	scaleID = models.CanonicalScaleID(scaleID)

	var exists int
	err := r.db.GetContext(ctx, "get_scale", &exists,
		`SELECT COUNT(*) FROM grade_scales WHERE scale_id = $1`, scaleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scale: %w", err)
	}
	if exists == 0 {
		return nil, &NotFoundError{
			Resource: "grade_scale",
			ID:       scaleID,
		}
	}

	var rows []struct {
		Index int    `db:"grade_index"`
		Cell  string `db:"cell"`
	}
	err = r.db.SelectContext(ctx, "get_cells", &rows, `
		SELECT grade_index, cell
		FROM grade_cells
		WHERE scale_id = $1
		ORDER BY grade_index
	`, scaleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cells: %w", err)
	}

	cells := make(map[int]string, len(rows))
	for _, row := range rows {
		cells[row.Index] = row.Cell
	}
	return cells, nil
}

// Columns returns the stored scale ids in import order
func (r *SQLRepository) Columns(ctx context.Context) ([]string, error) {
	records, err := r.ListScales(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ScaleID
	}
	return ids, nil
}

// ListScales retrieves every stored scale ordered by ordinal
func (r *SQLRepository) ListScales(ctx context.Context) ([]*models.ScaleRecord, error) {
	var records []*models.ScaleRecord
	err := r.db.SelectContext(ctx, "list_scales", &records, `
		SELECT scale_id, ordinal, cell_count, imported_at
		FROM grade_scales
		ORDER BY ordinal, scale_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scales: %w", err)
	}
	return records, nil
}

// Snapshot reads every stored scale inside one transaction and returns the
// crosswalk as an in-memory table, columns in ordinal order
func (r *SQLRepository) Snapshot(ctx context.Context) (GradeScaleRepository, error) {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ids []string
	if err := tx.SelectContext(ctx, &ids, `
		SELECT scale_id FROM grade_scales ORDER BY ordinal, scale_id
	`); err != nil {
		return nil, fmt.Errorf("failed to list scales: %w", err)
	}

	var cells []struct {
		ScaleID string `db:"scale_id"`
		Index   int    `db:"grade_index"`
		Cell    string `db:"cell"`
	}
	if err := tx.SelectContext(ctx, &cells, `
		SELECT scale_id, grade_index, cell FROM grade_cells
	`); err != nil {
		return nil, fmt.Errorf("failed to get cells: %w", err)
	}

	column := make(map[string]int, len(ids))
	header := append([]string{IndexColumn}, ids...)
	for i, id := range ids {
		column[id] = i + 1
	}

	maxIndex := 0
	for _, c := range cells {
		if c.Index > maxIndex {
			maxIndex = c.Index
		}
	}

	rows := make([][]string, maxIndex+1)
	rows[0] = header
	for index := 1; index <= maxIndex; index++ {
		rows[index] = make([]string, len(header))
		rows[index][0] = strconv.Itoa(index)
	}
	for _, c := range cells {
		if col, ok := column[c.ScaleID]; ok {
			rows[c.Index][col] = c.Cell
		}
	}

	return newStaticTable("sql:"+r.db.Driver(), rows), nil
}

// ReplaceAll swaps the whole stored crosswalk for columns in a single
// transaction. Scales absent from columns are removed, so every stored scale
// comes from the same import and indexes stay aligned across scales.
func (r *SQLRepository) ReplaceAll(ctx context.Context, columns []models.ScaleColumn) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: refusing to replace the crosswalk with no scales", models.ErrInvalidScaleData)
	}

	timer := time.Now()
	totalCells := 0

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM grade_cells`); err != nil {
		return fmt.Errorf("failed to clear cells: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM grade_scales`); err != nil {
		return fmt.Errorf("failed to clear scales: %w", err)
	}

	scaleStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO grade_scales (scale_id, ordinal, cell_count, imported_at)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer scaleStmt.Close()

	cellStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO grade_cells (scale_id, grade_index, cell)
		VALUES ($1, $2, $3)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer cellStmt.Close()

	importedAt := time.Now().UTC()
	for _, col := range columns {
		scaleID := models.CanonicalScaleID(col.ScaleID)

		if _, err := scaleStmt.ExecContext(ctx, scaleID, col.Ordinal, len(col.Cells), importedAt); err != nil {
			return fmt.Errorf("failed to insert scale %s: %w", scaleID, err)
		}

		indexes := make([]int, 0, len(col.Cells))
		for index := range col.Cells {
			indexes = append(indexes, index)
		}
		sort.Ints(indexes)

		for _, index := range indexes {
			if _, err := cellStmt.ExecContext(ctx, scaleID, index, col.Cells[index]); err != nil {
				return fmt.Errorf("failed to insert cell %s/%d: %w", scaleID, index, err)
			}
		}
		totalCells += len(col.Cells)
	}

	if err := tx.Commit(); err != nil {
		r.metrics.RecordDBError("transaction_commit_error")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, col := range columns {
		r.metrics.ImportRowsTotal.WithLabelValues(models.CanonicalScaleID(col.ScaleID)).Add(float64(len(col.Cells)))
	}

	r.logger.Info(ctx, "[REPO_REPLACE_ALL] Crosswalk replaced", logging.Fields{
		"scales":      len(columns),
		"cells":       totalCells,
		"duration_ms": time.Since(timer).Milliseconds(),
	})

	return nil
}

// RecordImport stores an import audit row, assigning an id when missing
func (r *SQLRepository) RecordImport(ctx context.Context, rec *models.ImportRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, "insert_import", `
		INSERT INTO grade_imports (id, source, scale_count, cell_count, status, message, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		rec.ID,
		rec.Source,
		rec.ScaleCount,
		rec.CellCount,
		rec.Status,
		rec.Message,
		rec.StartedAt.UTC(),
		rec.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}

	return nil
}

// LatestImport returns the most recent import run
func (r *SQLRepository) LatestImport(ctx context.Context) (*models.ImportRecord, error) {
	var rec models.ImportRecord
	err := r.db.GetContext(ctx, "latest_import", &rec, `
		SELECT id, source, scale_count, cell_count, status, message, started_at, finished_at
		FROM grade_imports
		ORDER BY started_at DESC
		LIMIT 1
	`)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "grade_import",
			ID:       "latest",
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get latest import: %w", err)
	}

	return &rec, nil
}

// HealthCheck performs a repository health check
func (r *SQLRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"grade-platform/internal/models"
	"grade-platform/internal/repository"
	"grade-platform/internal/scales"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

// ScaleStore persists imported scale columns. ReplaceAll must swap the whole
// crosswalk atomically.
type ScaleStore interface {
	ReplaceAll(ctx context.Context, columns []models.ScaleColumn) error
	RecordImport(ctx context.Context, rec *models.ImportRecord) error
}

var _ ScaleStore = (*repository.SQLRepository)(nil)

// ImportService copies crosswalk columns from a source repository into a ScaleStore
type ImportService struct {
	store   ScaleStore
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// ImportResult contains import statistics
type ImportResult struct {
	RunID      string
	Source     string
	Imported   []string
	Skipped    []string
	TotalCells int
	Duration   time.Duration
	Errors     []string
}

// NewImportService creates a new import service
func NewImportService(store ScaleStore, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ImportService {
	return &ImportService{
		store:   store,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Import replaces the stored crosswalk with every definition the source holds.
// Columns missing from the source are skipped. Every present column is
// validated before anything is written; a single invalid column, or a failed
// write, leaves the store untouched and returns an error. The run is audited
// in the store whatever its outcome.
func (s *ImportService) Import(ctx context.Context, source string, src repository.GradeScaleRepository, defs []scales.Definition) (*ImportResult, error) {
	startTime := time.Now()

	result := &ImportResult{
		RunID:  uuid.NewString(),
		Source: source,
		Errors: make([]string, 0),
	}

	s.logger.Info(ctx, "[IMPORT_START] Starting crosswalk import", logging.Fields{
		"run_id":      result.RunID,
		"source":      source,
		"scale_count": len(defs),
		"stage":       "INITIALIZATION",
	})

	columns := make([]models.ScaleColumn, 0, len(defs))
	for i, def := range defs {
		scaleCtx := logging.WithScale(ctx, def.ID)

		cells, err := src.IndexToGradeMap(ctx, def.ID)
		var missing *repository.MissingColumnError
		if errors.As(err, &missing) {
			result.Skipped = append(result.Skipped, def.ID)
			s.logger.Debug(scaleCtx, "[IMPORT_SKIP] Scale not present in source", logging.Fields{})
			continue
		}
		if err != nil {
			s.fail(scaleCtx, result, def.ID, "read_error", err)
			continue
		}

		if _, err := scales.New(def.ID, cells, def.Options()...); err != nil {
			s.fail(scaleCtx, result, def.ID, "validation_error", err)
			continue
		}

		columns = append(columns, models.ScaleColumn{
			ScaleID: models.CanonicalScaleID(def.ID),
			Ordinal: i + 1,
			Cells:   cells,
		})
	}

	var importErr error
	switch {
	case len(result.Errors) > 0:
		importErr = fmt.Errorf("import of %s aborted, store unchanged: %d scale(s) invalid", source, len(result.Errors))
	case len(columns) == 0:
		importErr = fmt.Errorf("no scales found in %s", source)
	default:
		if err := s.store.ReplaceAll(ctx, columns); err != nil {
			s.fail(ctx, result, "*", "store_error", err)
			importErr = fmt.Errorf("failed to store crosswalk from %s: %w", source, err)
			break
		}
		for _, col := range columns {
			result.Imported = append(result.Imported, col.ScaleID)
			result.TotalCells += len(col.Cells)
		}
	}

	result.Duration = time.Since(startTime)
	s.metrics.ImportDuration.Observe(result.Duration.Seconds())

	rec := &models.ImportRecord{
		ID:         result.RunID,
		Source:     source,
		ScaleCount: len(result.Imported),
		CellCount:  result.TotalCells,
		Status:     models.ImportSucceeded,
		StartedAt:  startTime,
		FinishedAt: startTime.Add(result.Duration),
	}
	if importErr != nil {
		rec.Status = models.ImportFailed
		rec.Message = importErr.Error()
		if len(result.Errors) > 0 {
			rec.Message = fmt.Sprintf("%s; first: %s", rec.Message, result.Errors[0])
		}
	}
	if err := s.store.RecordImport(ctx, rec); err != nil {
		if importErr != nil {
			return result, fmt.Errorf("%w (audit also failed: %v)", importErr, err)
		}
		return result, fmt.Errorf("failed to record import: %w", err)
	}

	if importErr != nil {
		s.logger.Error(ctx, "[IMPORT_FAILED] Crosswalk import aborted", logging.Fields{
			"run_id":      result.RunID,
			"error_count": len(result.Errors),
			"skipped":     len(result.Skipped),
			"stage":       "COMPLETE",
		}, importErr)
		return result, importErr
	}

	s.logger.Info(ctx, "[IMPORT_COMPLETE] Crosswalk import completed", logging.Fields{
		"run_id":           result.RunID,
		"imported":         len(result.Imported),
		"skipped":          len(result.Skipped),
		"total_cells":      result.TotalCells,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

func (s *ImportService) fail(ctx context.Context, result *ImportResult, scaleID, errorType string, err error) {
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", scaleID, err))
	s.metrics.RecordImportError(errorType)
	s.logger.Error(ctx, "[IMPORT_SCALE_ERROR] Scale import failed", logging.Fields{
		"error_type": errorType,
		"stage":      "SCALE_PROCESSING",
	}, err)
}

package services

import (
	"context"
	"fmt"
	"time"

	"grade-platform/internal/repository"
	"grade-platform/internal/scales"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

// ScaleLoader builds grade scales from a repository.
// It replaces any process-wide registry: callers own the service it returns.
type ScaleLoader struct {
	repo    repository.GradeScaleRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewScaleLoader creates a new scale loader
func NewScaleLoader(repo repository.GradeScaleRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ScaleLoader {
	return &ScaleLoader{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Definitions returns the scales the repository can serve. Sources that list
// their columns are resolved against the catalog; others get the full catalog.
func (l *ScaleLoader) Definitions(ctx context.Context) ([]scales.Definition, error) {
	lister, ok := l.repo.(repository.ColumnLister)
	if !ok {
		return scales.Catalog, nil
	}

	columns, err := lister.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scale columns: %w", err)
	}
	if columns == nil {
		return scales.Catalog, nil
	}
	return scales.Resolve(columns), nil
}

// LoadAll builds one scale per definition. The first failure aborts the load.
func (l *ScaleLoader) LoadAll(ctx context.Context, defs []scales.Definition) ([]*scales.GradeScale, error) {
	startTime := time.Now()

	l.logger.Info(ctx, "[LOAD_START] Loading grade scales", logging.Fields{
		"scale_count": len(defs),
		"stage":       "INITIALIZATION",
	})

	loaded := make([]*scales.GradeScale, 0, len(defs))
	for _, def := range defs {
		cells, err := l.repo.IndexToGradeMap(ctx, def.ID)
		if err != nil {
			l.logger.Error(logging.WithScale(ctx, def.ID), "[LOAD_SCALE_ERROR] Failed to read scale data", logging.Fields{
				"stage": "FETCH",
			}, err)
			return nil, fmt.Errorf("failed to load scale %s: %w", def.ID, err)
		}

		scale, err := scales.New(def.ID, cells, def.Options()...)
		if err != nil {
			l.logger.Error(logging.WithScale(ctx, def.ID), "[LOAD_SCALE_ERROR] Invalid scale data", logging.Fields{
				"stage": "BUILD",
				"cells": len(cells),
			}, err)
			return nil, fmt.Errorf("failed to build scale %s: %w", def.ID, err)
		}

		if l.metrics != nil {
			l.metrics.RecordScaleLoaded(scale.ID(), scale.Len())
		}
		l.logger.Debug(logging.WithScale(ctx, scale.ID()), "[LOAD_SCALE] Scale loaded", logging.Fields{
			"indexes": scale.Len(),
			"grades":  len(scale.Keys()),
		})

		loaded = append(loaded, scale)
	}

	duration := time.Since(startTime)
	if l.metrics != nil {
		l.metrics.ScaleLoadDuration.Observe(duration.Seconds())
		l.metrics.ScalesLoaded.Set(float64(len(loaded)))
	}

	l.logger.Info(ctx, "[LOAD_COMPLETE] Grade scales loaded", logging.Fields{
		"scale_count":      len(loaded),
		"duration_seconds": duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return loaded, nil
}

// Build loads defs and returns a ready conversion service.
// A nil defs asks the repository which scales it holds. Repositories that can
// snapshot are read once, so every scale comes from the same data.
func (l *ScaleLoader) Build(ctx context.Context, defs []scales.Definition) (*ConversionService, error) {
	loader := l
	if s, ok := l.repo.(repository.Snapshotter); ok {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read scale data: %w", err)
		}
		loader = NewScaleLoader(snap, l.logger, l.metrics)
	}

	if defs == nil {
		var err error
		if defs, err = loader.Definitions(ctx); err != nil {
			return nil, err
		}
	}

	loaded, err := loader.LoadAll(ctx, defs)
	if err != nil {
		return nil, err
	}
	return NewConversionService(loaded, l.logger, l.metrics), nil
}

package services

import (
	"context"
	"testing"

	"grade-platform/internal/repository"
	"grade-platform/internal/scales"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

func newTestLoader(t *testing.T, repo repository.GradeScaleRepository) *ScaleLoader {
	t.Helper()
	collector, _ := metrics.NewTestCollector()
	return NewScaleLoader(repo, logging.Discard(), collector)
}

// newEmbeddedService builds the service over the bundled crosswalk
func newEmbeddedService(t *testing.T) *ConversionService {
	t.Helper()
	svc, err := newTestLoader(t, repository.NewEmbeddedRepository()).Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return svc
}

func newFixtureService(t *testing.T, cells map[string]map[int]string, order ...string) *ConversionService {
	t.Helper()
	list := make([]*scales.GradeScale, 0, len(order))
	for _, id := range order {
		s, err := scales.New(id, cells[id])
		if err != nil {
			t.Fatalf("scales.New(%s) error = %v", id, err)
		}
		list = append(list, s)
	}
	collector, _ := metrics.NewTestCollector()
	return NewConversionService(list, logging.Discard(), collector)
}

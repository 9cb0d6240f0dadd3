package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"grade-platform/internal/models"
	"grade-platform/internal/repository"
	"grade-platform/internal/scales"
)

type mapRepository map[string]map[int]string

func (r mapRepository) IndexToGradeMap(ctx context.Context, scaleID string) (map[int]string, error) {
	cells, ok := r[scaleID]
	if !ok {
		return nil, &repository.NotFoundError{Resource: "grade_scale", ID: scaleID}
	}
	return cells, nil
}

// snapshotRepository fails live reads; scales can only come from its snapshot
type snapshotRepository struct {
	frozen    mapRepository
	snapshots int
}

func (r *snapshotRepository) IndexToGradeMap(ctx context.Context, scaleID string) (map[int]string, error) {
	return nil, errors.New("live read")
}

func (r *snapshotRepository) Snapshot(ctx context.Context) (repository.GradeScaleRepository, error) {
	r.snapshots++
	return r.frozen, nil
}

func TestScaleLoader_BuildReadsSnapshotOnce(t *testing.T) {
	repo := &snapshotRepository{frozen: mapRepository{
		"A": {1: "a1", 2: "a2"},
		"B": {1: "b1", 2: "b2"},
	}}
	defs := []scales.Definition{{ID: "A", Delimiter: "/"}, {ID: "B", Delimiter: "/"}}

	svc, err := newTestLoader(t, repo).Build(context.Background(), defs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if repo.snapshots != 1 {
		t.Errorf("snapshots = %d, want 1", repo.snapshots)
	}

	got, err := svc.Convert(models.NewGrade("a2", "A"), "B")
	if err != nil || len(got) != 1 || got[0].Value != "b2" {
		t.Errorf("Convert() = %v, %v", got, err)
	}
}

func TestScaleLoader_BuildEmbedded(t *testing.T) {
	svc := newEmbeddedService(t)

	ids := make([]string, 0, len(svc.Scales()))
	for _, s := range svc.Scales() {
		ids = append(ids, s.ID())
	}
	if !reflect.DeepEqual(ids, scales.CatalogIDs()) {
		t.Errorf("registered %v, want catalog order %v", ids, scales.CatalogIDs())
	}
}

func TestScaleLoader_ResolvesColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.csv")
	content := "INDEX,EWBANK,CUSTOM,FR\n1,14,c1,5a\n2,15,c2,5b\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	svc, err := newTestLoader(t, repository.NewCSVRepository(path)).Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	ids := []string{}
	for _, s := range svc.Scales() {
		ids = append(ids, s.ID())
	}
	if want := []string{"FR", "EWBANK", "CUSTOM"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("registered %v, want %v", ids, want)
	}

	got, err := svc.Convert(models.NewGrade("c2", "custom"), "FR")
	if err != nil || len(got) != 1 || got[0].Value != "5b" {
		t.Errorf("Convert() = %v, %v", got, err)
	}
}

func TestScaleLoader_Failures(t *testing.T) {
	defs := []scales.Definition{{ID: "A", Delimiter: "/"}, {ID: "B", Delimiter: "/"}}

	tests := []struct {
		name    string
		repo    mapRepository
		wantErr error
	}{
		{
			name:    "gap in indexes",
			repo:    mapRepository{"A": {1: "a"}, "B": {1: "b", 3: "d"}},
			wantErr: models.ErrInvalidScaleData,
		},
		{
			name: "missing scale",
			repo: mapRepository{"A": {1: "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := newTestLoader(t, tt.repo).Build(context.Background(), defs)
			if err == nil || svc != nil {
				t.Fatalf("Build() = %v, %v, want failure without partial registry", svc, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScaleLoader_DefinitionsWithoutLister(t *testing.T) {
	defs, err := newTestLoader(t, mapRepository{}).Definitions(context.Background())
	if err != nil {
		t.Fatalf("Definitions() error = %v", err)
	}
	if len(defs) != len(scales.Catalog) {
		t.Errorf("Definitions() = %d entries, want full catalog", len(defs))
	}
}

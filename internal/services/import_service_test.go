package services

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"grade-platform/internal/models"
	"grade-platform/internal/repository"
	"grade-platform/internal/scales"
	"grade-platform/pkg/database"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

type memoryStore struct {
	scales   map[string]map[int]string
	ordinals map[string]int
	imports  []*models.ImportRecord
	failOn   string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{scales: map[string]map[int]string{}, ordinals: map[string]int{}}
}

func (m *memoryStore) ReplaceAll(ctx context.Context, columns []models.ScaleColumn) error {
	for _, col := range columns {
		if col.ScaleID == m.failOn {
			return errors.New("disk full")
		}
	}
	m.scales = map[string]map[int]string{}
	m.ordinals = map[string]int{}
	for _, col := range columns {
		m.scales[col.ScaleID] = col.Cells
		m.ordinals[col.ScaleID] = col.Ordinal
	}
	return nil
}

func (m *memoryStore) RecordImport(ctx context.Context, rec *models.ImportRecord) error {
	m.imports = append(m.imports, rec)
	return nil
}

func newTestImporter(store ScaleStore) *ImportService {
	collector, _ := metrics.NewTestCollector()
	return NewImportService(store, logging.Discard(), collector)
}

func TestImportService_Embedded(t *testing.T) {
	store := newMemoryStore()
	result, err := newTestImporter(store).Import(context.Background(), "embedded", repository.NewEmbeddedRepository(), scales.Catalog)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if !reflect.DeepEqual(result.Imported, scales.CatalogIDs()) {
		t.Errorf("Imported = %v", result.Imported)
	}
	if len(result.Errors) != 0 || result.RunID == "" || result.TotalCells == 0 {
		t.Errorf("unexpected result %+v", result)
	}
	if store.scales["FR"][15] != "6c+" || store.ordinals["FR"] != 2 {
		t.Errorf("FR stored as %v (ordinal %d)", store.scales["FR"][15], store.ordinals["FR"])
	}
	if len(store.imports) != 1 || store.imports[0].Status != models.ImportSucceeded || store.imports[0].ID != result.RunID {
		t.Errorf("import audit = %+v", store.imports)
	}
}

func TestImportService_Failures(t *testing.T) {
	defs := []scales.Definition{
		{ID: "FR", Delimiter: "/"},
		{ID: "YDS", Delimiter: "/"},
		{ID: "BR", Delimiter: "/"},
		{ID: "V", Delimiter: "/"},
	}

	tests := []struct {
		name        string
		csv         string
		failOn      string
		checkValues func(t *testing.T, result *ImportResult, store *memoryStore)
	}{
		{
			name: "invalid column aborts the whole import",
			csv:  "INDEX,FR,YDS,BR\n1,5a,5.8,IV\n2,5b,5.9,V\n4,5c,,\n",
			checkValues: func(t *testing.T, result *ImportResult, store *memoryStore) {
				if len(result.Imported) != 0 || result.TotalCells != 0 {
					t.Errorf("Imported = %v, cells = %d, want nothing", result.Imported, result.TotalCells)
				}
				if len(result.Errors) != 1 {
					t.Errorf("Errors = %v, want only the FR gap", result.Errors)
				}
				if !reflect.DeepEqual(result.Skipped, []string{"V"}) {
					t.Errorf("Skipped = %v", result.Skipped)
				}
			},
		},
		{
			name:   "store failure writes nothing",
			csv:    "INDEX,FR,YDS,BR\n1,5a,5.8,IV\n2,5b,5.9,V\n",
			failOn: "BR",
			checkValues: func(t *testing.T, result *ImportResult, store *memoryStore) {
				if len(result.Imported) != 0 {
					t.Errorf("Imported = %v, want nothing", result.Imported)
				}
				if len(result.Errors) != 1 {
					t.Errorf("Errors = %v", result.Errors)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := repository.NewCSVBytesRepository("fixture.csv", []byte(tt.csv))
			store := newMemoryStore()
			store.failOn = tt.failOn

			result, err := newTestImporter(store).Import(context.Background(), "fixture.csv", src, defs)
			if err == nil {
				t.Fatal("Import() should fail")
			}
			if len(store.scales) != 0 {
				t.Errorf("store written: %v", store.scales)
			}
			if len(store.imports) != 1 || store.imports[0].Status != models.ImportFailed || store.imports[0].Message == "" {
				t.Errorf("audit = %+v", store.imports)
			}
			tt.checkValues(t, result, store)
		})
	}
}

func newSQLStore(t *testing.T) *repository.SQLRepository {
	t.Helper()
	collector, _ := metrics.NewTestCollector()
	logger := logging.Discard()

	db, err := database.Open(&database.Config{
		Driver:          database.DriverSQLite,
		DSN:             filepath.Join(t.TempDir(), "grades.db"),
		MonitorInterval: time.Hour,
	}, logger, collector)
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLRepository(db, logger, collector)
	if err := repo.Migrate(context.Background(), "up"); err != nil {
		t.Fatalf("Migrate(up) error = %v", err)
	}
	return repo
}

func TestImportService_ReimportKeepsRowsAligned(t *testing.T) {
	ctx := context.Background()
	defs := []scales.Definition{{ID: "A"}, {ID: "B"}}
	v1 := map[string]map[int]string{
		"A": {1: "a1", 2: "a2"},
		"B": {1: "b1", 2: "b2"},
	}

	tests := []struct {
		name        string
		v2          string
		wantErr     bool
		checkValues func(t *testing.T, store *repository.SQLRepository)
	}{
		{
			name:    "invalid v2 leaves v1 in place",
			v2:      "INDEX,A,B\n1,a0,\n2,a1,b1\n3,a2,b2\n",
			wantErr: true,
			checkValues: func(t *testing.T, store *repository.SQLRepository) {
				for id, want := range v1 {
					got, err := store.IndexToGradeMap(ctx, id)
					if err != nil || !reflect.DeepEqual(got, want) {
						t.Errorf("%s = %v, %v; want %v", id, got, err, want)
					}
				}
				latest, err := store.LatestImport(ctx)
				if err != nil || latest.Status != models.ImportFailed {
					t.Errorf("LatestImport() = %+v, %v", latest, err)
				}
			},
		},
		{
			name: "valid v2 without B drops B",
			v2:   "INDEX,A\n1,a0\n2,a1\n3,a2\n",
			checkValues: func(t *testing.T, store *repository.SQLRepository) {
				got, err := store.IndexToGradeMap(ctx, "A")
				if err != nil || !reflect.DeepEqual(got, map[int]string{1: "a0", 2: "a1", 3: "a2"}) {
					t.Errorf("A = %v, %v", got, err)
				}
				columns, _ := store.Columns(ctx)
				if !reflect.DeepEqual(columns, []string{"A"}) {
					t.Errorf("Columns() = %v, want only A", columns)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newSQLStore(t)
			importer := newTestImporter(store)

			first := repository.NewCSVBytesRepository("v1.csv", []byte("INDEX,A,B\n1,a1,b1\n2,a2,b2\n"))
			if _, err := importer.Import(ctx, "v1.csv", first, defs); err != nil {
				t.Fatalf("Import(v1) error = %v", err)
			}

			second := repository.NewCSVBytesRepository("v2.csv", []byte(tt.v2))
			_, err := importer.Import(ctx, "v2.csv", second, defs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Import(v2) error = %v, wantErr %v", err, tt.wantErr)
			}
			tt.checkValues(t, store)
		})
	}
}

func TestImportService_NothingImported(t *testing.T) {
	src := repository.NewCSVBytesRepository("empty.csv", []byte("INDEX,FOO\n1,x\n"))
	store := newMemoryStore()

	_, err := newTestImporter(store).Import(context.Background(), "empty.csv", src, scales.Catalog[:2])
	if err == nil {
		t.Fatal("Import() should fail when no scale is imported")
	}
	if len(store.imports) != 1 {
		t.Error("failed runs are still audited")
	}
}

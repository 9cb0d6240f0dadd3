package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	collector, _ := metrics.NewTestCollector()
	db, err := Open(&Config{
		Driver:          DriverSQLite,
		DSN:             filepath.Join(t.TempDir(), "grades.db"),
		MonitorInterval: time.Hour,
	}, logging.Discard(), collector)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConfig_ConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "postgres fields",
			cfg:  Config{Driver: DriverPostgres, Host: "db", Port: 5432, User: "u", Password: "p", Database: "grades", SSLMode: "disable"},
			want: "host=db port=5432 user=u password=p dbname=grades sslmode=disable",
		},
		{
			name: "explicit dsn wins",
			cfg:  Config{Driver: DriverPgx, DSN: "postgres://u@db/grades", Host: "ignored"},
			want: "postgres://u@db/grades",
		},
		{
			name: "sqlite adds busy timeout",
			cfg:  Config{Driver: DriverSQLite, DSN: "/tmp/g.db"},
			want: "/tmp/g.db?_pragma=busy_timeout(5000)",
		},
		{
			name: "sqlite keeps caller query",
			cfg:  Config{Driver: DriverSQLite, DSN: "file:g.db?mode=ro"},
			want: "file:g.db?mode=ro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ConnectionString(); got != tt.want {
				t.Errorf("ConnectionString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	collector, _ := metrics.NewTestCollector()
	if _, err := Open(&Config{Driver: "oracle"}, logging.Discard(), collector); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestDB_SQLiteRoundTrip(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	if err := db.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if db.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q", db.Driver())
	}

	if _, err := db.ExecContext(ctx, "create", `CREATE TABLE cells (grade_index INTEGER PRIMARY KEY, cell TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	tx, err := db.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	for i, cell := range []string{"5a", "5b", "5c"} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO cells (grade_index, cell) VALUES ($1, $2)`, i+1, cell); err != nil {
			tx.Rollback()
			t.Fatalf("insert: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	var count int
	if err := db.GetContext(ctx, "count", &count, `SELECT COUNT(*) FROM cells`); err != nil {
		t.Fatalf("GetContext() error = %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	var cells []string
	if err := db.SelectContext(ctx, "select", &cells, `SELECT cell FROM cells WHERE grade_index >= $1 ORDER BY grade_index`, 2); err != nil {
		t.Fatalf("SelectContext() error = %v", err)
	}
	if len(cells) != 2 || cells[0] != "5b" {
		t.Errorf("cells = %v", cells)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	// second close is a no-op
	if err := db.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"grade-platform/internal/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		checkValues func(t *testing.T, out string, err error)
	}{
		{
			name: "convert",
			args: []string{"convert", "6c+", "--from", "fr", "--to", "yds"},
			checkValues: func(t *testing.T, out string, err error) {
				if err != nil {
					t.Fatal(err)
				}
				if strings.TrimSpace(out) != "6c+ (FR) -> YDS: 5.11b, 5.11c" {
					t.Errorf("out = %q", out)
				}
			},
		},
		{
			name: "convert json",
			args: []string{"convert", "9b", "--from", "FR", "--to", "SAXON", "--json"},
			checkValues: func(t *testing.T, out string, err error) {
				if err != nil {
					t.Fatal(err)
				}
				if strings.TrimSpace(out) != "[]" {
					t.Errorf("out = %q, want []", out)
				}
			},
		},
		{
			name: "one with last variant",
			args: []string{"one", "7a", "--from", "FR", "--to", "BR", "--target-policy", "last"},
			checkValues: func(t *testing.T, out string, err error) {
				if err != nil {
					t.Fatal(err)
				}
				if strings.TrimSpace(out) != "8a (BR)" {
					t.Errorf("out = %q", out)
				}
			},
		},
		{
			name: "one absent json",
			args: []string{"one", "9b", "--from", "FR", "--to", "SAXON", "--json"},
			checkValues: func(t *testing.T, out string, err error) {
				if err != nil {
					t.Fatal(err)
				}
				if strings.TrimSpace(out) != "null" {
					t.Errorf("out = %q, want null", out)
				}
			},
		},
		{
			name: "one bad policy",
			args: []string{"one", "7a", "--from", "FR", "--to", "BR", "--source-policy", "widest"},
			checkValues: func(t *testing.T, out string, err error) {
				var verr *models.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("err = %v, want ValidationError", err)
				}
			},
		},
		{
			name: "all with source",
			args: []string{"all", "6c+", "--from", "FR", "--include-source", "--json"},
			checkValues: func(t *testing.T, out string, err error) {
				if err != nil {
					t.Fatal(err)
				}
				var got map[string][]models.Grade
				if err := json.Unmarshal([]byte(out), &got); err != nil {
					t.Fatalf("invalid JSON %q: %v", out, err)
				}
				if len(got) != 14 || got["UIAA"][0].Value != "VIII-" || got["FR"][0].Value != "6c+" {
					t.Errorf("conversions = %v", got)
				}
			},
		},
		{
			name: "all text marks empty scales",
			args: []string{"all", "9b", "--from", "FR"},
			checkValues: func(t *testing.T, out string, err error) {
				if err != nil {
					t.Fatal(err)
				}
				if !strings.Contains(out, "SAXON") || !strings.Contains(out, "-") {
					t.Errorf("out = %q", out)
				}
				if strings.HasPrefix(out, "FR ") {
					t.Errorf("source scale printed without --include-source: %q", out)
				}
			},
		},
		{
			name: "unknown grade",
			args: []string{"convert", "12z", "--from", "FR", "--to", "YDS"},
			checkValues: func(t *testing.T, out string, err error) {
				if !errors.Is(err, models.ErrGradeNotFound) {
					t.Errorf("err = %v, want ErrGradeNotFound", err)
				}
			},
		},
		{
			name: "scales",
			args: []string{"scales"},
			checkValues: func(t *testing.T, out string, err error) {
				if err != nil {
					t.Fatal(err)
				}
				lines := strings.Split(strings.TrimSpace(out), "\n")
				if len(lines) != 14 || !strings.HasPrefix(lines[0], "UIAA") {
					t.Errorf("lines = %v", lines)
				}
			},
		},
		{
			name: "variants",
			args: []string{"variants", "br", "16"},
			checkValues: func(t *testing.T, out string, err error) {
				if err != nil {
					t.Fatal(err)
				}
				if strings.TrimSpace(out) != "7c, 8a" {
					t.Errorf("out = %q", out)
				}
			},
		},
		{
			name: "variants bad index",
			args: []string{"variants", "FR", "0"},
			checkValues: func(t *testing.T, out string, err error) {
				if err == nil {
					t.Error("expected error for index 0")
				}
			},
		},
		{
			name: "missing required flag",
			args: []string{"convert", "6c"},
			checkValues: func(t *testing.T, out string, err error) {
				if err == nil {
					t.Error("expected error without --from/--to")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			tt.checkValues(t, out, err)
		})
	}
}

func TestCommands_DataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gym.csv")
	csv := "INDEX,FR,GYM\n1,5a,green\n2,5b,blue/purple\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--data", path, "convert", "5b", "--from", "FR", "--to", "gym")
	if err != nil {
		t.Fatalf("convert error = %v", err)
	}
	if strings.TrimSpace(out) != "5b (FR) -> GYM: blue, purple" {
		t.Errorf("out = %q", out)
	}

	if _, err := run(t, "--data", filepath.Join(t.TempDir(), "absent.csv"), "scales"); err == nil {
		t.Error("expected error for missing data file")
	}
}

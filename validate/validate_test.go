package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/sokoban/game/engine"
)

func mustGrid(t *testing.T, rows ...string) *engine.Grid {
	t.Helper()
	g, err := engine.ParseLayout(rows)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	return g
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLevel(t *testing.T) {
	tests := []struct {
		name         string
		layout       []string
		wantValid    bool
		wantError    string
		wantWarnings int
	}{
		{
			name:      "valid level",
			layout:    []string{"######", "#@ $.#", "######"},
			wantValid: true,
		},
		{
			name:      "no person",
			layout:    []string{"#####", "# $.#", "#####"},
			wantError: "no person",
		},
		{
			name:         "unbalanced",
			layout:       []string{"#######", "#@ $$.#", "#######"},
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name:         "no targets",
			layout:       []string{"#####", "#@  #", "#####"},
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name:      "box in corner",
			layout:    []string{"######", "#@ .$#", "######"},
			wantError: "stuck in a corner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Level("test.json", "test", &engine.Level{Name: tt.name, Layout: tt.layout})
			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors %v)", result.Valid, tt.wantValid, result.Errors)
			}
			if tt.wantError != "" && !strings.Contains(strings.Join(result.Errors, "\n"), tt.wantError) {
				t.Errorf("Expected error containing %q, got %v", tt.wantError, result.Errors)
			}
			if len(result.Warnings) != tt.wantWarnings {
				t.Errorf("Warnings = %v, want %d", result.Warnings, tt.wantWarnings)
			}
		})
	}
}

func TestConnectivity(t *testing.T) {
	t.Run("all reachable", func(t *testing.T) {
		result := Connectivity(mustGrid(t, "######", "#@ $ #", "# #. #", "######"))
		if !result.Valid {
			t.Errorf("Expected valid, got %v", result.Errors)
		}
	})

	t.Run("walled off target", func(t *testing.T) {
		result := Connectivity(mustGrid(t, "#######", "#@$ #.#", "#######"))
		if result.Valid {
			t.Fatal("Expected the walled-off target to be reported")
		}
		if !strings.Contains(strings.Join(result.Errors, "\n"), "Unreachable: target at (1,5)") {
			t.Errorf("Unexpected errors %v", result.Errors)
		}
	})

	t.Run("no person", func(t *testing.T) {
		g := mustGrid(t, "#####", "#@$.#", "#####")
		g.Set(6, engine.Space)
		if Connectivity(g).Valid {
			t.Error("Expected failure without a person")
		}
	})
}

func TestCorners(t *testing.T) {
	// Box on a target in a corner is fine
	if result := Corners(mustGrid(t, "#####", "#@ *#", "#####")); !result.Valid {
		t.Errorf("Expected valid, got %v", result.Errors)
	}
	// Box against one wall only is fine
	if result := Corners(mustGrid(t, "######", "#    #", "#@ $.#", "#    #", "######")); !result.Valid {
		t.Errorf("Expected valid, got %v", result.Errors)
	}
	result := Corners(mustGrid(t, "#####", "#$ .#", "#  @#", "#####"))
	if result.Valid || len(result.Errors) != 1 {
		t.Errorf("Expected one corner error, got %v", result.Errors)
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"name": "A", "layout": ["#####", "#@$.#", "#####"]}`)
	writeFile(t, dir, "b.json", `{"name": "B", invalid json}`)
	writeFile(t, dir, "pack.hcl", `
level "one" {
  name   = "One"
  layout = ["#####", "#@$.#", "#####"]
}
level "two" {
  name   = "Two"
  layout = ["#####", "# $.#", "#####"]
}
`)
	writeFile(t, dir, "README.md", "ignored")

	results, err := Dir(dir)
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(results))
	}

	want := []struct {
		file, id string
		valid    bool
	}{
		{"a.json", "a", true},
		{"b.json", "", false},
		{"pack.hcl", "one", true},
		{"pack.hcl", "two", false},
	}
	for i, w := range want {
		r := results[i]
		if r.File != w.file || r.LevelID != w.id || r.Valid != w.valid {
			t.Errorf("result %d = %s/%s valid=%v, want %s/%s valid=%v", i, r.File, r.LevelID, r.Valid, w.file, w.id, w.valid)
		}
	}

	var out bytes.Buffer
	if Report(&out, results) {
		t.Error("Expected Report to flag invalid levels")
	}
	for _, s := range []string{"pack.hcl (one)", "✅ VALID", "❌ INVALID", "Some levels have errors"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("Expected %q in report:\n%s", s, out.String())
		}
	}

	if _, err := Dir(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}

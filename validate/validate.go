// Package validate checks level files before they are published to a level
// directory. Beyond the play invariants enforced by the engine it checks:
//   - every box and target can be reached from the person through floor
//   - no box starts wedged in a corner off target, which makes a level unsolvable
//   - box and target counts match (reported as a warning only)
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/levels"
)

// Result captures the outcome of validating a single level.
// Info holds the passed checks, Errors the failed ones.
type Result struct {
	File     string
	LevelID  string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// File validates every level in a .json or .hcl file. A file that cannot be
// read or parsed yields a single invalid result.
func File(path string) []Result {
	entries, err := levels.ReadFile(path)
	if err != nil {
		r := Result{File: filepath.Base(path)}
		r.fail("%v", err)
		return []Result{r}
	}

	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		results = append(results, Level(filepath.Base(path), e.ID, e.Level))
	}
	return results
}

// Dir validates every level file in dir, sorted by file name
func Dir(dir string) ([]Result, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.hcl"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}
	sort.Strings(files)

	var results []Result
	for _, f := range files {
		results = append(results, File(f)...)
	}
	return results, nil
}

// Level validates one level definition
func Level(file, id string, level *engine.Level) Result {
	result := Result{File: file, LevelID: id, Valid: true}

	if err := engine.ValidateLevel(level); err != nil {
		result.fail("%v", err)
		return result
	}
	g, err := level.BuildGrid()
	if err != nil {
		result.fail("%v", err)
		return result
	}

	stats := engine.StatsOf(g)
	result.Info = append(result.Info, fmt.Sprintf("✓ Board %dx%d with %d boxes and %d targets", stats.Width, stats.Height, stats.Boxes, stats.Targets))
	if !stats.Balanced {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d boxes for %d targets", stats.Boxes, stats.Targets))
	}
	if stats.Targets == 0 {
		result.Warnings = append(result.Warnings, "no targets: the level can never be won")
	}

	merge(&result, Connectivity(g))
	merge(&result, Corners(g))
	return result
}

func merge(dst *Result, src Result) {
	if !src.Valid {
		dst.Valid = false
	}
	dst.Errors = append(dst.Errors, src.Errors...)
	dst.Info = append(dst.Info, src.Info...)
}

// Connectivity flood-fills from the person through every non-wall cell and
// reports boxes and targets outside the reached region.
func Connectivity(g *engine.Grid) Result {
	result := Result{Valid: true}

	start, err := g.IndexOfPerson()
	if err != nil {
		result.fail("Cannot check connectivity: %v", err)
		return result
	}

	visited := make([]bool, g.Len())
	queue := []int{start}
	visited[start] = true
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dir := range engine.Directions {
			delta, _ := dir.Delta(g.Width)
			next := current + delta
			if !g.InBounds(next) || visited[next] || g.Get(next) == engine.Wall {
				continue
			}
			// Moving left or right must stay on the same row
			if (dir == engine.Left || dir == engine.Right) && next/g.Width != current/g.Width {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	var unreachable []string
	for i := 0; i < g.Len(); i++ {
		if visited[i] || (g.Get(i) != engine.Box && !g.IsTarget(i)) {
			continue
		}
		row, col := g.RowCol(i)
		unreachable = append(unreachable, fmt.Sprintf("%s at (%d,%d)", engine.DescribeCell(g, i), row, col))
	}

	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d boxes or targets unreachable from the person", len(unreachable))
		for _, u := range unreachable {
			result.fail("Unreachable: %s", u)
		}
	} else {
		result.Info = append(result.Info, "✓ Connectivity: every box and target is reachable")
	}
	return result
}

// Corners reports boxes off target with walls on two adjacent sides. Such a
// box can never move again.
func Corners(g *engine.Grid) Result {
	result := Result{Valid: true}

	wall := func(i int, dir engine.Direction) bool {
		delta, _ := dir.Delta(g.Width)
		return g.Get(i+delta) == engine.Wall
	}

	for i := 0; i < g.Len(); i++ {
		if g.Get(i) != engine.Box || g.IsTarget(i) {
			continue
		}
		vertical := wall(i, engine.Up) || wall(i, engine.Down)
		horizontal := wall(i, engine.Left) || wall(i, engine.Right)
		if vertical && horizontal {
			row, col := g.RowCol(i)
			result.fail("Box at (%d,%d) is stuck in a corner", row, col)
		}
	}

	if result.Valid {
		result.Info = append(result.Info, "✓ No box starts in a corner")
	}
	return result
}

// Report prints a concise report for results and returns whether all were valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		name := result.File
		if result.LevelID != "" {
			name = fmt.Sprintf("%s (%s)", result.File, result.LevelID)
		}
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), name)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All levels are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some levels have errors")
	}
	return allValid
}

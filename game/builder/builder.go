// Package builder implements the level maker: blank bordered boards, toggle
// edits and the play-readiness check that guards every hand-off to the engine.
package builder

import (
	"errors"
	"fmt"

	"github.com/wricardo/sokoban/game/engine"
)

var (
	ErrSizeOutOfBounds = errors.New("board size out of bounds")
	ErrInvalidBounds   = errors.New("invalid size bounds")
	ErrTargetOnWall    = errors.New("a target cannot sit on a wall")
)

// Bounds is the inclusive range of rows and columns a blank board may have
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultBounds matches the size selector of the level maker
var DefaultBounds = Bounds{Min: 6, Max: 18}

// Validate checks that the range is usable for bordered boards
func (b Bounds) Validate() error {
	if b.Min < engine.MinGridSize {
		return fmt.Errorf("%w: min %d is below %d", ErrInvalidBounds, b.Min, engine.MinGridSize)
	}
	if b.Max > engine.MaxGridSize {
		return fmt.Errorf("%w: max %d is above %d", ErrInvalidBounds, b.Max, engine.MaxGridSize)
	}
	if b.Min > b.Max {
		return fmt.Errorf("%w: min %d is greater than max %d", ErrInvalidBounds, b.Min, b.Max)
	}
	return nil
}

// Contains reports whether n lies inside the range
func (b Bounds) Contains(n int) bool {
	return n >= b.Min && n <= b.Max
}

// Options lists every selectable size, smallest first
func (b Bounds) Options() []int {
	if b.Min > b.Max {
		return nil
	}
	opts := make([]int, 0, b.Max-b.Min+1)
	for n := b.Min; n <= b.Max; n++ {
		opts = append(opts, n)
	}
	return opts
}

// Builder creates and edits authoring grids within configured bounds
type Builder struct {
	bounds Bounds
}

// New creates a builder; the bounds are validated once here
func New(bounds Bounds) (*Builder, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	return &Builder{bounds: bounds}, nil
}

// Bounds returns the configured size range
func (b *Builder) Bounds() Bounds {
	return b.bounds
}

// CreateBlank returns a rows x cols grid whose border is wall and whose
// interior is space. Targets start empty.
func (b *Builder) CreateBlank(rows, cols int) (*engine.Grid, error) {
	if !b.bounds.Contains(rows) || !b.bounds.Contains(cols) {
		return nil, fmt.Errorf("%w: %dx%d, allowed %d..%d", ErrSizeOutOfBounds, rows, cols, b.bounds.Min, b.bounds.Max)
	}

	cells := make([]engine.CellKind, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			kind := engine.Space
			if r == 0 || r == rows-1 || c == 0 || c == cols-1 {
				kind = engine.Wall
			}
			cells[r*cols+c] = kind
		}
	}
	return engine.NewGrid(cols, rows, cells, nil)
}

// ApplyEdit paints kind at index. Painting the kind a cell already holds
// clears it back to space, and painting a wall drops any target under it.
// Border cells are not protected here; the authoring surface decides which
// cells are editable.
func ApplyEdit(g *engine.Grid, index int, kind engine.CellKind) error {
	if _, err := engine.ParseCellKind(string(kind)); err != nil {
		return err
	}
	if !g.InBounds(index) {
		return fmt.Errorf("edit %d: %w", index, engine.ErrIndexOutOfRange)
	}

	if g.Get(index) == kind {
		g.Set(index, engine.Space)
		return nil
	}
	g.Set(index, kind)
	if kind == engine.Wall {
		g.SetTarget(index, false)
	}
	return nil
}

// ToggleTarget adds or removes the target overlay at index. Walls take no target.
func ToggleTarget(g *engine.Grid, index int) error {
	if !g.InBounds(index) {
		return fmt.Errorf("target %d: %w", index, engine.ErrIndexOutOfRange)
	}
	on := !g.IsTarget(index)
	if on && g.Get(index) == engine.Wall {
		return fmt.Errorf("target %d: %w", index, ErrTargetOnWall)
	}
	g.SetTarget(index, on)
	return nil
}

// ValidationResult is the outcome of the play-readiness check
type ValidationResult string

const (
	OK              ValidationResult = "ok"
	NoPerson        ValidationResult = "no_person"
	MultiplePersons ValidationResult = "multiple_persons"
)

// Message returns the notification shown to the author
func (r ValidationResult) Message() string {
	switch r {
	case NoPerson:
		return "Please add a person to the board."
	case MultiplePersons:
		return "There should be only one person on the board."
	}
	return ""
}

// ValidateForPlay counts persons on the grid. Only OK allows a play session.
func ValidateForPlay(g *engine.Grid) ValidationResult {
	switch n := g.Count(engine.Person); {
	case n == 0:
		return NoPerson
	case n == 1:
		return OK
	default:
		return MultiplePersons
	}
}

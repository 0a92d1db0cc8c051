package engine

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrGridIntegrity marks a grid that breaks the single-person or border invariants.
	// Callers must validate grids before play; seeing it during a move is a defect.
	ErrGridIntegrity   = errors.New("grid integrity violation")
	ErrNoPerson        = fmt.Errorf("%w: no person on the grid", ErrGridIntegrity)
	ErrMultiplePersons = fmt.Errorf("%w: more than one person on the grid", ErrGridIntegrity)
	ErrOpenBorder      = fmt.Errorf("%w: border cell is not a wall", ErrGridIntegrity)

	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidCellKind  = errors.New("invalid cell kind")
	ErrIndexOutOfRange  = errors.New("cell index out of range")
)

// Grid is a row-major board of cell kinds plus an immutable target overlay.
// Index = row*Width + col.
type Grid struct {
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Cells   []CellKind `json:"cells"`
	Targets []int      `json:"targets"`
}

// NewGrid creates a grid after checking dimensions, cell tags and target indices.
// Targets are sorted and de-duplicated. It does not check the play invariants; see Validate.
func NewGrid(width, height int, cells []CellKind, targets []int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", width, height)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("grid expects %d cells for %dx%d, got %d", width*height, width, height, len(cells))
	}

	g := &Grid{
		Width:   width,
		Height:  height,
		Cells:   make([]CellKind, len(cells)),
		Targets: []int{},
	}
	for i, kind := range cells {
		if _, err := ParseCellKind(string(kind)); err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		g.Cells[i] = kind
	}
	for _, t := range targets {
		if !g.InBounds(t) {
			return nil, fmt.Errorf("target %d: %w", t, ErrIndexOutOfRange)
		}
		g.SetTarget(t, true)
	}
	return g, nil
}

// ParseCellKind validates a cell-kind tag
func ParseCellKind(s string) (CellKind, error) {
	switch kind := CellKind(s); kind {
	case Space, Wall, Person, Box:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCellKind, s)
}

// Len returns the number of cells
func (g *Grid) Len() int {
	return len(g.Cells)
}

// InBounds reports whether index addresses a cell of the grid
func (g *Grid) InBounds(index int) bool {
	return index >= 0 && index < len(g.Cells)
}

// Get returns the kind at index. Indices outside the grid read as Wall so that
// every out-of-bounds lookup is blocked.
func (g *Grid) Get(index int) CellKind {
	if !g.InBounds(index) {
		return Wall
	}
	return g.Cells[index]
}

// Set writes kind at index in place
func (g *Grid) Set(index int, kind CellKind) {
	g.Cells[index] = kind
}

// IsTarget reports whether index carries the target overlay
func (g *Grid) IsTarget(index int) bool {
	i := sort.SearchInts(g.Targets, index)
	return i < len(g.Targets) && g.Targets[i] == index
}

// SetTarget adds or removes the target overlay at index, keeping Targets sorted.
// Only level authoring uses it; target membership never changes during play.
func (g *Grid) SetTarget(index int, on bool) {
	i := sort.SearchInts(g.Targets, index)
	present := i < len(g.Targets) && g.Targets[i] == index
	switch {
	case on && !present:
		g.Targets = append(g.Targets, 0)
		copy(g.Targets[i+1:], g.Targets[i:])
		g.Targets[i] = index
	case !on && present:
		g.Targets = append(g.Targets[:i], g.Targets[i+1:]...)
	}
}

// Index converts a row and column to a flat index
func (g *Grid) Index(row, col int) int {
	return row*g.Width + col
}

// RowCol converts a flat index to row and column
func (g *Grid) RowCol(index int) (int, int) {
	return index / g.Width, index % g.Width
}

// IsBorder reports whether index lies on the outer ring of the grid
func (g *Grid) IsBorder(index int) bool {
	row, col := g.RowCol(index)
	return row == 0 || row == g.Height-1 || col == 0 || col == g.Width-1
}

// Count returns the number of cells holding kind
func (g *Grid) Count(kind CellKind) int {
	n := 0
	for _, c := range g.Cells {
		if c == kind {
			n++
		}
	}
	return n
}

// IndexOfPerson returns the single person index. Zero or several persons is an
// integrity violation, never a gameplay outcome.
func (g *Grid) IndexOfPerson() (int, error) {
	found := -1
	count := 0
	for i, c := range g.Cells {
		if c == Person {
			if found < 0 {
				found = i
			}
			count++
		}
	}
	switch {
	case count == 0:
		return -1, ErrNoPerson
	case count > 1:
		return -1, fmt.Errorf("%w (found %d)", ErrMultiplePersons, count)
	}
	return found, nil
}

// Validate checks the play invariants: exactly one person and a closed wall border
func (g *Grid) Validate() error {
	if len(g.Cells) != g.Width*g.Height {
		return fmt.Errorf("grid validation: expected %d cells, got %d", g.Width*g.Height, len(g.Cells))
	}
	if _, err := g.IndexOfPerson(); err != nil {
		return fmt.Errorf("grid validation: %w", err)
	}
	for i, c := range g.Cells {
		if g.IsBorder(i) && c != Wall {
			row, col := g.RowCol(i)
			return fmt.Errorf("grid validation: %w at row %d, col %d (%s)", ErrOpenBorder, row, col, c)
		}
	}
	for _, t := range g.Targets {
		if !g.InBounds(t) {
			return fmt.Errorf("grid validation: target %d: %w", t, ErrIndexOutOfRange)
		}
	}
	return nil
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	c := &Grid{
		Width:   g.Width,
		Height:  g.Height,
		Cells:   make([]CellKind, len(g.Cells)),
		Targets: make([]int, len(g.Targets)),
	}
	copy(c.Cells, g.Cells)
	copy(c.Targets, g.Targets)
	return c
}

// Equal reports whether two grids hold the same cells and targets
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.Width != other.Width || g.Height != other.Height ||
		len(g.Cells) != len(other.Cells) || len(g.Targets) != len(other.Targets) {
		return false
	}
	for i := range g.Cells {
		if g.Cells[i] != other.Cells[i] {
			return false
		}
	}
	for i := range g.Targets {
		if g.Targets[i] != other.Targets[i] {
			return false
		}
	}
	return true
}

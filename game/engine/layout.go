package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Layout symbols, following the common XSB text notation
const (
	SymbolWall           = '#'
	SymbolSpace          = ' '
	SymbolPerson         = '@'
	SymbolPersonOnTarget = '+'
	SymbolBox            = '$'
	SymbolBoxOnTarget    = '*'
	SymbolTarget         = '.'
)

// ParseLayout builds a grid from text rows. Short rows are padded with space,
// '-' and '_' are accepted as space.
func ParseLayout(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("layout is empty")
	}

	width := 0
	for _, row := range rows {
		if n := utf8.RuneCountInString(row); n > width {
			width = n
		}
	}
	if width == 0 {
		return nil, fmt.Errorf("layout has no columns")
	}

	height := len(rows)
	cells := make([]CellKind, width*height)
	var targets []int

	for r, row := range rows {
		c := 0
		for _, ch := range row {
			index := r*width + c
			switch ch {
			case SymbolWall:
				cells[index] = Wall
			case SymbolSpace, '-', '_':
				cells[index] = Space
			case SymbolPerson:
				cells[index] = Person
			case SymbolPersonOnTarget:
				cells[index] = Person
				targets = append(targets, index)
			case SymbolBox:
				cells[index] = Box
			case SymbolBoxOnTarget:
				cells[index] = Box
				targets = append(targets, index)
			case SymbolTarget:
				cells[index] = Space
				targets = append(targets, index)
			default:
				return nil, fmt.Errorf("invalid character '%c' at row %d, col %d", ch, r+1, c+1)
			}
			c++
		}
		for ; c < width; c++ {
			cells[r*width+c] = Space
		}
	}

	return NewGrid(width, height, cells, targets)
}

// FormatLayout renders a grid back into text rows
func FormatLayout(g *Grid) []string {
	if g == nil || g.Width <= 0 {
		return nil
	}
	rows := make([]string, 0, g.Height)
	for r := 0; r < g.Height; r++ {
		var b strings.Builder
		for c := 0; c < g.Width; c++ {
			b.WriteRune(Symbol(g, g.Index(r, c)))
		}
		rows = append(rows, b.String())
	}
	return rows
}

// Symbol returns the layout character for the cell at index, target overlay included
func Symbol(g *Grid, index int) rune {
	target := g.IsTarget(index)
	switch g.Get(index) {
	case Wall:
		return SymbolWall
	case Person:
		if target {
			return SymbolPersonOnTarget
		}
		return SymbolPerson
	case Box:
		if target {
			return SymbolBoxOnTarget
		}
		return SymbolBox
	default:
		if target {
			return SymbolTarget
		}
		return SymbolSpace
	}
}

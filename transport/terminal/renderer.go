package terminal

import (
	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/sokoban/game/engine"
)

// Painter is the slice of tcell.Screen the renderer draws through
type Painter interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Show()
}

var (
	styleDefault      = tcell.StyleDefault
	styleWall         = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePerson       = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleBox          = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleBoxOnTarget  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleTarget       = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleStatus       = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSolvedBanner = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen).Bold(true)
)

// Renderer draws a grid at a fixed origin, one terminal cell per grid cell.
// Status lines go below the board.
type Renderer struct {
	painter Painter
	originX int
	originY int
	height  int
	width   int
}

// NewRenderer creates a renderer that draws the board with its top-left corner at (x, y)
func NewRenderer(p Painter, x, y int) *Renderer {
	return &Renderer{painter: p, originX: x, originY: y}
}

// Draw paints every cell of g
func (r *Renderer) Draw(g *engine.Grid) {
	r.width, r.height = g.Width, g.Height
	for i := 0; i < g.Len(); i++ {
		r.paintCell(g, i)
	}
	r.painter.Show()
}

// Apply repaints only the cells a transition changed. Blocked transitions paint nothing.
func (r *Renderer) Apply(g *engine.Grid, t engine.Transition) {
	changed := t.Changed()
	if len(changed) == 0 {
		return
	}
	for _, i := range changed {
		r.paintCell(g, i)
	}
	r.painter.Show()
}

// Status writes text on the line below the board, padding over the previous text
func (r *Renderer) Status(line int, text string) {
	r.writeLine(r.originY+r.height+1+line, text, styleStatus)
	r.painter.Show()
}

// Banner writes the solved banner under the status lines
func (r *Renderer) Banner(text string) {
	r.writeLine(r.originY+r.height+4, " "+text+" ", styleSolvedBanner)
	r.painter.Show()
}

// ClearBanner removes a banner written by Banner
func (r *Renderer) ClearBanner() {
	r.writeLine(r.originY+r.height+4, "", styleDefault)
	r.painter.Show()
}

// Position returns the screen coordinates of a grid index
func (r *Renderer) Position(g *engine.Grid, index int) (int, int) {
	row, col := g.RowCol(index)
	return r.originX + col, r.originY + row
}

func (r *Renderer) paintCell(g *engine.Grid, index int) {
	x, y := r.Position(g, index)
	r.painter.SetContent(x, y, engine.Symbol(g, index), nil, cellStyle(g, index))
}

const lineWidth = 60

func (r *Renderer) writeLine(y int, text string, style tcell.Style) {
	x := r.originX
	for _, ch := range text {
		r.painter.SetContent(x, y, ch, nil, style)
		x++
	}
	for ; x < r.originX+lineWidth; x++ {
		r.painter.SetContent(x, y, ' ', nil, styleDefault)
	}
}

func cellStyle(g *engine.Grid, index int) tcell.Style {
	switch g.Get(index) {
	case engine.Wall:
		return styleWall
	case engine.Person:
		return stylePerson
	case engine.Box:
		if g.IsTarget(index) {
			return styleBoxOnTarget
		}
		return styleBox
	}
	if g.IsTarget(index) {
		return styleTarget
	}
	return styleDefault
}

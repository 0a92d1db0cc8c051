package builder

import (
	"fmt"

	"github.com/wricardo/sokoban/game/engine"
)

// StartFunc starts a play session for a validated level and returns the hook
// that releases it
type StartFunc func(level *engine.Level) (release func(), err error)

// Maker is the authoring surface: a draft board, the current paint kind and
// the play session started from the draft, if any. A Maker is not safe for
// concurrent use; callers serialize access.
type Maker struct {
	builder *Builder
	grid    *engine.Grid
	kind    engine.CellKind
	release func()
}

// NewMaker creates a maker with a blank board of the smallest allowed size
func NewMaker(b *Builder) *Maker {
	m := &Maker{builder: b, kind: engine.Wall}
	// Min is within bounds by construction
	m.grid, _ = b.CreateBlank(b.bounds.Min, b.bounds.Min)
	return m
}

// SelectSize replaces the draft with a blank rows x cols board
func (m *Maker) SelectSize(rows, cols int) error {
	g, err := m.builder.CreateBlank(rows, cols)
	if err != nil {
		return err
	}
	m.grid = g
	return nil
}

// SelectKind sets the kind painted by subsequent edits
func (m *Maker) SelectKind(kind engine.CellKind) error {
	k, err := engine.ParseCellKind(string(kind))
	if err != nil {
		return err
	}
	m.kind = k
	return nil
}

// Kind returns the current paint kind
func (m *Maker) Kind() engine.CellKind {
	return m.kind
}

// Paint toggles the current paint kind at index
func (m *Maker) Paint(index int) error {
	return ApplyEdit(m.grid, index, m.kind)
}

// ToggleTarget toggles the target overlay at index
func (m *Maker) ToggleTarget(index int) error {
	return ToggleTarget(m.grid, index)
}

// Grid returns the live draft grid
func (m *Maker) Grid() *engine.Grid {
	return m.grid
}

// Validate runs the play-readiness check on the draft
func (m *Maker) Validate() ValidationResult {
	return ValidateForPlay(m.grid)
}

// Level snapshots the draft into a level definition
func (m *Maker) Level(name string) *engine.Level {
	return &engine.Level{
		Name:        name,
		Description: fmt.Sprintf("Level maker draft %dx%d", m.grid.Height, m.grid.Width),
		Grid:        m.grid.Clone(),
	}
}

// Playing reports whether a play session started from the draft is active
func (m *Maker) Playing() bool {
	return m.release != nil
}

// Play releases the previous play session, then validates the draft and, when
// it is OK, starts a new session through start. A failed validation is
// reported through the result and never starts a session.
func (m *Maker) Play(name string, start StartFunc) (ValidationResult, error) {
	m.Close()

	result := m.Validate()
	if result != OK {
		return result, nil
	}

	release, err := start(m.Level(name))
	if err != nil {
		return result, fmt.Errorf("start play session: %w", err)
	}
	if release == nil {
		release = func() {}
	}
	m.release = release
	return result, nil
}

// Close releases the active play session, if any
func (m *Maker) Close() {
	if m.release != nil {
		m.release()
		m.release = nil
	}
}

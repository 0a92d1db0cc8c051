package engine

import (
	"fmt"
	"strings"
	"time"
)

// ParseDirection maps a case-insensitive direction name to a Direction
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down, Left, Right:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Delta returns the index offset of one step in direction d on a grid of the given width
func (d Direction) Delta(width int) (int, error) {
	switch d {
	case Right:
		return 1, nil
	case Left:
		return -1, nil
	case Up:
		return -width, nil
	case Down:
		return width, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, string(d))
}

// Resolve applies one move intent to g in place and reports what happened.
//
// The wall border guarantees that every lookahead lands inside the grid, so no
// row-wrap checks are made here. A blocked transition leaves g untouched.
func Resolve(g *Grid, dir Direction) (Transition, error) {
	personIndex, err := g.IndexOfPerson()
	if err != nil {
		return Transition{}, err
	}
	delta, err := dir.Delta(g.Width)
	if err != nil {
		return Transition{}, err
	}

	aheadIndex := personIndex + delta

	switch g.Get(aheadIndex) {
	case Space:
		g.Set(personIndex, Space)
		g.Set(aheadIndex, Person)
		return Transition{
			Kind:       Step,
			Direction:  dir,
			PersonFrom: personIndex,
			PersonTo:   aheadIndex,
			BoxFrom:    -1,
			BoxTo:      -1,
		}, nil

	case Box:
		beyondIndex := aheadIndex + delta
		// Only an empty cell accepts a pushed box
		if g.Get(beyondIndex) != Space {
			return blockedAt(personIndex, dir), nil
		}
		g.Set(personIndex, Space)
		g.Set(aheadIndex, Person)
		g.Set(beyondIndex, Box)
		return Transition{
			Kind:       Push,
			Direction:  dir,
			PersonFrom: personIndex,
			PersonTo:   aheadIndex,
			BoxFrom:    aheadIndex,
			BoxTo:      beyondIndex,
		}, nil

	default:
		// Wall, or a second person which the single-person check rules out
		return blockedAt(personIndex, dir), nil
	}
}

// IsSolved reports whether every target holds a box. A grid without targets is solved.
func IsSolved(g *Grid) bool {
	for _, t := range g.Targets {
		if g.Get(t) != Box {
			return false
		}
	}
	return true
}

// Changed returns the indices whose kind differs after the transition
func (t Transition) Changed() []int {
	switch t.Kind {
	case Step:
		return []int{t.PersonFrom, t.PersonTo}
	case Push:
		return []int{t.PersonFrom, t.PersonTo, t.BoxTo}
	}
	return nil
}

// Moved reports whether the transition changed the grid
func (t Transition) Moved() bool {
	return t.Kind == Step || t.Kind == Push
}

func blockedAt(personIndex int, dir Direction) Transition {
	return Transition{
		Kind:       Blocked,
		Direction:  dir,
		PersonFrom: personIndex,
		PersonTo:   personIndex,
		BoxFrom:    -1,
		BoxTo:      -1,
	}
}

// sessionSolved reports whether a play session on g is finished. A grid
// without targets is vacuously solved but stays playable.
func sessionSolved(g *Grid) bool {
	return len(g.Targets) > 0 && IsSolved(g)
}

// CanMove reports whether dir would change the grid, without mutating it
func (gs *GameState) CanMove(dir Direction) bool {
	if gs.Solved || gs.Grid == nil {
		return false
	}
	t, err := Resolve(gs.Grid.Clone(), dir)
	return err == nil && t.Moved()
}

// ApplyMove resolves dir against the state's grid and updates counters and messages
func (gs *GameState) ApplyMove(dir Direction) (Transition, error) {
	if gs.Solved {
		personIndex, err := gs.Grid.IndexOfPerson()
		if err != nil {
			return Transition{}, err
		}
		gs.Message = MsgAlreadySolved
		return blockedAt(personIndex, dir), nil
	}

	t, err := Resolve(gs.Grid, dir)
	if err != nil {
		return Transition{}, err
	}

	switch t.Kind {
	case Blocked:
		gs.Message = fmt.Sprintf(MsgBlocked, dir, gs.Grid.Get(t.PersonFrom+mustDelta(dir, gs.Grid.Width)))
	case Step:
		gs.Moves++
		gs.Message = fmt.Sprintf(MsgStep, dir)
	case Push:
		gs.Moves++
		gs.Pushes++
		gs.Message = fmt.Sprintf(MsgPush, dir)
		if gs.Grid.IsTarget(t.BoxTo) {
			gs.Message = fmt.Sprintf(MsgBoxOnTarget, CountBoxesOnTarget(gs.Grid), len(gs.Grid.Targets))
		}
	}

	tt := t
	gs.LastTransition = &tt
	gs.refreshViews()

	if t.Moved() && sessionSolved(gs.Grid) {
		gs.Solved = true
		gs.Message = fmt.Sprintf(MsgSolved, gs.Moves, gs.Pushes)
	}

	return t, nil
}

// AddMoveToHistory adds a move to the session's move history
func (gs *GameState) AddMoveToHistory(t Transition) {
	entry := MoveHistoryEntry{
		Action:     t.Direction,
		Kind:       t.Kind,
		FromIndex:  t.PersonFrom,
		ToIndex:    t.PersonTo,
		Timestamp:  time.Now().Unix(),
		Success:    t.Moved(),
		MoveNumber: gs.TotalMoves + 1,
	}
	if t.Kind == Push {
		entry.BoxTo = t.BoxTo
	}
	// Append to cumulative history (never cleared by reset) and increment total
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	// Append to current segment history and increment its counter
	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}

// Snapshot returns a deep copy of the state. Later moves never touch it.
func (gs *GameState) Snapshot() *GameState {
	c := *gs
	if gs.Grid != nil {
		c.Grid = gs.Grid.Clone()
	}
	if gs.LastTransition != nil {
		t := *gs.LastTransition
		c.LastTransition = &t
	}
	c.MoveHistory = append(make([]MoveHistoryEntry, 0, len(gs.MoveHistory)), gs.MoveHistory...)
	c.CurrentMoves = append(make([]MoveHistoryEntry, 0, len(gs.CurrentMoves)), gs.CurrentMoves...)
	c.Board = append([]string(nil), gs.Board...)
	return &c
}

func (gs *GameState) refreshViews() {
	gs.Board = FormatLayout(gs.Grid)
	gs.BoxesOnTarget = CountBoxesOnTarget(gs.Grid)
	gs.TotalTargets = len(gs.Grid.Targets)
}

func mustDelta(dir Direction, width int) int {
	d, _ := dir.Delta(width)
	return d
}

package engine

import "fmt"

// Engine provides the main interface for play-session operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsSolved() bool
	GetGrid() *Grid

	// Movement operations
	Move(dir Direction) (Transition, error)
	CanMove(dir Direction) bool
	GetPossibleMoves() []Direction

	// Level
	GetLevel() *Level

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state   *GameState
	level   *Level
	initial *Grid
}

// NewEngine creates a play session engine for a validated level
func NewEngine(level *Level) (*GameEngine, error) {
	if err := ValidateLevel(level); err != nil {
		return nil, err
	}

	grid, err := level.BuildGrid()
	if err != nil {
		return nil, err
	}

	engine := &GameEngine{
		level:   level,
		initial: grid,
	}
	engine.state = InitGameState(level.Name, grid.Clone())
	return engine, nil
}

// NewEngineWithDefaults creates a new engine playing the built-in default level
func NewEngineWithDefaults() *GameEngine {
	engine, err := NewEngine(DefaultLevel())
	if err != nil {
		panic(fmt.Sprintf("default level is invalid: %v", err))
	}
	return engine
}

// GetState returns the live game state. Callers that hand it to another
// goroutine take a Snapshot first.
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Grid == nil {
		return fmt.Errorf("state grid cannot be nil")
	}
	// Rebuilding keeps the target overlay sorted for IsTarget
	grid, err := NewGrid(state.Grid.Width, state.Grid.Height, state.Grid.Cells, state.Grid.Targets)
	if err != nil {
		return err
	}
	if err := grid.Validate(); err != nil {
		return err
	}
	if grid.Width != e.initial.Width || grid.Height != e.initial.Height {
		return fmt.Errorf("state grid is %dx%d, level %q is %dx%d",
			grid.Width, grid.Height, e.level.Name, e.initial.Width, e.initial.Height)
	}
	if !sameTargets(grid.Targets, e.initial.Targets) {
		return fmt.Errorf("state targets %v do not match level %q targets %v", grid.Targets, e.level.Name, e.initial.Targets)
	}
	state.Grid = grid
	state.refreshViews()
	e.state = state
	return nil
}

func sameTargets(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Reset restores the initial grid of the level
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = InitGameState(e.level.Name, e.initial.Clone())

	// Restore cumulative history and totals; clear only the current segment
	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0

	return e.state
}

// IsSolved returns whether every target holds a box
func (e *GameEngine) IsSolved() bool {
	return e.state.Solved
}

// GetGrid returns the live grid
func (e *GameEngine) GetGrid() *Grid {
	return e.state.Grid
}

// Move resolves one direction intent and records it in the history.
// Integrity errors are returned without touching the history.
func (e *GameEngine) Move(dir Direction) (Transition, error) {
	t, err := e.state.ApplyMove(dir)
	if err != nil {
		return Transition{}, err
	}

	e.state.AddMoveToHistory(t)
	return t, nil
}

// CanMove checks whether dir would step or push
func (e *GameEngine) CanMove(dir Direction) bool {
	return e.state.CanMove(dir)
}

// GetPossibleMoves returns all directions that would change the grid
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range Directions {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// GetLevel returns the level this engine plays
func (e *GameEngine) GetLevel() *Level {
	return e.level
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// BulkMove executes moves in order and returns the transition of each executed move.
// It stops early once the level is solved or on an integrity error.
func (e *GameEngine) BulkMove(moves []Direction) ([]Transition, error) {
	results := make([]Transition, 0, len(moves))

	for _, dir := range moves {
		if e.IsSolved() {
			break
		}

		t, err := e.Move(dir)
		if err != nil {
			return results, err
		}
		results = append(results, t)
	}

	return results, nil
}

package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Player-facing messages
const (
	MsgWelcome       = "Push every box onto a target."
	MsgStep          = "Moved %s"
	MsgPush          = "Pushed a box %s"
	MsgBoxOnTarget   = "Box on target! %d/%d targets covered"
	MsgBlocked       = "Can't move %s: %s ahead"
	MsgSolved        = "Solved in %d moves and %d pushes!"
	MsgAlreadySolved = "Level already solved. Reset to play again."
)

// ValidateLevel validates a level definition for correctness and playability
func ValidateLevel(level *Level) error {
	if level == nil {
		return fmt.Errorf("level validation: level is required")
	}
	if level.Name == "" {
		return fmt.Errorf("level validation: name is required")
	}
	if len(level.Layout) == 0 && level.Grid == nil {
		return fmt.Errorf("level validation: layout or grid is required")
	}

	grid, err := level.BuildGrid()
	if err != nil {
		return fmt.Errorf("level validation: %w", err)
	}

	if grid.Width < MinGridSize || grid.Width > MaxGridSize ||
		grid.Height < MinGridSize || grid.Height > MaxGridSize {
		return fmt.Errorf("level validation: grid must be between %d and %d cells on each side, got %dx%d",
			MinGridSize, MaxGridSize, grid.Width, grid.Height)
	}

	if err := grid.Validate(); err != nil {
		return fmt.Errorf("level validation: %w", err)
	}

	for _, t := range grid.Targets {
		if grid.Get(t) == Wall {
			row, col := grid.RowCol(t)
			return fmt.Errorf("level validation: target at row %d, col %d is inside a wall", row, col)
		}
	}

	return nil
}

// BuildGrid derives a fresh grid from the level. An explicit grid wins over the layout.
func (l *Level) BuildGrid() (*Grid, error) {
	if l.Grid != nil {
		return NewGrid(l.Grid.Width, l.Grid.Height, l.Grid.Cells, l.Grid.Targets)
	}
	return ParseLayout(l.Layout)
}

// LevelFromGrid snapshots a grid into a level definition
func LevelFromGrid(name, description string, g *Grid) *Level {
	return &Level{
		Name:        name,
		Description: description,
		Layout:      FormatLayout(g),
	}
}

// LoadLevelFile loads and validates a level from a JSON file
func LoadLevelFile(filename string) (*Level, error) {
	// Support LEVEL_DIR environment variable for alternative level directory
	levelPath := filename
	if levelDir := os.Getenv("LEVEL_DIR"); levelDir != "" {
		if strings.HasPrefix(filename, "levels/") {
			levelPath = filepath.Join(levelDir, strings.TrimPrefix(filename, "levels/"))
		}
	}

	data, err := os.ReadFile(levelPath)
	if err != nil {
		return nil, err
	}

	var level Level
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("failed to parse level file '%s': %w", filename, err)
	}

	if err := ValidateLevel(&level); err != nil {
		return nil, err
	}

	return &level, nil
}

// DefaultLevel returns the built-in level used when no level catalogue is available
func DefaultLevel() *Level {
	return &Level{
		Name:        "default",
		Description: "Built-in warm-up: two boxes, two targets",
		Layout: []string{
			"########",
			"#      #",
			"# @$ . #",
			"#  $ . #",
			"#      #",
			"########",
		},
	}
}

// InitGameState creates a fresh game state around grid
func InitGameState(levelName string, grid *Grid) *GameState {
	state := &GameState{
		Grid:              grid,
		Message:           MsgWelcome,
		LevelName:         levelName,
		MoveHistory:       []MoveHistoryEntry{},
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}
	state.refreshViews()
	state.Solved = sessionSolved(grid)
	return state
}

package service

import (
	"time"

	"github.com/wricardo/sokoban/game/builder"
	"github.com/wricardo/sokoban/game/engine"
)

// Event types published to observers
const (
	EventStep        = "step"
	EventPush        = "push"
	EventBlocked     = "blocked"
	EventBoxOnTarget = "box_on_target"
	EventSolved      = "solved"
	EventReset       = "reset"
)

// Stop reason codes for bulk moves
const (
	StopBlocked       = "blocked"
	StopSolved        = "solved"
	StopAlreadySolved = "already_solved"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	LevelID        string            `json:"level_id"`
	DraftID        string            `json:"draft_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
	Level          *engine.Level     `json:"level"`
}

// MoveResult contains the result of a move operation. A blocked move is a
// successful call with Success false and Transition.Kind "blocked".
type MoveResult struct {
	Success    bool              `json:"success"`
	Transition engine.Transition `json:"transition"`
	GameState  *engine.GameState `json:"game_state"`
	Message    string            `json:"message"`
	Events     []GameEvent       `json:"events,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	MovesExecuted  int                 `json:"moves_executed"`
	RequestedMoves int                 `json:"requested_moves"`
	Success        bool                `json:"success"`
	GameState      *engine.GameState   `json:"game_state"`
	Transitions    []engine.Transition `json:"transitions"`
	Events         []GameEvent         `json:"events"`
	StoppedReason  string              `json:"stopped_reason,omitempty"`
	StopReasonCode string              `json:"stop_reason_code,omitempty"` // blocked|solved|already_solved
	StoppedOnMove  int                 `json:"stopped_on_move,omitempty"`  // 1-based
	Truncated      bool                `json:"truncated,omitempty"`
	Limit          int                 `json:"limit,omitempty"`

	Solved        bool               `json:"solved"`
	Message       string             `json:"message,omitempty"`
	PossibleMoves []engine.Direction `json:"possible_moves,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type       string             `json:"type"`
	Message    string             `json:"message"`
	Timestamp  time.Time          `json:"timestamp"`
	Transition *engine.Transition `json:"transition,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// LevelInfo provides information about a catalogue level
type LevelInfo struct {
	Filename    string `json:"filename"`
	LevelID     string `json:"level_id"` // The identifier to use for session creation
	Name        string `json:"name"`     // Display name
	Description string `json:"description"`
	Format      string `json:"format"` // json or hcl
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Boxes       int    `json:"boxes"`
	Targets     int    `json:"targets"`
}

// DraftInfo describes a level maker draft
type DraftInfo struct {
	ID         string                   `json:"id"`
	Rows       int                      `json:"rows"`
	Cols       int                      `json:"cols"`
	Grid       *engine.Grid             `json:"grid"`
	Board      []string                 `json:"board"`
	PaintKind  engine.CellKind          `json:"paint_kind"`
	Validation builder.ValidationResult `json:"validation"`
	Message    string                   `json:"message,omitempty"`
	SessionID  string                   `json:"session_id,omitempty"`
	Bounds     builder.Bounds           `json:"bounds"`
	CreatedAt  time.Time                `json:"created_at"`
}

// PlayDraftResult is the outcome of starting a play session from a draft
type PlayDraftResult struct {
	DraftID    string                   `json:"draft_id"`
	Validation builder.ValidationResult `json:"validation"`
	Message    string                   `json:"message,omitempty"`
	Session    *SessionInfo             `json:"session,omitempty"`
}

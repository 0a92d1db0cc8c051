package service

import (
	"context"
	"time"

	"github.com/wricardo/sokoban/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, levelID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelID string) (*engine.Level, error)
	SaveLevel(ctx context.Context, levelID string, level *engine.Level) error

	// Level maker
	CreateDraft(ctx context.Context, rows, cols int) (*DraftInfo, error)
	GetDraft(ctx context.Context, draftID string) (*DraftInfo, error)
	EditDraft(ctx context.Context, draftID string, index int, kind string) (*DraftInfo, error)
	ToggleDraftTarget(ctx context.Context, draftID string, index int) (*DraftInfo, error)
	PlayDraft(ctx context.Context, draftID string) (*PlayDraftResult, error)
	DeleteDraft(ctx context.Context, draftID string) error
}

// Publisher receives every play state change while the service still holds
// its lock, so a rendering feed sees changes in the order they were applied.
// States are snapshots. Implementations must not block or call back into the service.
type Publisher interface {
	PublishSnapshot(sessionID string, state *engine.GameState)
	PublishTransition(sessionID string, t engine.Transition, state *engine.GameState)
	PublishSolved(sessionID string, state *engine.GameState)
	PublishReset(sessionID string, state *engine.GameState)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, levelID string, level *engine.Level) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, levelID string, level *engine.Level) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// LevelManager handles level catalogue loading
type LevelManager interface {
	LoadLevel(name string) (*engine.Level, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() *engine.Level
	SaveLevel(name string, level *engine.Level) error
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Level          *engine.Level
	LevelID        string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/sokoban/game/builder"
	"github.com/wricardo/sokoban/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrLevelNotFound   = errors.New("level not found")
	ErrDraftNotFound   = errors.New("draft not found")
	ErrInvalidMove     = errors.New("invalid move")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	builder  *builder.Builder
	drafts   map[string]*draft
	mu       sync.Mutex

	publisher Publisher
}

// Option configures a game service
type Option func(*gameServiceImpl)

// WithPublisher sends state changes to p
func WithPublisher(p Publisher) Option {
	return func(s *gameServiceImpl) {
		s.publisher = p
	}
}

// NewGameService creates a new game service instance. Bounds configure the
// level maker board sizes; invalid bounds fall back to builder.DefaultBounds.
func NewGameService(sessions SessionManager, levels LevelManager, bounds builder.Bounds, opts ...Option) GameService {
	b, err := builder.New(bounds)
	if err != nil {
		log.WithError(err).Warn("invalid level maker bounds, using defaults")
		b, _ = builder.New(builder.DefaultBounds)
	}
	s := &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		builder:  b,
		drafts:   make(map[string]*draft),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, levelID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var level *engine.Level
	var err error
	if levelID != "" {
		level, err = s.levels.LoadLevel(levelID)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrLevelNotFound) {
				available, listErr := s.levels.ListLevels()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, l := range available {
						ids = append(ids, l.LevelID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available levels: %v", ErrLevelNotFound, levelID, ids)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/levels to list available levels", ErrLevelNotFound, levelID)
			}
			return nil, fmt.Errorf("failed to load level %s: %w", levelID, err)
		}
	} else {
		level = s.levels.GetDefault()
		levelID = s.levelID(level.Name)
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", levelID, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.WithFields(log.Fields{"session": sess.ID, "level": levelID}).Info("session created")
	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions ordered by creation time
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	for _, d := range s.drafts {
		if strings.EqualFold(d.sessionID, sessionID) {
			d.sessionID = ""
			d.maker.Close()
		}
	}
	return nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if reset {
		restored := sess.Engine.Reset()
		events = append(events, resetEvent())
		s.publish(func(p Publisher) { p.PublishReset(sess.ID, restored.Snapshot()) })
	}

	wasSolved := sess.Engine.IsSolved()
	t, err := sess.Engine.Move(dir)
	if err != nil {
		log.WithFields(log.Fields{"session": sess.ID, "direction": dir}).WithError(err).Error("grid integrity violation")
		return nil, fmt.Errorf("session %s: %w", sess.ID, err)
	}
	state := sess.Engine.GetState().Snapshot()

	result := &MoveResult{
		Success:    t.Moved(),
		Transition: t,
		GameState:  state,
		Message:    state.Message,
		Events:     append(events, transitionEvents(t, state, wasSolved)...),
	}

	s.publish(func(p Publisher) {
		p.PublishTransition(sess.ID, t, state)
		if hasEvent(result.Events, EventSolved) {
			p.PublishSolved(sess.ID, state)
		}
	})
	s.save(sess.ID, "move")
	return result, nil
}

// BulkMove executes multiple moves in sequence, stopping at the first
// blocked move or once the level is solved
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Parse everything up front so a typo never leaves a half-applied sequence
	dirs := make([]engine.Direction, 0, len(moves))
	for i, m := range moves {
		dir, err := engine.ParseDirection(m)
		if err != nil {
			return nil, fmt.Errorf("%w: move %d: %v", ErrInvalidMove, i+1, err)
		}
		dirs = append(dirs, dir)
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Transitions:    make([]engine.Transition, 0, len(dirs)),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}

	// Limit moves to prevent abuse
	if len(dirs) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		dirs = dirs[:engine.MaxBulkMoves]
	}

	for i, dir := range dirs {
		if sess.Engine.IsSolved() {
			result.StopReasonCode = StopAlreadySolved
			if result.MovesExecuted > 0 {
				result.StopReasonCode = StopSolved
			}
			result.StoppedReason = "level solved"
			result.StoppedOnMove = i + 1
			break
		}

		t, err := sess.Engine.Move(dir)
		if err != nil {
			log.WithFields(log.Fields{"session": sess.ID, "move": i + 1}).WithError(err).Error("grid integrity violation")
			return nil, fmt.Errorf("session %s: %w", sess.ID, err)
		}
		result.Transitions = append(result.Transitions, t)
		result.Events = append(result.Events, transitionEvents(t, sess.Engine.GetState(), false)...)

		if !t.Moved() {
			result.Success = false
			result.StopReasonCode = StopBlocked
			result.StoppedReason = fmt.Sprintf("move %d blocked: %s", i+1, dir)
			result.StoppedOnMove = i + 1
			break
		}
		result.MovesExecuted++
	}

	state := sess.Engine.GetState().Snapshot()
	result.GameState = state
	result.Solved = state.Solved
	result.Message = state.Message
	result.PossibleMoves = sess.Engine.GetPossibleMoves()
	if result.Solved && result.StopReasonCode == "" {
		result.StopReasonCode = StopSolved
	}

	// Intermediate grids are gone, so renderers get the final board whole
	s.publish(func(p Publisher) {
		p.PublishSnapshot(sess.ID, state)
		if hasEvent(result.Events, EventSolved) {
			p.PublishSolved(sess.ID, state)
		}
	})

	s.save(sess.ID, "bulk moves")
	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.Reset().Snapshot()
	s.publish(func(p Publisher) { p.PublishReset(sess.ID, state) })
	s.save(sess.ID, "reset")
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState().Snapshot(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append([]engine.MoveHistoryEntry(nil), history[start:end]...)
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListLevels returns the level catalogue
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel loads a specific catalogue level
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelID string) (*engine.Level, error) {
	return s.levels.LoadLevel(levelID)
}

// SaveLevel saves a level into the catalogue
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelID string, level *engine.Level) error {
	return s.levels.SaveLevel(levelID, level)
}

// getSession looks up a session and touches its access time. Callers hold s.mu.
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		LevelID:        sess.LevelID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState().Snapshot(),
		Level:          sess.Level,
	}
	if id, ok := strings.CutPrefix(sess.LevelID, draftLevelPrefix); ok {
		info.DraftID = id
	}
	return info
}

// levelID returns the catalogue identifier for a level display name
func (s *gameServiceImpl) levelID(name string) string {
	available, err := s.levels.ListLevels()
	if err == nil {
		for _, l := range available {
			if l.Name == name {
				return l.LevelID
			}
		}
	}
	if name == "" {
		return "default"
	}
	return name
}

// publish runs fn against the publisher, if any. Callers hold s.mu.
func (s *gameServiceImpl) publish(fn func(Publisher)) {
	if s.publisher != nil {
		fn(s.publisher)
	}
}

func hasEvent(events []GameEvent, eventType string) bool {
	for _, e := range events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

func (s *gameServiceImpl) save(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Warnf("Failed to persist session %s after %s: %v", sessionID, after, err)
	}
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      EventReset,
		Message:   "Game reset to initial state",
		Timestamp: time.Now(),
	}
}

// transitionEvents generates the events observers need to render t
func transitionEvents(t engine.Transition, state *engine.GameState, wasSolved bool) []GameEvent {
	now := time.Now()
	tt := t

	var events []GameEvent
	switch t.Kind {
	case engine.Step:
		events = append(events, GameEvent{
			Type:       EventStep,
			Message:    fmt.Sprintf(engine.MsgStep, t.Direction),
			Timestamp:  now,
			Transition: &tt,
		})
	case engine.Push:
		events = append(events, GameEvent{
			Type:       EventPush,
			Message:    fmt.Sprintf(engine.MsgPush, t.Direction),
			Timestamp:  now,
			Transition: &tt,
		})
		if state.Grid.IsTarget(t.BoxTo) {
			events = append(events, GameEvent{
				Type:      EventBoxOnTarget,
				Message:   fmt.Sprintf(engine.MsgBoxOnTarget, state.BoxesOnTarget, state.TotalTargets),
				Timestamp: now,
			})
		}
	default:
		events = append(events, GameEvent{
			Type:       EventBlocked,
			Message:    state.Message,
			Timestamp:  now,
			Transition: &tt,
		})
	}

	if state.Solved && !wasSolved && t.Moved() {
		events = append(events, GameEvent{
			Type:      EventSolved,
			Message:   state.Message,
			Timestamp: now,
		})
	}
	return events
}

package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/sokoban/game/builder"
	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	created  int
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, levelID string, level *engine.Level) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", m.created+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(level)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Level:          level,
		LevelID:        levelID,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	m.created++
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id, levelID string, level *engine.Level) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, levelID, level)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saves++
	return nil
}

// MockLevelManager implements service.LevelManager for testing
type MockLevelManager struct {
	levels map[string]*engine.Level
}

func testLevel() *engine.Level {
	return &engine.Level{
		Name:        "test",
		Description: "Test level",
		Layout: []string{
			"#######",
			"#     #",
			"# @$ .#",
			"#     #",
			"#######",
		},
	}
}

func NewMockLevelManager() *MockLevelManager {
	return &MockLevelManager{
		levels: map[string]*engine.Level{"test": testLevel()},
	}
}

func (m *MockLevelManager) LoadLevel(name string) (*engine.Level, error) {
	level, exists := m.levels[name]
	if !exists {
		return nil, service.ErrLevelNotFound
	}
	return level, nil
}

func (m *MockLevelManager) ListLevels() ([]*service.LevelInfo, error) {
	var levels []*service.LevelInfo
	for id, level := range m.levels {
		levels = append(levels, &service.LevelInfo{
			Filename: id + ".json",
			LevelID:  id,
			Name:     level.Name,
			Format:   "json",
		})
	}
	return levels, nil
}

func (m *MockLevelManager) GetDefault() *engine.Level {
	return m.levels["test"]
}

func (m *MockLevelManager) SaveLevel(name string, level *engine.Level) error {
	if err := engine.ValidateLevel(level); err != nil {
		return err
	}
	m.levels[name] = level
	return nil
}

func newTestService() (service.GameService, *MockSessionManager) {
	sessions := NewMockSessionManager()
	return service.NewGameService(sessions, NewMockLevelManager(), builder.DefaultBounds), sessions
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	tests := []struct {
		name    string
		levelID string
		wantID  string
		wantErr bool
	}{
		{name: "create with default level", levelID: "", wantID: "test"},
		{name: "create with specific level", levelID: "test", wantID: "test"},
		{name: "create with unknown level", levelID: "nonexistent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.CreateSession(ctx, tt.levelID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, service.ErrLevelNotFound) {
					t.Errorf("Expected ErrLevelNotFound, got %v", err)
				}
				if !strings.Contains(err.Error(), "Available levels") {
					t.Errorf("Expected available levels in error, got %v", err)
				}
				return
			}
			if session.LevelID != tt.wantID {
				t.Errorf("LevelID = %q, want %q", session.LevelID, tt.wantID)
			}
			if session.GameState == nil || session.GameState.Solved {
				t.Error("Expected fresh unsolved game state")
			}
		})
	}
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService()

	info, err := svc.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		direction string
		reset     bool
		wantKind  engine.TransitionKind
		wantErr   error
	}{
		{name: "step up", sessionID: info.ID, direction: "up", wantKind: engine.Step},
		{name: "reset then push right", sessionID: info.ID, direction: "right", reset: true, wantKind: engine.Push},
		{name: "unknown session", sessionID: "nonexistent", direction: "up", wantErr: service.ErrSessionNotFound},
		{name: "invalid direction", sessionID: info.ID, direction: "diagonal", wantErr: service.ErrInvalidMove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Move(ctx, tt.sessionID, tt.direction, tt.reset)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Move() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Move() error = %v", err)
			}
			if result.Transition.Kind != tt.wantKind {
				t.Errorf("Transition kind = %s, want %s", result.Transition.Kind, tt.wantKind)
			}
			if tt.reset && result.Events[0].Type != service.EventReset {
				t.Errorf("Expected reset event first, got %+v", result.Events)
			}
		})
	}

	if sessions.saves == 0 {
		t.Error("Expected moves to auto-save the session")
	}
}

func TestGameService_MoveBlockedIsNotAnError(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	info, _ := svc.CreateSession(ctx, "test")

	svc.Move(ctx, info.ID, "up", false)
	res, err := svc.Move(ctx, info.ID, "up", false)
	if err != nil {
		t.Fatalf("Blocked move returned error: %v", err)
	}
	if res.Success || res.Transition.Kind != engine.Blocked {
		t.Errorf("Expected blocked result, got %+v", res.Transition)
	}
	if len(res.Events) != 1 || res.Events[0].Type != service.EventBlocked {
		t.Errorf("Expected a single blocked event, got %+v", res.Events)
	}
}

func TestGameService_MoveSolves(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	info, _ := svc.CreateSession(ctx, "test")

	svc.Move(ctx, info.ID, "right", false)
	res, err := svc.Move(ctx, info.ID, "right", false)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if !res.GameState.Solved {
		t.Fatal("Expected level to be solved")
	}

	var types []string
	for _, ev := range res.Events {
		types = append(types, ev.Type)
	}
	want := []string{service.EventPush, service.EventBoxOnTarget, service.EventSolved}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Errorf("Events = %v, want %v", types, want)
	}

	// Further moves are blocked no-ops without a second solved event
	res, err = svc.Move(ctx, info.ID, "left", false)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if res.Success || res.Message != engine.MsgAlreadySolved {
		t.Errorf("Expected already solved, got success=%v message=%q", res.Success, res.Message)
	}
	for _, ev := range res.Events {
		if ev.Type == service.EventSolved {
			t.Error("Solved event repeated after the level was already solved")
		}
	}
}

func TestGameService_MoveIntegrityError(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService()
	info, _ := svc.CreateSession(ctx, "test")

	// Corrupt the live grid behind the service's back
	sessions.sessions[info.ID].Engine.GetGrid().Set(8, engine.Person)

	_, err := svc.Move(ctx, info.ID, "up", false)
	if !errors.Is(err, engine.ErrGridIntegrity) {
		t.Errorf("Expected ErrGridIntegrity, got %v", err)
	}
}

func TestGameService_BulkMove(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	info, err := svc.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	tests := []struct {
		name         string
		sessionID    string
		moves        []string
		reset        bool
		wantExecuted int
		wantCode     string
		wantErr      bool
	}{
		{name: "all moves execute", sessionID: info.ID, moves: []string{"up", "down", "left", "right"}, wantExecuted: 4},
		{name: "stops at blocked move", sessionID: info.ID, moves: []string{"up", "up", "left"}, reset: true, wantExecuted: 1, wantCode: service.StopBlocked},
		{name: "stops once solved", sessionID: info.ID, moves: []string{"right", "right", "left", "left"}, reset: true, wantExecuted: 2, wantCode: service.StopSolved},
		{name: "already solved", sessionID: info.ID, moves: []string{"left"}, wantExecuted: 0, wantCode: service.StopAlreadySolved},
		{name: "empty moves", sessionID: info.ID, moves: []string{}, reset: true},
		{name: "invalid direction rejects sequence", sessionID: info.ID, moves: []string{"up", "sideways"}, wantErr: true},
		{name: "unknown session", sessionID: "nonexistent", moves: []string{"up"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.BulkMove(ctx, tt.sessionID, tt.moves, tt.reset)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BulkMove() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if result.RequestedMoves != len(tt.moves) {
				t.Errorf("RequestedMoves = %d, want %d", result.RequestedMoves, len(tt.moves))
			}
			if result.MovesExecuted != tt.wantExecuted {
				t.Errorf("MovesExecuted = %d, want %d", result.MovesExecuted, tt.wantExecuted)
			}
			if result.StopReasonCode != tt.wantCode {
				t.Errorf("StopReasonCode = %q, want %q", result.StopReasonCode, tt.wantCode)
			}
		})
	}

	// The rejected sequence never touched the grid
	state, _ := svc.GetGameState(ctx, info.ID)
	if state.CurrentMovesCount != 0 {
		t.Errorf("Expected no moves after rejected sequence, got %d", state.CurrentMovesCount)
	}
}

func TestGameService_BulkMoveTruncates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	info, _ := svc.CreateSession(ctx, "test")

	moves := make([]string, 0, engine.MaxBulkMoves+10)
	for len(moves) < engine.MaxBulkMoves+10 {
		moves = append(moves, "up", "down")
	}

	result, err := svc.BulkMove(ctx, info.ID, moves, false)
	if err != nil {
		t.Fatalf("BulkMove() error = %v", err)
	}
	if !result.Truncated || result.Limit != engine.MaxBulkMoves {
		t.Errorf("Expected truncation at %d, got truncated=%v limit=%d", engine.MaxBulkMoves, result.Truncated, result.Limit)
	}
	if result.MovesExecuted != engine.MaxBulkMoves {
		t.Errorf("MovesExecuted = %d, want %d", result.MovesExecuted, engine.MaxBulkMoves)
	}
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	info, err := svc.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	// Make some moves to generate history
	if _, err := svc.BulkMove(ctx, info.ID, []string{"up", "left", "down", "down"}, false); err != nil {
		t.Fatalf("Failed to make moves: %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		opts      service.HistoryOptions
		wantLen   int
		wantFirst int
		wantErr   bool
	}{
		{name: "default options", sessionID: info.ID, opts: service.HistoryOptions{}, wantLen: 4, wantFirst: 4},
		{name: "ascending page 2", sessionID: info.ID, opts: service.HistoryOptions{Page: 2, Limit: 3, Order: "asc"}, wantLen: 1, wantFirst: 4},
		{name: "descending page 1", sessionID: info.ID, opts: service.HistoryOptions{Page: 1, Limit: 2, Order: "desc"}, wantLen: 2, wantFirst: 4},
		{name: "page past the end", sessionID: info.ID, opts: service.HistoryOptions{Page: 5, Limit: 2, Order: "asc"}, wantLen: 0},
		{name: "unknown session", sessionID: "nonexistent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.GetMoveHistory(ctx, tt.sessionID, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetMoveHistory() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if result.Moves == nil {
				t.Fatal("GetMoveHistory() returned nil moves slice")
			}
			if len(result.Moves) != tt.wantLen {
				t.Fatalf("len(Moves) = %d, want %d", len(result.Moves), tt.wantLen)
			}
			if tt.wantLen > 0 && result.Moves[0].MoveNumber != tt.wantFirst {
				t.Errorf("first MoveNumber = %d, want %d", result.Moves[0].MoveNumber, tt.wantFirst)
			}
			if result.TotalMoves != 4 {
				t.Errorf("TotalMoves = %d, want 4", result.TotalMoves)
			}
		})
	}
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	var ids []string
	for i := 0; i < 3; i++ {
		info, err := svc.CreateSession(ctx, "test")
		if err != nil {
			t.Fatalf("Failed to create session %d: %v", i, err)
		}
		ids = append(ids, info.ID)
	}

	sessionList, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessionList) != 3 {
		t.Errorf("ListSessions() returned %d sessions, want 3", len(sessionList))
	}

	if err := svc.DeleteSession(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if err := svc.DeleteSession(ctx, ids[0]); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
	if _, err := svc.GetSession(ctx, ids[0]); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestGameService_Reset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	info, err := svc.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	initial := info.GameState.Grid.Clone()

	if _, err := svc.Move(ctx, info.ID, "right", false); err != nil {
		t.Fatalf("Failed to move: %v", err)
	}

	state, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !state.Grid.Equal(initial) {
		t.Errorf("Expected initial grid after reset, got %v", state.Board)
	}
	if state.TotalMoves != 1 {
		t.Errorf("Expected cumulative history to survive reset, got %d", state.TotalMoves)
	}
}

func TestGameService_Levels(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	level := &engine.Level{Name: "saved", Layout: []string{"#####", "#@$.#", "#####"}}
	if err := svc.SaveLevel(ctx, "saved", level); err != nil {
		t.Fatalf("SaveLevel() error = %v", err)
	}

	levels, err := svc.ListLevels(ctx)
	if err != nil {
		t.Fatalf("ListLevels() error = %v", err)
	}
	if len(levels) != 2 {
		t.Errorf("Expected 2 levels, got %d", len(levels))
	}

	loaded, err := svc.LoadLevel(ctx, "saved")
	if err != nil || loaded.Name != "saved" {
		t.Errorf("LoadLevel() = %v, %v", loaded, err)
	}

	info, err := svc.CreateSession(ctx, "saved")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if info.LevelID != "saved" {
		t.Errorf("LevelID = %q, want saved", info.LevelID)
	}
}

// recordingPublisher keeps the order of published state changes
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) record(kind string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, kind)
}

func (p *recordingPublisher) PublishSnapshot(string, *engine.GameState) { p.record("snapshot") }
func (p *recordingPublisher) PublishTransition(string, engine.Transition, *engine.GameState) {
	p.record("transition")
}
func (p *recordingPublisher) PublishSolved(string, *engine.GameState) { p.record("solved") }
func (p *recordingPublisher) PublishReset(string, *engine.GameState)  { p.record("reset") }

func TestGameService_PublishesInApplyOrder(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := service.NewGameService(NewMockSessionManager(), NewMockLevelManager(), builder.DefaultBounds,
		service.WithPublisher(pub))
	info, _ := svc.CreateSession(ctx, "test")

	svc.Move(ctx, info.ID, "up", false)
	svc.Move(ctx, info.ID, "right", true)
	svc.Move(ctx, info.ID, "right", false)
	svc.Reset(ctx, info.ID)
	svc.BulkMove(ctx, info.ID, []string{"right", "right"}, false)
	svc.Move(ctx, "nonexistent", "up", false)

	want := []string{"transition", "reset", "transition", "transition", "solved", "reset", "snapshot", "solved"}
	if strings.Join(pub.events, ",") != strings.Join(want, ",") {
		t.Errorf("Published %v, want %v", pub.events, want)
	}
}

func TestGameService_ReturnedStateIsDetached(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	info, _ := svc.CreateSession(ctx, "test")

	first, err := svc.Move(ctx, info.ID, "right", false)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	board := strings.Join(first.GameState.Board, "\n")

	if _, err := svc.Move(ctx, info.ID, "right", false); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if got := strings.Join(first.GameState.Board, "\n"); got != board {
		t.Errorf("Earlier result board changed:\n%s\nwant:\n%s", got, board)
	}
	if first.GameState.Moves != 1 || first.GameState.Solved {
		t.Errorf("Earlier result changed: moves=%d solved=%v", first.GameState.Moves, first.GameState.Solved)
	}
	if first.GameState.Grid.Get(17) != engine.Person {
		t.Error("Earlier result grid followed the next move")
	}

	state, _ := svc.GetGameState(ctx, info.ID)
	state.Grid.Set(18, engine.Space)
	if again, _ := svc.GetGameState(ctx, info.ID); again.Grid.Get(18) == engine.Space {
		t.Error("Editing a returned state reached the session")
	}
}

func TestGameService_LevelWithoutTargets(t *testing.T) {
	ctx := context.Background()
	levels := NewMockLevelManager()
	levels.levels["walkway"] = &engine.Level{Name: "walkway", Layout: []string{"#####", "#@  #", "#####"}}
	svc := service.NewGameService(NewMockSessionManager(), levels, builder.DefaultBounds)

	info, err := svc.CreateSession(ctx, "walkway")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if info.GameState.Solved {
		t.Fatal("Expected a level without targets to start unsolved")
	}

	tests := []struct {
		direction string
		success   bool
		event     string
	}{
		{"right", true, service.EventStep},
		{"right", true, service.EventStep},
		{"right", false, service.EventBlocked},
		{"left", true, service.EventStep},
	}
	for i, tt := range tests {
		res, err := svc.Move(ctx, info.ID, tt.direction, false)
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
		if res.Success != tt.success || res.GameState.Solved {
			t.Errorf("move %d: success=%v solved=%v", i, res.Success, res.GameState.Solved)
		}
		if len(res.Events) != 1 || res.Events[0].Type != tt.event {
			t.Errorf("move %d: events %+v, want %s", i, res.Events, tt.event)
		}
	}

	bulk, err := svc.BulkMove(ctx, info.ID, []string{"left", "right", "right"}, false)
	if err != nil {
		t.Fatalf("BulkMove() error = %v", err)
	}
	if bulk.MovesExecuted != 3 || bulk.Solved || bulk.StopReasonCode != "" {
		t.Errorf("Expected 3 moves without a stop, got executed=%d solved=%v stop=%q",
			bulk.MovesExecuted, bulk.Solved, bulk.StopReasonCode)
	}
}

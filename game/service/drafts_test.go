package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/wricardo/sokoban/game/builder"
	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

func TestGameService_CreateDraft(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	draft, err := svc.CreateDraft(ctx, 6, 8)
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if _, err := uuid.Parse(draft.ID); err != nil {
		t.Errorf("Draft ID %q is not a UUID: %v", draft.ID, err)
	}
	if draft.Rows != 6 || draft.Cols != 8 {
		t.Errorf("Draft size = %dx%d, want 6x8", draft.Rows, draft.Cols)
	}
	if draft.PaintKind != engine.Wall {
		t.Errorf("Default paint kind = %s, want wall", draft.PaintKind)
	}
	if draft.Validation != builder.NoPerson || draft.Message != "Please add a person to the board." {
		t.Errorf("Unexpected validation %q / %q", draft.Validation, draft.Message)
	}
	if draft.Board[0] != "########" || draft.Board[1] != "#      #" {
		t.Errorf("Unexpected blank board %q", draft.Board)
	}

	if _, err := svc.CreateDraft(ctx, 2, 8); !errors.Is(err, builder.ErrSizeOutOfBounds) {
		t.Errorf("Expected ErrSizeOutOfBounds, got %v", err)
	}
	if _, err := svc.GetDraft(ctx, "missing"); !errors.Is(err, service.ErrDraftNotFound) {
		t.Errorf("Expected ErrDraftNotFound, got %v", err)
	}
}

func TestGameService_EditDraft(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	draft, _ := svc.CreateDraft(ctx, 6, 6)

	tests := []struct {
		name     string
		index    int
		kind     string
		wantKind engine.CellKind
		wantErr  bool
	}{
		{name: "paint person", index: 7, kind: "person", wantKind: engine.Person},
		{name: "same kind toggles back", index: 7, kind: "", wantKind: engine.Space},
		{name: "paint box", index: 8, kind: "box", wantKind: engine.Box},
		{name: "unknown kind", index: 9, kind: "lava", wantErr: true},
		{name: "out of range", index: 99, kind: "wall", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.EditDraft(ctx, draft.ID, tt.index, tt.kind)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EditDraft() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := info.Grid.Get(tt.index); got != tt.wantKind {
				t.Errorf("cell %d = %s, want %s", tt.index, got, tt.wantKind)
			}
		})
	}

	info, err := svc.ToggleDraftTarget(ctx, draft.ID, 9)
	if err != nil {
		t.Fatalf("ToggleDraftTarget() error = %v", err)
	}
	if !info.Grid.IsTarget(9) {
		t.Error("Expected target at 9")
	}
	if info.PaintKind != engine.Wall {
		t.Errorf("Paint kind = %s, want wall (last successful selection)", info.PaintKind)
	}
}

func TestGameService_PlayDraft(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService()
	draft, _ := svc.CreateDraft(ctx, 6, 6)

	// No person yet: validation fails and no session starts
	res, err := svc.PlayDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("PlayDraft() error = %v", err)
	}
	if res.Validation != builder.NoPerson || res.Session != nil {
		t.Fatalf("Expected noPerson without session, got %+v", res)
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("Expected no sessions, got %d", len(sessions.sessions))
	}

	svc.EditDraft(ctx, draft.ID, 7, "person")
	svc.EditDraft(ctx, draft.ID, 8, "box")
	svc.ToggleDraftTarget(ctx, draft.ID, 9)

	res, err = svc.PlayDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("PlayDraft() error = %v", err)
	}
	if res.Validation != builder.OK || res.Session == nil {
		t.Fatalf("Expected OK with session, got %+v", res)
	}
	first := res.Session.ID
	if res.Session.DraftID != draft.ID {
		t.Errorf("Session DraftID = %q, want %q", res.Session.DraftID, draft.ID)
	}

	move, err := svc.Move(ctx, first, "right", false)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if !move.GameState.Solved {
		t.Error("Expected the one-push draft to be solved")
	}

	// Playing again replaces the previous session
	res, err = svc.PlayDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("PlayDraft() error = %v", err)
	}
	if _, err := svc.GetSession(ctx, first); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected previous session to be released, got %v", err)
	}
	if len(sessions.sessions) != 1 {
		t.Errorf("Expected exactly one session, got %d", len(sessions.sessions))
	}
	second := res.Session.ID

	// A second person makes the draft unplayable and still ends the old session
	svc.EditDraft(ctx, draft.ID, 14, "person")
	res, err = svc.PlayDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("PlayDraft() error = %v", err)
	}
	if res.Validation != builder.MultiplePersons || res.Message != "There should be only one person on the board." {
		t.Errorf("Unexpected result %+v", res)
	}
	if _, err := svc.GetSession(ctx, second); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected session to be released, got %v", err)
	}

	info, _ := svc.GetDraft(ctx, draft.ID)
	if info.SessionID != "" {
		t.Errorf("Expected no active session on the draft, got %q", info.SessionID)
	}
}

func TestGameService_PlayDraftWithoutTargets(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	draft, _ := svc.CreateDraft(ctx, 6, 6)
	svc.EditDraft(ctx, draft.ID, 7, "person")

	res, err := svc.PlayDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("PlayDraft() error = %v", err)
	}
	if res.Session == nil || res.Session.GameState.Solved {
		t.Fatalf("Expected an unsolved session, got %+v", res)
	}

	for _, dir := range []string{"right", "down", "left"} {
		move, err := svc.Move(ctx, res.Session.ID, dir, false)
		if err != nil {
			t.Fatalf("Move(%s) error = %v", dir, err)
		}
		if !move.Success || move.Transition.Kind != engine.Step || move.GameState.Solved {
			t.Errorf("Move(%s): success=%v kind=%s solved=%v", dir, move.Success, move.Transition.Kind, move.GameState.Solved)
		}
	}
}

func TestGameService_PlayDraftWallOverTarget(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	draft, _ := svc.CreateDraft(ctx, 6, 6)

	svc.EditDraft(ctx, draft.ID, 7, "person")
	svc.EditDraft(ctx, draft.ID, 8, "box")
	svc.ToggleDraftTarget(ctx, draft.ID, 9)
	svc.EditDraft(ctx, draft.ID, 9, "wall")

	res, err := svc.PlayDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("PlayDraft() error = %v", err)
	}
	if res.Validation != builder.OK || res.Session == nil {
		t.Fatalf("Expected OK with session, got %+v", res)
	}
	if res.Session.GameState.TotalTargets != 0 {
		t.Errorf("Expected the wall to remove its target, got %d targets", res.Session.GameState.TotalTargets)
	}

	if _, err := svc.ToggleDraftTarget(ctx, draft.ID, 0); !errors.Is(err, builder.ErrTargetOnWall) {
		t.Errorf("Expected ErrTargetOnWall, got %v", err)
	}
}

func TestGameService_PlayDraftOpenBorder(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService()
	draft, _ := svc.CreateDraft(ctx, 6, 6)

	svc.EditDraft(ctx, draft.ID, 7, "person")
	// Toggling a border wall opens the board
	svc.EditDraft(ctx, draft.ID, 1, "wall")

	if _, err := svc.PlayDraft(ctx, draft.ID); err == nil {
		t.Error("Expected an error for a draft with an open border")
	}
	if len(sessions.sessions) != 0 {
		t.Errorf("Expected no sessions, got %d", len(sessions.sessions))
	}
}

func TestGameService_DeleteDraft(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService()
	draft, _ := svc.CreateDraft(ctx, 6, 6)
	svc.EditDraft(ctx, draft.ID, 7, "person")
	svc.PlayDraft(ctx, draft.ID)

	if err := svc.DeleteDraft(ctx, draft.ID); err != nil {
		t.Fatalf("DeleteDraft() error = %v", err)
	}
	if len(sessions.sessions) != 0 {
		t.Errorf("Expected draft session to be released, got %d sessions", len(sessions.sessions))
	}
	if err := svc.DeleteDraft(ctx, draft.ID); !errors.Is(err, service.ErrDraftNotFound) {
		t.Errorf("Expected ErrDraftNotFound, got %v", err)
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/sokoban/game/builder"
	"github.com/wricardo/sokoban/game/engine"
)

// draftLevelPrefix marks the level ID of sessions started from a draft
const draftLevelPrefix = "draft:"

// draft is one level maker board and the play session started from it
type draft struct {
	id        string
	maker     *builder.Maker
	sessionID string
	createdAt time.Time
}

// CreateDraft starts a new level maker board of rows x cols
func (s *gameServiceImpl) CreateDraft(ctx context.Context, rows, cols int) (*DraftInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maker := builder.NewMaker(s.builder)
	if err := maker.SelectSize(rows, cols); err != nil {
		return nil, err
	}

	d := &draft{
		id:        uuid.NewString(),
		maker:     maker,
		createdAt: time.Now(),
	}
	s.drafts[d.id] = d

	log.WithFields(log.Fields{"draft": d.id, "rows": rows, "cols": cols}).Info("draft created")
	return s.draftInfo(d), nil
}

// GetDraft returns the current state of a draft
func (s *gameServiceImpl) GetDraft(ctx context.Context, draftID string) (*DraftInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDraft(draftID)
	if err != nil {
		return nil, err
	}
	return s.draftInfo(d), nil
}

// EditDraft paints the cell at index. A non-empty kind becomes the current
// paint kind first; painting the kind a cell already holds clears it.
func (s *gameServiceImpl) EditDraft(ctx context.Context, draftID string, index int, kind string) (*DraftInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDraft(draftID)
	if err != nil {
		return nil, err
	}

	if kind != "" {
		if err := d.maker.SelectKind(engine.CellKind(kind)); err != nil {
			return nil, err
		}
	}
	if err := d.maker.Paint(index); err != nil {
		return nil, err
	}
	return s.draftInfo(d), nil
}

// ToggleDraftTarget adds or removes a target at index
func (s *gameServiceImpl) ToggleDraftTarget(ctx context.Context, draftID string, index int) (*DraftInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDraft(draftID)
	if err != nil {
		return nil, err
	}
	if err := d.maker.ToggleTarget(index); err != nil {
		return nil, err
	}
	return s.draftInfo(d), nil
}

// PlayDraft releases the play session previously started from the draft,
// validates the board and, when it holds exactly one person, starts a new
// session on a snapshot of it. A failed validation is a normal result.
func (s *gameServiceImpl) PlayDraft(ctx context.Context, draftID string) (*PlayDraftResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDraft(draftID)
	if err != nil {
		return nil, err
	}

	var started *Session
	validation, err := d.maker.Play(draftLevelPrefix+d.id, func(level *engine.Level) (func(), error) {
		sess, err := s.sessions.Create("", level.Name, level)
		if err != nil {
			return nil, err
		}
		started = sess
		return func() { s.releaseDraftSession(d, sess.ID) }, nil
	})

	result := &PlayDraftResult{
		DraftID:    d.id,
		Validation: validation,
		Message:    validation.Message(),
	}
	if err != nil {
		return nil, fmt.Errorf("play draft %s: %w", d.id, err)
	}
	if started == nil {
		log.WithFields(log.Fields{"draft": d.id, "validation": validation}).Info("draft not playable")
		return result, nil
	}

	d.sessionID = started.ID
	result.Session = s.sessionInfo(started)
	log.WithFields(log.Fields{"draft": d.id, "session": started.ID}).Info("draft play session started")
	return result, nil
}

// DeleteDraft discards a draft and its play session
func (s *gameServiceImpl) DeleteDraft(ctx context.Context, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDraft(draftID)
	if err != nil {
		return err
	}
	d.maker.Close()
	delete(s.drafts, d.id)
	return nil
}

// releaseDraftSession ends the session a draft started. Callers hold s.mu.
func (s *gameServiceImpl) releaseDraftSession(d *draft, sessionID string) {
	if d.sessionID == sessionID {
		d.sessionID = ""
	}
	if err := s.sessions.Delete(sessionID); err != nil {
		log.WithField("session", sessionID).WithError(err).Debug("draft session already gone")
		return
	}
	log.WithFields(log.Fields{"draft": d.id, "session": sessionID}).Info("draft play session released")
}

func (s *gameServiceImpl) getDraft(draftID string) (*draft, error) {
	d, ok := s.drafts[draftID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, draftID)
	}
	return d, nil
}

func (s *gameServiceImpl) draftInfo(d *draft) *DraftInfo {
	g := d.maker.Grid()
	validation := d.maker.Validate()
	return &DraftInfo{
		ID:         d.id,
		Rows:       g.Height,
		Cols:       g.Width,
		Grid:       g.Clone(),
		Board:      engine.FormatLayout(g),
		PaintKind:  d.maker.Kind(),
		Validation: validation,
		Message:    validation.Message(),
		SessionID:  d.sessionID,
		Bounds:     s.builder.Bounds(),
		CreatedAt:  d.createdAt,
	}
}

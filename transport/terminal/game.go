package terminal

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/input"
)

// Screen is the part of tcell.Screen the play loop needs
type Screen interface {
	Painter
	Clear()
	Sync()
	ChannelEvents(ch chan<- tcell.Event, quit <-chan struct{})
}

const helpLine = "arrows/hjkl/wasd move   r reset   q quit"

// Game plays one session in the terminal. Moves go through the game service
// so that history and persistence behave as they do for the other transports.
type Game struct {
	screen    Screen
	svc       service.GameService
	sessionID string
	renderer  *Renderer
	state     *engine.GameState
}

// NewGame creates a terminal game for an existing session
func NewGame(screen Screen, svc service.GameService, sessionID string) *Game {
	return &Game{
		screen:    screen,
		svc:       svc,
		sessionID: sessionID,
		renderer:  NewRenderer(screen, 2, 1),
	}
}

// Start loads the session state and draws the whole board once
func (g *Game) Start(ctx context.Context) error {
	state, err := g.svc.GetGameState(ctx, g.sessionID)
	if err != nil {
		return err
	}
	g.state = state
	g.redraw()
	return nil
}

// Run draws the board and processes events until the player quits or ctx is done
func (g *Game) Run(ctx context.Context) error {
	if err := g.Start(ctx); err != nil {
		return err
	}

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go g.screen.ChannelEvents(events, quit)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			cont, err := g.HandleEvent(ctx, ev)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
	}
}

// HandleEvent applies one terminal event. It returns false once the player quits.
func (g *Game) HandleEvent(ctx context.Context, ev tcell.Event) (bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if input.IsQuit(ev) {
			return false, nil
		}
		if input.IsReset(ev) {
			return true, g.reset(ctx)
		}
		if dir, ok := input.FromTcellKey(ev); ok {
			return true, g.move(ctx, dir)
		}

	case *tcell.EventResize:
		g.screen.Sync()
		g.redraw()
	}
	return true, nil
}

// State returns the last state received from the service
func (g *Game) State() *engine.GameState {
	return g.state
}

func (g *Game) move(ctx context.Context, dir engine.Direction) error {
	result, err := g.svc.Move(ctx, g.sessionID, string(dir), false)
	if err != nil {
		return err
	}
	g.state = result.GameState
	g.renderer.Apply(g.state.Grid, result.Transition)
	g.drawStatus()

	for _, event := range result.Events {
		if event.Type == service.EventSolved {
			g.renderer.Banner(fmt.Sprintf("SOLVED in %d moves, %d pushes! r to replay, q to quit", g.state.Moves, g.state.Pushes))
		}
	}
	return nil
}

func (g *Game) reset(ctx context.Context) error {
	state, err := g.svc.Reset(ctx, g.sessionID)
	if err != nil {
		return err
	}
	g.state = state
	g.redraw()
	return nil
}

func (g *Game) redraw() {
	g.screen.Clear()
	g.renderer.Draw(g.state.Grid)
	g.drawStatus()
	g.renderer.Status(2, helpLine)
	if g.state.Solved {
		g.renderer.Banner("SOLVED! r to replay, q to quit")
	}
}

func (g *Game) drawStatus() {
	s := g.state
	g.renderer.Status(0, fmt.Sprintf("%s   moves %d   pushes %d   boxes %d/%d",
		s.LevelName, s.Moves, s.Pushes, s.BoxesOnTarget, s.TotalTargets))
	g.renderer.Status(1, s.Message)
}

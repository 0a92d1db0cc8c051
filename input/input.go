// Package input maps platform key events to move intents.
package input

import (
	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/sokoban/game/engine"
)

// Browser keyCode values of the arrow keys
const (
	KeyLeft  = 37
	KeyUp    = 38
	KeyRight = 39
	KeyDown  = 40
)

var keyCodes = map[int]engine.Direction{
	KeyLeft:  engine.Left,
	KeyUp:    engine.Up,
	KeyRight: engine.Right,
	KeyDown:  engine.Down,
}

var runes = map[rune]engine.Direction{
	'h': engine.Left, 'j': engine.Down, 'k': engine.Up, 'l': engine.Right,
	'a': engine.Left, 's': engine.Down, 'w': engine.Up, 'd': engine.Right,
}

// FromKeyCode maps a browser keyCode to a direction. Any other code is no intent.
func FromKeyCode(code int) (engine.Direction, bool) {
	dir, ok := keyCodes[code]
	return dir, ok
}

// FromTcellKey maps a terminal key event to a direction. Arrow keys, vi keys
// and WASD are recognised; letters are case-insensitive.
func FromTcellKey(ev *tcell.EventKey) (engine.Direction, bool) {
	if ev == nil {
		return "", false
	}
	switch ev.Key() {
	case tcell.KeyLeft:
		return engine.Left, true
	case tcell.KeyUp:
		return engine.Up, true
	case tcell.KeyRight:
		return engine.Right, true
	case tcell.KeyDown:
		return engine.Down, true
	case tcell.KeyRune:
		r := ev.Rune()
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		dir, ok := runes[r]
		return dir, ok
	}
	return "", false
}

// IsQuit reports whether ev ends an interactive session: q, Esc or Ctrl-C
func IsQuit(ev *tcell.EventKey) bool {
	if ev == nil {
		return false
	}
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

// IsReset reports whether ev asks to restart the level: r
func IsReset(ev *tcell.EventKey) bool {
	return ev != nil && ev.Key() == tcell.KeyRune && (ev.Rune() == 'r' || ev.Rune() == 'R')
}

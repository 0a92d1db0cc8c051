// Package engine provides the core puzzle logic of the Sokoban game.
//
// The engine package implements:
//   - Flat row-major grid storage with a separate target overlay
//   - Move resolution into blocked, step and push transitions
//   - Win detection over the target set
//   - Level definitions, validation and the text layout codec
//   - Session-scoped state with move history and reset
//
// Core Types:
//
// Grid holds the cell kinds (space, wall, person, box) and the immutable set
// of target indices. Resolve mutates a Grid for one Direction and returns a
// Transition that renderers apply incrementally. IsSolved reports whether
// every target holds a box. GameEngine wraps a Level with counters, history
// and reset for one play session.
//
// Usage:
//
//	level := &engine.Level{
//		Name:   "tiny",
//		Layout: []string{"#####", "#@$.#", "#####"},
//	}
//
//	gameEngine, err := engine.NewEngine(level)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	t, err := gameEngine.Move(engine.Right)
//	solved := gameEngine.IsSolved()
//
// Invariants:
//
// A playable grid has exactly one person and a closed wall border. The
// border lets Resolve use plain index arithmetic (+/-1, +/-width) without
// row-wrap checks. Both invariants are checked when a level is validated;
// a violation seen during a move is reported as ErrGridIntegrity.
package engine

// Package terminal plays a Sokoban session in a terminal using tcell.
//
// The board is drawn once when the game starts. After that each move repaints
// only the cells its transition changed; a full redraw happens on reset and on
// terminal resize.
package terminal

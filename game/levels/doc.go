// Package levels provides the level catalogue for the Sokoban game.
//
// The levels package handles:
//   - Loading level definitions from JSON and HCL files
//   - Level validation before a level is offered for play
//   - Default level management
//   - Level discovery and listing
//
// Level Formats:
//
// A JSON file holds one engine.Level, either as text layout rows or as an
// explicit grid (width, height, cells, targets):
//
//	{
//	  "name": "Warm-up",
//	  "layout": ["#####", "#@$.#", "#####"]
//	}
//
// An HCL file holds a pack of levels, one block per level. The block label
// is the level ID:
//
//	level "corridor" {
//	  name        = "Corridor"
//	  description = "One push"
//	  layout = [
//	    "#####",
//	    "#@$.#",
//	    "#####",
//	  ]
//	}
//
// Layout symbols: '#' wall, ' ' floor, '@' person, '+' person on target,
// '$' box, '*' box on target, '.' target.
//
// Usage:
//
//	manager, err := levels.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("corridor")
//	catalogue, err := manager.ListLevels()
package levels

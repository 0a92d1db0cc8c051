// Command analyze prints quick, human-readable heuristics about the levels in
// a level directory. It summarizes dimensions, box and target counts, and a
// lower bound on the pushes each level needs based on the Manhattan distance
// from every box to its nearest target.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/levels"
)

// Analysis summarizes one level
type Analysis struct {
	engine.LevelStats
	Floor          int // non-wall cells
	PushLowerBound int // -1 when boxes exist but no target does
	FarthestBox    int
}

func main() {
	dir := "levels"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	manager, err := levels.NewManager(dir)
	if err != nil {
		log.Fatalf("Failed to open level directory: %v", err)
	}
	available, err := manager.ListLevels()
	if err != nil {
		log.Fatalf("Failed to list levels: %v", err)
	}

	for _, info := range available {
		fmt.Printf("\n=== Analyzing %s (%s) ===\n", info.LevelID, info.Filename)
		level, err := manager.LoadLevel(info.LevelID)
		if err != nil {
			fmt.Printf("Error loading level: %v\n", err)
			continue
		}
		grid, err := level.BuildGrid()
		if err != nil {
			fmt.Printf("Error building grid: %v\n", err)
			continue
		}
		printAnalysis(level.Name, analyzeLevel(grid))
	}
}

func printAnalysis(name string, a Analysis) {
	fmt.Printf("Name: %s\n", name)
	fmt.Printf("Grid Size: %d x %d\n", a.Width, a.Height)
	fmt.Printf("Floor cells: %d\n", a.Floor)
	fmt.Printf("Boxes: %d (on target: %d)\n", a.Boxes, a.BoxesOnTarget)
	fmt.Printf("Targets: %d\n", a.Targets)

	if !a.Balanced {
		fmt.Printf("⚠️  WARNING: %d boxes for %d targets\n", a.Boxes, a.Targets)
	}
	if a.PushLowerBound < 0 {
		fmt.Printf("⚠️  CRITICAL: boxes but no targets\n")
		return
	}
	fmt.Printf("Push lower bound: %d (farthest box %d from a target)\n", a.PushLowerBound, a.FarthestBox)
	if a.PushLowerBound == 0 {
		fmt.Printf("✅ Already solved at start\n")
	}
}

func analyzeLevel(g *engine.Grid) Analysis {
	a := Analysis{LevelStats: engine.StatsOf(g)}
	a.Floor = g.Len() - a.Walls

	for i := 0; i < g.Len(); i++ {
		if g.Get(i) != engine.Box {
			continue
		}
		if len(g.Targets) == 0 {
			a.PushLowerBound = -1
			a.FarthestBox = 0
			return a
		}
		nearest := -1
		for _, t := range g.Targets {
			if d := manhattan(g, i, t); nearest < 0 || d < nearest {
				nearest = d
			}
		}
		a.PushLowerBound += nearest
		if nearest > a.FarthestBox {
			a.FarthestBox = nearest
		}
	}
	return a
}

func manhattan(g *engine.Grid, a, b int) int {
	ar, ac := g.RowCol(a)
	br, bc := g.RowCol(b)
	return abs(ar-br) + abs(ac-bc)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

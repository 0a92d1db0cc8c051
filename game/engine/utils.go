package engine

// CountBoxesOnTarget counts the targets currently covered by a box
func CountBoxesOnTarget(g *Grid) int {
	count := 0
	for _, t := range g.Targets {
		if g.Get(t) == Box {
			count++
		}
	}
	return count
}

// LevelStats summarizes a grid for tooling and agent-facing views
type LevelStats struct {
	Width         int  `json:"width"`
	Height        int  `json:"height"`
	Walls         int  `json:"walls"`
	Spaces        int  `json:"spaces"`
	Persons       int  `json:"persons"`
	Boxes         int  `json:"boxes"`
	Targets       int  `json:"targets"`
	BoxesOnTarget int  `json:"boxes_on_target"`
	Balanced      bool `json:"balanced"` // boxes == targets
}

// StatsOf computes LevelStats for g
func StatsOf(g *Grid) LevelStats {
	stats := LevelStats{
		Width:         g.Width,
		Height:        g.Height,
		Walls:         g.Count(Wall),
		Spaces:        g.Count(Space),
		Persons:       g.Count(Person),
		Boxes:         g.Count(Box),
		Targets:       len(g.Targets),
		BoxesOnTarget: CountBoxesOnTarget(g),
	}
	stats.Balanced = stats.Boxes == stats.Targets
	return stats
}

// DescribeCell names the cell at index including the target overlay, e.g. "box on target"
func DescribeCell(g *Grid, index int) string {
	kind := string(g.Get(index))
	if g.IsTarget(index) {
		if g.Get(index) == Space {
			return "target"
		}
		return kind + " on target"
	}
	return kind
}

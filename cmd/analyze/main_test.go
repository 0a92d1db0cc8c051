package main

import (
	"testing"

	"github.com/wricardo/sokoban/game/engine"
)

func TestAnalyzeLevel(t *testing.T) {
	tests := []struct {
		name      string
		layout    []string
		wantFloor int
		wantBound int
		wantFar   int
	}{
		{
			name:      "one push",
			layout:    []string{"#####", "#@$.#", "#####"},
			wantFloor: 3,
			wantBound: 1,
			wantFar:   1,
		},
		{
			name:      "two boxes",
			layout:    []string{"#######", "#@$ $ #", "#.   .#", "#######"},
			wantFloor: 10,
			wantBound: 4,
			wantFar:   2,
		},
		{
			name:      "solved",
			layout:    []string{"#####", "#@ *#", "#####"},
			wantFloor: 3,
		},
		{
			name:      "no targets",
			layout:    []string{"#####", "#@$ #", "#####"},
			wantFloor: 3,
			wantBound: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := engine.ParseLayout(tt.layout)
			if err != nil {
				t.Fatalf("ParseLayout: %v", err)
			}

			a := analyzeLevel(g)
			if a.Floor != tt.wantFloor {
				t.Errorf("Floor = %d, want %d", a.Floor, tt.wantFloor)
			}
			if a.PushLowerBound != tt.wantBound {
				t.Errorf("PushLowerBound = %d, want %d", a.PushLowerBound, tt.wantBound)
			}
			if a.FarthestBox != tt.wantFar {
				t.Errorf("FarthestBox = %d, want %d", a.FarthestBox, tt.wantFar)
			}
		})
	}
}

func TestAbs(t *testing.T) {
	if abs(-3) != 3 || abs(4) != 4 || abs(0) != 0 {
		t.Error("abs returned a wrong value")
	}
}

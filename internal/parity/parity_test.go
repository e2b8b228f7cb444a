package parity

import (
	"testing"

	"simfile-analyzer/config"
)

func TestSolveEmptyRowsIsZeroCost(t *testing.T) {
	cfg := config.DefaultConfig()
	result := Solve(nil, 4, cfg)
	if result.TotalCost != 0 {
		t.Fatalf("expected zero cost for no rows, got %v", result.TotalCost)
	}
}

func TestSolveAlternatesFeetForSimpleRun(t *testing.T) {
	cfg := config.DefaultConfig()
	rows := []RowInput{
		{Second: 0.0, NoteMask: 1 << 0},
		{Second: 0.5, NoteMask: 1 << 3},
		{Second: 1.0, NoteMask: 1 << 0},
		{Second: 1.5, NoteMask: 1 << 3},
	}
	result := Solve(rows, 4, cfg)
	if result.TotalCost < 0 {
		t.Fatalf("cost should never be negative, got %v", result.TotalCost)
	}
}

func TestSolveJackCountsFastSameColumnRepeat(t *testing.T) {
	cfg := config.DefaultConfig()
	rows := []RowInput{
		{Second: 0.0, NoteMask: 1 << 0},
		{Second: 0.05, NoteMask: 1 << 0},
	}
	result := Solve(rows, 4, cfg)
	if result.Tech.Jacks == 0 && result.Tech.Doublesteps == 0 {
		t.Fatalf("expected either a jack or doublestep classification for a fast same-column repeat")
	}
}

func TestSolveMineHitAddsCost(t *testing.T) {
	cfg := config.DefaultConfig()
	clean := []RowInput{{Second: 0, NoteMask: 1 << 0}}
	mined := []RowInput{{Second: 0, NoteMask: 1 << 0, MineMask: 1 << 0}}

	cleanResult := Solve(clean, 4, cfg)
	minedResult := Solve(mined, 4, cfg)
	if minedResult.TotalCost <= cleanResult.TotalCost {
		t.Fatalf("expected a mine hit to increase cost: clean=%v mined=%v", cleanResult.TotalCost, minedResult.TotalCost)
	}
}

func TestDoublestepCostRequiresSameFootRepeat(t *testing.T) {
	cfg := config.DefaultConfig()
	prev := node{
		key: stateKey{col: [footCount]int{0, -1, 3, -1}},
		place: placement{
			col:     [footCount]int{0, -1, 3, -1},
			moved:   [footCount]bool{LeftHeel: true},
			hasFoot: true,
		},
	}
	row := RowInput{Second: 0.2, NoteMask: 1 << 1}

	if got := doublestepCost(prev, LeftHeel, 1, row, cfg); got != cfg.DoubleStepWeight {
		t.Errorf("same-foot move to a new column = %v, want DoubleStepWeight", got)
	}
	if got := doublestepCost(prev, RightHeel, 1, row, cfg); got != 0 {
		t.Errorf("alternating foot = %v, want 0", got)
	}
	if got := doublestepCost(prev, LeftHeel, 0, row, cfg); got != 0 {
		t.Errorf("same-column repeat is a jack, not a doublestep: got %v", got)
	}

	held := RowInput{Second: 0.2, NoteMask: 1 << 1, HoldMask: 1 << 2}
	if got := doublestepCost(prev, LeftHeel, 1, held, cfg); got != 0 {
		t.Errorf("a covering hold excuses the doublestep: got %v", got)
	}
}

func TestBracketTapCostGatesOnHeldColumn(t *testing.T) {
	cfg := config.DefaultConfig()
	prev := node{key: stateKey{col: [footCount]int{-1, -1, -1, -1}}}

	oneHeld := RowInput{Second: 0.5, HoldMask: 1 << 0}
	if got := bracketTapCost(prev, [2]int{0, 1}, oneHeld, LeftHeel, cfg); got != cfg.BracketTapWeight {
		t.Errorf("one held column of the pair = %v, want BracketTapWeight", got)
	}

	noHold := RowInput{Second: 0.5}
	if got := bracketTapCost(prev, [2]int{0, 1}, noHold, LeftHeel, cfg); got != 0 {
		t.Errorf("bracket with no hold anywhere = %v, want 0", got)
	}

	bothHeld := RowInput{Second: 0.5, HoldMask: 0b11}
	if got := bracketTapCost(prev, [2]int{0, 1}, bothHeld, LeftHeel, cfg); got != 0 {
		t.Errorf("both columns held = %v, want 0", got)
	}

	otherHeld := RowInput{Second: 0.5, HoldMask: 1 << 3}
	if got := bracketTapCost(prev, [2]int{0, 1}, otherHeld, LeftHeel, cfg); got != 0 {
		t.Errorf("hold outside the pair = %v, want 0", got)
	}
}

func TestBracketJackCostChargesSamePairRepeat(t *testing.T) {
	cfg := config.DefaultConfig()
	prev := node{key: stateKey{col: [footCount]int{0, 1, -1, -1}}}
	row := RowInput{Second: 0.1, NoteMask: 0b11}

	if got := bracketJackCost(prev, LeftHeel, LeftToe, [2]int{0, 1}, row, cfg); got != cfg.BracketJackWeight {
		t.Errorf("repeated same-foot bracket = %v, want BracketJackWeight", got)
	}
	if got := bracketJackCost(prev, RightHeel, RightToe, [2]int{0, 1}, row, cfg); got != 0 {
		t.Errorf("fresh foot on the pair = %v, want 0", got)
	}
}

func TestTwistedFootCostPenalizesBackwardBracket(t *testing.T) {
	cfg := config.DefaultConfig()
	layout := padLayout(4)

	// Left foot brackets down(1)+left(0): heel on down (y=0), toe on
	// left (y=1) is upright; the reverse points the toe behind the heel.
	upright := [footCount]int{1, 0, -1, -1}
	if got := twistedFootCost(layout, upright, LeftHeel, LeftToe, cfg); got != 0 {
		t.Errorf("upright bracket = %v, want 0", got)
	}
	backward := [footCount]int{0, 1, -1, -1}
	if got := twistedFootCost(layout, backward, LeftHeel, LeftToe, cfg); got != cfg.TwistedFootWeight {
		t.Errorf("backward bracket = %v, want TwistedFootWeight", got)
	}
}

func TestSpinCostChargesCrossedVerticalFlip(t *testing.T) {
	cfg := config.DefaultConfig()
	layout := padLayout(4)

	// Crossed both rows: left foot on the right panel, right foot on a
	// middle panel to its left, with the right foot flipping from down to up.
	prevCols := [footCount]int{3, -1, 1, -1} // left on right(x2), right on down(y0)
	nextCols := [footCount]int{3, -1, 2, -1} // right moves to up(y2)

	if got := spinCost(layout, prevCols, nextCols, cfg); got != cfg.SpinWeight {
		t.Errorf("crossed stance with vertical flip = %v, want SpinWeight", got)
	}
	if got := spinCost(layout, nextCols, nextCols, cfg); got != 0 {
		t.Errorf("no vertical flip = %v, want 0", got)
	}
}

func TestSolveMissedFootswitchCostsMoreThanPlainJack(t *testing.T) {
	cfg := config.DefaultConfig()
	plain := []RowInput{
		{Second: 0.0, NoteMask: 1 << 1},
		{Second: 0.05, NoteMask: 1 << 1},
	}
	mined := []RowInput{
		{Second: 0.0, NoteMask: 1 << 1},
		{Second: 0.05, NoteMask: 1 << 1, MineMask: 1 << 2},
	}
	plainCost := Solve(plain, 4, cfg).TotalCost
	minedCost := Solve(mined, 4, cfg).TotalCost
	if minedCost <= plainCost {
		t.Fatalf("a jack through a mined row should cost more: plain=%v mined=%v", plainCost, minedCost)
	}
}

func TestDeriveTechCountsHalfCrossoverWithoutLookback(t *testing.T) {
	cfg := config.DefaultConfig()
	layout := padLayout(4)

	// Left heel steps up(2), then right heel crosses to left(0): no
	// earlier right-foot step to look back on, so it counts as half.
	path := []node{
		{
			place: placement{col: [footCount]int{2, -1, -1, -1}, moved: [footCount]bool{LeftHeel: true}, hasFoot: true},
			mask:  1 << 2, sec: 0.0,
		},
		{
			place: placement{col: [footCount]int{2, -1, 0, -1}, moved: [footCount]bool{RightHeel: true}, hasFoot: true},
			mask:  1 << 0, sec: 0.2,
		},
	}

	tc := deriveTechCounts(path, layout, cfg)
	if tc.CrossoversHalf != 1 || tc.CrossoversFull != 0 {
		t.Fatalf("crossovers = half %d full %d, want half 1 full 0", tc.CrossoversHalf, tc.CrossoversFull)
	}
}

func TestDeriveTechCountsFullCrossoverWithLookback(t *testing.T) {
	cfg := config.DefaultConfig()
	layout := padLayout(4)

	// Right heel on right(3), left heel on up(2), then right heel
	// crosses to left(0): the look-back finds the right foot on the
	// open side, a full crossover.
	path := []node{
		{
			place: placement{col: [footCount]int{-1, -1, 3, -1}, moved: [footCount]bool{RightHeel: true}, hasFoot: true},
			mask:  1 << 3, sec: 0.0,
		},
		{
			place: placement{col: [footCount]int{2, -1, 3, -1}, moved: [footCount]bool{LeftHeel: true}, hasFoot: true},
			mask:  1 << 2, sec: 0.2,
		},
		{
			place: placement{col: [footCount]int{2, -1, 0, -1}, moved: [footCount]bool{RightHeel: true}, hasFoot: true},
			mask:  1 << 0, sec: 0.4,
		},
	}

	tc := deriveTechCounts(path, layout, cfg)
	if tc.CrossoversFull != 1 || tc.CrossoversHalf != 0 {
		t.Fatalf("crossovers = half %d full %d, want half 0 full 1", tc.CrossoversHalf, tc.CrossoversFull)
	}
}

func TestBracketableRejectsOppositeColumns(t *testing.T) {
	layout := padLayout(4)
	if bracketable(layout, 0, 3) {
		t.Fatalf("left and right columns should not be bracketable")
	}
	if !bracketable(layout, 0, 1) {
		t.Fatalf("left and down columns should be bracketable")
	}
}

package parity

import (
	"simfile-analyzer/config"
)

// RowInput is one row's worth of step data, derived from the note
// minimizer's bitmask stream plus the timing function's beat/time
// mapping.
type RowInput struct {
	Second       float64
	Beat         float64
	NoteMask     byte
	HoldMask     byte
	MineMask     byte
	FakeMineMask byte
	HoldEnds     byte
}

// TechCounts tallies the footwork techniques the solver's winning path
// exhibits.
type TechCounts struct {
	CrossoversHalf int
	CrossoversFull int
	FootswitchUp   int
	FootswitchDown int
	Sideswitches   int
	Jacks          int
	Brackets       int
	Doublesteps    int
}

// Result is the outcome of solving one chart's row sequence.
type Result struct {
	TotalCost float64
	Tech      TechCounts
}

// stateKey is the DP dedup key: each foot's current column (-1 if the
// foot has never been placed).
type stateKey struct {
	col [footCount]int
}

type placement struct {
	col     [footCount]int  // column each foot occupies this row, -1 if idle
	moved   [footCount]bool // feet that freshly stepped this row
	hasFoot bool
}

type node struct {
	key   stateKey
	cost  float64
	prev  int
	place placement
	beat  float64
	sec   float64
	mask  byte // columns actively stepped on this row (0 for a pass-through row)
}

const outerColumnMargin = 0 // columns 0 and len(layout)-1 within a single pad are "outer"

// Solve runs the DP over rows for a chart with the given lane count (4
// or 8), returning the minimum total cost and the tech counts derived
// from the winning path. Only 4 and 8 lane layouts are supported; other
// lane counts solve against the 4-lane layout as a fallback.
func Solve(rows []RowInput, lanes int, cfg config.AnalyzerConfig) Result {
	layout := padLayout(lanes)

	start := node{key: stateKey{col: [footCount]int{-1, -1, -1, -1}}, cost: 0, prev: -1}
	frontier := []node{start}
	history := make([][]node, 0, len(rows)+1)
	history = append(history, frontier)

	for _, row := range rows {
		next := stepRow(frontier, row, layout, cfg)
		history = append(history, next)
		frontier = next
	}

	if len(frontier) == 0 {
		return Result{}
	}

	best := 0
	for i := 1; i < len(frontier); i++ {
		if frontier[i].cost < frontier[best].cost {
			best = i
		}
	}

	path := reconstructPath(history, best)
	tech := deriveTechCounts(path, layout, cfg)

	return Result{TotalCost: frontier[best].cost, Tech: tech}
}

func reconstructPath(history [][]node, lastIdx int) []node {
	path := make([]node, 0, len(history))
	idx := lastIdx
	for level := len(history) - 1; level >= 1; level-- {
		n := history[level][idx]
		path = append(path, n)
		idx = n.prev
	}
	// reverse into chronological order
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// stepRow generates candidate placements for row given the previous
// row's live states, dedupes identical resulting states keeping the
// cheapest predecessor, and returns the new frontier.
func stepRow(prevStates []node, row RowInput, layout []point, cfg config.AnalyzerConfig) []node {
	activeCols := activeColumns(row.NoteMask)

	best := make(map[stateKey]node)

	for pi, prev := range prevStates {
		for _, cand := range candidatesFor(prev, activeCols, row, layout, cfg) {
			total := prev.cost + cand.cost
			if existing, ok := best[cand.key]; !ok || total < existing.cost {
				best[cand.key] = node{
					key:   cand.key,
					cost:  total,
					prev:  pi,
					place: cand.place,
					beat:  row.Beat,
					sec:   row.Second,
					mask:  row.NoteMask,
				}
			}
		}
	}

	out := make([]node, 0, len(best))
	for _, n := range best {
		out = append(out, n)
	}
	if len(out) == 0 {
		// No steps this row: carry every predecessor forward unchanged.
		for pi, prev := range prevStates {
			out = append(out, node{key: prev.key, cost: prev.cost, prev: pi, place: placement{col: prev.key.col}, beat: row.Beat, sec: row.Second, mask: row.NoteMask})
		}
	}
	return out
}

func activeColumns(mask byte) []int {
	var cols []int
	for i := 0; i < 8; i++ {
		if mask&(1<<uint(i)) != 0 {
			cols = append(cols, i)
		}
	}
	return cols
}

type candidate struct {
	key   stateKey
	cost  float64
	place placement
}

// candidatesFor enumerates feasible foot assignments for this row given
// the previous state, scoring each with the weighted penalty taxonomy.
func candidatesFor(prev node, activeCols []int, row RowInput, layout []point, cfg config.AnalyzerConfig) []candidate {
	if len(activeCols) == 0 {
		return []candidate{{key: prev.key, cost: 0, place: placement{col: prev.key.col}}}
	}

	if len(activeCols) == 1 {
		return singleColumnCandidates(prev, activeCols[0], row, layout, cfg)
	}

	return twoColumnCandidates(prev, activeCols[0], activeCols[1], row, layout, cfg)
}

func singleColumnCandidates(prev node, col int, row RowInput, layout []point, cfg config.AnalyzerConfig) []candidate {
	var out []candidate
	for _, foot := range []Foot{LeftHeel, RightHeel} {
		next := prev.key.col
		next[foot] = col

		var moved [footCount]bool
		moved[foot] = true

		cost := stepCost(prev, foot, col, row, layout, cfg, false) +
			doublestepCost(prev, foot, col, row, cfg) +
			spinCost(layout, prev.key.col, next, cfg)

		out = append(out, candidate{
			key:   stateKey{col: next},
			cost:  cost,
			place: placement{col: next, moved: moved, hasFoot: true},
		})
	}
	return out
}

func twoColumnCandidates(prev node, c1, c2 int, row RowInput, layout []point, cfg config.AnalyzerConfig) []candidate {
	var out []candidate

	jumpMoved := [footCount]bool{}
	jumpMoved[LeftHeel] = true
	jumpMoved[RightHeel] = true

	// Option A: a jump, one foot per column, assigned by relative
	// horizontal position (left foot takes the leftward column).
	left, right := c1, c2
	if layout[left].x > layout[right].x {
		left, right = right, left
	}
	{
		next := prev.key.col
		next[LeftHeel] = left
		next[RightHeel] = right
		cost := stepCost(prev, LeftHeel, left, row, layout, cfg, false) +
			stepCost(prev, RightHeel, right, row, layout, cfg, false) +
			spinCost(layout, prev.key.col, next, cfg)
		out = append(out, candidate{key: stateKey{col: next}, cost: cost, place: placement{col: next, moved: jumpMoved, hasFoot: true}})
	}
	// The unnatural crossed assignment, penalized via the facing weight.
	{
		next := prev.key.col
		next[LeftHeel] = right
		next[RightHeel] = left
		cost := stepCost(prev, LeftHeel, right, row, layout, cfg, false) +
			stepCost(prev, RightHeel, left, row, layout, cfg, false) +
			cfg.FacingWeight +
			spinCost(layout, prev.key.col, next, cfg)
		out = append(out, candidate{key: stateKey{col: next}, cost: cost, place: placement{col: next, moved: jumpMoved, hasFoot: true}})
	}

	// Option B: a bracket, one foot covers both columns via heel+toe.
	// Both heel/toe orientations are candidates; the backward one pays
	// the twisted-foot penalty.
	if bracketable(layout, c1, c2) {
		for _, side := range []struct{ heel, toe Foot }{{LeftHeel, LeftToe}, {RightHeel, RightToe}} {
			for _, pair := range [][2]int{{c1, c2}, {c2, c1}} {
				next := prev.key.col
				next[side.heel] = pair[0]
				next[side.toe] = pair[1]

				var moved [footCount]bool
				moved[side.heel] = true
				moved[side.toe] = true

				cost := stepCost(prev, side.heel, pair[0], row, layout, cfg, true) +
					stepCost(prev, side.toe, pair[1], row, layout, cfg, true) +
					bracketTapCost(prev, pair, row, side.heel, cfg) +
					bracketJackCost(prev, side.heel, side.toe, pair, row, cfg) +
					twistedFootCost(layout, next, side.heel, side.toe, cfg) +
					spinCost(layout, prev.key.col, next, cfg)
				out = append(out, candidate{key: stateKey{col: next}, cost: cost, place: placement{col: next, moved: moved, hasFoot: true}})
			}
		}
	}

	return out
}

// doublestepCost charges a foot stepping onto a new column when that
// same foot also made the previous step, the other foot never moved in
// between, and no hold keeps the repeat honest.
func doublestepCost(prev node, foot Foot, col int, row RowInput, cfg config.AnalyzerConfig) float64 {
	prevCol := prev.key.col[foot]
	if prevCol < 0 || prevCol == col {
		// First placement, or a jack: not a doublestep.
		return 0
	}
	if !prev.place.moved[foot] || prev.place.moved[oppositeHeel(foot)] {
		// The other foot moved in between (or jumped with this one).
		return 0
	}
	if row.HoldMask != 0 {
		return 0
	}
	return cfg.DoubleStepWeight
}

// bracketTapCost charges a bracket placed while exactly one of its two
// columns is already held, scaled up when the foot is re-placed quickly.
func bracketTapCost(prev node, pair [2]int, row RowInput, heel Foot, cfg config.AnalyzerConfig) float64 {
	if row.HoldMask == 0 {
		return 0
	}
	heelHeld := row.HoldMask&(1<<uint(pair[0])) != 0
	toeHeld := row.HoldMask&(1<<uint(pair[1])) != 0
	if heelHeld == toeHeld {
		return 0
	}

	penalty := 1.0
	prevCol := prev.key.col[heel]
	if prevCol >= 0 && prev.place.moved[heel] {
		if dt := row.Second - prev.sec; dt > 0 {
			penalty = 1.0 / dt
		}
	}
	return cfg.BracketTapWeight * penalty
}

// bracketJackCost charges a same-foot bracket repeated on the same
// column pair with no covering hold.
func bracketJackCost(prev node, heel, toe Foot, pair [2]int, row RowInput, cfg config.AnalyzerConfig) float64 {
	if row.HoldMask != 0 {
		return 0
	}
	if prev.key.col[heel] == pair[0] && prev.key.col[toe] == pair[1] {
		return cfg.BracketJackWeight
	}
	return 0
}

// twistedFootCost charges a bracket whose toe points behind its heel
// while the body is not already crossed over.
func twistedFootCost(layout []point, next [footCount]int, heel, toe Foot, cfg config.AnalyzerConfig) float64 {
	h, t := next[heel], next[toe]
	if h < 0 || t < 0 || layout[t].y >= layout[h].y {
		return 0
	}
	if feetCrossed(layout, next) {
		return 0
	}
	return cfg.TwistedFootWeight
}

// spinCost charges consecutive crossed stances whose vertical order
// flips, implying the body rotated through the back.
func spinCost(layout []point, prevCols, nextCols [footCount]int, cfg config.AnalyzerConfig) float64 {
	if !feetCrossed(layout, nextCols) || !feetCrossed(layout, prevCols) {
		return 0
	}
	leftY := footAvgY(layout, nextCols[LeftHeel], nextCols[LeftToe])
	rightY := footAvgY(layout, nextCols[RightHeel], nextCols[RightToe])
	prevLeftY := footAvgY(layout, prevCols[LeftHeel], prevCols[LeftToe])
	prevRightY := footAvgY(layout, prevCols[RightHeel], prevCols[RightToe])

	if (rightY < leftY && prevRightY > prevLeftY) || (rightY > leftY && prevRightY < prevLeftY) {
		return cfg.SpinWeight
	}
	return 0
}

// stepCost scores moving foot onto col this row relative to prev's
// state, applying the weighted penalty taxonomy the row's circumstances
// trigger.
func stepCost(prev node, foot Foot, col int, row RowInput, layout []point, cfg config.AnalyzerConfig, isBracket bool) float64 {
	cost := 0.0

	prevCol := prev.key.col[foot]
	if prevCol >= 0 {
		d := distance(layout[prevCol], layout[col])
		dt := row.Second - prev.sec
		if dt > 0 {
			cost += cfg.DistanceWeight * d / dt * 0.01
		} else {
			cost += cfg.DistanceWeight * d
		}

		if prevCol == col {
			dt := row.Second - prev.sec
			if dt <= cfg.JackThreshold {
				cost += cfg.JackWeight
			}
			// A jack on a mined row means a footswitch was intended.
			if row.MineMask|row.FakeMineMask != 0 {
				cost += cfg.MissedFootswitchWeight
			}
		}
	}

	// Footswitch / sideswitch: the opposing foot held this column last row.
	opposite := oppositeHeel(foot)
	if prev.key.col[opposite] == col {
		dt := row.Second - prev.sec
		switch {
		case dt <= cfg.FootswitchCutoff:
			if isOuterColumn(layout, col) {
				cost += cfg.SideswitchWeight
			} else {
				cost += cfg.FootswitchWeight
			}
		case dt >= cfg.SlowFootswitchLow && dt < cfg.SlowFootswitchHigh &&
			row.MineMask|row.FakeMineMask == 0:
			// A slow switch with no mine to force it reads as awkward,
			// increasingly so the longer the gap.
			cost += cfg.FootswitchWeight * (dt - cfg.SlowFootswitchLow) / dt
		}
	}

	if row.MineMask&(1<<uint(col)) != 0 {
		cost += cfg.MineWeight
	}

	if row.HoldMask&(1<<uint(col)) != 0 && prev.key.col[foot] != col {
		cost += cfg.HoldSwitchWeight
	}

	if isBracket {
		dt := row.Second - prev.sec
		if dt > cfg.SlowBracketThreshold {
			cost += cfg.SlowBracketWeight
		}
	}

	return cost
}

func oppositeHeel(f Foot) Foot {
	if f.isLeft() {
		return RightHeel
	}
	return LeftHeel
}

func isOuterColumn(layout []point, col int) bool {
	return col == 0 || col == len(layout)-1
}

// deriveTechCounts walks the reconstructed per-row placements and
// classifies consecutive transitions into the tech taxonomy.
func deriveTechCounts(path []node, layout []point, cfg config.AnalyzerConfig) TechCounts {
	var tc TechCounts

	// hitCol returns the column foot freshly stepped on at path index i,
	// or -1 when the foot only carried over from an earlier row.
	hitCol := func(i int, foot Foot) int {
		if !path[i].place.moved[foot] {
			return -1
		}
		return path[i].place.col[foot]
	}

	for i := 1; i < len(path); i++ {
		prev := path[i-1].place
		cur := path[i].place
		if !cur.hasFoot {
			continue
		}

		classifyCrossover(&tc, path, i, layout, hitCol)

		for _, foot := range []Foot{LeftHeel, RightHeel} {
			col := cur.col[foot]
			if col < 0 || !cur.moved[foot] {
				// Not freshly stepped on this row: nothing to classify.
				continue
			}
			prevCol := prev.col[foot]

			oppCol := prev.col[oppositeHeel(foot)]
			dt := path[i].sec - path[i-1].sec
			if oppCol == col && prevCol != col {
				if isOuterColumn(layout, col) {
					tc.Sideswitches++
				} else if isBelowRow(layout, col) {
					tc.FootswitchDown++
				} else {
					tc.FootswitchUp++
				}
				continue
			}

			if prevCol == col && dt <= cfg.JackCutoff {
				tc.Jacks++
				continue
			}

			if prevCol != col && dt <= cfg.DoubleStepCutoff &&
				prev.moved[foot] && !prev.moved[oppositeHeel(foot)] && prevOtherFootUnchanged(prev, cur, foot) {
				tc.Doublesteps++
			}
		}

		if cur.col[LeftToe] >= 0 || cur.col[RightToe] >= 0 {
			tc.Brackets++
		}
	}

	return tc
}

// classifyCrossover detects a foot landing on the far side of the other
// foot at path index i. At i <= 1 it counts a half crossover. Otherwise
// the crossing foot's column two rows back decides full (the foot came
// from the open side) versus half; when that foot did not step there, or
// stepped on the same column, nothing is counted.
func classifyCrossover(tc *TechCounts, path []node, i int, layout []point, hitCol func(int, Foot) int) {
	type side struct {
		crossing Foot // foot that steps this row
		planted  Foot // foot that stepped the row before
	}

	for _, s := range []side{{crossing: RightHeel, planted: LeftHeel}, {crossing: LeftHeel, planted: RightHeel}} {
		cross := hitCol(i, s.crossing)
		planted := hitCol(i-1, s.planted)
		if cross < 0 || planted < 0 || hitCol(i-1, s.crossing) >= 0 {
			continue
		}

		crossX := footAvgX(layout, cross, hitCol(i, footToe(s.crossing)))
		plantedX := footAvgX(layout, planted, hitCol(i-1, footToe(s.planted)))

		crossed := false
		if s.crossing == RightHeel {
			crossed = crossX < plantedX
		} else {
			crossed = crossX > plantedX
		}
		if !crossed {
			continue
		}

		if i > 1 {
			before := hitCol(i-2, s.crossing)
			if before < 0 || before == cross {
				continue
			}
			open := false
			if s.crossing == RightHeel {
				open = layout[before].x > plantedX
			} else {
				open = layout[before].x < plantedX
			}
			if open {
				tc.CrossoversFull++
			} else {
				tc.CrossoversHalf++
			}
		} else {
			tc.CrossoversHalf++
		}
		return
	}
}

// footToe maps a heel to the toe of the same foot.
func footToe(f Foot) Foot {
	if f == LeftHeel {
		return LeftToe
	}
	return RightToe
}

func isBelowRow(layout []point, col int) bool {
	return layout[col].y < 1
}

func prevOtherFootUnchanged(prev, cur placement, foot Foot) bool {
	opp := oppositeHeel(foot)
	return prev.col[opp] == cur.col[opp]
}

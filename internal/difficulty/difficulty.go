// Package difficulty computes a matrix/tier BPM difficulty rating by
// interpolating a static BPM x measure-count table.
package difficulty

import (
	"math"
	"sort"

	"simfile-analyzer/internal/stream"
)

type measureEntry struct {
	measures   int
	difficulty int
}

type bpmRow struct {
	bpm     int
	entries []measureEntry
}

// table is sorted ascending by bpm; each row's entries are sorted
// ascending by measure count.
var table = buildTable()

func buildTable() []bpmRow {
	type rawRow struct {
		bpm     int
		entries [13][2]int
	}
	raw := []rawRow{
		{80, [13][2]int{{8, 7}, {12, 7}, {16, 8}, {24, 8}, {32, 9}, {48, 9}, {64, 9}, {96, 10}, {128, 10}, {192, 10}, {256, 10}, {384, 11}, {512, 11}}},
		{90, [13][2]int{{8, 7}, {12, 8}, {16, 8}, {24, 9}, {32, 9}, {48, 9}, {64, 10}, {96, 10}, {128, 11}, {192, 11}, {256, 11}, {384, 12}, {512, 12}}},
		{100, [13][2]int{{8, 8}, {12, 8}, {16, 9}, {24, 9}, {32, 10}, {48, 10}, {64, 10}, {96, 11}, {128, 11}, {192, 11}, {256, 11}, {384, 12}, {512, 12}}},
		{110, [13][2]int{{8, 8}, {12, 9}, {16, 9}, {24, 10}, {32, 10}, {48, 10}, {64, 11}, {96, 11}, {128, 12}, {192, 12}, {256, 12}, {384, 13}, {512, 13}}},
		{120, [13][2]int{{8, 9}, {12, 9}, {16, 10}, {24, 10}, {32, 11}, {48, 11}, {64, 12}, {96, 12}, {128, 12}, {192, 13}, {256, 13}, {384, 13}, {512, 13}}},
		{130, [13][2]int{{8, 9}, {12, 10}, {16, 10}, {24, 11}, {32, 11}, {48, 12}, {64, 12}, {96, 13}, {128, 13}, {192, 13}, {256, 14}, {384, 14}, {512, 14}}},
		{140, [13][2]int{{8, 10}, {12, 10}, {16, 11}, {24, 11}, {32, 12}, {48, 12}, {64, 13}, {96, 13}, {128, 13}, {192, 14}, {256, 14}, {384, 14}, {512, 15}}},
		{150, [13][2]int{{8, 10}, {12, 11}, {16, 11}, {24, 12}, {32, 12}, {48, 13}, {64, 13}, {96, 14}, {128, 14}, {192, 15}, {256, 15}, {384, 15}, {512, 16}}},
		{160, [13][2]int{{8, 11}, {12, 11}, {16, 12}, {24, 12}, {32, 12}, {48, 13}, {64, 14}, {96, 14}, {128, 15}, {192, 15}, {256, 16}, {384, 16}, {512, 16}}},
		{170, [13][2]int{{8, 11}, {12, 12}, {16, 12}, {24, 13}, {32, 13}, {48, 14}, {64, 14}, {96, 15}, {128, 15}, {192, 16}, {256, 16}, {384, 17}, {512, 17}}},
		{180, [13][2]int{{8, 12}, {12, 12}, {16, 13}, {24, 13}, {32, 13}, {48, 14}, {64, 15}, {96, 15}, {128, 16}, {192, 16}, {256, 17}, {384, 17}, {512, 18}}},
		{190, [13][2]int{{8, 12}, {12, 13}, {16, 13}, {24, 14}, {32, 14}, {48, 15}, {64, 15}, {96, 16}, {128, 17}, {192, 17}, {256, 18}, {384, 18}, {512, 19}}},
		{200, [13][2]int{{8, 13}, {12, 13}, {16, 14}, {24, 14}, {32, 15}, {48, 15}, {64, 16}, {96, 17}, {128, 17}, {192, 18}, {256, 19}, {384, 19}, {512, 20}}},
		{210, [13][2]int{{8, 13}, {12, 14}, {16, 14}, {24, 15}, {32, 15}, {48, 16}, {64, 17}, {96, 18}, {128, 18}, {192, 19}, {256, 20}, {384, 20}, {512, 21}}},
		{220, [13][2]int{{8, 14}, {12, 14}, {16, 15}, {24, 16}, {32, 16}, {48, 17}, {64, 18}, {96, 19}, {128, 19}, {192, 20}, {256, 21}, {384, 22}, {512, 22}}},
		{230, [13][2]int{{8, 14}, {12, 15}, {16, 16}, {24, 16}, {32, 17}, {48, 18}, {64, 19}, {96, 20}, {128, 20}, {192, 21}, {256, 22}, {384, 22}, {512, 23}}},
		{240, [13][2]int{{8, 15}, {12, 16}, {16, 16}, {24, 17}, {32, 18}, {48, 19}, {64, 20}, {96, 21}, {128, 22}, {192, 23}, {256, 23}, {384, 24}, {512, 24}}},
		{250, [13][2]int{{8, 16}, {12, 17}, {16, 18}, {24, 18}, {32, 19}, {48, 20}, {64, 21}, {96, 22}, {128, 23}, {192, 24}, {256, 24}, {384, 25}, {512, 25}}},
		{260, [13][2]int{{8, 17}, {12, 18}, {16, 19}, {24, 19}, {32, 21}, {48, 22}, {64, 23}, {96, 23}, {128, 24}, {192, 25}, {256, 25}, {384, 26}, {512, 26}}},
		{270, [13][2]int{{8, 18}, {12, 19}, {16, 20}, {24, 21}, {32, 22}, {48, 23}, {64, 24}, {96, 25}, {128, 25}, {192, 26}, {256, 26}, {384, 27}, {512, 27}}},
		{280, [13][2]int{{8, 19}, {12, 20}, {16, 21}, {24, 22}, {32, 23}, {48, 24}, {64, 25}, {96, 26}, {128, 26}, {192, 27}, {256, 27}, {384, 28}, {512, 28}}},
		{290, [13][2]int{{8, 20}, {12, 21}, {16, 22}, {24, 23}, {32, 24}, {48, 25}, {64, 26}, {96, 27}, {128, 27}, {192, 28}, {256, 28}, {384, 29}, {512, 29}}},
		{300, [13][2]int{{8, 21}, {12, 22}, {16, 23}, {24, 24}, {32, 24}, {48, 25}, {64, 26}, {96, 27}, {128, 28}, {192, 29}, {256, 30}, {384, 30}, {512, 30}}},
		{310, [13][2]int{{8, 22}, {12, 23}, {16, 24}, {24, 24}, {32, 25}, {48, 26}, {64, 27}, {96, 28}, {128, 29}, {192, 29}, {256, 30}, {384, 31}, {512, 31}}},
		{320, [13][2]int{{8, 22}, {12, 23}, {16, 24}, {24, 25}, {32, 26}, {48, 27}, {64, 28}, {96, 29}, {128, 30}, {192, 30}, {256, 31}, {384, 32}, {512, 32}}},
		{330, [13][2]int{{8, 23}, {12, 24}, {16, 25}, {24, 26}, {32, 26}, {48, 28}, {64, 29}, {96, 30}, {128, 31}, {192, 31}, {256, 32}, {384, 32}, {512, 33}}},
		{340, [13][2]int{{8, 24}, {12, 25}, {16, 26}, {24, 27}, {32, 27}, {48, 29}, {64, 30}, {96, 31}, {128, 31}, {192, 32}, {256, 32}, {384, 33}, {512, 34}}},
		{350, [13][2]int{{8, 25}, {12, 26}, {16, 27}, {24, 28}, {32, 28}, {48, 30}, {64, 30}, {96, 31}, {128, 32}, {192, 33}, {256, 33}, {384, 34}, {512, 35}}},
		{360, [13][2]int{{8, 26}, {12, 27}, {16, 27}, {24, 28}, {32, 29}, {48, 30}, {64, 31}, {96, 32}, {128, 33}, {192, 34}, {256, 34}, {384, 35}, {512, 36}}},
		{370, [13][2]int{{8, 27}, {12, 28}, {16, 28}, {24, 29}, {32, 30}, {48, 32}, {64, 32}, {96, 33}, {128, 34}, {192, 34}, {256, 35}, {384, 36}, {512, 37}}},
		{380, [13][2]int{{8, 28}, {12, 29}, {16, 29}, {24, 30}, {32, 31}, {48, 33}, {64, 34}, {96, 34}, {128, 35}, {192, 36}, {256, 36}, {384, 37}, {512, 38}}},
		{390, [13][2]int{{8, 29}, {12, 30}, {16, 31}, {24, 32}, {32, 33}, {48, 34}, {64, 35}, {96, 35}, {128, 36}, {192, 37}, {256, 37}, {384, 38}, {512, 39}}},
		{400, [13][2]int{{8, 30}, {12, 31}, {16, 32}, {24, 33}, {32, 34}, {48, 35}, {64, 36}, {96, 37}, {128, 37}, {192, 38}, {256, 39}, {384, 39}, {512, 40}}},
		{410, [13][2]int{{8, 31}, {12, 32}, {16, 33}, {24, 34}, {32, 35}, {48, 36}, {64, 37}, {96, 38}, {128, 38}, {192, 39}, {256, 40}, {384, 40}, {512, 41}}},
		{420, [13][2]int{{8, 32}, {12, 33}, {16, 34}, {24, 35}, {32, 36}, {48, 37}, {64, 38}, {96, 39}, {128, 39}, {192, 40}, {256, 41}, {384, 42}, {512, 42}}},
		{430, [13][2]int{{8, 33}, {12, 34}, {16, 35}, {24, 36}, {32, 37}, {48, 38}, {64, 39}, {96, 39}, {128, 40}, {192, 41}, {256, 42}, {384, 43}, {512, 43}}},
		{440, [13][2]int{{8, 34}, {12, 35}, {16, 36}, {24, 37}, {32, 38}, {48, 39}, {64, 40}, {96, 40}, {128, 41}, {192, 42}, {256, 43}, {384, 44}, {512, 44}}},
		{450, [13][2]int{{8, 35}, {12, 36}, {16, 37}, {24, 38}, {32, 39}, {48, 40}, {64, 40}, {96, 41}, {128, 42}, {192, 43}, {256, 44}, {384, 45}, {512, 45}}},
		{460, [13][2]int{{8, 36}, {12, 37}, {16, 38}, {24, 39}, {32, 40}, {48, 41}, {64, 41}, {96, 42}, {128, 43}, {192, 44}, {256, 45}, {384, 46}, {512, 46}}},
		{470, [13][2]int{{8, 37}, {12, 38}, {16, 39}, {24, 40}, {32, 41}, {48, 42}, {64, 42}, {96, 43}, {128, 44}, {192, 45}, {256, 46}, {384, 47}, {512, 47}}},
		{480, [13][2]int{{8, 38}, {12, 39}, {16, 40}, {24, 41}, {32, 42}, {48, 43}, {64, 43}, {96, 44}, {128, 45}, {192, 46}, {256, 47}, {384, 48}, {512, 48}}},
		{490, [13][2]int{{8, 39}, {12, 40}, {16, 41}, {24, 42}, {32, 43}, {48, 44}, {64, 44}, {96, 45}, {128, 46}, {192, 47}, {256, 48}, {384, 49}, {512, 49}}},
		{500, [13][2]int{{8, 40}, {12, 41}, {16, 42}, {24, 43}, {32, 44}, {48, 45}, {64, 45}, {96, 46}, {128, 47}, {192, 48}, {256, 49}, {384, 50}, {512, 50}}},
	}

	rows := make([]bpmRow, len(raw))
	for i, r := range raw {
		entries := make([]measureEntry, len(r.entries))
		for j, e := range r.entries {
			entries[j] = measureEntry{measures: e[0], difficulty: e[1]}
		}
		rows[i] = bpmRow{bpm: r.bpm, entries: entries}
	}
	return rows
}

// findBoundingBPMs returns the two table BPM rows bracketing bpm, clamped
// to the table's outer rows when bpm falls outside its range.
func findBoundingBPMs(bpm float64) (int, int) {
	n := len(table)
	if n == 0 {
		return 0, 0
	}

	maxBPM := table[n-1].bpm
	if bpm > float64(maxBPM) {
		if n >= 2 {
			return table[n-2].bpm, maxBPM
		}
		return maxBPM, maxBPM
	}

	minBPM := table[0].bpm
	if bpm < float64(minBPM) {
		if n >= 2 {
			return minBPM, table[1].bpm
		}
		return minBPM, minBPM
	}

	idx := sort.Search(n, func(i int) bool { return table[i].bpm > int(bpm) })
	lowerIdx := idx - 1
	if lowerIdx < 0 {
		lowerIdx = 0
	}
	upperIdx := idx
	if upperIdx >= n {
		upperIdx = n - 1
	}
	return table[lowerIdx].bpm, table[upperIdx].bpm
}

func rowFor(bpm int) []measureEntry {
	for _, r := range table {
		if r.bpm == bpm {
			return r.entries
		}
	}
	return nil
}

func findLowerBound(measures float64, entries []measureEntry) (int, int) {
	for i := len(entries) - 1; i >= 0; i-- {
		if float64(entries[i].measures) <= measures {
			return entries[i].measures, entries[i].difficulty
		}
	}
	return 0, 0
}

func findRangeStart(baseDifficulty int, entries []measureEntry) int {
	for _, e := range entries {
		if e.difficulty == baseDifficulty {
			return e.measures
		}
	}
	return 0
}

func findRangeEnd(rangeStart, baseDifficulty int, entries []measureEntry) float64 {
	for _, e := range entries {
		if e.measures > rangeStart && e.difficulty > baseDifficulty {
			return float64(e.measures)
		}
	}
	return math.Inf(1)
}

func maxDifficulty(entries []measureEntry) int {
	max := 0
	for _, e := range entries {
		if e.difficulty > max {
			max = e.difficulty
		}
	}
	return max
}

func calculateDifficultyForBPM(measures float64, entries []measureEntry) float64 {
	if measures <= 0 || len(entries) == 0 {
		return 0
	}

	minMeasure := float64(entries[0].measures)
	if measures < minMeasure {
		minDifficulty := float64(entries[0].difficulty)
		adjustment := math.Log(minMeasure / measures)
		return math.Max(minDifficulty-adjustment, 0)
	}

	_, baseDifficulty := findLowerBound(measures, entries)
	maxDiff := maxDifficulty(entries)

	if baseDifficulty == maxDiff {
		plateauStart := findRangeStart(maxDiff, entries)
		if measures <= float64(plateauStart) {
			return float64(baseDifficulty)
		}
		return float64(baseDifficulty) + math.Log(measures/float64(plateauStart))
	}

	rangeStart := findRangeStart(baseDifficulty, entries)
	rangeEnd := findRangeEnd(rangeStart, baseDifficulty, entries)
	if measures <= float64(rangeStart) {
		return float64(baseDifficulty)
	}
	logProgress := (math.Log(measures) - math.Log(float64(rangeStart))) / (math.Log(rangeEnd) - math.Log(float64(rangeStart)))
	return float64(baseDifficulty) + logProgress
}

// Get interpolates a difficulty rating for bpm and a measure count,
// extrapolating below the table's lowest measure column and scaling
// plateaus above its highest recorded difficulty for that BPM row.
func Get(bpm, measures float64) float64 {
	bpm1, bpm2 := findBoundingBPMs(bpm)

	diffAtBPM1 := calculateDifficultyForBPM(measures, rowFor(bpm1))
	if bpm1 == bpm2 {
		return diffAtBPM1
	}

	diffAtBPM2 := calculateDifficultyForBPM(measures, rowFor(bpm2))
	bpmRange := float64(bpm2 - bpm1)
	if bpmRange == 0 {
		return diffAtBPM1
	}

	progress := (bpm - float64(bpm1)) / bpmRange
	return diffAtBPM1 + (diffAtBPM2-diffAtBPM1)*progress
}

func densityMultiplier(cat stream.RunDensity) float64 {
	switch cat {
	case stream.Run16:
		return 1.0
	case stream.Run20:
		return 1.25
	case stream.Run24:
		return 1.5
	case stream.Run32:
		return 2.0
	default:
		return 0
	}
}

type streamKey struct {
	cat stream.RunDensity
	bpm float64
}

// ComputeMatrixRating derives the maximum matrix difficulty across every
// (density class, bpm) bucket present in measureDensities, weighting
// each bucket's effective BPM by its density-class multiplier.
func ComputeMatrixRating(measureDensities []int, bpmMap []BeatValue) float64 {
	if len(measureDensities) == 0 || len(bpmMap) == 0 {
		return 0
	}

	counts := make(map[streamKey]int)
	for i, density := range measureDensities {
		cat := stream.Categorize(density)
		if cat == stream.Break {
			continue
		}
		beat := float64(i) * 4.0
		bpm := currentBPM(beat, bpmMap)
		if bpm <= 0 {
			continue
		}
		counts[streamKey{cat: cat, bpm: bpm}]++
	}

	best := 0.0
	for key, count := range counts {
		effectiveBPM := key.bpm * densityMultiplier(key.cat)
		if effectiveBPM <= 0 {
			continue
		}
		d := Get(effectiveBPM, float64(count))
		if d > best {
			best = d
		}
	}
	return best
}

// TierBPM reduces a chart to a single sustained-stream tempo: the
// highest effective BPM (measure BPM scaled by its density-class
// multiplier) that the chart holds for at least minMeasures run
// measures. Charts with no qualifying run return 0.
func TierBPM(measureDensities []int, bpmMap []BeatValue, minMeasures float64) float64 {
	if len(measureDensities) == 0 || len(bpmMap) == 0 {
		return 0
	}

	counts := make(map[streamKey]int)
	for i, density := range measureDensities {
		cat := stream.Categorize(density)
		if cat == stream.Break {
			continue
		}
		beat := float64(i) * 4.0
		bpm := currentBPM(beat, bpmMap)
		if bpm <= 0 {
			continue
		}
		counts[streamKey{cat: cat, bpm: bpm}]++
	}

	best := 0.0
	for key, count := range counts {
		if float64(count) < minMeasures {
			continue
		}
		effectiveBPM := key.bpm * densityMultiplier(key.cat)
		if effectiveBPM > best {
			best = effectiveBPM
		}
	}
	return best
}

// BeatValue mirrors internal/timing.BeatValue without importing it, to
// keep this package's public surface independent of the timing package's
// internal representation.
type BeatValue struct {
	Beat  float64
	Value float64
}

func currentBPM(beat float64, bpmMap []BeatValue) float64 {
	curr := 0.0
	if len(bpmMap) > 0 {
		curr = bpmMap[0].Value
	}
	for _, bv := range bpmMap {
		if beat >= bv.Beat {
			curr = bv.Value
		} else {
			break
		}
	}
	return curr
}

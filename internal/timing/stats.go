package timing

import "sort"

// CurrentBPM returns the BPM in effect at beat, scanning a beat-sorted
// (beat, bpm) map linearly.
func CurrentBPM(beat float64, bpmMap []BeatValue) float64 {
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

// BPMRange returns the rounded (min, max) BPM across a bpm map.
func BPMRange(bpmMap []BeatValue) (int, int) {
	if len(bpmMap) == 0 {
		return 0, 0
	}
	minBPM, maxBPM := bpmMap[0].Value, bpmMap[0].Value
	for _, bv := range bpmMap {
		if bv.Value < minBPM {
			minBPM = bv.Value
		}
		if bv.Value > maxBPM {
			maxBPM = bv.Value
		}
	}
	return int(round(minBPM)), int(round(maxBPM))
}

func round(f float64) float64 {
	if f >= 0 {
		return float64(int64(f + 0.5))
	}
	return float64(int64(f - 0.5))
}

// Median returns the median of a float64 slice (average of the two
// middle elements for an even-length slice), 0 for an empty slice.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Mean returns the arithmetic mean of a float64 slice, 0 for an empty
// slice.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// MeasureNPSVec computes notes-per-second for each measure given its
// step-row density and the BPM in effect at its start beat.
func MeasureNPSVec(measureDensities []int, bpmMap []BeatValue) []float64 {
	out := make([]float64, len(measureDensities))
	for i, density := range measureDensities {
		beat := float64(i) * 4.0
		bpm := CurrentBPM(beat, bpmMap)
		if bpm <= 0 {
			continue
		}
		out[i] = float64(density) * (bpm / 4.0) / 60.0
	}
	return out
}

// NPSStats returns (max, median) across a measure NPS vector.
func NPSStats(measureNPS []float64) (max, median float64) {
	if len(measureNPS) == 0 {
		return 0, 0
	}
	max = measureNPS[0]
	for _, v := range measureNPS[1:] {
		if v > max {
			max = v
		}
	}
	return max, Median(measureNPS)
}

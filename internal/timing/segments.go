// Package timing parses BPM/stop/delay/warp/speed/scroll/fake tag text into
// TimingSegments and evaluates the resulting beat<->time function.
//
// The SM and SSC formats reconcile BPM and stop changes differently: SM
// synthesizes warp regions from negative/overflow BPMs and negative stops,
// while SSC trusts the values as given. Both code paths live here side by
// side because they share the same tidy/parse helpers.
package timing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Format selects which reconciliation rules apply to BPM/stop changes.
type Format int

const (
	Sm Format = iota
	Ssc
)

// FormatFromExtension maps a file extension to a Format; anything other
// than "sm" is treated as Ssc.
func FormatFromExtension(extension string) Format {
	if strings.EqualFold(extension, "sm") {
		return Sm
	}
	return Ssc
}

const (
	defaultBPM  = 60.0
	fastBPMWarp = 9_999_999.0

	// ROWSPerBeat is the row quantization StepMania conventions use for
	// comparing simultaneous events.
	ROWSPerBeat = 48
)

// SpeedUnit distinguishes a speed segment's delay column: beats or seconds.
type SpeedUnit int

const (
	SpeedUnitBeats SpeedUnit = iota
	SpeedUnitSeconds
)

// BeatValue is a generic (beat, value) breakpoint shared by several segment
// kinds.
type BeatValue struct {
	Beat  float64
	Value float64
}

// SpeedSegment is a #SPEEDS: entry: beat, ratio, delay (beats or seconds).
type SpeedSegment struct {
	Beat  float64
	Ratio float64
	Delay float64
	Unit  SpeedUnit
}

// Segments holds the semantically-immutable timing tables for one simfile
// or chart. Instances are built once and shared (by reference) between
// charts that lack their own timing.
type Segments struct {
	Beat0OffsetAdjust float64
	BPMs              []BeatValue
	Stops             []BeatValue
	Delays            []BeatValue
	Warps             []BeatValue
	Speeds            []SpeedSegment
	Scrolls           []BeatValue
	Fakes             []BeatValue
}

// TagText bundles the raw per-concern tag strings (global, with an optional
// chart-local override) that feed BuildSegments.
type TagText struct {
	ChartBPMs, GlobalBPMs         string
	ChartStops, GlobalStops       string
	ChartDelays, GlobalDelays     string
	ChartWarps, GlobalWarps       string
	ChartSpeeds, GlobalSpeeds     string
	ChartScrolls, GlobalScrolls   string
	ChartFakes, GlobalFakes       string
	ChartBPMsSet, ChartStopsSet   bool
	ChartDelaysSet, ChartWarpsSet bool
	ChartSpeedsSet                bool
	ChartScrollsSet, ChartFakesSet bool
}

// resolveChartTag implements the "empty chart tag means not present" rule
// shared by every timing concern.
func resolveChartTag(set bool, chartVal, globalVal string) string {
	if set && strings.TrimSpace(chartVal) != "" {
		return chartVal
	}
	return globalVal
}

// NormalizeBPMText rounds each beat/bpm component to three decimals and
// rejoins with commas. The output feeds chart hashing, so it must be
// stable across whitespace and trailing-zero differences.
func NormalizeBPMText(param string) string {
	var b strings.Builder
	first := true
	for _, pair := range strings.Split(param, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false

		parts := strings.SplitN(pair, "=", 2)
		beatStr := ""
		bpmStr := ""
		if len(parts) > 0 {
			beatStr = strings.TrimFunc(parts[0], isControl)
		}
		if len(parts) > 1 {
			bpmStr = strings.TrimFunc(parts[1], isControl)
		}

		beatVal, errB := strconv.ParseFloat(beatStr, 64)
		bpmVal, errP := strconv.ParseFloat(bpmStr, 64)
		if errB == nil && errP == nil {
			beatRounded := math.Round(beatVal*1000) / 1000
			bpmRounded := math.Round(bpmVal*1000) / 1000
			fmt.Fprintf(&b, "%.3f=%.3f", beatRounded, bpmRounded)
		} else {
			b.WriteString(pair)
		}
	}
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// ParseBPMMap parses a normalized "beat=bpm,beat=bpm,..." string into a
// beat-sorted slice of pairs. Malformed entries are skipped.
func ParseBPMMap(normalized string) []BeatValue {
	var out []BeatValue
	for _, chunk := range strings.Split(normalized, ",") {
		chunk = strings.TrimSpace(chunk)
		eq := strings.IndexByte(chunk, '=')
		if eq < 0 {
			continue
		}
		left := strings.TrimSpace(chunk[:eq])
		right := strings.TrimSpace(chunk[eq+1:])
		beat, errB := strconv.ParseFloat(left, 64)
		bpm, errP := strconv.ParseFloat(right, 64)
		if errB == nil && errP == nil {
			out = append(out, BeatValue{Beat: beat, Value: bpm})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Beat < out[j].Beat })
	return out
}

func parseF64(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseBeatValuePairs(s string) []BeatValue {
	var out []BeatValue
	if strings.TrimSpace(s) == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		beat, ok1 := parseF64(part[:eq])
		val, ok2 := parseF64(part[eq+1:])
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, BeatValue{Beat: beat, Value: val})
	}
	return out
}

func parseFakes(s string) []BeatValue {
	var out []BeatValue
	for _, bv := range parseBeatValuePairs(s) {
		if math.IsInf(bv.Beat, 0) || math.IsNaN(bv.Beat) {
			continue
		}
		if !math.IsInf(bv.Value, 0) && !math.IsNaN(bv.Value) && bv.Value > 0 {
			out = append(out, bv)
		}
	}
	return out
}

func parseSpeeds(s string) []SpeedSegment {
	var out []SpeedSegment
	if strings.TrimSpace(s) == "" {
		return out
	}
	for _, chunk := range strings.Split(s, ",") {
		parts := strings.Split(chunk, "=")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 3 {
			continue
		}
		beat, ok1 := parseF64(parts[0])
		ratio, ok2 := parseF64(parts[1])
		delay, ok3 := parseF64(parts[2])
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		unit := SpeedUnitBeats
		if len(parts) > 3 && parts[3] == "1" {
			unit = SpeedUnitSeconds
		}
		out = append(out, SpeedSegment{Beat: beat, Ratio: ratio, Delay: delay, Unit: unit})
	}
	return out
}

// BuildSegments parses a TagText bundle into Segments, applying the SM or
// SSC BPM/stop reconciliation rules per format.
func BuildSegments(tags TagText, format Format) Segments {
	bpmsStr := resolveChartTag(tags.ChartBPMsSet, tags.ChartBPMs, tags.GlobalBPMs)
	normalizedBPMs := NormalizeBPMText(bpmsStr)
	parsedBPMs := ParseBPMMap(normalizedBPMs)
	if len(parsedBPMs) == 0 {
		parsedBPMs = []BeatValue{{Beat: 0, Value: defaultBPM}}
	}

	stopsStr := resolveChartTag(tags.ChartStopsSet, tags.ChartStops, tags.GlobalStops)
	rawStops := parseBeatValuePairs(stopsStr)

	var outBPMs, outStops, outWarps []BeatValue
	var beat0Adjust float64
	switch format {
	case Sm:
		outBPMs, outStops, outWarps, beat0Adjust = processBPMsAndStopsSM(parsedBPMs, rawStops)
	default:
		outBPMs, outStops, outWarps, beat0Adjust = processBPMsAndStopsSSC(parsedBPMs, rawStops)
	}
	if len(outBPMs) == 0 {
		outBPMs = []BeatValue{{Beat: 0, Value: defaultBPM}}
	}

	delaysStr := resolveChartTag(tags.ChartDelaysSet, tags.ChartDelays, tags.GlobalDelays)
	delays := parseBeatValuePairs(delaysStr)

	warpsStr := resolveChartTag(tags.ChartWarpsSet, tags.ChartWarps, tags.GlobalWarps)
	warps := append(parseBeatValuePairs(warpsStr), outWarps...)

	speedsStr := resolveChartTag(tags.ChartSpeedsSet, tags.ChartSpeeds, tags.GlobalSpeeds)
	speeds := parseSpeeds(speedsStr)

	scrollsStr := resolveChartTag(tags.ChartScrollsSet, tags.ChartScrolls, tags.GlobalScrolls)
	scrolls := parseBeatValuePairs(scrollsStr)

	fakesStr := resolveChartTag(tags.ChartFakesSet, tags.ChartFakes, tags.GlobalFakes)
	fakes := parseFakes(fakesStr)

	sort.SliceStable(speeds, func(i, j int) bool { return speeds[i].Beat < speeds[j].Beat })
	sort.SliceStable(scrolls, func(i, j int) bool { return scrolls[i].Beat < scrolls[j].Beat })
	sort.SliceStable(warps, func(i, j int) bool { return warps[i].Beat < warps[j].Beat })
	sort.SliceStable(fakes, func(i, j int) bool { return fakes[i].Beat < fakes[j].Beat })

	return Segments{
		Beat0OffsetAdjust: beat0Adjust,
		BPMs:              outBPMs,
		Stops:             outStops,
		Delays:            delays,
		Warps:             warps,
		Speeds:            speeds,
		Scrolls:           scrolls,
		Fakes:             fakes,
	}
}

func tidyBPMs(bpms []BeatValue) []BeatValue {
	if len(bpms) == 0 {
		return []BeatValue{{Beat: 0, Value: defaultBPM}}
	}

	sorted := append([]BeatValue(nil), bpms...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Beat < sorted[j].Beat })

	var lastPerBeat []BeatValue
	for _, bv := range sorted {
		if n := len(lastPerBeat); n > 0 && lastPerBeat[n-1].Beat == bv.Beat {
			lastPerBeat[n-1] = bv
			continue
		}
		lastPerBeat = append(lastPerBeat, bv)
	}

	if len(lastPerBeat) > 0 && lastPerBeat[0].Beat != 0 {
		lastPerBeat[0].Beat = 0
	}

	var tidied []BeatValue
	haveLast := false
	var lastValue float64
	for _, bv := range lastPerBeat {
		if haveLast && lastValue == bv.Value {
			continue
		}
		haveLast = true
		lastValue = bv.Value
		tidied = append(tidied, bv)
	}

	if len(tidied) == 0 {
		tidied = []BeatValue{{Beat: 0, Value: defaultBPM}}
	}
	return tidied
}

// processBPMsAndStopsSM synthesizes warp regions from negative/overflow
// BPMs and negative stops, the way SM-format files encode skips.
func processBPMsAndStopsSM(bpms, stops []BeatValue) (outBPMs, outStops, outWarps []BeatValue, beat0Offset float64) {
	var bpmChanges []BeatValue
	for _, bv := range bpms {
		if isFinite(bv.Beat) && isFinite(bv.Value) && bv.Value != 0 {
			bpmChanges = append(bpmChanges, bv)
		}
	}
	sort.SliceStable(bpmChanges, func(i, j int) bool { return bpmChanges[i].Beat < bpmChanges[j].Beat })

	var stopChanges []BeatValue
	for _, bv := range stops {
		if isFinite(bv.Beat) && isFinite(bv.Value) && bv.Value != 0 {
			stopChanges = append(stopChanges, bv)
		}
	}
	sort.SliceStable(stopChanges, func(i, j int) bool { return stopChanges[i].Beat < stopChanges[j].Beat })

	stopIdx := 0
	for stopIdx < len(stopChanges) && stopChanges[stopIdx].Beat < 0 {
		beat0Offset -= stopChanges[stopIdx].Value
		stopIdx++
	}

	bpmIdx := 0
	bpm := 0.0
	for bpmIdx < len(bpmChanges) && bpmChanges[bpmIdx].Beat <= 0 {
		bpm = bpmChanges[bpmIdx].Value
		bpmIdx++
	}

	if bpm == 0 {
		if bpmIdx == len(bpmChanges) {
			bpm = defaultBPM
		} else {
			bpm = bpmChanges[bpmIdx].Value
			bpmIdx++
		}
	}

	prevBeat := 0.0
	warping := false
	var warpStart, prewarpBPM, timeOffsetSec float64

	if bpm > 0 && bpm <= fastBPMWarp {
		outBPMs = append(outBPMs, BeatValue{Beat: 0, Value: bpm})
	} else {
		// A chart that opens on a negative or overflow BPM is inside a
		// warp region from beat 0.
		warping = true
		warpStart = 0
	}

	for bpmIdx < len(bpmChanges) || stopIdx < len(stopChanges) {
		changeIsBPM := stopIdx == len(stopChanges) ||
			(bpmIdx < len(bpmChanges) && bpmChanges[bpmIdx].Beat <= stopChanges[stopIdx].Beat)

		var changeBeat, changeVal float64
		if changeIsBPM {
			changeBeat, changeVal = bpmChanges[bpmIdx].Beat, bpmChanges[bpmIdx].Value
		} else {
			changeBeat, changeVal = stopChanges[stopIdx].Beat, stopChanges[stopIdx].Value
		}

		// Beats elapsed under a negative or overflow BPM contribute no
		// real time; only a valid BPM accumulates toward closing a warp.
		if bpm > 0 && bpm <= fastBPMWarp {
			timeOffsetSec += (changeBeat - prevBeat) * 60.0 / bpm
			if warping && timeOffsetSec > 0 {
				warpEnd := changeBeat - (timeOffsetSec * bpm / 60.0)
				if warpEnd > warpStart {
					outWarps = append(outWarps, BeatValue{Beat: warpStart, Value: warpEnd - warpStart})
				}
				if bpm != prewarpBPM {
					outBPMs = append(outBPMs, BeatValue{Beat: warpStart, Value: bpm})
				}
				warping = false
			}
		}

		prevBeat = changeBeat

		if changeIsBPM {
			if !warping && (changeVal < 0 || changeVal > fastBPMWarp) {
				warping = true
				warpStart = changeBeat
				prewarpBPM = bpm
				timeOffsetSec = 0
			} else if !warping {
				outBPMs = append(outBPMs, BeatValue{Beat: changeBeat, Value: changeVal})
			}
			bpm = changeVal
			bpmIdx++
		} else {
			if !warping && changeVal < 0 {
				warping = true
				warpStart = changeBeat
				prewarpBPM = bpm
				timeOffsetSec = changeVal
			} else if !warping {
				outStops = append(outStops, BeatValue{Beat: changeBeat, Value: changeVal})
			} else {
				timeOffsetSec += changeVal
				if changeVal > 0 && timeOffsetSec > 0 {
					if bpm > 0 && bpm <= fastBPMWarp {
						warpEnd := changeBeat
						if warpEnd > warpStart {
							outWarps = append(outWarps, BeatValue{Beat: warpStart, Value: warpEnd - warpStart})
						}
						outStops = append(outStops, BeatValue{Beat: changeBeat, Value: timeOffsetSec})
						if bpm != prewarpBPM {
							outBPMs = append(outBPMs, BeatValue{Beat: warpStart, Value: bpm})
						}
						warping = false
					} else {
						// The BPM in effect is itself warp-inducing: the
						// stop is swallowed by the region and cannot
						// close it.
						timeOffsetSec = 0
					}
				}
			}
			stopIdx++
		}
	}

	if warping {
		var warpEnd float64
		if bpm < 0 || bpm > fastBPMWarp {
			warpEnd = 99_999_999.0
		} else {
			warpEnd = prevBeat - (timeOffsetSec * bpm / 60.0)
		}
		if warpEnd > warpStart {
			outWarps = append(outWarps, BeatValue{Beat: warpStart, Value: warpEnd - warpStart})
		}
		if bpm != prewarpBPM {
			outBPMs = append(outBPMs, BeatValue{Beat: warpStart, Value: bpm})
		}
	}

	outBPMs = tidyBPMs(outBPMs)
	sort.SliceStable(outStops, func(i, j int) bool { return outStops[i].Beat < outStops[j].Beat })
	sort.SliceStable(outWarps, func(i, j int) bool { return outWarps[i].Beat < outWarps[j].Beat })

	return outBPMs, outStops, outWarps, beat0Offset
}

// processBPMsAndStopsSSC trusts the BPM/stop text as given: no warp
// synthesis, just filtering to finite positive entries.
func processBPMsAndStopsSSC(bpms, stops []BeatValue) (outBPMs, outStops, outWarps []BeatValue, beat0Offset float64) {
	var bpmChanges []BeatValue
	for _, bv := range bpms {
		if isFinite(bv.Beat) && isFinite(bv.Value) && bv.Beat >= 0 && bv.Value > 0 {
			bpmChanges = append(bpmChanges, bv)
		}
	}
	sort.SliceStable(bpmChanges, func(i, j int) bool { return bpmChanges[i].Beat < bpmChanges[j].Beat })

	for _, s := range stops {
		if isFinite(s.Beat) && isFinite(s.Value) && s.Beat >= 0 && s.Value > 0 {
			outStops = append(outStops, s)
		}
	}
	sort.SliceStable(outStops, func(i, j int) bool { return outStops[i].Beat < outStops[j].Beat })

	return tidyBPMs(bpmChanges), outStops, nil, 0
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

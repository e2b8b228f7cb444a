package simfile

import (
	"strings"

	"simfile-analyzer/internal/hashing"
	"simfile-analyzer/internal/minimize"
	"simfile-analyzer/internal/tagextract"
	"simfile-analyzer/internal/timing"
)

// ComputeAllHashes is the hash-only fast path: tag extraction, per-chart
// minimization and BPM normalization, nothing else.
func ComputeAllHashes(data []byte, extension string) ([]ChartHashEntry, error) {
	extracted, err := tagextract.Extract(data, extension)
	if err != nil {
		return nil, err
	}

	format := timing.FormatFromExtension(extension)
	version := parseFloatText(tagString(extracted.Version))
	allowStepsTiming := format == timing.Ssc && version >= minSplitTimingVersion
	globalNormalized := timing.NormalizeBPMText(tagString(extracted.BPMs))

	var out []ChartHashEntry
	for _, entry := range extracted.Charts {
		lanes, ok := stepTypeLanes(tagString(entry.StepType))
		if !ok {
			continue
		}

		normalized := globalNormalized
		if allowStepsTiming && strings.TrimSpace(tagString(entry.BPMs)) != "" {
			normalized = timing.NormalizeBPMText(tagString(entry.BPMs))
		}

		res := minimize.Minimize(entry.NoteData, lanes)
		out = append(out, ChartHashEntry{
			StepType:   tagString(entry.StepType),
			Difficulty: tagString(entry.Difficulty),
			Hash:       hashing.ShortHash(trimTrailingNewlines(res.NoteData), normalized),
		})
	}

	if len(out) == 0 {
		return nil, ErrNoChartsMatched
	}
	return out, nil
}

// ComputeChartDurations is the duration-only fast path: tag extraction,
// minimization for the last beat, timing construction, one time lookup
// per chart.
func ComputeChartDurations(data []byte, extension string, offsets TimingOffsets) ([]ChartDuration, error) {
	extracted, err := tagextract.Extract(data, extension)
	if err != nil {
		return nil, err
	}

	format := timing.FormatFromExtension(extension)
	version := parseFloatText(tagString(extracted.Version))
	allowStepsTiming := format == timing.Ssc && version >= minSplitTimingVersion
	songOffset := parseFloatText(tagString(extracted.Offset))

	globalTags := globalTagText(extracted)
	globalSegs := timing.BuildSegments(globalTags, format)
	globalTiming := timing.NewData(globalSegs, -songOffset, 0)

	var out []ChartDuration
	for _, entry := range extracted.Charts {
		lanes, ok := stepTypeLanes(tagString(entry.StepType))
		if !ok {
			continue
		}

		td := globalTiming
		if allowStepsTiming && chartHasOwnTiming(&entry) {
			tags := globalTags
			applyChartOverrides(&tags, &entry)
			segs := timing.BuildSegments(tags, format)
			chartOffset := songOffset
			if entry.Offset != nil {
				chartOffset = parseFloatText(tagString(entry.Offset))
			}
			td = timing.NewData(segs, -chartOffset, 0)
		}

		res := minimize.Minimize(entry.NoteData, lanes)
		duration := 0.0
		if len(res.Rows) > 0 {
			duration = chartDurationSeconds(res.LastBeat, td, offsets)
		}

		out = append(out, ChartDuration{
			StepType:        tagString(entry.StepType),
			Difficulty:      tagString(entry.Difficulty),
			DurationSeconds: duration,
		})
	}

	if len(out) == 0 {
		return nil, ErrNoChartsMatched
	}
	return out, nil
}

// ComputeChartPeakNPS is the peak-NPS fast path: tag extraction,
// minimization for densities, timing construction, and the per-measure
// NPS maximum.
func ComputeChartPeakNPS(data []byte, extension string) ([]ChartPeakNPS, error) {
	extracted, err := tagextract.Extract(data, extension)
	if err != nil {
		return nil, err
	}

	format := timing.FormatFromExtension(extension)
	version := parseFloatText(tagString(extracted.Version))
	allowStepsTiming := format == timing.Ssc && version >= minSplitTimingVersion
	songOffset := parseFloatText(tagString(extracted.Offset))

	globalTags := globalTagText(extracted)
	globalSegs := timing.BuildSegments(globalTags, format)
	globalTiming := timing.NewData(globalSegs, -songOffset, 0)

	var out []ChartPeakNPS
	for _, entry := range extracted.Charts {
		lanes, ok := stepTypeLanes(tagString(entry.StepType))
		if !ok {
			continue
		}

		td := globalTiming
		if allowStepsTiming && chartHasOwnTiming(&entry) {
			tags := globalTags
			applyChartOverrides(&tags, &entry)
			td = timing.NewData(timing.BuildSegments(tags, format), -songOffset, 0)
		}

		res := minimize.Minimize(entry.NoteData, lanes)
		npsVec := timing.MeasureNPSVec(res.MeasureDensities, td.BPMSegments())
		peak, _ := timing.NPSStats(npsVec)

		out = append(out, ChartPeakNPS{
			StepType:   tagString(entry.StepType),
			Difficulty: tagString(entry.Difficulty),
			PeakNPS:    peak,
		})
	}

	if len(out) == 0 {
		return nil, ErrNoChartsMatched
	}
	return out, nil
}

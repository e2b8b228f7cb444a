package simfile

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"simfile-analyzer/config"
	"simfile-analyzer/internal/difficulty"
	"simfile-analyzer/internal/hashing"
	"simfile-analyzer/internal/minimize"
	"simfile-analyzer/internal/parity"
	"simfile-analyzer/internal/pattern"
	"simfile-analyzer/internal/stream"
	"simfile-analyzer/internal/tagextract"
	"simfile-analyzer/internal/tech"
	"simfile-analyzer/internal/timing"
)

// minSplitTimingVersion is the SSC format version from which per-chart
// timing tags are honored. SM files never carry split timing.
const minSplitTimingVersion = 0.77

// tierBPMMinMeasures is the minimum sustained run length, in measures,
// for a tempo to qualify as a chart's tier BPM.
const tierBPMMinMeasures = 4.0

// Analyze runs the full analytical pipeline over one simfile's bytes.
// extension must be "sm" or "ssc". Malformed content degrades to
// conservative defaults; the only hard failures are an unsupported
// extension and a file in which no supported chart survives.
func Analyze(data []byte, extension string, opts AnalysisOptions) (*SimfileSummary, error) {
	extracted, err := tagextract.Extract(data, extension)
	if err != nil {
		return nil, err
	}

	if opts.MonoThreshold <= 0 {
		opts.MonoThreshold = DefaultAnalysisOptions().MonoThreshold
	}

	format := timing.FormatFromExtension(extension)
	sum := buildMetadata(extracted, format, opts)

	allowStepsTiming := format == timing.Ssc && sum.SSCVersion >= minSplitTimingVersion

	globalTags := globalTagText(extracted)
	globalSegs := timing.BuildSegments(globalTags, format)
	globalTiming := timing.NewData(globalSegs, -sum.OffsetSeconds, 0)

	bpmValues := make([]float64, len(globalSegs.BPMs))
	for i, bv := range globalSegs.BPMs {
		bpmValues[i] = bv.Value
	}
	sum.MinBPM, sum.MaxBPM = timing.BPMRange(globalSegs.BPMs)
	sum.MedianBPM = timing.Median(bpmValues)
	sum.AverageBPM = timing.Mean(bpmValues)

	sum.PatternCountsEnabled = opts.ComputePatternCounts
	sum.TechCountsEnabled = opts.ComputeTechCounts

	customTemplates := compileCustomPatterns(opts.CustomPatterns)

	cfg := config.DefaultConfig()
	cfg.MonoThreshold = opts.MonoThreshold

	// Parity row scratch, reused across this simfile's charts.
	rowScratch := make([]parity.RowInput, 0, 1024)

	for _, entry := range extracted.Charts {
		lanes, ok := stepTypeLanes(tagString(entry.StepType))
		if !ok {
			continue
		}

		cs := ChartSummary{
			StepType:    tagString(entry.StepType),
			Difficulty:  tagString(entry.Difficulty),
			Meter:       tagString(entry.Meter),
			Description: tagString(entry.Description),
			Credit:      tagString(entry.Credit),
			Lanes:       lanes,
		}
		cs.StepArtist = stepArtist(cs.Credit, cs.Description, format)
		cs.TechNotation = tech.ParseTechNotation(cs.Credit, cs.Description)

		td := globalTiming
		normalizedBPMs := sum.NormalizedBPMs
		cs.OffsetSeconds = sum.OffsetSeconds
		if allowStepsTiming && chartHasOwnTiming(&entry) {
			cs.HasOwnTiming = true
			copyChartTimingText(&cs, &entry)
			tags := globalTags
			applyChartOverrides(&tags, &entry)
			segs := timing.BuildSegments(tags, format)
			if entry.Offset != nil {
				cs.OffsetSeconds = parseFloatText(tagString(entry.Offset))
			}
			td = timing.NewData(segs, -cs.OffsetSeconds, 0)
			if strings.TrimSpace(cs.ChartBPMs) != "" {
				normalizedBPMs = timing.NormalizeBPMText(cs.ChartBPMs)
			}
		}
		cs.Timing = td
		cs.NormalizedBPMs = normalizedBPMs

		res := minimize.Minimize(entry.NoteData, lanes)
		cs.MinimizedNoteData = res.NoteData
		cs.Stats = res.Stats
		cs.MeasureDensities = res.MeasureDensities
		cs.TotalMeasures = len(res.MeasureDensities)
		cs.RowToBeat = make([]float64, len(res.Rows))
		for i, r := range res.Rows {
			cs.RowToBeat[i] = r.Beat
		}

		cs.StreamCounts = stream.ComputeCounts(res.MeasureDensities)
		cs.TotalStreams = cs.StreamCounts.Run16Streams + cs.StreamCounts.Run20Streams +
			cs.StreamCounts.Run24Streams + cs.StreamCounts.Run32Streams

		cs.DetailedBreakdown = stream.GenerateBreakdown(res.MeasureDensities, stream.Detailed)
		cs.PartialBreakdown = stream.GenerateBreakdown(res.MeasureDensities, stream.Partial)
		cs.SimpleBreakdown = stream.GenerateBreakdown(res.MeasureDensities, stream.Simplified)
		cs.SNDetailedBreakdown = stream.GenerateSNBreakdownLevel(res.MeasureDensities, stream.Detailed)
		cs.SNPartialBreakdown = stream.GenerateSNBreakdownLevel(res.MeasureDensities, stream.Partial)
		cs.SNSimpleBreakdown = stream.GenerateSNBreakdownLevel(res.MeasureDensities, stream.Simplified)

		bpmMap := td.BPMSegments()
		cs.MeasureNPSVec = timing.MeasureNPSVec(res.MeasureDensities, bpmMap)
		cs.MaxNPS, cs.MedianNPS = timing.NPSStats(cs.MeasureNPSVec)

		diffMap := make([]difficulty.BeatValue, len(bpmMap))
		for i, bv := range bpmMap {
			diffMap[i] = difficulty.BeatValue{Beat: bv.Beat, Value: bv.Value}
		}
		cs.MatrixRating = roundDP(difficulty.ComputeMatrixRating(res.MeasureDensities, diffMap), 2)
		cs.TierBPM = roundDP(difficulty.TierBPM(res.MeasureDensities, diffMap, tierBPMMinMeasures), 2)

		if lanes == 4 {
			streamMasks := make([]byte, len(res.Rows))
			for i, r := range res.Rows {
				streamMasks[i] = r.Mask
			}
			if opts.ComputePatternCounts {
				cs.PatternCounts = pattern.Analyze(streamMasks, customTemplates, res.Stats.TotalSteps, opts.MonoThreshold)
				cs.CustomPatterns = make([]CustomPatternSummary, len(opts.CustomPatterns))
				for i, p := range opts.CustomPatterns {
					count := 0
					if i < len(cs.PatternCounts.Custom) {
						count = cs.PatternCounts.Custom[i]
					}
					cs.CustomPatterns[i] = CustomPatternSummary{Pattern: p, Count: count}
				}
			}
		}

		rowScratch = buildParityRows(res.NoteData, lanes, td, rowScratch)
		cs.MinesNonFake = countJudgableMines(rowScratch)
		if opts.ComputeTechCounts {
			solved := parity.Solve(rowScratch, lanes, cfg)
			cs.TechCounts = solved.Tech
		}

		cs.ShortHash = hashing.ShortHash(trimTrailingNewlines(res.NoteData), normalizedBPMs)
		cs.BPMNeutralHash = hashing.BPMNeutralHash(trimTrailingNewlines(res.NoteData))

		if len(res.Rows) > 0 {
			cs.DurationSeconds = chartDurationSeconds(res.LastBeat, td, TimingOffsets{})
		}
		if opts.ComputeRadarValues {
			cs.Stats.RadarValues = radarValues(cs.Stats, cs.MaxNPS, cs.DurationSeconds)
		}

		if secs := int(math.Floor(cs.DurationSeconds)); secs > sum.TotalLengthSeconds {
			sum.TotalLengthSeconds = secs
		}

		sum.Charts = append(sum.Charts, cs)
	}

	if len(sum.Charts) == 0 {
		return nil, ErrNoChartsMatched
	}

	return sum, nil
}

// buildMetadata fills the simfile-level fields of a SimfileSummary from
// the extracted tag slices.
func buildMetadata(ex *tagextract.Extracted, format timing.Format, opts AnalysisOptions) *SimfileSummary {
	sum := &SimfileSummary{
		Title:            tagString(ex.Title),
		Subtitle:         tagString(ex.Subtitle),
		Artist:           tagString(ex.Artist),
		TitleTranslit:    tagString(ex.TitleTranslit),
		SubtitleTranslit: tagString(ex.SubtitleTranslit),
		ArtistTranslit:   tagString(ex.ArtistTranslit),
		BannerPath:       tagString(ex.Banner),
		BackgroundPath:   tagString(ex.Background),
		CDTitlePath:      tagString(ex.CDTitle),
		JacketPath:       tagString(ex.Jacket),
		MusicPath:        tagString(ex.Music),
		DisplayBPM:       tagString(ex.DisplayBPM),
		SampleStart:      parseFloatText(tagString(ex.SampleStart)),
		SampleLength:     parseFloatText(tagString(ex.SampleLength)),
		OffsetSeconds:    parseFloatText(tagString(ex.Offset)),
		SSCVersion:       parseFloatText(tagString(ex.Version)),
		Format:           format,

		NormalizedBPMs:           timing.NormalizeBPMText(tagString(ex.BPMs)),
		NormalizedStops:          timing.NormalizeBPMText(tagString(ex.Stops)),
		NormalizedDelays:         timing.NormalizeBPMText(tagString(ex.Delays)),
		NormalizedWarps:          timing.NormalizeBPMText(tagString(ex.Warps)),
		NormalizedSpeeds:         timing.NormalizeBPMText(tagString(ex.Speeds)),
		NormalizedScrolls:        timing.NormalizeBPMText(tagString(ex.Scrolls)),
		NormalizedFakes:          timing.NormalizeBPMText(tagString(ex.Fakes)),
		NormalizedTimeSignatures: timing.NormalizeBPMText(tagString(ex.TimeSignatures)),
		NormalizedLabels:         timing.NormalizeBPMText(tagString(ex.Labels)),
		NormalizedTickCounts:     timing.NormalizeBPMText(tagString(ex.TickCounts)),
		NormalizedCombos:         timing.NormalizeBPMText(tagString(ex.Combos)),
	}

	if opts.StripTags {
		sum.Title = stripTitleTags(sum.Title)
	}
	if sum.Title == "" {
		sum.Title = "<untitled>"
	}

	return sum
}

// globalTagText bundles a simfile's global timing tag strings.
func globalTagText(ex *tagextract.Extracted) timing.TagText {
	return timing.TagText{
		GlobalBPMs:    tagString(ex.BPMs),
		GlobalStops:   tagString(ex.Stops),
		GlobalDelays:  tagString(ex.Delays),
		GlobalWarps:   tagString(ex.Warps),
		GlobalSpeeds:  tagString(ex.Speeds),
		GlobalScrolls: tagString(ex.Scrolls),
		GlobalFakes:   tagString(ex.Fakes),
	}
}

// applyChartOverrides copies a chart entry's own timing tags onto tags.
func applyChartOverrides(tags *timing.TagText, entry *tagextract.ChartEntry) {
	tags.ChartBPMs, tags.ChartBPMsSet = tagString(entry.BPMs), entry.BPMs != nil
	tags.ChartStops, tags.ChartStopsSet = tagString(entry.Stops), entry.Stops != nil
	tags.ChartDelays, tags.ChartDelaysSet = tagString(entry.Delays), entry.Delays != nil
	tags.ChartWarps, tags.ChartWarpsSet = tagString(entry.Warps), entry.Warps != nil
	tags.ChartSpeeds, tags.ChartSpeedsSet = tagString(entry.Speeds), entry.Speeds != nil
	tags.ChartScrolls, tags.ChartScrollsSet = tagString(entry.Scrolls), entry.Scrolls != nil
	tags.ChartFakes, tags.ChartFakesSet = tagString(entry.Fakes), entry.Fakes != nil
}

// copyChartTimingText records the chart-local raw timing text on the
// summary for callers that render or re-serialize charts.
func copyChartTimingText(cs *ChartSummary, entry *tagextract.ChartEntry) {
	cs.ChartBPMs = tagString(entry.BPMs)
	cs.ChartStops = tagString(entry.Stops)
	cs.ChartDelays = tagString(entry.Delays)
	cs.ChartWarps = tagString(entry.Warps)
	cs.ChartSpeeds = tagString(entry.Speeds)
	cs.ChartScrolls = tagString(entry.Scrolls)
	cs.ChartFakes = tagString(entry.Fakes)
	cs.ChartDisplayBPM = tagString(entry.DisplayBPM)
	cs.ChartTimeSignatures = tagString(entry.TimeSignatures)
	cs.ChartLabels = tagString(entry.Labels)
	cs.ChartTickCounts = tagString(entry.TickCounts)
	cs.ChartCombos = tagString(entry.Combos)
}

// chartHasOwnTiming reports whether any of the chart's timing tags is
// present and non-empty. A present-but-empty tag counts as absent.
func chartHasOwnTiming(entry *tagextract.ChartEntry) bool {
	for _, tag := range [][]byte{
		entry.BPMs, entry.Stops, entry.Delays, entry.Warps,
		entry.Speeds, entry.Scrolls, entry.Fakes, entry.Offset,
	} {
		if strings.TrimSpace(tagString(tag)) != "" {
			return true
		}
	}
	return false
}

// stepTypeLanes maps a step-type tag to its lane count. Only
// dance-single and dance-double are supported.
func stepTypeLanes(stepType string) (int, bool) {
	switch strings.ToLower(strings.ReplaceAll(stepType, "_", "-")) {
	case "dance-single":
		return 4, true
	case "dance-double":
		return 8, true
	default:
		return 0, false
	}
}

// stepArtist picks the credited step artist: SSC charts credit via
// #CREDIT, SM charts via the description field.
func stepArtist(credit, description string, format timing.Format) string {
	if format == timing.Ssc && credit != "" {
		return credit
	}
	return description
}

// tagString unescapes a raw tag slice (backslash escapes removed) and
// trims surrounding whitespace.
func tagString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if !bytes.ContainsRune(b, '\\') {
		return strings.TrimSpace(string(b))
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' && i+1 < len(b) {
			i++
		}
		out = append(out, b[i])
	}
	return strings.TrimSpace(string(out))
}

func parseFloatText(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// stripTitleTags removes leading bracketed sorting tags like "[16]" or
// "[200 DOUBLE]" from a title.
func stripTitleTags(title string) string {
	out := title
	for {
		trimmed := strings.TrimSpace(out)
		if !strings.HasPrefix(trimmed, "[") {
			break
		}
		end := strings.IndexByte(trimmed, ']')
		if end < 0 {
			break
		}
		out = trimmed[end+1:]
	}
	return strings.TrimSpace(out)
}

func compileCustomPatterns(patterns []string) [][]byte {
	if len(patterns) == 0 {
		return nil
	}
	out := make([][]byte, len(patterns))
	for i, p := range patterns {
		out[i] = pattern.CompileCustom(p)
	}
	return out
}

func roundDP(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func trimTrailingNewlines(b []byte) []byte {
	return bytes.TrimRight(b, "\n")
}

// chartDurationSeconds measures a chart's playable length: the time at
// the end of the measure holding the last arrow, net of machine offsets.
func chartDurationSeconds(lastBeat float64, td *timing.Data, offsets TimingOffsets) float64 {
	if lastBeat < 0 {
		return 0
	}
	measureEnd := (math.Floor(lastBeat/4) + 1) * 4
	return td.TimeForBeat(measureEnd) - offsets.GlobalOffsetSeconds - offsets.GroupOffsetSeconds
}

// buildParityRows re-walks minimized note bytes into the parity solver's
// per-row inputs: note/hold/mine masks stamped with beat and second.
// Notes falling inside warps or fake segments are unjudgable; their
// mines shift to the fake-mine mask and their steps are dropped. buf is
// reused across charts.
func buildParityRows(noteData []byte, lanes int, td *timing.Data, buf []parity.RowInput) []parity.RowInput {
	rows := buf[:0]

	var measureLines [][]byte
	measureIdx := 0
	heldMask := byte(0)

	flush := func() {
		n := len(measureLines)
		for j, line := range measureLines {
			beat := snapBeat(float64(measureIdx)*4 + (float64(j)/float64(n))*4)

			var noteMask, holdStartMask, endMask, mineMask byte
			for i := 0; i < lanes && i < len(line); i++ {
				bit := byte(1) << uint(i)
				switch line[i] {
				case '1', 'K':
					noteMask |= bit
				case '2', '4':
					noteMask |= bit
					holdStartMask |= bit
				case '3':
					endMask |= bit
				case 'M':
					mineMask |= bit
				}
			}

			var fakeMineMask byte
			if td.IsWarpAtBeat(beat) || td.IsFakeAtBeat(beat) {
				fakeMineMask = mineMask
				mineMask = 0
				noteMask = 0
				holdStartMask = 0
			}

			if noteMask|mineMask|fakeMineMask|endMask != 0 {
				rows = append(rows, parity.RowInput{
					Second:       td.TimeForBeat(beat),
					Beat:         beat,
					NoteMask:     noteMask,
					HoldMask:     heldMask,
					MineMask:     mineMask,
					FakeMineMask: fakeMineMask,
					HoldEnds:     endMask,
				})
			}

			heldMask = (heldMask | holdStartMask) &^ endMask
		}
		measureLines = measureLines[:0]
		measureIdx++
	}

	for _, lineRaw := range bytes.Split(noteData, []byte{'\n'}) {
		line := bytes.TrimSpace(lineRaw)
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case ',':
			flush()
		case ';':
			flush()
			return rows
		default:
			measureLines = append(measureLines, line)
		}
	}
	if len(measureLines) > 0 {
		flush()
	}
	return rows
}

func snapBeat(beat float64) float64 {
	return math.Round(beat*timing.ROWSPerBeat) / timing.ROWSPerBeat
}

func countJudgableMines(rows []parity.RowInput) int {
	total := 0
	for _, r := range rows {
		for m := r.MineMask; m != 0; m &= m - 1 {
			total++
		}
	}
	return total
}

// radarValues derives the five StepMania radar categories from already
// computed counts, normalized by chart length in seconds.
func radarValues(stats minimize.ArrowStats, maxNPS, durationSeconds float64) [5]float32 {
	var rv [5]float32
	if durationSeconds <= 0 {
		return rv
	}
	rv[0] = float32(float64(stats.TotalSteps) / durationSeconds) // stream
	rv[1] = float32(maxNPS)                                      // voltage
	rv[2] = float32(float64(stats.Jumps) / durationSeconds)      // air
	rv[3] = float32(float64(stats.Holds) / durationSeconds)      // freeze
	rv[4] = float32(float64(stats.Mines+stats.Rolls) / durationSeconds) // chaos
	return rv
}

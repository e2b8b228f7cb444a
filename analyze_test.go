package simfile

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"simfile-analyzer/internal/minimize"
	"simfile-analyzer/internal/pattern"
)

const singleMeasureSM = `#TITLE:Test Song;
#ARTIST:Someone;
#BPMS:0=120;
#NOTES:
     dance-single:
     author:
     Beginner:
     1:
     0,0,0,0,0:
1000
0000
0000
0000
;
`

func TestAnalyzeEmptySSCHasNoCharts(t *testing.T) {
	_, err := Analyze([]byte("#VERSION:0.81;\n"), "ssc", DefaultAnalysisOptions())
	if !errors.Is(err, ErrNoChartsMatched) {
		t.Fatalf("expected ErrNoChartsMatched, got %v", err)
	}
}

func TestAnalyzeRejectsUnknownExtension(t *testing.T) {
	_, err := Analyze([]byte(singleMeasureSM), "txt", DefaultAnalysisOptions())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestAnalyzeSingleMeasureSM(t *testing.T) {
	sum, err := Analyze([]byte(singleMeasureSM), "sm", DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if sum.Title != "Test Song" {
		t.Errorf("title = %q", sum.Title)
	}
	if len(sum.Charts) != 1 {
		t.Fatalf("expected 1 chart, got %d", len(sum.Charts))
	}

	c := sum.Charts[0]
	if c.Stats.TotalArrows != 1 || c.Stats.Left != 1 {
		t.Errorf("arrows = %d (left %d), want 1 in lane 0", c.Stats.TotalArrows, c.Stats.Left)
	}
	if c.Stats.TotalSteps != 1 {
		t.Errorf("total steps = %d, want 1", c.Stats.TotalSteps)
	}
	if len(c.MeasureDensities) != 1 || c.MeasureDensities[0] != 1 {
		t.Errorf("measure densities = %v, want [1]", c.MeasureDensities)
	}
	if math.Abs(c.DurationSeconds-2.0) > 1e-9 {
		t.Errorf("duration = %v, want 2.0 (one measure at 120 BPM)", c.DurationSeconds)
	}
	if math.Abs(c.MaxNPS-0.5) > 1e-9 {
		t.Errorf("max nps = %v, want 0.5", c.MaxNPS)
	}
	if len(c.MeasureNPSVec) != len(c.MeasureDensities) {
		t.Errorf("nps vec len %d != densities len %d", len(c.MeasureNPSVec), len(c.MeasureDensities))
	}
}

func TestAnalyzeMinimizationCollapsesPaddedMeasure(t *testing.T) {
	data := []byte(`#TITLE:Pad;
#BPMS:0=120;
#NOTES:
     dance-single:
     :
     Easy:
     2:
     :
1000
0000
1000
0000
1000
0000
1000
0000
;
`)
	sum, err := Analyze(data, "sm", DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	c := sum.Charts[0]
	if c.MeasureDensities[0] != 4 {
		t.Errorf("density = %d, want 4 after halving", c.MeasureDensities[0])
	}
	if c.TotalStreams != 0 {
		t.Errorf("a density-4 measure should classify as Break, got %d stream measures", c.TotalStreams)
	}

	// Idempotence: re-minimizing the minimized bytes changes nothing.
	again := minimize.Minimize(c.MinimizedNoteData, 4)
	if !bytes.Equal(again.NoteData, c.MinimizedNoteData) {
		t.Errorf("minimization is not idempotent:\n%q\n%q", c.MinimizedNoteData, again.NoteData)
	}
	if again.Stats != c.Stats {
		t.Errorf("re-minimized stats differ: %+v vs %+v", again.Stats, c.Stats)
	}
}

func TestAnalyzeHashStability(t *testing.T) {
	first, err := Analyze([]byte(singleMeasureSM), "sm", DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := Analyze([]byte(singleMeasureSM), "sm", DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if first.Charts[0].ShortHash != second.Charts[0].ShortHash {
		t.Errorf("short hash unstable: %q vs %q", first.Charts[0].ShortHash, second.Charts[0].ShortHash)
	}
	if first.Charts[0].BPMNeutralHash != second.Charts[0].BPMNeutralHash {
		t.Errorf("bpm-neutral hash unstable")
	}
	if len(first.Charts[0].ShortHash) != 16 {
		t.Errorf("hash length = %d, want 16", len(first.Charts[0].ShortHash))
	}
}

func TestAnalyzeCandlePattern(t *testing.T) {
	data := []byte(`#TITLE:Candle;
#BPMS:0=120;
#NOTES:
     dance-single:
     :
     Hard:
     9:
     :
0100
1000
0010
0000
;
`)
	sum, err := Analyze(data, "sm", DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	c := sum.Charts[0]
	if got := c.PatternCounts.ByVariant[int(pattern.CandleLeft)]; got != 1 {
		t.Errorf("CandleLeft count = %d, want 1", got)
	}
}

func TestAnalyzeJackCountsAsJackNotDoublestep(t *testing.T) {
	// Two 16th notes on the same lane at 300 BPM are 0.05s apart.
	data := []byte(`#TITLE:Jack;
#BPMS:0=300;
#NOTES:
     dance-single:
     :
     Challenge:
     12:
     :
1000
1000
0000
0000
0000
0000
0000
0000
0000
0000
0000
0000
0000
0000
0000
0000
;
`)
	sum, err := Analyze(data, "sm", DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	c := sum.Charts[0]
	if c.TechCounts.Jacks < 1 {
		t.Errorf("jacks = %d, want >= 1", c.TechCounts.Jacks)
	}
	if c.TechCounts.Doublesteps != 0 {
		t.Errorf("doublesteps = %d, want 0 for a jack", c.TechCounts.Doublesteps)
	}
}

const splitTimingSSC = `#VERSION:0.83;
#TITLE:Split;
#BPMS:0=60;
#NOTEDATA:;
#STEPSTYPE:dance-single;
#DIFFICULTY:Challenge;
#METER:10;
#BPMS:0=120;
#NOTES:
1000
0000
0000
0000
;
`

func TestAnalyzeSSCSplitTiming(t *testing.T) {
	sum, err := Analyze([]byte(splitTimingSSC), "ssc", DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	c := sum.Charts[0]
	if !c.HasOwnTiming {
		t.Fatalf("expected chart-local timing for SSC version 0.83")
	}
	// One measure at the chart's own 120 BPM, not the global 60.
	if math.Abs(c.DurationSeconds-2.0) > 1e-9 {
		t.Errorf("duration = %v, want 2.0 from chart-local BPMs", c.DurationSeconds)
	}
	if c.NormalizedBPMs != "0.000=120.000" {
		t.Errorf("normalized bpms = %q", c.NormalizedBPMs)
	}
}

func TestAnalyzeOldSSCIgnoresChartTiming(t *testing.T) {
	old := bytes.Replace([]byte(splitTimingSSC), []byte("#VERSION:0.83;"), []byte("#VERSION:0.56;"), 1)
	sum, err := Analyze(old, "ssc", DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	c := sum.Charts[0]
	if c.HasOwnTiming {
		t.Fatalf("pre-split-timing SSC must use global timing")
	}
	if math.Abs(c.DurationSeconds-4.0) > 1e-9 {
		t.Errorf("duration = %v, want 4.0 from the global 60 BPM", c.DurationSeconds)
	}
}

func TestAnalyzeSkipsUnsupportedStepTypes(t *testing.T) {
	data := []byte(`#TITLE:Pump;
#BPMS:0=120;
#NOTES:
     pump-single:
     :
     Hard:
     9:
     :
10000
00000
;
`)
	_, err := Analyze(data, "sm", DefaultAnalysisOptions())
	if !errors.Is(err, ErrNoChartsMatched) {
		t.Fatalf("expected ErrNoChartsMatched for pump-single only, got %v", err)
	}
}

func TestStripTitleTags(t *testing.T) {
	cases := []struct{ in, want string }{
		{"[16] Some Song", "Some Song"},
		{"[200] [Hard] Another", "Another"},
		{"Plain", "Plain"},
		{"[unclosed", "[unclosed"},
	}
	for _, c := range cases {
		if got := stripTitleTags(c.in); got != c.want {
			t.Errorf("stripTitleTags(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestChartDurationUsesMeasureEnd(t *testing.T) {
	sum, err := Analyze([]byte(singleMeasureSM), "sm", AnalysisOptions{MonoThreshold: 6})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// Disabling tech/pattern passes must not change duration.
	if math.Abs(sum.Charts[0].DurationSeconds-2.0) > 1e-9 {
		t.Errorf("duration = %v, want 2.0", sum.Charts[0].DurationSeconds)
	}
	if sum.TotalLengthSeconds != 2 {
		t.Errorf("total length = %d, want 2", sum.TotalLengthSeconds)
	}
}

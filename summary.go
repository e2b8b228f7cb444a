// Package simfile analyzes StepMania-family .sm/.ssc step charts: note
// statistics, timing-aware density curves, difficulty ratings, pattern
// taxonomies, step-parity tech counts, stream breakdowns, and content
// hashes.
//
// The entry points are Analyze plus the three fast paths ComputeAllHashes,
// ComputeChartDurations and ComputeChartPeakNPS. Each is a pure function
// of its input bytes; callers may parallelize across simfiles freely.
package simfile

import (
	"errors"

	"simfile-analyzer/internal/minimize"
	"simfile-analyzer/internal/parity"
	"simfile-analyzer/internal/pattern"
	"simfile-analyzer/internal/stream"
	"simfile-analyzer/internal/tagextract"
	"simfile-analyzer/internal/timing"
)

// ErrUnsupportedFormat is returned when the file extension is neither sm
// nor ssc.
var ErrUnsupportedFormat = tagextract.ErrUnsupportedFormat

// ErrNoChartsMatched is returned when extraction succeeded but no
// supported step-type chart survived.
var ErrNoChartsMatched = errors.New("simfile: no supported charts found")

// ErrLaneLayoutUnsupported signals an internal lane-count invariant
// failure; it should not surface in normal runs.
var ErrLaneLayoutUnsupported = errors.New("simfile: unsupported lane layout")

// AnalysisOptions tunes what Analyze computes beyond the base statistics.
type AnalysisOptions struct {
	// StripTags removes leading bracketed sorting tags ("[16] ", "[200]")
	// from the title.
	StripTags bool
	// MonoThreshold is the minimum run length for the facing-run
	// classifier; zero means the default of 6.
	MonoThreshold int
	// CustomPatterns are extra step sequences (letters L/D/U/R) counted
	// alongside the fixed pattern library.
	CustomPatterns []string
	ComputeTechCounts    bool
	ComputePatternCounts bool
	TranslateMarkers     bool
	ComputeRadarValues   bool
}

// DefaultAnalysisOptions enables the full analysis with default tuning.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		MonoThreshold:        6,
		ComputeTechCounts:    true,
		ComputePatternCounts: true,
	}
}

// TimingOffsets are machine-level offsets applied on top of a simfile's
// own #OFFSET when computing durations.
type TimingOffsets struct {
	GlobalOffsetSeconds float64
	GroupOffsetSeconds  float64
}

// CustomPatternSummary pairs one user-supplied pattern string with its
// match count.
type CustomPatternSummary struct {
	Pattern string
	Count   int
}

// ChartSummary is the full analysis result for one playable chart.
type ChartSummary struct {
	StepType    string
	Difficulty  string
	Meter       string
	Description string
	Credit      string
	StepArtist  string
	// TechNotation is the step artist's own annotation vocabulary parsed
	// out of the credit/description text, not the solver's TechCounts.
	TechNotation string
	Lanes        int

	Stats         minimize.ArrowStats
	StreamCounts  stream.Counts
	TotalMeasures int
	TotalStreams  int
	MinesNonFake  int

	DetailedBreakdown string
	PartialBreakdown  string
	SimpleBreakdown   string

	SNDetailedBreakdown string
	SNPartialBreakdown  string
	SNSimpleBreakdown   string

	MaxNPS          float64
	MedianNPS       float64
	MeasureNPSVec   []float64
	DurationSeconds float64

	MatrixRating float64
	TierBPM      float64

	PatternCounts  pattern.Counts
	CustomPatterns []CustomPatternSummary
	TechCounts     parity.TechCounts

	ShortHash      string
	BPMNeutralHash string

	MinimizedNoteData []byte
	MeasureDensities  []int
	RowToBeat         []float64

	// Timing is the effective timing for this chart: the shared global
	// instance unless the chart carries its own timing tags.
	Timing            *timing.Data
	HasOwnTiming      bool
	OffsetSeconds     float64
	NormalizedBPMs    string

	// Chart-local copies of raw timing tag text, empty when the chart
	// uses global timing.
	ChartBPMs           string
	ChartStops          string
	ChartDelays         string
	ChartWarps          string
	ChartSpeeds         string
	ChartScrolls        string
	ChartFakes          string
	ChartDisplayBPM     string
	ChartTimeSignatures string
	ChartLabels         string
	ChartTickCounts     string
	ChartCombos         string
}

// SimfileSummary is the top-level analysis result for one simfile.
type SimfileSummary struct {
	Title            string
	Subtitle         string
	Artist           string
	TitleTranslit    string
	SubtitleTranslit string
	ArtistTranslit   string

	BannerPath     string
	BackgroundPath string
	CDTitlePath    string
	JacketPath     string
	MusicPath      string

	DisplayBPM   string
	SampleStart  float64
	SampleLength float64

	OffsetSeconds float64
	SSCVersion    float64
	Format        timing.Format

	NormalizedBPMs           string
	NormalizedStops          string
	NormalizedDelays         string
	NormalizedWarps          string
	NormalizedSpeeds         string
	NormalizedScrolls        string
	NormalizedFakes          string
	NormalizedTimeSignatures string
	NormalizedLabels         string
	NormalizedTickCounts     string
	NormalizedCombos         string

	MinBPM     int
	MaxBPM     int
	MedianBPM  float64
	AverageBPM float64

	// TotalLengthSeconds is the longest chart's duration, floored.
	TotalLengthSeconds int

	PatternCountsEnabled bool
	TechCountsEnabled    bool

	Charts []ChartSummary
}

// ChartHashEntry is one result of the hash-only fast path.
type ChartHashEntry struct {
	StepType   string
	Difficulty string
	Hash       string
}

// ChartDuration is one result of the duration-only fast path.
type ChartDuration struct {
	StepType        string
	Difficulty      string
	DurationSeconds float64
}

// ChartPeakNPS is one result of the peak-NPS fast path.
type ChartPeakNPS struct {
	StepType   string
	Difficulty string
	PeakNPS    float64
}

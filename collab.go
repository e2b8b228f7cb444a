package simfile

// The analyzer's outer surfaces (arrow-marker translation between
// simfile dialects and density-graph image rendering) are thin
// collaborators that consume a finished summary; this library defines
// only their shapes and ships no implementation.

// markerTranslator rewrites note characters between simfile dialects.
// Analyze never consults a translator, so AnalysisOptions.TranslateMarkers
// has no effect.
type markerTranslator interface {
	TranslateRow(row []byte, lanes int) []byte
}

// densityGraphRenderer renders a measure-NPS vector to an image.
type densityGraphRenderer interface {
	Render(measureNPS []float64, width, height int) ([]byte, error)
}

// Package course aggregates already-analyzed chart summaries into a
// course-level total. Parsing .crs files from disk and walking song
// packs are out of scope; a caller supplies resolved songs through the
// CourseFileResolver interface.
package course

import (
	"math"

	simfile "simfile-analyzer"
)

// Difficulty is a course slot's difficulty selection.
type Difficulty int

const (
	Beginner Difficulty = iota
	Easy
	Medium
	Hard
	Challenge
	Edit
)

func (d Difficulty) String() string {
	switch d {
	case Beginner:
		return "Beginner"
	case Easy:
		return "Easy"
	case Medium:
		return "Medium"
	case Hard:
		return "Hard"
	case Challenge:
		return "Challenge"
	case Edit:
		return "Edit"
	default:
		return "Unknown"
	}
}

// EntrySummary is one song slot of a course paired with the chart the
// slot resolved to.
type EntrySummary struct {
	SongTitle  string
	Group      string
	Difficulty Difficulty
	Secret     bool
	Modifiers  string
	Chart      *simfile.ChartSummary
}

// Summary is the course-level aggregate over its resolved entries.
type Summary struct {
	Name        string
	Scripter    string
	Description string
	Entries     []EntrySummary

	TotalArrows     int
	TotalSteps      int
	TotalJumps      int
	TotalHands      int
	TotalHolds      int
	TotalRolls      int
	TotalMines      int
	TotalStreams    int
	DurationSeconds float64
	PeakNPS         float64
	AverageMeter    float64
}

// FileResolver resolves a course's song references to analyzed charts.
// This repository ships no implementation of it.
type FileResolver interface {
	// Resolve returns the chart for a song title within an optional
	// group, at the requested difficulty, or nil when the song or the
	// difficulty is absent.
	Resolve(group, song string, difficulty Difficulty) *simfile.ChartSummary
}

// Build assembles a Summary from resolved entries. Entries whose chart
// is nil (unresolved songs, missing difficulties) are kept in the entry
// list but contribute nothing to the totals.
func Build(name, scripter, description string, entries []EntrySummary) Summary {
	sum := Summary{
		Name:        name,
		Scripter:    scripter,
		Description: description,
		Entries:     entries,
	}

	meterTotal := 0
	meterCount := 0
	for _, e := range entries {
		if e.Chart == nil {
			continue
		}
		c := e.Chart
		sum.TotalArrows += c.Stats.TotalArrows
		sum.TotalSteps += c.Stats.TotalSteps
		sum.TotalJumps += c.Stats.Jumps
		sum.TotalHands += c.Stats.Hands
		sum.TotalHolds += c.Stats.Holds
		sum.TotalRolls += c.Stats.Rolls
		sum.TotalMines += c.Stats.Mines
		sum.TotalStreams += c.TotalStreams
		sum.DurationSeconds += c.DurationSeconds
		if c.MaxNPS > sum.PeakNPS {
			sum.PeakNPS = c.MaxNPS
		}
		if meter, ok := parseMeter(c.Meter); ok {
			meterTotal += meter
			meterCount++
		}
	}
	if meterCount > 0 {
		sum.AverageMeter = math.Round(float64(meterTotal)/float64(meterCount)*100) / 100
	}

	return sum
}

func parseMeter(s string) (int, bool) {
	n := 0
	seen := false
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		seen = true
	}
	return n, seen
}

// ABOUTME: Entry point for the simfile-analyze command line tool
// ABOUTME: Handles flag parsing, batch dispatch, and plain-text summary output

// Package main provides the entry point for simfile-analyze, a step chart
// analyzer for StepMania .sm/.ssc files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	simfile "simfile-analyzer"
	"simfile-analyzer/config"
	"simfile-analyzer/pool"
)

// Debug logger - writes to file for debugging
var debugLog *log.Logger

func main() {
	os.Exit(run())
}

func run() int {
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	debug := flag.Bool("debug", false, "enable debug logging to simfile-analyze-debug.log")
	configPath := flag.String("config", "", "path to a TOML config file (default: auto-discover)")
	hashesOnly := flag.Bool("hashes", false, "print chart hashes only (fast path)")
	durationsOnly := flag.Bool("durations", false, "print chart durations only (fast path)")
	peakNPSOnly := flag.Bool("peak-nps", false, "print chart peak NPS only (fast path)")
	noTech := flag.Bool("no-tech", false, "skip the step parity solver")
	noPatterns := flag.Bool("no-patterns", false, "skip pattern detection")
	stripTags := flag.Bool("strip-tags", false, "strip bracketed sorting tags from titles")
	monoThreshold := flag.Int("mono-threshold", 0, "facing-run length threshold (default from config)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: simfile-analyze [flags] <simfile> [simfile...]")
		flag.PrintDefaults()
		return 2
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	if *debug {
		if err := initDebugLog("simfile-analyze-debug.log"); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.GetConfigPath()
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		debugf("config load: %v", err)
	}

	opts := simfile.AnalysisOptions{
		StripTags:            *stripTags,
		MonoThreshold:        cfg.MonoThreshold,
		CustomPatterns:       cfg.CustomPatterns,
		ComputeTechCounts:    cfg.ComputeTech && !*noTech,
		ComputePatternCounts: cfg.ComputePatterns && !*noPatterns,
		ComputeRadarValues:   cfg.ComputeRadar,
	}
	if *monoThreshold > 0 {
		opts.MonoThreshold = *monoThreshold
	}

	paths := flag.Args()
	results := analyzeBatch(paths, opts, *hashesOnly, *durationsOnly, *peakNPSOnly)

	failures := 0
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.path, r.err)
			failures++
			continue
		}
		fmt.Print(r.output)
	}

	if failures == len(results) {
		return 1
	}
	return 0
}

// fileResult pairs one input path with its rendered output or error.
type fileResult struct {
	path   string
	output string
	err    error
}

// analyzeBatch runs every input path through the selected pipeline on a
// CPU-sized worker pool, preserving input order in the results.
func analyzeBatch(paths []string, opts simfile.AnalysisOptions, hashesOnly, durationsOnly, peakNPSOnly bool) []fileResult {
	results := make([]fileResult, len(paths))

	p := pool.NewWorkerPool(len(paths))
	defer p.Close()

	var mu sync.Mutex
	for i, path := range paths {
		i, path := i, path
		p.Submit(func() {
			res := analyzeOne(path, opts, hashesOnly, durationsOnly, peakNPSOnly)
			mu.Lock()
			results[i] = res
			mu.Unlock()
		})
	}
	p.Wait()

	return results
}

func analyzeOne(path string, opts simfile.AnalysisOptions, hashesOnly, durationsOnly, peakNPSOnly bool) fileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	extension := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	debugf("analyzing %s (%d bytes, .%s)", path, len(data), extension)

	switch {
	case hashesOnly:
		entries, err := simfile.ComputeAllHashes(data, extension)
		if err != nil {
			return fileResult{path: path, err: err}
		}
		return fileResult{path: path, output: renderHashes(path, entries)}
	case durationsOnly:
		entries, err := simfile.ComputeChartDurations(data, extension, simfile.TimingOffsets{})
		if err != nil {
			return fileResult{path: path, err: err}
		}
		return fileResult{path: path, output: renderDurations(path, entries)}
	case peakNPSOnly:
		entries, err := simfile.ComputeChartPeakNPS(data, extension)
		if err != nil {
			return fileResult{path: path, err: err}
		}
		return fileResult{path: path, output: renderPeakNPS(path, entries)}
	default:
		summary, err := simfile.Analyze(data, extension, opts)
		if err != nil {
			return fileResult{path: path, err: err}
		}
		return fileResult{path: path, output: renderSummary(path, summary)}
	}
}

func renderSummary(path string, sum *simfile.SimfileSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", path)
	fmt.Fprintf(&b, "Title: %s", sum.Title)
	if sum.Subtitle != "" {
		fmt.Fprintf(&b, " %s", sum.Subtitle)
	}
	fmt.Fprintf(&b, "\nArtist: %s\n", sum.Artist)
	if sum.MinBPM == sum.MaxBPM {
		fmt.Fprintf(&b, "BPM: %d\n", sum.MaxBPM)
	} else {
		fmt.Fprintf(&b, "BPM: %d-%d (median %.0f)\n", sum.MinBPM, sum.MaxBPM, sum.MedianBPM)
	}

	w := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Chart\tMeter\tSteps\tStream\tPeak NPS\tRating\tHash")
	for _, c := range sum.Charts {
		fmt.Fprintf(w, "%s %s\t%s\t%d\t%s\t%.2f\t%.2f\t%s\n",
			c.StepType, c.Difficulty, c.Meter,
			c.Stats.TotalSteps, orDash(c.PartialBreakdown),
			c.MaxNPS, c.MatrixRating, c.ShortHash)
	}
	w.Flush()

	if !sum.TechCountsEnabled {
		b.WriteByte('\n')
		return b.String()
	}
	for _, c := range sum.Charts {
		t := c.TechCounts
		total := t.CrossoversHalf + t.CrossoversFull + t.FootswitchUp + t.FootswitchDown +
			t.Sideswitches + t.Jacks + t.Brackets + t.Doublesteps
		if total == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s %s tech: %dxo %dfs %dss %djacks %dbr %dds\n",
			c.StepType, c.Difficulty,
			t.CrossoversHalf+t.CrossoversFull, t.FootswitchUp+t.FootswitchDown,
			t.Sideswitches, t.Jacks, t.Brackets, t.Doublesteps)
	}

	b.WriteByte('\n')
	return b.String()
}

func renderHashes(path string, entries []simfile.ChartHashEntry) string {
	var b strings.Builder
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].StepType < entries[j].StepType })
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\n", path, e.StepType, e.Difficulty, e.Hash)
	}
	return b.String()
}

func renderDurations(path string, entries []simfile.ChartDuration) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%.2f\n", path, e.StepType, e.Difficulty, e.DurationSeconds)
	}
	return b.String()
}

func renderPeakNPS(path string, entries []simfile.ChartPeakNPS) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%.2f\n", path, e.StepType, e.Difficulty, e.PeakNPS)
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// initDebugLog initializes debug logging to a file
func initDebugLog(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugLog = log.New(f, "", log.Ltime|log.Lmicroseconds)

	return nil
}

// debugf logs debug messages to file if debug logger is enabled
func debugf(format string, args ...interface{}) {
	if debugLog != nil {
		debugLog.Printf(format, args...)
	}
}

package simfile

import (
	"errors"
	"math"
	"testing"
)

func TestComputeAllHashesMatchesAnalyze(t *testing.T) {
	full, err := Analyze([]byte(singleMeasureSM), "sm", DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	hashes, err := ComputeAllHashes([]byte(singleMeasureSM), "sm")
	if err != nil {
		t.Fatalf("ComputeAllHashes: %v", err)
	}
	if len(hashes) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(hashes))
	}
	if hashes[0].Hash != full.Charts[0].ShortHash {
		t.Errorf("fast-path hash %q != full-path hash %q", hashes[0].Hash, full.Charts[0].ShortHash)
	}
	if hashes[0].StepType != "dance-single" || hashes[0].Difficulty != "Beginner" {
		t.Errorf("unexpected chart identity: %+v", hashes[0])
	}
}

func TestComputeChartDurations(t *testing.T) {
	durations, err := ComputeChartDurations([]byte(singleMeasureSM), "sm", TimingOffsets{})
	if err != nil {
		t.Fatalf("ComputeChartDurations: %v", err)
	}
	if math.Abs(durations[0].DurationSeconds-2.0) > 1e-9 {
		t.Errorf("duration = %v, want 2.0", durations[0].DurationSeconds)
	}
}

func TestComputeChartDurationsAppliesOffsets(t *testing.T) {
	base, err := ComputeChartDurations([]byte(singleMeasureSM), "sm", TimingOffsets{})
	if err != nil {
		t.Fatalf("ComputeChartDurations: %v", err)
	}
	shifted, err := ComputeChartDurations([]byte(singleMeasureSM), "sm", TimingOffsets{GlobalOffsetSeconds: 0.25, GroupOffsetSeconds: 0.25})
	if err != nil {
		t.Fatalf("ComputeChartDurations: %v", err)
	}
	if math.Abs((base[0].DurationSeconds-shifted[0].DurationSeconds)-0.5) > 1e-9 {
		t.Errorf("offsets not applied: base %v shifted %v", base[0].DurationSeconds, shifted[0].DurationSeconds)
	}
}

func TestComputeChartPeakNPS(t *testing.T) {
	peaks, err := ComputeChartPeakNPS([]byte(singleMeasureSM), "sm")
	if err != nil {
		t.Fatalf("ComputeChartPeakNPS: %v", err)
	}
	if math.Abs(peaks[0].PeakNPS-0.5) > 1e-9 {
		t.Errorf("peak nps = %v, want 0.5", peaks[0].PeakNPS)
	}
}

func TestFastPathsRejectUnknownExtension(t *testing.T) {
	if _, err := ComputeAllHashes([]byte(singleMeasureSM), "dwi"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ComputeAllHashes: expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := ComputeChartDurations([]byte(singleMeasureSM), "dwi", TimingOffsets{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ComputeChartDurations: expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := ComputeChartPeakNPS([]byte(singleMeasureSM), "dwi"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ComputeChartPeakNPS: expected ErrUnsupportedFormat, got %v", err)
	}
}

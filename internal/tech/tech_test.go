package tech

import "testing"

func TestParseTechNotationSkipsMeasureData(t *testing.T) {
	got := ParseTechNotation("BXF DS+ 12/34-5", "")
	want := "BXF DS+"
	if got != want {
		t.Fatalf("ParseTechNotation = %q, want %q", got, want)
	}
}

func TestParseTechNotationSkipsNoTech(t *testing.T) {
	got := ParseTechNotation("No Tech", "XO+")
	want := "XO+"
	if got != want {
		t.Fatalf("ParseTechNotation = %q, want %q", got, want)
	}
}

func TestParseTechNotationGreedyLongestPrefix(t *testing.T) {
	got := ParseTechNotation("DS++", "")
	want := "DS++"
	if got != want {
		t.Fatalf("ParseTechNotation = %q, want %q (DS++ should win over DS+ and DS)", got, want)
	}
}

func TestIsMeasureDataRejectsLetters(t *testing.T) {
	if isMeasureData("BXF") {
		t.Fatalf("BXF should not be classified as measure data")
	}
	if !isMeasureData("12/34") {
		t.Fatalf("12/34 should be classified as measure data")
	}
}

func TestParseTechNotationUnknownTokenIsDropped(t *testing.T) {
	got := ParseTechNotation("not-a-known-tech-token", "")
	if got != "" {
		t.Fatalf("expected unknown alphabetic token to be dropped, got %q", got)
	}
}

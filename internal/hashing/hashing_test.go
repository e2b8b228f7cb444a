package hashing

import "testing"

func TestShortHashIsStableAndSixteenChars(t *testing.T) {
	data := []byte("1000\n0100\n0010\n0001\n")
	a := ShortHash(data, "0.000=120.000")
	b := ShortHash(data, "0.000=120.000")
	if a != b {
		t.Fatalf("ShortHash not stable: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("ShortHash length = %d, want 16", len(a))
	}
}

func TestShortHashChangesWithBPM(t *testing.T) {
	data := []byte("1000\n0100\n0010\n0001\n")
	a := ShortHash(data, "0.000=120.000")
	b := ShortHash(data, "0.000=180.000")
	if a == b {
		t.Fatalf("expected different hashes for different BPM text")
	}
}

func TestBPMNeutralHashIgnoresBPM(t *testing.T) {
	data := []byte("1000\n0100\n0010\n0001\n")
	a := BPMNeutralHash(data)
	b := truncatedHash(data, "0.000=0.000")
	if a != b {
		t.Fatalf("BPMNeutralHash should equal the fixed-placeholder hash")
	}
}

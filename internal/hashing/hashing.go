// Package hashing derives stable chart identity hashes from minimized
// note data and normalized BPM text.
package hashing

import (
	"crypto/sha1"
	"encoding/hex"
)

// bpmNeutralText replaces a chart's normalized BPM string when computing
// a hash that should be invariant to tempo.
const bpmNeutralText = "0.000=0.000"

// ShortHash hashes minimized chart bytes together with the chart's
// normalized BPM text and returns the first 16 hex characters of the
// SHA-1 digest.
func ShortHash(chartData []byte, normalizedBPMs string) string {
	return truncatedHash(chartData, normalizedBPMs)
}

// BPMNeutralHash is ShortHash with the BPM text replaced by a fixed
// placeholder, so charts that differ only in tempo hash identically.
func BPMNeutralHash(chartData []byte) string {
	return truncatedHash(chartData, bpmNeutralText)
}

func truncatedHash(chartData []byte, bpmText string) string {
	h := sha1.New()
	h.Write(chartData)
	h.Write([]byte(bpmText))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:16]
}

// Package tech extracts step-artist tech notation (BXF, DS+, XO-, ...)
// from a chart's CREDIT and DESCRIPTION tag text, distinguishing genuine
// notation tokens from raw measure-data noise.
package tech

import "strings"

// KnownTechList is the closed vocabulary of recognized tech notation
// tokens, matched by greedy longest prefix.
var KnownTechList = []string{
	"24ths", "32nds", "br", "BR", "BR+", "BR-", "BT", "BT+", "BT-", "bu", "BU", "BU+", "BU-",
	"BXF", "BXF+", "BXF-", "bXF", "bXF+", "bXF-", "BxF", "BXf", "BxF+", "BxF-", "bXf", "bXf+",
	"bXf-", "bxF", "bxF+", "bxF-", "B+XF", "BX-F", "BX-F+", "BX+F+", "B+X-F", "B-X-F-",
	"B-XF+", "ds", "DS", "DS++", "DS+", "DS-", "dr", "DR", "DR+", "DR-", "dt", "dt-", "DT",
	"DT+", "DT-", "FL", "FL+", "FL-", "fs", "FS", "FS+", "FS-", "FX", "FX+", "FX-", "GH",
	"GH+", "GH-", "HA", "HA+", "HA-", "HS", "HS+", "HS-", "ITL+", "ja", "ja-", "JA", "JA+",
	"JA-", "ju", "ju-", "JU", "JU+", "JU-", "JUMPS", "JUMPS+", "JUMPS-", "KS", "KS+", "KS-",
	"KT", "KT+", "KT-", "LOL", "ma", "ma-", "MA", "MA+", "MA-", "MD", "MD+", "MD-", "rh",
	"rh-", "RH", "RH+", "RH-", "Rolls-", "RS", "RS+", "RS-", "SC", "SC+", "SC-", "SDS", "SDS+",
	"SDS-", "SJ", "SJ+", "SJ-", "SK", "SK+", "SK-", "SS", "SS+", "SS-", "SKT", "SKT+", "SKT-",
	"SPD", "SPD+", "SPD-", "STR", "STR+", "STR-", "TR", "TR+", "TR-", "WA", "WA+", "WA-",
	"XMOD", "XMOD+", "XMOD-", "xo", "XO", "XO+", "XO-",
}

func isMeasureSymbol(r rune) bool {
	switch r {
	case '/', '-', '*', '|', '~', '.', '\'':
		return true
	default:
		return false
	}
}

// isMeasureData reports whether chunk looks like leftover measure-data
// noise (digits and the usual measure punctuation, no letters) rather
// than a tech notation token.
func isMeasureData(chunk string) bool {
	for _, r := range chunk {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' {
			return false
		}
	}
	hasSymbol := false
	for _, r := range chunk {
		if isMeasureSymbol(r) {
			hasSymbol = true
			break
		}
	}
	if !hasSymbol {
		return false
	}
	for _, r := range chunk {
		if !(r >= '0' && r <= '9') && !isMeasureSymbol(r) {
			return false
		}
	}
	return true
}

// parseChunkAsTech greedily matches the longest known-vocabulary prefix
// repeatedly until chunk is consumed, or fails (nil, false) if any
// remainder matches no known token.
func parseChunkAsTech(chunk string) ([]string, bool) {
	var results []string
	remainder := chunk

	for remainder != "" {
		best := ""
		for _, pat := range KnownTechList {
			if strings.HasPrefix(remainder, pat) && len(pat) > len(best) {
				best = pat
			}
		}
		if best == "" {
			return nil, false
		}
		results = append(results, best)
		remainder = remainder[len(best):]
	}

	return results, true
}

// parseSingleTech tokenizes input on whitespace (after flattening commas
// to spaces), skips "No Tech" and measure-data noise, and greedily
// decodes the rest as tech notation.
func parseSingleTech(input string) []string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(input), ",", " ")
	chunks := strings.Fields(cleaned)

	var notations []string
	for i := 0; i < len(chunks); i++ {
		chunk := chunks[i]

		if chunk == "No" && i+1 < len(chunks) && chunks[i+1] == "Tech" {
			i++
			continue
		}

		if isMeasureData(chunk) {
			continue
		}

		if parsed, ok := parseChunkAsTech(chunk); ok {
			notations = append(notations, parsed...)
		}
	}

	return notations
}

// ParseTechNotation extracts tech notation tokens from a chart's credit
// and description tags and joins them with spaces.
func ParseTechNotation(credit, description string) string {
	notations := parseSingleTech(credit)
	notations = append(notations, parseSingleTech(description)...)
	return strings.Join(notations, " ")
}

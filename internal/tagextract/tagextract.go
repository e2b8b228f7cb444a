// Package tagextract locates top-level and per-chart tag values in a raw
// .sm/.ssc simfile byte stream without decoding the whole file. Returned
// slices are views over the caller's buffer.
package tagextract

import (
	"bytes"
	"errors"
	"strings"
)

// ErrUnsupportedFormat is returned when the file extension is neither sm
// nor ssc.
var ErrUnsupportedFormat = errors.New("tagextract: unsupported file extension, must be sm or ssc")

// ChartEntry holds the raw tag values scoped to a single #NOTES/#NOTEDATA
// block. Fields are nil when the tag was absent.
type ChartEntry struct {
	StepType     []byte
	Description  []byte
	Difficulty   []byte
	Meter        []byte
	RadarValues  []byte
	Credit       []byte // SSC only
	NoteData     []byte

	// Per-chart timing overrides, SSC only.
	Offset         []byte
	BPMs           []byte
	Stops          []byte
	Delays         []byte
	Warps          []byte
	Speeds         []byte
	Scrolls        []byte
	Fakes          []byte
	TimeSignatures []byte
	Labels         []byte
	TickCounts     []byte
	Combos         []byte
	Attacks        []byte
	DisplayBPM     []byte
}

// Extracted holds the global tag values plus the sequence of per-chart
// entries found in a simfile, in file order.
type Extracted struct {
	Title              []byte
	Subtitle           []byte
	Artist             []byte
	TitleTranslit      []byte
	SubtitleTranslit   []byte
	ArtistTranslit     []byte
	Offset             []byte
	BPMs               []byte
	Stops              []byte
	Delays             []byte
	Warps              []byte
	Speeds             []byte
	Scrolls            []byte
	Fakes              []byte
	TimeSignatures     []byte
	Labels             []byte
	TickCounts         []byte
	Combos             []byte
	Attacks            []byte
	Banner             []byte
	Background         []byte
	CDTitle            []byte
	Jacket             []byte
	Music              []byte
	DisplayBPM         []byte
	SampleStart        []byte
	SampleLength       []byte
	Version            []byte
	Charts             []ChartEntry
}

// globalTagSlot maps an upper-cased tag name to the field in Extracted it
// populates.
func globalTagSlot(e *Extracted, name string) *[]byte {
	switch name {
	case "TITLE":
		return &e.Title
	case "SUBTITLE":
		return &e.Subtitle
	case "ARTIST":
		return &e.Artist
	case "TITLETRANSLIT":
		return &e.TitleTranslit
	case "SUBTITLETRANSLIT":
		return &e.SubtitleTranslit
	case "ARTISTTRANSLIT":
		return &e.ArtistTranslit
	case "OFFSET":
		return &e.Offset
	case "BPMS":
		return &e.BPMs
	case "STOPS":
		return &e.Stops
	case "DELAYS":
		return &e.Delays
	case "WARPS":
		return &e.Warps
	case "SPEEDS":
		return &e.Speeds
	case "SCROLLS":
		return &e.Scrolls
	case "FAKES":
		return &e.Fakes
	case "TIMESIGNATURES":
		return &e.TimeSignatures
	case "LABELS":
		return &e.Labels
	case "TICKCOUNTS":
		return &e.TickCounts
	case "COMBOS":
		return &e.Combos
	case "ATTACKS":
		return &e.Attacks
	case "BANNER":
		return &e.Banner
	case "BACKGROUND":
		return &e.Background
	case "CDTITLE":
		return &e.CDTitle
	case "JACKET":
		return &e.Jacket
	case "MUSIC":
		return &e.Music
	case "DISPLAYBPM":
		return &e.DisplayBPM
	case "SAMPLESTART":
		return &e.SampleStart
	case "SAMPLELENGTH":
		return &e.SampleLength
	case "VERSION":
		return &e.Version
	default:
		return nil
	}
}

// chartTagSlot maps an upper-cased SSC per-chart tag name to the field in
// ChartEntry it populates.
func chartTagSlot(c *ChartEntry, name string) *[]byte {
	switch name {
	case "STEPSTYPE":
		return &c.StepType
	case "DESCRIPTION":
		return &c.Description
	case "DIFFICULTY":
		return &c.Difficulty
	case "METER":
		return &c.Meter
	case "RADARVALUES":
		return &c.RadarValues
	case "CREDIT":
		return &c.Credit
	case "OFFSET":
		return &c.Offset
	case "BPMS":
		return &c.BPMs
	case "STOPS":
		return &c.Stops
	case "DELAYS":
		return &c.Delays
	case "WARPS":
		return &c.Warps
	case "SPEEDS":
		return &c.Speeds
	case "SCROLLS":
		return &c.Scrolls
	case "FAKES":
		return &c.Fakes
	case "TIMESIGNATURES":
		return &c.TimeSignatures
	case "LABELS":
		return &c.Labels
	case "TICKCOUNTS":
		return &c.TickCounts
	case "COMBOS":
		return &c.Combos
	case "ATTACKS":
		return &c.Attacks
	case "DISPLAYBPM":
		return &c.DisplayBPM
	default:
		return nil
	}
}

// Extract scans raw simfile bytes for known top-level and per-chart tags.
// extension must be "sm" or "ssc" (case-insensitive); anything else yields
// ErrUnsupportedFormat. Malformed tags are skipped silently; only the
// extension check is a hard failure.
func Extract(data []byte, extension string) (*Extracted, error) {
	isSSC := strings.EqualFold(extension, "ssc")
	isSM := strings.EqualFold(extension, "sm")
	if !isSM && !isSSC {
		return nil, ErrUnsupportedFormat
	}

	out := &Extracted{}

	i := 0
	for i < len(data) {
		if data[i] == '/' && i+1 < len(data) && data[i+1] == '/' {
			i = skipLine(data, i)
			continue
		}

		if data[i] != '#' {
			i++
			continue
		}

		name, valueStart, ok := tagName(data, i)
		if !ok {
			i++
			continue
		}

		switch {
		case isSM && name == "NOTES":
			entry, next := parseSMNotes(data, valueStart)
			out.Charts = append(out.Charts, entry)
			i = next
		case isSSC && name == "NOTEDATA":
			entry, next := parseSSCNoteData(data, valueStart)
			out.Charts = append(out.Charts, entry)
			i = next
		default:
			if slot := globalTagSlot(out, name); slot != nil {
				value, next := scanToSemicolon(data, valueStart)
				*slot = value
				i = next
			} else {
				i = valueStart
			}
		}
	}

	return out, nil
}

// tagName identifies the tag name beginning at data[i] == '#'. It returns
// the upper-cased name, the index of the first byte after the ':', and
// whether a ':' was found within a bounded lookahead (tag names are short
// identifiers; anything longer is not a recognized tag).
func tagName(data []byte, i int) (name string, valueStart int, ok bool) {
	const maxNameLen = 32

	end := i + 1 + maxNameLen
	if end > len(data) {
		end = len(data)
	}

	colon := bytes.IndexByte(data[i+1:end], ':')
	if colon < 0 {
		return "", 0, false
	}

	name = strings.ToUpper(strings.TrimSpace(string(data[i+1 : i+1+colon])))
	valueStart = i + 1 + colon + 1

	return name, valueStart, true
}

// scanToSemicolon returns the slice from start up to (not including) the
// first unescaped ';', honoring backslash escapes, and the index just past
// that ';' (or len(data) if none is found).
func scanToSemicolon(data []byte, start int) ([]byte, int) {
	i := start
	for i < len(data) {
		if data[i] == '\\' && i+1 < len(data) {
			i += 2
			continue
		}
		if data[i] == ';' {
			return data[start:i], i + 1
		}
		i++
	}

	return data[start:], len(data)
}

// scanField returns the slice from start up to the first unescaped ':' or
// ';', whichever comes first, the index past that delimiter, and the
// delimiter byte encountered (0 if EOF was reached first).
func scanField(data []byte, start int) (value []byte, next int, delim byte) {
	i := start
	for i < len(data) {
		if data[i] == '\\' && i+1 < len(data) {
			i += 2
			continue
		}
		if data[i] == ':' || data[i] == ';' {
			return data[start:i], i + 1, data[i]
		}
		i++
	}

	return data[start:], len(data), 0
}

// parseSMNotes parses the six colon-separated fields of an SM #NOTES: block
// (stepstype, description, difficulty, meter, radar values, note data),
// terminated by an unescaped ';'.
func parseSMNotes(data []byte, start int) (ChartEntry, int) {
	var entry ChartEntry

	fields := [5]*[]byte{&entry.StepType, &entry.Description, &entry.Difficulty, &entry.Meter, &entry.RadarValues}

	i := start
	for _, slot := range fields {
		value, next, delim := scanField(data, i)
		*slot = trimSpace(value)
		i = next
		if delim != ':' {
			// Malformed block: fewer than 6 fields. Return the entry
			// without note data.
			return entry, i
		}
	}

	entry.NoteData, i = scanToSemicolon(data, i)

	return entry, i
}

// parseSSCNoteData parses one #NOTEDATA: block: the block extends from
// start to just before the next "#NOTEDATA:" occurrence (or EOF). Within
// that span, every recognized #TAG:value; is scanned via the same tag
// logic used for global tags.
func parseSSCNoteData(data []byte, start int) (ChartEntry, int) {
	var entry ChartEntry

	blockEnd := findNextNoteData(data, start)

	i := start
	for i < blockEnd {
		if data[i] == '/' && i+1 < blockEnd && data[i+1] == '/' {
			i = skipLine(data, i)
			continue
		}

		if data[i] != '#' {
			i++
			continue
		}

		name, valueStart, ok := tagName(data, i)
		if !ok {
			i++
			continue
		}

		if name == "NOTES" {
			value, next := scanToSemicolon(data, valueStart)
			entry.NoteData = value
			i = next
			continue
		}

		if slot := chartTagSlot(&entry, name); slot != nil {
			value, next := scanToSemicolon(data, valueStart)
			*slot = value
			i = next
			continue
		}

		i = valueStart
	}

	return entry, blockEnd
}

func findNextNoteData(data []byte, from int) int {
	const needle = "#NOTEDATA:"

	for i := from; i+len(needle) <= len(data); i++ {
		if data[i] != '#' {
			continue
		}
		if strings.EqualFold(string(data[i:i+len(needle)]), needle) {
			return i
		}
	}

	return len(data)
}

func skipLine(data []byte, i int) int {
	nl := bytes.IndexByte(data[i:], '\n')
	if nl < 0 {
		return len(data)
	}

	return i + nl + 1
}

func trimSpace(b []byte) []byte {
	return bytes.TrimSpace(b)
}

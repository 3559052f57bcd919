package archive

import (
	"strconv"
	"strings"
)

const (
	segmentDirective = "#EXTINF"
	endListDirective = "#EXT-X-ENDLIST"

	// fallbackSegmentSeconds stands in for a duration field that does not
	// parse. One bad line never fails the whole playlist.
	fallbackSegmentSeconds = 10.0
)

// segmentEntry pairs a duration directive with its URI line before folding.
type segmentEntry struct {
	directive string
	uri       string
}

// ParsePlaylist scans raw playlist text into a ParsedPlaylist. A playlist
// with zero segments is a parse failure, not a valid empty playlist.
func ParsePlaylist(raw string) (*ParsedPlaylist, error) {
	header, entries, finalized := tokenizePlaylist(raw)
	if len(entries) == 0 {
		return nil, ErrMalformedPlaylist
	}

	playlist := &ParsedPlaylist{
		HeaderLines: header,
		Segments:    make([]Segment, 0, len(entries)),
		Finalized:   finalized,
	}
	for _, entry := range entries {
		playlist.Segments = append(playlist.Segments, foldSegment(entry))
	}
	return playlist, nil
}

// tokenizePlaylist splits source lines into preserved header lines and
// (directive, uri) pairs. Header lines are the non-blank lines seen before
// the first segment directive, minus any end-of-list marker; slicing always
// re-derives that marker.
func tokenizePlaylist(raw string) (header []string, entries []segmentEntry, finalized bool) {
	lines := strings.Split(raw, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, endListDirective):
			finalized = true
		case strings.HasPrefix(trimmed, segmentDirective):
			uri, next := nextURILine(lines, i+1)
			if uri != "" {
				entries = append(entries, segmentEntry{directive: trimmed, uri: uri})
				i = next
			}
		case len(entries) == 0 && trimmed != "":
			header = append(header, line)
		}
	}
	return header, entries, finalized
}

// nextURILine finds the first non-directive, non-blank line at or after from.
// It stops without consuming anything if another segment directive or the
// end-of-list marker appears first.
func nextURILine(lines []string, from int) (uri string, index int) {
	for j := from; j < len(lines); j++ {
		trimmed := strings.TrimSpace(strings.TrimRight(lines[j], "\r"))
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			if strings.HasPrefix(trimmed, segmentDirective) || strings.HasPrefix(trimmed, endListDirective) {
				return "", from
			}
			continue
		}
		return trimmed, j
	}
	return "", len(lines)
}

// foldSegment extracts the floating-point duration from between the
// directive's colon and first comma, falling back on fallbackSegmentSeconds
// when the field is unparsable.
func foldSegment(entry segmentEntry) Segment {
	duration := float64(fallbackSegmentSeconds)
	if rest, ok := strings.CutPrefix(entry.directive, segmentDirective+":"); ok {
		field, _, _ := strings.Cut(rest, ",")
		if v, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err == nil && v >= 0 {
			duration = v
		}
	}
	return Segment{Duration: duration, URI: entry.uri}
}

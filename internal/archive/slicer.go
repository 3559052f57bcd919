package archive

import (
	"fmt"
	"strings"
)

// BaseURL returns manifestURL with its final path component dropped, keeping
// the trailing slash. Relative segment URIs are resolved against it.
func BaseURL(manifestURL string) string {
	if i := strings.LastIndex(manifestURL, "/"); i >= 0 {
		return manifestURL[:i+1]
	}
	return manifestURL
}

// SliceWindow computes the contiguous segment range covering window and
// renders it as a self-contained, statically terminated playlist string.
// It returns ErrNotReady until the whole window is durably covered by the
// content available so far; that is the common result while the recording is
// still growing.
//
// Segments are atomic. Boundaries are never split, so the rendered chunk may
// run past the requested duration by up to one segment length.
func SliceWindow(playlist *ParsedPlaylist, window TimeWindow, baseURL string) (string, error) {
	total := playlist.TotalSeconds()
	startSeconds := float64(window.StartMinute) * 60

	if total < startSeconds {
		return "", fmt.Errorf("%w: %.1fs available, window starts at %.1fs", ErrNotReady, total, startSeconds)
	}

	// First segment whose cumulative start time reaches the boundary.
	startIndex := len(playlist.Segments)
	elapsed := 0.0
	for i := range playlist.Segments {
		if elapsed >= startSeconds {
			startIndex = i
			break
		}
		elapsed += playlist.Segments[i].Duration
	}

	endIndex := len(playlist.Segments)
	if !window.Open() {
		need := float64(window.DurationMinute) * 60
		if total < startSeconds+need {
			return "", fmt.Errorf("%w: %.1fs available, window ends at %.1fs", ErrNotReady, total, startSeconds+need)
		}
		var accumulated float64
		for i := startIndex; i < len(playlist.Segments); i++ {
			accumulated += playlist.Segments[i].Duration
			if accumulated >= need {
				endIndex = i + 1
				break
			}
		}
	}

	if startIndex >= endIndex {
		return "", fmt.Errorf("%w: no segments in window", ErrNotReady)
	}

	return renderChunk(playlist.HeaderLines, playlist.Segments[startIndex:endIndex], baseURL), nil
}

// renderChunk emits preserved header lines, the selected segment pairs with
// URIs rewritten to absolute form, then the forced end-of-list marker. The
// forced marker is what lets a downloader built for finished recordings
// safely consume a slice of a still-growing source.
func renderChunk(header []string, segments []Segment, baseURL string) string {
	var b strings.Builder

	for _, line := range header {
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, seg := range segments {
		fmt.Fprintf(&b, "#EXTINF:%.3f,\n", seg.Duration)
		uri := seg.URI
		if !isAbsoluteURI(uri) {
			uri = baseURL + uri
		}
		b.WriteString(uri)
		b.WriteString("\n")
	}
	b.WriteString(endListDirective)
	b.WriteString("\n")

	return b.String()
}

func isAbsoluteURI(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

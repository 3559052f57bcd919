package archive

import (
	"errors"
	"strings"
	"testing"
)

func uniformPlaylist(n int, duration float64) *ParsedPlaylist {
	p := &ParsedPlaylist{HeaderLines: []string{"#EXTM3U", "#EXT-X-VERSION:3"}}
	for i := 0; i < n; i++ {
		p.Segments = append(p.Segments, Segment{Duration: duration, URI: "seg" + string(rune('a'+i)) + ".ts"})
	}
	return p
}

func TestSliceWindow_exact_end_boundary_is_ready(t *testing.T) {
	// 10 segments of 6.0s = 60s total; a 60s window ending exactly at the
	// boundary is ready and selects all 10 segments.
	p := uniformPlaylist(10, 6.0)

	out, err := SliceWindow(p, TimeWindow{StartMinute: 0, DurationMinute: 1}, "https://cdn.example/v/")
	if err != nil {
		t.Fatalf("SliceWindow: %v", err)
	}
	if got := strings.Count(out, "#EXTINF"); got != 10 {
		t.Errorf("expected all 10 segments, got %d", got)
	}
}

func TestSliceWindow_end_not_yet_accumulated(t *testing.T) {
	// Need 120s of content for minute 1..2, only 60s available.
	p := uniformPlaylist(10, 6.0)

	_, err := SliceWindow(p, TimeWindow{StartMinute: 1, DurationMinute: 1}, "")
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}

func TestSliceWindow_start_beyond_total(t *testing.T) {
	p := uniformPlaylist(10, 6.0)

	_, err := SliceWindow(p, TimeWindow{StartMinute: 5, DurationMinute: 1}, "")
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady for start beyond available content, got %v", err)
	}
}

func TestSliceWindow_idempotent(t *testing.T) {
	p := uniformPlaylist(12, 30.0)
	w := TimeWindow{StartMinute: 2, DurationMinute: 3}

	first, err := SliceWindow(p, w, "https://cdn.example/v/")
	if err != nil {
		t.Fatalf("first slice: %v", err)
	}
	second, err := SliceWindow(p, w, "https://cdn.example/v/")
	if err != nil {
		t.Fatalf("second slice: %v", err)
	}
	if first != second {
		t.Error("same playlist and window must yield byte-identical manifests")
	}
}

func TestSliceWindow_forces_endlist_on_growing_source(t *testing.T) {
	p := uniformPlaylist(4, 30.0)
	if p.Finalized {
		t.Fatal("setup: playlist should not be finalized")
	}

	out, err := SliceWindow(p, TimeWindow{StartMinute: 0, DurationMinute: 1}, "")
	if err != nil {
		t.Fatalf("SliceWindow: %v", err)
	}
	if !strings.HasSuffix(out, "#EXT-X-ENDLIST\n") {
		t.Errorf("chunk manifest must end with the end-of-list marker: %q", out)
	}
}

func TestSliceWindow_open_window_selects_to_end(t *testing.T) {
	p := uniformPlaylist(4, 30.0) // 120s

	out, err := SliceWindow(p, TimeWindow{StartMinute: 1}, "")
	if err != nil {
		t.Fatalf("SliceWindow: %v", err)
	}
	if got := strings.Count(out, "#EXTINF"); got != 2 {
		t.Errorf("open window from minute 1 should select the last 2 segments, got %d", got)
	}
}

func TestSliceWindow_open_window_at_exact_end_not_ready(t *testing.T) {
	p := uniformPlaylist(4, 30.0) // 120s total, window starts at 120s

	_, err := SliceWindow(p, TimeWindow{StartMinute: 2}, "")
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady for empty open window, got %v", err)
	}
}

func TestSliceWindow_rewrites_relative_uris(t *testing.T) {
	p := &ParsedPlaylist{
		Segments: []Segment{
			{Duration: 60.0, URI: "chunk-0.ts"},
			{Duration: 60.0, URI: "https://other.example/abs.ts"},
		},
	}

	out, err := SliceWindow(p, TimeWindow{StartMinute: 0, DurationMinute: 2}, "https://cdn.example/vod/123/")
	if err != nil {
		t.Fatalf("SliceWindow: %v", err)
	}
	if !strings.Contains(out, "https://cdn.example/vod/123/chunk-0.ts") {
		t.Errorf("relative URI should be prefixed with base URL: %s", out)
	}
	if !strings.Contains(out, "https://other.example/abs.ts\n") || strings.Contains(out, "https://cdn.example/vod/123/https://") {
		t.Errorf("absolute URI must be left alone: %s", out)
	}
}

func TestSliceWindow_headers_precede_segments(t *testing.T) {
	p := uniformPlaylist(4, 30.0)

	out, err := SliceWindow(p, TimeWindow{StartMinute: 0, DurationMinute: 1}, "")
	if err != nil {
		t.Fatalf("SliceWindow: %v", err)
	}
	if !strings.HasPrefix(out, "#EXTM3U\n#EXT-X-VERSION:3\n") {
		t.Errorf("preserved header lines must come first: %q", out)
	}
}

func TestSliceWindow_duration_bound(t *testing.T) {
	// Mixed segment lengths: a closed window's selected duration is at least
	// the requested duration and under requested + max single segment.
	p := &ParsedPlaylist{Segments: []Segment{
		{Duration: 45.0, URI: "a.ts"},
		{Duration: 20.0, URI: "b.ts"},
		{Duration: 50.0, URI: "c.ts"},
		{Duration: 10.0, URI: "d.ts"},
		{Duration: 40.0, URI: "e.ts"},
		{Duration: 35.0, URI: "f.ts"},
	}}

	out, err := SliceWindow(p, TimeWindow{StartMinute: 0, DurationMinute: 2}, "")
	if err != nil {
		t.Fatalf("SliceWindow: %v", err)
	}

	selected, err := ParsePlaylist(out)
	if err != nil {
		t.Fatalf("reparse sliced manifest: %v", err)
	}

	requested := 120.0
	maxSegment := 50.0
	total := selected.TotalSeconds()
	if total < requested {
		t.Errorf("selected %.1fs, want at least %.1fs", total, requested)
	}
	if total >= requested+maxSegment {
		t.Errorf("selected %.1fs, want under %.1fs", total, requested+maxSegment)
	}
}

func TestBaseURL(t *testing.T) {
	got := BaseURL("https://cdn.example/vod/123/index.m3u8")
	if got != "https://cdn.example/vod/123/" {
		t.Errorf("BaseURL: got %q", got)
	}
	if got := BaseURL("no-slashes"); got != "no-slashes" {
		t.Errorf("BaseURL without separator: got %q", got)
	}
}

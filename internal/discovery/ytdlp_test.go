package discovery

import (
	"strings"
	"testing"
)

func TestArchivesURL(t *testing.T) {
	got := archivesURL("https://www.twitch.tv/example")
	if got != "https://www.twitch.tv/example/videos?filter=archives&sort=time" {
		t.Errorf("channel url: got %q", got)
	}

	got = archivesURL("https://www.twitch.tv/example/")
	if strings.Contains(got, "//videos") {
		t.Errorf("trailing slash not normalized: %q", got)
	}

	already := "https://www.twitch.tv/example/videos?filter=archives"
	if got := archivesURL(already); got != already {
		t.Errorf("explicit listing url must pass through, got %q", got)
	}
}

func TestParseLatestEntry_playlist(t *testing.T) {
	data := []byte(`{"entries": [{"url": "https://www.twitch.tv/videos/42"}, {"url": "https://www.twitch.tv/videos/41"}]}`)

	url, err := parseLatestEntry(data)
	if err != nil {
		t.Fatalf("parseLatestEntry: %v", err)
	}
	if url != "https://www.twitch.tv/videos/42" {
		t.Errorf("expected first entry, got %q", url)
	}
}

func TestParseLatestEntry_single_video(t *testing.T) {
	data := []byte(`{"url": "https://www.twitch.tv/videos/42"}`)

	url, err := parseLatestEntry(data)
	if err != nil {
		t.Fatalf("parseLatestEntry: %v", err)
	}
	if url != "https://www.twitch.tv/videos/42" {
		t.Errorf("got %q", url)
	}
}

func TestParseLatestEntry_empty(t *testing.T) {
	if _, err := parseLatestEntry([]byte(`{"entries": []}`)); err == nil {
		t.Error("expected error for channel without recordings")
	}
	if _, err := parseLatestEntry([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed listing")
	}
}

func TestIdentityFromInfo(t *testing.T) {
	info := &videoInfo{
		URL:        "https://cdn.example/vod/42/index.m3u8",
		WebpageURL: "https://www.twitch.tv/videos/42",
		Timestamp:  1700000000,
		Duration:   5400,
		Uploader:   "example",
		Title:      "Tuesday stream",
	}

	identity, err := identityFromInfo(info, "https://www.twitch.tv/videos/42")
	if err != nil {
		t.Fatalf("identityFromInfo: %v", err)
	}
	if identity.CreatedAt != 1700000000 || identity.TotalDurationSeconds != 5400 {
		t.Errorf("unexpected identity: %+v", identity)
	}
	if identity.ManifestURL != "https://cdn.example/vod/42/index.m3u8" {
		t.Errorf("manifest url: got %q", identity.ManifestURL)
	}
	if identity.SourceURL != "https://www.twitch.tv/videos/42" {
		t.Errorf("source url: got %q", identity.SourceURL)
	}
}

func TestIdentityFromInfo_growing_recording(t *testing.T) {
	info := &videoInfo{
		URL:       "https://cdn.example/vod/42/index.m3u8",
		Timestamp: 1700000000,
	}

	identity, err := identityFromInfo(info, "https://www.twitch.tv/videos/42")
	if err != nil {
		t.Fatalf("identityFromInfo: %v", err)
	}
	if identity.TotalDurationSeconds != 0 {
		t.Errorf("missing duration should read as growing, got %f", identity.TotalDurationSeconds)
	}
	if identity.SourceURL != "https://www.twitch.tv/videos/42" {
		t.Errorf("source url should fall back to the listing url, got %q", identity.SourceURL)
	}
}

func TestIdentityFromInfo_rejects_incomplete_metadata(t *testing.T) {
	if _, err := identityFromInfo(&videoInfo{URL: "x"}, "y"); err == nil {
		t.Error("expected error for missing timestamp")
	}
	if _, err := identityFromInfo(&videoInfo{Timestamp: 1700000000}, "y"); err == nil {
		t.Error("expected error for missing stream url")
	}
}

func TestParseVideoInfo_malformed(t *testing.T) {
	if _, err := parseVideoInfo([]byte(`{`)); err == nil {
		t.Error("expected error for malformed metadata")
	}
}

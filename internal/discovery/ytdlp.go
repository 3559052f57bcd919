// Package discovery resolves the latest recording of a channel by driving
// the yt-dlp binary.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"vod-archiver/internal/archive"
)

// DefaultTimeout bounds one yt-dlp invocation.
const DefaultTimeout = 60 * time.Second

// streamFormat keeps yt-dlp on a single muxed format so the reported stream
// URL is the media playlist itself.
const streamFormat = "best[height<=480]"

// YtDlp implements archive.MetadataProvider by shelling out to yt-dlp.
type YtDlp struct {
	binary  string
	timeout time.Duration
	log     *slog.Logger
}

// NewYtDlp returns a provider using the given yt-dlp binary. An empty binary
// defaults to "yt-dlp" on PATH; a non-positive timeout defaults to
// DefaultTimeout.
func NewYtDlp(binary string, timeout time.Duration, log *slog.Logger) *YtDlp {
	if binary == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &YtDlp{binary: binary, timeout: timeout, log: log}
}

// DiscoverLatest implements archive.MetadataProvider. It lists the channel's
// archive tab flat to find the newest recording, then fetches that
// recording's full metadata for the creation instant, duration, and media
// playlist URL.
func (y *YtDlp) DiscoverLatest(ctx context.Context, channelTarget string) (*archive.RecordingIdentity, error) {
	target := archivesURL(channelTarget)
	y.log.Debug("listing channel archive", slog.String("url", target))

	listing, err := y.run(ctx,
		"--dump-single-json", "--flat-playlist", "--playlist-end", "1",
		"--no-warnings", target)
	if err != nil {
		return nil, err
	}

	vodURL, err := parseLatestEntry(listing)
	if err != nil {
		return nil, err
	}

	detail, err := y.run(ctx,
		"--dump-single-json", "--no-warnings", "--format", streamFormat, vodURL)
	if err != nil {
		return nil, err
	}

	info, err := parseVideoInfo(detail)
	if err != nil {
		return nil, err
	}
	return identityFromInfo(info, vodURL)
}

func (y *YtDlp) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.binary, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s: %w: %s", y.binary, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", y.binary, err)
	}
	return out, nil
}

// archivesURL points channelTarget at its archive listing unless the caller
// already did.
func archivesURL(channelTarget string) string {
	if strings.Contains(channelTarget, "/videos") {
		return channelTarget
	}
	return strings.TrimRight(channelTarget, "/") + "/videos?filter=archives&sort=time"
}

type videoInfo struct {
	URL        string  `json:"url"`
	WebpageURL string  `json:"webpage_url"`
	Timestamp  float64 `json:"timestamp"`
	Duration   float64 `json:"duration"`
	Uploader   string  `json:"uploader"`
	Title      string  `json:"title"`
}

type playlistInfo struct {
	Entries    []videoInfo `json:"entries"`
	URL        string      `json:"url"`
	WebpageURL string      `json:"webpage_url"`
}

// parseLatestEntry extracts the newest recording's URL from a flat playlist
// dump. A dump without entries can still be a single video.
func parseLatestEntry(data []byte) (string, error) {
	var listing playlistInfo
	if err := json.Unmarshal(data, &listing); err != nil {
		return "", fmt.Errorf("parse channel listing: %w", err)
	}
	if len(listing.Entries) > 0 {
		if listing.Entries[0].URL == "" {
			return "", errors.New("channel listing entry has no url")
		}
		return listing.Entries[0].URL, nil
	}
	if listing.URL != "" {
		return listing.URL, nil
	}
	return "", errors.New("no recordings found for channel")
}

func parseVideoInfo(data []byte) (*videoInfo, error) {
	var info videoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse recording metadata: %w", err)
	}
	return &info, nil
}

// identityFromInfo maps yt-dlp metadata to a RecordingIdentity. A missing
// creation instant makes the recording unidentifiable across polls, so it is
// an error; a missing duration just means the recording is still growing.
func identityFromInfo(info *videoInfo, vodURL string) (*archive.RecordingIdentity, error) {
	if info.Timestamp <= 0 {
		return nil, errors.New("recording metadata has no creation timestamp")
	}
	if info.URL == "" {
		return nil, errors.New("recording metadata has no stream url")
	}

	sourceURL := info.WebpageURL
	if sourceURL == "" {
		sourceURL = vodURL
	}

	return &archive.RecordingIdentity{
		SourceURL:            sourceURL,
		CreatedAt:            info.Timestamp,
		TotalDurationSeconds: info.Duration,
		ManifestURL:          info.URL,
		Uploader:             info.Uploader,
		Title:                info.Title,
	}, nil
}

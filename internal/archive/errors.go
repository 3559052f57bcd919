package archive

import "errors"

var (
	// ErrNetwork is returned for transport failures and non-2xx playlist
	// responses. The current poll aborts without mutating persisted state.
	ErrNetwork = errors.New("network failure")

	// ErrMalformedPlaylist is returned when a playlist yields zero segments.
	// The planner treats it as not-ready rather than fatal.
	ErrMalformedPlaylist = errors.New("playlist contains no segments")

	// ErrNotReady means the requested window is not yet fully covered by
	// available content. Expected while the recording is still growing.
	ErrNotReady = errors.New("window not yet available")

	// ErrDiscovery is returned when the metadata provider cannot produce a
	// recording identity.
	ErrDiscovery = errors.New("recording discovery failed")

	// ErrDownloadDispatch is returned when the downstream downloader rejects
	// or fails a chunk. The same window is retried on the next poll.
	ErrDownloadDispatch = errors.New("chunk dispatch failed")
)

package archive

// Segment is one playable unit referenced by a playlist line pair
// (duration directive + URI). Immutable once parsed.
type Segment struct {
	Duration float64 // seconds
	URI      string  // absolute, or relative to the playlist's base location
}

// ParsedPlaylist is the ordered segment view of a raw HLS playlist.
// Segment order is exactly the order segments appear in the source text.
type ParsedPlaylist struct {
	// HeaderLines are the non-segment directive lines that preceded the first
	// segment, in source order. A pre-existing end-of-list marker is never
	// kept here; slicing re-derives it.
	HeaderLines []string
	Segments    []Segment
	// Finalized reports whether the source contained the end-of-list marker,
	// i.e. the recording will not grow further.
	Finalized bool
}

// TotalSeconds returns the summed duration of all segments.
func (p *ParsedPlaylist) TotalSeconds() float64 {
	var total float64
	for _, seg := range p.Segments {
		total += seg.Duration
	}
	return total
}

// TimeWindow is one chunk request: [StartMinute, StartMinute+DurationMinute)
// of recording time. A DurationMinute of 0 means "open": everything from the
// start boundary to the end of currently available content.
type TimeWindow struct {
	StartMinute    int
	DurationMinute int
}

// Open reports whether the window extends to the end of available content.
func (w TimeWindow) Open() bool {
	return w.DurationMinute <= 0
}

// RecordingIdentity identifies which recording a poll is looking at.
// CreatedAt distinguishes one broadcast from the next across polls.
type RecordingIdentity struct {
	SourceURL string  // the recording's page URL
	CreatedAt float64 // platform-reported creation instant, unix seconds

	// TotalDurationSeconds is 0 while the recording is still growing;
	// a positive value is the platform's current duration knowledge.
	TotalDurationSeconds float64

	// ManifestURL is the resolved media playlist for this recording.
	ManifestURL string

	Uploader string
	Title    string
}

// ProgressRecord is the persisted per-target acquisition state. The on-disk
// copy is the source of truth between polls; nothing survives in memory.
type ProgressRecord struct {
	LastTimestamp    float64 `json:"last_ts"`
	VODURL           string  `json:"vod_url"`
	DownloadedChunks int     `json:"downloaded_chunks"`
	TotalChunks      *int    `json:"total_chunks"`
}

// ChunkRecord describes one successfully committed chunk. It is handed to the
// optional journal and notifier after the progress record has been persisted.
type ChunkRecord struct {
	PollID         string
	Target         string
	SourceURL      string
	Title          string
	ChunkIndex     int
	StartMinute    int
	DurationMinute int
	Destination    string
}

// Outcome is the sole observable result of one poll invocation.
type Outcome string

const (
	OutcomeNewChunkDownloaded       Outcome = "NEW_RECORDING_CHUNK_DOWNLOADED"
	OutcomeContinuedChunkDownloaded Outcome = "CONTINUED_CHUNK_DOWNLOADED"
	OutcomeChunkNotReady            Outcome = "CHUNK_NOT_READY"
	OutcomeAllChunksDone            Outcome = "ALL_CHUNKS_DONE"
	OutcomeNoOp                     Outcome = "NO_OP"
	OutcomeDiscoveryFailed          Outcome = "DISCOVERY_FAILED"
	OutcomeChunkDownloadFailed      Outcome = "CHUNK_DOWNLOAD_FAILED"
)

// Downloaded reports whether the outcome represents a successfully archived chunk.
func (o Outcome) Downloaded() bool {
	return o == OutcomeNewChunkDownloaded || o == OutcomeContinuedChunkDownloaded
}

package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultChunkSizeMinutes is the chunk window size used when none is configured.
const DefaultChunkSizeMinutes = 60

// sameRecordingJitter absorbs clock and metadata noise when comparing the
// discovered creation instant against the persisted one. A recording is only
// treated as new once it is newer by more than this. The value is a default
// inferred from platform behavior, not a guaranteed contract.
const sameRecordingJitter = 600.0 // seconds

// MetadataProvider discovers the most recent recording for a channel target.
// A missing total duration signals a recording that is still growing.
type MetadataProvider interface {
	DiscoverLatest(ctx context.Context, channelTarget string) (*RecordingIdentity, error)
}

// Downloader receives a sliced chunk manifest for acquisition. It must be
// safe to invoke more than once for the same logical chunk: a crash between
// dispatch and state commit makes the next poll retry the same window.
type Downloader interface {
	Dispatch(ctx context.Context, manifest string, destinationHint string) error
}

// ChunkJournal records each committed chunk for auditing. Optional.
type ChunkJournal interface {
	Record(ctx context.Context, rec ChunkRecord) error
}

// Notifier announces each committed chunk to an external system. Optional.
type Notifier interface {
	ChunkArchived(ctx context.Context, rec ChunkRecord) error
}

// PlannerConfig carries the per-target acquisition policy. There are no
// ambient defaults; everything the planner needs arrives here.
type PlannerConfig struct {
	ChannelTarget    string
	ChunkSizeMinutes int
}

// PlannerDeps bundles the planner's collaborators. Store, Metadata,
// Playlists, and Downloader are required; Journal and Notifier may be nil.
type PlannerDeps struct {
	Store      ProgressStore
	Metadata   MetadataProvider
	Playlists  PlaylistSource
	Downloader Downloader
	Journal    ChunkJournal
	Notifier   Notifier
	Logger     *slog.Logger
}

// Result is the observable output of one poll invocation.
type Result struct {
	Outcome    Outcome            `json:"outcome"`
	ChunkIndex int                `json:"chunk_index"`
	Window     TimeWindow         `json:"-"`
	Identity   *RecordingIdentity `json:"-"`
}

// Planner runs the per-poll acquisition state machine. One Poll performs at
// most one fetch+slice+dispatch cycle and commits progress only after the
// downloader succeeds; every failure path leaves persisted state untouched.
type Planner struct {
	cfg  PlannerConfig
	deps PlannerDeps
	log  *slog.Logger
}

// NewPlanner validates deps and returns a Planner. A non-positive chunk size
// falls back to DefaultChunkSizeMinutes.
func NewPlanner(cfg PlannerConfig, deps PlannerDeps) (*Planner, error) {
	if cfg.ChannelTarget == "" {
		return nil, errors.New("planner requires a channel target")
	}
	if deps.Store == nil || deps.Metadata == nil || deps.Playlists == nil || deps.Downloader == nil {
		return nil, errors.New("planner requires store, metadata provider, playlist source, and downloader")
	}
	if cfg.ChunkSizeMinutes <= 0 {
		cfg.ChunkSizeMinutes = DefaultChunkSizeMinutes
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Planner{cfg: cfg, deps: deps, log: log}, nil
}

// Poll performs one acquisition cycle and returns its terminal outcome.
// Errors are local to the invocation; the process-level caller decides
// whether to retry on the next external trigger.
func (p *Planner) Poll(ctx context.Context) (Result, error) {
	pollID := uuid.NewString()
	log := p.log.With(slog.String("poll_id", pollID), slog.String("target", p.cfg.ChannelTarget))

	identity, err := p.deps.Metadata.DiscoverLatest(ctx, p.cfg.ChannelTarget)
	if err != nil {
		log.Error("discovery failed", slog.String("error", err.Error()))
		return Result{Outcome: OutcomeDiscoveryFailed}, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}

	record, err := p.deps.Store.Load()
	if err != nil {
		return Result{}, fmt.Errorf("load progress: %w", err)
	}

	isNew, targetChunk, ok := classifyTransition(identity, record)
	if !ok {
		log.Info("discovered recording is older than recorded state, nothing to do",
			slog.Float64("discovered_ts", identity.CreatedAt),
			slog.Float64("recorded_ts", record.LastTimestamp))
		return Result{Outcome: OutcomeNoOp}, nil
	}

	window := TimeWindow{
		StartMinute:    targetChunk * p.cfg.ChunkSizeMinutes,
		DurationMinute: p.cfg.ChunkSizeMinutes,
	}
	result := Result{ChunkIndex: targetChunk, Window: window, Identity: identity}

	raw, err := p.deps.Playlists.Fetch(ctx, identity.ManifestURL)
	if err != nil {
		log.Warn("manifest fetch failed", slog.String("error", err.Error()))
		return Result{}, err
	}

	playlist, err := ParsePlaylist(raw)
	if err != nil {
		log.Warn("manifest not sliceable yet", slog.String("error", err.Error()))
		result.Outcome = OutcomeChunkNotReady
		return result, nil
	}

	estimate := estimateTotalChunks(identity, p.cfg.ChunkSizeMinutes)
	if playlist.Finalized && estimate != nil && *estimate <= targetChunk {
		log.Info("recording fully archived",
			slog.Int("chunks", targetChunk),
			slog.Int("total_chunks", *estimate))
		result.Outcome = OutcomeAllChunksDone
		return result, nil
	}

	manifest, err := SliceWindow(playlist, window, BaseURL(identity.ManifestURL))
	if err != nil {
		if errors.Is(err, ErrNotReady) {
			log.Info("chunk not ready",
				slog.Int("chunk", targetChunk),
				slog.Int("start_minute", window.StartMinute),
				slog.Float64("available_seconds", playlist.TotalSeconds()))
			result.Outcome = OutcomeChunkNotReady
			return result, nil
		}
		return Result{}, err
	}

	destination := destinationHint(identity, targetChunk)
	if err := p.deps.Downloader.Dispatch(ctx, manifest, destination); err != nil {
		log.Error("chunk dispatch failed",
			slog.Int("chunk", targetChunk),
			slog.String("destination", destination),
			slog.String("error", err.Error()))
		result.Outcome = OutcomeChunkDownloadFailed
		return result, fmt.Errorf("%w: %v", ErrDownloadDispatch, err)
	}

	record.LastTimestamp = identity.CreatedAt
	record.VODURL = identity.SourceURL
	record.DownloadedChunks = targetChunk + 1
	record.TotalChunks = estimate
	if err := p.deps.Store.Save(record); err != nil {
		// The chunk is safely archived; the next poll re-dispatches the same
		// window, which the downloader must treat as overwrite-safe.
		return result, fmt.Errorf("commit progress after chunk %d: %w", targetChunk, err)
	}

	chunk := ChunkRecord{
		PollID:         pollID,
		Target:         p.cfg.ChannelTarget,
		SourceURL:      identity.SourceURL,
		Title:          recordingTitle(identity),
		ChunkIndex:     targetChunk,
		StartMinute:    window.StartMinute,
		DurationMinute: window.DurationMinute,
		Destination:    destination,
	}
	p.announce(ctx, log, chunk)

	if isNew {
		result.Outcome = OutcomeNewChunkDownloaded
	} else {
		result.Outcome = OutcomeContinuedChunkDownloaded
	}
	log.Info("chunk archived",
		slog.Int("chunk", targetChunk),
		slog.Int("downloaded_chunks", record.DownloadedChunks),
		slog.String("outcome", string(result.Outcome)))
	return result, nil
}

// classifyTransition decides how the discovered recording relates to the
// persisted record. isNew means planning restarts at chunk zero; the stored
// record is not touched until a chunk actually succeeds. ok is false when the
// identity is older than recorded (a stale or duplicate signal).
func classifyTransition(identity *RecordingIdentity, record ProgressRecord) (isNew bool, targetChunk int, ok bool) {
	delta := identity.CreatedAt - record.LastTimestamp
	switch {
	case delta > sameRecordingJitter:
		return true, 0, true
	case math.Abs(delta) < sameRecordingJitter:
		return false, record.DownloadedChunks, true
	default:
		return false, 0, false
	}
}

// estimateTotalChunks derives the chunk count from current duration
// knowledge, or nil while the recording is still growing.
func estimateTotalChunks(identity *RecordingIdentity, chunkSizeMinutes int) *int {
	if identity.TotalDurationSeconds <= 0 {
		return nil
	}
	n := int(math.Ceil(identity.TotalDurationSeconds / 60 / float64(chunkSizeMinutes)))
	return &n
}

// recordingTitle derives the destination folder name for a recording.
func recordingTitle(identity *RecordingIdentity) string {
	uploader := identity.Uploader
	if uploader == "" {
		uploader = "Unknown"
	}
	created := time.Unix(int64(identity.CreatedAt), 0).UTC().Format("2006-01-02T15_04_05")
	return cleanFilename(fmt.Sprintf("Twitch_VOD_%s_%s", uploader, created))
}

// destinationHint names one chunk inside the recording's folder.
func destinationHint(identity *RecordingIdentity, chunkIndex int) string {
	return path.Join(recordingTitle(identity), fmt.Sprintf("chunk_%03d", chunkIndex))
}

// cleanFilename strips characters that are invalid in folder names.
func cleanFilename(name string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name))
}

// announce feeds the committed chunk to the optional journal and notifier.
// Both are best-effort: failures are logged and never affect the poll
// outcome or persisted state.
func (p *Planner) announce(ctx context.Context, log *slog.Logger, chunk ChunkRecord) {
	if p.deps.Journal != nil {
		if err := p.deps.Journal.Record(ctx, chunk); err != nil {
			log.Warn("journal write failed", slog.String("error", err.Error()))
		}
	}
	if p.deps.Notifier != nil {
		if err := p.deps.Notifier.ChunkArchived(ctx, chunk); err != nil {
			log.Warn("webhook notification failed", slog.String("error", err.Error()))
		}
	}
}

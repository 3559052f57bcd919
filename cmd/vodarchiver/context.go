package main

import (
	"log/slog"
	"time"

	"vod-archiver/internal/archive"
	"vod-archiver/internal/discovery"
	"vod-archiver/internal/dispatch"
	"vod-archiver/internal/journal"
	"vod-archiver/internal/notify"
	"vod-archiver/internal/platform/config"
	"vod-archiver/internal/platform/logger"
)

// app holds the loaded configuration and logger shared by all commands.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg: cfg,
		log: logger.New(cfg.LogLevel, cfg.LogFormat),
	}, nil
}

func (a *app) httpTimeout() time.Duration {
	return time.Duration(a.cfg.HTTPTimeoutSeconds) * time.Second
}

// runtime wires the planner and its collaborators for one command.
type runtime struct {
	planner *archive.Planner
	store   archive.ProgressStore
	journal *journal.Store
}

func (a *app) buildRuntime() (*runtime, error) {
	store := archive.NewFileProgressStore(a.cfg.StateFile)

	jr, err := journal.Open(a.cfg.JournalPath)
	if err != nil {
		return nil, err
	}

	planner, err := archive.NewPlanner(
		archive.PlannerConfig{
			ChannelTarget:    a.cfg.ChannelTarget,
			ChunkSizeMinutes: a.cfg.ChunkSizeMinutes,
		},
		archive.PlannerDeps{
			Store:      store,
			Metadata:   discovery.NewYtDlp(a.cfg.YtDlpBinary, 0, a.log),
			Playlists:  archive.NewFetcher(a.httpTimeout()),
			Downloader: dispatch.NewCommandDownloader(a.cfg.DownloadDir, a.cfg.DownloaderCommand, 0, a.log),
			Journal:    jr,
			Notifier:   notify.NewService(a.cfg.WebhookURL, a.httpTimeout()),
			Logger:     a.log,
		},
	)
	if err != nil {
		_ = jr.Close()
		return nil, err
	}

	return &runtime{planner: planner, store: store, journal: jr}, nil
}

func (r *runtime) Close() error {
	return r.journal.Close()
}

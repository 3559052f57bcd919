package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"vod-archiver/internal/archive"
	"vod-archiver/internal/platform/logger"
	"vod-archiver/internal/platform/metrics"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve HTTP poll trigger endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configFlag)
			if err != nil {
				return err
			}

			rt, err := a.buildRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			met := metrics.New()
			h := archive.NewHandler(rt.planner, rt.store, a.log, met)

			r := chi.NewRouter()
			r.Use(logger.RequestLogger(a.log))
			r.Use(metrics.RequestMiddleware(met))
			r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
				met.Handler(func() {
					if record, err := rt.store.Load(); err == nil {
						met.SetChunksAcquired(record.DownloadedChunks)
					}
				}).ServeHTTP(w, req)
			})
			r.Post("/poll", h.Poll)
			r.Get("/status", h.Status)
			r.Get("/healthz", h.Healthz)

			srv := &http.Server{Addr: a.cfg.ListenAddr, Handler: r}

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			a.log.Info("server starting",
				slog.String("addr", a.cfg.ListenAddr),
				slog.String("target", a.cfg.ChannelTarget),
				slog.Int("chunk_size_minutes", a.cfg.ChunkSizeMinutes),
			)

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			a.log.Info("shutdown signal received, draining connections")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				return err
			}

			a.log.Info("server stopped")
			return nil
		},
	}
}

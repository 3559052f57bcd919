package archive

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"vod-archiver/internal/platform/metrics"
)

const jsonContentType = "application/json"

// Handler exposes the poll trigger over HTTP. Each POST /poll runs exactly
// one planner invocation; requests are serialized so no two chunk attempts
// overlap within the process.
type Handler struct {
	planner *Planner
	store   ProgressStore
	log     *slog.Logger
	metrics *metrics.Metrics

	mu sync.Mutex
}

// NewHandler returns a Handler using the given Planner, store, Logger, and
// optional Metrics. Metrics may be nil to disable metric recording (e.g. in
// tests).
func NewHandler(planner *Planner, store ProgressStore, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{planner: planner, store: store, log: log, metrics: m}
}

// Poll handles POST /poll by running one acquisition cycle.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	result, err := h.planner.Poll(r.Context())
	h.mu.Unlock()

	h.record(result.Outcome, err)

	if err != nil {
		h.log.Error("poll failed",
			slog.String("outcome", string(result.Outcome)),
			slog.String("error", err.Error()))
		if result.Outcome == "" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
	}

	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

// Status handles GET /status with the persisted progress record.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.Load()
	if err != nil {
		h.log.Error("load progress failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(record)
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) record(outcome Outcome, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.IncPolls()
	switch {
	case outcome.Downloaded():
		h.metrics.IncChunksDownloaded()
	case outcome == OutcomeChunkNotReady:
		h.metrics.IncChunksNotReady()
	}
	if err != nil {
		h.metrics.IncPollErrors()
	}
}

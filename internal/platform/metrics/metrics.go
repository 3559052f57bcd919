package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the VOD archiver.
type Metrics struct {
	registry              *prometheus.Registry
	requestsTotal         prometheus.Counter
	pollsTotal            prometheus.Counter
	chunksDownloadedTotal prometheus.Counter
	chunksNotReadyTotal   prometheus.Counter
	pollErrorsTotal       prometheus.Counter
	chunksAcquired        prometheus.Gauge
	errorsTotal           prometheus.Counter
}

// New creates and registers Prometheus metrics for the archiver.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vod_requests_total",
		Help: "Total number of HTTP requests received",
	})
	pollsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vod_polls_total",
		Help: "Total number of poll invocations",
	})
	chunksDownloadedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vod_chunks_downloaded_total",
		Help: "Total number of chunk manifests successfully dispatched",
	})
	chunksNotReadyTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vod_chunks_not_ready_total",
		Help: "Total number of polls that found the next chunk not yet available",
	})
	pollErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vod_poll_errors_total",
		Help: "Total number of polls that ended in an error",
	})
	chunksAcquired := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vod_chunks_acquired",
		Help: "Chunks acquired for the recording currently being archived",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vod_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		pollsTotal,
		chunksDownloadedTotal,
		chunksNotReadyTotal,
		pollErrorsTotal,
		chunksAcquired,
		errorsTotal,
	)

	return &Metrics{
		registry:              registry,
		requestsTotal:         requestsTotal,
		pollsTotal:            pollsTotal,
		chunksDownloadedTotal: chunksDownloadedTotal,
		chunksNotReadyTotal:   chunksNotReadyTotal,
		pollErrorsTotal:       pollErrorsTotal,
		chunksAcquired:        chunksAcquired,
		errorsTotal:           errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncPolls increments the poll invocation counter.
func (m *Metrics) IncPolls() {
	m.pollsTotal.Inc()
}

// IncChunksDownloaded increments the dispatched chunk counter.
func (m *Metrics) IncChunksDownloaded() {
	m.chunksDownloadedTotal.Inc()
}

// IncChunksNotReady increments the not-ready poll counter.
func (m *Metrics) IncChunksNotReady() {
	m.chunksNotReadyTotal.Inc()
}

// IncPollErrors increments the failed poll counter.
func (m *Metrics) IncPollErrors() {
	m.pollErrorsTotal.Inc()
}

// SetChunksAcquired sets the acquired chunk gauge.
func (m *Metrics) SetChunksAcquired(n int) {
	m.chunksAcquired.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. the
// acquired chunk count from the state file).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

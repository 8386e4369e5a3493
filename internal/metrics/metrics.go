// Package metrics exposes scrape-run counters for watch mode.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics carries the run counters and the HTTP server exposing them on
// /metrics, with a trivial /healthz next to it.
type Metrics struct {
	runs          *prometheus.CounterVec
	eventsScraped prometheus.Counter
	eventsFailed  prometheus.Counter
	eventsWritten *prometheus.CounterVec
	lastRun       prometheus.Gauge

	server *http.Server
}

// New registers the scraper metrics on the default registry and prepares a
// server on addr. Call it once per process.
func New(addr string) *Metrics {
	m := &Metrics{}
	m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fbscrape",
		Name:      "runs_total",
		Help:      "Completed scrape runs by status",
	}, []string{"status"})
	m.eventsScraped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fbscrape",
		Name:      "events_scraped_total",
		Help:      "Events successfully extracted from their pages",
	})
	m.eventsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fbscrape",
		Name:      "events_failed_total",
		Help:      "Events that could not be scraped or stored",
	})
	m.eventsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fbscrape",
		Name:      "events_written_total",
		Help:      "Snapshot writes by outcome (new, changed, unchanged)",
	}, []string{"result"})
	m.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fbscrape",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed run",
	})

	prometheus.MustRegister(
		m.runs, m.eventsScraped, m.eventsFailed, m.eventsWritten, m.lastRun,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	m.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return m
}

// Handler returns the HTTP handler serving /metrics and /healthz.
func (m *Metrics) Handler() http.Handler { return m.server.Handler }

func (m *Metrics) Serve() error                       { return m.server.ListenAndServe() }
func (m *Metrics) Shutdown(ctx context.Context) error { return m.server.Shutdown(ctx) }

// RunCompleted records the end of a run and its overall status.
func (m *Metrics) RunCompleted(failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	m.runs.WithLabelValues(status).Inc()
	m.lastRun.SetToCurrentTime()
}

func (m *Metrics) EventScraped() { m.eventsScraped.Inc() }

func (m *Metrics) EventFailed() { m.eventsFailed.Inc() }

// EventWritten records a snapshot write outcome ("new", "changed",
// "unchanged").
func (m *Metrics) EventWritten(result string) {
	m.eventsWritten.WithLabelValues(result).Inc()
}

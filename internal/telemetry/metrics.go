// Package telemetry exports fetch statistics of the metric sources as
// Prometheus collectors, optionally served on a local /metrics endpoint.
package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	tderrors "github.com/rileyhilliard/termdash/internal/errors"
	"github.com/rileyhilliard/termdash/internal/source"
)

// Metrics bundles the collectors fed by source fetches.
// It implements source.Observer.
type Metrics struct {
	FetchesTotal     *prometheus.CounterVec
	FetchFailures    *prometheus.CounterVec
	FetchDurationSec *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	LastSuccess      *prometheus.GaugeVec
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "termdash_source_fetches_total",
			Help: "Total number of fetches started per source.",
		}, []string{"source"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "termdash_source_fetch_failures_total",
			Help: "Total number of failed fetches per source.",
		}, []string{"source"}),
		FetchDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "termdash_source_fetch_duration_seconds",
			Help:    "Fetch duration in seconds per source.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "termdash_source_fetch_in_flight",
			Help: "Fetches currently running per source.",
		}, []string{"source"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "termdash_source_last_success_timestamp_seconds",
			Help: "Unix time of the last successful fetch per source.",
		}, []string{"source"}),
	}

	registry.MustRegister(
		m.FetchesTotal,
		m.FetchFailures,
		m.FetchDurationSec,
		m.InFlight,
		m.LastSuccess,
	)

	return m
}

func (m *Metrics) FetchStarted(src string) {
	m.FetchesTotal.WithLabelValues(src).Inc()
	m.InFlight.WithLabelValues(src).Inc()
}

func (m *Metrics) FetchFinished(r source.Result) {
	m.InFlight.WithLabelValues(r.Source).Dec()
	m.FetchDurationSec.WithLabelValues(r.Source).Observe(r.Duration.Seconds())
	if !r.OK {
		m.FetchFailures.WithLabelValues(r.Source).Inc()
		return
	}
	m.LastSuccess.WithLabelValues(r.Source).Set(float64(r.At.Unix()))
}

var _ source.Observer = (*Metrics)(nil)

// Server serves the registry on /metrics.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and starts serving registry in the background.
func Listen(addr string, registry *prometheus.Registry) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, tderrors.WrapWithCode(err, tderrors.ErrMetrics,
			"Can't start the metrics listener on "+addr,
			"Pick a free address with --metrics-listen, or leave it empty to disable metrics.")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s := &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	go func() {
		_ = s.srv.Serve(ln)
	}()
	return s, nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

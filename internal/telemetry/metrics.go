// Package telemetry exposes an optional Prometheus scrape endpoint for the
// engine's final score and per-source evidence totals. It is gated behind
// an environment variable, never started by default: the specification's
// non-goals exclude persisting findings, and a metrics endpoint is a
// momentary, in-memory view, not storage.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aleksvor/sentrycheck/internal/evidence"
	"github.com/aleksvor/sentrycheck/internal/output"
)

// AddrEnvVar, when set, causes the produced binary to also start the
// Prometheus HTTP server at the given address after the detection run
// completes.
const AddrEnvVar = "ANTIDEBUG_METRICS_ADDR"

const metricPrefix = "sentrycheck_"

// Collector holds the gauges a single run publishes. Unlike a long-running
// exporter, this process runs once and exits — the gauges simply reflect
// that one run's final values for as long as the process stays up to serve
// /metrics (the root command keeps serving after the run until interrupted).
type Collector struct {
	score   prometheus.Gauge
	verdict *prometheus.GaugeVec
	source  *prometheus.GaugeVec
	reg     *prometheus.Registry
}

// NewCollector builds a fresh, unregistered-with-the-default-registry
// Collector so tests and repeated runs never hit Prometheus's
// already-registered panic.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		score: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "score",
			Help: "Final aggregated detection score for the last run.",
		}),
		verdict: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricPrefix + "verdict",
			Help: "1 for the verdict of the last run, 0 for all others.",
		}, []string{"verdict"}),
		source: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricPrefix + "source_total",
			Help: "Effective evidence total contributed by each detection source in the last run.",
		}, []string{"source"}),
		reg: reg,
	}
	reg.MustRegister(c.score, c.verdict, c.source)
	return c
}

// Observe records a Report's final state into the gauges.
func (c *Collector) Observe(report output.Report) {
	c.score.Set(float64(report.Score))

	for _, v := range []string{
		evidence.Clean.String(), evidence.Suspicious.String(),
		evidence.Instrumented.String(), evidence.Deceptive.String(),
	} {
		val := 0.0
		if v == report.Verdict {
			val = 1.0
		}
		c.verdict.WithLabelValues(v).Set(val)
	}

	for _, s := range evidence.AllSources() {
		c.source.WithLabelValues(s.String()).Set(float64(report.SourceTotals[s.String()]))
	}
}

// Serve starts the Prometheus HTTP endpoint on addr and blocks until ctx is
// canceled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[telemetry] serving Prometheus metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("telemetry: serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

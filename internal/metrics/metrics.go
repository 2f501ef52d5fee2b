// Package metrics exposes run counters in Prometheus format. autosort is a
// short-lived command, so metrics are written to a node_exporter textfile
// after each run instead of being served.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"autosort/internal/organizer"
	"autosort/internal/pipeline"
)

const namespace = "autosort"

// Collector owns a private registry with the autosort collectors. It is
// safe for concurrent use and satisfies pipeline.Observer.
type Collector struct {
	registry   *prometheus.Registry
	files      *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
	collisions *prometheus.CounterVec
	describe   *prometheus.HistogramVec
	setup      *prometheus.CounterVec
	lastRun    prometheus.Gauge
	duration   prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Files processed, by category and result.",
		}, []string{"category", "result"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "describe_fallbacks_total",
			Help:      "Files named with a fallback label.",
		}, []string{"category"}),
		collisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "move_collisions_total",
			Help:      "Moves that lost a race for their allocated name.",
		}, []string{"category"}),
		describe: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "describe_duration_seconds",
			Help:      "Time spent producing a label.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"category"}),
		setup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_setup_failures_total",
			Help:      "Categories skipped because their destination could not be prepared.",
		}, []string{"category"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}
	c.registry.MustRegister(c.files, c.fallbacks, c.collisions, c.describe, c.setup, c.lastRun, c.duration)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveOutcome records one finished file.
func (c *Collector) ObserveOutcome(out organizer.Outcome) {
	category := string(out.Category)
	result := "failed"
	if out.Success {
		result = "moved"
	}
	c.files.WithLabelValues(category, result).Inc()
	if out.Fallback {
		c.fallbacks.WithLabelValues(category).Inc()
	}
	if out.Collisions > 0 {
		c.collisions.WithLabelValues(category).Add(float64(out.Collisions))
	}
	c.describe.WithLabelValues(category).Observe(out.DescribeTime.Seconds())
}

// ObserveSummary records what per-file observation cannot see: skipped files,
// category setup failures and run timing.
func (c *Collector) ObserveSummary(s pipeline.Summary) {
	for _, cs := range s.Categories {
		if cs.Skipped > 0 {
			c.files.WithLabelValues(string(cs.Category), "skipped").Add(float64(cs.Skipped))
		}
		if cs.SetupErr != nil {
			c.setup.WithLabelValues(string(cs.Category)).Inc()
		}
	}
	if !s.FinishedAt.IsZero() {
		c.lastRun.Set(float64(s.FinishedAt.Unix()))
		c.duration.Set(s.Duration().Seconds())
	}
}

// WriteTextfile atomically writes the current values to path in the text
// exposition format.
func (c *Collector) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

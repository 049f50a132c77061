// Package telemetry records catalog usage metrics with Prometheus.
//
// The catalog is an interactive process with no network listener, so metrics
// are kept in a private registry and written once at shutdown in the text
// exposition format, ready for a node_exporter textfile collector.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/library-catalog/internal/ports"
)

const namespace = "catalog"

// Config holds telemetry configuration.
type Config struct {
	Enabled      bool
	TextfilePath string
	Service      string
	Version      string
}

// Provider owns the metrics registry and implements ports.UsageMetrics.
// A Provider built from a disabled config records nothing and exports nothing.
type Provider struct {
	registry     *prometheus.Registry
	textfilePath string

	actions      *prometheus.CounterVec
	sortDuration *prometheus.HistogramVec
	books        prometheus.Gauge
}

var _ ports.UsageMetrics = (*Provider)(nil)

// New creates a metrics provider. Returns a noop provider if metrics are disabled.
func New(cfg *Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	p := &Provider{
		registry:     prometheus.NewRegistry(),
		textfilePath: cfg.TextfilePath,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Menu actions performed, by kind.",
		}, []string{"action"}),
		sortDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sort_duration_seconds",
			Help:      "Time spent reordering the catalog, by algorithm and field.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"algorithm", "field"}),
		books: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "books",
			Help:      "Books currently held in the catalog.",
		}),
	}

	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Build information of the running catalog.",
		ConstLabels: prometheus.Labels{"app": cfg.Service, "version": cfg.Version},
	})
	info.Set(1)

	for _, c := range []prometheus.Collector{p.actions, p.sortDuration, p.books, info} {
		if err := p.registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	return p, nil
}

// Enabled reports whether the provider records metrics.
func (p *Provider) Enabled() bool {
	return p.registry != nil
}

// ActionPerformed counts one menu action.
func (p *Provider) ActionPerformed(kind ports.InteractionKind) {
	if !p.Enabled() {
		return
	}
	p.actions.WithLabelValues(string(kind)).Inc()
}

// SortCompleted observes the duration of one sort.
func (p *Provider) SortCompleted(algorithm, field string, elapsed time.Duration) {
	if !p.Enabled() {
		return
	}
	p.sortDuration.WithLabelValues(algorithm, field).Observe(elapsed.Seconds())
}

// CatalogSize sets the current number of books.
func (p *Provider) CatalogSize(n int) {
	if !p.Enabled() {
		return
	}
	p.books.Set(float64(n))
}

// Registry exposes the underlying registry, nil when disabled.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// Shutdown writes the collected metrics to the textfile.
// The file is replaced atomically; its directory is created if needed.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() || p.textfilePath == "" {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("exporting metrics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.textfilePath), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}

	if err := prometheus.WriteToTextfile(p.textfilePath, p.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}

	return nil
}

package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wordbloom/contrib-engine/internal/observability/metrics"
)

// Registry bundles the per-module metric implementations.
type Registry struct {
	Contribution metrics.ContributionMetrics
	Leaderboard  metrics.LeaderboardMetrics
	Achievement  metrics.AchievementMetrics
	Rollup       metrics.RollupMetrics
}

// Observability carries the logger, tracer and metrics handed to every
// module. Constructed once in app wiring and passed down; no package-level
// singleton.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry Registry

	prom   *prometheus.Registry
	server *http.Server
}

// Config for observability setup.
type Config struct {
	ServiceName    string
	Environment    string
	MetricsAddress string
}

// New builds the observability stack: a JSON slog logger on stdout, the otel
// tracer from the global provider, and a dedicated prometheus registry.
func New(cfg Config) *Observability {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	o := &Observability{
		Logger: logger,
		Tracer: otel.Tracer(cfg.ServiceName),
		Registry: Registry{
			Contribution: metrics.NewContributionMetrics(reg),
			Leaderboard:  metrics.NewLeaderboardMetrics(reg),
			Achievement:  metrics.NewAchievementMetrics(reg),
			Rollup:       metrics.NewRollupMetrics(reg),
		},
		prom: reg,
	}

	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		o.server = &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return o
}

// NewForTest builds an Observability with a discard logger and no-op metrics.
func NewForTest() *Observability {
	return &Observability{
		Logger: slog.New(slog.DiscardHandler),
		Tracer: otel.Tracer("test"),
		Registry: Registry{
			Contribution: metrics.NoOp{},
			Leaderboard:  metrics.NoOp{},
			Achievement:  metrics.NoOp{},
			Rollup:       metrics.NoOp{},
		},
	}
}

// Registerer exposes the prometheus registry so collaborators (the HTTP
// middleware) can register their own collectors.
func (o *Observability) Registerer() prometheus.Registerer {
	if o.prom == nil {
		return prometheus.NewRegistry()
	}
	return o.prom
}

// ServeMetrics starts the metrics listener when one is configured. Blocks
// until the server exits.
func (o *Observability) ServeMetrics() error {
	if o.server == nil {
		return nil
	}
	if err := o.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the metrics listener.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.server == nil {
		return nil
	}
	return o.server.Shutdown(ctx)
}

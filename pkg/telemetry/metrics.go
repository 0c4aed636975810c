package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	serrors "github.com/sipa-dev/sipa/internal/errors"
	"github.com/sipa-dev/sipa/pkg/component"
)

// MetricsConfig configures Metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "sipa").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures Metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "sipa",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the engine collectors. Create one per registry.
type Metrics struct {
	rendersTotal     *prometheus.CounterVec
	renderErrors     *prometheus.CounterVec
	renderDuration   *prometheus.HistogramVec
	patchesApplied   prometheus.Counter
	coalescedUpdates prometheus.Counter
	liveInstances    prometheus.Gauge
	lifecycleTotal   *prometheus.CounterVec

	mu   sync.Mutex
	live map[uint64]bool
}

// NewMetrics creates and registers the collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of component renders",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "status"}),

		renderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_errors_total",
			Help:        "Total number of failed renders by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "code"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"type"}),

		patchesApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_applied_total",
			Help:        "Total number of node operations applied to live trees",
			ConstLabels: config.ConstLabels,
		}),

		coalescedUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "coalesced_updates_total",
			Help:        "Total number of updates applied by trailing renders",
			ConstLabels: config.ConstLabels,
		}),

		liveInstances: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_instances",
			Help:        "Number of instances attached to a document",
			ConstLabels: config.ConstLabels,
		}),

		lifecycleTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "lifecycle_events_total",
			Help:        "Total number of instance lifecycle transitions",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		live: make(map[uint64]bool),
	}
}

// Install adds the render middleware and lifecycle observer to eng.
func (m *Metrics) Install(eng *component.Engine) {
	eng.Use(m.Middleware())
	eng.OnLifecycle(m.Observe)
}

// Middleware returns render middleware recording render metrics.
func (m *Metrics) Middleware() component.Middleware {
	return func(ctx context.Context, info *component.RenderInfo, next func(context.Context) error) error {
		start := time.Now()
		err := next(ctx)
		m.renderDuration.WithLabelValues(info.Type).Observe(time.Since(start).Seconds())

		status := "success"
		if err != nil {
			status = "error"
			m.renderErrors.WithLabelValues(info.Type, errorCode(err)).Inc()
		}
		m.rendersTotal.WithLabelValues(info.Type, status).Inc()
		m.patchesApplied.Add(float64(info.Patches))
		if info.Trailing {
			m.coalescedUpdates.Add(float64(info.Coalesced))
		}
		return err
	}
}

// Observe records a lifecycle transition.
func (m *Metrics) Observe(e component.LifecycleEvent) {
	m.lifecycleTotal.WithLabelValues(e.Kind.String()).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	id := e.Instance.ID()
	switch e.Kind {
	case component.LifecycleLive:
		if !m.live[id] {
			m.live[id] = true
			m.liveInstances.Inc()
		}
	case component.LifecycleDestroyed:
		if m.live[id] {
			delete(m.live, id)
			m.liveInstances.Dec()
		}
	}
}

// errorCode returns a low-cardinality label for err.
func errorCode(err error) string {
	if code := serrors.Code(err); code != "" {
		return code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "internal"
}

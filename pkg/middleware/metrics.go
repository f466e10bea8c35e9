package middleware

import (
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/pkg/change"
	"github.com/vango-dev/pagebridge/pkg/event"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "pagebridge").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for change apply duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
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

// WithBuckets sets the apply duration histogram buckets.
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
		Namespace: "pagebridge",
		// 1µs to ~260ms.
		Buckets:  prometheus.ExponentialBuckets(1e-6, 4, 10),
		Registry: prometheus.DefaultRegisterer,
	}
}

// Metrics records runtime, cache and host metrics.
type Metrics struct {
	changesApplied  *prometheus.CounterVec
	applyDuration   *prometheus.HistogramVec
	changesSkipped  *prometheus.CounterVec
	violations      *prometheus.CounterVec
	events          *prometheus.CounterVec
	cacheInstalls   prometheus.Counter
	installDuration prometheus.Histogram
	cacheDeleted    prometheus.Counter
	cacheRequests   *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	framesReceived  *prometheus.CounterVec
	batchesSent     prometheus.Counter
	wsErrors        *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics. Registering twice on the
// same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}

	return &Metrics{
		changesApplied: factory.NewCounterVec(
			counter("changes_applied_total", "Change records applied to the DOM"),
			[]string{"kind"}),

		applyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "change_apply_duration_seconds",
			Help:        "Time spent applying a single change record",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		changesSkipped: factory.NewCounterVec(
			counter("changes_skipped_total", "Change records of unknown kind that were skipped"),
			[]string{"kind"}),

		violations: factory.NewCounterVec(
			counter("change_violations_total", "Change records rejected as protocol violations"),
			[]string{"kind", "code"}),

		events: factory.NewCounterVec(
			counter("events_total", "DOM events normalized into payloads"),
			[]string{"type", "strategy"}),

		cacheInstalls: factory.NewCounter(
			counter("cache_installs_total", "Offline cache generations installed")),

		installDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cache_install_duration_seconds",
			Help:        "Time spent precaching a generation",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.DefBuckets,
		}),

		cacheDeleted: factory.NewCounter(
			counter("cache_generations_deleted_total", "Stale cache generations deleted on activation")),

		cacheRequests: factory.NewCounterVec(
			counter("cache_requests_total", "Asset requests answered by the offline worker"),
			[]string{"result"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of connected page sessions",
			ConstLabels: config.ConstLabels,
		}),

		framesReceived: factory.NewCounterVec(
			counter("frames_received_total", "Frames received by the host endpoint"),
			[]string{"type"}),

		batchesSent: factory.NewCounter(
			counter("batches_sent_total", "Change batches sent to pages")),

		wsErrors: factory.NewCounterVec(
			counter("websocket_errors_total", "WebSocket errors by type"),
			[]string{"type"}),
	}
}

// Applied implements change.Observer.
func (m *Metrics) Applied(kind change.Kind, elapsed time.Duration) {
	m.changesApplied.WithLabelValues(string(kind)).Inc()
	m.applyDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// Skipped implements change.Observer.
func (m *Metrics) Skipped(kind change.Kind) {
	m.changesSkipped.WithLabelValues(kindLabel(kind)).Inc()
}

// Failed implements change.Observer.
func (m *Metrics) Failed(kind change.Kind, err error) {
	m.violations.WithLabelValues(kindLabel(kind), errorCode(err)).Inc()
}

// Normalized implements event.Observer.
func (m *Metrics) Normalized(eventType string, strategy event.Strategy) {
	m.events.WithLabelValues(eventType, strategy.String()).Inc()
}

// Installed implements offline.Observer.
func (m *Metrics) Installed(_ string, _ int, elapsed time.Duration) {
	m.cacheInstalls.Inc()
	m.installDuration.Observe(elapsed.Seconds())
}

// Activated implements offline.Observer.
func (m *Metrics) Activated(_ string, deleted int) {
	m.cacheDeleted.Add(float64(deleted))
}

// Served implements offline.Observer.
func (m *Metrics) Served(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

// SessionOpened records a new page session.
func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }

// SessionClosed records a page session ending.
func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }

// FrameReceived records an inbound frame by type name.
func (m *Metrics) FrameReceived(frameType string) {
	m.framesReceived.WithLabelValues(frameType).Inc()
}

// BatchSent records a change batch sent to a page.
func (m *Metrics) BatchSent() { m.batchesSent.Inc() }

// WebSocketError records a WebSocket error by type.
func (m *Metrics) WebSocketError(errorType string) {
	m.wsErrors.WithLabelValues(errorType).Inc()
}

// kindLabel bounds label cardinality: unknown kinds come from the wire.
func kindLabel(kind change.Kind) string {
	if kind.Known() {
		return string(kind)
	}
	return "unknown"
}

// errorCode returns the BridgeError code of err, or "internal".
func errorCode(err error) string {
	var be *errors.BridgeError
	if stderrors.As(err, &be) && be.Code != "" {
		return be.Code
	}
	return "internal"
}

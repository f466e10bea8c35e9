package middleware

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/pkg/change"
	"github.com/vango-dev/pagebridge/pkg/event"
	"github.com/vango-dev/pagebridge/pkg/offline"
)

var (
	_ change.Observer  = (*Metrics)(nil)
	_ event.Observer   = (*Metrics)(nil)
	_ offline.Observer = (*Metrics)(nil)
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsChangeObserver(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.Applied(change.KindCreateElem, 3*time.Microsecond)
	m.Applied(change.KindCreateElem, 5*time.Microsecond)
	m.Applied(change.KindSetText, time.Microsecond)
	m.Skipped("patchStyle")
	m.Failed(change.KindSetText, errors.New("E060"))
	m.Failed("bogus", stderrors.New("boom"))

	if got := metricCounterValue(t, m.changesApplied.WithLabelValues("createElem")); got != 2 {
		t.Errorf("changes_applied_total{createElem} = %v, want 2", got)
	}
	if got := metricHistogramCount(t, m.applyDuration.WithLabelValues("createElem")); got != 2 {
		t.Errorf("change_apply_duration_seconds{createElem} count = %d, want 2", got)
	}
	if got := metricCounterValue(t, m.changesSkipped.WithLabelValues("unknown")); got != 1 {
		t.Errorf("changes_skipped_total{unknown} = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.violations.WithLabelValues("setText", "E060")); got != 1 {
		t.Errorf("change_violations_total{setText,E060} = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.violations.WithLabelValues("unknown", "internal")); got != 1 {
		t.Errorf("change_violations_total{unknown,internal} = %v, want 1", got)
	}
}

func TestMetricsEventAndCacheObservers(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.Normalized("change", event.StrategyValue)
	m.Normalized("drop", event.StrategyDrop)
	m.Normalized("drop", event.StrategyDrop)
	m.Installed("app-f1", 3, 20*time.Millisecond)
	m.Activated("app-f1", 2)
	m.Served(true)
	m.Served(true)
	m.Served(false)

	if got := metricCounterValue(t, m.events.WithLabelValues("drop", event.StrategyDrop.String())); got != 2 {
		t.Errorf("events_total{drop} = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.cacheInstalls); got != 1 {
		t.Errorf("cache_installs_total = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.installDuration); got != 1 {
		t.Errorf("cache_install_duration_seconds count = %d, want 1", got)
	}
	if got := metricCounterValue(t, m.cacheDeleted); got != 2 {
		t.Errorf("cache_generations_deleted_total = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.cacheRequests.WithLabelValues("hit")); got != 2 {
		t.Errorf("cache_requests_total{hit} = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.cacheRequests.WithLabelValues("miss")); got != 1 {
		t.Errorf("cache_requests_total{miss} = %v, want 1", got)
	}
}

func TestMetricsHostHooks(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.FrameReceived("Event")
	m.BatchSent()
	m.WebSocketError("read")

	if got := metricGaugeValue(t, m.activeSessions); got != 1 {
		t.Errorf("active_sessions = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.framesReceived.WithLabelValues("Event")); got != 1 {
		t.Errorf("frames_received_total{Event} = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.batchesSent); got != 1 {
		t.Errorf("batches_sent_total = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.wsErrors.WithLabelValues("read")); got != 1 {
		t.Errorf("websocket_errors_total{read} = %v, want 1", got)
	}
}

func TestMetricsNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(
		WithRegistry(reg),
		WithNamespace("docs"),
		WithSubsystem("page"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithBuckets([]float64{0.001}),
	)
	m.BatchSent()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "docs_page_batches_sent_total" {
			found = f
		}
	}
	if found == nil {
		t.Fatal("docs_page_batches_sent_total not registered")
	}
	labels := found.GetMetric()[0].GetLabel()
	if len(labels) != 1 || labels[0].GetName() != "env" || labels[0].GetValue() != "test" {
		t.Errorf("labels = %v, want env=test", labels)
	}
}

func TestMetricsDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(WithRegistry(reg))

	defer func() {
		if recover() == nil {
			t.Error("second NewMetrics on the same registry did not panic")
		}
	}()
	NewMetrics(WithRegistry(reg))
}

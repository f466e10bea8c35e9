package middleware

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/pkg/bridge"
	"github.com/vango-dev/pagebridge/pkg/dom"
	"github.com/vango-dev/pagebridge/pkg/event"
)

// recordingProvider captures started spans on top of the noop provider.
type recordingProvider struct {
	trace.TracerProvider
	mu    sync.Mutex
	spans []*recordedSpan
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{TracerProvider: noop.NewTracerProvider()}
}

func (p *recordingProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return &recordingTracer{Tracer: p.TracerProvider.Tracer(name, opts...), p: p}
}

type recordingTracer struct {
	trace.Tracer
	p *recordingProvider
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	ctx, inner := t.Tracer.Start(ctx, name, opts...)
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{Span: inner, name: name, kind: cfg.SpanKind(), attrs: map[attribute.Key]attribute.Value{}}
	for _, kv := range cfg.Attributes() {
		s.attrs[kv.Key] = kv.Value
	}
	t.p.mu.Lock()
	t.p.spans = append(t.p.spans, s)
	t.p.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

type recordedSpan struct {
	trace.Span
	name   string
	kind   trace.SpanKind
	attrs  map[attribute.Key]attribute.Value
	errs   []error
	status codes.Code
	ended  bool
}

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) { s.errs = append(s.errs, err) }
func (s *recordedSpan) SetStatus(c codes.Code, _ string)              { s.status = c }
func (s *recordedSpan) End(...trace.SpanEndOption)                    { s.ended = true }

// ackBridge records acks and reports.
type ackBridge struct {
	sent    []event.Payload
	acks    []uint64
	reports []uint64
	closed  bool
	sendErr error
}

func (b *ackBridge) Send(_ context.Context, p event.Payload) error {
	b.sent = append(b.sent, p)
	return b.sendErr
}
func (b *ackBridge) Ack(_ context.Context, seq uint64, _ int) error { b.acks = append(b.acks, seq); return nil }
func (b *ackBridge) Report(_ context.Context, seq uint64, _ error) error {
	b.reports = append(b.reports, seq)
	return nil
}
func (b *ackBridge) Close() error { b.closed = true; return nil }

var (
	_ bridge.Bridge = (*TracingBridge)(nil)
	_ bridge.Acker  = (*TracingBridge)(nil)
)

func TestTracingSend(t *testing.T) {
	tp := newRecordingProvider()
	inner := &ackBridge{}
	tb := Tracing(inner,
		WithTracerProvider(tp),
		WithTracerName("test"),
		WithIncludeValue(true),
		WithAttributeExtractor(func(event.Payload) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)

	p := event.Payload{CompoID: "c1", Target: "t1", JSONValue: `"hello"`, Override: "Files"}
	if err := tb.Send(context.Background(), p); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(inner.sent) != 1 || inner.sent[0].CompoID != "c1" {
		t.Fatalf("inner sent = %+v", inner.sent)
	}
	if len(tp.spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(tp.spans))
	}

	s := tp.spans[0]
	if s.name != "pagebridge.send" || s.kind != trace.SpanKindProducer {
		t.Errorf("span = %s/%v, want pagebridge.send/producer", s.name, s.kind)
	}
	for k, want := range map[attribute.Key]string{
		"pagebridge.compo_id":   "c1",
		"pagebridge.target":     "t1",
		"pagebridge.override":   "Files",
		"pagebridge.json_value": `"hello"`,
		"test.attr":             "ok",
	} {
		if got := s.attrs[k].AsString(); got != want {
			t.Errorf("attr %s = %q, want %q", k, got, want)
		}
	}
	if s.status != codes.Ok || !s.ended {
		t.Errorf("status = %v ended = %v, want Ok and ended", s.status, s.ended)
	}
}

func TestTracingSendError(t *testing.T) {
	tp := newRecordingProvider()
	boom := stderrors.New("boom")
	tb := Tracing(&ackBridge{sendErr: boom}, WithTracerProvider(tp))

	if err := tb.Send(context.Background(), event.Payload{}); !stderrors.Is(err, boom) {
		t.Fatalf("Send() error = %v, want %v", err, boom)
	}
	s := tp.spans[0]
	if s.status != codes.Error || len(s.errs) != 1 {
		t.Errorf("status = %v errs = %v, want Error with one recorded error", s.status, s.errs)
	}
	if _, ok := s.attrs["pagebridge.json_value"]; ok {
		t.Error("json_value recorded without WithIncludeValue")
	}
}

func TestTracingFilter(t *testing.T) {
	tp := newRecordingProvider()
	inner := &ackBridge{}
	tb := Tracing(inner, WithTracerProvider(tp), WithPayloadFilter(func(p event.Payload) bool {
		return p.CompoID != "noisy"
	}))

	tb.Send(context.Background(), event.Payload{CompoID: "noisy"})
	if len(tp.spans) != 0 {
		t.Errorf("spans = %d, want 0 for filtered payload", len(tp.spans))
	}
	if len(inner.sent) != 1 {
		t.Errorf("inner sent = %d, want 1", len(inner.sent))
	}
}

func TestTracingAckReportClose(t *testing.T) {
	tp := newRecordingProvider()
	inner := &ackBridge{}
	tb := Tracing(inner, WithTracerProvider(tp))
	ctx := context.Background()

	if err := tb.Ack(ctx, 7, 3); err != nil {
		t.Fatalf("Ack() error = %v", err)
	}
	if err := tb.Report(ctx, 8, errors.New("E062")); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if err := tb.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if len(inner.acks) != 1 || inner.acks[0] != 7 {
		t.Errorf("acks = %v, want [7]", inner.acks)
	}
	if len(inner.reports) != 1 || inner.reports[0] != 8 {
		t.Errorf("reports = %v, want [8]", inner.reports)
	}
	if !inner.closed {
		t.Error("inner bridge not closed")
	}

	if len(tp.spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(tp.spans))
	}
	if got := tp.spans[0].attrs["pagebridge.seq"].AsInt64(); got != 7 {
		t.Errorf("ack seq = %d, want 7", got)
	}
	report := tp.spans[1]
	if report.attrs["pagebridge.code"].AsString() != "E062" || report.status != codes.Error {
		t.Errorf("report span = %v %v, want E062 and Error", report.attrs, report.status)
	}
}

func TestTracingPlainBridge(t *testing.T) {
	tp := newRecordingProvider()
	var got []event.Payload
	tb := Tracing(bridge.Func(func(_ context.Context, p event.Payload) error {
		got = append(got, p)
		return nil
	}), WithTracerProvider(tp))

	if err := tb.Ack(context.Background(), 1, 1); err != nil {
		t.Errorf("Ack() error = %v", err)
	}
	if err := tb.Report(context.Background(), 1, errors.New("E060")); err != nil {
		t.Errorf("Report() error = %v", err)
	}
	if err := tb.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if len(tp.spans) != 0 {
		t.Errorf("spans = %d, want 0 without an Acker", len(tp.spans))
	}

	tb.Send(context.Background(), event.Payload{CompoID: "c"})
	if len(got) != 1 {
		t.Errorf("sent = %d, want 1", len(got))
	}
}

func TestTracingRuntime(t *testing.T) {
	tp := newRecordingProvider()
	ch := bridge.NewChan(4)
	rt, err := bridge.NewRuntime(dom.NewDocument(), Tracing(ch, WithTracerProvider(tp)))
	if err != nil {
		t.Fatalf("NewRuntime() error = %v", err)
	}
	defer rt.Close()

	if err := rt.Dispatch(context.Background(), "c1", "t1", nil, &event.Synthetic{EventType: "click"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	p := <-ch.Payloads()
	if p.CompoID != "c1" {
		t.Errorf("CompoID = %q, want c1", p.CompoID)
	}
	if len(tp.spans) != 1 || tp.spans[0].name != "pagebridge.send" {
		t.Errorf("spans = %v, want one send span", tp.spans)
	}
}

package middleware

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/pagebridge/pkg/bridge"
	"github.com/vango-dev/pagebridge/pkg/event"
)

// Default tracer name.
const defaultTracerName = "pagebridge"

// OTelConfig configures the tracing bridge.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "pagebridge").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// IncludeValue records the shaped json-value on the span. It may
	// contain user input, so it is disabled by default.
	IncludeValue bool

	// Filter determines which payloads to trace. If nil, all are traced.
	Filter func(p event.Payload) bool

	// AttributeExtractor adds custom attributes for a payload.
	AttributeExtractor func(p event.Payload) []attribute.KeyValue
}

// OTelOption configures the tracing bridge.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeValue enables recording json-value on spans.
func WithIncludeValue(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeValue = include
	}
}

// WithPayloadFilter sets a filter function for payloads.
func WithPayloadFilter(filter func(p event.Payload) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(p event.Payload) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// TracingBridge is a bridge.Bridge that starts a span per operation and
// forwards to the wrapped bridge. Ack, Report and Close are forwarded when
// the wrapped bridge supports them and are no-ops otherwise.
type TracingBridge struct {
	next   bridge.Bridge
	config OTelConfig
	tracer trace.Tracer
}

// Tracing wraps next with OpenTelemetry spans.
func Tracing(next bridge.Bridge, opts ...OTelOption) *TracingBridge {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingBridge{
		next:   next,
		config: config,
		tracer: tp.Tracer(config.TracerName),
	}
}

// Send implements bridge.Bridge.
func (t *TracingBridge) Send(ctx context.Context, p event.Payload) error {
	if t.config.Filter != nil && !t.config.Filter(p) {
		return t.next.Send(ctx, p)
	}

	attrs := []attribute.KeyValue{
		attribute.String("pagebridge.compo_id", p.CompoID),
		attribute.String("pagebridge.target", p.Target),
	}
	if p.Override != "" {
		attrs = append(attrs, attribute.String("pagebridge.override", p.Override))
	}
	if t.config.IncludeValue {
		attrs = append(attrs, attribute.String("pagebridge.json_value", p.JSONValue))
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(p)...)
	}

	ctx, span := t.tracer.Start(ctx, "pagebridge.send",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	err := t.next.Send(ctx, p)
	record(span, err)
	return err
}

// Ack implements bridge.Acker.
func (t *TracingBridge) Ack(ctx context.Context, seq uint64, applied int) error {
	acker, ok := t.next.(bridge.Acker)
	if !ok {
		return nil
	}
	ctx, span := t.tracer.Start(ctx, "pagebridge.ack",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.Int64("pagebridge.seq", int64(seq)),
			attribute.Int("pagebridge.applied", applied),
		),
	)
	defer span.End()

	err := acker.Ack(ctx, seq, applied)
	record(span, err)
	return err
}

// Report implements bridge.Acker. The span carries the violation as an
// error regardless of whether the report itself succeeds.
func (t *TracingBridge) Report(ctx context.Context, seq uint64, violation error) error {
	acker, ok := t.next.(bridge.Acker)
	if !ok {
		return nil
	}
	ctx, span := t.tracer.Start(ctx, "pagebridge.report",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.Int64("pagebridge.seq", int64(seq)),
			attribute.String("pagebridge.code", errorCode(violation)),
		),
	)
	defer span.End()

	span.RecordError(violation)
	span.SetStatus(codes.Error, violation.Error())
	return acker.Report(ctx, seq, violation)
}

// Close implements io.Closer.
func (t *TracingBridge) Close() error {
	if c, ok := t.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func record(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

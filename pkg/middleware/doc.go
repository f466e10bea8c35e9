// Package middleware instruments the page runtime, the offline worker and
// the host endpoint.
//
// # Prometheus Metrics
//
// Metrics implements change.Observer, event.Observer and offline.Observer,
// and exposes hooks for the host endpoint. Register it with a runtime:
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	rt, err := bridge.NewRuntime(doc, b,
//	    bridge.WithChangeObserver(m),
//	    bridge.WithEventObserver(m),
//	)
//
// Collected series (default namespace "pagebridge"):
//   - changes_applied_total, change_apply_duration_seconds by kind
//   - changes_skipped_total by kind
//   - change_violations_total by kind and error code
//   - events_total by event type and strategy
//   - cache_installs_total, cache_install_duration_seconds
//   - cache_generations_deleted_total, cache_requests_total by result
//   - active_sessions, frames_received_total, batches_sent_total,
//     websocket_errors_total
//
// # OpenTelemetry
//
// Tracing wraps a bridge.Bridge and starts a span for every payload sent,
// and for every ack or violation report when the bridge is an Acker. The
// tracer comes from the global provider unless WithTracerProvider is given.
package middleware

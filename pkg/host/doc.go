// Package host is the host side of the page protocol.
//
// A Host upgrades page connections on /ws, decodes event frames into
// event.Payload values and hands them to a Handler. Handlers answer by
// sending ordered change batches through the Session:
//
//	h := host.New(host.HandlerFunc(func(ctx context.Context, s *host.Session, p event.Payload) error {
//		_, err := s.Send(ctx, []change.Change{change.SetText("title", "clicked")})
//		return err
//	}), host.WithWorker(worker))
//	http.ListenAndServe(":8080", h.Routes())
//
// Events of one session are handled one at a time in arrival order. The
// page acknowledges every applied batch; LastAck reports the latest one.
// A page that detects a protocol violation sends a fatal error frame and
// the session ends.
//
// The Host also serves the offline worker script on /app-worker.js and,
// when configured, Prometheus metrics on /metrics.
package host

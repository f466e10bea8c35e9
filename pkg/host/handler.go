package host

import (
	"context"
	"log/slog"

	"github.com/vango-dev/pagebridge/pkg/event"
	"github.com/vango-dev/pagebridge/pkg/protocol"
)

// Handler receives the events of every session.
type Handler interface {
	// HandleEvent is called for each event in arrival order. A returned
	// error is logged and reported to the page as a non-fatal error frame.
	//
	// It runs on the session's read loop, which also reads acks: waiting
	// for an ack inline blocks the session, so call Session.WaitAck from
	// another goroutine.
	HandleEvent(ctx context.Context, s *Session, p event.Payload) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, s *Session, p event.Payload) error

// HandleEvent implements Handler.
func (f HandlerFunc) HandleEvent(ctx context.Context, s *Session, p event.Payload) error {
	return f(ctx, s, p)
}

// SessionHandler is implemented by handlers that track session lifetime.
type SessionHandler interface {
	// Connected is called before the session reads its first frame.
	Connected(s *Session)
	// Disconnected is called once the session is closed.
	Disconnected(s *Session)
}

// ViolationHandler is implemented by handlers that want the error frames
// pages send when a batch violates the change protocol.
type ViolationHandler interface {
	Violation(s *Session, em *protocol.ErrorMessage)
}

// LogHandler logs every event and violation and answers nothing. It backs
// the serve command, where it shows what a page sends.
type LogHandler struct {
	Logger *slog.Logger
}

// HandleEvent implements Handler.
func (l LogHandler) HandleEvent(_ context.Context, s *Session, p event.Payload) error {
	value, err := p.Resolve()
	if err != nil {
		return err
	}
	l.logger().Info("event",
		"session", s.ID(),
		"compo", p.CompoID,
		"target", p.Target,
		"value", value,
	)
	return nil
}

// Connected implements SessionHandler.
func (l LogHandler) Connected(s *Session) {
	l.logger().Info("page connected", "session", s.ID())
}

// Disconnected implements SessionHandler.
func (l LogHandler) Disconnected(s *Session) {
	l.logger().Info("page disconnected", "session", s.ID(), "last_ack", s.LastAck())
}

// Violation implements ViolationHandler.
func (l LogHandler) Violation(s *Session, em *protocol.ErrorMessage) {
	l.logger().Warn("page reported an error", "session", s.ID(), "ref", em.Ref, "message", em.Message, "fatal", em.Fatal)
}

func (l LogHandler) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

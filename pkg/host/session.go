package host

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/vango-dev/pagebridge/pkg/change"
	"github.com/vango-dev/pagebridge/pkg/event"
	"github.com/vango-dev/pagebridge/pkg/protocol"
)

// ErrSessionClosed is returned when writing to a closed session.
var ErrSessionClosed = stderrors.New("host: session closed")

// ErrWaitInHandler is returned by WaitAck when called with the context of
// a HandleEvent call on the same session. Acks are read by the goroutine
// running the handler, so the wait could never end.
var ErrWaitInHandler = stderrors.New("host: WaitAck called from the session's event handler")

// handlerKey marks the context passed to HandleEvent with its session.
type handlerKey struct{}

// Session is one connected page.
type Session struct {
	id      string
	host    *Host
	conn    *websocket.Conn
	logger  *slog.Logger
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex
	seq     uint64 // guarded by writeMu

	ackMu   sync.Mutex
	lastAck uint64
	ackWait chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}
}

func newSession(h *Host, conn *websocket.Conn, id string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:      id,
		host:    h,
		conn:    conn,
		logger:  h.logger.With("session", id),
		limiter: rate.NewLimiter(h.config.EventRate, h.config.EventBurst),
		ctx:     ctx,
		cancel:  cancel,
		ackWait: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Context is cancelled when the session ends.
func (s *Session) Context() context.Context { return s.ctx }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// LastAck returns the sequence number of the latest batch the page
// acknowledged.
func (s *Session) LastAck() uint64 {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	return s.lastAck
}

// Send writes changes as the next batch and returns its sequence number.
// Sequence numbers start at 1 and follow write order.
func (s *Session) Send(ctx context.Context, changes []change.Change) (uint64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed.Load() {
		return 0, ErrSessionClosed
	}
	s.seq++
	seq := s.seq
	payload := protocol.EncodeBatch(&protocol.Batch{Seq: seq, Changes: changes})
	if err := s.writeLocked(ctx, protocol.NewFrame(protocol.FrameChanges, payload)); err != nil {
		return 0, err
	}
	if s.host.metrics != nil {
		s.host.metrics.BatchSent()
	}
	return seq, nil
}

// WaitAck blocks until the page acknowledges batch seq, the session ends
// or ctx is done.
//
// Acks are read by the same goroutine that calls Handler.HandleEvent, so a
// handler must not wait for its own batches inline: start a goroutine
// instead. Called with the handler's context, WaitAck returns
// ErrWaitInHandler rather than blocking forever.
func (s *Session) WaitAck(ctx context.Context, seq uint64) error {
	for {
		s.ackMu.Lock()
		if s.lastAck >= seq {
			s.ackMu.Unlock()
			return nil
		}
		wait := s.ackWait
		s.ackMu.Unlock()

		if ctx.Value(handlerKey{}) == s {
			return ErrWaitInHandler
		}

		select {
		case <-wait:
		case <-s.done:
			return ErrSessionClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Ping sends a ping carrying the current time.
func (s *Session) Ping(ctx context.Context) error {
	ping := protocol.EncodeControl(protocol.NewPing(uint64(time.Now().UnixMilli())))
	return s.write(ctx, protocol.NewFrame(protocol.FrameControl, ping))
}

// Close ends the session with a normal close.
func (s *Session) Close() error {
	s.closeWith(protocol.CloseNormal, "")
	return nil
}

func (s *Session) write(ctx context.Context, f *protocol.Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.writeLocked(ctx, f)
}

func (s *Session) writeLocked(ctx context.Context, f *protocol.Frame) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.host.config.WriteTimeout)
	}
	s.conn.SetWriteDeadline(deadline)
	if err := s.conn.WriteMessage(websocket.BinaryMessage, f.Encode()); err != nil {
		if s.host.metrics != nil {
			s.host.metrics.WebSocketError("write")
		}
		return err
	}
	return nil
}

func (s *Session) sendError(em *protocol.ErrorMessage) {
	if err := s.write(s.ctx, protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em))); err != nil {
		s.logger.Debug("error frame not sent", "error", err)
	}
}

func (s *Session) closeWith(reason protocol.CloseReason, message string) {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		s.closed.Store(true)
		s.conn.SetWriteDeadline(time.Now().Add(time.Second))
		s.conn.WriteMessage(websocket.BinaryMessage,
			protocol.NewFrame(protocol.FrameControl,
				protocol.EncodeControl(protocol.NewClose(reason, message))).Encode())
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()

		s.cancel()
		close(s.done)
		s.conn.Close()
	})
}

// serve runs the read loop until the page disconnects or the session is
// closed.
func (s *Session) serve() {
	h := s.host
	if h.metrics != nil {
		h.metrics.SessionOpened()
	}
	if sh, ok := h.handler.(SessionHandler); ok {
		sh.Connected(s)
	}
	s.logger.Info("session started")

	var hb sync.WaitGroup
	hb.Add(1)
	go func() {
		defer hb.Done()
		s.heartbeat()
	}()

	defer func() {
		s.Close()
		hb.Wait()
		if sh, ok := h.handler.(SessionHandler); ok {
			sh.Disconnected(s)
		}
		if h.metrics != nil {
			h.metrics.SessionClosed()
		}
		s.logger.Info("session ended", "last_ack", s.LastAck())
		h.remove(s)
	}()

	s.conn.SetReadLimit(h.config.MaxMessageSize)
	for {
		s.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() && websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				if h.metrics != nil {
					h.metrics.WebSocketError("read")
				}
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			s.sendError(protocol.NewError(protocol.ErrInvalidFrame, err.Error()))
			continue
		}
		if h.metrics != nil {
			h.metrics.FrameReceived(frame.Type.String())
		}

		switch frame.Type {
		case protocol.FrameEvent:
			s.handleEvent(frame.Payload)

		case protocol.FrameAck:
			s.handleAck(frame.Payload)

		case protocol.FrameError:
			if !s.handleError(frame.Payload) {
				return
			}

		case protocol.FrameControl:
			if !s.handleControl(frame.Payload) {
				return
			}

		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type.String())
		}
	}
}

func (s *Session) heartbeat() {
	ticker := time.NewTicker(s.host.config.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Ping(s.ctx); err != nil {
				s.logger.Debug("ping failed", "error", err)
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) handleEvent(payload []byte) {
	ev, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.logger.Error("event decode error", "error", err)
		s.sendError(protocol.NewError(protocol.ErrInvalidEvent, "invalid event frame"))
		return
	}
	p, err := event.DecodePayload(ev.Envelope, ev.Sidecar)
	if err != nil {
		s.logger.Error("payload decode error", "seq", ev.Seq, "error", err)
		s.sendError(protocol.NewError(protocol.ErrInvalidEvent, err.Error()))
		return
	}

	if !s.limiter.Allow() {
		s.logger.Warn("event rate limited", "seq", ev.Seq, "compo", p.CompoID)
		s.sendError(protocol.NewError(protocol.ErrRateLimited, "too many events"))
		return
	}

	ctx, span := s.host.tracer.Start(context.WithValue(s.ctx, handlerKey{}, s), "pagebridge.host.event",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("pagebridge.session_id", s.id),
			attribute.Int64("pagebridge.seq", int64(ev.Seq)),
			attribute.String("pagebridge.compo_id", p.CompoID),
			attribute.String("pagebridge.target", p.Target),
		),
	)
	defer span.End()

	if err := s.host.handler.HandleEvent(ctx, s, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("event handler failed", "seq", ev.Seq, "compo", p.CompoID, "target", p.Target, "error", err)
		s.sendError(protocol.NewError(protocol.ErrServerError, err.Error()))
		return
	}
	span.SetStatus(codes.Ok, "")
}

func (s *Session) handleAck(payload []byte) {
	ack, err := protocol.DecodeAck(payload)
	if err != nil {
		s.logger.Error("ack decode error", "error", err)
		return
	}

	s.ackMu.Lock()
	if ack.LastSeq > s.lastAck {
		s.lastAck = ack.LastSeq
	}
	close(s.ackWait)
	s.ackWait = make(chan struct{})
	s.ackMu.Unlock()

	s.logger.Debug("batch acknowledged", "seq", ack.LastSeq, "applied", ack.Applied)
}

// handleError returns false when the page reported a fatal error.
func (s *Session) handleError(payload []byte) bool {
	em, err := protocol.DecodeErrorMessage(payload)
	if err != nil {
		s.logger.Error("error frame decode error", "error", err)
		return true
	}

	s.logger.Warn("page error", "code", em.Code.String(), "ref", em.Ref, "message", em.Message, "fatal", em.Fatal)
	if vh, ok := s.host.handler.(ViolationHandler); ok {
		vh.Violation(s, em)
	}
	return !em.Fatal
}

// handleControl returns false when the page closes the session.
func (s *Session) handleControl(payload []byte) bool {
	c, err := protocol.DecodeControl(payload)
	if err != nil {
		s.logger.Error("control decode error", "error", err)
		return true
	}

	switch c.Type {
	case protocol.ControlPing:
		pong := protocol.EncodeControl(protocol.NewPong(c))
		if err := s.write(s.ctx, protocol.NewFrame(protocol.FrameControl, pong)); err != nil {
			s.logger.Error("pong error", "error", err)
		}
	case protocol.ControlPong:
		s.logger.Debug("received pong", "rtt_ms", time.Now().UnixMilli()-int64(c.Timestamp))
	case protocol.ControlClose:
		s.logger.Info("page closing", "reason", c.Reason.String(), "message", c.Message)
		return false
	}
	return true
}

package bridge

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/pkg/event"
	"github.com/vango-dev/pagebridge/pkg/protocol"
)

// DefaultWriteTimeout bounds a frame write when the context has no deadline.
const DefaultWriteTimeout = 10 * time.Second

// WebSocket is a Bridge over a WebSocket connection speaking the binary
// protocol. Inbound change batches are delivered on Batches.
type WebSocket struct {
	conn         frameConn
	logger       *slog.Logger
	writeTimeout time.Duration
	batchBuffer  int

	batches chan protocol.Batch
	done    chan struct{}
	seq     atomic.Uint64
	writeMu sync.Mutex

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// WSOption configures a WebSocket bridge.
type WSOption func(*WebSocket)

// WithWSLogger sets the logger.
func WithWSLogger(logger *slog.Logger) WSOption {
	return func(w *WebSocket) {
		w.logger = logger
	}
}

// WithWriteTimeout sets the write timeout used when a context has no deadline.
func WithWriteTimeout(d time.Duration) WSOption {
	return func(w *WebSocket) {
		w.writeTimeout = d
	}
}

// WithBatchBuffer sets how many decoded batches may wait for the runtime.
func WithBatchBuffer(n int) WSOption {
	return func(w *WebSocket) {
		w.batchBuffer = n
	}
}

// frameConn carries binary protocol messages. readMessage returns io.EOF
// once the peer has closed the connection normally.
type frameConn interface {
	readMessage() ([]byte, error)
	writeMessage(deadline time.Time, data []byte) error
	// shutdown starts the transport close handshake without closing.
	shutdown(deadline time.Time)
	close() error
}

// gorillaConn is a frameConn over a gorilla/websocket connection.
type gorillaConn struct {
	*websocket.Conn
}

func (c gorillaConn) readMessage() ([]byte, error) {
	_, msg, err := c.ReadMessage()
	if err != nil && !websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseNormalClosure) {
		return nil, io.EOF
	}
	return msg, err
}

func (c gorillaConn) writeMessage(deadline time.Time, data []byte) error {
	c.SetWriteDeadline(deadline)
	return c.WriteMessage(websocket.BinaryMessage, data)
}

func (c gorillaConn) shutdown(deadline time.Time) {
	c.SetWriteDeadline(deadline)
	c.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c gorillaConn) close() error {
	return c.Close()
}

// NewWebSocket wraps an established connection and starts reading from it.
func NewWebSocket(conn *websocket.Conn, opts ...WSOption) *WebSocket {
	return newWebSocket(gorillaConn{conn}, opts...)
}

func newWebSocket(conn frameConn, opts ...WSOption) *WebSocket {
	w := &WebSocket{
		conn:         conn,
		logger:       slog.Default(),
		writeTimeout: DefaultWriteTimeout,
		batchBuffer:  16,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "bridge", "transport", "websocket")
	w.batches = make(chan protocol.Batch, w.batchBuffer)

	w.wg.Add(1)
	go w.readLoop()
	return w
}

// Batches returns the channel inbound change batches are delivered on. It
// is closed when the connection ends.
func (w *WebSocket) Batches() <-chan protocol.Batch {
	return w.batches
}

// Send implements Bridge.
func (w *WebSocket) Send(ctx context.Context, p event.Payload) error {
	envelope, err := p.Envelope()
	if err != nil {
		return err
	}
	sidecar, err := p.SidecarJSON()
	if err != nil {
		return err
	}

	ev := &protocol.Event{
		Seq:      w.seq.Add(1),
		Envelope: envelope,
		Sidecar:  sidecar,
	}
	return w.write(ctx, protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(ev)))
}

// Ack implements Acker.
func (w *WebSocket) Ack(ctx context.Context, seq uint64, applied int) error {
	ack := &protocol.Ack{LastSeq: seq, Applied: uint64(applied)}
	return w.write(ctx, protocol.NewFrame(protocol.FrameAck, protocol.EncodeAck(ack)))
}

// Report implements Acker.
func (w *WebSocket) Report(ctx context.Context, seq uint64, err error) error {
	em := protocol.NewFatalError(protocol.ErrViolation, err.Error())
	var be *errors.BridgeError
	if stderrors.As(err, &be) {
		em.Ref = be.Code
		em.Message = be.FormatCompact()
	}
	w.logger.Debug("reporting violation", "seq", seq, "ref", em.Ref)
	return w.write(ctx, protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em)))
}

// Ping sends a ping carrying the current time.
func (w *WebSocket) Ping(ctx context.Context) error {
	ping := protocol.NewPing(uint64(time.Now().UnixMilli()))
	return w.write(ctx, protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(ping)))
}

func (w *WebSocket) write(ctx context.Context, f *protocol.Frame) error {
	select {
	case <-w.done:
		return errors.New("E082")
	default:
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(w.writeTimeout)
	}
	return w.conn.writeMessage(deadline, f.Encode())
}

func (w *WebSocket) readLoop() {
	defer w.wg.Done()
	defer close(w.batches)

	for {
		msg, err := w.conn.readMessage()
		if err != nil {
			select {
			case <-w.done:
			default:
				if err != io.EOF {
					w.logger.Error("read error", "error", err)
				}
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			w.logger.Error("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case protocol.FrameChanges:
			b, err := protocol.DecodeBatch(frame.Payload)
			if err != nil {
				w.logger.Error("batch decode error", "error", err)
				frame := protocol.NewFrame(protocol.FrameError,
					protocol.EncodeErrorMessage(protocol.NewError(protocol.ErrInvalidBatch, err.Error())))
				if err := w.write(context.Background(), frame); err != nil {
					w.logger.Error("invalid batch report error", "error", err)
				}
				continue
			}
			select {
			case w.batches <- *b:
			case <-w.done:
				return
			}

		case protocol.FrameControl:
			if !w.handleControl(frame.Payload) {
				return
			}

		case protocol.FrameError:
			em, err := protocol.DecodeErrorMessage(frame.Payload)
			if err != nil {
				w.logger.Error("error frame decode error", "error", err)
				continue
			}
			w.logger.Warn("host error", "code", em.Code.String(), "message", em.Message, "fatal", em.Fatal)
			if em.Fatal {
				return
			}

		default:
			w.logger.Warn("unexpected frame type", "type", frame.Type.String())
		}
	}
}

// handleControl answers pings. It returns false when the host closes the
// session.
func (w *WebSocket) handleControl(payload []byte) bool {
	c, err := protocol.DecodeControl(payload)
	if err != nil {
		w.logger.Error("control decode error", "error", err)
		return true
	}

	switch c.Type {
	case protocol.ControlPing:
		pong := protocol.EncodeControl(protocol.NewPong(c))
		if err := w.write(context.Background(), protocol.NewFrame(protocol.FrameControl, pong)); err != nil {
			w.logger.Error("pong error", "error", err)
		}
	case protocol.ControlPong:
		w.logger.Debug("received pong", "rtt_ms", time.Now().UnixMilli()-int64(c.Timestamp))
	case protocol.ControlClose:
		w.logger.Info("host closing", "reason", c.Reason.String(), "message", c.Message)
		return false
	}
	return true
}

// Close sends a close message and releases the connection. It waits for
// the read loop to exit.
func (w *WebSocket) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.writeMu.Lock()
		deadline := time.Now().Add(time.Second)
		w.conn.writeMessage(deadline,
			protocol.NewFrame(protocol.FrameControl,
				protocol.EncodeControl(protocol.NewClose(protocol.CloseGoingAway, ""))).Encode())
		w.conn.shutdown(deadline)
		w.writeMu.Unlock()

		close(w.done)
		err = w.conn.close()
	})
	w.wg.Wait()
	return err
}

package bridge

import (
	"context"
	"sync"

	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/pkg/event"
)

// Bridge forwards normalized events to the host.
type Bridge interface {
	// Send hands p to the transport. It does not wait for the host.
	Send(ctx context.Context, p event.Payload) error
}

// Acker is implemented by bridges that report batch outcomes to the host.
type Acker interface {
	// Ack reports that batch seq was applied.
	Ack(ctx context.Context, seq uint64, applied int) error

	// Report reports that batch seq violated the change protocol.
	Report(ctx context.Context, seq uint64, err error) error
}

// Func adapts a function to the Bridge interface.
type Func func(ctx context.Context, p event.Payload) error

// Send implements Bridge.
func (f Func) Send(ctx context.Context, p event.Payload) error {
	return f(ctx, p)
}

// Chan is an in-process Bridge backed by a buffered channel.
type Chan struct {
	mu     sync.RWMutex
	ch     chan event.Payload
	done   chan struct{}
	once   sync.Once
	closed bool
}

// NewChan creates a Chan buffering up to size payloads.
func NewChan(size int) *Chan {
	return &Chan{ch: make(chan event.Payload, size), done: make(chan struct{})}
}

// Send implements Bridge. It blocks while the buffer is full, until ctx is
// done or the Chan is closed.
func (c *Chan) Send(ctx context.Context, p event.Payload) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errors.New("E082")
	}
	select {
	case c.ch <- p:
		return nil
	case <-c.done:
		return errors.New("E082")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Payloads returns the channel payloads are delivered on. It is closed by
// Close.
func (c *Chan) Payloads() <-chan event.Payload {
	return c.ch
}

// Close stops accepting payloads and closes the delivery channel. Sends
// blocked on a full buffer return E082.
func (c *Chan) Close() error {
	// Wake blocked senders so they drop the read lock.
	c.once.Do(func() { close(c.done) })

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	return nil
}

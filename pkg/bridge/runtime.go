package bridge

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"

	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/pkg/change"
	"github.com/vango-dev/pagebridge/pkg/dom"
	"github.com/vango-dev/pagebridge/pkg/event"
	"github.com/vango-dev/pagebridge/pkg/protocol"
	"github.com/vango-dev/pagebridge/pkg/registry"
)

// DefaultBodyID is the node id the document body is registered under.
const DefaultBodyID change.NodeID = "body"

// Runtime is the page side of one session.
// Apply and Dispatch are serialized; records and events run to completion
// in the order they were received.
type Runtime struct {
	mu         sync.Mutex
	doc        dom.Document
	bridge     Bridge
	applier    *change.Applier
	normalizer *event.Normalizer
	logger     *slog.Logger
	bodyID     change.NodeID
	failed     error

	applierOpts    []change.ApplierOption
	normalizerOpts []event.Option
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger of the runtime and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithBodyID registers the document body under id instead of DefaultBodyID.
func WithBodyID(id change.NodeID) Option {
	return func(r *Runtime) {
		r.bodyID = id
	}
}

// WithChangeObserver sets the observer of applied records.
func WithChangeObserver(o change.Observer) Option {
	return func(r *Runtime) {
		r.applierOpts = append(r.applierOpts, change.WithObserver(o))
	}
}

// WithEventObserver sets the observer of normalized events.
func WithEventObserver(o event.Observer) Option {
	return func(r *Runtime) {
		r.normalizerOpts = append(r.normalizerOpts, event.WithObserver(o))
	}
}

// NewRuntime creates a Runtime over doc that forwards events to b.
func NewRuntime(doc dom.Document, b Bridge, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		doc:    doc,
		bridge: b,
		logger: slog.Default(),
		bodyID: DefaultBodyID,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "runtime")

	r.applier = change.NewApplier(doc, registry.New(),
		append([]change.ApplierOption{change.WithLogger(r.logger)}, r.applierOpts...)...)
	r.normalizer = event.NewNormalizer(
		append([]event.Option{event.WithLogger(r.logger)}, r.normalizerOpts...)...)

	if err := r.applier.Mount(r.bodyID, doc.Body()); err != nil {
		return nil, err
	}
	return r, nil
}

// Registry returns the node registry of the runtime.
func (r *Runtime) Registry() *registry.Registry {
	return r.applier.Registry()
}

// Apply applies changes in order and stops at the first protocol violation.
// A violation halts the runtime: every later Apply returns E067 wrapping
// the first violation.
func (r *Runtime) Apply(changes []change.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed != nil {
		return errors.New("E067").Wrap(r.failed)
	}
	if err := r.applier.Apply(changes); err != nil {
		r.halt(err)
		return err
	}
	return nil
}

// halt records err as the violation that ended the session. r.mu is held.
func (r *Runtime) halt(err error) {
	if r.failed != nil {
		return
	}
	r.failed = err
	var be *errors.BridgeError
	if stderrors.As(err, &be) {
		r.logger.Error("protocol violation", "code", be.Code, "index", be.Index, "error", be.FormatCompact())
		return
	}
	r.logger.Error("protocol violation", "error", err)
}

// Err returns the violation that halted the runtime, or nil.
func (r *Runtime) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// Fail halts the runtime with err, as if a batch had violated the protocol.
// Transports use it for batches that cannot be decoded.
func (r *Runtime) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.halt(err)
}

// Dispatch normalizes ev, raised on src, and sends it to the host for the
// handler target of component compoID.
func (r *Runtime) Dispatch(ctx context.Context, compoID, target string, src event.Source, ev event.RawEvent) error {
	r.mu.Lock()
	p, err := r.normalizer.Normalize(compoID, target, src, ev)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if err := r.bridge.Send(ctx, p); err != nil {
		r.logger.Warn("event not forwarded", "type", ev.Type(), "target", target, "error", err)
		return err
	}
	return nil
}

// Run applies batches in arrival order until the channel is closed, ctx is
// done, or a batch violates the protocol. When the bridge is an Acker, every
// batch outcome is reported to the host.
func (r *Runtime) Run(ctx context.Context, batches <-chan protocol.Batch) error {
	acker, _ := r.bridge.(Acker)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case b, ok := <-batches:
			if !ok {
				return nil
			}

			err := r.Apply(b.Changes)
			if err != nil {
				if acker != nil {
					if rerr := acker.Report(ctx, b.Seq, err); rerr != nil {
						r.logger.Warn("violation report failed", "seq", b.Seq, "error", rerr)
					}
				}
				return err
			}

			if acker != nil {
				if err := acker.Ack(ctx, b.Seq, len(b.Changes)); err != nil {
					r.logger.Warn("ack failed", "seq", b.Seq, "error", err)
				}
			}
		}
	}
}

// Close ends the session: every node is forgotten and the bridge is closed
// if it is an io.Closer.
func (r *Runtime) Close() error {
	r.mu.Lock()
	r.applier.Reset()
	r.mu.Unlock()

	if c, ok := r.bridge.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

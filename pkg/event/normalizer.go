package event

import (
	"encoding/json"
	"log/slog"

	"github.com/vango-dev/pagebridge/internal/errors"
)

// Observer is notified of every normalized event.
type Observer interface {
	Normalized(eventType string, strategy Strategy)
}

// Normalizer shapes raw events into payloads.
type Normalizer struct {
	logger   *slog.Logger
	observer Observer
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// WithObserver sets the observer notified of each event.
func WithObserver(o Observer) Option {
	return func(n *Normalizer) {
		n.observer = o
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize shapes ev, raised on src, into the payload for the handler
// target of component compoID.
func (n *Normalizer) Normalize(compoID, target string, src Source, ev RawEvent) (Payload, error) {
	strategy := StrategyFor(ev.Type())
	shaped := strategy.Shape()(src, ev)

	value, err := json.Marshal(shaped.Value)
	if err != nil {
		return Payload{}, errors.New("E080").
			WithDetailf("%s event for %s could not be encoded", ev.Type(), target).
			Wrap(err)
	}

	n.logger.Debug("event normalized",
		"type", ev.Type(),
		"strategy", strategy.String(),
		"compo_id", compoID,
		"target", target,
	)
	if n.observer != nil {
		n.observer.Normalized(ev.Type(), strategy)
	}

	return Payload{
		CompoID:   compoID,
		Target:    target,
		JSONValue: string(value),
		Override:  shaped.Override,
		Sidecar:   shaped.Sidecar,
	}, nil
}

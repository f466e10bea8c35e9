package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/pagebridge/pkg/bridge"
	"github.com/vango-dev/pagebridge/pkg/change"
	"github.com/vango-dev/pagebridge/pkg/dom"
	"github.com/vango-dev/pagebridge/pkg/event"
	"github.com/vango-dev/pagebridge/pkg/protocol"
)

var errTokenMissing = errors.New("token not observed in changes")

type benchCounters struct {
	eventsSent     atomic.Uint64
	eventsComplete atomic.Uint64
	batches        atomic.Uint64
	changesTotal   atomic.Uint64
	changeKinds    kindCounts
}

type benchErrors struct {
	dialFailures   atomic.Uint64
	renderFailures atomic.Uint64
	sendFailures   atomic.Uint64
	violations     atomic.Uint64
	tokenMissing   atomic.Uint64
	totalErrors    atomic.Uint64
}

// kindCounts counts applied records per kind.
type kindCounts struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func (k *kindCounts) add(kind change.Kind) {
	name := string(kind)
	if !kind.Known() {
		name = "unknown"
	}
	k.mu.Lock()
	if k.counts == nil {
		k.counts = make(map[string]uint64)
	}
	k.counts[name]++
	k.mu.Unlock()
}

func (k *kindCounts) snapshot() map[string]uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return maps.Clone(k.counts)
}

// runClient connects one page and sends paced events until ctx is done.
func runClient(
	ctx context.Context,
	wsURL string,
	clientID int,
	cfg benchConfig,
	counters *benchCounters,
	errCounts *benchErrors,
	record func(time.Duration),
) error {
	ws, err := bridge.Dial(ctx, wsURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		errCounts.dialFailures.Add(1)
		return fmt.Errorf("dial: %w", err)
	}
	defer ws.Close()

	rt, err := bridge.NewRuntime(dom.NewDocument(), ws)
	if err != nil {
		return err
	}
	p := &page{rt: rt, ws: ws, counters: counters}

	// The host renders the page on connect.
	if _, err := p.await(ctx, cfg.EventTimeout, func(c change.Change) bool {
		return c.Type == change.KindAppendChild && c.ChildID == listID
	}); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		errCounts.renderFailures.Add(1)
		return fmt.Errorf("initial render: %w", err)
	}
	n, err := rt.Registry().Resolve(string(inputID))
	if err != nil {
		errCounts.renderFailures.Add(1)
		return err
	}
	input := n.(dom.Element)

	period := time.Duration(float64(time.Second) / cfg.RPS)
	var seq uint64

	for {
		if ctx.Err() != nil {
			return nil
		}

		seq++
		token := makeToken(clientID, seq, cfg.PayloadBytes)
		start := time.Now()

		input.SetValue(token)
		if err := rt.Dispatch(ctx, "bench", "OnChange", input, &event.Synthetic{EventType: "change"}); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			errCounts.sendFailures.Add(1)
			return fmt.Errorf("dispatch: %w", err)
		}
		counters.eventsSent.Add(1)

		found, err := p.await(ctx, cfg.EventTimeout, func(c change.Change) bool {
			return c.Type == change.KindSetText && c.NodeID == labelID && c.Value == token
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, errTokenMissing) {
				errCounts.tokenMissing.Add(1)
			} else {
				errCounts.violations.Add(1)
			}
			return err
		}
		if !found {
			errCounts.tokenMissing.Add(1)
			return errTokenMissing
		}

		counters.eventsComplete.Add(1)
		record(time.Since(start))

		if sleep := period - time.Since(start); sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}
	}
}

// page applies inbound batches for one client.
type page struct {
	rt       *bridge.Runtime
	ws       *bridge.WebSocket
	counters *benchCounters
}

// await applies batches until one holds a record matching match. Batches
// are acknowledged as they are applied.
func (p *page) await(ctx context.Context, timeout time.Duration, match func(change.Change) bool) (bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			return false, errTokenMissing
		case b, ok := <-p.ws.Batches():
			if !ok {
				return false, errors.New("connection closed")
			}
			found, err := p.apply(ctx, b, match)
			if err != nil || found {
				return found, err
			}
		}
	}
}

func (p *page) apply(ctx context.Context, b protocol.Batch, match func(change.Change) bool) (bool, error) {
	if err := p.rt.Apply(b.Changes); err != nil {
		p.ws.Report(ctx, b.Seq, err)
		return false, err
	}
	p.ws.Ack(ctx, b.Seq, len(b.Changes))

	p.counters.batches.Add(1)
	p.counters.changesTotal.Add(uint64(len(b.Changes)))
	found := false
	for _, c := range b.Changes {
		p.counters.changeKinds.add(c.Type)
		if match(c) {
			found = true
		}
	}
	return found, nil
}

func makeToken(clientID int, seq uint64, payloadBytes int) string {
	if payloadBytes <= 0 {
		return ""
	}
	seed := (uint64(clientID) << 32) ^ seq
	base := strings.ToLower(strconv.FormatUint(seed, 36))
	if len(base) >= payloadBytes {
		return base[len(base)-payloadBytes:]
	}
	return base + strings.Repeat("x", payloadBytes-len(base))
}

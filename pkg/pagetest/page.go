package pagetest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/pagebridge/pkg/bridge"
	"github.com/vango-dev/pagebridge/pkg/change"
	"github.com/vango-dev/pagebridge/pkg/dom"
	"github.com/vango-dev/pagebridge/pkg/event"
	"github.com/vango-dev/pagebridge/pkg/vdom"
)

// PayloadTimeout bounds how long Dispatch waits for the forwarded payload.
var PayloadTimeout = time.Second

// Page is a runtime over an in-memory document.
type Page struct {
	t       testing.TB
	doc     *dom.MemDocument
	bridge  *bridge.Chan
	runtime *bridge.Runtime
	model   *vdom.Model
	ids     vdom.IDGenerator
}

// New creates a Page. Options are passed to bridge.NewRuntime; logs are
// discarded unless an option sets a logger.
func New(t testing.TB, opts ...bridge.Option) *Page {
	t.Helper()

	doc := dom.NewDocument()
	ch := bridge.NewChan(16)
	opts = append([]bridge.Option{bridge.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	rt, err := bridge.NewRuntime(doc, ch, opts...)
	if err != nil {
		t.Fatalf("pagetest: NewRuntime: %v", err)
	}
	t.Cleanup(func() { rt.Close() })

	return &Page{
		t:       t,
		doc:     doc,
		bridge:  ch,
		runtime: rt,
		model:   vdom.NewModel(bridge.DefaultBodyID),
	}
}

// Runtime returns the runtime of the page.
func (p *Page) Runtime() *bridge.Runtime { return p.runtime }

// Document returns the document of the page.
func (p *Page) Document() *dom.MemDocument { return p.doc }

// Apply applies a batch and fails the test on a violation.
func (p *Page) Apply(changes ...change.Change) {
	p.t.Helper()
	if err := p.ApplyErr(changes...); err != nil {
		p.t.Fatalf("pagetest: Apply: %v", err)
	}
}

// ApplyErr applies a batch and returns the violation, if any.
func (p *Page) ApplyErr(changes ...change.Change) error {
	err := p.runtime.Apply(changes)
	// The runtime keeps the records before a violation, and so does the
	// model.
	_ = p.model.Replay(changes)
	return err
}

// Mount builds v with fresh ids, appends it to the body and returns the id
// of its root.
func (p *Page) Mount(v *vdom.VNode) change.NodeID {
	p.t.Helper()
	root, changes := vdom.Build(v, p.ids.Next)
	p.Apply(append(changes, change.AppendChild(bridge.DefaultBodyID, root))...)
	return root
}

// Element returns the element registered under id.
func (p *Page) Element(id change.NodeID) dom.Element {
	p.t.Helper()
	n, err := p.runtime.Registry().Resolve(string(id))
	if err != nil {
		p.t.Fatalf("pagetest: %v", err)
	}
	el, ok := n.(dom.Element)
	if !ok {
		p.t.Fatalf("pagetest: node %s is a %s, not an element", id, n.Type())
	}
	return el
}

// Dispatch sends ev from the element id to the handler target of compoID
// and returns the payload forwarded to the host.
func (p *Page) Dispatch(compoID, target string, id change.NodeID, ev event.RawEvent) event.Payload {
	p.t.Helper()
	var src event.Source
	if id != "" {
		src = p.Element(id)
	}
	if err := p.runtime.Dispatch(context.Background(), compoID, target, src, ev); err != nil {
		p.t.Fatalf("pagetest: Dispatch(%s): %v", ev.Type(), err)
	}

	select {
	case payload := <-p.bridge.Payloads():
		return payload
	case <-time.After(PayloadTimeout):
		p.t.Fatalf("pagetest: no payload for %s", ev.Type())
		return event.Payload{}
	}
}

// Click dispatches a click from id.
func (p *Page) Click(compoID, target string, id change.NodeID) event.Payload {
	p.t.Helper()
	return p.Dispatch(compoID, target, id, &event.Synthetic{EventType: "click"})
}

// Input sets the value of the element id and dispatches a change event.
func (p *Page) Input(compoID, target string, id change.NodeID, value string) event.Payload {
	p.t.Helper()
	p.Element(id).SetValue(value)
	return p.Dispatch(compoID, target, id, &event.Synthetic{EventType: "change"})
}

// HTML returns the markup of the body.
func (p *Page) HTML() string {
	return vdom.FromDOM(p.doc.Body()).HTML()
}

// ExpectContains asserts that the body markup contains s.
func (p *Page) ExpectContains(s string) {
	p.t.Helper()
	if html := p.HTML(); !strings.Contains(html, s) {
		p.t.Errorf("expected body to contain %q, got:\n%s", s, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the body markup does not contain s.
func (p *Page) ExpectNotContains(s string) {
	p.t.Helper()
	if html := p.HTML(); strings.Contains(html, s) {
		p.t.Errorf("expected body to NOT contain %q, got:\n%s", s, truncate(html, 500))
	}
}

// ExpectAttribute asserts the value of an attribute of the element id.
func (p *Page) ExpectAttribute(id change.NodeID, name, value string) {
	p.t.Helper()
	got, ok := p.Element(id).GetAttribute(name)
	if !ok {
		p.t.Errorf("node %s has no attribute %s", id, name)
		return
	}
	if got != value {
		p.t.Errorf("node %s: %s = %q, want %q", id, name, got, value)
	}
}

// ExpectConsistent asserts that the document matches the model replay of
// every batch applied so far.
func (p *Page) ExpectConsistent() {
	p.t.Helper()
	if diff := cmp.Diff(p.model.Snapshot(), vdom.FromDOM(p.doc.Body())); diff != "" {
		p.t.Errorf("document differs from model (-model +document):\n%s", diff)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

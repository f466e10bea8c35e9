package change

import (
	stderrors "errors"
	"log/slog"
	"slices"
	"time"

	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/pkg/dom"
	"github.com/vango-dev/pagebridge/pkg/registry"
)

// Observer is notified of every record the Applier handles.
type Observer interface {
	// Applied is called after a record was applied.
	Applied(kind Kind, elapsed time.Duration)

	// Skipped is called for records of an unknown kind.
	Skipped(kind Kind)

	// Failed is called when a record violates the protocol.
	Failed(kind Kind, err error)
}

// component tracks the placeholder and current root of a component node.
type component struct {
	placeholder dom.Node
	root        NodeID
}

// Applier applies change records to a document.
// It is not safe for concurrent use.
type Applier struct {
	doc      dom.Document
	nodes    *registry.Registry
	compos   map[NodeID]*component
	logger   *slog.Logger
	observer Observer
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithLogger sets the logger used for warnings.
func WithLogger(logger *slog.Logger) ApplierOption {
	return func(a *Applier) {
		a.logger = logger
	}
}

// WithObserver sets the observer notified of each record.
func WithObserver(o Observer) ApplierOption {
	return func(a *Applier) {
		a.observer = o
	}
}

// NewApplier creates an Applier that mutates doc and tracks nodes in reg.
func NewApplier(doc dom.Document, reg *registry.Registry, opts ...ApplierOption) *Applier {
	a := &Applier{
		doc:    doc,
		nodes:  reg,
		compos: make(map[NodeID]*component),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Mount registers an existing node, such as the document body, under id so
// that records can attach nodes to it.
func (a *Applier) Mount(id NodeID, n dom.Node) error {
	return a.register(Change{Type: "mount", NodeID: id}, n)
}

// Registry returns the registry the Applier maintains.
func (a *Applier) Registry() *registry.Registry {
	return a.nodes
}

// Apply applies changes in order. It stops at the first protocol violation
// and returns it with the index of the offending record.
func (a *Applier) Apply(changes []Change) error {
	for i, c := range changes {
		if err := a.ApplyOne(c); err != nil {
			var be *errors.BridgeError
			if stderrors.As(err, &be) {
				be.WithIndex(i)
			}
			return err
		}
	}
	return nil
}

// ApplyOne applies a single record.
func (a *Applier) ApplyOne(c Change) error {
	if !c.Type.Known() {
		a.logger.Warn("unknown change", "type", string(c.Type), "node_id", string(c.NodeID))
		if a.observer != nil {
			a.observer.Skipped(c.Type)
		}
		return nil
	}

	start := time.Now()
	err := a.apply(c)
	if err != nil {
		if a.observer != nil {
			a.observer.Failed(c.Type, err)
		}
		return err
	}
	if a.observer != nil {
		a.observer.Applied(c.Type, time.Since(start))
	}
	return nil
}

func (a *Applier) apply(c Change) error {
	if c.NodeID == "" {
		return malformed(c, "NodeID")
	}

	switch c.Type {
	case KindCreateText:
		return a.register(c, a.doc.CreateTextNode(c.Value))

	case KindSetText:
		n, err := a.resolve(c, c.NodeID)
		if err != nil {
			return err
		}
		n.SetTextContent(c.Value)
		return nil

	case KindCreateElem:
		if c.Tag == "" {
			return malformed(c, "Tag")
		}
		if c.Namespace != "" {
			return a.register(c, a.doc.CreateElementNS(c.Namespace, c.Tag))
		}
		return a.register(c, a.doc.CreateElement(c.Tag))

	case KindSetAttrs:
		return a.setAttrs(c)

	case KindAppendChild:
		parent, child, err := a.pair(c)
		if err != nil {
			return err
		}
		return treeError(c, parent.AppendChild(child))

	case KindRemoveChild:
		parent, child, err := a.pair(c)
		if err != nil {
			return err
		}
		return treeError(c, parent.RemoveChild(child))

	case KindReplaceChild:
		parent, old, err := a.pair(c)
		if err != nil {
			return err
		}
		if c.NewChildID == "" {
			return malformed(c, "NewChildID")
		}
		repl, err := a.resolve(c, c.NewChildID)
		if err != nil {
			return err
		}
		return treeError(c, parent.ReplaceChild(repl, old))

	case KindCreateCompo:
		placeholder := a.doc.CreateTextNode("")
		if err := a.register(c, placeholder); err != nil {
			return err
		}
		a.compos[c.NodeID] = &component{placeholder: placeholder}
		return nil

	case KindSetCompoRoot:
		return a.setCompoRoot(c)

	case KindDeleteNode:
		return a.deleteNode(c)
	}
	return nil
}

func (a *Applier) register(c Change, n dom.Node) error {
	if err := a.nodes.Register(string(c.NodeID), n); err != nil {
		return errors.New("E061").
			WithDetailf("%s reuses a live node ID", c).
			Wrap(err)
	}
	return nil
}

// resolve returns the node currently standing for id. Components resolve to
// their mount node: the current root if one is set, otherwise the placeholder.
func (a *Applier) resolve(c Change, id NodeID) (dom.Node, error) {
	n, err := a.nodes.Resolve(string(id))
	if err != nil {
		return nil, errors.New("E060").
			WithDetailf("%s references node %q", c, id).
			Wrap(err)
	}
	if compo, ok := a.compos[id]; ok {
		return a.mount(compo), nil
	}
	return n, nil
}

func (a *Applier) mount(compo *component) dom.Node {
	if compo.root != "" && a.nodes.Has(string(compo.root)) {
		if n, err := a.resolve(Change{}, compo.root); err == nil {
			return n
		}
	}
	return compo.placeholder
}

func (a *Applier) pair(c Change) (dom.Node, dom.Node, error) {
	if c.ChildID == "" {
		return nil, nil, malformed(c, "ChildID")
	}
	parent, err := a.resolve(c, c.NodeID)
	if err != nil {
		return nil, nil, err
	}
	child, err := a.resolve(c, c.ChildID)
	if err != nil {
		return nil, nil, err
	}
	return parent, child, nil
}

func (a *Applier) setAttrs(c Change) error {
	n, err := a.resolve(c, c.NodeID)
	if err != nil {
		return err
	}
	el, ok := n.(dom.Element)
	if !ok {
		return errors.New("E065").WithDetailf("%s targets a %s node", c, n.Type())
	}

	for _, name := range el.AttributeNames() {
		if _, keep := c.Attrs[name]; !keep {
			el.RemoveAttribute(name)
		}
	}

	names := make([]string, 0, len(c.Attrs))
	for name := range c.Attrs {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		value := c.Attrs[name]
		if name == "value" {
			if el.Value() != value {
				el.SetValue(value)
			}
			continue
		}
		if current, ok := el.GetAttribute(name); !ok || current != value {
			el.SetAttribute(name, value)
		}
	}
	return nil
}

func (a *Applier) setCompoRoot(c Change) error {
	if c.ChildID == "" {
		return malformed(c, "ChildID")
	}
	if _, err := a.resolve(c, c.NodeID); err != nil {
		return err
	}
	compo, ok := a.compos[c.NodeID]
	if !ok {
		return errors.New("E064").WithDetailf("%s targets a non-component node", c)
	}

	// A component cannot be rendered inside itself.
	for id := c.ChildID; ; {
		if id == c.NodeID {
			return errors.New("E063").
				WithDetailf("%s would mount the component inside itself", c).
				Wrap(dom.ErrHierarchy)
		}
		next, ok := a.compos[id]
		if !ok {
			break
		}
		id = next.root
	}

	root, err := a.resolve(c, c.ChildID)
	if err != nil {
		return err
	}

	current := a.mount(compo)
	if parent := current.Parent(); parent != nil && current != root {
		if err := treeError(c, parent.ReplaceChild(root, current)); err != nil {
			return err
		}
	}
	compo.root = c.ChildID
	return nil
}

func (a *Applier) deleteNode(c Change) error {
	if !a.nodes.Has(string(c.NodeID)) {
		_, err := a.nodes.Resolve(string(c.NodeID))
		return errors.New("E062").
			WithDetailf("%s targets node %q which is not live", c, c.NodeID).
			Wrap(err)
	}

	n, err := a.resolve(c, c.NodeID)
	if err != nil {
		return err
	}
	if parent := n.Parent(); parent != nil {
		if err := treeError(c, parent.RemoveChild(n)); err != nil {
			return err
		}
	}

	if err := a.nodes.Unregister(string(c.NodeID)); err != nil {
		return errors.New("E062").Wrap(err)
	}
	delete(a.compos, c.NodeID)
	for _, compo := range a.compos {
		if compo.root == c.NodeID {
			compo.root = ""
		}
	}
	return nil
}

// Reset forgets every node and component, ending the session.
func (a *Applier) Reset() {
	a.nodes.Reset()
	a.compos = make(map[NodeID]*component)
}

func treeError(c Change, err error) error {
	if err == nil {
		return nil
	}
	return errors.New("E063").WithDetailf("%s was rejected by the document", c).Wrap(err)
}

func malformed(c Change, field string) error {
	return errors.New("E066").WithDetailf("%s is missing %s", c, field)
}

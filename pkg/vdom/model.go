package vdom

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vango-dev/pagebridge/pkg/change"
	"github.com/vango-dev/pagebridge/pkg/dom"
)

// Errors returned by Model. They mirror the violations the Applier reports.
var (
	ErrUnknownNode   = errors.New("vdom: unknown node")
	ErrDuplicateNode = errors.New("vdom: duplicate node")
	ErrNotChild      = errors.New("vdom: node is not a child")
	ErrHierarchy     = errors.New("vdom: hierarchy request")
	ErrNotComponent  = errors.New("vdom: node is not a component")
	ErrNotElement    = errors.New("vdom: node is not an element")
	ErrMalformed     = errors.New("vdom: malformed record")
)

type mnode struct {
	kind      VKind
	tag       string
	namespace string
	attrs     map[string]string
	value     string
	text      string
	parent    *mnode
	children  []*mnode
}

func (n *mnode) detach() {
	if n.parent == nil {
		return
	}
	p := n.parent
	if i := slices.Index(p.children, n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
}

// contains reports whether other is n or one of its descendants.
func (n *mnode) contains(other *mnode) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

func (n *mnode) checkInsert(child *mnode) error {
	if n.kind == KindText || child.contains(n) {
		return ErrHierarchy
	}
	return nil
}

func (n *mnode) snapshot() *VNode {
	if n.kind == KindText {
		return Text(n.text)
	}
	v := &VNode{
		Kind:      KindElement,
		Tag:       n.tag,
		Namespace: n.namespace,
		Value:     n.value,
	}
	if len(n.attrs) > 0 {
		v.Attrs = make(map[string]string, len(n.attrs))
		for k, val := range n.attrs {
			v.Attrs[k] = val
		}
	}
	for _, c := range n.children {
		v.Children = append(v.Children, c.snapshot())
	}
	return v
}

type mcompo struct {
	placeholder *mnode
	root        change.NodeID
}

// Model replays change records over a plain tree. It is the reference the
// Applier is checked against.
type Model struct {
	body   *mnode
	nodes  map[change.NodeID]*mnode
	compos map[change.NodeID]*mcompo
}

// NewModel creates a model whose body element is registered as bodyID.
func NewModel(bodyID change.NodeID) *Model {
	body := &mnode{kind: KindElement, tag: "body"}
	return &Model{
		body:   body,
		nodes:  map[change.NodeID]*mnode{bodyID: body},
		compos: make(map[change.NodeID]*mcompo),
	}
}

// Snapshot returns the body subtree.
func (m *Model) Snapshot() *VNode {
	return m.body.snapshot()
}

// Node returns the snapshot of the node currently standing for id.
func (m *Model) Node(id change.NodeID) (*VNode, bool) {
	n, err := m.resolve(id)
	if err != nil {
		return nil, false
	}
	return n.snapshot(), true
}

// Has reports whether id is live.
func (m *Model) Has(id change.NodeID) bool {
	_, ok := m.nodes[id]
	return ok
}

// IsComponent reports whether id is a live component.
func (m *Model) IsComponent(id change.NodeID) bool {
	_, ok := m.compos[id]
	return ok
}

// IsElement reports whether id currently stands for an element.
func (m *Model) IsElement(id change.NodeID) bool {
	n, err := m.resolve(id)
	return err == nil && n.kind == KindElement
}

// IDs returns the live ids in sorted order.
func (m *Model) IDs() []change.NodeID {
	ids := make([]change.NodeID, 0, len(m.nodes))
	for id := range m.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Replay applies changes in order, stopping at the first violation.
func (m *Model) Replay(changes []change.Change) error {
	for i, c := range changes {
		if err := m.Apply(c); err != nil {
			return fmt.Errorf("record %d: %s: %w", i, c, err)
		}
	}
	return nil
}

func (m *Model) resolve(id change.NodeID) (*mnode, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownNode, id)
	}
	if c, ok := m.compos[id]; ok {
		if c.root != "" {
			if r, err := m.resolve(c.root); err == nil {
				return r, nil
			}
		}
		return c.placeholder, nil
	}
	return n, nil
}

func (m *Model) create(id change.NodeID, n *mnode) error {
	if _, ok := m.nodes[id]; ok {
		return fmt.Errorf("%w %q", ErrDuplicateNode, id)
	}
	m.nodes[id] = n
	return nil
}

// Apply applies a single record. Unknown kinds are ignored.
func (m *Model) Apply(c change.Change) error {
	if !c.Type.Known() {
		return nil
	}
	if c.NodeID == "" {
		return ErrMalformed
	}

	switch c.Type {
	case change.KindCreateText:
		return m.create(c.NodeID, &mnode{kind: KindText, text: c.Value})

	case change.KindCreateElem:
		if c.Tag == "" {
			return ErrMalformed
		}
		tag := strings.ToLower(c.Tag)
		if c.Namespace != "" && c.Namespace != dom.NamespaceHTML {
			tag = c.Tag
		}
		return m.create(c.NodeID, &mnode{kind: KindElement, tag: tag, namespace: c.Namespace})

	case change.KindCreateCompo:
		placeholder := &mnode{kind: KindText}
		if err := m.create(c.NodeID, placeholder); err != nil {
			return err
		}
		m.compos[c.NodeID] = &mcompo{placeholder: placeholder}
		return nil

	case change.KindSetText:
		n, err := m.resolve(c.NodeID)
		if err != nil {
			return err
		}
		if n.kind == KindText {
			n.text = c.Value
			return nil
		}
		for len(n.children) > 0 {
			n.children[0].detach()
		}
		if c.Value != "" {
			n.children = []*mnode{{kind: KindText, text: c.Value, parent: n}}
		}
		return nil

	case change.KindSetAttrs:
		n, err := m.resolve(c.NodeID)
		if err != nil {
			return err
		}
		if n.kind != KindElement {
			return ErrNotElement
		}
		n.attrs = make(map[string]string, len(c.Attrs))
		for k, v := range c.Attrs {
			if k == "value" {
				n.value = v
				continue
			}
			n.attrs[k] = v
		}
		return nil

	case change.KindAppendChild, change.KindRemoveChild, change.KindReplaceChild:
		return m.structural(c)

	case change.KindSetCompoRoot:
		return m.setCompoRoot(c)

	case change.KindDeleteNode:
		if _, ok := m.nodes[c.NodeID]; !ok {
			return fmt.Errorf("%w %q", ErrUnknownNode, c.NodeID)
		}
		n, err := m.resolve(c.NodeID)
		if err != nil {
			return err
		}
		n.detach()
		delete(m.nodes, c.NodeID)
		delete(m.compos, c.NodeID)
		for _, compo := range m.compos {
			if compo.root == c.NodeID {
				compo.root = ""
			}
		}
		return nil
	}
	return nil
}

func (m *Model) structural(c change.Change) error {
	if c.ChildID == "" {
		return ErrMalformed
	}
	parent, err := m.resolve(c.NodeID)
	if err != nil {
		return err
	}
	child, err := m.resolve(c.ChildID)
	if err != nil {
		return err
	}

	switch c.Type {
	case change.KindAppendChild:
		if err := parent.checkInsert(child); err != nil {
			return err
		}
		child.detach()
		child.parent = parent
		parent.children = append(parent.children, child)
		return nil

	case change.KindRemoveChild:
		if child.parent != parent {
			return ErrNotChild
		}
		child.detach()
		return nil
	}

	if c.NewChildID == "" {
		return ErrMalformed
	}
	repl, err := m.resolve(c.NewChildID)
	if err != nil {
		return err
	}
	return replace(parent, repl, child)
}

func replace(parent, repl, old *mnode) error {
	if old.parent != parent {
		return ErrNotChild
	}
	if err := parent.checkInsert(repl); err != nil {
		return err
	}
	if repl == old {
		return nil
	}
	repl.detach()
	i := slices.Index(parent.children, old)
	parent.children[i] = repl
	repl.parent = parent
	old.parent = nil
	return nil
}

func (m *Model) setCompoRoot(c change.Change) error {
	if c.ChildID == "" {
		return ErrMalformed
	}
	if _, err := m.resolve(c.NodeID); err != nil {
		return err
	}
	compo, ok := m.compos[c.NodeID]
	if !ok {
		return ErrNotComponent
	}
	for id := c.ChildID; ; {
		if id == c.NodeID {
			return ErrHierarchy
		}
		next, ok := m.compos[id]
		if !ok {
			break
		}
		id = next.root
	}

	root, err := m.resolve(c.ChildID)
	if err != nil {
		return err
	}
	current, _ := m.resolve(c.NodeID)
	if current.parent != nil && current != root {
		if err := replace(current.parent, root, current); err != nil {
			return err
		}
	}
	compo.root = c.ChildID
	return nil
}

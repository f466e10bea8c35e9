package dom

import (
	"strings"
)

// memNode is implemented by every node of the in-memory document.
type memNode interface {
	Node
	base() *treeNode
}

// treeNode holds the tree links shared by memory elements and text nodes.
type treeNode struct {
	self     memNode
	parent   memNode
	children []memNode
}

func (n *treeNode) indexOf(child memNode) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *treeNode) detach() {
	if n.parent == nil {
		return
	}
	p := n.parent.base()
	if i := p.indexOf(n.self); i >= 0 {
		p.children = append(p.children[:i], p.children[i+1:]...)
	}
	n.parent = nil
}

// isAncestorOf reports whether n is other or one of its ancestors.
func (n *treeNode) isAncestorOf(other memNode) bool {
	for cur := other; cur != nil; cur = cur.base().parent {
		if cur == n.self {
			return true
		}
	}
	return false
}

func (n *treeNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *treeNode) ChildNodes() []Node {
	nodes := make([]Node, len(n.children))
	for i, c := range n.children {
		nodes[i] = c
	}
	return nodes
}

func (n *treeNode) checkInsert(child Node) (memNode, error) {
	c, ok := child.(memNode)
	if !ok || c == nil {
		return nil, ErrWrongDocument
	}
	if n.self.Type() == TextNode {
		return nil, ErrHierarchy
	}
	if c.base().isAncestorOf(n.self) {
		return nil, ErrHierarchy
	}
	return c, nil
}

func (n *treeNode) AppendChild(child Node) error {
	c, err := n.checkInsert(child)
	if err != nil {
		return err
	}
	c.base().detach()
	c.base().parent = n.self
	n.children = append(n.children, c)
	return nil
}

func (n *treeNode) RemoveChild(child Node) error {
	c, ok := child.(memNode)
	if !ok || c == nil {
		return ErrWrongDocument
	}
	if c.base().parent != n.self {
		return ErrNotFound
	}
	c.base().detach()
	return nil
}

func (n *treeNode) ReplaceChild(newChild, oldChild Node) error {
	o, ok := oldChild.(memNode)
	if !ok || o == nil {
		return ErrWrongDocument
	}
	if o.base().parent != n.self {
		return ErrNotFound
	}
	c, err := n.checkInsert(newChild)
	if err != nil {
		return err
	}
	if c == o {
		return nil
	}

	c.base().detach()
	i := n.indexOf(o)
	n.children[i] = c
	c.base().parent = n.self
	o.base().parent = nil
	return nil
}

// Text is an in-memory text node.
type Text struct {
	treeNode
	data string
}

func (t *Text) base() *treeNode { return &t.treeNode }

// Type implements Node.
func (t *Text) Type() NodeType { return TextNode }

// TextContent implements Node.
func (t *Text) TextContent() string { return t.data }

// SetTextContent implements Node.
func (t *Text) SetTextContent(text string) { t.data = text }

// MemElement is an in-memory element.
type MemElement struct {
	treeNode
	tag       string
	namespace string
	attrNames []string
	attrs     map[string]string
	value     string
	dirty     bool
}

func (e *MemElement) base() *treeNode { return &e.treeNode }

// Type implements Node.
func (e *MemElement) Type() NodeType { return ElementNode }

// TagName implements Element.
func (e *MemElement) TagName() string { return e.tag }

// Namespace implements Element.
func (e *MemElement) Namespace() string { return e.namespace }

// TextContent implements Node.
func (e *MemElement) TextContent() string {
	var b strings.Builder
	for _, c := range e.children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// SetTextContent implements Node. Children are replaced by a single text node.
func (e *MemElement) SetTextContent(text string) {
	for len(e.children) > 0 {
		e.children[0].base().detach()
	}
	if text == "" {
		return
	}
	t := &Text{data: text}
	t.self = t
	t.parent = e
	e.children = append(e.children, t)
}

// AttributeNames implements Element.
func (e *MemElement) AttributeNames() []string {
	names := make([]string, len(e.attrNames))
	copy(names, e.attrNames)
	return names
}

// GetAttribute implements Element.
func (e *MemElement) GetAttribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// SetAttribute implements Element.
func (e *MemElement) SetAttribute(name, value string) {
	if _, ok := e.attrs[name]; !ok {
		e.attrNames = append(e.attrNames, name)
	}
	e.attrs[name] = value
}

// RemoveAttribute implements Element.
func (e *MemElement) RemoveAttribute(name string) {
	if _, ok := e.attrs[name]; !ok {
		return
	}
	delete(e.attrs, name)
	for i, n := range e.attrNames {
		if n == name {
			e.attrNames = append(e.attrNames[:i], e.attrNames[i+1:]...)
			break
		}
	}
}

// Value implements Element. Until the property is written it reflects the
// value attribute, as form controls do.
func (e *MemElement) Value() string {
	if e.dirty {
		return e.value
	}
	return e.attrs["value"]
}

// SetValue implements Element.
func (e *MemElement) SetValue(value string) {
	e.value = value
	e.dirty = true
}

// IsContentEditable implements Element.
func (e *MemElement) IsContentEditable() bool {
	v, ok := e.attrs["contenteditable"]
	if !ok {
		return false
	}
	return v == "" || strings.EqualFold(v, "true")
}

// InnerText implements Element. The memory document has no layout, so this
// is the text content.
func (e *MemElement) InnerText() string {
	return e.TextContent()
}

// Dataset implements Element.
func (e *MemElement) Dataset(key string) string {
	return e.attrs["data-"+key]
}

// MemDocument is an in-memory Document.
type MemDocument struct {
	body *MemElement
}

// NewDocument creates an empty in-memory document with a body element.
func NewDocument() *MemDocument {
	d := &MemDocument{}
	d.body = d.newElement("", "body")
	return d
}

func (d *MemDocument) newElement(namespace, tag string) *MemElement {
	e := &MemElement{
		tag:       strings.ToLower(tag),
		namespace: namespace,
		attrs:     make(map[string]string),
	}
	if namespace != "" && namespace != NamespaceHTML {
		// Foreign elements keep their tag case (e.g. SVG "foreignObject").
		e.tag = tag
	}
	e.self = e
	return e
}

// CreateElement implements Document.
func (d *MemDocument) CreateElement(tag string) Element {
	return d.newElement("", tag)
}

// CreateElementNS implements Document.
func (d *MemDocument) CreateElementNS(namespace, tag string) Element {
	return d.newElement(namespace, tag)
}

// CreateTextNode implements Document.
func (d *MemDocument) CreateTextNode(text string) Node {
	t := &Text{data: text}
	t.self = t
	return t
}

// Body implements Document.
func (d *MemDocument) Body() Element {
	return d.body
}

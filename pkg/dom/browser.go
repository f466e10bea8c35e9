//go:build js && wasm

package dom

import (
	"strings"
	"syscall/js"
)

// Browser is the Document of the page the program runs in.
type Browser struct {
	doc js.Value
}

// NewBrowser wraps the global document.
func NewBrowser() *Browser {
	return &Browser{doc: js.Global().Get("document")}
}

// CreateElement implements Document.
func (b *Browser) CreateElement(tag string) Element {
	return &jsElement{jsNode{b.doc.Call("createElement", tag)}}
}

// CreateElementNS implements Document.
func (b *Browser) CreateElementNS(namespace, tag string) Element {
	if namespace == "" {
		return b.CreateElement(tag)
	}
	return &jsElement{jsNode{b.doc.Call("createElementNS", namespace, tag)}}
}

// CreateTextNode implements Document.
func (b *Browser) CreateTextNode(text string) Node {
	return &jsNode{b.doc.Call("createTextNode", text)}
}

// Body implements Document.
func (b *Browser) Body() Element {
	return &jsElement{jsNode{b.doc.Get("body")}}
}

// Wrap returns the Node for a js value, or nil for null and undefined.
func Wrap(v js.Value) Node {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	if v.Get("nodeType").Int() == int(ElementNode) {
		return &jsElement{jsNode{v}}
	}
	return &jsNode{v}
}

// JSValue exposes the underlying js value of a browser node.
type JSValue interface {
	JSValue() js.Value
}

type jsNode struct {
	v js.Value
}

func (n *jsNode) JSValue() js.Value { return n.v }

func (n *jsNode) Type() NodeType {
	return NodeType(n.v.Get("nodeType").Int())
}

func (n *jsNode) Parent() Node {
	return Wrap(n.v.Get("parentNode"))
}

func (n *jsNode) ChildNodes() []Node {
	list := n.v.Get("childNodes")
	count := list.Length()
	nodes := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		nodes = append(nodes, Wrap(list.Index(i)))
	}
	return nodes
}

func (n *jsNode) TextContent() string {
	return n.v.Get("textContent").String()
}

func (n *jsNode) SetTextContent(text string) {
	n.v.Set("textContent", text)
}

func unwrap(node Node) (js.Value, error) {
	jv, ok := node.(JSValue)
	if !ok {
		return js.Undefined(), ErrWrongDocument
	}
	return jv.JSValue(), nil
}

func (n *jsNode) isParentOf(child js.Value) bool {
	return child.Get("parentNode").Equal(n.v)
}

func (n *jsNode) AppendChild(child Node) error {
	c, err := unwrap(child)
	if err != nil {
		return err
	}
	if n.Type() == TextNode || c.Call("contains", n.v).Bool() {
		return ErrHierarchy
	}
	n.v.Call("appendChild", c)
	return nil
}

func (n *jsNode) RemoveChild(child Node) error {
	c, err := unwrap(child)
	if err != nil {
		return err
	}
	if !n.isParentOf(c) {
		return ErrNotFound
	}
	n.v.Call("removeChild", c)
	return nil
}

func (n *jsNode) ReplaceChild(newChild, oldChild Node) error {
	o, err := unwrap(oldChild)
	if err != nil {
		return err
	}
	c, err := unwrap(newChild)
	if err != nil {
		return err
	}
	if !n.isParentOf(o) {
		return ErrNotFound
	}
	if c.Equal(o) {
		return nil
	}
	if c.Call("contains", n.v).Bool() {
		return ErrHierarchy
	}
	n.v.Call("replaceChild", c, o)
	return nil
}

type jsElement struct {
	jsNode
}

func (e *jsElement) TagName() string {
	return strings.ToLower(e.v.Get("tagName").String())
}

func (e *jsElement) Namespace() string {
	ns := e.v.Get("namespaceURI")
	if ns.IsNull() || ns.String() == NamespaceHTML {
		return ""
	}
	return ns.String()
}

func (e *jsElement) AttributeNames() []string {
	names := e.v.Call("getAttributeNames")
	count := names.Length()
	out := make([]string, count)
	for i := 0; i < count; i++ {
		out[i] = names.Index(i).String()
	}
	return out
}

func (e *jsElement) GetAttribute(name string) (string, bool) {
	v := e.v.Call("getAttribute", name)
	if v.IsNull() {
		return "", false
	}
	return v.String(), true
}

func (e *jsElement) SetAttribute(name, value string) {
	e.v.Call("setAttribute", name, value)
}

func (e *jsElement) RemoveAttribute(name string) {
	e.v.Call("removeAttribute", name)
}

func (e *jsElement) Value() string {
	v := e.v.Get("value")
	if v.IsUndefined() || v.IsNull() {
		return ""
	}
	return v.String()
}

func (e *jsElement) SetValue(value string) {
	e.v.Set("value", value)
}

func (e *jsElement) IsContentEditable() bool {
	return e.v.Get("contentEditable").String() == "true"
}

func (e *jsElement) InnerText() string {
	return e.v.Get("innerText").String()
}

func (e *jsElement) Dataset(key string) string {
	v := e.v.Get("dataset").Get(key)
	if v.IsUndefined() {
		return ""
	}
	return v.String()
}

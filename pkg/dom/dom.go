package dom

import "errors"

// NodeType discriminates the kinds of nodes the bridge creates.
type NodeType uint8

const (
	ElementNode NodeType = 1
	TextNode    NodeType = 3
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	default:
		return "Unknown"
	}
}

// Tree errors, mirroring the DOMException names browsers raise.
var (
	// ErrNotFound is returned when the reference child is not a child of the parent.
	ErrNotFound = errors.New("dom: node is not a child of this node")

	// ErrHierarchy is returned when an insertion would make a node its own ancestor
	// or would insert into a text node.
	ErrHierarchy = errors.New("dom: hierarchy request error")

	// ErrWrongDocument is returned when nodes from different implementations are mixed.
	ErrWrongDocument = errors.New("dom: node belongs to another document")
)

// Node is a live node in a document.
type Node interface {
	// Type returns the node type.
	Type() NodeType

	// Parent returns the parent node, or nil when detached.
	Parent() Node

	// ChildNodes returns the children in document order.
	ChildNodes() []Node

	// TextContent returns the text of the node and its descendants.
	TextContent() string

	// SetTextContent replaces the text of the node.
	SetTextContent(text string)

	// AppendChild appends child as the last child, detaching it from any
	// previous parent first.
	AppendChild(child Node) error

	// RemoveChild detaches child. ErrNotFound if child is not a child.
	RemoveChild(child Node) error

	// ReplaceChild puts newChild at the position of oldChild.
	ReplaceChild(newChild, oldChild Node) error
}

// Element is an element node.
type Element interface {
	Node

	// TagName returns the element tag name in lower case.
	TagName() string

	// Namespace returns the namespace URI, empty for HTML elements.
	Namespace() string

	// AttributeNames returns the names of the attributes currently set.
	AttributeNames() []string

	// GetAttribute returns the attribute value and whether it is present.
	GetAttribute(name string) (string, bool)

	// SetAttribute sets an attribute.
	SetAttribute(name, value string)

	// RemoveAttribute removes an attribute. Removing an absent attribute is a no-op.
	RemoveAttribute(name string)

	// Value returns the live value property.
	Value() string

	// SetValue sets the live value property.
	SetValue(value string)

	// IsContentEditable reports whether the element is content-editable.
	IsContentEditable() bool

	// InnerText returns the rendered text of the element.
	InnerText() string

	// Dataset returns the value of the data-* attribute named key.
	Dataset(key string) string
}

// Document creates nodes.
type Document interface {
	// CreateElement creates a detached HTML element.
	CreateElement(tag string) Element

	// CreateElementNS creates a detached element in the given namespace.
	CreateElementNS(namespace, tag string) Element

	// CreateTextNode creates a detached text node.
	CreateTextNode(text string) Node

	// Body returns the document body.
	Body() Element
}

// Common namespaces.
const (
	NamespaceHTML = "http://www.w3.org/1999/xhtml"
	NamespaceSVG  = "http://www.w3.org/2000/svg"
)

package vdom

import (
	"html"
	"sort"
	"strings"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement VKind = iota // <div>, <button>, etc.
	KindText                 // Plain text node
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// VNode is a snapshot of a document node.
type VNode struct {
	Kind      VKind             // Node type
	Tag       string            // Element tag name (e.g., "div")
	Namespace string            // Element namespace, empty for HTML
	Attrs     map[string]string // Attributes, nil when none are set
	Value     string            // Live value property
	Text      string            // For KindText
	Children  []*VNode          // Child nodes
}

// Elem creates an element node.
func Elem(tag string, attrs map[string]string, children ...*VNode) *VNode {
	if len(attrs) == 0 {
		attrs = nil
	}
	return &VNode{
		Kind:     KindElement,
		Tag:      tag,
		Attrs:    attrs,
		Children: children,
	}
}

// Text creates a text node.
func Text(s string) *VNode {
	return &VNode{Kind: KindText, Text: s}
}

// TextContent returns the concatenated text of v and its descendants.
func (v *VNode) TextContent() string {
	if v == nil {
		return ""
	}
	if v.Kind == KindText {
		return v.Text
	}
	var b strings.Builder
	for _, c := range v.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// HTML renders v as markup. Attributes are written in name order so the
// output is stable.
func (v *VNode) HTML() string {
	var b strings.Builder
	v.writeHTML(&b)
	return b.String()
}

func (v *VNode) writeHTML(b *strings.Builder) {
	if v == nil {
		return
	}
	if v.Kind == KindText {
		b.WriteString(html.EscapeString(v.Text))
		return
	}

	b.WriteByte('<')
	b.WriteString(v.Tag)
	names := make([]string, 0, len(v.Attrs))
	for name := range v.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteByte(' ')
		b.WriteString(name)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(v.Attrs[name]))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	for _, c := range v.Children {
		c.writeHTML(b)
	}
	b.WriteString("</")
	b.WriteString(v.Tag)
	b.WriteByte('>')
}

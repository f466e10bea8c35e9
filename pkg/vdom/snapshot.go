package vdom

import "github.com/vango-dev/pagebridge/pkg/dom"

// FromDOM captures n and its descendants.
func FromDOM(n dom.Node) *VNode {
	if n == nil {
		return nil
	}

	el, ok := n.(dom.Element)
	if !ok {
		return Text(n.TextContent())
	}

	v := &VNode{
		Kind:      KindElement,
		Tag:       el.TagName(),
		Namespace: el.Namespace(),
		Value:     el.Value(),
	}
	if names := el.AttributeNames(); len(names) > 0 {
		v.Attrs = make(map[string]string, len(names))
		for _, name := range names {
			v.Attrs[name], _ = el.GetAttribute(name)
		}
	}
	for _, c := range el.ChildNodes() {
		v.Children = append(v.Children, FromDOM(c))
	}
	return v
}

package vdom

import (
	"maps"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/vango-dev/pagebridge/pkg/change"
)

// IDGenerator hands out sequential node ids ("1", "2", ...).
// It is safe for concurrent use.
type IDGenerator struct {
	counter atomic.Uint64
}

// Next returns the next id.
func (g *IDGenerator) Next() change.NodeID {
	return change.NodeID(strconv.FormatUint(g.counter.Add(1), 10))
}

// Build returns the records that create v as a detached subtree, and the id
// of its root. Attributes are emitted in a single setAttrs per element; the
// Value field is sent under the "value" key.
func Build(v *VNode, next func() change.NodeID) (change.NodeID, []change.Change) {
	var changes []change.Change
	root := build(v, next, &changes)
	return root, changes
}

func build(v *VNode, next func() change.NodeID, out *[]change.Change) change.NodeID {
	id := next()
	if v.Kind == KindText {
		*out = append(*out, change.CreateText(id, v.Text))
		return id
	}

	if v.Namespace != "" {
		*out = append(*out, change.CreateElemNS(id, v.Namespace, v.Tag))
	} else {
		*out = append(*out, change.CreateElem(id, v.Tag))
	}

	if len(v.Attrs) > 0 || v.Value != "" {
		attrs := maps.Clone(v.Attrs)
		if attrs == nil {
			attrs = make(map[string]string, 1)
		}
		if v.Value != "" {
			attrs["value"] = v.Value
		}
		*out = append(*out, change.SetAttrs(id, attrs))
	}

	for _, c := range v.Children {
		childID := build(c, next, out)
		*out = append(*out, change.AppendChild(id, childID))
	}
	return id
}

// Walk calls fn for v and each of its descendants in document order.
func Walk(v *VNode, fn func(*VNode)) {
	if v == nil {
		return
	}
	fn(v)
	for _, c := range v.Children {
		Walk(c, fn)
	}
}

// AttrNames returns the attribute names of v in sorted order.
func (v *VNode) AttrNames() []string {
	return slices.Sorted(maps.Keys(v.Attrs))
}

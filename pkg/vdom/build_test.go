package vdom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/pagebridge/pkg/change"
	"github.com/vango-dev/pagebridge/pkg/dom"
)

func TestBuild(t *testing.T) {
	var ids IDGenerator
	v := Elem("form", map[string]string{"action": "/save"},
		&VNode{Kind: KindElement, Tag: "input", Value: "hi"},
		Text("ok"),
	)

	root, changes := Build(v, ids.Next)
	if root != "1" {
		t.Errorf("root = %s, want 1", root)
	}

	want := []change.Change{
		change.CreateElem("1", "form"),
		change.SetAttrs("1", map[string]string{"action": "/save"}),
		change.CreateElem("2", "input"),
		change.SetAttrs("2", map[string]string{"value": "hi"}),
		change.AppendChild("1", "2"),
		change.CreateText("3", "ok"),
		change.AppendChild("1", "3"),
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildReplaysToSameTree(t *testing.T) {
	var ids IDGenerator
	v := Elem("div", map[string]string{"class": "card"},
		Elem("h1", nil, Text("Title")),
		&VNode{Kind: KindElement, Tag: "svg", Namespace: dom.NamespaceSVG, Children: []*VNode{
			{Kind: KindElement, Tag: "foreignObject", Namespace: dom.NamespaceSVG},
		}},
	)
	root, changes := Build(v, ids.Next)

	m := NewModel("body")
	changes = append(changes, change.AppendChild("body", root))
	if err := m.Replay(changes); err != nil {
		t.Fatalf("Replay() error: %v", err)
	}
	want := Elem("body", nil, v)
	if diff := cmp.Diff(want, m.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestIDGenerator(t *testing.T) {
	var g IDGenerator
	for _, want := range []change.NodeID{"1", "2", "3"} {
		if got := g.Next(); got != want {
			t.Errorf("Next() = %s, want %s", got, want)
		}
	}
}

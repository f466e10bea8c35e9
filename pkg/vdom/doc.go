// Package vdom provides a plain-value model of the document tree.
//
// A VNode is a snapshot of a subtree: elements with their attributes and
// live value property, and text nodes. Snapshots are comparable with
// go-cmp, which makes them the currency of tree assertions.
//
// # Snapshots
//
// FromDOM captures a live dom.Node:
//
//	snap := vdom.FromDOM(doc.Body())
//	fmt.Println(snap.HTML())
//
// # Reference Model
//
// Model replays change records without touching a document. Replaying the
// same records through a Model and through a change.Applier must produce
// equal snapshots:
//
//	m := vdom.NewModel("body")
//	m.Replay(changes)
//	want := m.Snapshot()
//
// # Building Records
//
// Build walks a VNode tree and returns the records that create it, which is
// how hosts emit an initial render:
//
//	root, changes := vdom.Build(vdom.Elem("p", nil, vdom.Text("hi")), ids.Next)
package vdom

// Package change defines the change records emitted by the host and the
// Applier that replays them against a live document.
//
// A change stream is an append-only instruction log: the host diffs once and
// emits only the deltas, so the Applier never compares trees. It applies one
// record at a time, in the order received.
//
// # Record kinds
//
//	createText    NodeID, Value        create and register a text node
//	setText       NodeID, Value        replace the text content
//	createElem    NodeID, Tag, [Namespace]
//	setAttrs      NodeID, Attrs        reconcile the attribute set
//	appendChild   NodeID, ChildID      append ChildID under NodeID
//	removeChild   NodeID, ChildID      detach ChildID, keep it registered
//	replaceChild  NodeID, ChildID, NewChildID
//	createCompo   NodeID               register a component placeholder
//	setCompoRoot  NodeID, ChildID      mount ChildID as the component root
//	deleteNode    NodeID               detach and unregister
//
// Unknown kinds are logged and skipped so that newer hosts can talk to older
// pages. Everything else that does not match the registry or the document is
// a protocol violation: Apply stops at that record and returns an
// *errors.BridgeError of category protocol.
//
// # Usage
//
//	applier := change.NewApplier(dom.NewDocument(), registry.New())
//	err := applier.Apply([]change.Change{
//	    change.CreateElem("n1", "div"),
//	    change.CreateText("n2", "hello"),
//	    change.AppendChild("n1", "n2"),
//	})
package change

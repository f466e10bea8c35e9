// Package dom abstracts the live document that change records are applied to.
//
// Two implementations are provided:
//
//   - Document (memory.go): an in-memory tree with browser-compatible
//     semantics for the operations pagebridge needs. It is used by tests,
//     by headless runtimes and as the target of server-side replays.
//   - Browser (browser.go, js && wasm only): a thin wrapper over syscall/js
//     that forwards every operation to the page's real document.
//
// Both satisfy the Document, Node and Element interfaces. Nodes from one
// implementation must never be mixed with nodes of another.
//
// # Value property
//
// Form controls expose their current state through the live value property,
// which is distinct from the value attribute. Element.Value and
// Element.SetValue always address the property.
package dom

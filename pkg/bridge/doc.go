// Package bridge connects the page runtime to its host.
//
// A Runtime owns the node registry, the change applier and the event
// normalizer of one page. Batches of change records arrive through Run and
// are applied in order; DOM events go through Dispatch, are normalized and
// handed to a Bridge:
//
//	ws, err := bridge.Dial(ctx, "wss://example.com/ws")
//	rt, err := bridge.NewRuntime(dom.NewBrowser(), ws)
//	go rt.Run(ctx, ws.Batches())
//
// Bridges are fire-and-forget: Send returns once the payload is handed to
// the transport, and the host answers, if at all, with later change batches.
//
// Three bridges are provided. Chan keeps payloads in process. WebSocket
// speaks the binary protocol of package protocol. JS, in wasm builds, calls
// a page-level function and exposes the render and callCompoHandler
// globals to page scripts.
package bridge

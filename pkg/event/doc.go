// Package event turns browser events into the payloads a host consumes.
//
// A Normalizer picks one of four strategies from the event type and shapes
// the event into a JSON value:
//
//   - change: the source element's value
//   - drag, dragstart, dragend, dragexit: the transfer's fields plus the
//     source's data-drag value, which is also written to the transfer
//   - dragenter, dragleave, dragover, drop: the transfer's fields plus its
//     text slot; the file list travels in a side channel and replaces the
//     "Files" field on the host
//   - anything else: the event's own scalar fields, plus InnerText for
//     content-editable sources
//
// The result is a Payload, serialized as
//
//	{"compo-id": "...", "target": "...", "json-value": "...", "override": "Files"}
//
// Events and transfers are read through the Object interface. The wasm
// build wraps syscall/js values; Synthetic and Transfer serve tests and
// non-browser callers.
package event

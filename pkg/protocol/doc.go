// Package protocol implements the binary wire protocol spoken between a page
// runtime and its host.
//
// Change batches flow from host to page, normalized events flow from page
// to host. Both directions share one framing and one set of primitive
// encodings, and every message kind fits in a single WebSocket message.
//
// # Wire Format
//
// All messages are framed with a 6-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameEvent (0x01): page → host normalized events
//   - FrameChanges (0x02): host → page change batches
//   - FrameControl (0x03): ping, pong and close
//   - FrameAck (0x04): last applied batch sequence
//   - FrameError (0x05): error report, either direction
//
// # Encoding
//
//   - Varint: compact encoding for counts and sequence numbers
//   - Length-prefixed: strings and byte arrays prefixed with a varint length
//   - Big-endian: fixed-width integers (uint16, uint64)
//
// # Change Batches
//
// A batch is a sequence number, a record count and the records. Each record
// is length-prefixed and starts with its kind as a string, so a decoder that
// does not know a kind can still step over it:
//
//	[Seq: varint][Count: varint]
//	  [Len: varint][Kind: string][Mask: byte][operands...]
//
// The mask says which operands follow, in the order NodeID, ChildID,
// NewChildID, Value, Tag, Namespace, Attrs.
//
// # Events
//
// An event carries the JSON envelope handed to the host and, separately,
// the JSON of the side-channel values that replace override fields:
//
//	[Seq: varint][Envelope: len-prefixed][Sidecar: len-prefixed]
package protocol

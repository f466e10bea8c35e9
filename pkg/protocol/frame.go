package protocol

import (
	"errors"
	"io"
)

// FrameHeaderSize is the fixed header length: type, flags, then a 32-bit
// big-endian payload length.
const FrameHeaderSize = 6

// FrameType says what a frame's payload holds.
type FrameType uint8

const (
	FrameEvent   FrameType = 0x01 // page to host: a serialized event
	FrameChanges FrameType = 0x02 // host to page: a change batch
	FrameControl FrameType = 0x03 // ping, pong, close
	FrameAck     FrameType = 0x04 // page to host: batch applied
	FrameError   FrameType = 0x05
)

var frameTypeNames = [...]string{
	FrameEvent:   "Event",
	FrameChanges: "Changes",
	FrameControl: "Control",
	FrameAck:     "Ack",
	FrameError:   "Error",
}

// String returns the name of the frame type.
func (ft FrameType) String() string {
	if !ft.Valid() {
		return "Unknown"
	}
	return frameTypeNames[ft]
}

// Valid reports whether ft is a frame type this package can route.
func (ft FrameType) Valid() bool {
	return ft >= FrameEvent && ft <= FrameError
}

// FrameFlags modify how a frame is queued.
type FrameFlags uint8

const (
	FlagFinal    FrameFlags = 0x04 // closes a multi-frame batch
	FlagPriority FrameFlags = 0x08 // jumps the send queue
)

// Has reports whether flag is set.
func (ff FrameFlags) Has(flag FrameFlags) bool { return ff&flag != 0 }

var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is one WebSocket message between host and page.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a frame with no flags.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode returns the header followed by the payload.
func (f *Frame) Encode() []byte {
	e := &Encoder{buf: make([]byte, 0, FrameHeaderSize+len(f.Payload))}
	f.EncodeTo(e)
	return e.Bytes()
}

// EncodeTo writes the frame header and payload to e.
func (f *Frame) EncodeTo(e *Encoder) {
	e.WriteByte(byte(f.Type))
	e.WriteByte(byte(f.Flags))
	e.WriteUint32(uint32(len(f.Payload)))
	e.WriteBytes(f.Payload)
}

// header is a decoded frame header.
type header struct {
	typ    FrameType
	flags  FrameFlags
	length int
}

// parseHeader decodes and validates the first FrameHeaderSize bytes of data.
func parseHeader(data []byte) (header, error) {
	d := NewDecoder(data)
	typ, _ := d.ReadByte()
	flags, _ := d.ReadByte()
	length, err := d.ReadUint32()
	if err != nil {
		return header{}, io.ErrUnexpectedEOF
	}

	h := header{typ: FrameType(typ), flags: FrameFlags(flags), length: int(length)}
	switch {
	case !h.typ.Valid():
		return h, ErrInvalidFrameType
	case h.length > MaxPayloadSize:
		return h, ErrFrameTooLarge
	}
	return h, nil
}

// DecodeFrame decodes a frame from a buffer holding its header and the whole
// payload. The payload is copied.
func DecodeFrame(data []byte) (*Frame, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[FrameHeaderSize:]
	if len(body) < h.length {
		return nil, io.ErrUnexpectedEOF
	}
	return &Frame{
		Type:    h.typ,
		Flags:   h.flags,
		Payload: append([]byte(nil), body[:h.length]...),
	}, nil
}

// ReadFrame reads exactly one frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var hdr [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	h, err := parseHeader(hdr[:])
	if err != nil {
		return nil, err
	}

	f := &Frame{Type: h.typ, Flags: h.flags, Payload: make([]byte, h.length)}
	if _, err := io.ReadFull(r, f.Payload); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteFrame writes f to w in a single Write call.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

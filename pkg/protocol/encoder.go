package protocol

import (
	"encoding/binary"
	"slices"
)

// Encoder appends wire values to a growable buffer. The zero value is ready
// to use.
type Encoder struct {
	buf     []byte
	scratch *Encoder
}

// NewEncoder returns an encoder with room for a typical batch.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Reset empties the encoder and keeps its buffer.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

// Bytes returns the encoded bytes. The slice is only valid until the next
// write or Reset.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len reports how many bytes have been written.
func (e *Encoder) Len() int { return len(e.buf) }

// WriteByte writes a single byte.
func (e *Encoder) WriteByte(b byte) { e.buf = append(e.buf, b) }

// WriteBytes writes b as is, without a length.
func (e *Encoder) WriteBytes(b []byte) { e.buf = append(e.buf, b...) }

// WriteUvarint writes an unsigned varint.
func (e *Encoder) WriteUvarint(v uint64) { e.buf = binary.AppendUvarint(e.buf, v) }

// WriteString writes s behind its uvarint length.
func (e *Encoder) WriteString(s string) {
	e.WriteUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteLenBytes writes b behind its uvarint length.
func (e *Encoder) WriteLenBytes(b []byte) {
	e.WriteUvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteBool writes 1 for true and 0 for false.
func (e *Encoder) WriteBool(b bool) {
	var v byte
	if b {
		v = 1
	}
	e.buf = append(e.buf, v)
}

// WriteUint16 writes a big-endian uint16.
func (e *Encoder) WriteUint16(v uint16) { e.buf = binary.BigEndian.AppendUint16(e.buf, v) }

// WriteUint32 writes a big-endian uint32.
func (e *Encoder) WriteUint32(v uint32) { e.buf = binary.BigEndian.AppendUint32(e.buf, v) }

// WriteUint64 writes a big-endian uint64.
func (e *Encoder) WriteUint64(v uint64) { e.buf = binary.BigEndian.AppendUint64(e.buf, v) }

// WriteRecord writes whatever fn encodes as one length-prefixed record, so a
// reader can step over records it does not understand.
func (e *Encoder) WriteRecord(fn func(*Encoder)) {
	if e.scratch == nil {
		e.scratch = NewEncoder()
	}
	rec := e.scratch
	rec.Reset()
	fn(rec)
	e.WriteLenBytes(rec.buf)
}

// WriteStringMap writes m as a count followed by name/value pairs in name
// order, so equal maps always encode to equal bytes.
func (e *Encoder) WriteStringMap(m map[string]string) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	e.WriteUvarint(uint64(len(names)))
	for _, name := range names {
		e.WriteString(name)
		e.WriteString(m[name])
	}
}

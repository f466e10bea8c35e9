package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// Decoding errors. Short input always surfaces as io.ErrUnexpectedEOF.
var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
)

// Decoder reads wire values from a byte slice without copying it unless a
// method says otherwise.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a new decoder reading from buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining reports the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// take consumes the next n bytes.
func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || n > d.Remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUvarint reads an unsigned varint.
func (d *Decoder) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	switch {
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	d.pos += n
	return v, nil
}

// readLen reads a length prefix and checks it against both the unread input
// and DefaultMaxAllocation.
func (d *Decoder) readLen() (int, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(d.Remaining()) {
		return 0, io.ErrUnexpectedEOF
	}
	if n > DefaultMaxAllocation {
		return 0, ErrAllocationTooLarge
	}
	return int(n), nil
}

// ReadString reads a length-prefixed UTF-8 string.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.readLen()
	if err != nil {
		return "", err
	}
	b, _ := d.take(n)
	return string(b), nil
}

// ReadLenBytes reads a length-prefixed byte field. The result is a copy.
func (d *Decoder) ReadLenBytes() ([]byte, error) {
	n, err := d.readLen()
	if err != nil {
		return nil, err
	}
	b, _ := d.take(n)
	return append([]byte(nil), b...), nil
}

// ReadRecord returns a decoder over the next length-prefixed record and
// moves past it, whether or not the caller reads it.
func (d *Decoder) ReadRecord() (*Decoder, error) {
	n, err := d.readLen()
	if err != nil {
		return nil, err
	}
	b, _ := d.take(n)
	return NewDecoder(b), nil
}

// ReadBool reads a byte as a boolean. Any non-zero value is true.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	return b != 0, err
}

// ReadUint16 reads a big-endian uint16.
func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadUint32 reads a big-endian uint32.
func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadUint64 reads a big-endian uint64.
func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadCollectionCount reads an item count. Each item needs at least one
// byte, so a count above the unread input is rejected before allocating.
func (d *Decoder) ReadCollectionCount() (int, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if n > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	if n > uint64(d.Remaining()) {
		return 0, io.ErrUnexpectedEOF
	}
	return int(n), nil
}

// ReadStringMap reads a map written by WriteStringMap.
func (d *Decoder) ReadStringMap() (map[string]string, error) {
	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, n)
	for range n {
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		if m[name], err = d.ReadString(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

package protocol

import (
	"errors"
	"fmt"

	"github.com/vango-dev/pagebridge/pkg/change"
)

// Operand mask bits, in wire order.
const (
	opNodeID byte = 1 << iota
	opChildID
	opNewChildID
	opValue
	opTag
	opNamespace
	opAttrs
)

// ErrRecordOverrun is returned when a record's operands run past its length.
var ErrRecordOverrun = errors.New("protocol: record operands exceed record length")

// Batch is an ordered group of change records with a sequence number.
type Batch struct {
	Seq     uint64
	Changes []change.Change
}

// EncodeBatch encodes a Batch to bytes.
func EncodeBatch(b *Batch) []byte {
	e := NewEncoder()
	EncodeBatchTo(e, b)
	return e.Bytes()
}

// EncodeBatchTo encodes a Batch using the provided encoder. Each record
// travels length-prefixed.
func EncodeBatchTo(e *Encoder, b *Batch) {
	e.WriteUvarint(b.Seq)
	e.WriteUvarint(uint64(len(b.Changes)))
	for i := range b.Changes {
		c := &b.Changes[i]
		e.WriteRecord(func(rec *Encoder) { encodeRecord(rec, c) })
	}
}

// operands lists the optional string operands of c alongside their mask bit.
func operands(c *change.Change) []struct {
	bit byte
	val *string
} {
	return []struct {
		bit byte
		val *string
	}{
		{opNodeID, (*string)(&c.NodeID)},
		{opChildID, (*string)(&c.ChildID)},
		{opNewChildID, (*string)(&c.NewChildID)},
		{opValue, &c.Value},
		{opTag, &c.Tag},
		{opNamespace, &c.Namespace},
	}
}

func encodeRecord(e *Encoder, c *change.Change) {
	e.WriteString(string(c.Type))

	ops := operands(c)
	var mask byte
	for _, op := range ops {
		if *op.val != "" {
			mask |= op.bit
		}
	}
	if c.Attrs != nil {
		mask |= opAttrs
	}
	e.WriteByte(mask)

	for _, op := range ops {
		if mask&op.bit != 0 {
			e.WriteString(*op.val)
		}
	}
	if mask&opAttrs != 0 {
		e.WriteStringMap(c.Attrs)
	}
}

// DecodeBatch decodes a Batch from bytes.
func DecodeBatch(data []byte) (*Batch, error) {
	return DecodeBatchFrom(NewDecoder(data))
}

// DecodeBatchFrom decodes a Batch from a decoder. Records of a kind this
// package does not know are returned with their kind only, so the applier
// can report and skip them.
func DecodeBatchFrom(d *Decoder) (*Batch, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	b := &Batch{Seq: seq, Changes: make([]change.Change, 0, count)}
	for i := 0; i < count; i++ {
		rec, err := d.ReadRecord()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		c, err := decodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		b.Changes = append(b.Changes, c)
	}
	return b, nil
}

func decodeRecord(d *Decoder) (change.Change, error) {
	kind, err := d.ReadString()
	if err != nil {
		return change.Change{}, err
	}
	c := change.Change{Type: change.Kind(kind)}
	if !c.Type.Known() {
		return c, nil
	}

	mask, err := d.ReadByte()
	if err != nil {
		return c, err
	}

	for _, op := range operands(&c) {
		if mask&op.bit == 0 {
			continue
		}
		if *op.val, err = d.ReadString(); err != nil {
			return c, ErrRecordOverrun
		}
	}

	if mask&opAttrs != 0 {
		if c.Attrs, err = d.ReadStringMap(); err != nil {
			if errors.Is(err, ErrCollectionTooLarge) {
				return c, err
			}
			return c, ErrRecordOverrun
		}
	}
	return c, nil
}

package protocol

// Ack tells the host the page applied a change batch. Applied counts the
// records of that batch that took effect before any violation.
type Ack struct {
	LastSeq uint64
	Applied uint64
}

// EncodeAck encodes an Ack to bytes.
func EncodeAck(ack *Ack) []byte {
	e := NewEncoder()
	EncodeAckTo(e, ack)
	return e.Bytes()
}

// EncodeAckTo encodes an Ack using the provided encoder.
func EncodeAckTo(e *Encoder, ack *Ack) {
	e.WriteUvarint(ack.LastSeq)
	e.WriteUvarint(ack.Applied)
}

// DecodeAck decodes an Ack from bytes.
func DecodeAck(data []byte) (*Ack, error) {
	return DecodeAckFrom(NewDecoder(data))
}

// DecodeAckFrom decodes an Ack from a decoder.
func DecodeAckFrom(d *Decoder) (*Ack, error) {
	var ack Ack
	for _, dst := range []*uint64{&ack.LastSeq, &ack.Applied} {
		v, err := d.ReadUvarint()
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	return &ack, nil
}

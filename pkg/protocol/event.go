package protocol

// Event is a normalized DOM event on its way to the host.
type Event struct {
	Seq      uint64 // Page-assigned sequence number
	Envelope []byte // JSON envelope as handed to the host
	Sidecar  []byte // JSON of the side-channel values, empty when none
}

// EncodeEvent encodes an Event to bytes.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	EncodeEventTo(e, ev)
	return e.Bytes()
}

// EncodeEventTo encodes an Event using the provided encoder.
func EncodeEventTo(e *Encoder, ev *Event) {
	e.WriteUvarint(ev.Seq)
	e.WriteLenBytes(ev.Envelope)
	e.WriteLenBytes(ev.Sidecar)
}

// DecodeEvent decodes an Event from bytes.
func DecodeEvent(data []byte) (*Event, error) {
	return DecodeEventFrom(NewDecoder(data))
}

// DecodeEventFrom decodes an Event from a decoder.
func DecodeEventFrom(d *Decoder) (*Event, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	envelope, err := d.ReadLenBytes()
	if err != nil {
		return nil, err
	}
	sidecar, err := d.ReadLenBytes()
	if err != nil {
		return nil, err
	}
	if len(sidecar) == 0 {
		sidecar = nil
	}
	return &Event{Seq: seq, Envelope: envelope, Sidecar: sidecar}, nil
}

package protocol

// ControlType identifies the type of control message.
type ControlType uint8

const (
	ControlPing  ControlType = 0x01
	ControlPong  ControlType = 0x02
	ControlClose ControlType = 0x20
)

// String returns the name of the control type.
func (ct ControlType) String() string {
	return lookupName(controlNames, ct)
}

var controlNames = map[ControlType]string{
	ControlPing:  "Ping",
	ControlPong:  "Pong",
	ControlClose: "Close",
}

// CloseReason says why a session ended.
type CloseReason uint8

const (
	CloseNormal         CloseReason = 0x00
	CloseGoingAway      CloseReason = 0x01 // the page is navigating away
	CloseServerShutdown CloseReason = 0x03
	CloseError          CloseReason = 0x04
)

var closeReasonNames = map[CloseReason]string{
	CloseNormal:         "Normal",
	CloseGoingAway:      "GoingAway",
	CloseServerShutdown: "ServerShutdown",
	CloseError:          "Error",
}

// String returns the name of the close reason.
func (cr CloseReason) String() string {
	return lookupName(closeReasonNames, cr)
}

// lookupName returns names[k], or "Unknown" for values missing from names.
func lookupName[K comparable](names map[K]string, k K) string {
	if name, ok := names[k]; ok {
		return name
	}
	return "Unknown"
}

// Control is a control message. Timestamp is set for ping and pong, Reason
// and Message for close.
type Control struct {
	Type      ControlType
	Timestamp uint64 // Unix timestamp in milliseconds
	Reason    CloseReason
	Message   string
}

// NewPing creates a Ping message.
func NewPing(timestamp uint64) *Control {
	return &Control{Type: ControlPing, Timestamp: timestamp}
}

// NewPong creates the Pong answering ping.
func NewPong(ping *Control) *Control {
	return &Control{Type: ControlPong, Timestamp: ping.Timestamp}
}

// NewClose creates a Close message.
func NewClose(reason CloseReason, message string) *Control {
	return &Control{Type: ControlClose, Reason: reason, Message: message}
}

// EncodeControl encodes a control message to bytes.
func EncodeControl(c *Control) []byte {
	e := NewEncoder()
	EncodeControlTo(e, c)
	return e.Bytes()
}

// EncodeControlTo encodes a control message using the provided encoder.
func EncodeControlTo(e *Encoder, c *Control) {
	e.WriteByte(byte(c.Type))

	switch c.Type {
	case ControlPing, ControlPong:
		e.WriteUint64(c.Timestamp)
	case ControlClose:
		e.WriteByte(byte(c.Reason))
		e.WriteString(c.Message)
	}
}

// DecodeControl decodes a control message from bytes.
func DecodeControl(data []byte) (*Control, error) {
	return DecodeControlFrom(NewDecoder(data))
}

// DecodeControlFrom decodes a control message from a decoder. Unknown
// control types decode to a Control with only the type set.
func DecodeControlFrom(d *Decoder) (*Control, error) {
	typeByte, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	c := &Control{Type: ControlType(typeByte)}

	switch c.Type {
	case ControlPing, ControlPong:
		if c.Timestamp, err = d.ReadUint64(); err != nil {
			return nil, err
		}

	case ControlClose:
		reason, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		c.Reason = CloseReason(reason)
		if c.Message, err = d.ReadString(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

package protocol

import "fmt"

// ErrorCode classifies an error frame.
type ErrorCode uint16

// Error codes carried by error frames.
const (
	ErrUnknown        ErrorCode = 0x0000
	ErrInvalidFrame   ErrorCode = 0x0001
	ErrInvalidEvent   ErrorCode = 0x0002
	ErrInvalidBatch   ErrorCode = 0x0003
	ErrViolation      ErrorCode = 0x0004 // a batch broke the change protocol
	ErrSessionExpired ErrorCode = 0x0005
	ErrRateLimited    ErrorCode = 0x0006
	ErrServerError    ErrorCode = 0x0100
)

var errorCodeNames = map[ErrorCode]string{
	ErrInvalidFrame:   "InvalidFrame",
	ErrInvalidEvent:   "InvalidEvent",
	ErrInvalidBatch:   "InvalidBatch",
	ErrViolation:      "Violation",
	ErrSessionExpired: "SessionExpired",
	ErrRateLimited:    "RateLimited",
	ErrServerError:    "ServerError",
}

// String returns the name of the error code.
func (ec ErrorCode) String() string {
	return lookupName(errorCodeNames, ec)
}

// ErrorMessage is the payload of an error frame. Either side may send one;
// a fatal error ends the session.
type ErrorMessage struct {
	Code    ErrorCode
	Ref     string // registered error code such as "E060", if any
	Message string
	Fatal   bool
}

// NewError creates a non-fatal error message.
func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message}
}

// NewFatalError creates an error message that ends the session.
func NewFatalError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message, Fatal: true}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	label := em.Code.String()
	if em.Ref != "" {
		label = fmt.Sprintf("%s [%s]", label, em.Ref)
	}
	msg := label + ": " + em.Message
	if em.Fatal {
		msg = "fatal: " + msg
	}
	return msg
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	EncodeErrorMessageTo(e, em)
	return e.Bytes()
}

// EncodeErrorMessageTo encodes an ErrorMessage using the provided encoder.
func EncodeErrorMessageTo(e *Encoder, em *ErrorMessage) {
	e.WriteUint16(uint16(em.Code))
	e.WriteString(em.Ref)
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	return DecodeErrorMessageFrom(NewDecoder(data))
}

// DecodeErrorMessageFrom reads an ErrorMessage. Any non-zero fatal byte
// counts as true.
func DecodeErrorMessageFrom(d *Decoder) (*ErrorMessage, error) {
	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}
	em := &ErrorMessage{Code: ErrorCode(code)}
	if em.Ref, err = d.ReadString(); err != nil {
		return nil, err
	}
	if em.Message, err = d.ReadString(); err != nil {
		return nil, err
	}
	if em.Fatal, err = d.ReadBool(); err != nil {
		return nil, err
	}
	return em, nil
}

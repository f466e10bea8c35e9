package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryProtocol Category = "protocol"
	CategoryEvent    Category = "event"
	CategoryCache    Category = "cache"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// BridgeError is an error carrying a registered code. Index is the batch
// position of the record that failed, or -1 when no record is involved.
type BridgeError struct {
	Code       string // e.g. "E060"
	Category   Category
	Message    string
	Detail     string
	Index      int
	Suggestion string
	DocURL     string
	Wrapped    error
}

// Error implements the error interface.
func (e *BridgeError) Error() string {
	msg := e.Message
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *BridgeError) Unwrap() error {
	return e.Wrapped
}

// Fatal reports whether the error must stop further processing of the
// change stream.
func (e *BridgeError) Fatal() bool {
	return e.Category == CategoryProtocol
}

// WithIndex records the batch position of the record that failed.
func (e *BridgeError) WithIndex(i int) *BridgeError {
	e.Index = i
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *BridgeError) WithSuggestion(s string) *BridgeError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *BridgeError) WithDetail(d string) *BridgeError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detailed explanation to the error.
func (e *BridgeError) WithDetailf(format string, args ...any) *BridgeError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *BridgeError) Wrap(err error) *BridgeError {
	e.Wrapped = err
	return e
}

// New returns a BridgeError for a registered code. Unregistered codes keep
// the code with a generic message.
func New(code string) *BridgeError {
	if t, ok := registry[code]; ok {
		return t.instantiate(code)
	}
	return &BridgeError{Code: code, Message: "Unknown error", Index: -1}
}

// Newf returns an uncoded BridgeError in the given category.
func Newf(category Category, format string, args ...any) *BridgeError {
	return &BridgeError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Index:    -1,
	}
}

// FromError returns the BridgeError in err's chain, or wraps err under code.
func FromError(err error, code string) *BridgeError {
	if err == nil {
		return nil
	}
	var be *BridgeError
	if stderrors.As(err, &be) {
		return be
	}
	return New(code).Wrap(err)
}

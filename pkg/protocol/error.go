package protocol

import (
	"errors"
	"fmt"
)

// Decode errors.
var (
	ErrInvalidAlias    = errors.New("protocol: invalid alias")
	ErrInvalidEnvelope = errors.New("protocol: invalid envelope")
	ErrMissingField    = errors.New("protocol: missing field")
	ErrShortBinary     = errors.New("protocol: binary message shorter than alias")
	ErrInvalidPayload  = errors.New("protocol: payload is not valid JSON")
)

// DecodeError records which decoding step failed.
type DecodeError struct {
	Op  string // e.g. "envelope", "announcement", "binary"
	Err error
}

// Error returns the error message.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeError(op string, err error) error {
	return &DecodeError{Op: op, Err: err}
}

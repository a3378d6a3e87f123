package opentherm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHex is returned when a value is not a base-16 number.
	ErrInvalidHex = errors.New("invalid hexadecimal value")

	// ErrOutOfRange is returned when a value does not fit in 16 bits.
	ErrOutOfRange = errors.New("value exceeds 16 bits")

	// ErrUnknownKey is returned for message keys outside KnownKeys.
	ErrUnknownKey = errors.New("unknown message key")

	// ErrUnknownEncoding is returned when no decoder is registered for a kind.
	ErrUnknownEncoding = errors.New("unknown encoding kind")
)

// DecodeError describes a value that could not be decoded.
type DecodeError struct {
	Kind  EncodingKind
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %q: %v", e.Kind, e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

package message

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedField marks a single field that could not be decoded.
	ErrMalformedField = errors.New("malformed field")

	// ErrMalformedMessage is returned when a payload does not have the
	// {"key": ["value"]} shape.
	ErrMalformedMessage = errors.New("malformed message")
)

// FieldError reports a field that fell back to its default.
type FieldError struct {
	Key   string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s (%q): %v", e.Key, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedField) match any FieldError.
func (e *FieldError) Is(target error) bool {
	return target == ErrMalformedField
}

// FieldErrors returns the field errors joined into err.
func FieldErrors(err error) []*FieldError {
	if err == nil {
		return nil
	}
	var out []*FieldError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, FieldErrors(e)...)
		}
		return out
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		out = append(out, fe)
	}
	return out
}

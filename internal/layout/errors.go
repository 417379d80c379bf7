// internal/layout/errors.go
package layout

import (
	"errors"
	"fmt"
)

// ErrDecode is returned when a payload matches no known layout or is truncated.
var ErrDecode = errors.New("decode error")

// DecodeError describes a failed decode.
type DecodeError struct {
	Kind   Kind
	Length int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s (%d bytes): %v", e.Kind, e.Length, e.Err)
	}
	return fmt.Sprintf("decode %s: unexpected length %d", e.Kind, e.Length)
}

// Unwrap makes errors.Is(err, ErrDecode) hold for every DecodeError.
func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDecode, e.Err}
	}
	return []error{ErrDecode}
}

func decodeErr(kind Kind, length int, err error) error {
	return &DecodeError{Kind: kind, Length: length, Err: err}
}

package board

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange indicates a coordinate outside of the 8x8 matrix.
	ErrOutOfRange = errors.New("coordinate out of range")
	// ErrBadNotation indicates a square or move string can't be parsed.
	ErrBadNotation = errors.New("bad notation")
)

// ByteError reports a link byte which doesn't decode to a coordinate.
type ByteError struct {
	Byte byte
}

// Error implements error.
func (e *ByteError) Error() string {
	return fmt.Sprintf("byte 0x%02x is not a coordinate", e.Byte)
}

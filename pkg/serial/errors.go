package serial

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueFull indicates a byte was dropped as the transmit queue is full.
	ErrQueueFull = errors.New("transmit queue full")
	// ErrNoConn indicates the Stream has neither Conn nor Dial.
	ErrNoConn = errors.New("no connection")
)

// UnsupportedSchemeError is returned by Open for unknown schemes.
type UnsupportedSchemeError struct {
	Scheme string
}

// Error implements error.
func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported serial scheme %q", e.Scheme)
}

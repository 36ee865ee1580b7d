package host

import "errors"

var (
	// ErrTimeout indicates no move was read in time.
	ErrTimeout = errors.New("timeout waiting for move")
	// ErrResigned is returned by ReadTurn when the player resigned.
	ErrResigned = errors.New("player resigned")
)

package link

import "errors"

var (
	// ErrLinkDown indicates the peer never acknowledged a Start.
	ErrLinkDown = errors.New("link down")
	// ErrNoMove indicates Repeat was requested before any move was sent.
	ErrNoMove = errors.New("no move to repeat")
	// ErrBusy indicates a transmit session is in progress.
	ErrBusy = errors.New("transmit session in progress")
	// ErrNotSignal indicates the byte can't be sent as a signal.
	ErrNotSignal = errors.New("not a signal code")
)

// Package hal defines the devices the board core drives. Implementations
// live outside the core: real pins on a microcontroller, or simulations.
package hal

import "time"

// Display lights the cells at the intersection of the column and row masks.
type Display interface {
	Render(columnMask, rowMask uint8)
	Blank()
}

// EdgeHandler is notified when a key closes on a row.
type EdgeHandler interface {
	HandleKeyEdge(row int)
}

// HandleKeyEdgeFunc is func form of EdgeHandler.
type HandleKeyEdgeFunc func(row int)

// HandleKeyEdge implements EdgeHandler.
func (f HandleKeyEdgeFunc) HandleKeyEdge(row int) {
	f(row)
}

// Matrix is the button matrix I/O.
type Matrix interface {
	// SetEdgeHandler registers the key edge receiver.
	SetEdgeHandler(EdgeHandler)
	// ProbeColumn asserts one column and samples the row.
	ProbeColumn(row, column int) bool
	// DisableEdges suppresses edge notifications at the source.
	DisableEdges()
	// EnableEdges re-arms edge notifications.
	EnableEdges()
	// ClearEdges drops edges latched while disabled.
	ClearEdges()
}

// LinkHandler receives serial link notifications.
type LinkHandler interface {
	HandleByte(b byte)
	HandleTransmitReady()
}

// SerialLink is the half-duplex byte link to the peer board.
// Handlers are called from the driver's own goroutine, never from
// inside Send.
type SerialLink interface {
	SetHandler(LinkHandler)
	Send(b byte)
}

// Waker wakes the dispatch loop from deep sleep.
type Waker interface {
	Wake()
}

// WakeFunc is func form of Waker.
type WakeFunc func()

// Wake implements Waker.
func (f WakeFunc) Wake() {
	f()
}

// Timer is a one-shot timer which can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn after d.
type AfterFunc func(d time.Duration, fn func()) Timer

// RealAfterFunc is AfterFunc using time.AfterFunc.
func RealAfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

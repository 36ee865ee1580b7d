// Package haltest provides in-memory devices for tests.
package haltest

import (
	"sync"
	"time"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/hal"
)

// Frame is one Render call.
type Frame struct {
	ColumnMask uint8
	RowMask    uint8
}

// Blank is the frame recorded for Display.Blank.
var Blank = Frame{}

// FrameOf is the frame lighting c.
func FrameOf(c board.Coordinate) Frame {
	return Frame{ColumnMask: c.ColumnMask(), RowMask: c.RowMask()}
}

// Display records frames.
type Display struct {
	lock   sync.Mutex
	frames []Frame
}

// Render implements hal.Display.
func (d *Display) Render(columnMask, rowMask uint8) {
	d.lock.Lock()
	d.frames = append(d.frames, Frame{ColumnMask: columnMask, RowMask: rowMask})
	d.lock.Unlock()
}

// Blank implements hal.Display.
func (d *Display) Blank() {
	d.Render(0, 0)
}

// Frames returns a copy of recorded frames.
func (d *Display) Frames() []Frame {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]Frame(nil), d.frames...)
}

// Last returns the last frame.
func (d *Display) Last() (Frame, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if len(d.frames) == 0 {
		return Frame{}, false
	}
	return d.frames[len(d.frames)-1], true
}

// Reset clears frames.
func (d *Display) Reset() {
	d.lock.Lock()
	d.frames = nil
	d.lock.Unlock()
}

// Matrix is a scripted button matrix. Press delivers an edge
// synchronously when edges are enabled.
type Matrix struct {
	lock     sync.Mutex
	handler  hal.EdgeHandler
	held     map[board.Coordinate]bool
	disabled bool
	latched  bool
	Probes   int
}

// NewMatrix creates a Matrix with edges enabled.
func NewMatrix() *Matrix {
	return &Matrix{held: make(map[board.Coordinate]bool)}
}

// SetEdgeHandler implements hal.Matrix.
func (m *Matrix) SetEdgeHandler(h hal.EdgeHandler) {
	m.lock.Lock()
	m.handler = h
	m.lock.Unlock()
}

// ProbeColumn implements hal.Matrix.
func (m *Matrix) ProbeColumn(row, column int) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.Probes++
	return m.held[board.At(row, column)]
}

// DisableEdges implements hal.Matrix.
func (m *Matrix) DisableEdges() {
	m.lock.Lock()
	m.disabled = true
	m.lock.Unlock()
}

// EnableEdges implements hal.Matrix.
func (m *Matrix) EnableEdges() {
	m.lock.Lock()
	m.disabled = false
	m.lock.Unlock()
}

// ClearEdges implements hal.Matrix.
func (m *Matrix) ClearEdges() {
	m.lock.Lock()
	m.latched = false
	m.lock.Unlock()
}

// EdgesEnabled reports whether edges are delivered.
func (m *Matrix) EdgesEnabled() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return !m.disabled
}

// Press holds c down, fires the row edge if enabled and releases it.
// It reports whether the edge was delivered.
func (m *Matrix) Press(c board.Coordinate) bool {
	return m.PressRow(c.Row(), c)
}

// PressRow fires an edge on row while c is held; a coordinate on another
// row simulates a key released before the scan.
func (m *Matrix) PressRow(row int, c board.Coordinate) bool {
	m.lock.Lock()
	h := m.handler
	if m.disabled || h == nil {
		m.latched = true
		m.lock.Unlock()
		return false
	}
	m.held[c] = true
	m.lock.Unlock()
	h.HandleKeyEdge(row)
	m.lock.Lock()
	delete(m.held, c)
	m.lock.Unlock()
	return true
}

// Link records sent bytes. Notifications are delivered only when the
// test calls TransmitReady or Receive.
type Link struct {
	lock    sync.Mutex
	handler hal.LinkHandler
	sent    []byte
}

// SetHandler implements hal.SerialLink.
func (l *Link) SetHandler(h hal.LinkHandler) {
	l.lock.Lock()
	l.handler = h
	l.lock.Unlock()
}

// Send implements hal.SerialLink.
func (l *Link) Send(b byte) {
	l.lock.Lock()
	l.sent = append(l.sent, b)
	l.lock.Unlock()
}

// Sent returns and clears the bytes sent so far.
func (l *Link) Sent() []byte {
	l.lock.Lock()
	defer l.lock.Unlock()
	sent := l.sent
	l.sent = nil
	return sent
}

// TransmitReady delivers a transmit-ready notification.
func (l *Link) TransmitReady() {
	l.lock.Lock()
	h := l.handler
	l.lock.Unlock()
	h.HandleTransmitReady()
}

// Receive delivers bytes from the peer.
func (l *Link) Receive(bs ...byte) {
	l.lock.Lock()
	h := l.handler
	l.lock.Unlock()
	for _, b := range bs {
		h.HandleByte(b)
	}
}

// Waker counts wake signals.
type Waker struct {
	lock  sync.Mutex
	count int
}

// Wake implements hal.Waker.
func (w *Waker) Wake() {
	w.lock.Lock()
	w.count++
	w.lock.Unlock()
}

// Count returns and clears the number of wakes.
func (w *Waker) Count() int {
	w.lock.Lock()
	defer w.lock.Unlock()
	n := w.count
	w.count = 0
	return n
}

// Timers is a manual hal.AfterFunc.
type Timers struct {
	lock    sync.Mutex
	pending []*Timer
}

// Timer is a manual timer.
type Timer struct {
	Duration time.Duration
	fn       func()
	owner    *Timers
	stopped  bool
	fired    bool
}

// AfterFunc implements hal.AfterFunc.
func (ts *Timers) AfterFunc(d time.Duration, fn func()) hal.Timer {
	t := &Timer{Duration: d, fn: fn, owner: ts}
	ts.lock.Lock()
	ts.pending = append(ts.pending, t)
	ts.lock.Unlock()
	return t
}

// Stop implements hal.Timer.
func (t *Timer) Stop() bool {
	t.owner.lock.Lock()
	defer t.owner.lock.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Last returns the most recently armed timer, nil if none.
func (ts *Timers) Last() *Timer {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	if len(ts.pending) == 0 {
		return nil
	}
	return ts.pending[len(ts.pending)-1]
}

// Fire fires t if it is still armed and reports whether it fired.
func (t *Timer) Fire() bool {
	t.owner.lock.Lock()
	if t.stopped || t.fired {
		t.owner.lock.Unlock()
		return false
	}
	t.fired = true
	t.owner.lock.Unlock()
	t.fn()
	return true
}

// Pending returns the number of armed timers.
func (ts *Timers) Pending() int {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	n := 0
	for _, t := range ts.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// FireAll fires every armed timer, returns how many fired.
func (ts *Timers) FireAll() int {
	ts.lock.Lock()
	var fire []*Timer
	for _, t := range ts.pending {
		if !t.stopped && !t.fired {
			t.fired = true
			fire = append(fire, t)
		}
	}
	ts.pending = nil
	ts.lock.Unlock()
	for _, t := range fire {
		t.fn()
	}
	return len(fire)
}

// Package scanner decodes key edges from the button matrix into
// coordinates and assembles them into moves.
package scanner

import (
	"github.com/golang/glog"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/hal"
)

// MoveSender takes a completed local move, e.g. the link transmitter.
type MoveSender interface {
	SendMove(board.Move)
}

// RateSetter reprograms the blink rate.
type RateSetter interface {
	SetRate(board.BlinkRate)
}

// Scanner handles row edges from the Matrix. It owns the Matrix.
type Scanner struct {
	Matrix   hal.Matrix
	Debounce *Debouncer
	Sender   MoveSender
	Rate     RateSetter
	Power    *board.Power
	Waker    hal.Waker
	// OnPress is called with each decoded coordinate, optional.
	OnPress func(board.Coordinate)

	pending board.PendingMove
}

// New creates a Scanner and registers it with the Matrix.
func New(m hal.Matrix, sender MoveSender) *Scanner {
	s := &Scanner{
		Matrix:   m,
		Debounce: NewDebouncer(m),
		Sender:   sender,
	}
	m.SetEdgeHandler(s)
	return s
}

// HandleKeyEdge implements hal.EdgeHandler.
func (s *Scanner) HandleKeyEdge(row int) {
	if row < 0 || row >= board.Size {
		glog.Warningf("key edge on invalid row %d", row)
		return
	}
	if !s.Debounce.Enter() {
		return
	}
	c := s.Scan(row)
	glog.V(2).Infof("key %s", c)
	if fn := s.OnPress; fn != nil {
		fn(c)
	}
	if m, done := s.pending.Add(c); done && s.Sender != nil {
		s.Sender.SendMove(m)
	}
	s.Debounce.Arm()
	if s.Rate != nil {
		s.Rate.SetRate(board.BlinkNormal)
	}
	if s.Power != nil {
		s.Power.SetOn()
	}
	if s.Waker != nil {
		s.Waker.Wake()
	}
}

// Scan probes the columns of row one at a time. The first column which
// reads closed wins; if none does (bounce, or the key was released
// before the scan) column 0 is assumed.
func (s *Scanner) Scan(row int) board.Coordinate {
	for col := 0; col < board.Size; col++ {
		if s.Matrix.ProbeColumn(row, col) {
			return board.At(row, col)
		}
	}
	return board.At(row, 0)
}

package link

import "github.com/robotalks/twinboard/pkg/board"

// RxState is the state of the receive session.
type RxState int

// Receive states.
const (
	RxIdle RxState = iota
	RxAwaitingFirstByte
	RxAwaitingSecondByte
)

func (s RxState) String() string {
	switch s {
	case RxAwaitingFirstByte:
		return "awaiting-first"
	case RxAwaitingSecondByte:
		return "awaiting-second"
	}
	return "idle"
}

// RxEvent is what one received byte means to the board.
type RxEvent int

// Receive events.
const (
	// RxNone: byte consumed, nothing to do.
	RxNone RxEvent = iota
	// RxStart: peer announces a move with handshake, reply Ack.
	RxStart
	// RxAck: peer acknowledged our Start.
	RxAck
	// RxRepeat: peer asks to resend our last move.
	RxRepeat
	// RxAnnounce: two coordinates follow without handshake.
	RxAnnounce
	// RxFirst: the first coordinate was accepted.
	RxFirst
	// RxMove: a move was completed.
	RxMove
	// RxPowerOff: blank the display and sleep.
	RxPowerOff
	// RxBlink: blink rate signal.
	RxBlink
	// RxRejected: the byte broke the session, which returned to idle.
	RxRejected
	// RxIgnored: unexpected byte outside a session.
	RxIgnored
)

// RxResult is the result after one receive step.
type RxResult struct {
	Event RxEvent
	Move  board.Move
	Rate  board.BlinkRate
	Byte  byte
}

// Receiver is the receive state machine. It does no I/O.
type Receiver struct {
	state RxState
	first board.Coordinate
}

// State returns the receive state.
func (r *Receiver) State() RxState {
	return r.state
}

// Receive consumes one byte, bit 7 is ignored.
func (r *Receiver) Receive(b byte) (res RxResult) {
	b &^= 0x80
	if !IsControl(b) {
		return r.receiveData(b)
	}
	res.Byte = b
	switch b {
	case CodeStart:
		r.state = RxAwaitingFirstByte
		res.Event = RxStart
	case CodeMove:
		r.state = RxAwaitingFirstByte
		res.Event = RxAnnounce
	case CodeAck:
		res.Event = RxAck
	case CodeRepeat:
		res.Event = RxRepeat
	case CodePowerOff:
		res.Event = RxPowerOff
	case CodeDrawOffer, CodeInvalidMove:
		res.Event = RxBlink
		res.Rate, _ = RateOf(b)
	}
	return
}

// Rewind drops received data and waits for the first coordinate again.
// It is used after asking the peer to Repeat.
func (r *Receiver) Rewind() {
	r.state = RxAwaitingFirstByte
}

// Reset abandons any session.
func (r *Receiver) Reset() {
	r.state = RxIdle
}

func (r *Receiver) receiveData(b byte) (res RxResult) {
	res.Byte = b
	if r.state == RxIdle {
		res.Event = RxIgnored
		return
	}
	c, err := board.DecodeCoordinate(b)
	if err != nil {
		r.state = RxIdle
		res.Event = RxRejected
		return
	}
	if r.state == RxAwaitingFirstByte {
		r.first, r.state = c, RxAwaitingSecondByte
		res.Event = RxFirst
		return
	}
	r.state = RxIdle
	res.Event = RxMove
	res.Move = board.Move{From: r.first, To: c}
	return
}

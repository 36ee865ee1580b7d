package link

import "github.com/robotalks/twinboard/pkg/board"

// TxState is the state of the transmit session.
type TxState int

// Transmit states. In SendingByte0/1 the coordinate byte has been
// written and its transmit-ready confirms it.
const (
	TxIdle TxState = iota
	TxAwaitingAck
	TxSendingByte0
	TxSendingByte1
)

func (s TxState) String() string {
	switch s {
	case TxAwaitingAck:
		return "awaiting-ack"
	case TxSendingByte0:
		return "sending-0"
	case TxSendingByte1:
		return "sending-1"
	}
	return "idle"
}

// TxAction tells the link what to do after a transmit step.
type TxAction int

// Transmit actions.
const (
	// TxNothing: leave the line alone.
	TxNothing TxAction = iota
	// TxWrite: write TxResult.Byte.
	TxWrite
	// TxRetry: Start unacknowledged, resend it (now or after a pause).
	TxRetry
	// TxGiveUp: too many unacknowledged Starts, session abandoned.
	TxGiveUp
)

// TxResult is the result after one transmit step.
type TxResult struct {
	Action TxAction
	Byte   byte
	// Done is set when the second coordinate was confirmed sent.
	Done bool
}

// Transmitter is the transmit state machine. It does no I/O.
type Transmitter struct {
	// MaxAttempts bounds Starts per session, 0 for unbounded.
	MaxAttempts int

	state    TxState
	move     board.Move
	cached   bool
	acked    bool
	attempts int
}

// State returns the transmit state.
func (t *Transmitter) State() TxState {
	return t.state
}

// Move returns the cached move, if any.
func (t *Transmitter) Move() (board.Move, bool) {
	return t.move, t.cached
}

// Attempts returns the Starts sent in the current session.
func (t *Transmitter) Attempts() int {
	return t.attempts
}

// Begin opens a session for m, replacing any session in progress.
func (t *Transmitter) Begin(m board.Move) TxResult {
	t.move, t.cached = m, true
	t.state, t.acked, t.attempts = TxAwaitingAck, false, 1
	return TxResult{Action: TxWrite, Byte: CodeStart}
}

// Acked records the peer's Ack.
func (t *Transmitter) Acked() {
	if t.state == TxAwaitingAck {
		t.acked = true
	}
}

// Repeat restarts the cached move from its first coordinate with the
// handshake already done.
func (t *Transmitter) Repeat() (TxResult, error) {
	if !t.cached {
		return TxResult{}, ErrNoMove
	}
	t.state, t.acked, t.attempts = TxSendingByte0, true, 0
	return TxResult{Action: TxWrite, Byte: t.move.From.Encode()}, nil
}

// Ready handles a transmit-ready notification.
func (t *Transmitter) Ready() TxResult {
	switch t.state {
	case TxAwaitingAck:
		if t.acked {
			return t.Resume()
		}
		if t.MaxAttempts > 0 && t.attempts >= t.MaxAttempts {
			t.state = TxIdle
			return TxResult{Action: TxGiveUp}
		}
		return TxResult{Action: TxRetry}
	case TxSendingByte0:
		t.state = TxSendingByte1
		return TxResult{Action: TxWrite, Byte: t.move.To.Encode()}
	case TxSendingByte1:
		t.state = TxIdle
		return TxResult{Done: true}
	}
	return TxResult{}
}

// Resume is the deferred half of a TxRetry: it writes Start again, or the
// first coordinate if the Ack arrived meanwhile.
func (t *Transmitter) Resume() TxResult {
	if t.state != TxAwaitingAck {
		return TxResult{}
	}
	if t.acked {
		t.state = TxSendingByte0
		return TxResult{Action: TxWrite, Byte: t.move.From.Encode()}
	}
	t.attempts++
	return TxResult{Action: TxWrite, Byte: CodeStart}
}

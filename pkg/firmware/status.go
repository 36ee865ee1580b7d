package firmware

import (
	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/link"
)

// Status is a snapshot of the board.
type Status struct {
	ID           string
	Pair         board.LedPair
	Rate         board.BlinkRate
	Power        board.DisplayPower
	Asleep       bool
	LinkState    link.State
	TxState      link.TxState
	RxState      link.RxState
	Stats        link.Stats
	PendingMoves int
}

// Status returns the current Status.
func (b *Board) Status() Status {
	return Status{
		ID:           b.Config.ID,
		Pair:         b.Display.Pair(),
		Rate:         b.Display.Rate(),
		Power:        b.Power.Get(),
		Asleep:       b.Loop.Asleep(),
		LinkState:    b.Link.State(),
		TxState:      b.Link.TxState(),
		RxState:      b.Link.RxState(),
		Stats:        b.Link.Stats(),
		PendingMoves: b.Loop.PendingMessages(),
	}
}

package host

import (
	"context"

	"github.com/robotalks/twinboard/pkg/board"
)

// Turn is what the player did on the board in one turn.
type Turn struct {
	Move board.Move
	// DrawOffered is set when the player pressed the same square on the
	// second or seventh rank twice before entering the move.
	DrawOffered bool
}

// ReadTurn reads a move and interprets the gestures: the same square
// twice on the first or eighth rank resigns (ErrResigned), on the second
// or seventh rank offers a draw along with the following move.
func (p *Peer) ReadTurn(ctx context.Context) (Turn, error) {
	var turn Turn
	for {
		m, err := p.ReadMove(ctx)
		if err != nil {
			return turn, err
		}
		switch {
		case m.IsResignGesture():
			return Turn{Move: m}, ErrResigned
		case m.IsDrawGesture() && !turn.DrawOffered:
			turn.DrawOffered = true
			continue
		}
		turn.Move = m
		return turn, nil
	}
}

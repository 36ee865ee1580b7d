// Package host is the computer side of a board: it reads the player's
// moves from the board and shows the opponent's moves on it, speaking
// the same link protocol as a peer board.
package host

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/link"
	"github.com/robotalks/twinboard/pkg/serial"
)

// DefaultRepeatAfter is how long the host waits for coordinates before
// asking the board to repeat.
const DefaultRepeatAfter = 100 * time.Millisecond

// Peer talks to one board.
type Peer struct {
	Link   *link.Link
	Driver serial.Driver

	moves chan board.Move
}

// New creates a Peer over a serial driver.
func New(d serial.Driver) *Peer {
	p := &Peer{Driver: d, moves: make(chan board.Move, 8)}
	p.Link = link.New(d)
	p.Link.RepeatAfter = DefaultRepeatAfter
	p.Link.MaxRepeats = 50
	p.Link.Moves = p
	return p
}

// Run implements framework.Runnable.
func (p *Peer) Run(ctx context.Context) error {
	return p.Driver.Run(ctx)
}

// ReceiveMove implements link.MoveReceiver. When too many moves are
// unread the oldest is dropped.
func (p *Peer) ReceiveMove(m board.Move) {
	for {
		select {
		case p.moves <- m:
			return
		default:
		}
		select {
		case old := <-p.moves:
			glog.Warningf("move %s replaced before read", old)
		default:
		}
	}
}

// ReadMove waits for the player to enter a move on the board.
func (p *Peer) ReadMove(ctx context.Context) (board.Move, error) {
	select {
	case <-ctx.Done():
		return board.Move{}, ctx.Err()
	case m := <-p.moves:
		return m, nil
	}
}

// ReadMoveTimeout is ReadMove with ErrTimeout after d.
func (p *Peer) ReadMoveTimeout(d time.Duration) (board.Move, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	m, err := p.ReadMove(ctx)
	if err == context.DeadlineExceeded {
		err = ErrTimeout
	}
	return m, err
}

// ShowMove lights the opponent's move on the board.
func (p *Peer) ShowMove(m board.Move) error {
	return p.Link.AnnounceMove(m)
}

// OfferDraw makes the board blink slowly.
func (p *Peer) OfferDraw() error {
	return p.Link.SendSignal(link.CodeDrawOffer)
}

// InvalidMove makes the board blink fast; the player enters the move again.
func (p *Peer) InvalidMove() error {
	return p.Link.SendSignal(link.CodeInvalidMove)
}

// PowerOff blanks the board.
func (p *Peer) PowerOff() error {
	return p.Link.SendSignal(link.CodePowerOff)
}

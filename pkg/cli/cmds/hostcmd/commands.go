// Package hostcmd provides shell commands for the computer side of a board.
package hostcmd

import (
	"context"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/cli/sh"
	"github.com/robotalks/twinboard/pkg/host"
)

// DefaultReadTimeout bounds read commands without a timeout argument.
const DefaultReadTimeout = time.Minute

// MustBePeer wraps command func requires a host peer target.
func MustBePeer(fn func(c *ishell.Context, p *host.Peer)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		p, ok := sh.ShellFrom(c).Target.(*host.Peer)
		if !ok {
			c.Err(sh.ErrNoTarget)
			return
		}
		fn(c, p)
	}
}

func readTimeout(args []string) (time.Duration, error) {
	if len(args) == 0 {
		return DefaultReadTimeout, nil
	}
	return time.ParseDuration(args[0])
}

type moveOutput struct {
	Move        string `json:"move"`
	DrawOffered bool   `json:"draw_offered,omitempty"`
	Resigned    bool   `json:"resigned,omitempty"`
}

var (
	// ReadCmd waits for a move entered on the board.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"rd"},
		Help:    "[TIMEOUT]",
		Func: MustBePeer(func(c *ishell.Context, p *host.Peer) {
			d, err := readTimeout(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			m, err := p.ReadMoveTimeout(d)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, moveOutput{Move: m.String()}, m.String())
		}),
	}

	// TurnCmd waits for a move and interprets the gestures.
	TurnCmd = ishell.Cmd{
		Name:    "turn",
		Aliases: []string{"t"},
		Help:    "[TIMEOUT]",
		Func: MustBePeer(func(c *ishell.Context, p *host.Peer) {
			d, err := readTimeout(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), d)
			defer cancel()
			turn, err := p.ReadTurn(ctx)
			out := moveOutput{Move: turn.Move.String(), DrawOffered: turn.DrawOffered}
			switch err {
			case nil:
			case host.ErrResigned:
				out.Resigned = true
			case context.DeadlineExceeded:
				c.Err(host.ErrTimeout)
				return
			default:
				c.Err(err)
				return
			}
			text := out.Move
			if out.DrawOffered {
				text += " draw offered"
			}
			if out.Resigned {
				text = "resigned"
			}
			sh.Output(c, out, text)
		}),
	}

	// ShowCmd lights the opponent's move on the board.
	ShowCmd = ishell.Cmd{
		Name:    "show",
		Aliases: []string{"s"},
		Help:    "MOVE",
		Func: MustBePeer(func(c *ishell.Context, p *host.Peer) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("move expected, e.g. e7e5"))
				return
			}
			m, err := board.ParseMove(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.Result(c, p.ShowMove(m))
		}),
	}

	// DrawCmd offers a draw.
	DrawCmd = ishell.Cmd{
		Name:    "draw",
		Aliases: []string{"d"},
		Help:    "",
		Func: MustBePeer(func(c *ishell.Context, p *host.Peer) {
			sh.Result(c, p.OfferDraw())
		}),
	}

	// InvalidCmd rejects the move just read.
	InvalidCmd = ishell.Cmd{
		Name:    "invalid",
		Aliases: []string{"i"},
		Help:    "",
		Func: MustBePeer(func(c *ishell.Context, p *host.Peer) {
			sh.Result(c, p.InvalidMove())
		}),
	}

	// PowerOffCmd blanks the board.
	PowerOffCmd = ishell.Cmd{
		Name:    "off",
		Aliases: []string{"o"},
		Help:    "",
		Func: MustBePeer(func(c *ishell.Context, p *host.Peer) {
			sh.Result(c, p.PowerOff())
		}),
	}

	// StatsCmd prints link counters.
	StatsCmd = ishell.Cmd{
		Name:    "stats",
		Help:    "",
		Func: MustBePeer(func(c *ishell.Context, p *host.Peer) {
			st := p.Link.Stats()
			sh.Output(c, st, fmt.Sprintf("link=%s sent=%d received=%d retries=%d repeats=%d rejected=%d",
				p.Link.State(), st.MovesSent, st.MovesReceived, st.StartRetries, st.RepeatsSent, st.Rejected))
		}),
	}
)

func init() {
	sh.AddCmds(
		&ReadCmd,
		&TurnCmd,
		&ShowCmd,
		&DrawCmd,
		&InvalidCmd,
		&PowerOffCmd,
		&StatsCmd,
	)
}

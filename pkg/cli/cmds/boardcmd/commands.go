// Package boardcmd provides shell commands operating a running board.
package boardcmd

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/cli/sh"
	"github.com/robotalks/twinboard/pkg/firmware"
	"github.com/robotalks/twinboard/pkg/link"
	"github.com/robotalks/twinboard/pkg/sim"
)

// Target is the shell target for board commands.
type Target struct {
	Board  *firmware.Board
	Matrix *sim.Matrix
}

// MustBeBoard wraps command func requires a board target.
func MustBeBoard(fn func(c *ishell.Context, t *Target)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		t, ok := sh.ShellFrom(c).Target.(*Target)
		if !ok {
			c.Err(sh.ErrNoTarget)
			return
		}
		fn(c, t)
	}
}

func signalCmd(name, alias, help string, code byte) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: []string{alias},
		Help:    help,
		Func: MustBeBoard(func(c *ishell.Context, t *Target) {
			sh.Result(c, t.Board.SendSignal(code))
		}),
	}
}

var (
	// PressCmd presses squares on the simulated matrix.
	PressCmd = ishell.Cmd{
		Name:    "press",
		Aliases: []string{"p"},
		Help:    "SQUARE...",
		Func: MustBeBoard(func(c *ishell.Context, t *Target) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("square expected"))
				return
			}
			for _, arg := range c.Args {
				sq, err := board.ParseCoordinate(arg)
				if err != nil {
					c.Err(fmt.Errorf("%q: %v", arg, err))
					return
				}
				t.Matrix.Press(sq)
			}
		}),
	}

	// StatusCmd prints the board status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: MustBeBoard(func(c *ishell.Context, t *Target) {
			st := t.Board.Status()
			sh.Output(c, st, FormatStatus(st))
		}),
	}

	// RepeatCmd asks the peer to resend its last move.
	RepeatCmd = ishell.Cmd{
		Name:    "repeat",
		Aliases: []string{"r"},
		Help:    "",
		Func: MustBeBoard(func(c *ishell.Context, t *Target) {
			t.Board.Link.RequestRepeat()
			sh.Result(c, nil)
		}),
	}

	// PowerOffCmd blanks the peer.
	PowerOffCmd = signalCmd("off", "o", "blank the peer display", link.CodePowerOff)
	// DrawCmd offers a draw on the peer.
	DrawCmd = signalCmd("draw", "d", "blink the peer slowly", link.CodeDrawOffer)
	// InvalidCmd rejects the peer's move.
	InvalidCmd = signalCmd("invalid", "i", "blink the peer fast", link.CodeInvalidMove)
)

// FormatStatus prints Status into friendly string for display.
func FormatStatus(st firmware.Status) string {
	return fmt.Sprintf("%s pair=%s rate=%s power=%s asleep=%v link=%s tx=%s rx=%s pending=%d sent=%d received=%d retries=%d rejected=%d",
		st.ID, st.Pair.Move(), st.Rate, st.Power, st.Asleep, st.LinkState, st.TxState, st.RxState,
		st.PendingMoves, st.Stats.MovesSent, st.Stats.MovesReceived, st.Stats.StartRetries, st.Stats.Rejected)
}

func init() {
	sh.AddCmds(
		&PressCmd,
		&StatusCmd,
		&RepeatCmd,
		&PowerOffCmd,
		&DrawCmd,
		&InvalidCmd,
	)
}

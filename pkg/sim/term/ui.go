// Package term renders a simulated board in a terminal using termbox.
package term

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/firmware"
	"github.com/robotalks/twinboard/pkg/sim"
)

// DefaultRefresh is the redraw interval.
const DefaultRefresh = 50 * time.Millisecond

// Board is what the UI needs from a running board.
type Board interface {
	Status() firmware.Status
	SendSignal(code byte) error
}

// UI draws the 8x8 matrix with the lit square and reads typed commands.
type UI struct {
	Board   Board
	Display *sim.Display
	Matrix  *sim.Matrix
	Refresh time.Duration

	input   []rune
	message string
}

// New creates a UI.
func New(b Board, d *sim.Display, m *sim.Matrix) *UI {
	return &UI{Board: b, Display: d, Matrix: m, Refresh: DefaultRefresh}
}

// Run implements framework.Runnable. It returns when ctx is done or the
// user quits.
func (u *UI) Run(ctx context.Context) error {
	if err := termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()

	events := make(chan termbox.Event)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				close(events)
				return
			}
			events <- ev
		}
	}()
	defer func() {
		termbox.Interrupt()
		for range events {
		}
	}()

	refresh := u.Refresh
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	u.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case ev := <-events:
			switch ev.Type {
			case termbox.EventError:
				return ev.Err
			case termbox.EventKey:
				if !u.handleKey(ev) {
					return nil
				}
			}
		}
		u.draw()
	}
}

func (u *UI) handleKey(ev termbox.Event) bool {
	switch ev.Key {
	case termbox.KeyEsc, termbox.KeyCtrlC:
		return false
	case termbox.KeyEnter:
		line := string(u.input)
		u.input = u.input[:0]
		return u.exec(line)
	case termbox.KeyBackspace, termbox.KeyBackspace2:
		if n := len(u.input); n > 0 {
			u.input = u.input[:n-1]
		}
	case termbox.KeySpace:
		u.input = append(u.input, ' ')
	default:
		if ev.Ch != 0 {
			u.input = append(u.input, ev.Ch)
		}
	}
	return true
}

func (u *UI) exec(line string) bool {
	cmd, err := ParseCommand(line)
	if err != nil {
		u.message = fmt.Sprintf("%q: %v", line, err)
		return true
	}
	switch cmd.Kind {
	case CmdQuit:
		return false
	case CmdPress:
		u.Matrix.Press(cmd.Square)
		u.message = "pressed " + cmd.Square.String()
	case CmdSignal:
		if err := u.Board.SendSignal(cmd.Code); err != nil {
			u.message = err.Error()
		} else {
			u.message = "sent " + line
		}
	default:
		u.message = ""
	}
	glog.V(1).Infof("input %q: %s", line, u.message)
	return true
}

const (
	gridX = 3
	gridY = 1
)

func (u *UI) draw() {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	st := u.Board.Status()
	lit, on := u.Display.Lit()
	pair := st.Pair.Move()

	for row := board.Size - 1; row >= 0; row-- {
		y := gridY + board.Size - 1 - row
		printAt(0, y, fmt.Sprintf("%d", row+1), termbox.ColorDefault)
		for col := 0; col < board.Size; col++ {
			c := board.At(row, col)
			ch, fg := '.', termbox.ColorDefault
			switch {
			case on && c == lit:
				ch, fg = '@', termbox.ColorRed|termbox.AttrBold
			case st.Power == board.PowerOn && (c == pair.From || c == pair.To):
				ch, fg = 'o', termbox.ColorYellow
			}
			termbox.SetCell(gridX+col*2, y, ch, fg, termbox.ColorDefault)
		}
	}
	for col := 0; col < board.Size; col++ {
		termbox.SetCell(gridX+col*2, gridY+board.Size, rune('a'+col), termbox.ColorDefault, termbox.ColorDefault)
	}

	y := gridY + board.Size + 2
	printAt(0, y, fmt.Sprintf("%s pair=%s rate=%s power=%s link=%s tx=%s rx=%s",
		st.ID, pair, st.Rate, st.Power, st.LinkState, st.TxState, st.RxState), termbox.ColorCyan)
	printAt(0, y+1, fmt.Sprintf("sent=%d recv=%d retries=%d rejected=%d",
		st.Stats.MovesSent, st.Stats.MovesReceived, st.Stats.StartRetries, st.Stats.Rejected), termbox.ColorDefault)
	printAt(0, y+2, u.message, termbox.ColorGreen)
	x := printAt(0, y+3, "> "+string(u.input), termbox.ColorDefault)
	termbox.SetCursor(x, y+3)
	termbox.Flush()
}

// printAt prints s from x and returns the column after it.
func printAt(x, y int, s string, fg termbox.Attribute) int {
	for _, r := range s {
		termbox.SetCell(x, y, r, fg, termbox.ColorDefault)
		x += runewidth.RuneWidth(r)
	}
	return x
}

package firmware

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/display"
	"github.com/robotalks/twinboard/pkg/framework"
	"github.com/robotalks/twinboard/pkg/hal"
	"github.com/robotalks/twinboard/pkg/link"
	"github.com/robotalks/twinboard/pkg/scanner"
)

// Board is one position indicator.
type Board struct {
	Config  Config
	Display *display.Multiplexer
	Scanner *scanner.Scanner
	Link    *link.Link
	Loop    *framework.Loop
	Power   board.Power

	driver hal.SerialLink
}

// MoveMsg carries a completed incoming move to the dispatch loop.
type MoveMsg struct {
	Move board.Move
}

// MessageName implements framework.Message.
func (m *MoveMsg) MessageName() string {
	return "move " + m.Move.String()
}

// New wires a board to its devices.
func New(cfg Config, d hal.Display, m hal.Matrix, s hal.SerialLink) *Board {
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = hal.RealAfterFunc
	}
	b := &Board{
		Config:  cfg,
		Display: display.New(d),
		Loop:    framework.NewLoop(),
		driver:  s,
	}
	for r, p := range cfg.Periods {
		if p > 0 {
			b.Display.Periods[r] = p
		}
	}

	b.Link = link.New(s)
	b.Link.Retry = cfg.Retry
	b.Link.RepeatAfter = cfg.RepeatAfter
	b.Link.MaxRepeats = cfg.MaxRepeats
	b.Link.AfterFunc = cfg.AfterFunc
	b.Link.Moves = b
	b.Link.Rate = b.Display
	b.Link.Power = &b.Power
	b.Link.Waker = b.Loop

	b.Scanner = scanner.New(m, b.Link)
	if cfg.Debounce > 0 {
		b.Scanner.Debounce.Duration = cfg.Debounce
	}
	b.Scanner.Debounce.AfterFunc = cfg.AfterFunc
	b.Scanner.Rate = b.Display
	b.Scanner.Power = &b.Power
	b.Scanner.Waker = b.Loop

	boot := cfg.BootMove
	if !boot.Valid() {
		boot = BootMove
	}
	b.Display.Install(board.NewLedPair(boot))

	b.Loop.Add(&Coordinator{Board: b})
	return b
}

// ReceiveMove implements link.MoveReceiver. The link wakes the loop.
func (b *Board) ReceiveMove(m board.Move) {
	b.Loop.PostMessage(&MoveMsg{Move: m})
}

// SendSignal sends Power-off, Draw-offer or Invalid-move to the peer.
func (b *Board) SendSignal(code byte) error {
	return b.Link.SendSignal(code)
}

// Run runs the multiplexer, the serial driver if it is runnable, and the
// dispatch loop. Extra runnables, e.g. telemetry, run alongside.
func (b *Board) Run(ctx context.Context, extras ...framework.Runnable) error {
	runnables := []framework.Runnable{
		framework.NamedRun("display", b.Display),
		framework.NamedRun("loop", b.Loop),
	}
	if r, ok := b.driver.(framework.Runnable); ok {
		runnables = append(runnables, framework.NamedRun("serial", r))
	}
	runnables = append(runnables, extras...)
	glog.Infof("board %s running", b.Config.ID)
	defer b.Scanner.Debounce.Stop()
	return framework.RunAll(ctx, runnables...)
}

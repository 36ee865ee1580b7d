package firmware

import (
	"github.com/golang/glog"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/framework"
)

// Coordinator is the dispatch loop side of the board. It is the only
// place where display power transitions take effect and incoming moves
// get installed.
type Coordinator struct {
	Board *Board

	power board.DisplayPower
}

// AddToLoop implements framework.LoopAdder.
func (c *Coordinator) AddToLoop(l *framework.Loop) {
	l.AddController(framework.PrLvPower, framework.ControlFunc(c.controlPower))
	l.AddController(framework.PrLvInstall, framework.ControlFunc(c.installMoves))
	l.AddController(framework.PrLvSleep, framework.ControlFunc(c.controlSleep))
}

func (c *Coordinator) controlPower(framework.ControlContext) error {
	p := c.Board.Power.Get()
	if p == c.power {
		return nil
	}
	c.power = p
	if p == board.PowerOn {
		glog.Info("display power on")
		c.Board.Display.Resume()
	}
	return nil
}

// installMoves takes pending moves only while powered; otherwise they
// stay queued until power returns.
func (c *Coordinator) installMoves(cc framework.ControlContext) error {
	if !c.Board.Power.IsOn() {
		return nil
	}
	cc.Messages().ProcessMessages(framework.ProcessMessageFunc(func(mc framework.MessageProcessingContext) {
		if msg, ok := mc.CurrentMessage().(*MoveMsg); ok {
			c.Board.Display.Install(board.NewLedPair(msg.Move))
			mc.MessageTaken()
		}
	}))
	return nil
}

func (c *Coordinator) controlSleep(cc framework.ControlContext) error {
	if c.Board.Power.IsOn() {
		return nil
	}
	if !c.Board.Display.Suspended() {
		glog.Info("display power off")
		c.Board.Display.Suspend()
	}
	cc.Sleep()
	return nil
}

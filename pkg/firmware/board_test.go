package firmware

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/hal/haltest"
	"github.com/robotalks/twinboard/pkg/link"
)

const waitFor = 2 * time.Second

type testBoard struct {
	*Board
	display *haltest.Display
	matrix  *haltest.Matrix
	pipe    *haltest.PipeEnd
}

func testConfig(id string) Config {
	cfg := DefaultConfig()
	cfg.ID = id
	cfg.Debounce = 5 * time.Millisecond
	cfg.Retry.Min = time.Millisecond
	cfg.Retry.Max = 5 * time.Millisecond
	return cfg
}

func newTestBoard(id string, pipe *haltest.PipeEnd) *testBoard {
	tb := &testBoard{display: &haltest.Display{}, matrix: haltest.NewMatrix(), pipe: pipe}
	tb.Board = New(testConfig(id), tb.display, tb.matrix, pipe)
	return tb
}

// press waits out the debounce lockout and presses c.
func (tb *testBoard) press(t *testing.T, c board.Coordinate) {
	require.Eventually(t, func() bool { return tb.matrix.EdgesEnabled() }, waitFor, time.Millisecond)
	require.True(t, tb.matrix.Press(c))
}

func (tb *testBoard) lastFrame() haltest.Frame {
	f, _ := tb.display.Last()
	return f
}

func runBoards(t *testing.T, boards ...*testBoard) func() {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, b := range boards {
		wg.Add(1)
		go func(b *testBoard) {
			defer wg.Done()
			b.Run(ctx)
		}(b)
	}
	return func() {
		cancel()
		wg.Wait()
	}
}

func newBoardPair(t *testing.T) (*testBoard, *testBoard, func()) {
	pa, pb := haltest.Pipe()
	a, b := newTestBoard("a", pa), newTestBoard("b", pb)
	return a, b, runBoards(t, a, b)
}

func TestBoardBoot(t *testing.T) {
	pa, _ := haltest.Pipe()
	b := newTestBoard("a", pa)
	st := b.Status()
	assert.Equal(t, BootMove, st.Pair.Move())
	assert.Equal(t, board.PowerOn, st.Power)
	assert.Equal(t, board.BlinkNormal, st.Rate)
	assert.Equal(t, []haltest.Frame{haltest.FrameOf(4)}, b.display.Frames())
	assert.Equal(t, "e1", board.Coordinate(4).String())
	assert.Equal(t, "d8", board.Coordinate(59).String())
}

func TestBoardsExchangeMove(t *testing.T) {
	a, b, stop := newBoardPair(t)
	defer stop()

	var lock sync.Mutex
	dropped := 0
	// the first Start is lost on the line
	a.pipe.SetDrop(func(c byte) bool {
		lock.Lock()
		defer lock.Unlock()
		if c == link.CodeStart && dropped == 0 {
			dropped++
			return true
		}
		return false
	})

	m := board.Move{From: 4, To: 59}
	a.press(t, m.From)
	a.press(t, m.To)
	require.Eventually(t, func() bool {
		return b.Status().Pair.Move() == m
	}, waitFor, time.Millisecond)

	b.display.Reset()
	require.Eventually(t, func() bool {
		var seenA, seenB bool
		for _, f := range b.display.Frames() {
			seenA = seenA || f == haltest.FrameOf(m.From)
			seenB = seenB || f == haltest.FrameOf(m.To)
		}
		return seenA && seenB
	}, waitFor, time.Millisecond, "display alternates between both squares")

	require.Eventually(t, func() bool {
		return a.Status().Stats.MovesSent == 1
	}, waitFor, time.Millisecond)
	assert.Equal(t, uint64(1), b.Status().Stats.MovesReceived)
	assert.True(t, a.Status().Stats.StartRetries > 0)
	assert.Equal(t, BootMove, a.Status().Pair.Move(), "local presses don't change own display")
}

func TestBoardsBothWays(t *testing.T) {
	a, b, stop := newBoardPair(t)
	defer stop()

	m1 := board.Move{From: board.At(1, 4), To: board.At(3, 4)}
	a.press(t, m1.From)
	a.press(t, m1.To)
	require.Eventually(t, func() bool { return b.Status().Pair.Move() == m1 }, waitFor, time.Millisecond)

	m2 := board.Move{From: board.At(6, 4), To: board.At(4, 4)}
	b.press(t, m2.From)
	b.press(t, m2.To)
	require.Eventually(t, func() bool { return a.Status().Pair.Move() == m2 }, waitFor, time.Millisecond)
}

func TestBoardPowerOff(t *testing.T) {
	a, b, stop := newBoardPair(t)
	defer stop()

	require.NoError(t, a.SendSignal(link.CodePowerOff))
	require.Eventually(t, func() bool {
		st := b.Status()
		return st.Power == board.PowerOff && st.Asleep
	}, waitFor, time.Millisecond)
	assert.True(t, b.Display.Suspended())
	assert.Equal(t, haltest.Blank, b.lastFrame())

	// a local key press powers the display again
	b.press(t, 10)
	require.Eventually(t, func() bool {
		st := b.Status()
		return st.Power == board.PowerOn && !st.Asleep && !b.Display.Suspended()
	}, waitFor, time.Millisecond)
	assert.NotEqual(t, haltest.Blank, b.lastFrame())
}

func TestBoardBlinkSignals(t *testing.T) {
	a, b, stop := newBoardPair(t)
	defer stop()

	require.NoError(t, a.SendSignal(link.CodeDrawOffer))
	require.Eventually(t, func() bool { return b.Status().Rate == board.BlinkDrawOffer }, waitFor, time.Millisecond)
	assert.Equal(t, time.Second, b.Display.Period())

	require.NoError(t, a.SendSignal(link.CodeInvalidMove))
	require.Eventually(t, func() bool { return b.Status().Rate == board.BlinkInvalidMove }, waitFor, time.Millisecond)

	b.press(t, 0)
	assert.Equal(t, board.BlinkNormal, b.Status().Rate)
}

func TestCoordinatorHoldsMovesWhileOff(t *testing.T) {
	pa, _ := haltest.Pipe()
	b := newTestBoard("a", pa)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Loop.Run(ctx)

	b.Power.SetOff()
	b.Loop.Wake()
	require.Eventually(t, b.Loop.Asleep, waitFor, time.Millisecond)
	assert.Equal(t, haltest.Blank, b.lastFrame())

	m := board.Move{From: 1, To: 2}
	b.ReceiveMove(m)
	b.Loop.Wake()
	time.Sleep(20 * time.Millisecond)
	require.Eventually(t, func() bool {
		return b.Loop.PendingMessages() == 1 && b.Loop.Asleep()
	}, waitFor, time.Millisecond)
	assert.Equal(t, BootMove, b.Status().Pair.Move())

	b.Power.SetOn()
	b.Loop.Wake()
	require.Eventually(t, func() bool { return b.Status().Pair.Move() == m }, waitFor, time.Millisecond)
	assert.Equal(t, 0, b.Status().PendingMoves)
	assert.False(t, b.Display.Suspended())
	assert.Equal(t, haltest.FrameOf(m.From), b.lastFrame())
}

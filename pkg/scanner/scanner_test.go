package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/hal/haltest"
)

type moveRecorder struct {
	moves []board.Move
}

func (r *moveRecorder) SendMove(m board.Move) {
	r.moves = append(r.moves, m)
}

type rateRecorder struct {
	rates []board.BlinkRate
}

func (r *rateRecorder) SetRate(rate board.BlinkRate) {
	r.rates = append(r.rates, rate)
}

type scannerTestEnv struct {
	matrix *haltest.Matrix
	timers *haltest.Timers
	sender *moveRecorder
	rates  *rateRecorder
	waker  *haltest.Waker
	power  *board.Power
	s      *Scanner
}

func newScannerTestEnv() *scannerTestEnv {
	env := &scannerTestEnv{
		matrix: haltest.NewMatrix(),
		timers: &haltest.Timers{},
		sender: &moveRecorder{},
		rates:  &rateRecorder{},
		waker:  &haltest.Waker{},
		power:  &board.Power{},
	}
	env.s = New(env.matrix, env.sender)
	env.s.Debounce.AfterFunc = env.timers.AfterFunc
	env.s.Rate = env.rates
	env.s.Power = env.power
	env.s.Waker = env.waker
	return env
}

// press presses c and lets the debounce lockout expire.
func (e *scannerTestEnv) press(t *testing.T, c board.Coordinate) {
	require.True(t, e.matrix.Press(c), "press %s", c)
	require.Equal(t, 1, e.timers.FireAll())
}

func TestScanDecodesCoordinate(t *testing.T) {
	env := newScannerTestEnv()
	for _, c := range []board.Coordinate{0, 4, 12, 59, 63} {
		env.matrix.Press(c)
		env.timers.FireAll()
	}
	require.Equal(t, []board.Move{{From: 0, To: 4}, {From: 12, To: 59}}, env.sender.moves)
}

func TestScanDefaultsToColumnZero(t *testing.T) {
	env := newScannerTestEnv()
	// key on row 2 released before the scan
	require.True(t, env.matrix.PressRow(5, board.At(2, 3)))
	env.timers.FireAll()
	env.press(t, 60)
	require.Equal(t, []board.Move{{From: board.At(5, 0), To: 60}}, env.sender.moves)
}

func TestMoveCompletesOnSecondPress(t *testing.T) {
	env := newScannerTestEnv()
	env.press(t, 4)
	require.Empty(t, env.sender.moves)
	env.press(t, 59)
	require.Equal(t, []board.Move{{From: 4, To: 59}}, env.sender.moves)
	env.press(t, 1)
	require.Len(t, env.sender.moves, 1)
}

func TestDebounceDropsEdgesUntilExpiry(t *testing.T) {
	env := newScannerTestEnv()
	require.True(t, env.matrix.Press(4))
	require.False(t, env.matrix.EdgesEnabled())
	require.True(t, env.s.Debounce.Armed())

	// before timeout: dropped at the source
	require.False(t, env.matrix.Press(5))
	// even if the source leaks an edge the interlock holds
	env.s.HandleKeyEdge(0)
	require.Equal(t, 1, env.timers.Pending(), "lockout is not renewed")

	require.Equal(t, 1, env.timers.FireAll())
	require.True(t, env.matrix.EdgesEnabled())
	require.False(t, env.s.Debounce.Armed())

	// after timeout: accepted as the second coordinate
	require.True(t, env.matrix.Press(59))
	require.Equal(t, []board.Move{{From: 4, To: 59}}, env.sender.moves)
}

func TestPressResetsRateAndPower(t *testing.T) {
	env := newScannerTestEnv()
	env.power.SetOff()
	env.press(t, 4)
	require.True(t, env.power.IsOn())
	require.Equal(t, []board.BlinkRate{board.BlinkNormal}, env.rates.rates)
	require.Equal(t, 1, env.waker.Count())
}

func TestInvalidRowIgnored(t *testing.T) {
	env := newScannerTestEnv()
	env.s.HandleKeyEdge(8)
	env.s.HandleKeyEdge(-1)
	require.False(t, env.s.Debounce.Armed())
	require.Equal(t, 0, env.waker.Count())
}

func TestDebouncerStop(t *testing.T) {
	env := newScannerTestEnv()
	env.matrix.Press(4)
	env.s.Debounce.Stop()
	require.False(t, env.s.Debounce.Armed())
	require.True(t, env.matrix.EdgesEnabled())
	require.Equal(t, 0, env.timers.FireAll())
}

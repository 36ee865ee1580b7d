package host

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/firmware"
	"github.com/robotalks/twinboard/pkg/hal/haltest"
)

const waitFor = 2 * time.Second

type hostTestEnv struct {
	peer    *Peer
	board   *firmware.Board
	matrix  *haltest.Matrix
	display *haltest.Display
	cancel  func()
}

func newHostTestEnv() *hostTestEnv {
	hostEnd, boardEnd := haltest.Pipe()
	env := &hostTestEnv{
		peer:    New(hostEnd),
		matrix:  haltest.NewMatrix(),
		display: &haltest.Display{},
	}
	cfg := firmware.DefaultConfig()
	cfg.Debounce = 5 * time.Millisecond
	cfg.Retry.Min = time.Millisecond
	cfg.Retry.Max = 5 * time.Millisecond
	env.board = firmware.New(cfg, env.display, env.matrix, boardEnd)

	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel
	go env.peer.Run(ctx)
	go env.board.Run(ctx)
	return env
}

// press may run in its own goroutine, so it only asserts.
func (env *hostTestEnv) press(t *testing.T, squares ...string) {
	for _, sq := range squares {
		c, err := board.ParseCoordinate(sq)
		if !assert.NoError(t, err) {
			return
		}
		if !assert.Eventually(t, env.matrix.EdgesEnabled, waitFor, time.Millisecond) {
			return
		}
		assert.True(t, env.matrix.Press(c))
	}
}

func TestPeerReadMove(t *testing.T) {
	env := newHostTestEnv()
	defer env.cancel()

	env.press(t, "e2", "e4")
	m, err := env.peer.ReadMoveTimeout(waitFor)
	require.NoError(t, err)
	assert.Equal(t, "e2e4", m.String())

	_, err = env.peer.ReadMoveTimeout(10 * time.Millisecond)
	assert.Equal(t, ErrTimeout, err)
}

func TestPeerShowMove(t *testing.T) {
	env := newHostTestEnv()
	defer env.cancel()

	m, err := board.ParseMove("e7e5")
	require.NoError(t, err)
	require.NoError(t, env.peer.ShowMove(m))
	require.Eventually(t, func() bool {
		return env.board.Status().Pair.Move() == m
	}, waitFor, time.Millisecond)
}

func TestPeerSignals(t *testing.T) {
	env := newHostTestEnv()
	defer env.cancel()

	require.NoError(t, env.peer.OfferDraw())
	require.Eventually(t, func() bool {
		return env.board.Status().Rate == board.BlinkDrawOffer
	}, waitFor, time.Millisecond)
	require.NoError(t, env.peer.InvalidMove())
	require.Eventually(t, func() bool {
		return env.board.Status().Rate == board.BlinkInvalidMove
	}, waitFor, time.Millisecond)
	require.NoError(t, env.peer.PowerOff())
	require.Eventually(t, func() bool {
		return env.board.Status().Asleep
	}, waitFor, time.Millisecond)
}

func TestPeerReadTurn(t *testing.T) {
	env := newHostTestEnv()
	defer env.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	go env.press(t, "e2", "e2", "e2", "e4")
	turn, err := env.peer.ReadTurn(ctx)
	require.NoError(t, err)
	assert.True(t, turn.DrawOffered)
	assert.Equal(t, "e2e4", turn.Move.String())

	go env.press(t, "e1", "e1")
	turn, err = env.peer.ReadTurn(ctx)
	assert.Equal(t, ErrResigned, err)
	assert.Equal(t, "e1e1", turn.Move.String())
}

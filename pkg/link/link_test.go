package link

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/hal"
	"github.com/robotalks/twinboard/pkg/hal/haltest"
)

type moveRecorder struct {
	lock  sync.Mutex
	moves []board.Move
}

func (r *moveRecorder) ReceiveMove(m board.Move) {
	r.lock.Lock()
	r.moves = append(r.moves, m)
	r.lock.Unlock()
}

func (r *moveRecorder) Moves() []board.Move {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]board.Move(nil), r.moves...)
}

type rateRecorder struct {
	rates []board.BlinkRate
}

func (r *rateRecorder) SetRate(rate board.BlinkRate) {
	r.rates = append(r.rates, rate)
}

type linkTestEnv struct {
	driver haltest.Link
	timers haltest.Timers
	waker  haltest.Waker
	moves  moveRecorder
	rates  rateRecorder
	power  board.Power
	delays []time.Duration
	link   *Link
}

func newLinkTestEnv(policy RetryPolicy) *linkTestEnv {
	env := &linkTestEnv{}
	env.link = New(&env.driver)
	env.link.Retry = policy
	env.link.RepeatAfter = 0
	env.link.AfterFunc = func(d time.Duration, fn func()) hal.Timer {
		env.delays = append(env.delays, d)
		return env.timers.AfterFunc(d, fn)
	}
	env.link.Moves = &env.moves
	env.link.Rate = &env.rates
	env.link.Power = &env.power
	env.link.Waker = &env.waker
	return env
}

func immediate(maxAttempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: maxAttempts}
}

var e2e4 = board.Move{From: board.At(1, 4), To: board.At(3, 4)}

func moveBytes(m board.Move) []byte {
	bs := m.Bytes()
	return bs[:]
}

func TestLinkSendMove(t *testing.T) {
	env := newLinkTestEnv(immediate(0))
	env.link.SendMove(e2e4)
	require.Equal(t, []byte{CodeStart}, env.driver.Sent())
	require.Equal(t, TxAwaitingAck, env.link.TxState())

	// Start is resent until the peer answers.
	env.driver.TransmitReady()
	require.Equal(t, []byte{CodeStart}, env.driver.Sent())
	env.driver.TransmitReady()
	require.Equal(t, []byte{CodeStart}, env.driver.Sent())

	env.driver.Receive(CodeAck)
	env.driver.TransmitReady()
	env.driver.TransmitReady()
	require.Equal(t, moveBytes(e2e4), env.driver.Sent())
	env.driver.TransmitReady()
	assert.Empty(t, env.driver.Sent())
	assert.Equal(t, TxIdle, env.link.TxState())

	stats := env.link.Stats()
	assert.Equal(t, uint64(1), stats.MovesSent)
	assert.Equal(t, uint64(2), stats.StartRetries)
}

func TestLinkRepeat(t *testing.T) {
	env := newLinkTestEnv(immediate(0))
	env.driver.Receive(CodeRepeat)
	assert.Empty(t, env.driver.Sent(), "nothing to repeat")

	env.link.SendMove(e2e4)
	env.driver.Receive(CodeAck)
	for i := 0; i < 3; i++ {
		env.driver.TransmitReady()
	}
	env.driver.Sent()

	env.driver.Receive(CodeRepeat)
	env.driver.TransmitReady()
	env.driver.TransmitReady()
	require.Equal(t, moveBytes(e2e4), env.driver.Sent())
	assert.Equal(t, uint64(2), env.link.Stats().MovesSent)
}

func TestLinkRepeatDuringHandshake(t *testing.T) {
	env := newLinkTestEnv(immediate(0))
	env.link.SendMove(e2e4)
	env.driver.Receive(CodeRepeat)
	env.driver.TransmitReady()
	require.Equal(t, []byte{CodeStart, e2e4.From.Encode(), e2e4.To.Encode()}, env.driver.Sent())
}

func TestLinkGiveUp(t *testing.T) {
	env := newLinkTestEnv(immediate(3))
	env.link.SendMove(e2e4)
	env.driver.TransmitReady()
	env.driver.TransmitReady()
	require.Equal(t, []byte{CodeStart, CodeStart, CodeStart}, env.driver.Sent())
	require.Equal(t, StateUp, env.link.State())

	env.driver.TransmitReady()
	assert.Empty(t, env.driver.Sent())
	assert.Equal(t, StateDown, env.link.State())
	assert.Equal(t, 1, env.waker.Count())
	assert.Equal(t, uint64(1), env.link.Stats().GiveUps)

	// any byte from the peer brings the link back
	env.driver.Receive(CodeRepeat)
	assert.Equal(t, StateUp, env.link.State())
	assert.Equal(t, 1, env.waker.Count())
	env.driver.TransmitReady()
	require.Equal(t, moveBytes(e2e4), env.driver.Sent())
}

func TestLinkBackoff(t *testing.T) {
	env := newLinkTestEnv(RetryPolicy{Min: 10 * time.Millisecond, Max: 40 * time.Millisecond, Factor: 2})
	env.link.SendMove(e2e4)
	env.driver.Sent()

	env.driver.TransmitReady()
	assert.Empty(t, env.driver.Sent())
	require.Equal(t, 1, env.timers.Pending())
	env.driver.TransmitReady()
	require.Equal(t, 1, env.timers.Pending(), "ready ignored while paused")

	env.timers.FireAll()
	require.Equal(t, []byte{CodeStart}, env.driver.Sent())
	env.driver.TransmitReady()
	env.timers.FireAll()
	env.driver.TransmitReady()
	env.timers.FireAll()
	env.driver.TransmitReady()
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		40 * time.Millisecond,
	}, env.delays)

	// ack while paused, resumed with the first coordinate
	env.driver.Sent()
	env.driver.Receive(CodeAck)
	env.timers.FireAll()
	require.Equal(t, []byte{e2e4.From.Encode()}, env.driver.Sent())
}

func TestLinkStaleRetryCancelled(t *testing.T) {
	env := newLinkTestEnv(RetryPolicy{Min: 10 * time.Millisecond, Max: 40 * time.Millisecond, Factor: 2})
	env.link.SendMove(e2e4)
	env.driver.TransmitReady()
	m := board.Move{From: 0, To: 1}
	env.link.SendMove(m)
	require.Equal(t, []byte{CodeStart, CodeStart}, env.driver.Sent())
	env.timers.FireAll()
	assert.Empty(t, env.driver.Sent())

	env.driver.Receive(CodeAck)
	env.driver.TransmitReady()
	env.driver.TransmitReady()
	require.Equal(t, moveBytes(m), env.driver.Sent())
}

func TestLinkReceiveHandshake(t *testing.T) {
	env := newLinkTestEnv(immediate(0))
	env.power.SetOff()
	env.driver.Receive(CodeStart)
	require.Equal(t, []byte{CodeAck}, env.driver.Sent())
	assert.True(t, env.power.IsOn())
	assert.Equal(t, 1, env.waker.Count())
	assert.Equal(t, []board.BlinkRate{board.BlinkNormal}, env.rates.rates)

	env.driver.Receive(CodeStart)
	require.Equal(t, []byte{CodeAck}, env.driver.Sent())
	assert.Equal(t, 0, env.waker.Count(), "already on")

	env.driver.Receive(moveBytes(e2e4)...)
	assert.Equal(t, []board.Move{e2e4}, env.moves.Moves())
	assert.Equal(t, 1, env.waker.Count())
	assert.Equal(t, RxIdle, env.link.RxState())
	assert.Empty(t, env.driver.Sent())
}

func TestLinkReceiveAnnounce(t *testing.T) {
	env := newLinkTestEnv(immediate(0))
	env.driver.Receive(CodeMove)
	env.driver.Receive(moveBytes(e2e4)...)
	assert.Empty(t, env.driver.Sent(), "no ack for announce")
	assert.Equal(t, []board.Move{e2e4}, env.moves.Moves())
	assert.Equal(t, uint64(1), env.link.Stats().MovesReceived)
}

func TestLinkReceiveRejected(t *testing.T) {
	env := newLinkTestEnv(immediate(0))
	env.driver.Receive(CodeMove, board.Coordinate(4).Encode(), 0x7f, board.Coordinate(59).Encode())
	assert.Empty(t, env.moves.Moves())
	assert.Equal(t, uint64(1), env.link.Stats().Rejected)
	assert.Equal(t, RxIdle, env.link.RxState())
}

func TestLinkSignals(t *testing.T) {
	env := newLinkTestEnv(immediate(0))
	env.driver.Receive(CodeDrawOffer, CodeInvalidMove)
	assert.Equal(t, []board.BlinkRate{board.BlinkDrawOffer, board.BlinkInvalidMove}, env.rates.rates)

	env.driver.Receive(CodePowerOff)
	assert.False(t, env.power.IsOn())
	assert.Equal(t, 1, env.waker.Count())
	env.driver.Receive(CodePowerOff)
	assert.Equal(t, 0, env.waker.Count(), "already off")

	require.NoError(t, env.link.SendSignal(CodeDrawOffer))
	require.Equal(t, ErrNotSignal, env.link.SendSignal(CodeMove))
	require.Equal(t, []byte{CodeDrawOffer}, env.driver.Sent())
}

func TestLinkReceiveStall(t *testing.T) {
	env := newLinkTestEnv(immediate(0))
	env.link.RepeatAfter = time.Second
	env.link.MaxRepeats = 2

	env.driver.Receive(CodeMove, e2e4.From.Encode())
	require.Equal(t, 1, env.timers.Pending())
	env.timers.FireAll()
	require.Equal(t, []byte{CodeRepeat}, env.driver.Sent())
	require.Equal(t, RxAwaitingFirstByte, env.link.RxState())

	env.driver.Receive(moveBytes(e2e4)...)
	assert.Equal(t, []board.Move{e2e4}, env.moves.Moves())
	assert.Equal(t, 0, env.timers.Pending())

	env.driver.Receive(CodeStart)
	env.driver.Sent()
	env.timers.FireAll()
	env.timers.FireAll()
	require.Equal(t, []byte{CodeRepeat, CodeRepeat}, env.driver.Sent())
	env.timers.FireAll()
	assert.Empty(t, env.driver.Sent())
	assert.Equal(t, RxIdle, env.link.RxState())
	assert.Equal(t, uint64(3), env.link.Stats().RepeatsSent)
}

func TestLinkReceiveStallCountsFromLastByte(t *testing.T) {
	env := newLinkTestEnv(immediate(0))
	env.link.RepeatAfter = time.Second

	env.driver.Receive(CodeStart)
	require.Equal(t, []byte{CodeAck}, env.driver.Sent())
	sinceStart := env.timers.Last()
	require.NotNil(t, sinceStart)

	env.driver.Receive(e2e4.From.Encode())
	sinceFirst := env.timers.Last()
	require.True(t, sinceFirst != sinceStart, "re-armed on the first coordinate")
	// the deadline from Start passes while the second coordinate is on the wire
	assert.False(t, sinceStart.Fire())
	assert.Empty(t, env.driver.Sent())
	assert.Equal(t, RxAwaitingSecondByte, env.link.RxState())

	env.driver.Receive(e2e4.To.Encode())
	assert.Equal(t, []board.Move{e2e4}, env.moves.Moves())
	assert.False(t, sinceFirst.Fire())
	assert.Empty(t, env.driver.Sent())
	assert.Equal(t, uint64(0), env.link.Stats().RepeatsSent)
}

func TestDefaultRepeatAfterOutlastsStartRetries(t *testing.T) {
	assert.True(t, DefaultRepeatAfter >= 2*DefaultRetryPolicy.Max)
}

func TestLinkRequestRepeat(t *testing.T) {
	env := newLinkTestEnv(immediate(0))
	env.driver.Receive(CodeMove, e2e4.From.Encode())
	env.link.RequestRepeat()
	require.Equal(t, []byte{CodeRepeat}, env.driver.Sent())
	env.driver.Receive(moveBytes(e2e4)...)
	assert.Equal(t, []board.Move{e2e4}, env.moves.Moves())
}

func TestLinkAnnounceMove(t *testing.T) {
	env := newLinkTestEnv(immediate(1))
	require.NoError(t, env.link.AnnounceMove(e2e4))
	require.Equal(t, append([]byte{CodeMove}, moveBytes(e2e4)...), env.driver.Sent())
	require.Equal(t, board.ErrOutOfRange, env.link.AnnounceMove(board.Move{From: 64}))

	env.link.SendMove(e2e4)
	require.Equal(t, ErrBusy, env.link.AnnounceMove(e2e4))
	env.driver.TransmitReady()
	require.Equal(t, ErrLinkDown, env.link.Err())
	require.NoError(t, env.link.AnnounceMove(e2e4))
}

package link

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/jpillora/backoff"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/hal"
)

// RetryPolicy paces and bounds unacknowledged Starts.
type RetryPolicy struct {
	// Min is the first pause before resending Start. With 0 Start is
	// resent on every transmit-ready, as fast as the line allows.
	Min    time.Duration
	Max    time.Duration
	Factor float64
	// MaxAttempts bounds Starts per move, 0 for unbounded.
	MaxAttempts int
}

// DefaultRetryPolicy suits links slower to answer than a UART.
var DefaultRetryPolicy = RetryPolicy{
	Min:         10 * time.Millisecond,
	Max:         500 * time.Millisecond,
	Factor:      2,
	MaxAttempts: 60,
}

// Defaults for receive stall recovery. DefaultRepeatAfter stays above
// twice the longest Start retry pause.
const (
	DefaultRepeatAfter = time.Second
	DefaultMaxRepeats  = 3
)

// State is the liveness of the link.
type State int32

// Link states.
const (
	StateUp State = iota
	StateDown
)

func (s State) String() string {
	if s == StateDown {
		return "down"
	}
	return "up"
}

// MoveReceiver takes completed incoming moves.
type MoveReceiver interface {
	ReceiveMove(board.Move)
}

// RateSetter reprograms the blink rate.
type RateSetter interface {
	SetRate(board.BlinkRate)
}

// Stats are protocol counters.
type Stats struct {
	MovesSent     uint64
	MovesReceived uint64
	StartRetries  uint64
	RepeatsSent   uint64
	Rejected      uint64
	GiveUps       uint64
}

// Link runs both protocol state machines over a hal.SerialLink.
// It owns the transmit side of the driver.
type Link struct {
	Driver hal.SerialLink
	Retry  RetryPolicy
	// RepeatAfter is how long a receive session may stall before Repeat
	// is sent, 0 disables it.
	RepeatAfter time.Duration
	MaxRepeats  int
	AfterFunc   hal.AfterFunc

	Moves MoveReceiver
	Rate  RateSetter
	Power *board.Power
	Waker hal.Waker

	txLock       sync.Mutex
	tx           Transmitter
	backoff      backoff.Backoff
	retryPending bool
	retryGen     uint64

	rxLock      sync.Mutex
	rx          Receiver
	rxSession   uint64
	repeatTimer hal.Timer
	repeats     int

	state int32
	stats Stats
}

// New creates a Link and registers it with the driver.
func New(driver hal.SerialLink) *Link {
	l := &Link{
		Driver:      driver,
		Retry:       DefaultRetryPolicy,
		RepeatAfter: DefaultRepeatAfter,
		MaxRepeats:  DefaultMaxRepeats,
		AfterFunc:   hal.RealAfterFunc,
	}
	driver.SetHandler(l)
	return l
}

// State returns the link liveness.
func (l *Link) State() State {
	return State(atomic.LoadInt32(&l.state))
}

// TxState returns the transmit session state.
func (l *Link) TxState() TxState {
	l.txLock.Lock()
	defer l.txLock.Unlock()
	return l.tx.State()
}

// RxState returns the receive session state.
func (l *Link) RxState() RxState {
	l.rxLock.Lock()
	defer l.rxLock.Unlock()
	return l.rx.State()
}

// Stats returns a snapshot of the counters.
func (l *Link) Stats() Stats {
	return Stats{
		MovesSent:     atomic.LoadUint64(&l.stats.MovesSent),
		MovesReceived: atomic.LoadUint64(&l.stats.MovesReceived),
		StartRetries:  atomic.LoadUint64(&l.stats.StartRetries),
		RepeatsSent:   atomic.LoadUint64(&l.stats.RepeatsSent),
		Rejected:      atomic.LoadUint64(&l.stats.Rejected),
		GiveUps:       atomic.LoadUint64(&l.stats.GiveUps),
	}
}

// SendMove opens a transmit session for m.
func (l *Link) SendMove(m board.Move) {
	if !m.Valid() {
		glog.Errorf("refuse to send invalid move %v", m)
		return
	}
	l.txLock.Lock()
	defer l.txLock.Unlock()
	l.tx.MaxAttempts = l.Retry.MaxAttempts
	l.backoff = backoff.Backoff{Min: l.Retry.Min, Max: l.Retry.Max, Factor: l.Retry.Factor}
	l.cancelRetry()
	glog.V(1).Infof("send move %s", m)
	l.apply(l.tx.Begin(m))
}

// AnnounceMove sends Move-announce followed by both coordinates with no
// handshake. The host uses it to show the opponent's move; the driver
// queues the bytes.
func (l *Link) AnnounceMove(m board.Move) error {
	if !m.Valid() {
		return board.ErrOutOfRange
	}
	l.txLock.Lock()
	defer l.txLock.Unlock()
	if l.tx.State() != TxIdle {
		return ErrBusy
	}
	glog.V(1).Infof("announce move %s", m)
	bs := m.Bytes()
	l.write(CodeMove)
	l.write(bs[0])
	l.write(bs[1])
	return nil
}

// Err returns ErrLinkDown after the peer failed to acknowledge a Start.
func (l *Link) Err() error {
	if l.State() == StateDown {
		return ErrLinkDown
	}
	return nil
}

// SendSignal sends a single-byte signal to the peer.
func (l *Link) SendSignal(code byte) error {
	if !IsSignal(code) {
		return ErrNotSignal
	}
	l.txLock.Lock()
	defer l.txLock.Unlock()
	l.write(code)
	return nil
}

// RequestRepeat asks the peer to resend its last move.
func (l *Link) RequestRepeat() {
	l.rxLock.Lock()
	l.rx.Rewind()
	session := l.rxSession
	l.rxLock.Unlock()
	l.sendRepeat()
	l.armRepeat(session)
}

// HandleTransmitReady implements hal.LinkHandler.
func (l *Link) HandleTransmitReady() {
	l.txLock.Lock()
	defer l.txLock.Unlock()
	if l.retryPending {
		return
	}
	l.apply(l.tx.Ready())
}

// HandleByte implements hal.LinkHandler.
func (l *Link) HandleByte(b byte) {
	glog.V(2).Infof("RCV %s", CodeName(b&^0x80))
	l.setState(StateUp)

	l.rxLock.Lock()
	res := l.rx.Receive(b)
	switch res.Event {
	case RxStart, RxAnnounce:
		l.rxSession++
		l.repeats = 0
	case RxFirst:
		// the stall deadline counts from the last accepted byte
		l.stopRepeatLocked()
	case RxMove, RxRejected:
		l.stopRepeatLocked()
	}
	session := l.rxSession
	l.rxLock.Unlock()

	switch res.Event {
	case RxStart:
		l.txLock.Lock()
		l.write(CodeAck)
		l.txLock.Unlock()
		l.wakeForMove()
		l.armRepeat(session)
	case RxAnnounce:
		l.wakeForMove()
		l.armRepeat(session)
	case RxFirst:
		l.armRepeat(session)
	case RxAck:
		l.txLock.Lock()
		l.tx.Acked()
		l.txLock.Unlock()
	case RxRepeat:
		l.txLock.Lock()
		r, err := l.tx.Repeat()
		if err != nil {
			glog.V(1).Infof("repeat ignored: %v", err)
		} else {
			l.cancelRetry()
			l.apply(r)
		}
		l.txLock.Unlock()
	case RxMove:
		atomic.AddUint64(&l.stats.MovesReceived, 1)
		glog.V(1).Infof("received move %s", res.Move)
		if l.Moves != nil {
			l.Moves.ReceiveMove(res.Move)
		}
		l.wake()
	case RxPowerOff:
		if l.Power != nil && l.Power.SetOff() {
			l.wake()
		}
	case RxBlink:
		if l.Rate != nil {
			l.Rate.SetRate(res.Rate)
		}
	case RxRejected:
		atomic.AddUint64(&l.stats.Rejected, 1)
		glog.Warningf("rejected byte 0x%02x in receive session", res.Byte)
	}
}

func (l *Link) wakeForMove() {
	if l.Rate != nil {
		l.Rate.SetRate(board.BlinkNormal)
	}
	if l.Power != nil && l.Power.SetOn() {
		l.wake()
	}
}

// apply performs a transmit step result, txLock must be held.
func (l *Link) apply(r TxResult) {
	switch r.Action {
	case TxWrite:
		l.write(r.Byte)
	case TxRetry:
		atomic.AddUint64(&l.stats.StartRetries, 1)
		if l.Retry.Min <= 0 {
			l.apply(l.tx.Resume())
			return
		}
		l.retryPending = true
		gen := l.retryGen
		after := l.AfterFunc
		if after == nil {
			after = hal.RealAfterFunc
		}
		after(l.backoff.Duration(), func() { l.resumeRetry(gen) })
	case TxGiveUp:
		atomic.AddUint64(&l.stats.GiveUps, 1)
		glog.Warningf("no ack after %d starts, giving up", l.tx.Attempts())
		if l.setState(StateDown) {
			l.wake()
		}
	}
	if r.Done {
		atomic.AddUint64(&l.stats.MovesSent, 1)
		glog.V(1).Info("move sent")
	}
}

func (l *Link) resumeRetry(gen uint64) {
	l.txLock.Lock()
	defer l.txLock.Unlock()
	if !l.retryPending || gen != l.retryGen {
		return
	}
	l.retryPending = false
	l.apply(l.tx.Resume())
}

// cancelRetry invalidates a scheduled Start resend, txLock must be held.
func (l *Link) cancelRetry() {
	l.retryPending = false
	l.retryGen++
}

func (l *Link) write(b byte) {
	glog.V(2).Infof("SND %s", CodeName(b))
	l.Driver.Send(b)
}

func (l *Link) sendRepeat() {
	atomic.AddUint64(&l.stats.RepeatsSent, 1)
	l.txLock.Lock()
	l.write(CodeRepeat)
	l.txLock.Unlock()
}

func (l *Link) armRepeat(session uint64) {
	if l.RepeatAfter <= 0 {
		return
	}
	after := l.AfterFunc
	if after == nil {
		after = hal.RealAfterFunc
	}
	l.rxLock.Lock()
	defer l.rxLock.Unlock()
	if l.repeatTimer != nil {
		l.repeatTimer.Stop()
	}
	l.repeatTimer = after(l.RepeatAfter, func() { l.repeatStalled(session) })
}

func (l *Link) stopRepeatLocked() {
	if l.repeatTimer != nil {
		l.repeatTimer.Stop()
		l.repeatTimer = nil
	}
}

func (l *Link) repeatStalled(session uint64) {
	l.rxLock.Lock()
	if session != l.rxSession || l.rx.State() == RxIdle {
		l.rxLock.Unlock()
		return
	}
	maxRepeats := l.MaxRepeats
	if maxRepeats <= 0 {
		maxRepeats = DefaultMaxRepeats
	}
	if l.repeats >= maxRepeats {
		glog.Warningf("receive stalled after %d repeats, abandoned", l.repeats)
		l.rx.Reset()
		l.repeatTimer = nil
		l.rxLock.Unlock()
		return
	}
	l.repeats++
	l.rx.Rewind()
	l.rxLock.Unlock()
	glog.V(1).Info("receive stalled, request repeat")
	l.sendRepeat()
	l.armRepeat(session)
}

func (l *Link) setState(s State) bool {
	old := State(atomic.SwapInt32(&l.state, int32(s)))
	if old != s {
		glog.Infof("link %s", s)
		if s == StateUp && old == StateDown {
			l.wake()
		}
		return true
	}
	return false
}

func (l *Link) wake() {
	if l.Waker != nil {
		l.Waker.Wake()
	}
}

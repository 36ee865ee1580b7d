// Package display drives the LED matrix so two squares appear lit at once.
//
// The display hardware lights exactly one intersection at a time, so the
// Multiplexer alternates between the two squares of an LedPair from its
// own ticker. At the normal rate the eye fuses both squares; the slower
// rates are visible blinking used as signals from the peer.
package display

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/hal"
)

// Multiplexer owns the Display and the displayed LedPair.
type Multiplexer struct {
	Display hal.Display
	// Periods is the alternation period per BlinkRate.
	Periods [3]time.Duration

	lock      sync.Mutex
	pair      board.LedPair
	installed bool

	rate      int32
	suspended int32
	ticks     uint64
	ctlCh     chan struct{}
}

// New creates a Multiplexer with default periods.
func New(d hal.Display) *Multiplexer {
	m := &Multiplexer{Display: d, ctlCh: make(chan struct{}, 1)}
	for r := board.BlinkNormal; r <= board.BlinkInvalidMove; r++ {
		m.Periods[r] = r.Period()
	}
	return m
}

// Install replaces the displayed pair and renders slot 0 immediately.
func (m *Multiplexer) Install(pair board.LedPair) {
	pair.Active = 0
	m.lock.Lock()
	defer m.lock.Unlock()
	m.pair, m.installed = pair, true
	glog.V(2).Infof("install %s", pair.Move())
	if !m.isSuspended() {
		m.render()
	}
}

// Alternate flips the active slot and re-renders.
func (m *Multiplexer) Alternate() {
	m.lock.Lock()
	defer m.lock.Unlock()
	if !m.installed || m.isSuspended() {
		return
	}
	m.pair.Flip()
	m.render()
	atomic.AddUint64(&m.ticks, 1)
}

// Pair returns the displayed pair.
func (m *Multiplexer) Pair() board.LedPair {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.pair
}

// Ticks returns the number of alternations performed.
func (m *Multiplexer) Ticks() uint64 {
	return atomic.LoadUint64(&m.ticks)
}

// SetRate reprograms the alternation period.
func (m *Multiplexer) SetRate(r board.BlinkRate) {
	if board.BlinkRate(atomic.SwapInt32(&m.rate, int32(r))) != r {
		glog.V(1).Infof("blink rate %s", r)
		m.notify()
	}
}

// Rate returns the current BlinkRate.
func (m *Multiplexer) Rate() board.BlinkRate {
	return board.BlinkRate(atomic.LoadInt32(&m.rate))
}

// Period returns the alternation period of the current rate.
func (m *Multiplexer) Period() time.Duration {
	r := m.Rate()
	if r < 0 || int(r) >= len(m.Periods) || m.Periods[r] <= 0 {
		return board.NormalPeriod
	}
	return m.Periods[r]
}

// Suspend blanks the display and stops alternation.
func (m *Multiplexer) Suspend() {
	m.lock.Lock()
	changed := atomic.SwapInt32(&m.suspended, 1) == 0
	if changed {
		m.Display.Blank()
	}
	m.lock.Unlock()
	if changed {
		m.notify()
	}
}

// Resume renders the active slot again and restarts alternation.
func (m *Multiplexer) Resume() {
	m.lock.Lock()
	changed := atomic.SwapInt32(&m.suspended, 0) == 1
	if changed && m.installed {
		m.render()
	}
	m.lock.Unlock()
	if changed {
		m.notify()
	}
}

// Suspended tells whether alternation is stopped.
func (m *Multiplexer) Suspended() bool {
	return m.isSuspended()
}

// Run implements Runnable. It is the only periodic driver of the display.
func (m *Multiplexer) Run(ctx context.Context) error {
	for {
		var tick <-chan time.Time
		var ticker *time.Ticker
		if !m.isSuspended() {
			ticker = time.NewTicker(m.Period())
			tick = ticker.C
		}
		err := m.tickUntilChanged(ctx, tick)
		if ticker != nil {
			ticker.Stop()
		}
		if err != nil {
			return err
		}
	}
}

func (m *Multiplexer) tickUntilChanged(ctx context.Context, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.ctlCh:
			return nil
		case <-tick:
			glog.V(5).Info("alternate")
			m.Alternate()
		}
	}
}

func (m *Multiplexer) notify() {
	select {
	case m.ctlCh <- struct{}{}:
	default:
	}
}

func (m *Multiplexer) isSuspended() bool {
	return atomic.LoadInt32(&m.suspended) != 0
}

func (m *Multiplexer) render() {
	c := m.pair.Current()
	m.Display.Render(c.ColumnMask(), c.RowMask())
}

package scanner

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/twinboard/pkg/hal"
)

// DefaultDebounce is the lockout after an accepted key edge.
const DefaultDebounce = 500 * time.Millisecond

// Debouncer is the board-wide key lockout. It is not per key: while it is
// armed every key edge is dropped.
type Debouncer struct {
	Matrix    hal.Matrix
	Duration  time.Duration
	AfterFunc hal.AfterFunc

	armed int32
	lock  sync.Mutex
	timer hal.Timer
}

// NewDebouncer creates a Debouncer with the default duration.
func NewDebouncer(m hal.Matrix) *Debouncer {
	return &Debouncer{
		Matrix:    m,
		Duration:  DefaultDebounce,
		AfterFunc: hal.RealAfterFunc,
	}
}

// Enter claims the interlock for one key edge and disables edges at the
// source. It returns false if the lockout is already active.
func (d *Debouncer) Enter() bool {
	if !atomic.CompareAndSwapInt32(&d.armed, 0, 1) {
		return false
	}
	d.Matrix.DisableEdges()
	return true
}

// Arm starts the lockout timer. Edges stay disabled until it expires.
func (d *Debouncer) Arm() {
	after := d.AfterFunc
	if after == nil {
		after = hal.RealAfterFunc
	}
	dur := d.Duration
	if dur <= 0 {
		dur = DefaultDebounce
	}
	d.lock.Lock()
	d.timer = after(dur, d.expire)
	d.lock.Unlock()
}

// Armed tells whether key edges are locked out.
func (d *Debouncer) Armed() bool {
	return atomic.LoadInt32(&d.armed) != 0
}

// Stop cancels a pending lockout and re-enables edges.
func (d *Debouncer) Stop() {
	d.lock.Lock()
	t := d.timer
	d.timer = nil
	d.lock.Unlock()
	if t != nil && t.Stop() {
		d.expire()
	}
}

func (d *Debouncer) expire() {
	d.Matrix.ClearEdges()
	atomic.StoreInt32(&d.armed, 0)
	d.Matrix.EnableEdges()
	glog.V(3).Info("debounce expired")
}

package framework

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
)

// Loop is the dispatch loop. An iteration runs all controllers by
// priority level. Iterations are only started by Wake/TriggerNext.
type Loop struct {
	controllers [PriorityLevels]controllerList

	runners []Runnable

	messages messageList
	lock     sync.Mutex

	wakeUpCh   chan struct{}
	sleepReq   int32
	asleep     int32
	iterations uint64
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	*Loop
	ctx           context.Context
	priorityLevel int
	messages      messageList
}

type controllerList struct {
	controllers []Controller
	postHooks   []Controller
	lock        sync.Mutex
}

// NewLoop creates a wake-driven Loop.
func NewLoop() *Loop {
	return &Loop{wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop. Controllers which
// are also Runnable are run alongside the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	lst := &l.controllers[priorityLevel]
	lst.controllers = append(lst.controllers, ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	l.init()

	runner := NewRunnerWith(ctx)
	runner.Go(l.runners...)
	defer runner.Wait()

	// The first iteration lets controllers settle initial state.
	l.runIteration(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wakeUpCh:
			if atomic.SwapInt32(&l.asleep, 0) != 0 {
				glog.V(1).Info("woke up")
			}
			l.runIteration(ctx)
		}
	}
}

// PostMessage implements LoopCtl. It doesn't wake the loop.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages.append(&messageItem{msg: msg})
	l.lock.Unlock()
}

// PendingMessages returns the number of messages not yet taken.
func (l *Loop) PendingMessages() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.messages.len()
}

// TriggerNext implements LoopCtl.
func (l *Loop) TriggerNext() {
	l.init()
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Wake implements hal.Waker, it's safe to call from any goroutine.
// A wake signal raised before the loop falls asleep is not lost.
func (l *Loop) Wake() {
	l.TriggerNext()
}

// Sleep implements LoopCtl.
func (l *Loop) Sleep() {
	atomic.StoreInt32(&l.sleepReq, 1)
}

// Asleep tells whether the loop is in deep sleep.
func (l *Loop) Asleep() bool {
	return atomic.LoadInt32(&l.asleep) != 0
}

// Iterations returns the number of completed iterations.
func (l *Loop) Iterations() uint64 {
	return atomic.LoadUint64(&l.iterations)
}

func (l *Loop) init() {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	l.lock.Unlock()
}

func (l *Loop) runIteration(ctx context.Context) {
	iter := &loopIteration{Loop: l, ctx: ctx}
	l.lock.Lock()
	iter.messages.splice(&l.messages)
	l.lock.Unlock()
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		l.controllers[i].run(iter)
	}

	// Untaken messages stay ahead of the ones posted meanwhile.
	l.lock.Lock()
	iter.messages.concat(&l.messages)
	l.messages = iter.messages
	l.lock.Unlock()

	atomic.AddUint64(&l.iterations, 1)
	if atomic.SwapInt32(&l.sleepReq, 0) != 0 {
		atomic.StoreInt32(&l.asleep, 1)
		glog.V(1).Info("deep sleep")
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *loopIteration) Messages() MessageStore {
	return t
}

// PostRun hooks run once after the controllers of the current level.
func (t *loopIteration) PostRun(hooks ...Controller) {
	lst := &t.controllers[t.priorityLevel]
	lst.lock.Lock()
	lst.postHooks = append(lst.postHooks, hooks...)
	lst.lock.Unlock()
}

func (c *controllerList) run(iter *loopIteration) {
	runControllers(iter, c.controllers)
	c.lock.Lock()
	ctls := c.postHooks
	c.postHooks = nil
	c.lock.Unlock()
	runControllers(iter, ctls)
}

func runControllers(iter *loopIteration, ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(iter); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
}

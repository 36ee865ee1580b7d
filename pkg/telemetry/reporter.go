package telemetry

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/twinboard/pkg/firmware"
	"github.com/robotalks/twinboard/pkg/framework"
	"github.com/robotalks/twinboard/pkg/mqtt"
)

// DefaultRefreshInterval bounds how stale published counters get,
// as not every change wakes the dispatch loop.
const DefaultRefreshInterval = time.Second

// StatusTopic is the topic a board's status is published to.
func StatusTopic(id string) string {
	return id + "/status"
}

// StatusSource provides status snapshots, e.g. firmware.Board.
type StatusSource interface {
	Status() firmware.Status
}

// Publisher publishes a payload, e.g. mqtt.Queue.
type Publisher interface {
	Publish(topic string, payload []byte, retain bool) error
}

// Reporter publishes BoardStatus when it changes. It is added to the
// dispatch loop so every iteration is reported; publishing happens on
// its own goroutine so the loop never waits on the broker.
type Reporter struct {
	Source          StatusSource
	Publisher       Publisher
	RefreshInterval time.Duration

	notifyCh chan struct{}
	last     *BoardStatus
}

// NewReporter creates a Reporter.
func NewReporter(src StatusSource, pub Publisher) *Reporter {
	return &Reporter{
		Source:          src,
		Publisher:       pub,
		RefreshInterval: DefaultRefreshInterval,
		notifyCh:        make(chan struct{}, 1),
	}
}

// AddToLoop implements framework.LoopAdder.
func (r *Reporter) AddToLoop(l *framework.Loop) {
	l.AddController(framework.PrLvReport, r)
}

// Control implements framework.Controller.
func (r *Reporter) Control(framework.ControlContext) error {
	select {
	case r.notifyCh <- struct{}{}:
	default:
	}
	return nil
}

// Run implements framework.Runnable.
func (r *Reporter) Run(ctx context.Context) error {
	interval := r.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.notifyCh:
		case <-ticker.C:
		}
		if err := r.Report(); err != nil {
			glog.Warningf("publish status: %v", err)
		}
	}
}

// Report publishes the current status if it changed.
func (r *Reporter) Report() error {
	st := NewBoardStatus(r.Source.Status())
	if r.last != nil && proto.Equal(r.last, st) {
		return nil
	}
	payload, err := proto.Marshal(st)
	if err != nil {
		return err
	}
	if err := r.Publisher.Publish(StatusTopic(st.ID), payload, true); err != nil {
		return err
	}
	glog.V(2).Infof("status %s", st)
	r.last = st
	return nil
}

// Subscribe delivers BoardStatus of all boards under q's prefix.
func Subscribe(q *mqtt.Queue, fn func(*BoardStatus)) (io.Closer, error) {
	return q.Subscribe(StatusTopic("+"), func(topic string, payload []byte) {
		if len(payload) == 0 {
			return
		}
		st := &BoardStatus{}
		if err := proto.Unmarshal(payload, st); err != nil {
			glog.Warningf("bad status on %s: %v", topic, err)
			return
		}
		if st.ID == "" {
			st.ID = strings.TrimSuffix(topic, "/status")
		}
		fn(st)
	})
}

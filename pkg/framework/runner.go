package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
)

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name. Errors from named Runnables
// are prefixed with the name.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

func nameOf(r Runnable) string {
	if named, ok := r.(Named); ok {
		return named.Name()
	}
	return ""
}

type runResult struct {
	name string
	err  error
}

// Runner runs Runnables on their own goroutines and collects errors.
type Runner struct {
	Context context.Context
	Runners []Runnable

	resultCh chan runResult
	exitCh   chan struct{}
}

// NewRunner creates a runner with a background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner with ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context:  ctx,
		resultCh: make(chan runResult, 1),
		exitCh:   make(chan struct{}),
	}
}

// HandleSignals cancels the context on Ctrl-C or SIGTERM, a second
// signal makes Wait return immediately.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	r.Context = ctx
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Go starts runnables with the runner context.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	return r.GoWith(r.Context, runnables...)
}

// GoWith starts runnables with ctx.
func (r *Runner) GoWith(ctx context.Context, runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		r.Runners = append(r.Runners, runnable)
		name := nameOf(runnable)
		go func(runnable Runnable) {
			glog.V(4).Infof("runner %q started", name)
			err := runnable.Run(ctx)
			glog.V(4).Infof("runner %q stopped: %v", name, err)
			r.resultCh <- runResult{name: name, err: err}
		}(runnable)
	}
	return r
}

// Wait waits for all Runnables to stop. Cancellation is not an error.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for range r.Runners {
		select {
		case <-r.exitCh:
			return errors.New("forced exit")
		case res := <-r.resultCh:
			switch {
			case res.err == nil, res.err == context.Canceled, res.err == context.DeadlineExceeded:
			case res.name != "":
				errs.Add(fmt.Errorf("%s: %v", res.name, res.err))
			default:
				errs.Add(res.err)
			}
		}
	}
	return errs.Aggregate()
}

// RunAll runs runnables until all of them stop. The first one stopping
// cancels the others.
func RunAll(ctx context.Context, runnables ...Runnable) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := NewRunnerWith(ctx)
	for _, r := range runnables {
		runner.Go(&cancelOnExit{Runnable: r, cancel: cancel})
	}
	return runner.Wait()
}

type cancelOnExit struct {
	Runnable
	cancel func()
}

func (r *cancelOnExit) Name() string {
	return nameOf(r.Runnable)
}

func (r *cancelOnExit) Run(ctx context.Context) error {
	defer r.cancel()
	return r.Runnable.Run(ctx)
}

// RunWithContextCancel runs fn which doesn't accept a context. onCancel
// is called when ctx is done and must make fn return.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if onCancel != nil {
		onCancel()
	}
	<-errCh
	return context.Canceled
}

// RunWithContext is RunWithContextCancel without a cancel callback.
func RunWithContext(ctx context.Context, fn func() error) error {
	return RunWithContextCancel(ctx, nil, fn)
}

// RunWithContextCloser closes closer on cancel, or after fn returns.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	closed := false
	err := RunWithContextCancel(ctx, func() {
		closer.Close()
		closed = true
	}, fn)
	if !closed {
		closer.Close()
	}
	return err
}

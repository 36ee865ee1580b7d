package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllCancelsOnFirstExit(t *testing.T) {
	errBroken := errors.New("broken")
	blocking := RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	failing := RunFunc(func(context.Context) error { return errBroken })

	done := make(chan error, 1)
	go func() { done <- RunAll(context.Background(), NamedRun("blocking", blocking), failing) }()
	select {
	case err := <-done:
		require.Error(t, err)
		agg, ok := err.(*AggregatedError)
		require.True(t, ok)
		assert.Equal(t, []error{errBroken}, agg.Errors)
	case <-time.After(time.Second):
		t.Fatal("RunAll didn't stop")
	}
}

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	closer := closeFunc(func() error {
		close(unblock)
		return nil
	})
	cancel()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-unblock
		return errors.New("closed")
	})
	assert.Equal(t, context.Canceled, err)
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	assert.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"), nil)
	assert.Equal(t, "a", errs.Aggregate().Error())
	errs.Add(errors.New("b"))
	assert.Equal(t, "2 errors: a; b", errs.Aggregate().Error())
}

func TestRunnerNamesErrors(t *testing.T) {
	err := NewRunner().Go(
		NamedRun("serial", RunFunc(func(context.Context) error { return errors.New("closed") })),
		RunFunc(func(context.Context) error { return context.Canceled }),
	).Wait()
	require.Error(t, err)
	assert.Equal(t, "serial: closed", err.Error())
}

package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"chat-relay/logs"

	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	runs    atomic.Int32
	outcome func(run int32) error
}

func (w *countingWorker) Run(ctx context.Context) error {
	run := w.runs.Add(1)
	return w.outcome(run)
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

func TestSupervisor_Restarts_Crashed_Worker(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given a worker that crashes twice then finishes
	worker := &countingWorker{outcome: func(run int32) error {
		if run < 3 {
			return fmt.Errorf("crash %d", run)
		}
		return nil
	}}

	sup := NewSupervisor(testLogger(), time.Millisecond)
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	// Then the supervisor drives it through both restarts
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor never drained")
	}
	req.Equal(int32(3), worker.runs.Load())
}

func TestSupervisor_Recovers_Panicking_Worker(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := &countingWorker{outcome: func(run int32) error {
		if run == 1 {
			panic("worker exploded")
		}
		return nil
	}}

	sup := NewSupervisor(testLogger(), time.Millisecond)
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("panic was not recovered")
	}
	req.Equal(int32(2), worker.runs.Load())
}

func TestSupervisor_Finished_Worker_Is_Not_Restarted(t *testing.T) {
	req := require.New(t)
	worker := &countingWorker{outcome: func(int32) error { return nil }}

	sup := NewSupervisor(testLogger(), time.Millisecond)
	sup.Add(worker)
	sup.Run(context.Background())

	req.Equal(int32(1), worker.runs.Load())
}

func TestSupervisor_Stop_Drains_Blocked_Workers(t *testing.T) {
	req := require.New(t)

	// Given a worker that only returns when its context is canceled
	worker := &countingWorker{}
	worker.outcome = func(int32) error { return nil }
	blocked := blockingWorker{}

	sup := NewSupervisor(testLogger(), time.Millisecond)
	sup.Add(worker, blocked)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	sup.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not drain the group")
	}
	req.Equal(int32(1), worker.runs.Load())
}

type blockingWorker struct{}

func (blockingWorker) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

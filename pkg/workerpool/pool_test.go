package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPoolProcessesTasks(t *testing.T) {
	var processed int64
	fn := func(ctx context.Context, task *Task) *Result {
		atomic.AddInt64(&processed, 1)
		return &Result{TaskID: task.ID, Success: true}
	}

	pool, err := New(Config{Workers: 2, QueueSize: 16, RetryDelay: time.Millisecond}, fn, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pool.Start()

	for i := 0; i < 5; i++ {
		if err := pool.Submit(&Task{ID: "t", Payload: i}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	deadline := time.After(2 * time.Second)
	for got := 0; got < 5; got++ {
		select {
		case r := <-pool.Results():
			if !r.Success {
				t.Errorf("task failed: %v", r.Error)
			}
		case <-deadline:
			t.Fatal("timed out waiting for results")
		}
	}

	if err := pool.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if n := atomic.LoadInt64(&processed); n != 5 {
		t.Errorf("processed = %d, want 5", n)
	}
}

func TestPoolRetriesThenFails(t *testing.T) {
	var attempts int64
	fn := func(ctx context.Context, task *Task) *Result {
		atomic.AddInt64(&attempts, 1)
		return &Result{TaskID: task.ID, Success: false, Error: errors.New("db down")}
	}

	pool, err := New(Config{Workers: 1, QueueSize: 4, MaxRetries: 2, RetryDelay: time.Millisecond}, fn, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pool.Start()

	if err := pool.Submit(&Task{ID: "failing"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case r := <-pool.Results():
		if r.Success {
			t.Error("expected failure")
		}
		if r.Error == nil {
			t.Error("expected wrapped error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	if n := atomic.LoadInt64(&attempts); n != 3 {
		t.Errorf("attempts = %d, want 1 + 2 retries", n)
	}
	if stats := pool.Stats(); stats.TasksRetried != 2 || stats.TasksFailed != 1 {
		t.Errorf("stats = %+v, want 2 retries and 1 failure", stats)
	}

	pool.Stop()
}

func TestPoolBackpressure(t *testing.T) {
	block := make(chan struct{})
	fn := func(ctx context.Context, task *Task) *Result {
		<-block
		return &Result{TaskID: task.ID, Success: true}
	}

	pool, err := New(Config{Workers: 1, QueueSize: 1, RetryDelay: time.Millisecond}, fn, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pool.Start()
	defer func() {
		close(block)
		pool.Stop()
	}()

	// The first task occupies the worker, the second fills the queue; two
	// more are enough to hit a full queue regardless of scheduling.
	sawFull := false
	for i := 0; i < 4; i++ {
		if err := pool.Submit(&Task{ID: "t"}); err != nil {
			sawFull = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !sawFull {
		t.Error("expected a queue-full error under backpressure")
	}
}

func TestSubmitAfterStop(t *testing.T) {
	fn := func(ctx context.Context, task *Task) *Result {
		return &Result{TaskID: task.ID, Success: true}
	}
	pool, err := New(Config{Workers: 1, QueueSize: 1}, fn, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pool.Start()
	pool.Stop()

	if err := pool.Submit(&Task{ID: "late"}); err == nil {
		t.Error("expected error submitting to a stopped pool")
	}
}

func TestNewRequiresWorkerFunc(t *testing.T) {
	if _, err := New(DefaultConfig(), nil, zap.NewNop()); err == nil {
		t.Error("expected error for nil worker function")
	}
}

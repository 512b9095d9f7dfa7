package ticker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/sensorboard/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingAdvancer records every Advance call.
type countingAdvancer struct {
	mu    sync.Mutex
	calls []int
	seq   uint64
}

func (c *countingAdvancer) Advance(steps int) store.Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, steps)
	c.seq += uint64(steps)
	return store.Tick{Seq: c.seq, Steps: steps, At: time.Now()}
}

func (c *countingAdvancer) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// TestScheduler_StopBeforeStart verifies that calling Stop() on a scheduler
// that was never started does not panic and is a safe no-op.
func TestScheduler_StopBeforeStart(t *testing.T) {
	scheduler := NewScheduler(&countingAdvancer{}, time.Minute, testLogger())

	// this must not panic
	scheduler.Stop()

	if _, ok := <-scheduler.Results(); ok {
		t.Error("expected results channel to be closed after Stop()")
	}
}

// TestScheduler_StopTwice verifies that Stop() is idempotent.
func TestScheduler_StopTwice(t *testing.T) {
	scheduler := NewScheduler(&countingAdvancer{}, time.Minute, testLogger())
	scheduler.Start(context.Background())

	// both calls must complete without panic or deadlock
	scheduler.Stop()
	scheduler.Stop()
}

// TestScheduler_StartAfterStop verifies that Start is a no-op once stopped.
func TestScheduler_StartAfterStop(t *testing.T) {
	adv := &countingAdvancer{}
	scheduler := NewScheduler(adv, 10*time.Millisecond, testLogger())
	scheduler.Stop()
	scheduler.Start(context.Background())

	time.Sleep(50 * time.Millisecond)

	if got := adv.callCount(); got != 0 {
		t.Errorf("expected no advances after Stop, got %d", got)
	}
}

// TestScheduler_DefaultInterval verifies non-positive intervals fall back.
func TestScheduler_DefaultInterval(t *testing.T) {
	scheduler := NewScheduler(&countingAdvancer{}, 0, testLogger())
	if scheduler.Interval() != DefaultInterval {
		t.Errorf("expected interval %v, got %v", DefaultInterval, scheduler.Interval())
	}
}

// TestScheduler_TimerTicks verifies the loop advances one step per interval
// and labels results as timer-triggered.
func TestScheduler_TimerTicks(t *testing.T) {
	adv := &countingAdvancer{}
	scheduler := NewScheduler(adv, 10*time.Millisecond, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	for i := 0; i < 3; i++ {
		select {
		case result := <-scheduler.Results():
			if result.Trigger != TriggerTimer {
				t.Errorf("expected trigger %q, got %q", TriggerTimer, result.Trigger)
			}
			if result.Tick.Steps != 1 {
				t.Errorf("expected 1 step per timer tick, got %d", result.Tick.Steps)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for timer result %d", i)
		}
	}
}

// TestScheduler_Step verifies manual bursts run on the loop and return the tick.
func TestScheduler_Step(t *testing.T) {
	adv := &countingAdvancer{}
	scheduler := NewScheduler(adv, time.Hour, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	go func() {
		for range scheduler.Results() {
		}
	}()

	tick, err := scheduler.Step(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick.Steps != 5 {
		t.Errorf("expected 5 steps, got %d", tick.Steps)
	}
	if tick.Seq != 5 {
		t.Errorf("expected seq 5, got %d", tick.Seq)
	}
}

// TestScheduler_StepEmitsManualResult verifies that a burst shows up on Results.
func TestScheduler_StepEmitsManualResult(t *testing.T) {
	scheduler := NewScheduler(&countingAdvancer{}, time.Hour, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	if _, err := scheduler.Step(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case result := <-scheduler.Results():
		if result.Trigger != TriggerManual {
			t.Errorf("expected trigger %q, got %q", TriggerManual, result.Trigger)
		}
		if result.Tick.Steps != 3 {
			t.Errorf("expected 3 steps, got %d", result.Tick.Steps)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for manual result")
	}
}

// TestScheduler_StepNotRunning verifies Step before Start and after Stop.
func TestScheduler_StepNotRunning(t *testing.T) {
	scheduler := NewScheduler(&countingAdvancer{}, time.Hour, testLogger())

	if _, err := scheduler.Step(context.Background(), 1); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning before Start, got %v", err)
	}

	scheduler.Start(context.Background())
	scheduler.Stop()

	if _, err := scheduler.Step(context.Background(), 1); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped after Stop, got %v", err)
	}
}

// TestScheduler_StepContextCancelled verifies Step honours its own context.
func TestScheduler_StepContextCancelled(t *testing.T) {
	scheduler := NewScheduler(&countingAdvancer{}, time.Hour, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	// fill the undrained results buffer
	for i := 0; i < cap(scheduler.results); i++ {
		if _, err := scheduler.Step(context.Background(), 1); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	// this burst completes but the loop then blocks emitting its result
	if _, err := scheduler.Step(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := scheduler.Step(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

// TestScheduler_StepAfterContextCancel verifies Step reports ErrStopped when
// the start context ends the loop without an explicit Stop.
func TestScheduler_StepAfterContextCancel(t *testing.T) {
	scheduler := NewScheduler(&countingAdvancer{}, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	cancel()
	defer scheduler.Stop()

	if _, err := scheduler.Step(context.Background(), 1); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

// TestScheduler_ContextCancellation verifies that cancelling the start
// context stops the loop and closes Results.
func TestScheduler_ContextCancellation(t *testing.T) {
	scheduler := NewScheduler(&countingAdvancer{}, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-scheduler.Results():
			if !ok {
				scheduler.Stop()
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for results channel to close")
		}
	}
}

// TestScheduler_ConcurrentSteps verifies bursts from many goroutines are
// serialized onto the loop without loss.
func TestScheduler_ConcurrentSteps(t *testing.T) {
	adv := &countingAdvancer{}
	scheduler := NewScheduler(adv, time.Hour, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	go func() {
		for range scheduler.Results() {
		}
	}()

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := scheduler.Step(context.Background(), 2); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := adv.callCount(); got != workers {
		t.Errorf("expected %d advances, got %d", workers, got)
	}
	adv.mu.Lock()
	defer adv.mu.Unlock()
	if adv.seq != workers*2 {
		t.Errorf("expected seq %d, got %d", workers*2, adv.seq)
	}
}

// TestScheduler_DrivesHub runs the scheduler against a real hub.
func TestScheduler_DrivesHub(t *testing.T) {
	st, err := store.New(store.DefaultCatalog(), store.WithSeed(7))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	hub := store.NewHub(st)

	scheduler := NewScheduler(hub, time.Hour, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	go func() {
		for range scheduler.Results() {
		}
	}()

	tick, err := scheduler.Step(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tick.States) != len(store.DefaultCatalog()) {
		t.Errorf("expected %d states, got %d", len(store.DefaultCatalog()), len(tick.States))
	}
	if got := len(hub.History("flow")); got != store.HistorySize {
		t.Errorf("expected history length %d, got %d", store.HistorySize, got)
	}
}

package ticker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/sensorboard/internal/store"
)

// DefaultInterval is used when a scheduler is created with a non-positive interval.
const DefaultInterval = 4 * time.Second

var (
	// ErrNotRunning is returned by [Scheduler.Step] before Start.
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrStopped is returned by [Scheduler.Step] once the loop has exited.
	ErrStopped = errors.New("scheduler stopped")
)

// Trigger identifies what caused an advance.
type Trigger string

const (
	TriggerTimer  Trigger = "timer"
	TriggerManual Trigger = "manual"
)

// Advancer is the simulation the scheduler drives. [store.Hub] implements it.
type Advancer interface {
	Advance(steps int) store.Tick
}

// Result holds the outcome of one scheduled or manual advance.
type Result struct {
	// Tick is the catalog state after the advance.
	Tick store.Tick

	// Trigger is what caused the advance.
	Trigger Trigger

	// Duration is the time spent inside Advance.
	Duration time.Duration
}

// stepRequest asks the loop goroutine for a burst of advances.
type stepRequest struct {
	steps int
	reply chan store.Tick
}

// Scheduler advances a simulation on a fixed interval and on demand.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	advancer Advancer
	interval time.Duration
	results  chan Result
	requests chan stepRequest
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
}

// NewScheduler creates a new [Scheduler].
//
// Parameters:
//   - advancer: the simulation to drive
//   - interval: time between timer ticks (DefaultInterval if not positive)
//   - logger: logger for scheduler events
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. Results are available via [Scheduler.Results].
func NewScheduler(advancer Advancer, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		advancer: advancer,
		interval: interval,
		results:  make(chan Result, 16),
		requests: make(chan stepRequest),
		logger:   logger,
	}
}

// Interval returns the time between timer ticks.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Results returns a receive-only channel that emits [Result] values.
//
// The channel is closed when the scheduler stops. Consumers should read
// until it is closed; an undrained channel eventually stalls the loop.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// Start begins the simulation loop in a background goroutine.
//
// Start is non-blocking. The loop advances once per interval and serves
// [Scheduler.Step] requests until [Scheduler.Stop] is called or ctx is
// cancelled. If ctx is nil, context.Background() is used.
// Start is idempotent; if Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	loopCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.run(loopCtx, 1, TriggerTimer, nil)
			case req := <-s.requests:
				s.run(loopCtx, req.steps, TriggerManual, req.reply)
			}
		}
	}()
}

// Stop halts the scheduler and waits for the loop goroutine to exit.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op that still closes the results channel.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.closeOnce.Do(func() { close(s.results) })
}

// Step runs a burst of steps advances on the loop goroutine and returns the
// resulting tick. It blocks until the burst completes, ctx is done, or the
// scheduler stops.
func (s *Scheduler) Step(ctx context.Context, steps int) (store.Tick, error) {
	s.mu.Lock()
	started, stopped := s.started, s.stopped
	loopCtx := s.ctx
	s.mu.Unlock()

	if stopped {
		return store.Tick{}, ErrStopped
	}
	if !started {
		return store.Tick{}, ErrNotRunning
	}
	if loopCtx.Err() != nil {
		return store.Tick{}, ErrStopped
	}

	req := stepRequest{steps: steps, reply: make(chan store.Tick, 1)}

	select {
	case s.requests <- req:
	case <-ctx.Done():
		return store.Tick{}, ctx.Err()
	case <-loopCtx.Done():
		return store.Tick{}, ErrStopped
	}

	select {
	case tick := <-req.reply:
		return tick, nil
	case <-ctx.Done():
		return store.Tick{}, ctx.Err()
	case <-loopCtx.Done():
		return store.Tick{}, ErrStopped
	}
}

// run performs one advance, answers the requester, and emits a Result.
func (s *Scheduler) run(ctx context.Context, steps int, trigger Trigger, reply chan<- store.Tick) {
	start := time.Now()
	tick := s.advancer.Advance(steps)
	elapsed := time.Since(start)

	if reply != nil {
		reply <- tick
	}

	select {
	case s.results <- Result{Tick: tick, Trigger: trigger, Duration: elapsed}:
	case <-ctx.Done():
	}
}

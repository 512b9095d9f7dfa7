package store

import (
	"sync"
	"testing"
	"time"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	return NewHub(newTestStore(t))
}

func TestHub_AdvanceCountsSteps(t *testing.T) {
	hub := newTestHub(t)

	tick := hub.Advance(1)
	if tick.Seq != 1 || tick.Steps != 1 {
		t.Errorf("first tick = seq %d steps %d, want 1/1", tick.Seq, tick.Steps)
	}

	tick = hub.Advance(5)
	if tick.Seq != 6 || tick.Steps != 5 {
		t.Errorf("burst tick = seq %d steps %d, want 6/5", tick.Seq, tick.Steps)
	}

	tick = hub.Advance(0)
	if tick.Steps != 1 {
		t.Errorf("Advance(0).Steps = %d, want 1", tick.Steps)
	}
}

func TestHub_BurstAdvancesHistory(t *testing.T) {
	hub := newTestHub(t)
	before, _ := hub.store.Latest("flow")

	tick := hub.Advance(5)

	after, _ := hub.store.Latest("flow")
	if want := before.Timestamp.Add(5 * SamplingInterval); !after.Timestamp.Equal(want) {
		t.Errorf("latest timestamp = %v, want %v", after.Timestamp, want)
	}
	if len(tick.States) != len(DefaultCatalog()) {
		t.Errorf("len(tick.States) = %d, want %d", len(tick.States), len(DefaultCatalog()))
	}
	if len(hub.History("flow")) != HistorySize {
		t.Errorf("len(History) = %d, want %d", len(hub.History("flow")), HistorySize)
	}
}

func TestHub_TickStatesMatchSensors(t *testing.T) {
	hub := newTestHub(t)
	tick := hub.Advance(1)
	sensors := hub.Sensors()

	for i, state := range tick.States {
		if state.ID != sensors[i].ID || state.CurrentValue != sensors[i].CurrentValue {
			t.Errorf("tick.States[%d] = %s/%v, want %s/%v",
				i, state.ID, state.CurrentValue, sensors[i].ID, sensors[i].CurrentValue)
		}
	}
}

func TestHub_Subscribe(t *testing.T) {
	hub := newTestHub(t)

	ch := hub.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() = nil")
	}

	go hub.Advance(1)

	select {
	case tick := <-ch:
		if tick.Seq != 1 {
			t.Errorf("received Seq = %d, want 1", tick.Seq)
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive tick")
	}
}

func TestHub_MultipleSubscribers(t *testing.T) {
	hub := newTestHub(t)

	ch1 := hub.Subscribe()
	ch2 := hub.Subscribe()
	ch3 := hub.Subscribe()

	go hub.Advance(1)

	received := 0
	timeout := time.After(1 * time.Second)

	for received < 3 {
		select {
		case <-ch1:
			received++
		case <-ch2:
			received++
		case <-ch3:
			received++
		case <-timeout:
			t.Fatalf("Only received %d/3 ticks", received)
		}
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := newTestHub(t)

	ch := hub.Subscribe()
	hub.Unsubscribe(ch)
	hub.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Unsubscribe() channel should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := newTestHub(t)

	// never read
	_ = hub.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Advance(1)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Advance() blocked on slow subscriber")
	}
}

func TestHub_QueriesDelegate(t *testing.T) {
	hub := newTestHub(t)
	hub.Advance(1)

	if got := hub.History("does-not-exist"); len(got) != 0 {
		t.Errorf("History(unknown) = %v, want empty", got)
	}
	if got := len(hub.RecentHistory("temp-line", 5)); got != 5 {
		t.Errorf("len(RecentHistory) = %d, want 5", got)
	}
	if _, ok := hub.Sensor("temp-line"); !ok {
		t.Error("Sensor(temp-line) not found")
	}

	sum := hub.Summary()
	if sum.Total != len(DefaultCatalog()) {
		t.Errorf("Summary().Total = %d, want %d", sum.Total, len(DefaultCatalog()))
	}
	if sum.Alerts != len(hub.Alerts()) {
		t.Errorf("Summary().Alerts = %d, want %d", sum.Alerts, len(hub.Alerts()))
	}
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := newTestHub(t)

	var wg sync.WaitGroup
	numGoroutines := 10
	numOps := 50

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				hub.Advance(1)
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				_ = hub.States()
				_ = hub.History("flow")
				_ = hub.Alerts()
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := hub.Subscribe()
			time.Sleep(10 * time.Millisecond)
			hub.Unsubscribe(ch)
		}()
	}

	wg.Wait()

	if got := len(hub.History("flow")); got != HistorySize {
		t.Errorf("len(History) = %d, want %d", got, HistorySize)
	}
}

package store

import (
	"sync"
	"time"
)

// subscriberBuffer is the channel capacity handed to each subscriber.
const subscriberBuffer = 100

// Tick describes the catalog after one or more calls to Advance.
type Tick struct {
	// Seq counts completed advances since the hub was created.
	Seq uint64 `json:"seq"`

	// Steps is the number of advances folded into this tick (1 for timer
	// ticks, the burst size for manual steps).
	Steps int `json:"steps"`

	// At is the wall-clock time the tick completed.
	At time.Time `json:"at"`

	// States is every sensor after the tick, catalog order.
	States []SensorState `json:"sensors"`
}

// Hub serializes access to a [SignalStore] and fans ticks out to subscribers.
//
// All SignalStore calls happen under the hub's lock, so readers and the
// simulation loop may run on different goroutines. Subscribers receive ticks
// via buffered channels (buffer size 100); sends are non-blocking and a full
// subscriber simply misses the tick.
type Hub struct {
	mu    sync.RWMutex
	store *SignalStore
	seq   uint64
	now   func() time.Time

	subMu       sync.RWMutex
	subscribers map[chan Tick]struct{}
}

// NewHub wraps st. The hub takes ownership; st must not be used directly afterwards.
func NewHub(st *SignalStore) *Hub {
	return &Hub{
		store:       st,
		now:         time.Now,
		subscribers: make(map[chan Tick]struct{}),
	}
}

// Advance runs steps advances back to back and notifies all subscribers once.
// A steps value below 1 is treated as 1.
func (h *Hub) Advance(steps int) Tick {
	if steps < 1 {
		steps = 1
	}

	h.mu.Lock()
	for i := 0; i < steps; i++ {
		h.store.Advance()
	}
	h.seq += uint64(steps)
	tick := Tick{
		Seq:    h.seq,
		Steps:  steps,
		At:     h.now(),
		States: h.store.States(),
	}
	h.mu.Unlock()

	h.notifySubscribers(tick)
	return tick
}

// Sensors returns every sensor in catalog order.
func (h *Hub) Sensors() []Sensor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store.Sensors()
}

// Sensor returns the sensor with the given id.
func (h *Hub) Sensor(id string) (Sensor, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store.Sensor(id)
}

// States returns the current state of every sensor in catalog order.
func (h *Hub) States() []SensorState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store.States()
}

// History returns the full rolling window for id; empty for an unknown id.
func (h *Hub) History(id string) []Reading {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store.History(id)
}

// RecentHistory returns the newest count readings for id; empty for an unknown id.
func (h *Hub) RecentHistory(id string, count int) []Reading {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store.RecentHistory(id, count)
}

// Alerts returns sensors classified low or high, catalog order.
func (h *Hub) Alerts() []Sensor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store.Alerts()
}

// Summary returns status counts and per-sensor states.
func (h *Hub) Summary() Summary {
	return Summarize(h.States())
}

// Subscribe creates a new subscription and returns a channel for receiving ticks.
//
// Caller must call [Hub.Unsubscribe] when done to prevent resource leaks.
func (h *Hub) Subscribe() <-chan Tick {
	ch := make(chan Tick, subscriberBuffer)

	h.subMu.Lock()
	h.subscribers[ch] = struct{}{}
	h.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (h *Hub) Unsubscribe(ch <-chan Tick) {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	for subCh := range h.subscribers {
		if subCh == ch {
			delete(h.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the tick to every subscriber without blocking.
func (h *Hub) notifySubscribers(tick Tick) {
	h.subMu.RLock()
	defer h.subMu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- tick:
		default:
			// subscriber is slow, drop the tick
		}
	}
}

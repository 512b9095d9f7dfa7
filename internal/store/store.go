package store

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	// HistorySize is the capacity of every sensor's rolling history.
	HistorySize = 240

	// SamplingInterval is the simulated time between consecutive readings.
	SamplingInterval = time.Minute
)

// SignalStore owns the sensor catalog and one [History] per sensor.
//
// SignalStore is the sole mutator of sensor values and histories. It is not
// safe for concurrent use; wrap it in a [Hub] when more than one goroutine
// needs access.
type SignalStore struct {
	sensors []*Sensor
	history map[string]*History
	rng     *rand.Rand
}

// storeConfig holds mutable state during SignalStore construction.
type storeConfig struct {
	rng *rand.Rand
	now func() time.Time
}

// Option configures a [SignalStore] during construction.
type Option func(*storeConfig)

// WithSeed makes the random walk reproducible.
func WithSeed(seed uint64) Option {
	return func(cfg *storeConfig) {
		cfg.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand sets the random source used by [Perturb]. Nil is ignored.
func WithRand(rng *rand.Rand) Option {
	return func(cfg *storeConfig) {
		if rng != nil {
			cfg.rng = rng
		}
	}
}

// WithClock sets the clock used to anchor the seeded history. Nil is ignored.
func WithClock(now func() time.Time) Option {
	return func(cfg *storeConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// New creates a SignalStore for the given catalog and seeds every sensor
// with [HistorySize] readings at [SamplingInterval] spacing ending at now.
//
// The catalog is copied; order is preserved and becomes the stable catalog
// order for the store's lifetime. Returns an error if the catalog is empty,
// contains a duplicate id, or any sensor fails [Sensor.Validate].
func New(catalog []Sensor, opts ...Option) (*SignalStore, error) {
	if len(catalog) == 0 {
		return nil, errors.New("sensor catalog is empty")
	}

	cfg := &storeConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := &SignalStore{
		sensors: make([]*Sensor, 0, len(catalog)),
		history: make(map[string]*History, len(catalog)),
		rng:     cfg.rng,
	}

	for i, sensor := range catalog {
		if err := sensor.Validate(); err != nil {
			return nil, fmt.Errorf("catalog[%d]: %w", i, err)
		}
		if _, exists := s.history[sensor.ID]; exists {
			return nil, fmt.Errorf("catalog[%d]: duplicate sensor id %q", i, sensor.ID)
		}
		s.sensors = append(s.sensors, &sensor)
		s.history[sensor.ID] = NewHistory(HistorySize)
	}

	s.seed(cfg.now().UTC())
	return s, nil
}

// seed fills every history with a synthetic trailing window ending at now.
func (s *SignalStore) seed(now time.Time) {
	start := now.Add(-SamplingInterval * HistorySize)
	for _, sensor := range s.sensors {
		series := s.history[sensor.ID]
		value := sensor.Nominal
		for i := 0; i < HistorySize; i++ {
			value = Perturb(*sensor, value, s.rng)
			series.Push(Reading{
				Timestamp: start.Add(SamplingInterval * time.Duration(i)),
				Value:     value,
			})
		}
		sensor.CurrentValue = value
	}
}

// Advance moves every sensor forward by one sampling interval.
//
// Each new reading is perturbed from the previous value and timestamped one
// [SamplingInterval] after the previous reading. It is the only mutator of
// sensor state after construction.
func (s *SignalStore) Advance() {
	for _, sensor := range s.sensors {
		series := s.history[sensor.ID]
		prev, ok := series.Last()
		if !ok {
			prev = Reading{Timestamp: time.Now().UTC().Add(-SamplingInterval), Value: sensor.Nominal}
		}
		next := Reading{
			Timestamp: prev.Timestamp.Add(SamplingInterval),
			Value:     Perturb(*sensor, prev.Value, s.rng),
		}
		series.Push(next)
		sensor.CurrentValue = next.Value
	}
}

// Sensors returns a copy of every sensor in catalog order.
func (s *SignalStore) Sensors() []Sensor {
	out := make([]Sensor, len(s.sensors))
	for i, sensor := range s.sensors {
		out[i] = *sensor
	}
	return out
}

// Sensor returns a copy of the sensor with the given id.
func (s *SignalStore) Sensor(id string) (Sensor, bool) {
	for _, sensor := range s.sensors {
		if sensor.ID == id {
			return *sensor, true
		}
	}
	return Sensor{}, false
}

// History returns the full rolling window for id, oldest first.
// An unknown id yields an empty slice.
func (s *SignalStore) History(id string) []Reading {
	series, ok := s.history[id]
	if !ok {
		return []Reading{}
	}
	return series.All()
}

// RecentHistory returns the newest count readings for id, oldest first.
// An unknown id or a count below 1 yields an empty slice.
func (s *SignalStore) RecentHistory(id string, count int) []Reading {
	series, ok := s.history[id]
	if !ok {
		return []Reading{}
	}
	return series.Tail(count)
}

// Latest returns the newest reading for id.
func (s *SignalStore) Latest(id string) (Reading, bool) {
	series, ok := s.history[id]
	if !ok {
		return Reading{}, false
	}
	return series.Last()
}

// Alerts returns the sensors currently classified low or high, in catalog order.
func (s *SignalStore) Alerts() []Sensor {
	out := []Sensor{}
	for _, sensor := range s.sensors {
		if sensor.IsAlert() {
			out = append(out, *sensor)
		}
	}
	return out
}

// States returns the wire representation of every sensor, catalog order.
func (s *SignalStore) States() []SensorState {
	out := make([]SensorState, len(s.sensors))
	for i, sensor := range s.sensors {
		latest, _ := s.history[sensor.ID].Last()
		out[i] = SensorState{
			Sensor:    *sensor,
			Status:    sensor.Status(),
			UpdatedAt: latest.Timestamp,
		}
	}
	return out
}

package sensorboard

import (
	"time"

	"github.com/jpalmerr/sensorboard/internal/store"
)

func snapshotFromStore(st store.SensorState) SensorSnapshot {
	return SensorSnapshot{
		ID:        st.ID,
		Name:      st.Name,
		Unit:      st.Unit,
		Location:  st.Location,
		Nominal:   st.Nominal,
		Minimum:   st.Minimum,
		Maximum:   st.Maximum,
		Value:     st.CurrentValue,
		Status:    Status(st.Status),
		UpdatedAt: st.UpdatedAt,
	}
}

func snapshotsFromStore(states []store.SensorState) []SensorSnapshot {
	out := make([]SensorSnapshot, len(states))
	for i, st := range states {
		out[i] = snapshotFromStore(st)
	}
	return out
}

func (s SensorSnapshot) toStore() store.SensorState {
	return store.SensorState{
		Sensor: store.Sensor{
			ID:           s.ID,
			Name:         s.Name,
			Unit:         s.Unit,
			Location:     s.Location,
			Nominal:      s.Nominal,
			Minimum:      s.Minimum,
			Maximum:      s.Maximum,
			CurrentValue: s.Value,
		},
		Status:    store.Status(s.Status),
		UpdatedAt: s.UpdatedAt,
	}
}

func readingsFromStore(readings []store.Reading) []Reading {
	out := make([]Reading, len(readings))
	for i, r := range readings {
		out[i] = Reading{Timestamp: r.Timestamp, Value: r.Value}
	}
	return out
}

func tickFromStore(tick store.Tick, trigger string, duration time.Duration) TickResult {
	return TickResult{
		Seq:      tick.Seq,
		Steps:    tick.Steps,
		Trigger:  trigger,
		At:       tick.At,
		Duration: duration,
		Sensors:  snapshotsFromStore(tick.States),
	}
}

func (t TickResult) toStore() store.Tick {
	states := make([]store.SensorState, len(t.Sensors))
	for i, s := range t.Sensors {
		states[i] = s.toStore()
	}
	return store.Tick{Seq: t.Seq, Steps: t.Steps, At: t.At, States: states}
}

func summaryFromStore(sum store.Summary) Summary {
	counts := make(map[Status]int, len(sum.Counts))
	for k, v := range sum.Counts {
		counts[Status(k)] = v
	}
	return Summary{
		Total:   sum.Total,
		Counts:  counts,
		Alerts:  sum.Alerts,
		Sensors: snapshotsFromStore(sum.Sensors),
	}
}

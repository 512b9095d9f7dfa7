package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jpalmerr/sensorboard/internal/store"
)

// Sink receives every tick produced by the simulation.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Publish delivers one tick. It should honour ctx cancellation.
	Publish(ctx context.Context, tick store.Tick) error

	// Close releases connections. It is called once on shutdown.
	Close() error
}

// Message is the telemetry record emitted for one sensor on one tick.
type Message struct {
	Source    string       `json:"source"`
	Seq       uint64       `json:"seq"`
	Sensor    string       `json:"sensor"`
	Name      string       `json:"name"`
	Unit      string       `json:"unit,omitempty"`
	Location  string       `json:"location,omitempty"`
	Value     float64      `json:"value"`
	Status    store.Status `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
}

// Messages flattens a tick into one [Message] per sensor, catalog order.
func Messages(source string, tick store.Tick) []Message {
	out := make([]Message, len(tick.States))
	for i, st := range tick.States {
		out[i] = Message{
			Source:    source,
			Seq:       tick.Seq,
			Sensor:    st.ID,
			Name:      st.Name,
			Unit:      st.Unit,
			Location:  st.Location,
			Value:     st.CurrentValue,
			Status:    st.Status,
			Timestamp: st.UpdatedAt,
		}
	}
	return out
}

// Error reports a failed publish on one sink.
type Error struct {
	Sink string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Multi publishes to every sink in order. A failing sink does not stop the
// others; all failures are returned joined as [*Error] values.
type Multi []Sink

func (m Multi) Name() string {
	return "multi"
}

func (m Multi) Publish(ctx context.Context, tick store.Tick) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, tick); err != nil {
			errs = append(errs, &Error{Sink: s.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, &Error{Sink: s.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

// FailedSinks returns the names of the sinks that failed in err, as produced
// by [Multi.Publish] or [Multi.Close].
func FailedSinks(err error) []string {
	if err == nil {
		return nil
	}
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	var names []string
	for _, e := range errs {
		var se *Error
		if errors.As(e, &se) {
			names = append(names, se.Sink)
		}
	}
	return names
}

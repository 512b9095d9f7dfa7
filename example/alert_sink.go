package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jpalmerr/sensorboard"
)

// alertSink is a custom sensorboard.Sink that prints a line whenever a
// sensor enters or leaves an alert state.
type alertSink struct {
	mu       sync.Mutex
	out      io.Writer
	alerting map[string]bool
}

func newAlertSink(out io.Writer) *alertSink {
	return &alertSink{out: out, alerting: make(map[string]bool)}
}

func (a *alertSink) Name() string { return "stdout-alerts" }

func (a *alertSink) Publish(_ context.Context, tick sensorboard.TickResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, s := range tick.Sensors {
		was := a.alerting[s.ID]
		now := s.Status.IsAlert()
		switch {
		case now && !was:
			if _, err := fmt.Fprintf(a.out, "[%s] ALERT %s (%s) is %s at %.2f %s\n",
				tick.At.Format("15:04:05"), s.Name, s.Location, s.Status, s.Value, s.Unit); err != nil {
				return err
			}
		case !now && was:
			if _, err := fmt.Fprintf(a.out, "[%s] CLEAR %s back to %s at %.2f %s\n",
				tick.At.Format("15:04:05"), s.Name, s.Status, s.Value, s.Unit); err != nil {
				return err
			}
		}
		a.alerting[s.ID] = now
	}
	return nil
}

func (a *alertSink) Close() error { return nil }

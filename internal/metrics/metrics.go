// Package metrics exposes SensorBoard's Prometheus instrumentation.
//
// Each [Metrics] owns its own registry so that several boards (and tests)
// can coexist in one process without duplicate registration panics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/sensorboard/internal/store"
)

const namespace = "sensorboard"

// statuses lists every status that gets a series in the status gauge.
var statuses = []store.Status{store.StatusNormal, store.StatusCaution, store.StatusLow, store.StatusHigh}

type Metrics struct {
	registry *prometheus.Registry

	sensorValue  *prometheus.GaugeVec
	sensorStatus *prometheus.GaugeVec
	alerts       prometheus.Gauge
	ticksTotal   *prometheus.CounterVec
	tickDuration prometheus.Histogram
	sinkErrors   *prometheus.CounterVec

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sensorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_value",
			Help:      "Current simulated value of each sensor.",
		}, []string{"sensor", "unit"}),
		sensorStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_status",
			Help:      "1 for the sensor's current status, 0 for the others.",
		}, []string{"sensor", "status"}),
		alerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts",
			Help:      "Number of sensors currently outside their hard bounds.",
		}),
		ticksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advances_total",
			Help:      "Total simulation advances by trigger.",
		}, []string{"trigger"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Histogram of time spent advancing the simulation per tick.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Total telemetry sink publish failures.",
		}, []string{"sink"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sensorValue,
		m.sensorStatus,
		m.alerts,
		m.ticksTotal,
		m.tickDuration,
		m.sinkErrors,
		m.httpRequestsTotal,
		m.httpDuration,
	)

	return m
}

// ObserveTick records one completed advance and the resulting sensor states.
// steps is added to the trigger's counter so bursts count every advance.
func (m *Metrics) ObserveTick(trigger string, steps int, duration time.Duration, states []store.SensorState) {
	if m == nil {
		return
	}
	m.ticksTotal.WithLabelValues(trigger).Add(float64(steps))
	m.tickDuration.Observe(duration.Seconds())
	m.SetStates(states)
}

// SetStates updates the per-sensor value and status gauges and the alert count.
func (m *Metrics) SetStates(states []store.SensorState) {
	if m == nil {
		return
	}
	alerts := 0
	for _, st := range states {
		m.sensorValue.WithLabelValues(st.ID, st.Unit).Set(st.CurrentValue)
		for _, status := range statuses {
			v := 0.0
			if st.Status == status {
				v = 1
			}
			m.sensorStatus.WithLabelValues(st.ID, string(status)).Set(v)
		}
		if st.Status == store.StatusLow || st.Status == store.StatusHigh {
			alerts++
		}
	}
	m.alerts.Set(float64(alerts))
}

// SinkError counts a failed publish on the named sink.
func (m *Metrics) SinkError(sink string) {
	if m == nil {
		return
	}
	m.sinkErrors.WithLabelValues(sink).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// WrapHandler counts requests and their duration under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

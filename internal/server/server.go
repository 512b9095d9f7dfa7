package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/jpalmerr/sensorboard/internal/metrics"
	"github.com/jpalmerr/sensorboard/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "SensorBoard"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	// detailReadings is the number of recent readings in a sensor detail response.
	detailReadings = 5
)

// Hub is the read and subscribe surface the server needs. [store.Hub] implements it.
type Hub interface {
	States() []store.SensorState
	Sensor(id string) (store.Sensor, bool)
	History(id string) []store.Reading
	RecentHistory(id string, count int) []store.Reading
	Alerts() []store.Sensor
	Summary() store.Summary
	Subscribe() <-chan store.Tick
	Unsubscribe(ch <-chan store.Tick)
}

// StepFunc runs one manual burst of advances and returns the resulting tick.
type StepFunc func(ctx context.Context) (store.Tick, error)

// Option configures optional server features.
type Option func(*Server)

// WithStep enables POST /api/step.
func WithStep(fn StepFunc) Option {
	return func(s *Server) {
		s.step = fn
	}
}

// WithMetrics enables GET /metrics and per-route request instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server handles HTTP requests for the SensorBoard dashboard and API.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	hub        Hub
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
	step       StepFunc
	metrics    *metrics.Metrics

	mu   sync.Mutex
	addr net.Addr
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - hub: source of sensor state and tick notifications
//   - port: TCP port to listen on
//   - assets: Embedded filesystem containing dashboard assets (may be nil)
//   - title: Dashboard title (defaults to "SensorBoard" if empty)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(hub Hub, port int, assets fs.FS, title string, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		hub:    hub,
		port:   port,
		assets: assets,
		title:  title,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument, s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sensors", s.handleSensors).Methods(http.MethodGet)
	api.HandleFunc("/sensors/{id}", s.handleSensor).Methods(http.MethodGet)
	api.HandleFunc("/sensors/{id}/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.handleAlerts).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/step", s.handleStep).Methods(http.MethodPost)
	api.HandleFunc("/sse", s.handleSSE).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	if s.assets != nil {
		r.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)
	return recovery(cors(r))
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleSensors returns the current state of every sensor.
func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.hub.States())
}

// sensorDetail is the response body of GET /api/sensors/{id}.
type sensorDetail struct {
	store.SensorState
	Chart  store.ChartRange `json:"chart"`
	Recent []store.Reading  `json:"recent"`
}

// handleSensor returns one sensor with its chart range and latest readings.
func (s *Server) handleSensor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sensor, ok := s.hub.Sensor(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown sensor %q", id))
		return
	}

	recent := s.hub.RecentHistory(id, detailReadings)
	var updated time.Time
	if len(recent) > 0 {
		updated = recent[len(recent)-1].Timestamp
	}

	s.writeJSON(w, http.StatusOK, sensorDetail{
		SensorState: store.SensorState{Sensor: sensor, Status: sensor.Status(), UpdatedAt: updated},
		Chart:       store.ChartRangeFor(sensor),
		Recent:      recent,
	})
}

// handleHistory returns the rolling window of a sensor, or its newest count
// readings. Unknown ids yield an empty array.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	raw := r.URL.Query().Get("count")
	if raw == "" {
		s.writeJSON(w, http.StatusOK, s.hub.History(id))
		return
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("count must be a non-negative integer, got %q", raw))
		return
	}
	s.writeJSON(w, http.StatusOK, s.hub.RecentHistory(id, count))
}

// handleAlerts returns the sensors currently outside their hard bounds.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.hub.Alerts())
}

// handleSummary returns status counts and per-sensor states.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.hub.Summary())
}

// handleStep runs one manual burst and returns the resulting tick.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if s.step == nil {
		s.writeError(w, http.StatusNotImplemented, "manual stepping is not enabled")
		return
	}

	tick, err := s.step(r.Context())
	if err != nil {
		s.logger.Warn("manual step failed", "error", err)
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, tick)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSSE streams ticks via Server-Sent Events.
//
// The first event carries the current state so a new client renders
// immediately. The handler uses write deadlines to prevent goroutine leaks
// when clients are slow or disconnected.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	initial, err := json.Marshal(store.Tick{At: time.Now().UTC(), States: s.hub.States()})
	if err == nil {
		if err := writeAndFlush(initial); err != nil {
			return
		}
	}

	for {
		select {
		case tick, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(tick)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/sensorboard/internal/store"
)

const maxResponseBodySize = 1 << 20 // 1MB

// DefaultTimeout bounds each request when no timeout is given.
const DefaultTimeout = 5 * time.Second

const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 2
	defaultIdleConnTimeout     = 60 * time.Second
)

// Response holds the raw result of an HTTP request made by [Client].
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code.
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any error that occurred during the request.
	Error error
}

// Snapshot is the combined view returned by [Client.Snapshot].
type Snapshot struct {
	Sensors []store.SensorState
	Alerts  []store.Sensor
	Latency time.Duration
}

// Client talks to one SensorBoard instance.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a [Client] for the board at baseURL (for example
// "http://localhost:8080"). A non-positive timeout uses [DefaultTimeout].
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid board url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid board url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid board url %q: missing host", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		timeout: timeout,
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}, nil
}

// Fetch performs a request against path on the board and returns a structured
// [Response]. If method is empty, GET is used.
//
// Fetch always returns a Response; errors are captured in the Error field.
func (c *Client) Fetch(ctx context.Context, method, path string) Response {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Sensors fetches the current state of every sensor.
func (c *Client) Sensors(ctx context.Context) ([]store.SensorState, time.Duration, error) {
	var out []store.SensorState
	latency, err := c.getJSON(ctx, "/api/sensors", &out)
	return out, latency, err
}

// Alerts fetches the sensors currently out of range.
func (c *Client) Alerts(ctx context.Context) ([]store.Sensor, time.Duration, error) {
	var out []store.Sensor
	latency, err := c.getJSON(ctx, "/api/alerts", &out)
	return out, latency, err
}

// Snapshot fetches sensors and alerts in sequence.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	sensors, l1, err := c.Sensors(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	alerts, l2, err := c.Alerts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Sensors: sensors, Alerts: alerts, Latency: l1 + l2}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) (time.Duration, error) {
	resp := c.Fetch(ctx, http.MethodGet, path)
	if resp.Error != nil {
		return resp.Latency, fmt.Errorf("GET %s: %w", path, resp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return resp.Latency, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return resp.Latency, fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return resp.Latency, nil
}

// Close closes all idle connections in the client's connection pool.
// Safe to call multiple times and on a nil client.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

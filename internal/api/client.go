// REST client for the scarecrow backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"scarecrow-ops/internal/flight"
)

// Client wraps the backend REST surface under /api. Every method is a
// single round trip: no retry, no backoff, no batching. A non-2xx response
// is normalized into a fixed human-readable error per operation; error
// bodies are never inspected.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a Client for baseURL, e.g. "http://localhost:5000".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// do performs one request. Every operation sends an empty body.
func (c *Client) do(ctx context.Context, method, path string, result any, failMsg string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", failMsg, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.New(failMsg)
	}
	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) doGET(ctx context.Context, path string, result any, failMsg string) error {
	return c.do(ctx, http.MethodGet, path, result, failMsg)
}

func (c *Client) doPOST(ctx context.Context, path string, result any, failMsg string) error {
	return c.do(ctx, http.MethodPost, path, result, failMsg)
}

func (c *Client) doDELETE(ctx context.Context, path string, result any, failMsg string) error {
	return c.do(ctx, http.MethodDelete, path, result, failMsg)
}

// CheckWiFi performs the WiFi-only connectivity probe.
func (c *Client) CheckWiFi(ctx context.Context) (flight.WiFiCheck, error) {
	var out flight.WiFiCheck
	err := c.doGET(ctx, "/api/connection/wifi", &out, "Failed to check WiFi connection")
	return out, err
}

// ConnectSSH asks the backend to establish the SSH bridge to the drone.
func (c *Client) ConnectSSH(ctx context.Context) (flight.ActionResult, error) {
	var out flight.ActionResult
	err := c.doPOST(ctx, "/api/connection/ssh", &out, "Failed to connect to drone")
	return out, err
}

// DisconnectSSH tears down the SSH bridge.
func (c *Client) DisconnectSSH(ctx context.Context) (flight.ActionResult, error) {
	var out flight.ActionResult
	err := c.doDELETE(ctx, "/api/connection/ssh", &out, "Failed to disconnect")
	return out, err
}

// ConnectionStatus fetches the full wifi/ssh/ready progression.
func (c *Client) ConnectionStatus(ctx context.Context) (flight.ConnectionStatus, error) {
	var out flight.ConnectionStatus
	err := c.doGET(ctx, "/api/connection/status", &out, "Failed to get connection status")
	return out, err
}

// DroneStatus fetches the current telemetry snapshot.
func (c *Client) DroneStatus(ctx context.Context) (flight.DroneStatus, error) {
	var out flight.DroneStatus
	err := c.doGET(ctx, "/api/drone/status", &out, "Failed to get drone status")
	return out, err
}

// StartFlight commands the drone to begin a flight.
func (c *Client) StartFlight(ctx context.Context) (flight.StartResult, error) {
	var out flight.StartResult
	err := c.doPOST(ctx, "/api/drone/start", &out, "Failed to start flight")
	return out, err
}

// StopFlight commands a controlled stop with return home.
func (c *Client) StopFlight(ctx context.Context) (flight.StopResult, error) {
	var out flight.StopResult
	err := c.doPOST(ctx, "/api/drone/stop", &out, "Failed to stop flight")
	return out, err
}

// ReturnHome commands an explicit return to the launch position.
func (c *Client) ReturnHome(ctx context.Context) (flight.ActionResult, error) {
	var out flight.ActionResult
	err := c.doPOST(ctx, "/api/drone/return-home", &out, "Failed to return home")
	return out, err
}

// AbortFlight commands an emergency stop and immediate landing.
func (c *Client) AbortFlight(ctx context.Context) (flight.StopResult, error) {
	var out flight.StopResult
	err := c.doPOST(ctx, "/api/drone/abort", &out, "Failed to abort flight")
	return out, err
}

// Flights lists the flight history in the order the backend returns it.
func (c *Client) Flights(ctx context.Context) ([]flight.Flight, error) {
	var out []flight.Flight
	err := c.doGET(ctx, "/api/flights", &out, "Failed to load flight history")
	return out, err
}

// Flight fetches a single flight record.
func (c *Client) Flight(ctx context.Context, id string) (flight.Flight, error) {
	var out flight.Flight
	err := c.doGET(ctx, "/api/flights/"+id, &out, "Failed to load flight")
	return out, err
}

// FlightSummary fetches the aggregate telemetry for one flight.
func (c *Client) FlightSummary(ctx context.Context, id string) (flight.FlightSummary, error) {
	var out flight.FlightSummary
	err := c.doGET(ctx, "/api/flights/"+id+"/summary", &out, "Failed to load flight summary")
	return out, err
}

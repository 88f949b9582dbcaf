package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scarecrow-ops/internal/flight"
)

func newTestClient(handler http.Handler) (*Client, func()) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, time.Second), srv.Close
}

func TestStartFlightSuccess(t *testing.T) {
	var calls int
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost || r.URL.Path != "/api/drone/start" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(flight.StartResult{Success: true, FlightID: "f1"})
	}))
	defer done()

	res, err := c.StartFlight(context.Background())
	if err != nil {
		t.Fatalf("StartFlight: %v", err)
	}
	if !res.Success || res.FlightID != "f1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one request, got %d", calls)
	}
}

func TestNon2xxUsesFixedMessage(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Error bodies must never be inspected.
		http.Error(w, `{"detail":"kaboom"}`, http.StatusInternalServerError)
	}))
	defer done()

	_, err := c.StartFlight(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if err.Error() != "Failed to start flight" {
		t.Fatalf("error = %q, want fixed message", err.Error())
	}

	_, err = c.Flights(context.Background())
	if err == nil || err.Error() != "Failed to load flight history" {
		t.Fatalf("history error = %v, want fixed message", err)
	}

	_, err = c.ConnectionStatus(context.Background())
	if err == nil || err.Error() != "Failed to get connection status" {
		t.Fatalf("status error = %v, want fixed message", err)
	}
}

func TestWellFormedFailurePassesThrough(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(flight.ActionResult{Success: false, Error: "Cannot reach drone"})
	}))
	defer done()

	res, err := c.ConnectSSH(context.Background())
	if err != nil {
		t.Fatalf("ConnectSSH: %v", err)
	}
	if res.Success {
		t.Fatal("expected success=false")
	}
	if res.Error != "Cannot reach drone" {
		t.Fatalf("error string = %q, want verbatim backend message", res.Error)
	}
}

func TestFlightSummaryPath(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/flights/f42/summary" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(flight.FlightSummary{FlightID: "f42", AvgSpeed: 4.2})
	}))
	defer done()

	s, err := c.FlightSummary(context.Background(), "f42")
	if err != nil {
		t.Fatalf("FlightSummary: %v", err)
	}
	if s.FlightID != "f42" || s.AvgSpeed != 4.2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestStopFlightOmittedPigeonCount(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer done()

	res, err := c.StopFlight(context.Background())
	if err != nil {
		t.Fatalf("StopFlight: %v", err)
	}
	if res.PigeonsDetected != nil {
		t.Fatalf("expected absent pigeon count, got %v", *res.PigeonsDetected)
	}
}

func TestTransportErrorWrapsFixedMessage(t *testing.T) {
	c := New("http://127.0.0.1:1", 50*time.Millisecond)
	_, err := c.DroneStatus(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
}

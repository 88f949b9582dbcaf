package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"scarecrow-ops/internal/flight"
)

type fakeBackend struct {
	connStatus  flight.ConnectionStatus
	connErr     error
	wifi        flight.WiFiCheck
	wifiErr     error
	droneStatus flight.DroneStatus
	droneErr    error
	connectRes  flight.ActionResult
	connectErr  error
	startRes    flight.StartResult
	stopRes     flight.StopResult
	flights     []flight.Flight
	flightsErr  error
	summary     flight.FlightSummary
	summaryErr  error

	connectCalls int
	startCalls   int
	stopCalls    int
	abortCalls   int
	discoCalls   int
	returnCalls  int
}

func (f *fakeBackend) CheckWiFi(context.Context) (flight.WiFiCheck, error) {
	return f.wifi, f.wifiErr
}

func (f *fakeBackend) ConnectSSH(context.Context) (flight.ActionResult, error) {
	f.connectCalls++
	return f.connectRes, f.connectErr
}

func (f *fakeBackend) DisconnectSSH(context.Context) (flight.ActionResult, error) {
	f.discoCalls++
	return flight.ActionResult{Success: true}, nil
}

func (f *fakeBackend) ConnectionStatus(context.Context) (flight.ConnectionStatus, error) {
	return f.connStatus, f.connErr
}

func (f *fakeBackend) DroneStatus(context.Context) (flight.DroneStatus, error) {
	return f.droneStatus, f.droneErr
}

func (f *fakeBackend) StartFlight(context.Context) (flight.StartResult, error) {
	f.startCalls++
	return f.startRes, nil
}

func (f *fakeBackend) StopFlight(context.Context) (flight.StopResult, error) {
	f.stopCalls++
	return f.stopRes, nil
}

func (f *fakeBackend) ReturnHome(context.Context) (flight.ActionResult, error) {
	f.returnCalls++
	return flight.ActionResult{Success: true}, nil
}

func (f *fakeBackend) AbortFlight(context.Context) (flight.StopResult, error) {
	f.abortCalls++
	return f.stopRes, nil
}

func (f *fakeBackend) Flights(context.Context) ([]flight.Flight, error) {
	return f.flights, f.flightsErr
}

func (f *fakeBackend) FlightSummary(context.Context, string) (flight.FlightSummary, error) {
	return f.summary, f.summaryErr
}

func newTestModel(b Backend) Model {
	m := New(b, Options{ConnInterval: time.Hour, DroneInterval: time.Hour})
	m.width = 80
	m.height = 24
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	nm, cmd := m.Update(msg)
	out, ok := nm.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", nm)
	}
	return out, cmd
}

func key(k string) tea.KeyMsg {
	if len(k) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	panic("unhandled key: " + k)
}

// collect runs a command tree and flattens the produced messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findMsg[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T among %d messages", zero, len(msgs))
	return zero
}

func TestConnectOnlyWhenWiFiWithoutSSH(t *testing.T) {
	b := &fakeBackend{connectRes: flight.ActionResult{Success: true}}
	m := newTestModel(b)

	// no wifi: key is ignored
	m, cmd := update(t, m, key("c"))
	if cmd != nil || b.connectCalls != 0 {
		t.Fatalf("connect fired without wifi")
	}

	m.conn = flight.ConnectionStatus{WifiConnected: true}
	m, cmd = update(t, m, key("c"))
	if !m.isConnecting {
		t.Fatalf("expected connecting state")
	}
	msgs := collect(cmd)
	done := findMsg[connectDoneMsg](t, msgs)
	if b.connectCalls != 1 {
		t.Fatalf("connectCalls = %d, want 1", b.connectCalls)
	}

	m, _ = update(t, m, done)
	if m.isConnecting {
		t.Fatalf("still connecting after result")
	}
	if !m.conn.SSHConnected {
		t.Fatalf("ssh not marked connected")
	}

	// already linked: key is ignored again
	_, cmd = update(t, m, key("c"))
	if cmd != nil || b.connectCalls != 1 {
		t.Fatalf("connect fired while linked")
	}
}

func TestStartRequiresReady(t *testing.T) {
	b := &fakeBackend{startRes: flight.StartResult{Success: true, FlightID: "f-1"}}
	m := newTestModel(b)
	m.conn = flight.ConnectionStatus{WifiConnected: true, SSHConnected: true}

	m, cmd := update(t, m, key("s"))
	if cmd != nil || b.startCalls != 0 {
		t.Fatalf("start fired before drone was ready")
	}

	m.conn.DroneReady = true
	m, cmd = update(t, m, key("s"))
	done := findMsg[startDoneMsg](t, collect(cmd))
	if b.startCalls != 1 {
		t.Fatalf("startCalls = %d, want 1", b.startCalls)
	}

	m.now = func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) }
	m, _ = update(t, m, done)
	if !m.drone.IsFlying || !m.flightActive() {
		t.Fatalf("start success did not enter flying state")
	}
	if m.currentFlight != "f-1" {
		t.Fatalf("currentFlight = %q", m.currentFlight)
	}

	// flying blocks another start
	_, cmd = update(t, m, key("s"))
	if cmd != nil || b.startCalls != 1 {
		t.Fatalf("start fired during flight")
	}
}

func TestStartFailureShowsFixedError(t *testing.T) {
	b := &fakeBackend{startRes: flight.StartResult{Success: false}}
	m := newTestModel(b)
	m.conn = flight.ConnectionStatus{WifiConnected: true, SSHConnected: true, DroneReady: true}

	m, cmd := update(t, m, key("s"))
	done := findMsg[startDoneMsg](t, collect(cmd))
	m, _ = update(t, m, done)

	if m.errMsg != "Failed to start flight" {
		t.Fatalf("errMsg = %q", m.errMsg)
	}
	if m.flying() {
		t.Fatalf("failed start entered flying state")
	}
}

func TestDisconnectBlockedWhileFlying(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(b)
	m.conn = flight.ConnectionStatus{WifiConnected: true, SSHConnected: true}
	m.flightStart = time.Now()

	_, cmd := update(t, m, key("d"))
	if cmd != nil || b.discoCalls != 0 {
		t.Fatalf("disconnect fired during flight")
	}

	m.flightStart = time.Time{}
	m.drone.IsFlying = false
	_, cmd = update(t, m, key("d"))
	findMsg[disconnectDoneMsg](t, collect(cmd))
	if b.discoCalls != 1 {
		t.Fatalf("discoCalls = %d, want 1", b.discoCalls)
	}
}

func TestFlightTimerRendering(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	m.conn = flight.ConnectionStatus{WifiConnected: true, SSHConnected: true, DroneReady: true}
	m.flightStart = start
	m.drone.IsFlying = true
	m.now = func() time.Time { return start.Add(125 * time.Second) }

	out := m.View()
	if !strings.Contains(out, "02:05") {
		t.Fatalf("view missing 02:05 timer:\n%s", out)
	}
}

func TestHistoryFailureClearsList(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.activeTab = TabHistory
	m, _ = update(t, m, historyMsg{flights: []flight.Flight{{ID: "f-1", Date: "2026-08-29", Status: flight.StatusCompleted}}})
	if len(m.flights) != 1 {
		t.Fatalf("history not loaded")
	}

	m, _ = update(t, m, historyMsg{err: errors.New("Failed to load flight history")})
	if len(m.flights) != 0 {
		t.Fatalf("failed fetch kept stale history")
	}
	if !strings.Contains(m.View(), "No flights recorded yet.") {
		t.Fatalf("empty state not rendered")
	}
}

func TestStatusPollNeverClearsLocalFlight(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.conn = flight.ConnectionStatus{WifiConnected: true, SSHConnected: true, DroneReady: true}
	m.flightStart = time.Now()
	m.currentFlight = "f-9"
	m.drone.IsFlying = true

	// fetch failure keeps last known state
	m, _ = update(t, m, droneResultMsg{err: errors.New("Failed to get drone status")})
	if !m.drone.IsFlying || !m.flightActive() {
		t.Fatalf("poll failure cleared local flight")
	}

	// stale snapshot claiming the drone is idle is overridden
	m, _ = update(t, m, droneResultMsg{status: flight.DroneStatus{IsConnected: true, IsFlying: false}})
	if !m.drone.IsFlying || !m.flightActive() {
		t.Fatalf("stale snapshot cleared local flight")
	}
	if m.drone.CurrentFlight != "f-9" {
		t.Fatalf("CurrentFlight = %q", m.drone.CurrentFlight)
	}
}

func TestReturnHomeLandingClearsFlight(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(b)
	m.conn = flight.ConnectionStatus{WifiConnected: true, SSHConnected: true, DroneReady: true}
	m.flightStart = time.Now()
	m.drone.IsFlying = true

	m, cmd := update(t, m, key("r"))
	done := findMsg[returnHomeDoneMsg](t, collect(cmd))
	if b.returnCalls != 1 {
		t.Fatalf("returnCalls = %d, want 1", b.returnCalls)
	}
	m, _ = update(t, m, done)
	if !m.returning || !m.flying() {
		t.Fatalf("return-home ended the flight locally")
	}

	// the backend confirming the landing is now allowed through
	m, _ = update(t, m, droneResultMsg{status: flight.DroneStatus{IsConnected: true, IsFlying: false}})
	if m.flying() || m.flightActive() {
		t.Fatalf("confirmed landing did not clear flight")
	}
}

func TestAbortReportsPigeonCount(t *testing.T) {
	count := 4
	b := &fakeBackend{stopRes: flight.StopResult{Success: true, PigeonsDetected: &count}}
	m := newTestModel(b)
	m.conn = flight.ConnectionStatus{WifiConnected: true, SSHConnected: true, DroneReady: true}
	m.flightStart = time.Now()
	m.drone.IsFlying = true

	m, cmd := update(t, m, key("a"))
	done := findMsg[stopDoneMsg](t, collect(cmd))
	if b.abortCalls != 1 {
		t.Fatalf("abortCalls = %d, want 1", b.abortCalls)
	}

	m, _ = update(t, m, done)
	if m.flying() {
		t.Fatalf("abort kept flying state")
	}
	if m.modal != modalPigeons || m.pigeonCount != 4 {
		t.Fatalf("pigeon modal not shown, modal=%d count=%d", m.modal, m.pigeonCount)
	}
	if !strings.Contains(m.View(), "Pigeons detected: 4") {
		t.Fatalf("pigeon count not rendered")
	}

	// any key dismisses the notice
	m, _ = update(t, m, key("x"))
	if m.modal != modalNone {
		t.Fatalf("pigeon modal not dismissed")
	}
	if b.stopCalls != 0 {
		t.Fatalf("dismissal key leaked into control handling")
	}
}

func TestConnectionFallbackChain(t *testing.T) {
	b := &fakeBackend{
		connErr: errors.New("Failed to get connection status"),
		wifi:    flight.WiFiCheck{Connected: true},
	}
	m := newTestModel(b)

	msg := m.fetchConnStatus()()
	res, ok := msg.(connResultMsg)
	if !ok {
		t.Fatalf("got %T", msg)
	}
	if !res.ok || !res.status.WifiConnected || res.status.SSHConnected {
		t.Fatalf("fallback result = %+v", res)
	}

	// both probes down: assume fully disconnected
	b.wifiErr = errors.New("Failed to check WiFi connection")
	res = m.fetchConnStatus()().(connResultMsg)
	if res.ok {
		t.Fatalf("expected total failure")
	}
	m.conn = flight.ConnectionStatus{WifiConnected: true, SSHConnected: true}
	m, _ = update(t, m, res)
	if m.conn.WifiConnected || m.conn.SSHConnected {
		t.Fatalf("total failure did not reset link state")
	}
}

func TestSummaryModalLifecycle(t *testing.T) {
	b := &fakeBackend{
		flights: []flight.Flight{{ID: "f-1", Date: "2026-08-29", Duration: 325, Status: flight.StatusCompleted}},
		summary: flight.FlightSummary{FlightID: "f-1", DroneID: "scarecrow-1", Duration: 325, AvgSpeed: 4.2, AvgAltitude: 18.5, Status: flight.StatusCompleted},
	}
	m := newTestModel(b)
	m.activeTab = TabHistory
	m, _ = update(t, m, historyMsg{flights: b.flights})

	m, cmd := update(t, m, key("enter"))
	if m.modal != modalSummary || !m.summaryLoading {
		t.Fatalf("modal did not open in loading state")
	}
	if !strings.Contains(m.View(), "Loading summary...") {
		t.Fatalf("loading state not rendered")
	}

	// a stale response for another flight is dropped
	m, _ = update(t, m, summaryMsg{id: "other"})
	if !m.summaryLoading {
		t.Fatalf("stale summary applied")
	}

	done := findMsg[summaryMsg](t, collect(cmd))
	m, _ = update(t, m, done)
	out := m.View()
	if !strings.Contains(out, "5m 25s") || !strings.Contains(out, "4.2 m/s") {
		t.Fatalf("summary fields missing:\n%s", out)
	}

	m, _ = update(t, m, key("esc"))
	if m.modal != modalNone || m.selected != nil {
		t.Fatalf("modal not closed")
	}
}

func TestSummaryFailureShowsEmptyState(t *testing.T) {
	b := &fakeBackend{
		flights:    []flight.Flight{{ID: "f-1", Status: flight.StatusFailed}},
		summaryErr: errors.New("Failed to load flight summary"),
	}
	m := newTestModel(b)
	m.activeTab = TabHistory
	m, _ = update(t, m, historyMsg{flights: b.flights})

	m, cmd := update(t, m, key("enter"))
	done := findMsg[summaryMsg](t, collect(cmd))
	m, _ = update(t, m, done)

	if !m.summaryFailed {
		t.Fatalf("summary failure not recorded")
	}
	if !strings.Contains(m.View(), "No summary available.") {
		t.Fatalf("empty summary state not rendered")
	}
}

func TestDroneTickSkipsWithoutSSH(t *testing.T) {
	m := newTestModel(&fakeBackend{droneErr: errors.New("unreachable")})
	_, cmd := update(t, m, droneTickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("tick not re-armed")
	}
	// re-arm only: executing it must not hit the backend synchronously,
	// so there is nothing further to assert without ssh
	m.conn.SSHConnected = true
	_, cmd = update(t, m, droneTickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("tick with ssh returned no command")
	}
}

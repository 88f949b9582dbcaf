// Terminal dashboard for operating the scarecrow drone.
package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"scarecrow-ops/internal/flight"
)

// Backend is the slice of the REST client the dashboard consumes.
type Backend interface {
	CheckWiFi(ctx context.Context) (flight.WiFiCheck, error)
	ConnectSSH(ctx context.Context) (flight.ActionResult, error)
	DisconnectSSH(ctx context.Context) (flight.ActionResult, error)
	ConnectionStatus(ctx context.Context) (flight.ConnectionStatus, error)
	DroneStatus(ctx context.Context) (flight.DroneStatus, error)
	StartFlight(ctx context.Context) (flight.StartResult, error)
	StopFlight(ctx context.Context) (flight.StopResult, error)
	ReturnHome(ctx context.Context) (flight.ActionResult, error)
	AbortFlight(ctx context.Context) (flight.StopResult, error)
	Flights(ctx context.Context) ([]flight.Flight, error)
	FlightSummary(ctx context.Context, id string) (flight.FlightSummary, error)
}

// Tab identifies the active view.
type Tab int

const (
	TabControl Tab = iota
	TabHistory
)

// Phase is the explicit link/flight state the implicit button logic of the
// web dashboard amounted to. It is derived, never stored.
type Phase int

const (
	PhaseNoWiFi Phase = iota
	PhaseWiFiOnly
	PhaseLinked
	PhaseReady
	PhaseFlying
)

func (p Phase) String() string {
	switch p {
	case PhaseNoWiFi:
		return "no wifi"
	case PhaseWiFiOnly:
		return "wifi only"
	case PhaseLinked:
		return "linked"
	case PhaseReady:
		return "ready"
	case PhaseFlying:
		return "flying"
	}
	return "unknown"
}

type modalKind int

const (
	modalNone modalKind = iota
	modalSummary
	modalPigeons
)

// Tick messages for the three polling loops plus the per-second clock.
type connTickMsg time.Time
type droneTickMsg time.Time
type clockTickMsg time.Time

// connResultMsg carries the outcome of the ordered fallback chain:
// full status, then WiFi-only probe, then assume fully disconnected.
type connResultMsg struct {
	status flight.ConnectionStatus
	ok     bool // some probe in the chain succeeded
}

type droneResultMsg struct {
	status flight.DroneStatus
	err    error
}

type historyMsg struct {
	flights []flight.Flight
	err     error
}

type connectDoneMsg struct {
	res flight.ActionResult
	err error
}

type disconnectDoneMsg struct {
	res flight.ActionResult
	err error
}

type startDoneMsg struct {
	res flight.StartResult
	err error
}

type stopDoneMsg struct {
	res   flight.StopResult
	err   error
	abort bool
}

type returnHomeDoneMsg struct {
	res flight.ActionResult
	err error
}

type summaryMsg struct {
	id      string
	summary flight.FlightSummary
	err     error
}

// Options configures the polling cadence.
type Options struct {
	ConnInterval  time.Duration
	DroneInterval time.Duration
}

// Model owns all dashboard state. Every mutation happens inside Update.
type Model struct {
	backend       Backend
	connInterval  time.Duration
	droneInterval time.Duration
	now           func() time.Time

	activeTab Tab
	conn      flight.ConnectionStatus
	drone     flight.DroneStatus
	flights   []flight.Flight

	// flightStart is authoritative while set: a flight started locally may
	// not be cleared by a server snapshot, except after a return-home was
	// requested (returning) and the backend confirms the landing.
	flightStart   time.Time
	currentFlight string
	returning     bool

	errMsg        string
	isConnecting  bool
	actionPending bool

	modal          modalKind
	selected       *flight.Flight
	summary        *flight.FlightSummary
	summaryLoading bool
	summaryFailed  bool
	pigeonCount    int

	historyTable table.Model
	summaryVP    viewport.Model
	spin         spinner.Model
	width        int
	height       int
}

// New builds the dashboard model around a backend client.
func New(b Backend, opts Options) Model {
	if opts.ConnInterval <= 0 {
		opts.ConnInterval = 3 * time.Second
	}
	if opts.DroneInterval <= 0 {
		opts.DroneInterval = 2 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	t := table.New(
		table.WithColumns(historyColumns(72)),
		table.WithHeight(10),
		table.WithFocused(true),
	)

	return Model{
		backend:       b,
		connInterval:  opts.ConnInterval,
		droneInterval: opts.DroneInterval,
		now:           time.Now,
		historyTable:  t,
		summaryVP:     viewport.New(60, 12),
		spin:          sp,
	}
}

func historyColumns(width int) []table.Column {
	w := width - 8
	if w < 40 {
		w = 40
	}
	return []table.Column{
		{Title: "Date", Width: w * 20 / 100},
		{Title: "Start", Width: w * 20 / 100},
		{Title: "Duration", Width: w * 20 / 100},
		{Title: "Pigeons", Width: w * 15 / 100},
		{Title: "Status", Width: w * 25 / 100},
	}
}

// Init arms the polling loops and runs the first connection probe.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchConnStatus(),
		tea.Tick(m.connInterval, func(t time.Time) tea.Msg { return connTickMsg(t) }),
		tea.Tick(m.droneInterval, func(t time.Time) tea.Msg { return droneTickMsg(t) }),
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockTickMsg(t) }),
	)
}

func (m Model) flightActive() bool { return !m.flightStart.IsZero() }

func (m Model) flying() bool { return m.flightActive() || m.drone.IsFlying }

// phase derives the explicit state from the connection and flight flags.
func (m Model) phase() Phase {
	switch {
	case !m.conn.WifiConnected:
		return PhaseNoWiFi
	case !m.conn.SSHConnected:
		return PhaseWiFiOnly
	case m.flying():
		return PhaseFlying
	case m.conn.DroneReady:
		return PhaseReady
	default:
		return PhaseLinked
	}
}

// Button gates for the control panel.
func (m Model) canConnect() bool {
	return m.conn.WifiConnected && !m.conn.SSHConnected && !m.isConnecting
}

func (m Model) canDisconnect() bool {
	return m.conn.SSHConnected && !m.flying()
}

func (m Model) canStart() bool {
	return m.conn.DroneReady && !m.flying() && !m.actionPending
}

func (m Model) canStopOrAbort() bool {
	return m.flying() && !m.actionPending
}

// Commands. Each performs one round trip and reports back as a message;
// in-flight requests are never cancelled on teardown.

func (m Model) fetchConnStatus() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		ctx := context.Background()
		if cs, err := b.ConnectionStatus(ctx); err == nil {
			return connResultMsg{status: cs, ok: true}
		}
		if wifi, err := b.CheckWiFi(ctx); err == nil {
			return connResultMsg{status: flight.ConnectionStatus{WifiConnected: wifi.Connected}, ok: true}
		}
		return connResultMsg{}
	}
}

func (m Model) fetchDroneStatus() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		ds, err := b.DroneStatus(context.Background())
		return droneResultMsg{status: ds, err: err}
	}
}

func (m Model) fetchHistory() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		fs, err := b.Flights(context.Background())
		return historyMsg{flights: fs, err: err}
	}
}

func (m Model) fetchSummary(id string) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		s, err := b.FlightSummary(context.Background(), id)
		return summaryMsg{id: id, summary: s, err: err}
	}
}

func (m Model) doConnect() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		res, err := b.ConnectSSH(context.Background())
		return connectDoneMsg{res: res, err: err}
	}
}

func (m Model) doDisconnect() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		res, err := b.DisconnectSSH(context.Background())
		return disconnectDoneMsg{res: res, err: err}
	}
}

func (m Model) doStart() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		res, err := b.StartFlight(context.Background())
		return startDoneMsg{res: res, err: err}
	}
}

func (m Model) doStop() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		res, err := b.StopFlight(context.Background())
		return stopDoneMsg{res: res, err: err}
	}
}

func (m Model) doAbort() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		res, err := b.AbortFlight(context.Background())
		return stopDoneMsg{res: res, err: err, abort: true}
	}
}

func (m Model) doReturnHome() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		res, err := b.ReturnHome(context.Background())
		return returnHomeDoneMsg{res: res, err: err}
	}
}

// Update is the single place dashboard state changes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.historyTable.SetColumns(historyColumns(msg.Width))
		m.historyTable.SetWidth(msg.Width)
		h := msg.Height - 10
		if h < 3 {
			h = 3
		}
		m.historyTable.SetHeight(h)
		m.summaryVP.Width = max(30, msg.Width-6)
		m.summaryVP.Height = max(4, min(12, msg.Height-6))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.isConnecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case connTickMsg:
		return m, tea.Batch(
			m.fetchConnStatus(),
			tea.Tick(m.connInterval, func(t time.Time) tea.Msg { return connTickMsg(t) }),
		)

	case droneTickMsg:
		rearm := tea.Tick(m.droneInterval, func(t time.Time) tea.Msg { return droneTickMsg(t) })
		if !m.conn.SSHConnected {
			return m, rearm
		}
		return m, tea.Batch(m.fetchDroneStatus(), rearm)

	case clockTickMsg:
		// only drives the in-flight timer re-render
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockTickMsg(t) })

	case connResultMsg:
		if msg.ok {
			m.conn = msg.status
			m.errMsg = ""
		} else {
			// every probe failed: assume fully disconnected
			m.conn = flight.ConnectionStatus{}
		}
		return m, nil

	case droneResultMsg:
		if msg.err != nil {
			// keep last known status
			return m, nil
		}
		m.applyDroneStatus(msg.status)
		return m, nil

	case historyMsg:
		if msg.err != nil {
			// fetch failure clears the list rather than keeping a stale one
			m.flights = nil
		} else {
			m.flights = msg.flights
		}
		m.historyTable.SetRows(historyRows(m.flights))
		return m, nil

	case connectDoneMsg:
		m.isConnecting = false
		switch {
		case msg.err != nil:
			m.errMsg = msg.err.Error()
		case !msg.res.Success:
			m.errMsg = failureText(msg.res.Error, "Failed to connect to drone")
		default:
			m.conn.SSHConnected = true
			m.errMsg = ""
		}
		return m, nil

	case disconnectDoneMsg:
		m.actionPending = false
		switch {
		case msg.err != nil:
			m.errMsg = msg.err.Error()
		case !msg.res.Success:
			m.errMsg = failureText(msg.res.Error, "Failed to disconnect")
		default:
			// disconnected baseline
			m.conn = flight.ConnectionStatus{WifiConnected: m.conn.WifiConnected}
			m.drone = flight.DroneStatus{}
			m.flightStart = time.Time{}
			m.currentFlight = ""
			m.returning = false
			m.errMsg = ""
		}
		return m, nil

	case startDoneMsg:
		m.actionPending = false
		switch {
		case msg.err != nil:
			m.errMsg = msg.err.Error()
		case !msg.res.Success:
			m.errMsg = failureText(msg.res.Error, "Failed to start flight")
		default:
			m.drone.IsFlying = true
			m.flightStart = m.now()
			m.currentFlight = msg.res.FlightID
			m.returning = false
			m.errMsg = ""
		}
		return m, nil

	case stopDoneMsg:
		m.actionPending = false
		fallback := "Failed to stop flight"
		if msg.abort {
			fallback = "Failed to abort flight"
		}
		switch {
		case msg.err != nil:
			m.errMsg = msg.err.Error()
		case !msg.res.Success:
			m.errMsg = failureText(msg.res.Error, fallback)
		default:
			m.drone.IsFlying = false
			m.flightStart = time.Time{}
			m.currentFlight = ""
			m.returning = false
			m.errMsg = ""
			if msg.res.PigeonsDetected != nil {
				m.pigeonCount = *msg.res.PigeonsDetected
				m.modal = modalPigeons
			}
		}
		return m, nil

	case returnHomeDoneMsg:
		m.actionPending = false
		switch {
		case msg.err != nil:
			m.errMsg = msg.err.Error()
		case !msg.res.Success:
			m.errMsg = failureText(msg.res.Error, "Failed to return home")
		default:
			// flight keeps running; polls may now report the landing
			m.returning = true
			m.errMsg = ""
		}
		return m, nil

	case summaryMsg:
		if m.selected == nil || msg.id != m.selected.ID {
			// stale response for a closed or different modal
			return m, nil
		}
		m.summaryLoading = false
		if msg.err != nil {
			m.summaryFailed = true
		} else {
			s := msg.summary
			m.summary = &s
			m.summaryVP.SetContent(summaryContent(s, m.summaryVP.Width))
			m.summaryVP.GotoTop()
		}
		return m, nil
	}

	return m, nil
}

// applyDroneStatus merges a server snapshot, honoring the locally started
// flight as authoritative so stale reads cannot clear it.
func (m *Model) applyDroneStatus(st flight.DroneStatus) {
	if m.flightActive() {
		if m.returning && !st.IsFlying {
			// backend confirmed the return-home landing
			m.flightStart = time.Time{}
			m.currentFlight = ""
			m.returning = false
			m.drone = st
			return
		}
		st.IsFlying = true
		if st.CurrentFlight == "" {
			st.CurrentFlight = m.currentFlight
		}
	}
	m.drone = st
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.modal {
	case modalPigeons:
		m.modal = modalNone
		m.pigeonCount = 0
		return m, nil
	case modalSummary:
		switch key {
		case "esc", "q", "enter":
			m.modal = modalNone
			m.selected = nil
			m.summary = nil
			m.summaryFailed = false
			return m, nil
		default:
			var cmd tea.Cmd
			m.summaryVP, cmd = m.summaryVP.Update(msg)
			return m, cmd
		}
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "tab", "1", "2":
		prev := m.activeTab
		switch key {
		case "1":
			m.activeTab = TabControl
		case "2":
			m.activeTab = TabHistory
		default:
			if m.activeTab == TabControl {
				m.activeTab = TabHistory
			} else {
				m.activeTab = TabControl
			}
		}
		if m.activeTab == TabHistory && prev != TabHistory {
			return m, m.fetchHistory()
		}
		return m, nil
	}

	if m.activeTab == TabControl {
		return m.handleControlKey(key)
	}
	return m.handleHistoryKey(msg)
}

func (m Model) handleControlKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "c":
		if !m.canConnect() {
			return m, nil
		}
		m.isConnecting = true
		return m, tea.Batch(m.doConnect(), m.spin.Tick)
	case "d":
		if !m.canDisconnect() || m.actionPending {
			return m, nil
		}
		m.actionPending = true
		return m, m.doDisconnect()
	case "s":
		if !m.canStart() {
			return m, nil
		}
		m.actionPending = true
		return m, m.doStart()
	case "x":
		if !m.canStopOrAbort() {
			return m, nil
		}
		m.actionPending = true
		return m, m.doStop()
	case "r":
		if !m.canStopOrAbort() || m.returning {
			return m, nil
		}
		m.actionPending = true
		return m, m.doReturnHome()
	case "a":
		if !m.canStopOrAbort() {
			return m, nil
		}
		m.actionPending = true
		return m, m.doAbort()
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		idx := m.historyTable.Cursor()
		if idx < 0 || idx >= len(m.flights) {
			return m, nil
		}
		f := m.flights[idx]
		m.selected = &f
		m.summary = nil
		m.summaryLoading = true
		m.summaryFailed = false
		m.modal = modalSummary
		return m, m.fetchSummary(f.ID)
	}
	var cmd tea.Cmd
	m.historyTable, cmd = m.historyTable.Update(msg)
	return m, cmd
}

func failureText(backendErr, fallback string) string {
	if backendErr != "" {
		return backendErr
	}
	return fallback
}

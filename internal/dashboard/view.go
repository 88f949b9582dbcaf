package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"scarecrow-ops/internal/flight"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("244"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(lipgloss.Color("230"))

	okLamp  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	badLamp = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("●")

	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hotStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	flyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	badgeCompleted  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badgeInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	badgeFailed     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	badgeOther      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func statusBadge(s string) string {
	switch s {
	case flight.StatusCompleted:
		return badgeCompleted.Render(s)
	case flight.StatusInProgress:
		return badgeInProgress.Render(s)
	case flight.StatusFailed:
		return badgeFailed.Render(s)
	default:
		return badgeOther.Render(s)
	}
}

func historyRows(flights []flight.Flight) []table.Row {
	rows := make([]table.Row, 0, len(flights))
	for _, f := range flights {
		start := f.StartTime
		if start == "" {
			start = "-"
		}
		rows = append(rows, table.Row{
			f.Date,
			start,
			flight.FormatDuration(f.Duration),
			fmt.Sprintf("%d", f.PigeonsDetected),
			statusBadge(f.Status),
		})
	}
	return rows
}

// View renders the full dashboard frame.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(bannerStyle.Render("! " + m.errMsg))
		b.WriteString("\n\n")
	}

	switch m.modal {
	case modalSummary:
		b.WriteString(m.summaryModalView())
	case modalPigeons:
		b.WriteString(m.pigeonModalView())
	default:
		if m.activeTab == TabControl {
			b.WriteString(m.controlView())
		} else {
			b.WriteString(m.historyView())
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.helpView())
	return b.String()
}

func (m Model) headerView() string {
	tabs := []string{"Control", "History"}
	rendered := make([]string, len(tabs))
	for i, name := range tabs {
		if Tab(i) == m.activeTab {
			rendered[i] = activeTabStyle.Render(fmt.Sprintf("[%d] %s", i+1, name))
		} else {
			rendered[i] = tabStyle.Render(fmt.Sprintf("[%d] %s", i+1, name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("scarecrow ops"),
		strings.Join(rendered, ""),
	)
}

func lamp(ok bool) string {
	if ok {
		return okLamp
	}
	return badLamp
}

func (m Model) controlView() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s WiFi    %s SSH    %s Ready\n",
		lamp(m.conn.WifiConnected), lamp(m.conn.SSHConnected), lamp(m.conn.DroneReady)))

	if m.drone.BatteryLevel != nil {
		b.WriteString(labelStyle.Render(fmt.Sprintf("Battery: %.1f%%", *m.drone.BatteryLevel)))
		b.WriteString("\n")
	}

	b.WriteString(labelStyle.Render("Link: " + m.phase().String()))
	b.WriteString("\n")

	if m.flying() {
		line := "IN FLIGHT"
		if m.flightActive() {
			line += "  " + flight.FormatClock(m.now().Sub(m.flightStart))
		}
		if m.returning {
			line += "  (returning home)"
		}
		b.WriteString(flyStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.buttonsView())
	return b.String()
}

func (m Model) buttonsView() string {
	button := func(key, label string, enabled bool) string {
		s := fmt.Sprintf("[%s] %s", key, label)
		if enabled {
			return hotStyle.Render(s)
		}
		return dimStyle.Render(s)
	}

	connect := button("c", "connect", m.canConnect())
	if m.isConnecting {
		connect = hotStyle.Render(m.spin.View() + "connecting...")
	}

	parts := []string{
		connect,
		button("d", "disconnect", m.canDisconnect() && !m.actionPending),
		button("s", "start", m.canStart()),
		button("x", "stop", m.canStopOrAbort()),
		button("r", "return home", m.canStopOrAbort() && !m.returning),
		button("a", "abort", m.canStopOrAbort()),
	}
	return strings.Join(parts, "   ")
}

func (m Model) historyView() string {
	if len(m.flights) == 0 {
		return dimStyle.Render("No flights recorded yet.")
	}
	return m.historyTable.View()
}

// summaryContent renders the summary rows for the modal viewport.
func summaryContent(s flight.FlightSummary, width int) string {
	if width < 30 {
		width = 60
	}
	rows := []string{
		fmt.Sprintf("Drone      %s", s.DroneID),
		fmt.Sprintf("Date       %s", s.Date),
		fmt.Sprintf("Start      %s", s.StartTime),
		fmt.Sprintf("End        %s", s.EndTime),
		fmt.Sprintf("Duration   %s", flight.FormatDuration(s.Duration)),
		fmt.Sprintf("Avg speed  %.1f m/s", s.AvgSpeed),
		fmt.Sprintf("Avg alt    %.1f m", s.AvgAltitude),
		fmt.Sprintf("Status     %s", statusBadge(s.Status)),
	}
	return wordwrap.String(strings.Join(rows, "\n"), width)
}

func (m Model) summaryModalView() string {
	if m.selected == nil {
		return ""
	}

	var body string
	switch {
	case m.summaryLoading:
		body = dimStyle.Render("Loading summary...")
	case m.summaryFailed || m.summary == nil:
		body = dimStyle.Render("No summary available.")
	default:
		body = m.summaryVP.View()
	}

	header := hotStyle.Render("Flight " + m.selected.ID)
	return modalStyle.Render(header + "\n\n" + body + "\n\n" + dimStyle.Render("esc to close"))
}

func (m Model) pigeonModalView() string {
	body := fmt.Sprintf("Flight complete.\n\nPigeons detected: %d", m.pigeonCount)
	return modalStyle.Render(body + "\n\n" + dimStyle.Render("press any key"))
}

func (m Model) helpView() string {
	if m.modal != modalNone {
		return dimStyle.Render("esc: close • q: quit")
	}
	if m.activeTab == TabHistory {
		return dimStyle.Render("↑/↓: select • enter: summary • tab: switch view • q: quit")
	}
	return dimStyle.Render("c/d: link • s/x: start/stop • r: return • a: abort • tab: switch view • q: quit")
}

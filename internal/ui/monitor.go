package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ibuddy/iboost/internal/protocol"
	"github.com/ibuddy/iboost/internal/telemetry"
)

// Boost duration limits for the monitor keys
const (
	DefaultBoostMinutes = 30
	boostStepMinutes    = 15
	minBoostMinutes     = 15
	maxBoostMinutes     = 240
)

// RSSI range mapped onto the signal bars
const (
	weakestRSSI   = -120.0
	strongestRSSI = -30.0
)

// Feed supplies sensor updates to the monitor
type Feed interface {
	Subscribe(buffer int) (<-chan telemetry.Update, func())
	Snapshot() []telemetry.Update
}

// Controller sends boost commands. A nil Controller disables the boost keys.
type Controller interface {
	BoostStart(ctx context.Context, minutes uint8) error
	BoostCancel(ctx context.Context) error
}

// Messages for async operations
type sensorUpdateMsg telemetry.Update
type feedClosedMsg struct{}
type controlResultMsg struct {
	action string
	err    error
}

// monitorKeyMap defines key bindings for the monitor
type monitorKeyMap struct {
	Boost   key.Binding
	Cancel  key.Binding
	Longer  key.Binding
	Shorter key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Boost, k.Cancel, k.Longer, k.Shorter, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Boost, k.Cancel},
		{k.Longer, k.Shorter, k.Quit},
	}
}

// sensorRow is one line of the monitor table
type sensorRow struct {
	sensor string
	label  string
	unit   string
}

var monitorRows = []sensorRow{
	{protocol.SensorHeatingMode, "Heating Mode", ""},
	{protocol.SensorHeatingWarn, "Warnings", ""},
	{protocol.SensorHeatingPower, "Power to Tank", "W"},
	{protocol.SensorHeatingImport, "Grid Import", "W"},
	{protocol.SensorHeatingBoostTime, "Boost Remaining", "min"},
	{protocol.SensorHeatingToday, "Saved Today", "Wh"},
	{protocol.SensorHeatingYesterday, "Saved Yesterday", "Wh"},
	{protocol.SensorHeatingLast7, "Saved Last 7 Days", "Wh"},
	{protocol.SensorHeatingLast28, "Saved Last 28 Days", "Wh"},
	{protocol.SensorHeatingTotal, "Saved Total", "Wh"},
	{protocol.SensorPacketCount, "Packets", ""},
	{protocol.SensorLastPacket, "Last Packet", ""},
}

var signalRows = []sensorRow{
	{protocol.SensorRSSIIBoost, "iBoost Signal", "dBm"},
	{protocol.SensorRSSIBuddy, "Buddy Signal", "dBm"},
	{protocol.SensorRSSISender, "Sender Signal", "dBm"},
}

// MonitorModel is a live view of the published sensors
type MonitorModel struct {
	values       map[string]telemetry.Update
	updates      <-chan telemetry.Update
	controller   Controller
	boostMinutes int
	status       string
	closed       bool
	quitting     bool
	lastUpdate   time.Time

	Width   int
	Spinner spinner.Model
	Signal  progress.Model
	Help    help.Model
	Keys    monitorKeyMap
}

// NewMonitorModel creates a monitor seeded with a snapshot and fed by updates
func NewMonitorModel(snapshot []telemetry.Update, updates <-chan telemetry.Update, controller Controller) MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	signal := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	signal.Width = 24

	values := make(map[string]telemetry.Update, len(snapshot))
	for _, u := range snapshot {
		values[u.Sensor] = u
	}

	return MonitorModel{
		values:       values,
		updates:      updates,
		controller:   controller,
		boostMinutes: DefaultBoostMinutes,
		Width:        MinTerminalWidth,
		Spinner:      s,
		Signal:       signal,
		Help:         help.New(),
		Keys: monitorKeyMap{
			Boost: key.NewBinding(
				key.WithKeys("b"),
				key.WithHelp("b", "boost"),
			),
			Cancel: key.NewBinding(
				key.WithKeys("c"),
				key.WithHelp("c", "cancel boost"),
			),
			Longer: key.NewBinding(
				key.WithKeys("+", "="),
				key.WithHelp("+", "longer"),
			),
			Shorter: key.NewBinding(
				key.WithKeys("-"),
				key.WithHelp("-", "shorter"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// waitForUpdate blocks on the feed and turns the next update into a message
func waitForUpdate(updates <-chan telemetry.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return feedClosedMsg{}
		}
		return sensorUpdateMsg(u)
	}
}

func (m MonitorModel) sendBoost(minutes int) tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return controlResultMsg{
			action: fmt.Sprintf("Boost %d min", minutes),
			err:    controller.BoostStart(ctx, uint8(minutes)),
		}
	}
}

func (m MonitorModel) sendCancel() tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return controlResultMsg{action: "Boost cancel", err: controller.BoostCancel(ctx)}
	}
}

// Init starts the spinner and the feed reader
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, waitForUpdate(m.updates))
}

// Update handles messages and updates the model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width

	case sensorUpdateMsg:
		m.values[msg.Sensor] = telemetry.Update(msg)
		m.lastUpdate = msg.At
		return m, waitForUpdate(m.updates)

	case feedClosedMsg:
		m.closed = true

	case controlResultMsg:
		if msg.err != nil {
			m.status = msg.action + " failed: " + msg.err.Error()
		} else {
			m.status = msg.action + " sent"
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m MonitorModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Longer):
		m.boostMinutes = min(m.boostMinutes+boostStepMinutes, maxBoostMinutes)

	case key.Matches(msg, m.Keys.Shorter):
		m.boostMinutes = max(m.boostMinutes-boostStepMinutes, minBoostMinutes)

	case key.Matches(msg, m.Keys.Boost):
		if m.controller == nil {
			m.status = "Boost control unavailable"
			return m, nil
		}
		m.status = fmt.Sprintf("Sending boost %d min...", m.boostMinutes)
		return m, m.sendBoost(m.boostMinutes)

	case key.Matches(msg, m.Keys.Cancel):
		if m.controller == nil {
			m.status = "Boost control unavailable"
			return m, nil
		}
		m.status = "Sending boost cancel..."
		return m, m.sendCancel()
	}

	return m, nil
}

// View renders the monitor
func (m MonitorModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(HeaderTitleStyle.Render("IBOOST MONITOR"))
	b.WriteString("\n")
	if m.closed {
		b.WriteString(StatusLineStyle.Render("Feed closed"))
	} else {
		b.WriteString("  " + m.Spinner.View() + " " + HeaderCommandStyle.UnsetPaddingLeft().Render("Listening for frames"))
	}
	b.WriteString("\n\n")

	for _, row := range monitorRows {
		b.WriteString(m.renderRow(row))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for _, row := range signalRows {
		b.WriteString(m.renderSignal(row))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StatusLineStyle.Render(fmt.Sprintf("Boost duration: %d min", m.boostMinutes)))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(StatusLineStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n  ")
	b.WriteString(m.Help.View(m.Keys))

	return lipgloss.NewStyle().MaxWidth(max(m.Width, MinTerminalWidth)).Render(b.String())
}

func (m MonitorModel) renderRow(row sensorRow) string {
	value := "-"
	style := SensorValueStyle
	if u, ok := m.values[row.sensor]; ok {
		value = formatUpdate(u, row.unit)
		if row.sensor == protocol.SensorHeatingWarn && value != "" && value != protocol.InitialHeatingWarn {
			style = SensorWarnStyle
		}
	}
	return SensorLabelStyle.Render(row.label) + style.Render(value)
}

func (m MonitorModel) renderSignal(row sensorRow) string {
	u, ok := m.values[row.sensor]
	if !ok {
		return SensorLabelStyle.Render(row.label) + SensorValueStyle.Render("-")
	}
	rssi, _ := u.Number()
	return SensorLabelStyle.Render(row.label) + m.Signal.ViewAs(SignalPercent(rssi)) + " " + SensorValueStyle.Render(formatUpdate(u, row.unit))
}

func formatUpdate(u telemetry.Update, unit string) string {
	if v, ok := u.Number(); ok {
		s := fmt.Sprintf("%.1f", v)
		if v == float64(int64(v)) {
			s = fmt.Sprintf("%d", int64(v))
		}
		if unit != "" {
			s += " " + unit
		}
		return s
	}
	text, _ := u.Text()
	return text
}

// SignalPercent maps an RSSI reading onto 0..1 for the signal bars
func SignalPercent(rssi float64) float64 {
	p := (rssi - weakestRSSI) / (strongestRSSI - weakestRSSI)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// RunMonitor runs the interactive monitor until the user quits or ctx ends
func RunMonitor(ctx context.Context, feed Feed, controller Controller, out io.Writer) error {
	updates, unsubscribe := feed.Subscribe(64)
	defer unsubscribe()

	model := NewMonitorModel(feed.Snapshot(), updates, controller)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(out), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("monitor failed: %w", err)
	}
	return nil
}

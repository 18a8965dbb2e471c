package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ibuddy/iboost/internal/protocol"
)

// ResultType selects the colour and label of a result box
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Field is one labelled line of a result box
type Field struct {
	Label string
	Value string
	Alert bool // drawn in the warning style
}

// Result is the box printed at the end of a command
type Result struct {
	Type            ResultType
	Title           string
	Fields          []Field // rendered in order
	Error           error
	Troubleshooting []string
	Width           int
}

func newResult(typ ResultType, title string) *Result {
	return &Result{Type: typ, Title: title, Width: GetTerminalWidth()}
}

// NewSuccessResult creates a success box with details sorted by label
func NewSuccessResult(title string, details map[string]string) *Result {
	return newResult(ResultSuccess, title).addAll(details)
}

// NewWarningResult creates a warning box with details sorted by label
func NewWarningResult(title string, details map[string]string) *Result {
	return newResult(ResultWarning, title).addAll(details)
}

// NewFailureResult creates a failure box with troubleshooting tips
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	r := newResult(ResultFailure, title)
	r.Error = err
	r.Troubleshooting = troubleshooting
	return r
}

// NewReadingResult lays a decoded frame out with the unit identity first and
// measurements after. A main-unit frame carrying a warning becomes a warning box.
func NewReadingResult(reading protocol.Reading) *Result {
	r := newResult(ResultSuccess, "Decoded "+reading.Role().String()+" frame")

	switch rd := reading.(type) {
	case *protocol.MainUnitReading:
		r.Add("Address", rd.Address.String()).
			Add("RSSI", formatRSSI(rd.RSSI)).
			Add("Heating Mode", rd.Mode.String()).
			Add("Power to Tank", fmt.Sprintf("%d W", rd.PowerToTank)).
			Add("Import", fmt.Sprintf("%.1f W", rd.ImportWatts)).
			Add("Boost Time", fmt.Sprintf("%d min", rd.BoostMinutes)).
			Add("Response Mode", rd.ResponseMode.String())
		if rd.Energy != nil {
			r.Add("Energy", fmt.Sprintf("%d Wh (%s)", rd.Energy.WattHours, rd.Energy.Period))
		}
		if rd.Warning != "" {
			r.Alert("Warning", rd.Warning)
			r.Type = ResultWarning
		}
	case *protocol.BuddyReading:
		r.Add("Address", rd.Address.String()).
			Add("RSSI", formatRSSI(rd.RSSI)).
			Add("Captured", yesNo(rd.Captured))
	case *protocol.SenderReading:
		r.Add("Address", rd.Address.String()).
			Add("RSSI", formatRSSI(rd.RSSI)).
			Add("Captured", yesNo(rd.Captured))
		if rd.BatteryLow {
			r.Alert("Battery Low", "yes")
		} else {
			r.Add("Battery Low", "no")
		}
	default:
		r.Add("Reading", reading.String())
	}
	return r
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// Add appends a field
func (r *Result) Add(label, value string) *Result {
	r.Fields = append(r.Fields, Field{Label: label, Value: value})
	return r
}

// Alert appends a highlighted field
func (r *Result) Alert(label, value string) *Result {
	r.Fields = append(r.Fields, Field{Label: label, Value: value, Alert: true})
	return r
}

// Value returns the value of the first field with the given label
func (r *Result) Value(label string) (string, bool) {
	for _, f := range r.Fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

func (r *Result) addAll(details map[string]string) *Result {
	for _, label := range sortedKeys(details) {
		r.Add(label, details[label])
	}
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := max(r.Width, MinTerminalWidth)

	titleStyle, border, label, marker := SuccessTitleStyle, SuccessColor, "SUCCESS", SuccessMarker
	switch r.Type {
	case ResultFailure:
		titleStyle, border, label, marker = ErrorTitleStyle, ErrorColor, "FAILED", FailureMarker
	case ResultWarning:
		titleStyle, border, label, marker = WarningTitleStyle, WarningColor, "WARNING", WarningMarker
	}

	var b strings.Builder
	b.WriteString("\n" + titleStyle.Render(fmt.Sprintf("   %s  %s  ─  %s", marker, label, r.Title)) + "\n\n")

	if r.Error != nil {
		b.WriteString(ErrorMessageStyle.Render("   Error: "+r.Error.Error()) + "\n\n")
	}

	for _, f := range r.Fields {
		value := ResultValueStyle.Render(f.Value)
		if f.Alert {
			value = SensorWarnStyle.Render(f.Value)
		}
		b.WriteString(ResultKeyStyle.Render("   "+f.Label+":") + " " + value + "\n")
	}
	if len(r.Fields) > 0 {
		b.WriteString("\n")
	}

	if len(r.Troubleshooting) > 0 {
		b.WriteString(renderTips(r.Troubleshooting, width) + "\n")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(border).
		Width(width-2).
		Padding(0, 2).
		Render(b.String())
}

// renderTips draws the troubleshooting list in a rounded inner box
func renderTips(tips []string, width int) string {
	lines := make([]string, 0, len(tips)+2)
	lines = append(lines, TroubleshootingTitleStyle.Render("Troubleshooting:"), "")
	for _, tip := range tips {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(max(width-12, 40)).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}

func (r *Result) String() string {
	return r.Render()
}

func formatRSSI(rssi float64) string {
	return fmt.Sprintf("%.1f dBm", rssi)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

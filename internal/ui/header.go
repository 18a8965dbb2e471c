package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the box printed before a command's output: the title, the
// command line and the inputs that shaped the run.
type Header struct {
	Title   string            // e.g., "Frame Decode"
	Command string            // e.g., "iboost-buddy decode"
	Params  map[string]string // e.g., {"RSSI": "-71.5 dBm"}
	Width   int
}

// NewHeader creates a header sized to the terminal
func NewHeader(title, command string, params map[string]string) *Header {
	return &Header{Title: title, Command: command, Params: params, Width: GetTerminalWidth()}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render draws the title and command on top, then the params as
// "Key value" pairs packed onto as few lines as the width allows.
func (h *Header) Render() string {
	width := max(h.Width, MinTerminalWidth)
	inner := width - 6

	sections := []string{
		HeaderTitleStyle.Render(strings.ToUpper(h.Title)),
		HeaderCommandStyle.Render(h.Command),
	}

	if len(h.Params) > 0 {
		sections = append(sections, RenderHorizontalDivider(inner, "─"))
		sections = append(sections, packParams(h.Params, inner)...)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// packParams fills each line with sorted params until the next would overflow
func packParams(params map[string]string, width int) []string {
	const gap = "   "

	var (
		lines   []string
		line    string
		lineLen int
	)
	for _, key := range sortedKeys(params) {
		styled := HeaderParamKeyStyle.Render(key) + " " + HeaderParamValueStyle.Render(params[key])
		w := lipgloss.Width(styled)

		if lineLen > 0 && lineLen+len(gap)+w > width {
			lines = append(lines, line)
			line, lineLen = "", 0
		}
		if lineLen > 0 {
			line += gap
			lineLen += len(gap)
		}
		line += styled
		lineLen += w
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func (h *Header) String() string {
	return h.Render()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

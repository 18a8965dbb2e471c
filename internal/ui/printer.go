package ui

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ibuddy/iboost/internal/protocol"
)

// Printer writes styled command output to a writer
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(NewHeader(title, command, params).SetWidth(p.width).Render())
	p.Newline()
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Println(NewSuccessResult(title, details).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details map[string]string) {
	p.Println(NewWarningResult(title, details).SetWidth(p.width).Render())
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintReading prints a decoded inbound frame
func (p *Printer) PrintReading(reading protocol.Reading) {
	p.Println(NewReadingResult(reading).SetWidth(p.width).Render())
}

// PrintControlFrame prints an encoded control frame
func (p *Printer) PrintControlFrame(action protocol.ControlAction, frame []byte) {
	p.PrintSuccess("Encoded "+action.String()+" frame", map[string]string{
		"Frame":   FormatHex(frame),
		"Decoded": protocol.DescribeControlFrame(frame),
		"Length":  fmt.Sprintf("%d bytes", len(frame)),
	})
}

// FormatHex renders bytes as space separated upper-case hex pairs
func FormatHex(data []byte) string {
	s := strings.ToUpper(hex.EncodeToString(data))
	var b strings.Builder
	for i := 0; i < len(s); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+2])
	}
	return b.String()
}

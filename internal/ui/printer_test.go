package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ibuddy/iboost/internal/protocol"
)

func TestFormatHex(t *testing.T) {
	tests := []struct {
		data []byte
		want string
	}{
		{nil, ""},
		{[]byte{0x12}, "12"},
		{[]byte{0x12, 0x34, 0xab}, "12 34 AB"},
	}
	for _, tt := range tests {
		if got := FormatHex(tt.data); got != tt.want {
			t.Errorf("FormatHex(%x) = %q, want %q", tt.data, got, tt.want)
		}
	}
}

func TestNewReadingResult(t *testing.T) {
	addr := protocol.Address{0x12, 0x34}

	tests := []struct {
		name      string
		reading   protocol.Reading
		wantType  ResultType
		wantFirst string
		want      map[string]string
		wantAlert string
	}{
		{
			name: "main unit with warning",
			reading: &protocol.MainUnitReading{
				Address:      addr,
				RSSI:         -71.5,
				PowerToTank:  1450,
				ImportWatts:  10,
				ResponseMode: protocol.DataRequestToday,
				Energy:       &protocol.EnergyTotal{Period: protocol.DataRequestToday, WattHours: 900},
				Mode:         protocol.HeatingModeSolar,
				Warning:      protocol.WarningOverheating,
			},
			wantType:  ResultWarning,
			wantFirst: "Address",
			want: map[string]string{
				"Address":       "1234",
				"RSSI":          "-71.5 dBm",
				"Power to Tank": "1450 W",
				"Import":        "10.0 W",
				"Heating Mode":  "ON: Heating from Solar",
				"Warning":       protocol.WarningOverheating,
			},
			wantAlert: "Warning",
		},
		{
			name:      "sender with low battery",
			reading:   &protocol.SenderReading{Address: addr, RSSI: -80, Captured: true, BatteryLow: true},
			wantType:  ResultSuccess,
			wantFirst: "Address",
			want: map[string]string{
				"Address":     "1234",
				"Captured":    "yes",
				"Battery Low": "yes",
			},
			wantAlert: "Battery Low",
		},
		{
			name:      "buddy",
			reading:   &protocol.BuddyReading{Address: addr, RSSI: -60},
			wantType:  ResultSuccess,
			wantFirst: "Address",
			want: map[string]string{
				"RSSI":     "-60.0 dBm",
				"Captured": "no",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReadingResult(tt.reading)
			if r.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", r.Type, tt.wantType)
			}
			if len(r.Fields) == 0 || r.Fields[0].Label != tt.wantFirst {
				t.Errorf("first field = %+v, want %q", r.Fields, tt.wantFirst)
			}
			for label, want := range tt.want {
				if got, _ := r.Value(label); got != want {
					t.Errorf("%s = %q, want %q", label, got, want)
				}
			}
			for _, f := range r.Fields {
				if f.Alert != (f.Label == tt.wantAlert) {
					t.Errorf("field %q Alert = %v", f.Label, f.Alert)
				}
			}
		})
	}
}

func TestNewReadingResult_NoEnergyOrWarning(t *testing.T) {
	r := NewReadingResult(&protocol.MainUnitReading{Mode: protocol.HeatingModeOff})
	if _, ok := r.Value("Energy"); ok {
		t.Error("Energy present without an energy total")
	}
	if _, ok := r.Value("Warning"); ok {
		t.Error("Warning present without a warning")
	}
	if r.Type != ResultSuccess {
		t.Errorf("Type = %v, want success", r.Type)
	}
}

func TestPrinter_Output(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetWidth(80)

	p.PrintHeader("Frame Decode", "iboost-buddy decode", map[string]string{"RSSI": "-70.0 dBm"})
	p.PrintReading(&protocol.BuddyReading{Address: protocol.Address{0xAB, 0xCD}, RSSI: -70})
	p.PrintError("Decode failed", errors.New("frame too short"), []string{"Check the hex input"})

	out := buf.String()
	for _, want := range []string{"FRAME DECODE", "iboost-buddy decode", "Decoded buddy frame", "ABCD", "frame too short", "Check the hex input"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResult_DetailsSorted(t *testing.T) {
	r := NewSuccessResult("done", map[string]string{"Zeta": "1", "Alpha": "2"}).SetWidth(80)
	out := r.Render()
	if strings.Index(out, "Alpha") > strings.Index(out, "Zeta") {
		t.Errorf("details not sorted:\n%s", out)
	}
}

func TestHeader_PacksParams(t *testing.T) {
	params := map[string]string{"Action": "boost", "Address": "12AB", "Minutes": "45"}

	wide := packParams(params, 200)
	if len(wide) != 1 {
		t.Errorf("wide header used %d lines, want 1", len(wide))
	}
	narrow := packParams(params, 10)
	if len(narrow) != len(params) {
		t.Errorf("narrow header used %d lines, want %d", len(narrow), len(params))
	}

	out := NewHeader("Control Frame", "iboost-buddy encode", params).SetWidth(80).Render()
	if strings.Index(out, "Action") > strings.Index(out, "Minutes") {
		t.Errorf("params not sorted:\n%s", out)
	}
}

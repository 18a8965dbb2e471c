package protocol

import (
	"encoding/binary"
	"errors"
	"testing"
)

// newMainFrame returns a 29-byte idle main-unit frame for addr
func newMainFrame(addr Address) []byte {
	f := make([]byte, 29)
	f[0] = addr[0]
	f[1] = addr[1]
	f[2] = PacketTypeMain
	f[offsetWaterHeating] = 1 // not heating
	return f
}

func newBuddyFrame(addr Address) []byte {
	f := make([]byte, 29)
	f[0] = addr[0]
	f[1] = addr[1]
	f[2] = PacketTypeBuddy
	return f
}

func newSenderFrame(addr Address, batteryLow bool) []byte {
	f := make([]byte, 44)
	f[0] = addr[0]
	f[1] = addr[1]
	f[2] = PacketTypeSender
	if batteryLow {
		f[offsetBatteryLow] = 0x01
	}
	return f
}

func putInt32(f []byte, offset int, v int32) {
	binary.LittleEndian.PutUint32(f[offset:offset+4], uint32(v))
}

func mustParseMain(t *testing.T, data []byte) *MainUnitReading {
	t.Helper()
	frame, err := ValidateFrame(data)
	if err != nil {
		t.Fatalf("ValidateFrame() error = %v", err)
	}
	r, err := parseMainUnit(frame, -70, NewAddressRegistry(), false)
	if err != nil {
		t.Fatalf("parseMainUnit() error = %v", err)
	}
	return r
}

func TestParseMainUnit_Fields(t *testing.T) {
	addr := Address{0x12, 0x34}
	f := newMainFrame(addr)

	power := int16(-150)
	binary.LittleEndian.PutUint16(f[offsetPowerToTank:], uint16(power))
	putInt32(f, offsetImport, 3600)
	f[offsetBoostMinutes] = 45

	r := mustParseMain(t, f)

	if r.PowerToTank != -150 {
		t.Errorf("PowerToTank = %d, want -150", r.PowerToTank)
	}
	if r.ImportWatts != 10.0 {
		t.Errorf("ImportWatts = %v, want 10.0", r.ImportWatts)
	}
	if r.BoostMinutes != 45 {
		t.Errorf("BoostMinutes = %d, want 45", r.BoostMinutes)
	}
	if r.Address != addr {
		t.Errorf("Address = %s, want %s", r.Address, addr)
	}
	if r.Role() != RoleMain {
		t.Errorf("Role() = %s, want iboost", r.Role())
	}
}

func TestParseMainUnit_NegativeImport(t *testing.T) {
	f := newMainFrame(Address{1, 2})
	putInt32(f, offsetImport, -720)

	if r := mustParseMain(t, f); r.ImportWatts != -2.0 {
		t.Errorf("ImportWatts = %v, want -2.0", r.ImportWatts)
	}
}

func TestParseMainUnit_EnergyTotals(t *testing.T) {
	tests := []struct {
		name      string
		mode      byte
		value     int32
		wantNil   bool
		wantValue int32
	}{
		{"today zero published", 0xCA, 0, false, 0},
		{"today value", 0xCA, 1234, false, 1234},
		{"yesterday zero published", 0xCB, 0, false, 0},
		{"last 7 zero suppressed", 0xCC, 0, true, 0},
		{"last 7 value", 0xCC, 500, false, 500},
		{"last 28 negative suppressed", 0xCD, -5, true, 0},
		{"last 28 value", 0xCD, 90000, false, 90000},
		{"total zero suppressed", 0xCE, 0, true, 0},
		{"total value", 0xCE, 1 << 20, false, 1 << 20},
		{"unknown mode", 0x00, 777, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMainFrame(Address{0x12, 0x34})
			f[offsetResponseMode] = tt.mode
			putInt32(f, offsetEnergyValue, tt.value)

			r := mustParseMain(t, f)
			if tt.wantNil {
				if r.Energy != nil {
					t.Errorf("Energy = %+v, want nil", r.Energy)
				}
				return
			}
			if r.Energy == nil {
				t.Fatal("Energy = nil, want value")
			}
			if r.Energy.WattHours != tt.wantValue {
				t.Errorf("WattHours = %d, want %d", r.Energy.WattHours, tt.wantValue)
			}
			if r.Energy.Period != DataRequestCode(tt.mode) {
				t.Errorf("Period = %s, want 0x%02x", r.Energy.Period, tt.mode)
			}
		})
	}
}

func TestParseMainUnit_ShortFrameHasNoEnergy(t *testing.T) {
	f := newMainFrame(Address{0x12, 0x34})[:MinMainFrameSize]
	f[offsetResponseMode] = byte(DataRequestToday)

	if r := mustParseMain(t, f); r.Energy != nil {
		t.Errorf("Energy = %+v, want nil for a %d-byte frame", r.Energy, len(f))
	}
}

func TestClassifyHeatingMode(t *testing.T) {
	tests := []struct {
		name      string
		tankHot   byte
		overheat  byte
		boost     byte
		waterFlag byte
		want      HeatingMode
	}{
		{"tank hot beats overheat", 1, 1, 10, 0, HeatingModeTankHot},
		{"overheat beats boost", 0, 1, 10, 0, HeatingModeOverheated},
		{"boost beats solar", 0, 0, 10, 0, HeatingModeManualBoost},
		{"solar", 0, 0, 0, 0, HeatingModeSolar},
		{"idle", 0, 0, 0, 1, HeatingModeOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMainFrame(Address{0x12, 0x34})
			f[offsetTankHot] = tt.tankHot
			f[offsetOverheat] = tt.overheat
			f[offsetBoostMinutes] = tt.boost
			f[offsetWaterHeating] = tt.waterFlag

			r := mustParseMain(t, f)
			if r.Mode != tt.want {
				t.Errorf("Mode = %q, want %q", r.Mode, tt.want)
			}
		})
	}
}

func TestHeatingModeString(t *testing.T) {
	want := map[HeatingMode]string{
		HeatingModeTankHot:     "OFF: Water Tank Hot",
		HeatingModeOverheated:  "Failed: Overheat",
		HeatingModeManualBoost: "ON: Heating from Manual Boost",
		HeatingModeSolar:       "ON: Heating from Solar",
		HeatingModeOff:         "OFF: Water Heating Off",
	}
	for mode, s := range want {
		if mode.String() != s {
			t.Errorf("HeatingMode(%d).String() = %q, want %q", mode, mode.String(), s)
		}
	}
}

func TestBuildWarning(t *testing.T) {
	tests := []struct {
		overheated bool
		batteryLow bool
		want       string
	}{
		{false, false, ""},
		{true, false, "iBoost Overheating"},
		{false, true, "Sender Battery Low"},
		{true, true, "iBoost Overheating | Sender Battery Low"},
	}

	for _, tt := range tests {
		if got := buildWarning(tt.overheated, tt.batteryLow); got != tt.want {
			t.Errorf("buildWarning(%v, %v) = %q, want %q", tt.overheated, tt.batteryLow, got, tt.want)
		}
	}
}

func TestParseMainUnit_ForeignSystem(t *testing.T) {
	reg := NewAddressRegistry()
	reg.Consider(Address{0x12, 0x34}, -80, RoleBuddy)

	frame, err := ValidateFrame(newMainFrame(Address{0x99, 0x99}))
	if err != nil {
		t.Fatalf("ValidateFrame() error = %v", err)
	}

	r, err := parseMainUnit(frame, -20, reg, false)
	if !errors.Is(err, ErrForeignSystem) {
		t.Fatalf("error = %v, want ErrForeignSystem", err)
	}
	if r != nil {
		t.Errorf("reading = %v, want nil", r)
	}
	if typ, ok := ErrorTypeOf(err); !ok || typ != ErrTypeForeignSystem {
		t.Errorf("ErrorTypeOf() = %v, %v", typ, ok)
	}
	if addr, _ := reg.Address(); addr != (Address{0x12, 0x34}) {
		t.Errorf("registry changed to %s", addr)
	}
}

func TestParseMainUnit_TooShort(t *testing.T) {
	f := newMainFrame(Address{1, 2})[:MinMainFrameSize-1]
	frame, err := ValidateFrame(f)
	if err != nil {
		t.Fatalf("ValidateFrame() error = %v", err)
	}

	reg := NewAddressRegistry()
	if _, err := parseMainUnit(frame, -50, reg, false); !errors.Is(err, ErrFrameLength) {
		t.Errorf("error = %v, want ErrFrameLength", err)
	}
	if reg.Valid() {
		t.Error("short frame must not seed the registry")
	}
}

func TestParseSender(t *testing.T) {
	reg := NewAddressRegistry()
	frame, _ := ValidateFrame(newSenderFrame(Address{0x0A, 0x0B}, true))

	r, err := parseSender(frame, -65, reg)
	if err != nil {
		t.Fatalf("parseSender() error = %v", err)
	}
	if !r.BatteryLow || !r.Captured {
		t.Errorf("reading = %+v, want battery low and captured", r)
	}

	short, _ := ValidateFrame(newSenderFrame(Address{0x0A, 0x0B}, false)[:MinSenderFrameSize-1])
	if _, err := parseSender(short, -10, reg); !errors.Is(err, ErrFrameLength) {
		t.Errorf("short sender error = %v, want ErrFrameLength", err)
	}
	if reg.RSSI() != -65 {
		t.Errorf("short sender frame changed rssi to %v", reg.RSSI())
	}
}

func TestParseBuddy(t *testing.T) {
	reg := NewAddressRegistry()
	frame, _ := ValidateFrame(newBuddyFrame(Address{0x0C, 0x0D}))

	r, err := parseBuddy(frame, -72, reg)
	if err != nil {
		t.Fatalf("parseBuddy() error = %v", err)
	}
	if !r.Captured || r.Role() != RoleBuddy {
		t.Errorf("reading = %+v", r)
	}

	again, _ := parseBuddy(frame, -72, reg)
	if again.Captured {
		t.Error("equal RSSI must not count as a capture")
	}
}

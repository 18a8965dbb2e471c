package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Main-unit frame field offsets (from captured traffic, addr0 at offset 0)
const (
	offsetBoostMinutes = 5  // Boost minutes remaining
	offsetWaterHeating = 6  // 0 = heating water from solar
	offsetTankHot      = 7  // nonzero = cylinder is hot
	offsetOverheat     = 13 // nonzero = unit overheated
	offsetPowerToTank  = 16 // int16 LE, watts sent to the immersion heater
	offsetImport       = 18 // int32 LE, grid import accumulator (/360 = watts)
	offsetResponseMode = 24 // DataRequestCode echoed by the unit
	offsetEnergyValue  = 25 // int32 LE, Wh for the echoed period

	offsetBatteryLow = 12 // Sender frame: 0x01 = battery low
)

// importScale converts the raw import accumulator to watts
const importScale = 360.0

// Warning texts joined into the heating_warn sensor
const (
	WarningOverheating      = "iBoost Overheating"
	WarningSenderBatteryLow = "Sender Battery Low"
	warningSeparator        = " | "
)

// HeatingMode is the classified state of the water heater
type HeatingMode int

const (
	HeatingModeOff HeatingMode = iota
	HeatingModeSolar
	HeatingModeManualBoost
	HeatingModeOverheated
	HeatingModeTankHot
)

// String returns the text published on the heating_mode sensor
func (m HeatingMode) String() string {
	switch m {
	case HeatingModeTankHot:
		return "OFF: Water Tank Hot"
	case HeatingModeOverheated:
		return "Failed: Overheat"
	case HeatingModeManualBoost:
		return "ON: Heating from Manual Boost"
	case HeatingModeSolar:
		return "ON: Heating from Solar"
	default:
		return "OFF: Water Heating Off"
	}
}

// Reading is a decoded inbound frame
type Reading interface {
	Role() Role
	String() string
}

// EnergyTotal is one historical energy figure carried by a main-unit frame
type EnergyTotal struct {
	Period    DataRequestCode // Which total the unit answered
	WattHours int32
}

// MainUnitReading is the status broadcast by the iBoost main unit (type 0x22)
type MainUnitReading struct {
	Address      Address
	RSSI         float64
	PowerToTank  int16   // [16-17] W sent to the tank
	ImportWatts  float64 // [18-21] / 360
	BoostMinutes uint8   // [5]
	WaterHeating bool    // [6] == 0
	TankHot      bool    // [7] != 0
	Overheated   bool    // [13] != 0
	ResponseMode DataRequestCode
	Energy       *EnergyTotal // nil when the echoed period is unknown or not populated
	Mode         HeatingMode
	Warning      string // "" when there is nothing to report
}

func (r *MainUnitReading) Role() Role { return RoleMain }

func (r *MainUnitReading) String() string {
	energy := "none"
	if r.Energy != nil {
		energy = fmt.Sprintf("%s=%dWh", r.Energy.Period, r.Energy.WattHours)
	}
	return fmt.Sprintf("iBoost{addr=%s, rssi=%.1f, power=%dW, import=%.1fW, boost=%dmin, mode=%q, energy=%s}",
		r.Address, r.RSSI, r.PowerToTank, r.ImportWatts, r.BoostMinutes, r.Mode.String(), energy)
}

// BuddyReading is a frame from a buddy unit (type 0x21)
type BuddyReading struct {
	Address  Address
	RSSI     float64
	Captured bool // The frame replaced the registry address
}

func (r *BuddyReading) Role() Role { return RoleBuddy }

func (r *BuddyReading) String() string {
	return fmt.Sprintf("Buddy{addr=%s, rssi=%.1f, captured=%v}", r.Address, r.RSSI, r.Captured)
}

// SenderReading is a frame from the sender CT unit (type 0x01)
type SenderReading struct {
	Address    Address
	RSSI       float64
	Captured   bool // The frame replaced the registry address
	BatteryLow bool // [12] == 0x01
}

func (r *SenderReading) Role() Role { return RoleSender }

func (r *SenderReading) String() string {
	return fmt.Sprintf("Sender{addr=%s, rssi=%.1f, captured=%v, battery_low=%v}",
		r.Address, r.RSSI, r.Captured, r.BatteryLow)
}

// parseMainUnit decodes a main-unit frame. A valid registry holding a
// different address rejects the frame as foreign; an empty registry is
// seeded from it.
func parseMainUnit(f *InboundFrame, rssi float64, reg *AddressRegistry, senderBatteryLow bool) (*MainUnitReading, error) {
	buf := f.Raw
	if len(buf) < MinMainFrameSize {
		return nil, malformed(ErrFrameLength, len(buf),
			"iBoost frame too short: %d bytes (minimum %d)", len(buf), MinMainFrameSize)
	}

	if !reg.Consider(f.Address, rssi, RoleMain) {
		stored, _ := reg.Address()
		return nil, &ProtocolError{
			Type:       ErrTypeForeignSystem,
			Message:    fmt.Sprintf("frame from system %s, locked to %s", f.Address, stored),
			Length:     len(buf),
			PacketType: f.Type,
			Err:        ErrForeignSystem,
		}
	}

	r := &MainUnitReading{
		Address:      f.Address,
		RSSI:         rssi,
		PowerToTank:  int16(binary.LittleEndian.Uint16(buf[offsetPowerToTank : offsetPowerToTank+2])),
		BoostMinutes: buf[offsetBoostMinutes],
		WaterHeating: buf[offsetWaterHeating] == 0,
		TankHot:      buf[offsetTankHot] != 0,
		Overheated:   buf[offsetOverheat] != 0,
		ResponseMode: DataRequestCode(buf[offsetResponseMode]),
	}

	importRaw := int32(binary.LittleEndian.Uint32(buf[offsetImport : offsetImport+4]))
	r.ImportWatts = float64(importRaw) / importScale

	r.Energy = parseEnergyTotal(r.ResponseMode, buf)
	r.Mode = classifyHeatingMode(r)
	r.Warning = buildWarning(r.Overheated, senderBatteryLow)

	return r, nil
}

// parseEnergyTotal reads the 32-bit energy value at offset 25. The frame
// must carry at least 29 bytes for the value to be present.
func parseEnergyTotal(mode DataRequestCode, buf []byte) *EnergyTotal {
	if !mode.Valid() || len(buf) < offsetEnergyValue+4 {
		return nil
	}

	value := int32(binary.LittleEndian.Uint32(buf[offsetEnergyValue : offsetEnergyValue+4]))
	if mode.requiresPositive() && value <= 0 {
		return nil
	}

	return &EnergyTotal{Period: mode, WattHours: value}
}

// classifyHeatingMode applies the fixed priority tank hot > overheat > boost > solar > off
func classifyHeatingMode(r *MainUnitReading) HeatingMode {
	switch {
	case r.TankHot:
		return HeatingModeTankHot
	case r.Overheated:
		return HeatingModeOverheated
	case r.BoostMinutes > 0:
		return HeatingModeManualBoost
	case r.WaterHeating:
		return HeatingModeSolar
	default:
		return HeatingModeOff
	}
}

func buildWarning(overheated, senderBatteryLow bool) string {
	var warnings []string
	if overheated {
		warnings = append(warnings, WarningOverheating)
	}
	if senderBatteryLow {
		warnings = append(warnings, WarningSenderBatteryLow)
	}
	return strings.Join(warnings, warningSeparator)
}

// parseBuddy offers the frame's address to the registry under the RSSI policy
func parseBuddy(f *InboundFrame, rssi float64, reg *AddressRegistry) (*BuddyReading, error) {
	if f.Len() < MinBuddyFrameSize {
		return nil, malformed(ErrFrameLength, f.Len(),
			"buddy frame too short: %d bytes (minimum %d)", f.Len(), MinBuddyFrameSize)
	}

	return &BuddyReading{
		Address:  f.Address,
		RSSI:     rssi,
		Captured: reg.Consider(f.Address, rssi, RoleBuddy),
	}, nil
}

// parseSender offers the frame's address to the registry and reads the battery flag
func parseSender(f *InboundFrame, rssi float64, reg *AddressRegistry) (*SenderReading, error) {
	if f.Len() < MinSenderFrameSize {
		return nil, malformed(ErrFrameLength, f.Len(),
			"sender frame too short: %d bytes (minimum %d)", f.Len(), MinSenderFrameSize)
	}

	return &SenderReading{
		Address:    f.Address,
		RSSI:       rssi,
		Captured:   reg.Consider(f.Address, rssi, RoleSender),
		BatteryLow: f.Raw[offsetBatteryLow] == 0x01,
	}, nil
}

package protocol

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ibuddy/iboost/internal/logging"
	"go.uber.org/zap"
)

// Sensor names published to the telemetry collaborators
const (
	SensorPacketCount      = "packet_count"
	SensorLastPacket       = "last_packet"
	SensorHeatingMode      = "heating_mode"
	SensorHeatingWarn      = "heating_warn"
	SensorHeatingPower     = "heating_power"
	SensorHeatingImport    = "heating_import"
	SensorHeatingBoostTime = "heating_boost_time"
	SensorHeatingToday     = "heating_today"
	SensorHeatingYesterday = "heating_yesterday"
	SensorHeatingLast7     = "heating_last_7"
	SensorHeatingLast28    = "heating_last_28"
	SensorHeatingTotal     = "heating_last_gt"
	SensorRSSIIBoost       = "rssi_iboost"
	SensorRSSIBuddy        = "rssi_buddy"
	SensorRSSISender       = "rssi_sender"
)

// Initial texts published before the first main-unit frame arrives
const (
	InitialHeatingMode = "Initializing..."
	InitialHeatingWarn = "No Warnings"
)

// lastPacketLayout formats the last_packet timestamp
const lastPacketLayout = "2006-01-02T15:04:05Z"

// Transmitter sends one frame over the radio
type Transmitter interface {
	Transmit(ctx context.Context, frame []byte) error
}

// Publisher receives decoded values. Implementations must not block.
type Publisher interface {
	PublishNumber(sensor string, value float64)
	PublishText(sensor string, value string)
}

// Clock supplies the current time for the last_packet sensor
type Clock func() time.Time

// Engine is the iBoost protocol engine for one system.
//
// It owns the address registry, the request cycle, the sender battery flag
// and the packet counter. All methods are safe for concurrent use.
type Engine struct {
	mu               sync.Mutex
	registry         *AddressRegistry
	cycle            RequestCycle
	senderBatteryLow bool
	packetCount      uint64

	radio     Transmitter
	publisher Publisher
	clock     Clock
}

// Option configures an Engine
type Option func(*Engine)

// WithTransmitter sets the radio used for control frames
func WithTransmitter(t Transmitter) Option {
	return func(e *Engine) { e.radio = t }
}

// WithPublisher sets the telemetry sink
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithClock sets the time source for the last_packet sensor
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// NewEngine creates an engine with an empty address registry
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry: NewAddressRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Status is a snapshot of the engine state
type Status struct {
	Address          string  `json:"address,omitempty"`
	AddressValid     bool    `json:"address_valid"`
	AddressRSSI      float64 `json:"address_rssi"`
	PacketCount      uint64  `json:"packet_count"`
	SenderBatteryLow bool    `json:"sender_battery_low"`
	NextRequest      string  `json:"next_request"`
}

// Status returns a snapshot of the engine state
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{
		AddressValid:     e.registry.Valid(),
		AddressRSSI:      e.registry.RSSI(),
		PacketCount:      e.packetCount,
		SenderBatteryLow: e.senderBatteryLow,
		NextRequest:      e.cycle.Peek().String(),
	}
	if addr, ok := e.registry.Address(); ok {
		s.Address = addr.String()
	}
	return s
}

// PublishInitialState publishes placeholder values for every sensor so the
// sinks have a defined state before the first frame is heard.
func (e *Engine) PublishInitialState() {
	if e.publisher == nil {
		return
	}
	e.publisher.PublishText(SensorHeatingMode, InitialHeatingMode)
	e.publisher.PublishText(SensorHeatingWarn, InitialHeatingWarn)
	for _, sensor := range []string{
		SensorHeatingImport,
		SensorHeatingPower,
		SensorHeatingToday,
		SensorHeatingYesterday,
		SensorHeatingLast7,
		SensorHeatingLast28,
		SensorHeatingTotal,
		SensorHeatingBoostTime,
	} {
		e.publisher.PublishNumber(sensor, 0)
	}
}

// Process is the single entry point for received frames.
//
// The returned error classifies a dropped frame (malformed, unknown type or
// foreign system). It is never fatal and a dropped frame leaves the engine
// state untouched.
func (e *Engine) Process(data []byte, rssi float64) (Reading, error) {
	frame, err := ValidateFrame(data)
	if err != nil {
		logging.Debug("RX: Frame rejected",
			zap.Int("length", len(data)),
			zap.Error(err),
		)
		return nil, err
	}

	logging.Debug("RX: Processing packet",
		zap.String("frame", frame.String()),
		zap.Float64("rssi", rssi),
		zap.String("hex", hex.EncodeToString(data)),
	)

	e.mu.Lock()
	reading, err := e.dispatch(frame, rssi)
	var count uint64
	if err == nil {
		e.packetCount++
		count = e.packetCount
	}
	e.mu.Unlock()

	if err != nil {
		e.logRejection(frame, err)
		return nil, err
	}

	e.publishReading(reading)
	e.publishPacketCount(count)
	return reading, nil
}

// dispatch routes a validated frame to its decoder. Caller holds e.mu.
func (e *Engine) dispatch(frame *InboundFrame, rssi float64) (Reading, error) {
	switch frame.Type {
	case PacketTypeMain:
		r, err := parseMainUnit(frame, rssi, e.registry, e.senderBatteryLow)
		if err != nil {
			return nil, err
		}
		return r, nil

	case PacketTypeBuddy:
		r, err := parseBuddy(frame, rssi, e.registry)
		if err != nil {
			return nil, err
		}
		return r, nil

	case PacketTypeSender:
		r, err := parseSender(frame, rssi, e.registry)
		if err != nil {
			return nil, err
		}
		e.senderBatteryLow = r.BatteryLow
		return r, nil

	default:
		return nil, &ProtocolError{
			Type:       ErrTypeUnknownType,
			Message:    fmt.Sprintf("unknown packet type: 0x%02x", frame.Type),
			Length:     frame.Len(),
			PacketType: frame.Type,
			Err:        ErrUnknownPacketType,
		}
	}
}

func (e *Engine) logRejection(frame *InboundFrame, err error) {
	switch {
	case errors.Is(err, ErrForeignSystem):
		logging.Warn("RX: Received packet from different iBoost system - ignoring",
			zap.String("frame", frame.String()),
			zap.Error(err),
		)
	case errors.Is(err, ErrUnknownPacketType):
		logging.Warn("RX: Unknown packet type",
			zap.String("type", fmt.Sprintf("0x%02x", frame.Type)),
			zap.Int("length", frame.Len()),
		)
	default:
		logging.Debug("RX: Frame dropped",
			zap.String("frame", frame.String()),
			zap.Error(err),
		)
	}
}

func (e *Engine) publishReading(reading Reading) {
	switch r := reading.(type) {
	case *MainUnitReading:
		logging.Debug("Heat: "+r.Mode.String(),
			zap.String("address", r.Address.String()),
			zap.Int16("power_w", r.PowerToTank),
			zap.Float64("import_w", r.ImportWatts),
			zap.Uint8("boost_min", r.BoostMinutes),
		)
		if r.Warning != "" {
			logging.Warn("Status Warning", zap.String("warning", r.Warning))
		}
		if e.publisher == nil {
			return
		}
		e.publisher.PublishNumber(SensorRSSIIBoost, r.RSSI)
		e.publisher.PublishText(SensorHeatingMode, r.Mode.String())
		e.publisher.PublishText(SensorHeatingWarn, r.Warning)
		e.publisher.PublishNumber(SensorHeatingPower, float64(r.PowerToTank))
		e.publisher.PublishNumber(SensorHeatingImport, r.ImportWatts)
		e.publisher.PublishNumber(SensorHeatingBoostTime, float64(r.BoostMinutes))
		if r.Energy != nil {
			e.publisher.PublishNumber(r.Energy.Period.Sensor(), float64(r.Energy.WattHours))
		}

	case *BuddyReading:
		if r.Captured {
			logging.Info("RX: System address captured from Buddy",
				zap.String("address", r.Address.String()),
				zap.Float64("rssi", r.RSSI),
			)
		}
		if e.publisher != nil {
			e.publisher.PublishNumber(SensorRSSIBuddy, r.RSSI)
		}

	case *SenderReading:
		if r.Captured {
			logging.Info("RX: System address captured from Sender",
				zap.String("address", r.Address.String()),
				zap.Float64("rssi", r.RSSI),
			)
		}
		if e.publisher != nil {
			e.publisher.PublishNumber(SensorRSSISender, r.RSSI)
		}
	}
}

func (e *Engine) publishPacketCount(count uint64) {
	if e.publisher == nil {
		return
	}
	e.publisher.PublishNumber(SensorPacketCount, float64(count))
	if e.clock != nil {
		now := e.clock()
		if !now.IsZero() {
			e.publisher.PublishText(SensorLastPacket, now.UTC().Format(lastPacketLayout))
		}
	}
}

// RequestData sends the next data request of the cycle. It is driven by the
// poll tick; ErrNoSystemAddress means the next tick should try again.
func (e *Engine) RequestData(ctx context.Context) error {
	return e.sendControl(ctx, ActionRequestData, 0)
}

// BoostStart asks the main unit to boost for the given number of minutes
func (e *Engine) BoostStart(ctx context.Context, minutes uint8) error {
	return e.sendControl(ctx, ActionBoostStart, minutes)
}

// BoostCancel asks the main unit to stop a running boost
func (e *Engine) BoostCancel(ctx context.Context) error {
	return e.sendControl(ctx, ActionBoostCancel, 0)
}

// BuildControl builds a control frame without sending it
func (e *Engine) BuildControl(action ControlAction, minutes uint8) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return BuildControlFrame(e.registry, &e.cycle, action, minutes)
}

func (e *Engine) sendControl(ctx context.Context, action ControlAction, minutes uint8) error {
	frame, err := e.BuildControl(action, minutes)
	if err != nil {
		logging.Debug("TX: Cannot send control message",
			zap.String("action", action.String()),
			zap.Error(err),
		)
		return err
	}

	if e.radio == nil {
		logging.Error("Radio not configured; cannot transmit packet",
			zap.String("action", action.String()),
		)
		return &ProtocolError{
			Type:    ErrTypeTransmit,
			Message: fmt.Sprintf("cannot send %s frame", action),
			Err:     ErrTransmitUnavailable,
		}
	}

	if err := ValidateControlFrame(frame); err != nil {
		return fmt.Errorf("invalid control frame: %w", err)
	}

	logging.Debug("TX: Transmitting packet data",
		zap.String("hex", hex.EncodeToString(frame)),
	)

	if err := e.radio.Transmit(ctx, frame); err != nil {
		logging.Error("TX: Transmission failed",
			zap.String("action", action.String()),
			zap.Error(err),
		)
		return &ProtocolError{
			Type:    ErrTypeTransmit,
			Message: fmt.Sprintf("send %s frame", action),
			Length:  len(frame),
			Err:     err,
		}
	}

	logging.Debug("TX: Sent control packet",
		zap.String("action", action.String()),
		zap.String("frame", DescribeControlFrame(frame)),
	)
	return nil
}

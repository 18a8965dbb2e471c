package service

import (
	"context"
	"errors"
	"time"

	"github.com/ibuddy/iboost/internal/capture"
	"github.com/ibuddy/iboost/internal/logging"
	"github.com/ibuddy/iboost/internal/protocol"
	"github.com/ibuddy/iboost/internal/radio"
	"go.uber.org/zap"
)

// DefaultPollInterval is the data request period
const DefaultPollInterval = 10 * time.Second

// ErrRadioStopped is returned by Run when the radio closes its packet channel
var ErrRadioStopped = errors.New("radio stopped delivering packets")

// Frame results used as metric labels
const (
	ResultOK            = "ok"
	ResultMalformed     = "malformed"
	ResultUnknownType   = "unknown_type"
	ResultForeignSystem = "foreign_system"
	ResultNoAddress     = "no_address"
	ResultError         = "error"
)

// Metrics counts frames and transmissions
type Metrics interface {
	RecordFrame(result string)
	RecordTransmit(action, result string)
}

// Options configures a Service
type Options struct {
	Radio        radio.Radio
	Publisher    protocol.Publisher
	Recorder     *capture.Recorder // nil disables capture
	Metrics      Metrics           // nil disables counting
	PollInterval time.Duration
	Clock        protocol.Clock
}

// Service drives one protocol engine from a radio and a poll ticker
type Service struct {
	engine       *protocol.Engine
	radio        radio.Radio
	recorder     *capture.Recorder
	metrics      Metrics
	pollInterval time.Duration
}

// New creates the engine and wires its transmit path through the service
// so that sent frames are captured and counted.
func New(opts Options) *Service {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &Service{
		radio:        opts.Radio,
		recorder:     opts.Recorder,
		metrics:      opts.Metrics,
		pollInterval: opts.PollInterval,
	}

	engineOpts := []protocol.Option{
		protocol.WithClock(opts.Clock),
		protocol.WithPublisher(opts.Publisher),
	}
	if opts.Radio != nil {
		engineOpts = append(engineOpts, protocol.WithTransmitter(&transmitter{s: s}))
	}
	s.engine = protocol.NewEngine(engineOpts...)
	return s
}

// Engine returns the protocol engine for boost commands and status
func (s *Service) Engine() *protocol.Engine {
	return s.engine
}

// Run publishes the initial sensor state, then processes received frames and
// sends a data request every poll interval until ctx ends or the radio
// stops. It returns nil when ctx ends.
func (s *Service) Run(ctx context.Context) error {
	if s.radio == nil {
		return errors.New("service: no radio configured")
	}

	s.engine.PublishInitialState()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	logging.Info("Service started", zap.Duration("poll_interval", s.pollInterval))

	packets := s.radio.Packets()
	for {
		select {
		case <-ctx.Done():
			logging.Info("Service stopping", zap.Uint64("packets", s.engine.Status().PacketCount))
			return nil

		case pkt, ok := <-packets:
			if !ok {
				logging.Info("Radio closed packet stream", zap.Uint64("packets", s.engine.Status().PacketCount))
				return ErrRadioStopped
			}
			s.handlePacket(pkt)

		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Service) handlePacket(pkt radio.Packet) {
	if err := s.recorder.Record(capture.DirectionRX, pkt.Data, pkt.RSSI); err != nil {
		logging.Warn("Failed to capture frame", zap.Error(err))
	}

	_, err := s.engine.Process(pkt.Data, pkt.RSSI)
	if s.metrics != nil {
		s.metrics.RecordFrame(FrameResult(err))
	}
}

func (s *Service) poll(ctx context.Context) {
	err := s.engine.RequestData(ctx)
	switch {
	case err == nil:
	case errors.Is(err, protocol.ErrNoSystemAddress):
		logging.Debug("Waiting for system address before requesting data")
	default:
		logging.Warn("Data request failed", zap.Error(err))
	}
}

// FrameResult maps a Process error to a metric label
func FrameResult(err error) string {
	if err == nil {
		return ResultOK
	}
	typ, ok := protocol.ErrorTypeOf(err)
	if !ok {
		return ResultError
	}
	switch typ {
	case protocol.ErrTypeMalformed:
		return ResultMalformed
	case protocol.ErrTypeUnknownType:
		return ResultUnknownType
	case protocol.ErrTypeForeignSystem:
		return ResultForeignSystem
	case protocol.ErrTypeNoAddress:
		return ResultNoAddress
	default:
		return ResultError
	}
}

// transmitter captures and counts frames on their way to the radio
type transmitter struct {
	s *Service
}

func (t *transmitter) Transmit(ctx context.Context, frame []byte) error {
	err := t.s.radio.Transmit(ctx, frame)

	if t.s.metrics != nil {
		action := "unknown"
		if a, ok := protocol.ControlActionOf(frame); ok {
			action = a.String()
		}
		result := ResultOK
		if err != nil {
			result = ResultError
		}
		t.s.metrics.RecordTransmit(action, result)
	}

	if err != nil {
		return err
	}
	if recErr := t.s.recorder.Record(capture.DirectionTX, frame, 0); recErr != nil {
		logging.Warn("Failed to capture frame", zap.Error(recErr))
	}
	return nil
}

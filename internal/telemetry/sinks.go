package telemetry

import (
	"github.com/ibuddy/iboost/internal/logging"
	"github.com/ibuddy/iboost/internal/protocol"
	"go.uber.org/zap"
)

// LogSink logs every published value at debug level
type LogSink struct{}

func (LogSink) PublishNumber(sensor string, value float64) {
	logging.Debug("Sensor update", zap.String("sensor", sensor), zap.Float64("value", value))
}

func (LogSink) PublishText(sensor string, value string) {
	logging.Debug("Sensor update", zap.String("sensor", sensor), zap.String("value", value))
}

// Fanout publishes to several publishers in order. Nil entries are skipped.
type Fanout []protocol.Publisher

func (f Fanout) PublishNumber(sensor string, value float64) {
	for _, p := range f {
		if p != nil {
			p.PublishNumber(sensor, value)
		}
	}
}

func (f Fanout) PublishText(sensor string, value string) {
	for _, p := range f {
		if p != nil {
			p.PublishText(sensor, value)
		}
	}
}

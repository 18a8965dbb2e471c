package telemetry

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ibuddy/iboost/internal/protocol"
)

const namespace = "iboost"

// PrometheusSink exports sensor values and daemon counters.
//
// Numeric sensors become iboost_sensor_value{sensor}. Text sensors become an
// info-style gauge iboost_sensor_info{sensor,value} set to 1 for the current
// text only, except last_packet which is exported as a unix timestamp.
type PrometheusSink struct {
	sensorValue  *prometheus.GaugeVec
	sensorInfo   *prometheus.GaugeVec
	frames       *prometheus.CounterVec
	transmits    *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	mu       sync.Mutex
	lastText map[string]string
}

// NewPrometheusSink creates the collectors and registers them with reg
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	s := &PrometheusSink{
		sensorValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sensor_value",
				Help:      "Latest numeric sensor value.",
			},
			[]string{"sensor"},
		),
		sensorInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sensor_info",
				Help:      "Current text sensor value (always 1).",
			},
			[]string{"sensor", "value"},
		),
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_total",
				Help:      "Received frames by processing result.",
			},
			[]string{"result"},
		),
		transmits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transmits_total",
				Help:      "Control frames by action and result.",
			},
			[]string{"action", "result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		lastText: make(map[string]string),
	}

	for _, c := range []prometheus.Collector{
		s.sensorValue, s.sensorInfo, s.frames, s.transmits, s.httpRequests, s.httpDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// PublishNumber sets iboost_sensor_value
func (s *PrometheusSink) PublishNumber(sensor string, value float64) {
	s.sensorValue.WithLabelValues(sensor).Set(value)
}

// PublishText moves iboost_sensor_info to the new text. The last-packet
// timestamp changes every frame, so it goes to iboost_sensor_value as unix
// seconds instead.
func (s *PrometheusSink) PublishText(sensor string, value string) {
	if sensor == protocol.SensorLastPacket {
		if at, err := time.Parse(time.RFC3339, value); err == nil {
			s.sensorValue.WithLabelValues(sensor).Set(float64(at.Unix()))
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.lastText[sensor]; ok && prev != value {
		s.sensorInfo.DeleteLabelValues(sensor, prev)
	}
	s.lastText[sensor] = value
	s.sensorInfo.WithLabelValues(sensor, value).Set(1)
}

// RecordFrame counts one received frame
func (s *PrometheusSink) RecordFrame(result string) {
	s.frames.WithLabelValues(result).Inc()
}

// RecordTransmit counts one control frame attempt
func (s *PrometheusSink) RecordTransmit(action, result string) {
	s.transmits.WithLabelValues(action, result).Inc()
}

// RecordHTTPRequest records one served API request
func (s *PrometheusSink) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	s.httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	s.httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

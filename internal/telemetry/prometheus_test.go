package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ibuddy/iboost/internal/protocol"
)

func newTestSink(t *testing.T) *PrometheusSink {
	t.Helper()
	sink, err := NewPrometheusSink(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewPrometheusSink() error = %v", err)
	}
	return sink
}

func TestPrometheusSink_Numbers(t *testing.T) {
	sink := newTestSink(t)

	sink.PublishNumber("heating_power", 1200)
	sink.PublishNumber("heating_power", 900)

	if got := testutil.ToFloat64(sink.sensorValue.WithLabelValues("heating_power")); got != 900 {
		t.Errorf("sensor_value = %v, want 900", got)
	}
}

func TestPrometheusSink_TextMovesLabel(t *testing.T) {
	sink := newTestSink(t)

	sink.PublishText("heating_mode", "OFF: Water Heating Off")
	sink.PublishText("heating_mode", "ON: Heating from Solar")
	sink.PublishText("heating_warn", "")

	if n := testutil.CollectAndCount(sink.sensorInfo); n != 2 {
		t.Errorf("sensor_info series = %d, want 2", n)
	}
	if got := testutil.ToFloat64(sink.sensorInfo.WithLabelValues("heating_mode", "ON: Heating from Solar")); got != 1 {
		t.Errorf("current mode gauge = %v, want 1", got)
	}
}

func TestPrometheusSink_LastPacketIsTimestamp(t *testing.T) {
	sink := newTestSink(t)
	start := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		sink.PublishText(protocol.SensorLastPacket, start.Add(time.Duration(i)*time.Second).Format(time.RFC3339))
	}
	sink.PublishText(protocol.SensorLastPacket, "not a time")

	if n := testutil.CollectAndCount(sink.sensorInfo); n != 0 {
		t.Errorf("sensor_info series = %d, want 0", n)
	}
	want := float64(start.Add(4 * time.Second).Unix())
	if got := testutil.ToFloat64(sink.sensorValue.WithLabelValues(protocol.SensorLastPacket)); got != want {
		t.Errorf("sensor_value{last_packet} = %v, want %v", got, want)
	}
}

func TestPrometheusSink_Counters(t *testing.T) {
	sink := newTestSink(t)

	sink.RecordFrame("ok")
	sink.RecordFrame("ok")
	sink.RecordFrame("foreign_system")
	sink.RecordTransmit("Request Data", "ok")
	sink.RecordHTTPRequest("GET", "/api/status", 200, 3*time.Millisecond)

	if got := testutil.ToFloat64(sink.frames.WithLabelValues("ok")); got != 2 {
		t.Errorf("frames_total{ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(sink.transmits.WithLabelValues("Request Data", "ok")); got != 1 {
		t.Errorf("transmits_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.httpRequests.WithLabelValues("GET", "/api/status", "200")); got != 1 {
		t.Errorf("http_requests_total = %v, want 1", got)
	}
}

func TestPrometheusSink_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusSink(reg); err != nil {
		t.Fatalf("first NewPrometheusSink() error = %v", err)
	}
	if _, err := NewPrometheusSink(reg); err == nil {
		t.Error("second registration should fail")
	}
}

func TestFanout(t *testing.T) {
	a, b := NewStore(), NewStore()
	f := Fanout{a, nil, b, LogSink{}}

	f.PublishNumber("rssi_buddy", -70)
	f.PublishText("heating_warn", "Sender Battery Low")

	for _, s := range []*Store{a, b} {
		if u, ok := s.Get("rssi_buddy"); !ok || u.Value != -70.0 {
			t.Errorf("rssi_buddy = %+v, %v", u, ok)
		}
		if u, ok := s.Get("heating_warn"); !ok || u.Value != "Sender Battery Low" {
			t.Errorf("heating_warn = %+v, %v", u, ok)
		}
	}
}

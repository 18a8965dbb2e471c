package telemetry

import (
	"testing"
	"time"
)

func TestStore_LatestValue(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.PublishNumber("heating_power", 100)
	s.PublishNumber("heating_power", 250)
	s.PublishText("heating_mode", "ON: Heating from Solar")

	u, ok := s.Get("heating_power")
	if !ok {
		t.Fatal("Get(heating_power) missing")
	}
	if v, ok := u.Number(); !ok || v != 250 {
		t.Errorf("Number() = %v, %v; want 250", v, ok)
	}
	if !u.At.Equal(fixed) {
		t.Errorf("At = %v", u.At)
	}

	mode, _ := s.Get("heating_mode")
	if text, ok := mode.Text(); !ok || text != "ON: Heating from Solar" {
		t.Errorf("Text() = %q, %v", text, ok)
	}
	if _, ok := mode.Number(); ok {
		t.Error("text value reported as number")
	}

	snap := s.Snapshot()
	if len(snap) != 2 || snap[0].Sensor != "heating_mode" || snap[1].Sensor != "heating_power" {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()
	ch, unsubscribe := s.Subscribe(1)

	s.PublishNumber("packet_count", 1)
	// Buffer full: the second update is dropped rather than blocking
	s.PublishNumber("packet_count", 2)

	select {
	case u := <-ch:
		if v, _ := u.Number(); v != 1 {
			t.Errorf("first update = %v, want 1", v)
		}
	default:
		t.Fatal("no update delivered")
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Error("channel open after unsubscribe")
	}

	s.PublishNumber("packet_count", 3)
	if u, _ := s.Get("packet_count"); u.Value != 3.0 {
		t.Errorf("latest = %v, want 3", u.Value)
	}
}

package radio

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ibuddy/iboost/internal/capture"
)

func TestReplayRadio_PlaysRXRecords(t *testing.T) {
	records := []capture.Record{
		{MessageNum: 1, Direction: capture.DirectionRX, RSSI: -70, Hex: "123421"},
		{MessageNum: 2, Direction: capture.DirectionTX, Hex: "123421ff"},
		{MessageNum: 3, Direction: capture.DirectionRX, Hex: "nothex"},
		{MessageNum: 4, Direction: capture.DirectionRX, RSSI: -90, Hex: "123422"},
	}

	r := NewReplayRadio(records, 0)
	defer r.Close()

	var got []Packet
	timeout := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case pkt, ok := <-r.Packets():
			if !ok {
				done = true
				break
			}
			got = append(got, pkt)
		case <-timeout:
			t.Fatal("replay did not finish")
		}
	}

	if len(got) != 2 {
		t.Fatalf("got %d packets, want 2", len(got))
	}
	if got[0].RSSI != -70 || !bytes.Equal(got[1].Data, []byte{0x12, 0x34, 0x22}) {
		t.Errorf("packets = %+v", got)
	}
}

func TestReplayRadio_Transmit(t *testing.T) {
	r := NewReplayRadio(nil, 0)

	frame := []byte{0x12, 0x34, 0x21}
	if err := r.Transmit(context.Background(), frame); err != nil {
		t.Fatalf("Transmit() error = %v", err)
	}
	frame[0] = 0xff

	sent := r.Sent()
	if len(sent) != 1 || sent[0][0] != 0x12 {
		t.Errorf("Sent() = %x", sent)
	}

	r.Close()
	if err := r.Transmit(context.Background(), frame); !errors.Is(err, ErrClosed) {
		t.Errorf("Transmit() after Close error = %v, want ErrClosed", err)
	}
}

func TestReplayRadio_CloseStopsPacedReplay(t *testing.T) {
	records := make([]capture.Record, 100)
	for i := range records {
		records[i] = capture.Record{Direction: capture.DirectionRX, Hex: "123421"}
	}

	r := NewReplayRadio(records, 1)
	closed := make(chan struct{})
	go func() {
		r.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close() blocked on a paced replay")
	}
}

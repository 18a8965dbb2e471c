package radio

import (
	"context"
	"sync"
	"time"

	"github.com/ibuddy/iboost/internal/capture"
	"github.com/ibuddy/iboost/internal/logging"
	"go.uber.org/zap"
)

// ReplayRadio plays back received frames from a capture. Transmitted frames
// are kept in memory instead of going on air.
type ReplayRadio struct {
	packets chan Packet
	cancel  context.CancelFunc
	done    chan struct{}

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

// NewReplayRadio starts replaying the rx records at rate packets per
// second; rate 0 replays without delay. The packet channel closes after the
// last record.
func NewReplayRadio(records []capture.Record, rate float64) *ReplayRadio {
	ctx, cancel := context.WithCancel(context.Background())
	r := &ReplayRadio{
		packets: make(chan Packet),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go r.run(ctx, records, rate)
	return r
}

func (r *ReplayRadio) run(ctx context.Context, records []capture.Record, rate float64) {
	defer close(r.done)
	defer close(r.packets)

	var ticker *time.Ticker
	if rate > 0 {
		ticker = time.NewTicker(time.Duration(float64(time.Second) / rate))
		defer ticker.Stop()
	}

	for _, rec := range records {
		if rec.Direction != capture.DirectionRX {
			continue
		}
		data, err := rec.Bytes()
		if err != nil {
			logging.Warn("Replay: Skipping record", zap.Int("message_num", rec.MessageNum), zap.Error(err))
			continue
		}

		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}

		select {
		case r.packets <- Packet{Data: data, RSSI: rec.RSSI, ReceivedAt: time.Now()}:
		case <-ctx.Done():
			return
		}
	}
	logging.Info("Replay: Capture exhausted", zap.Int("records", len(records)))
}

// Packets returns the replayed frames
func (r *ReplayRadio) Packets() <-chan Packet {
	return r.packets
}

// Transmit records the frame
func (r *ReplayRadio) Transmit(ctx context.Context, frame []byte) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return &RadioError{Op: "transmit", Device: "replay", Err: ErrClosed}
	}
	r.sent = append(r.sent, append([]byte(nil), frame...))
	r.mu.Unlock()

	logging.LogPacket(logging.DirectionTX, frame, 0)
	return nil
}

// Sent returns copies of all transmitted frames
func (r *ReplayRadio) Sent() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.sent))
	for i, f := range r.sent {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// Close stops the replay
func (r *ReplayRadio) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	<-r.done
	return nil
}

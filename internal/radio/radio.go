package radio

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Packet is one frame received over the air
type Packet struct {
	Data       []byte
	RSSI       float64 // dBm
	ReceivedAt time.Time
}

// Radio is a half-duplex sub-GHz transceiver configured for the iBoost link.
//
// Packets are delivered on the channel returned by Packets, which is closed
// once the radio stops receiving.
type Radio interface {
	Transmit(ctx context.Context, frame []byte) error
	Packets() <-chan Packet
	Close() error
}

var (
	// ErrClosed is returned by Transmit after Close
	ErrClosed = errors.New("radio closed")

	// ErrRejected means the transceiver refused the frame
	ErrRejected = errors.New("transmission rejected")
)

// RadioError records a failed radio operation
type RadioError struct {
	Op     string // "open", "transmit", "receive"
	Device string
	Err    error
}

func (e *RadioError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("radio %s %s: %v", e.Op, e.Device, e.Err)
	}
	return fmt.Sprintf("radio %s: %v", e.Op, e.Err)
}

func (e *RadioError) Unwrap() error {
	return e.Err
}

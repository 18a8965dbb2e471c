package radio

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ibuddy/iboost/internal/logging"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// Bridge line protocol. The bridge MCU owns the SX126x and speaks ASCII lines:
//
//	device -> host:  RX <rssi> <hex>   received frame (length byte stripped)
//	host -> device:  TX <hex>          frame to send
//	device -> host:  OK | ERR <reason> result of the last TX
const (
	lineRX  = "RX"
	lineTX  = "TX"
	lineOK  = "OK"
	lineERR = "ERR"
)

// DefaultReplyTimeout bounds the wait for OK/ERR after a TX line
const DefaultReplyTimeout = 2 * time.Second

// SerialConfig holds connection configuration for the serial bridge.
type SerialConfig struct {
	Port         string
	BaudRate     int
	ReplyTimeout time.Duration
}

// SerialBridge is a Radio backed by a bridge MCU on a serial port
type SerialBridge struct {
	device       string
	port         io.ReadWriteCloser
	replyTimeout time.Duration

	packets chan Packet
	replies chan string

	txMu      sync.Mutex // One TX in flight at a time
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// OpenSerial opens the serial port and starts receiving.
func OpenSerial(cfg SerialConfig) (*SerialBridge, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, &RadioError{Op: "open", Device: cfg.Port, Err: err}
	}

	logging.Info("Radio bridge opened",
		zap.String("port", cfg.Port),
		zap.Int("baud_rate", cfg.BaudRate),
	)
	return newSerialBridge(cfg.Port, port, cfg.ReplyTimeout), nil
}

func newSerialBridge(device string, port io.ReadWriteCloser, replyTimeout time.Duration) *SerialBridge {
	if replyTimeout <= 0 {
		replyTimeout = DefaultReplyTimeout
	}
	b := &SerialBridge{
		device:       device,
		port:         port,
		replyTimeout: replyTimeout,
		packets:      make(chan Packet, 16),
		replies:      make(chan string, 1),
		done:         make(chan struct{}),
	}
	b.wg.Add(1)
	go b.readLoop()
	return b
}

// Packets returns the receive channel
func (b *SerialBridge) Packets() <-chan Packet {
	return b.packets
}

// Transmit writes a TX line and waits for the bridge's verdict
func (b *SerialBridge) Transmit(ctx context.Context, frame []byte) error {
	b.txMu.Lock()
	defer b.txMu.Unlock()

	select {
	case <-b.done:
		return &RadioError{Op: "transmit", Device: b.device, Err: ErrClosed}
	default:
	}

	// Drop a stale reply left by a timed-out transmission
	select {
	case <-b.replies:
	default:
	}

	line := fmt.Sprintf("%s %s\n", lineTX, strings.ToUpper(hex.EncodeToString(frame)))
	if _, err := io.WriteString(b.port, line); err != nil {
		return &RadioError{Op: "transmit", Device: b.device, Err: err}
	}
	logging.LogPacket(logging.DirectionTX, frame, 0)

	timer := time.NewTimer(b.replyTimeout)
	defer timer.Stop()

	select {
	case reply := <-b.replies:
		if reply == lineOK {
			return nil
		}
		reason := strings.TrimSpace(strings.TrimPrefix(reply, lineERR))
		return &RadioError{Op: "transmit", Device: b.device, Err: fmt.Errorf("%w: %s", ErrRejected, reason)}
	case <-timer.C:
		return &RadioError{Op: "transmit", Device: b.device, Err: fmt.Errorf("no reply after %s", b.replyTimeout)}
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return &RadioError{Op: "transmit", Device: b.device, Err: ErrClosed}
	}
}

func (b *SerialBridge) readLoop() {
	defer b.wg.Done()
	defer close(b.packets)

	scanner := bufio.NewScanner(b.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, lineRX+" "):
			pkt, err := ParseRXLine(line)
			if err != nil {
				logging.Debug("Bridge: Malformed RX line", zap.String("line", line), zap.Error(err))
				continue
			}
			logging.LogPacket(logging.DirectionRX, pkt.Data, pkt.RSSI)
			select {
			case b.packets <- pkt:
			case <-b.done:
				return
			}

		case line == lineOK || strings.HasPrefix(line, lineERR):
			select {
			case b.replies <- line:
			default:
				logging.Debug("Bridge: Unsolicited reply", zap.String("line", line))
			}

		default:
			logging.Debug("Bridge: Ignoring line", zap.String("line", line))
		}
	}

	select {
	case <-b.done:
	default:
		if err := scanner.Err(); err != nil {
			logging.Error("Bridge: Receive failed", zap.String("port", b.device), zap.Error(err))
		} else {
			logging.Warn("Bridge: Port closed", zap.String("port", b.device))
		}
	}
}

// ParseRXLine parses "RX <rssi> <hex>"
func ParseRXLine(line string) (Packet, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != lineRX {
		return Packet{}, fmt.Errorf("expected %q, got %d fields", "RX <rssi> <hex>", len(fields))
	}

	rssi, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Packet{}, fmt.Errorf("invalid rssi %q: %w", fields[1], err)
	}

	data, err := hex.DecodeString(fields[2])
	if err != nil {
		return Packet{}, fmt.Errorf("invalid payload: %w", err)
	}

	return Packet{Data: data, RSSI: rssi, ReceivedAt: time.Now()}, nil
}

// Close stops receiving and closes the port
func (b *SerialBridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.port.Close()
		b.wg.Wait()
	})
	return err
}

package capture

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ibuddy/iboost/internal/logging"
	"github.com/ibuddy/iboost/internal/protocol"
	"go.uber.org/zap"
)

// Record directions
const (
	DirectionRX = "rx"
	DirectionTX = "tx"
)

// Record represents one captured radio frame for offline analysis
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	MessageNum int       `json:"message_num"`
	Direction  string    `json:"direction"`
	RSSI       float64   `json:"rssi,omitempty"`
	Length     int       `json:"length"`
	PacketType byte      `json:"packet_type"`
	TypeName   string    `json:"type_name"`
	Hex        string    `json:"hex"`
	ASCII      string    `json:"ascii"`
}

// Bytes decodes the captured frame
func (r Record) Bytes() ([]byte, error) {
	data, err := hex.DecodeString(r.Hex)
	if err != nil {
		return nil, fmt.Errorf("record %d: invalid hex: %w", r.MessageNum, err)
	}
	return data, nil
}

// NewRecord describes a frame. Control frames and inbound frames both carry
// the packet type at byte 2.
func NewRecord(direction string, data []byte, rssi float64, at time.Time) Record {
	rec := Record{
		Timestamp: at,
		Direction: direction,
		RSSI:      rssi,
		Length:    len(data),
		Hex:       hex.EncodeToString(data),
		ASCII:     toASCII(data),
		TypeName:  "Truncated",
	}
	if len(data) >= protocol.MinHeaderSize {
		rec.PacketType = data[2]
		rec.TypeName = protocol.GetPacketTypeName(data[2])
	}
	if direction == DirectionTX {
		rec.RSSI = 0
	}
	return rec
}

// Recorder appends frames to a JSONL file (one JSON object per line)
type Recorder struct {
	mu       sync.Mutex
	w        io.Writer
	closer   io.Closer
	filename string
	count    int
	now      func() time.Time
}

// NewRecorder creates capture-<timestamp>.jsonl in dir
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("capture-%s.jsonl", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}

	logging.Info("Capturing radio frames", zap.String("filename", filename))
	return &Recorder{w: f, closer: f, filename: filename, now: time.Now}, nil
}

// NewWriterRecorder records to an arbitrary writer
func NewWriterRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w, now: time.Now}
}

// Filename returns the capture file path ("" for writer recorders)
func (r *Recorder) Filename() string {
	return r.filename
}

// Record appends one frame. A nil Recorder does nothing.
func (r *Recorder) Record(direction string, data []byte, rssi float64) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.count++
	rec := NewRecord(direction, data, rssi, r.now())
	rec.MessageNum = r.count

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal capture record: %w", err)
	}
	if _, err := r.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write capture record: %w", err)
	}
	return nil
}

// Close closes the capture file
func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closer.Close()
}

// ReadFile loads every record of a capture file
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Read(f)
}

// Read parses JSONL records, skipping blank lines
func Read(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	return records, nil
}

// toASCII converts bytes to ASCII string (non-printable chars become '.')
func toASCII(data []byte) string {
	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}

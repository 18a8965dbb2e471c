package capture

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rec := NewWriterRecorder(&buf)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return fixed }

	main := []byte{0x12, 0x34, 0x22, 'A', 0x00}
	ctrl := []byte{0x12, 0x34, 0x21, 0x08}

	if err := rec.Record(DirectionRX, main, -71.5); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := rec.Record(DirectionTX, ctrl, -50); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	records, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	rx := records[0]
	if rx.MessageNum != 1 || rx.Direction != DirectionRX || rx.RSSI != -71.5 {
		t.Errorf("rx record = %+v", rx)
	}
	if rx.TypeName != "iBoost" || rx.PacketType != 0x22 || rx.ASCII != ".4\"A." {
		t.Errorf("rx decode = %q/0x%02x/%q", rx.TypeName, rx.PacketType, rx.ASCII)
	}
	if !rx.Timestamp.Equal(fixed) {
		t.Errorf("Timestamp = %v, want %v", rx.Timestamp, fixed)
	}

	data, err := rx.Bytes()
	if err != nil || !bytes.Equal(data, main) {
		t.Errorf("Bytes() = %x, %v; want %x", data, err, main)
	}

	tx := records[1]
	if tx.MessageNum != 2 || tx.RSSI != 0 || tx.TypeName != "Buddy" {
		t.Errorf("tx record = %+v", tx)
	}
}

func TestNewRecord_Truncated(t *testing.T) {
	rec := NewRecord(DirectionRX, []byte{0x01}, -90, time.Now())
	if rec.TypeName != "Truncated" || rec.Length != 1 {
		t.Errorf("record = %+v", rec)
	}
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(strings.NewReader("{\"hex\":\"00\"}\n\nnot json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("Read() error = %v, want line 3 error", err)
	}

	if _, err := (Record{Hex: "zz"}).Bytes(); err == nil {
		t.Error("Bytes() with invalid hex should fail")
	}
}

func TestNewRecorder_File(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "captures")

	rec, err := NewRecorder(dir)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	if err := rec.Record(DirectionRX, []byte{0x12, 0x34, 0x01}, -60); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !strings.HasPrefix(filepath.Base(rec.Filename()), "capture-") {
		t.Errorf("Filename() = %q", rec.Filename())
	}

	records, err := ReadFile(rec.Filename())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(records) != 1 || records[0].TypeName != "Sender" {
		t.Errorf("records = %+v", records)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.jsonl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile() missing error = %v", err)
	}
}

func TestRecorder_Nil(t *testing.T) {
	var rec *Recorder
	if err := rec.Record(DirectionRX, []byte{1, 2, 3}, 0); err != nil {
		t.Errorf("nil Record() error = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}

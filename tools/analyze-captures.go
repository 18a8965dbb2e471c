//go:build ignore

package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/ibuddy/iboost/internal/capture"
	"github.com/ibuddy/iboost/internal/protocol"
)

// Known main-unit fields, by offset
var mainUnitFields = []struct {
	offset int
	size   int
	name   string
}{
	{0, 2, "address"},
	{2, 1, "packet type"},
	{5, 1, "boost minutes"},
	{6, 1, "water heating (0 = heating)"},
	{7, 1, "tank hot"},
	{13, 1, "overheat"},
	{16, 2, "power to tank (int16 W)"},
	{18, 4, "import accumulator (int32 /360)"},
	{24, 1, "response mode"},
	{25, 4, "energy value (int32 Wh)"},
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: analyze-captures <jsonl-file>")
		fmt.Println("Example: analyze-captures captures/capture-20250601-090000.jsonl")
		os.Exit(1)
	}

	filename := os.Args[1]
	records, err := capture.ReadFile(filename)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== iBoost Capture Analyzer ===\n")
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Records: %d\n\n", len(records))

	byType := make(map[string][][]byte)
	for _, rec := range records {
		data, err := rec.Bytes()
		if err != nil {
			fmt.Printf("Error decoding record %d: %v\n", rec.MessageNum, err)
			continue
		}
		analyzeRecord(rec, data)

		key := rec.Direction + " " + rec.TypeName
		byType[key] = append(byType[key], data)
	}

	fmt.Println("Byte Variability:")
	keys := make([]string, 0, len(byType))
	for k := range byType {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		detectVariability(k, byType[k])
	}
}

func analyzeRecord(rec capture.Record, data []byte) {
	fmt.Printf("========================================\n")
	fmt.Printf("Record #%d - %s %s - %d bytes - %s\n", rec.MessageNum, rec.Direction, rec.TypeName, len(data), rec.Timestamp.Format("15:04:05.000"))
	if rec.Direction == capture.DirectionRX {
		fmt.Printf("RSSI: %.1f dBm\n", rec.RSSI)
	}
	fmt.Printf("========================================\n\n")

	if rec.Direction == capture.DirectionTX {
		fmt.Printf("Control: %s\n", protocol.DescribeControlFrame(data))
		if err := protocol.ValidateControlFrame(data); err != nil {
			fmt.Printf("  Invalid: %v\n", err)
		}
		fmt.Println()
	} else if len(data) >= protocol.MinHeaderSize && data[2] == protocol.PacketTypeMain {
		fmt.Println("Main Unit Fields:")
		for _, f := range mainUnitFields {
			if f.offset+f.size > len(data) {
				fmt.Printf("  [%02d] %-32s (missing)\n", f.offset, f.name)
				continue
			}
			fmt.Printf("  [%02d] %-32s %s\n", f.offset, f.name, fieldValue(data[f.offset:f.offset+f.size]))
		}
		fmt.Println()
	}

	// Dump as 32-bit little-endian words
	fmt.Println("32-bit Little-Endian Words:")
	fmt.Println("Offset  Hex        Signed")
	fmt.Println("------  ---------- -----------")
	for i := 0; i+4 <= len(data); i += 4 {
		word := binary.LittleEndian.Uint32(data[i : i+4])
		fmt.Printf("[%02d-%02d] 0x%08x %11d\n", i, i+3, word, int32(word))
	}
	if rem := len(data) % 4; rem > 0 {
		start := len(data) - rem
		fmt.Printf("[%02d-%02d] tail: % x\n", start, len(data)-1, data[start:])
	}
	fmt.Println()

	fmt.Println("Hex Dump (16 bytes/line):")
	hexDump(data)
	fmt.Println()
}

func fieldValue(b []byte) string {
	switch len(b) {
	case 1:
		return fmt.Sprintf("0x%02x (%d)", b[0], b[0])
	case 2:
		return fmt.Sprintf("% x (%d)", b, int16(binary.LittleEndian.Uint16(b)))
	case 4:
		return fmt.Sprintf("% x (%d)", b, int32(binary.LittleEndian.Uint32(b)))
	default:
		return fmt.Sprintf("% x", b)
	}
}

// detectVariability lists the offsets whose value changes between frames of
// one kind. Constant offsets are candidates for fixed bytes.
func detectVariability(kind string, frames [][]byte) {
	minLen := len(frames[0])
	for _, f := range frames {
		if len(f) < minLen {
			minLen = len(f)
		}
	}

	var varying, constant []int
	for i := 0; i < minLen; i++ {
		same := true
		for _, f := range frames[1:] {
			if f[i] != frames[0][i] {
				same = false
				break
			}
		}
		if same {
			constant = append(constant, i)
		} else {
			varying = append(varying, i)
		}
	}

	fmt.Printf("  %s (%d frames, common length %d)\n", kind, len(frames), minLen)
	fmt.Printf("    varying offsets:  %v\n", varying)
	if len(frames) > 1 {
		fmt.Printf("    constant offsets: %v\n", constant)
	}
}

func hexDump(data []byte) {
	for i := 0; i < len(data); i += 16 {
		fmt.Printf("%04x  ", i)

		for j := 0; j < 16; j++ {
			if i+j < len(data) {
				fmt.Printf("%02x ", data[i+j])
			} else {
				fmt.Print("   ")
			}
			if j == 7 {
				fmt.Print(" ")
			}
		}

		fmt.Print(" |")
		for j := 0; j < 16 && i+j < len(data); j++ {
			b := data[i+j]
			if b >= 32 && b <= 126 {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
}

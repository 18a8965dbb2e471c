//go:build ignore

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ibuddy/iboost/internal/capture"
	"github.com/ibuddy/iboost/internal/protocol"
	"github.com/ibuddy/iboost/internal/service"
)

// Statistics tracks decoding results across capture files
type Statistics struct {
	TotalRecords   int
	TotalFiles     int
	Transmitted    int
	Results        map[string]int
	PacketTypes    map[byte]int
	FrameLengths   map[int]int
	Addresses      map[string]int
	FailedMessages []FailedMessage
}

// FailedMessage stores information about a rejected frame
type FailedMessage struct {
	File       string
	MessageNum int
	Hex        string
	Error      string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_captures <directory-or-file>")
		fmt.Println("Example: validate_captures /var/lib/iboost/captures/")
		fmt.Println("         validate_captures capture-20250601-090000.jsonl")
		os.Exit(1)
	}

	path := os.Args[1]

	stats := Statistics{
		Results:      make(map[string]int),
		PacketTypes:  make(map[byte]int),
		FrameLengths: make(map[int]int),
		Addresses:    make(map[string]int),
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.jsonl"))
		if err != nil {
			fmt.Printf("Error finding JSONL files: %v\n", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Printf("No JSONL files found in %s\n", path)
			os.Exit(1)
		}
	}

	fmt.Printf("=== iBoost Capture Validator ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))

	for _, file := range files {
		processFile(file, &stats)
	}

	printStatistics(&stats)
}

// processFile runs one capture through a fresh engine so the address is
// learnt the same way it was on air
func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	records, err := capture.ReadFile(filename)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", filename, err)
		return
	}

	engine := protocol.NewEngine()

	for _, rec := range records {
		stats.TotalRecords++
		if rec.Direction == capture.DirectionTX {
			stats.Transmitted++
			continue
		}

		data, err := rec.Bytes()
		if err != nil {
			stats.Results["invalid_hex"]++
			stats.FailedMessages = append(stats.FailedMessages, FailedMessage{
				File: filename, MessageNum: rec.MessageNum, Hex: rec.Hex, Error: err.Error(),
			})
			continue
		}

		stats.FrameLengths[len(data)]++
		if len(data) >= protocol.MinHeaderSize {
			stats.PacketTypes[data[2]]++
			stats.Addresses[protocol.Address{data[0], data[1]}.String()]++
		}

		_, err = engine.Process(data, rec.RSSI)
		stats.Results[service.FrameResult(err)]++
		if err != nil {
			stats.FailedMessages = append(stats.FailedMessages, FailedMessage{
				File: filename, MessageNum: rec.MessageNum, Hex: rec.Hex, Error: err.Error(),
			})
		}
	}

	status := engine.Status()
	fmt.Printf("%s: %d records, system address %s\n", filepath.Base(filename), len(records), orNone(status.Address))
}

func printStatistics(stats *Statistics) {
	received := stats.TotalRecords - stats.Transmitted

	fmt.Printf("\n========================================\n")
	fmt.Printf("VALIDATION RESULTS\n")
	fmt.Printf("========================================\n\n")

	fmt.Printf("Files Processed:    %d\n", stats.TotalFiles)
	fmt.Printf("Total Records:      %d\n", stats.TotalRecords)
	fmt.Printf("Received:           %d\n", received)
	fmt.Printf("Transmitted:        %d\n", stats.Transmitted)

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("RESULTS\n")
	fmt.Printf("----------------------------------------\n")
	for _, result := range sortedKeys(stats.Results) {
		fmt.Printf("%-16s %d (%s)\n", result+":", stats.Results[result], percent(stats.Results[result], received))
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("PACKET TYPE DISTRIBUTION\n")
	fmt.Printf("----------------------------------------\n")
	types := make([]int, 0, len(stats.PacketTypes))
	for t := range stats.PacketTypes {
		types = append(types, int(t))
	}
	sort.Ints(types)
	for _, t := range types {
		count := stats.PacketTypes[byte(t)]
		fmt.Printf("Type 0x%02x (%s): %d (%s)\n", t, protocol.GetPacketTypeName(byte(t)), count, percent(count, received))
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("FRAME LENGTH DISTRIBUTION\n")
	fmt.Printf("----------------------------------------\n")
	lengths := make([]int, 0, len(stats.FrameLengths))
	for l := range stats.FrameLengths {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)
	for _, l := range lengths {
		fmt.Printf("%d bytes: %d frames (%s)\n", l, stats.FrameLengths[l], percent(stats.FrameLengths[l], received))
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("ADDRESSES HEARD\n")
	fmt.Printf("----------------------------------------\n")
	for _, addr := range sortedKeys(stats.Addresses) {
		fmt.Printf("%s: %d frames\n", addr, stats.Addresses[addr])
	}

	if len(stats.FailedMessages) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("REJECTED FRAMES (%d total)\n", len(stats.FailedMessages))
		fmt.Printf("----------------------------------------\n")

		maxShow := 10
		if len(stats.FailedMessages) > maxShow {
			fmt.Printf("(Showing first %d of %d)\n", maxShow, len(stats.FailedMessages))
		}

		for i, failed := range stats.FailedMessages {
			if i >= maxShow {
				break
			}
			fmt.Printf("\nRejected #%d:\n", i+1)
			fmt.Printf("  File: %s (msg #%d)\n", failed.File, failed.MessageNum)
			fmt.Printf("  Error: %s\n", failed.Error)
			hexPreview := failed.Hex
			if len(hexPreview) > 80 {
				hexPreview = hexPreview[:80] + "..."
			}
			fmt.Printf("  Frame: %s\n", hexPreview)
		}
	}

	fmt.Printf("\n========================================\n")
	if stats.Results[service.ResultMalformed]+stats.Results["invalid_hex"] == 0 {
		fmt.Printf("OK: no malformed frames\n")
	} else {
		fmt.Printf("ISSUES FOUND: %d malformed frames\n", stats.Results[service.ResultMalformed]+stats.Results["invalid_hex"])
	}
	fmt.Printf("========================================\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func percent(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", float64(n)/float64(total)*100)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

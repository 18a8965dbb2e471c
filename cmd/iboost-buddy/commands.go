package main

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibuddy/iboost/internal/capture"
	"github.com/ibuddy/iboost/internal/logging"
	"github.com/ibuddy/iboost/internal/protocol"
	"github.com/ibuddy/iboost/internal/service"
	"github.com/ibuddy/iboost/internal/telemetry"
	"github.com/ibuddy/iboost/internal/ui"
)

// Offline command flags
var (
	decodeRSSI    float64
	encodeAddress string
	encodeMinutes int
	encodeCount   int
	replayVerbose bool
)

func init() {
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(replayCmd)
}

// initCLILogging keeps one-shot commands silent unless asked otherwise
func initCLILogging() error {
	return logging.Initialize(logLevel)
}

// parseHexFrame accepts "12 34 22", "12:34:22", "0x123422" and plain hex
func parseHexFrame(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer(" ", "", ":", "", "-", "", "\t", "").Replace(s)
	if s == "" {
		return nil, fmt.Errorf("empty frame")
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex frame: %w", err)
	}
	return data, nil
}

// decodeCmd decodes captured frames
var decodeCmd = &cobra.Command{
	Use:   "decode <hex> [hex...]",
	Short: "Decode radio frames",
	Long: `Decode one or more received frames given as hex.

Frames are run through a fresh protocol engine in order, so a buddy or
sender frame given first seeds the system address exactly as it would on
air, and a main-unit frame from another system is then rejected.`,
	Example: `  # Decode a single main-unit frame
  iboost-buddy decode 1234220000...

  # Seed the address with a buddy frame, then decode a main-unit frame
  iboost-buddy decode "12 34 21 ..." "12 34 22 ..." --rssi -68`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().Float64Var(&decodeRSSI, "rssi", -70, "Signal strength to attribute to each frame (dBm)")
}

func runDecode(cmd *cobra.Command, args []string) error {
	if err := initCLILogging(); err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Frame Decode", "iboost-buddy decode", map[string]string{
		"Frames": strconv.Itoa(len(args)),
		"RSSI":   fmt.Sprintf("%.1f dBm", decodeRSSI),
	})

	engine := protocol.NewEngine()
	rejected := 0
	for i, arg := range args {
		data, err := parseHexFrame(arg)
		if err != nil {
			p.PrintError(fmt.Sprintf("Frame %d", i+1), err, []string{
				"Give each frame as a single hex string",
				"Spaces, colons and a 0x prefix are ignored",
			})
			rejected++
			continue
		}

		logging.LogRawBytes("Decoding frame", data)

		reading, err := engine.Process(data, decodeRSSI)
		if err != nil {
			// A malformed frame is a capture problem; anything else is a
			// valid frame the engine chose to drop
			if protocol.IsMalformed(err) {
				p.PrintError(fmt.Sprintf("Frame %d malformed", i+1), err, []string{
					"Frame: " + ui.FormatHex(data),
					fmt.Sprintf("Frames are %d-%d bytes: address, type, payload", protocol.MinFrameSize, protocol.MaxFrameSize),
					"Known types are 01 (sender), 21 (buddy) and 22 (iBoost)",
				})
			} else {
				details := map[string]string{
					"Reason": err.Error(),
					"Frame":  ui.FormatHex(data),
				}
				if typ, ok := protocol.ErrorTypeOf(err); ok {
					details["Class"] = typ.String()
				}
				p.PrintWarning(fmt.Sprintf("Frame %d rejected", i+1), details)
			}
			rejected++
			continue
		}
		p.PrintReading(reading)
	}

	if rejected == len(args) {
		return fmt.Errorf("no frame could be decoded")
	}
	return nil
}

// encodeCmd builds control frames without a radio
var encodeCmd = &cobra.Command{
	Use:   "encode <request|boost|cancel>",
	Short: "Build a control frame",
	Long: `Build the 29-byte control frame the buddy would transmit.

'request' builds data requests; with --count the request code steps through
the cycle Saved Today, Saved Yesterday, Saved Last 7 Days, Saved Last 28 Days,
Saved Total. 'boost' starts a boost of --minutes, 'cancel' stops one.`,
	Example: `  # Boost for 45 minutes on system 12AB
  iboost-buddy encode boost --address 12AB --minutes 45

  # One full request cycle
  iboost-buddy encode request --address 12AB --count 5`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().StringVar(&encodeAddress, "address", "", "System address as four hex digits (required)")
	encodeCmd.Flags().IntVar(&encodeMinutes, "minutes", 30, "Boost duration in minutes (1-255)")
	encodeCmd.Flags().IntVar(&encodeCount, "count", 1, "Number of successive frames to build")
	_ = encodeCmd.MarkFlagRequired("address")
}

func runEncode(cmd *cobra.Command, args []string) error {
	if err := initCLILogging(); err != nil {
		return err
	}

	action, err := protocol.ParseControlAction(args[0])
	if err != nil {
		return err
	}
	addr, err := protocol.ParseAddress(encodeAddress)
	if err != nil {
		return err
	}
	if action == protocol.ActionBoostStart && (encodeMinutes < 1 || encodeMinutes > 255) {
		return fmt.Errorf("--minutes must be between 1 and 255, got %d", encodeMinutes)
	}
	if encodeCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	reg := protocol.NewAddressRegistry()
	reg.Consider(addr, 0, protocol.RoleBuddy)
	var cycle protocol.RequestCycle

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Control Frame", "iboost-buddy encode", map[string]string{
		"Action":  action.String(),
		"Address": addr.String(),
	})

	for i := 0; i < encodeCount; i++ {
		frame, err := protocol.BuildControlFrame(reg, &cycle, action, uint8(encodeMinutes))
		if err != nil {
			return err
		}
		p.PrintControlFrame(action, frame)
	}
	return nil
}

// replayCmd analyzes a capture file offline
var replayCmd = &cobra.Command{
	Use:   "replay <capture.jsonl>",
	Short: "Analyze a capture file",
	Long: `Run every received frame of a capture file through a fresh protocol
engine and summarize the outcome.

Capture files are written by 'iboost-buddy run --capture-dir'. To replay a
capture through the full daemon instead, use 'iboost-buddy run --replay'.`,
	Example: `  # Summary only
  iboost-buddy replay ./captures/capture-20250601-120000.jsonl

  # One line per frame
  iboost-buddy replay ./captures/capture-20250601-120000.jsonl --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayVerbose, "verbose", false, "Print every frame")
}

// replaySummary tallies the outcome of an offline replay
type replaySummary struct {
	received    int
	transmitted int
	results     map[string]int
}

func replayRecords(records []capture.Record, store *telemetry.Store, each func(rec capture.Record, line string)) (*protocol.Engine, replaySummary) {
	var now time.Time
	engine := protocol.NewEngine(
		protocol.WithPublisher(store),
		protocol.WithClock(func() time.Time { return now }),
	)
	summary := replaySummary{results: make(map[string]int)}

	for _, rec := range records {
		data, err := rec.Bytes()
		if err != nil {
			summary.results["invalid_hex"]++
			each(rec, err.Error())
			continue
		}

		if rec.Direction == capture.DirectionTX {
			summary.transmitted++
			each(rec, "TX "+protocol.DescribeControlFrame(data))
			continue
		}

		summary.received++
		now = rec.Timestamp
		reading, err := engine.Process(data, rec.RSSI)
		summary.results[service.FrameResult(err)]++
		if err != nil {
			each(rec, "RX rejected: "+err.Error())
		} else {
			each(rec, "RX "+reading.String())
		}
	}
	return engine, summary
}

func runReplay(cmd *cobra.Command, args []string) error {
	if err := initCLILogging(); err != nil {
		return err
	}

	records, err := capture.ReadFile(args[0])
	if err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Capture Replay", "iboost-buddy replay", map[string]string{
		"File":    args[0],
		"Records": strconv.Itoa(len(records)),
	})

	store := telemetry.NewStore()
	engine, summary := replayRecords(records, store, func(rec capture.Record, line string) {
		if replayVerbose {
			p.Println(fmt.Sprintf("  #%-5d %s %s", rec.MessageNum, rec.Timestamp.Format(time.RFC3339), line))
		}
	})
	if replayVerbose {
		p.Newline()
	}

	status := engine.Status()
	details := map[string]string{
		"Received":    strconv.Itoa(summary.received),
		"Transmitted": strconv.Itoa(summary.transmitted),
		"Address":     orDash(status.Address),
	}
	results := make([]string, 0, len(summary.results))
	for result, n := range summary.results {
		results = append(results, fmt.Sprintf("%s=%d", result, n))
	}
	sort.Strings(results)
	details["Results"] = strings.Join(results, " ")

	if u, ok := store.Get(protocol.SensorHeatingMode); ok {
		details["Heating Mode"] = fmt.Sprint(u.Value)
	}
	if u, ok := store.Get(protocol.SensorHeatingWarn); ok {
		details["Warnings"] = orDash(fmt.Sprint(u.Value))
	}

	p.PrintSuccess("Replay complete", details)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibuddy/iboost/internal/client"
	"github.com/ibuddy/iboost/internal/discovery"
	"github.com/ibuddy/iboost/internal/ui"
)

// Remote command flags
var (
	serverURL    string
	instanceName string
	statusJSON   bool
	boostMinutes int
	scanTimeout  int
)

func init() {
	for _, cmd := range []*cobra.Command{statusCmd, boostCmd} {
		cmd.PersistentFlags().StringVar(&serverURL, "server", "", "Daemon API address (skips mDNS discovery)")
		cmd.PersistentFlags().StringVar(&instanceName, "instance", "", "mDNS instance to look for (default: first found)")
	}

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(boostCmd)
	rootCmd.AddCommand(scanCmd)
	boostCmd.AddCommand(boostStartCmd)
	boostCmd.AddCommand(boostCancelCmd)
}

// connect resolves the daemon address and returns a client for it
func connect(ctx context.Context) (*client.Client, error) {
	if serverURL != "" {
		return client.NewClient(serverURL), nil
	}

	fmt.Fprintln(os.Stderr, "No --server specified, looking for a daemon via mDNS...")
	daemon, err := discovery.FindDaemon(ctx, instanceName)
	if err != nil {
		return nil, fmt.Errorf("%w. Use --server to specify the daemon address", err)
	}
	fmt.Fprintf(os.Stderr, "Found %s\n\n", daemon)
	return client.NewClient(daemon.BaseURL()), nil
}

// remoteFailure prints a failure box and returns the error for the exit code
func remoteFailure(cmd *cobra.Command, title string, err error) error {
	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintError(title, errors.New(client.GetUserFriendlyMessage(err)), failureHints(err))
	return err
}

// failureHints picks troubleshooting tips for a failed daemon request
func failureHints(err error) []string {
	switch code := client.StatusCodeOf(err); {
	case code == http.StatusConflict:
		return []string{
			"The address is learnt from a buddy, sender or iBoost frame",
			"Check the daemon's radio is in range, then retry",
			"Try: iboost-buddy status",
		}
	case code == http.StatusServiceUnavailable:
		return []string{
			"The replay driver cannot transmit",
			"Set radio.driver: serial in the daemon config",
		}
	case client.IsHTTPError(err):
		return []string{
			fmt.Sprintf("The daemon answered HTTP %d", code),
			"Check the daemon log (--log-level debug)",
		}
	case client.IsNetworkError(err):
		return []string{
			"Check that 'iboost-buddy run' is active",
			"Try: iboost-buddy scan",
			"Use --server host:port if mDNS is blocked",
		}
	default:
		return []string{"Check the daemon log (--log-level debug)"}
	}
}

// statusCmd shows what a running daemon knows
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running daemon",
	Long: `Fetch the engine status and the latest sensor values from a running daemon.

The daemon is located via mDNS unless --server is given.`,
	Example: `  # Auto-discover the daemon
  iboost-buddy status

  # Specific daemon, JSON for scripting
  iboost-buddy status --server 192.168.1.20:8080 --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw JSON status")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := initCLILogging(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	c, err := connect(ctx)
	if err != nil {
		return err
	}

	status, err := c.Status(ctx)
	if err != nil {
		return remoteFailure(cmd, "Status request failed", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	details := map[string]string{
		"Address":        orDash(status.Engine.Address),
		"Packets":        strconv.FormatUint(status.Engine.PacketCount, 10),
		"Next Request":   status.Engine.NextRequest,
		"Sender Battery": "ok",
	}
	if status.Engine.SenderBatteryLow {
		details["Sender Battery"] = "low"
	}

	sensors := make([]string, 0, len(status.Sensors))
	for name := range status.Sensors {
		sensors = append(sensors, name)
	}
	sort.Strings(sensors)
	for _, name := range sensors {
		details[name] = fmt.Sprint(status.Sensors[name])
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	if status.Engine.AddressValid {
		p.PrintSuccess("iBoost system "+status.Engine.Address, details)
	} else {
		p.PrintWarning("No iBoost system heard yet", details)
	}
	return nil
}

// boostCmd groups the boost subcommands
var boostCmd = &cobra.Command{
	Use:   "boost",
	Short: "Start or cancel a manual boost",
	Long: `Ask a running daemon to transmit a boost command to the iBoost main unit.

The daemon must have heard the system (so it knows the address) and must
have a radio that can transmit.`,
}

var boostStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a boost",
	Example: `  # 30 minute boost via auto-discovered daemon
  iboost-buddy boost start

  # Two hour boost
  iboost-buddy boost start --minutes 120 --server 192.168.1.20:8080`,
	Args: cobra.NoArgs,
	RunE: runBoostStart,
}

var boostCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a running boost",
	Args:  cobra.NoArgs,
	RunE:  runBoostCancel,
}

func init() {
	boostStartCmd.Flags().IntVar(&boostMinutes, "minutes", 30, "Boost duration in minutes (1-255)")
}

func runBoostStart(cmd *cobra.Command, args []string) error {
	if boostMinutes < 1 || boostMinutes > 255 {
		return fmt.Errorf("--minutes must be between 1 and 255, got %d", boostMinutes)
	}
	if err := initCLILogging(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	c, err := connect(ctx)
	if err != nil {
		return err
	}

	resp, err := c.BoostStart(ctx, uint8(boostMinutes))
	if err != nil {
		return remoteFailure(cmd, "Boost start failed", err)
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Boost started", map[string]string{
		"Action":  resp.Action,
		"Minutes": strconv.Itoa(resp.Minutes),
		"Daemon":  c.BaseURL,
	})
	return nil
}

func runBoostCancel(cmd *cobra.Command, args []string) error {
	if err := initCLILogging(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	c, err := connect(ctx)
	if err != nil {
		return err
	}

	resp, err := c.BoostCancel(ctx)
	if err != nil {
		return remoteFailure(cmd, "Boost cancel failed", err)
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Boost cancelled", map[string]string{
		"Action": resp.Action,
		"Daemon": c.BaseURL,
	})
	return nil
}

// scanCmd lists daemons on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for iboost-buddy daemons on the network",
	Long: `Scan for daemons advertising the iBoost API over mDNS.

Daemons advertise when mdns.enabled is set in their config file.`,
	Example: `  # Scan for 5 seconds (default)
  iboost-buddy scan

  # Longer scan for slow networks
  iboost-buddy scan --timeout 15`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := initCLILogging(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning for iboost-buddy daemons (timeout: %ds)...\n\n", scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second

	daemons, err := scanner.ScanForDaemons(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(daemons) == 0 {
		fmt.Fprintln(out, "No daemons found.")
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Ensure 'iboost-buddy run' is active with mdns.enabled: true")
		fmt.Fprintln(out, "  - Check that multicast (UDP 5353) is allowed on this network")
		fmt.Fprintln(out, "  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Fprintf(out, "Found %d daemon(s):\n\n", len(daemons))
	for i, d := range daemons {
		fmt.Fprintf(out, "%d. %s\n", i+1, d.Instance)
		fmt.Fprintf(out, "   Host:    %s\n", d.Hostname)
		fmt.Fprintf(out, "   API:     %s\n", d.BaseURL())
		if v := d.GetMetadata("version"); v != "" {
			fmt.Fprintf(out, "   Version: %s (commit: %s)\n", v, orDash(d.GetMetadata("commit")))
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "Use 'iboost-buddy status --server <host:port>' to query a daemon")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibuddy/iboost/internal/capture"
	"github.com/ibuddy/iboost/internal/config"
	"github.com/ibuddy/iboost/internal/discovery"
	"github.com/ibuddy/iboost/internal/logging"
	"github.com/ibuddy/iboost/internal/radio"
	"github.com/ibuddy/iboost/internal/server"
	"github.com/ibuddy/iboost/internal/service"
	"github.com/ibuddy/iboost/internal/telemetry"
	"github.com/ibuddy/iboost/internal/ui"
	"github.com/ibuddy/iboost/internal/version"
)

// Run command flags
var (
	runTUI        bool
	runReplayFile string
	runSerialPort string
	runListen     string
	runCaptureDir string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the radio bridge daemon",
	Long: `Start the iBoost Buddy daemon.

The daemon opens the radio, decodes every frame it hears, sends a data
request every poll interval once the system address is known and publishes
readings to the HTTP API, Prometheus metrics and the WebSocket stream.

Use --replay to drive the daemon from a capture file instead of a radio.
Nothing is transmitted in replay mode; sent frames are only recorded.`,
	Example: `  # Run with the default config file
  iboost-buddy run

  # Run on a specific serial port with debug logging
  iboost-buddy run --port /dev/ttyACM0 --log-level debug

  # Record every frame for later analysis
  iboost-buddy run --capture-dir ./captures

  # Replay a capture with the live monitor
  iboost-buddy run --replay ./captures/capture-20250601-120000.jsonl --tui`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show the live monitor (requires a terminal)")
	runCmd.Flags().StringVar(&runReplayFile, "replay", "", "Replay a capture file instead of opening the radio")
	runCmd.Flags().StringVar(&runSerialPort, "port", "", "Serial device of the radio bridge; overrides the config file")
	runCmd.Flags().StringVar(&runListen, "listen", "", "HTTP API listen address; overrides the config file")
	runCmd.Flags().StringVar(&runCaptureDir, "capture-dir", "", "Directory to write frame captures; overrides the config file")

	rootCmd.AddCommand(runCmd)
}

// loadConfig reads the config file and applies the global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func applyRunFlags(cfg *config.Config) error {
	if runReplayFile != "" {
		cfg.Radio.Driver = config.DriverReplay
		cfg.Radio.ReplayFile = runReplayFile
	}
	if runSerialPort != "" {
		cfg.Radio.Driver = config.DriverSerial
		cfg.Radio.Port = runSerialPort
	}
	if runListen != "" {
		cfg.HTTP.Enabled = true
		cfg.HTTP.Listen = runListen
	}
	if runCaptureDir != "" {
		cfg.CaptureDir = runCaptureDir
	}
	return cfg.Validate()
}

// openRadio builds the radio driver named by the config
func openRadio(cfg *config.Config) (radio.Radio, error) {
	switch cfg.Radio.Driver {
	case config.DriverReplay:
		records, err := capture.ReadFile(cfg.Radio.ReplayFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load replay file: %w", err)
		}
		logging.Info("Replaying capture",
			zap.String("file", cfg.Radio.ReplayFile),
			zap.Int("records", len(records)),
			zap.Float64("rate", cfg.Radio.ReplayRate),
		)
		return radio.NewReplayRadio(records, cfg.Radio.ReplayRate), nil
	default:
		bridge, err := radio.OpenSerial(radio.SerialConfig{
			Port:     cfg.Radio.Port,
			BaudRate: cfg.Radio.BaudRate,
		})
		if err != nil {
			return nil, err
		}
		return bridge, nil
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	showTUI := runTUI && ui.IsTerminal(os.Stdout)
	if runTUI && !showTUI {
		fmt.Fprintln(os.Stderr, "Warning: --tui ignored, stdout is not a terminal")
	}

	// Log lines would tear the monitor screen
	level := cfg.LogLevel
	if showTUI {
		level = ""
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}
	defer logging.Sync()

	logging.Info("Starting iboost-buddy",
		zap.Stringer("build", version.Get()),
		zap.String("driver", cfg.Radio.Driver),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rad, err := openRadio(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rad.Close() }()

	var recorder *capture.Recorder
	if cfg.CaptureDir != "" {
		recorder, err = capture.NewRecorder(cfg.CaptureDir)
		if err != nil {
			return err
		}
		defer func() { _ = recorder.Close() }()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sink, err := telemetry.NewPrometheusSink(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	store := telemetry.NewStore()
	publishers := telemetry.Fanout{store, sink}
	if level != "" && logging.ParseLevel(level) == zap.DebugLevel {
		publishers = append(publishers, telemetry.LogSink{})
	}

	svc := service.New(service.Options{
		Radio:        rad,
		Publisher:    publishers,
		Recorder:     recorder,
		Metrics:      sink,
		PollInterval: cfg.PollInterval,
	})

	var (
		wg   sync.WaitGroup
		errs = make(chan error, 2)
	)

	if cfg.HTTP.Enabled {
		srv := server.New(server.Config{Listen: cfg.HTTP.Listen}, svc.Engine(), store,
			server.WithMetrics(sink, registry))
		ln, err := srv.Listen()
		if err != nil {
			return err
		}

		if cfg.MDNS.Enabled {
			ad, err := advertise(cfg.MDNS.Instance, ln)
			if err != nil {
				logging.Warn("mDNS advertisement failed", zap.Error(err))
			} else {
				defer ad.Shutdown()
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Serve(ctx, ln); err != nil {
				errs <- fmt.Errorf("http api: %w", err)
				cancel()
			}
		}()
	}

	var monitorDone chan struct{}
	if showTUI {
		monitorDone = make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(monitorDone)
			// Quitting the monitor stops the daemon
			defer cancel()
			if err := ui.RunMonitor(ctx, store, svc.Engine(), os.Stdout); err != nil {
				errs <- err
			}
		}()
	}

	runErr := svc.Run(ctx)
	if errors.Is(runErr, service.ErrRadioStopped) {
		logging.Info("Radio stream finished", zap.String("driver", cfg.Radio.Driver))
		if cfg.Radio.Driver == config.DriverReplay {
			runErr = nil
		}
		if monitorDone != nil {
			<-monitorDone
		}
	}

	cancel()
	wg.Wait()

	if runErr != nil {
		return runErr
	}
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

func advertise(instance string, ln net.Listener) (*discovery.Advertisement, error) {
	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("listener address %s is not TCP", ln.Addr())
	}
	ad, err := discovery.Advertise(instance, addr.Port, discovery.TXTRecords("/api", version.Get()))
	if err != nil {
		return nil, err
	}
	logging.Info("Advertising API over mDNS",
		zap.String("instance", ad.Instance()),
		zap.Int("port", ad.Port()),
	)
	return ad, nil
}

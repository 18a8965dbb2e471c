package config

import "time"

// Radio drivers
const (
	DriverSerial = "serial" // SX126x bridge on a serial port
	DriverReplay = "replay" // Capture file playback, nothing is transmitted
)

// Config represents the entire daemon configuration file.
// Every field has a default, so an empty file is a valid configuration.
type Config struct {
	LogLevel     string        `yaml:"log_level" toml:"log_level"`         // debug, info, warn, error; "" = silent
	PollInterval time.Duration `yaml:"poll_interval" toml:"poll_interval"` // Data request period
	CaptureDir   string        `yaml:"capture_dir,omitempty" toml:"capture_dir,omitempty"`
	Radio        RadioConfig   `yaml:"radio" toml:"radio"`
	HTTP         HTTPConfig    `yaml:"http" toml:"http"`
	MDNS         MDNSConfig    `yaml:"mdns" toml:"mdns"`
}

// RadioConfig selects and configures the radio driver.
type RadioConfig struct {
	Driver     string  `yaml:"driver" toml:"driver"`
	Port       string  `yaml:"port,omitempty" toml:"port,omitempty"`               // Serial device, e.g. /dev/ttyUSB0
	BaudRate   int     `yaml:"baud_rate,omitempty" toml:"baud_rate,omitempty"`     // Serial speed
	ReplayFile string  `yaml:"replay_file,omitempty" toml:"replay_file,omitempty"` // JSONL capture to play back
	ReplayRate float64 `yaml:"replay_rate,omitempty" toml:"replay_rate,omitempty"` // Packets per second, 0 = no delay
}

// HTTPConfig configures the status API.
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Listen  string `yaml:"listen" toml:"listen"`
}

// MDNSConfig configures LAN advertisement of the status API.
type MDNSConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Instance string `yaml:"instance" toml:"instance"`
}

// Default values
const (
	DefaultPollInterval = 10 * time.Second
	DefaultSerialPort   = "/dev/ttyUSB0"
	DefaultBaudRate     = 115200
	DefaultReplayRate   = 10.0
	DefaultListen       = ":8080"
	DefaultInstance     = "iboost-buddy"
)

// Default creates a Config with default values.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		PollInterval: DefaultPollInterval,
		Radio: RadioConfig{
			Driver:     DriverSerial,
			Port:       DefaultSerialPort,
			BaudRate:   DefaultBaudRate,
			ReplayRate: DefaultReplayRate,
		},
		HTTP: HTTPConfig{
			Enabled: true,
			Listen:  DefaultListen,
		},
		MDNS: MDNSConfig{
			Enabled:  false,
			Instance: DefaultInstance,
		},
	}
}

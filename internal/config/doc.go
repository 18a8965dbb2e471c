// Package config provides daemon configuration for the iBoost buddy.
//
// The configuration is a single YAML (or TOML) file. Every field has a
// default, so the daemon runs with no file at all.
//
// # Configuration File Location
//
// The default file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/iboost/config.yaml or $HOME/.config/iboost/config.yaml
//   - macOS: $HOME/.config/iboost/config.yaml
//   - Windows: %LOCALAPPDATA%\iboost\config.yaml
//
// A path given with --config may end in .toml, in which case it is decoded
// with BurntSushi/toml. Unknown keys are rejected in both formats.
//
// # Example
//
//	log_level: info
//	poll_interval: 10s
//	capture_dir: /var/lib/iboost/captures
//	radio:
//	  driver: serial
//	  port: /dev/ttyUSB0
//	  baud_rate: 115200
//	http:
//	  enabled: true
//	  listen: ":8080"
//	mdns:
//	  enabled: true
//	  instance: iboost-buddy
//
// # Thread Safety
//
// Save serializes writers with a mutex and writes atomically via rename.
package config

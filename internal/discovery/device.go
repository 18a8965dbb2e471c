package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Daemon represents an iBoost buddy daemon found on the network
type Daemon struct {
	// Instance is the advertised mDNS instance name (e.g., "iboost-buddy")
	Instance string

	// Hostname is the mDNS hostname of the machine running the daemon
	Hostname string

	// IP is the daemon address, IPv4 when one was advertised
	IP string

	// Port is the HTTP API port
	Port int

	// Metadata contains the mDNS TXT record data
	// Common fields: "version", "path", "address"
	Metadata map[string]string

	// DiscoveredAt is when the daemon was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the daemon
func (d *Daemon) String() string {
	return fmt.Sprintf("iBoost buddy %s (%s) at %s", d.Instance, d.Hostname, net.JoinHostPort(d.IP, strconv.Itoa(d.Port)))
}

// BaseURL returns the HTTP base URL for the daemon API
func (d *Daemon) BaseURL() string {
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Daemon) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/ibuddy/iboost/internal/version"
)

const (
	// ServiceType is the mDNS service type the daemon advertises its API under
	ServiceType = "_iboost._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for daemon discovery
	DefaultScanTimeout = 5 * time.Second
)

// Advertisement is a running mDNS registration of the daemon API
type Advertisement struct {
	server   *zeroconf.Server
	instance string
	port     int
}

// Advertise registers the daemon API on the local network. The registration
// stays up until Shutdown is called.
func Advertise(instance string, port int, txt []string) (*Advertisement, error) {
	if instance == "" {
		return nil, fmt.Errorf("mDNS instance name is required")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port for mDNS advertisement: %d", port)
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	return &Advertisement{server: server, instance: instance, port: port}, nil
}

// Instance returns the advertised instance name
func (a *Advertisement) Instance() string {
	return a.instance
}

// Port returns the advertised port
func (a *Advertisement) Port() int {
	return a.port
}

// Shutdown withdraws the registration
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

// TXTRecords builds the TXT record set advertised next to the service
func TXTRecords(path string, build version.Info) []string {
	return append([]string{"path=" + path}, build.TXT()...)
}

// Scanner handles mDNS daemon discovery
type Scanner struct {
	// Timeout is the maximum time to wait for daemon discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForDaemons discovers all daemons on the local network until the
// scanner timeout expires or ctx is cancelled
func (s *Scanner) ScanForDaemons(ctx context.Context) ([]*Daemon, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu      sync.Mutex
		daemons []*Daemon
	)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if daemon := s.parseServiceEntry(entry); daemon != nil {
				mu.Lock()
				daemons = append(daemons, daemon)
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return daemons, nil
}

// WaitForDaemon waits for a daemon with the given instance name. An empty
// instance matches the first daemon seen.
func (s *Scanner) WaitForDaemon(ctx context.Context, instance string) (*Daemon, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Daemon, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			daemon := s.parseServiceEntry(entry)
			if daemon != nil && matchesInstance(daemon, instance) {
				select {
				case found <- daemon:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case daemon := <-found:
		return daemon, nil
	case <-ctx.Done():
		select {
		case daemon := <-found:
			return daemon, nil
		default:
		}
		if instance == "" {
			return nil, fmt.Errorf("no iBoost buddy daemon found within %s", s.Timeout)
		}
		return nil, fmt.Errorf("daemon %q not found within %s", instance, s.Timeout)
	}
}

func matchesInstance(d *Daemon, instance string) bool {
	return instance == "" || strings.EqualFold(d.Instance, instance)
}

// parseServiceEntry converts a zeroconf service entry to a Daemon
// Returns nil if the entry carries no usable address
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Daemon {
	if entry == nil || entry.Instance == "" || entry.Port == 0 {
		return nil
	}

	// Prefer IPv4
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Daemon{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// FindDaemon looks for a daemon with the default timeout. An empty instance
// matches any daemon.
func FindDaemon(ctx context.Context, instance string) (*Daemon, error) {
	return NewScanner().WaitForDaemon(ctx, instance)
}

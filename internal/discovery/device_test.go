package discovery

import (
	"testing"
)

func TestDaemon_String(t *testing.T) {
	daemon := &Daemon{
		Instance: "iboost-buddy",
		Hostname: "pi.local.",
		IP:       "192.168.4.16",
		Port:     8080,
	}

	expected := "iBoost buddy iboost-buddy (pi.local.) at 192.168.4.16:8080"
	if daemon.String() != expected {
		t.Errorf("Daemon.String() = %v, want %v", daemon.String(), expected)
	}
}

func TestDaemon_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		daemon   *Daemon
		expected string
	}{
		{
			name:     "IPv4",
			daemon:   &Daemon{IP: "192.168.4.16", Port: 8080},
			expected: "http://192.168.4.16:8080",
		},
		{
			name:     "custom port",
			daemon:   &Daemon{IP: "10.0.0.5", Port: 9000},
			expected: "http://10.0.0.5:9000",
		},
		{
			name:     "IPv6 is bracketed",
			daemon:   &Daemon{IP: "fe80::1", Port: 8080},
			expected: "http://[fe80::1]:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.daemon.BaseURL(); got != tt.expected {
				t.Errorf("Daemon.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDaemon_GetMetadata(t *testing.T) {
	daemon := &Daemon{
		Metadata: map[string]string{
			"path":    "/api",
			"version": "v1.0.0",
		},
	}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"existing key", "path", "/api"},
		{"another existing key", "version", "v1.0.0"},
		{"non-existent key", "missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := daemon.GetMetadata(tt.key); got != tt.expected {
				t.Errorf("Daemon.GetMetadata(%v) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestDaemon_GetMetadata_NilMap(t *testing.T) {
	daemon := &Daemon{}
	if got := daemon.GetMetadata("anything"); got != "" {
		t.Errorf("Daemon.GetMetadata() with nil map = %v, want empty string", got)
	}
}

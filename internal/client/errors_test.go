package client

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
)

func asAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}

func TestNewHTTPError_Retryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusConflict, false},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, false},
		{http.StatusGatewayTimeout, true},
	}
	for _, tt := range tests {
		if got := NewHTTPError(tt.status, "x").Retryable; got != tt.want {
			t.Errorf("NewHTTPError(%d).Retryable = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestClassifyNetworkError(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	dns := &net.DNSError{Name: "buddy.local", Err: "no such host"}

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"connection refused", refused, ErrTypeConnectionRefused},
		{"wrapped refused", fmt.Errorf("dial: %w", refused), ErrTypeConnectionRefused},
		{"dns", dns, ErrTypeDNS},
		{"generic", errors.New("broken pipe"), ErrTypeNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err)
			if got.Type != tt.want {
				t.Errorf("Type = %s, want %s", got.Type, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error does not wrap the original")
			}
		})
	}

	if ClassifyNetworkError(nil) != nil {
		t.Error("ClassifyNetworkError(nil) should be nil")
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewNetworkError("GET /health failed", errors.New("reset"))
	if !strings.Contains(err.Error(), "GET /health failed") || !strings.Contains(err.Error(), "reset") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestGetUserFriendlyMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"conflict", NewHTTPError(http.StatusConflict, "x"), "no address"},
		{"no radio", NewHTTPError(http.StatusServiceUnavailable, "x"), "no radio"},
		{"refused", &APIError{Type: ErrTypeConnectionRefused}, "Connection refused"},
		{"plain", errors.New("plain failure"), "plain failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetUserFriendlyMessage(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("GetUserFriendlyMessage() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

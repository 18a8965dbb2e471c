package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	c := NewClient(url)
	c.SetRetry(2, time.Millisecond)
	return c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://192.168.1.20:8080", "http://192.168.1.20:8080"},
		{"http://192.168.1.20:8080/", "http://192.168.1.20:8080"},
		{"192.168.1.20:8080", "http://192.168.1.20:8080"},
	}
	for _, tt := range tests {
		if got := NewClient(tt.in).BaseURL; got != tt.want {
			t.Errorf("NewClient(%q).BaseURL = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetTimeout(t *testing.T) {
	c := NewClient("localhost:8080")
	c.SetTimeout(5 * time.Second)
	if c.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.HTTPClient.Timeout)
	}
}

func TestStatus_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/status" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"engine":{"address":"1234","address_valid":true,"address_rssi":-70,"packet_count":5,"sender_battery_low":false,"next_request":"Saved Today"},"sensors":{"heating_mode":"ON: Heating from Solar","heating_power":1450}}`))
	}))
	defer srv.Close()

	status, err := newTestClient(srv.URL).Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Engine.Address != "1234" || status.Engine.PacketCount != 5 {
		t.Errorf("engine = %+v", status.Engine)
	}
	if status.Sensors["heating_mode"] != "ON: Heating from Solar" {
		t.Errorf("heating_mode = %v", status.Sensors["heating_mode"])
	}
	if status.Sensors["heating_power"] != 1450.0 {
		t.Errorf("heating_power = %v", status.Sensors["heating_power"])
	}
}

func TestBoostStart_SendsMinutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/boost" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body struct {
			Minutes int `json:"minutes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Minutes != 45 {
			t.Errorf("body = %+v, err = %v", body, err)
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"status":"sent","action":"Start Boost","minutes":45}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).BoostStart(context.Background(), 45)
	if err != nil {
		t.Fatalf("BoostStart() error = %v", err)
	}
	if resp.Status != "sent" || resp.Minutes != 45 {
		t.Errorf("response = %+v", resp)
	}
}

func TestBoostCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"status":"sent","action":"Cancel Boost"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).BoostCancel(context.Background())
	if err != nil {
		t.Fatalf("BoostCancel() error = %v", err)
	}
	if resp.Action != "Cancel Boost" {
		t.Errorf("action = %q", resp.Action)
	}
}

func TestRetryBehaviour(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
		wantRetry bool
	}{
		{"conflict is not retried", http.StatusConflict, 1, false},
		{"no radio is not retried", http.StatusServiceUnavailable, 1, false},
		{"transmit failure is retried", http.StatusBadGateway, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"boom","action":"Cancel Boost"}`))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).BoostCancel(context.Background())
			if err == nil {
				t.Fatal("BoostCancel() error = nil")
			}
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
			if !IsHTTPError(err) || StatusCodeOf(err) != tt.status {
				t.Errorf("error = %v, want HTTP %d", err, tt.status)
			}
			if IsRetryable(err) != tt.wantRetry {
				t.Errorf("IsRetryable() = %v, want %v", IsRetryable(err), tt.wantRetry)
			}
		})
	}
}

func TestRetry_RecoversAfterFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"engine":`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Status(context.Background())
	var apiErr *APIError
	if err == nil || !asAPIError(err, &apiErr) || apiErr.Type != ErrTypeParse {
		t.Errorf("error = %v, want parse error", err)
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(url)
	c.SetRetry(0, time.Millisecond)

	err := c.Ping(context.Background())
	if !IsNetworkError(err) {
		t.Errorf("Ping() error = %v, want network error", err)
	}
}

func TestCancelledContextStopsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetRetry(5, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := c.Ping(ctx); err == nil {
		t.Fatal("Ping() error = nil")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

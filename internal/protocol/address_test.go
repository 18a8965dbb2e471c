package protocol

import "testing"

func TestAddressRegistry_FirstFrameCaptures(t *testing.T) {
	for _, role := range []Role{RoleMain, RoleBuddy, RoleSender} {
		t.Run(role.String(), func(t *testing.T) {
			reg := NewAddressRegistry()
			if reg.Valid() {
				t.Fatal("new registry should be invalid")
			}
			if reg.RSSI() != UnsetRSSI {
				t.Errorf("RSSI() = %v, want %v", reg.RSSI(), UnsetRSSI)
			}

			if !reg.Consider(Address{0xAB, 0xCD}, -87.5, role) {
				t.Fatal("Consider() on empty registry = false, want true")
			}

			addr, ok := reg.Address()
			if !ok || addr != (Address{0xAB, 0xCD}) {
				t.Errorf("Address() = %s, %v; want ABCD, true", addr, ok)
			}
			if reg.RSSI() != -87.5 {
				t.Errorf("RSSI() = %v, want -87.5", reg.RSSI())
			}
		})
	}
}

func TestAddressRegistry_RSSIPolicy(t *testing.T) {
	original := Address{0x12, 0x34}
	other := Address{0x56, 0x78}

	tests := []struct {
		name      string
		role      Role
		rssi      float64
		wantOK    bool
		wantAddr  Address
		wantRSSI  float64
		candidate Address
	}{
		{"buddy weaker", RoleBuddy, -90, false, original, -80, other},
		{"buddy equal", RoleBuddy, -80, false, original, -80, other},
		{"buddy stronger", RoleBuddy, -70, true, other, -70, other},
		{"sender weaker", RoleSender, -81, false, original, -80, other},
		{"sender equal", RoleSender, -80, false, original, -80, other},
		{"sender stronger", RoleSender, -79.5, true, other, -79.5, other},
		{"main stronger mismatch", RoleMain, -10, false, original, -80, other},
		{"main weaker match", RoleMain, -120, true, original, -80, original},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewAddressRegistry()
			reg.Consider(original, -80, RoleBuddy)

			if got := reg.Consider(tt.candidate, tt.rssi, tt.role); got != tt.wantOK {
				t.Errorf("Consider() = %v, want %v", got, tt.wantOK)
			}
			addr, _ := reg.Address()
			if addr != tt.wantAddr {
				t.Errorf("address = %s, want %s", addr, tt.wantAddr)
			}
			if reg.RSSI() != tt.wantRSSI {
				t.Errorf("rssi = %v, want %v", reg.RSSI(), tt.wantRSSI)
			}
		})
	}
}

func TestAddressRegistry_Matches(t *testing.T) {
	reg := NewAddressRegistry()
	if reg.Matches(Address{}) {
		t.Error("Matches() on invalid registry should be false, even for zero address")
	}

	reg.Consider(Address{0x01, 0x02}, -60, RoleSender)
	if !reg.Matches(Address{0x01, 0x02}) {
		t.Error("Matches() = false for stored address")
	}
	if reg.Matches(Address{0x01, 0x03}) {
		t.Error("Matches() = true for different address")
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    Address
		wantErr bool
	}{
		{"1234", Address{0x12, 0x34}, false},
		{"abCD", Address{0xAB, 0xCD}, false},
		{"123", Address{}, true},
		{"12345", Address{}, true},
		{"zz00", Address{}, true},
	}

	for _, tt := range tests {
		got, err := ParseAddress(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAddress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseAddress(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if s := (Address{0x0A, 0xBC}).String(); s != "0ABC" {
		t.Errorf("String() = %q, want 0ABC", s)
	}
}

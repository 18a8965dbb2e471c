package protocol

import (
	"encoding/hex"
	"fmt"
)

// UnsetRSSI marks a registry that has not captured an address yet
const UnsetRSSI = -1000.0

// Address is the 2-byte identifier of one physical iBoost installation
type Address [2]byte

// String returns the address as four upper-case hex digits, e.g. "12AB"
func (a Address) String() string {
	return fmt.Sprintf("%02X%02X", a[0], a[1])
}

// ParseAddress parses the four hex digit form produced by Address.String
func ParseAddress(s string) (Address, error) {
	var a Address
	if len(s) != 4 {
		return a, fmt.Errorf("invalid system address %q: want 4 hex digits", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid system address %q: %w", s, err)
	}
	copy(a[:], b)
	return a, nil
}

// AddressRegistry holds the system address learned from traffic.
//
// The first accepted frame of any role pins the address. After that, only
// buddy and sender frames heard with a strictly stronger signal may replace
// it; main-unit frames are checked against it but never overwrite it.
//
// AddressRegistry is not safe for concurrent use; the Engine serialises access.
type AddressRegistry struct {
	address Address
	valid   bool
	rssi    float64
}

// NewAddressRegistry returns an empty registry
func NewAddressRegistry() *AddressRegistry {
	return &AddressRegistry{rssi: UnsetRSSI}
}

// Consider offers a candidate address observed at rssi from a unit of the given role.
//
// For RoleMain on a valid registry the result is a cross-check: true only
// when the candidate equals the stored address. For the other roles the
// result reports whether the candidate was stored.
func (r *AddressRegistry) Consider(candidate Address, rssi float64, role Role) bool {
	if !r.valid {
		r.store(candidate, rssi)
		return true
	}

	if role == RoleMain {
		return r.address == candidate
	}

	if rssi > r.rssi {
		r.store(candidate, rssi)
		return true
	}
	return false
}

// Matches reports whether the registry is valid and holds addr
func (r *AddressRegistry) Matches(addr Address) bool {
	return r.valid && r.address == addr
}

// Address returns the stored address and whether it is valid
func (r *AddressRegistry) Address() (Address, bool) {
	return r.address, r.valid
}

// RSSI returns the signal strength at which the address was captured
func (r *AddressRegistry) RSSI() float64 {
	return r.rssi
}

// Valid reports whether an address has been captured
func (r *AddressRegistry) Valid() bool {
	return r.valid
}

func (r *AddressRegistry) store(addr Address, rssi float64) {
	r.address = addr
	r.rssi = rssi
	r.valid = true
}

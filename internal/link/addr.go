package link

import (
	"fmt"
	"net"
)

// Addr is a 6-byte station hardware address
type Addr [6]byte

// Broadcast is the all-ones address
var Broadcast = Addr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ParseAddr parses the colon/dash separated text form, e.g. c4:d8:d5:3c:a6:52
func ParseAddr(s string) (Addr, error) {
	var a Addr
	hw, err := net.ParseMAC(s)
	if err != nil {
		return a, fmt.Errorf("invalid hardware address %q: %w", s, err)
	}
	if len(hw) != len(a) {
		return a, fmt.Errorf("invalid hardware address %q: want %d bytes, got %d", s, len(a), len(hw))
	}
	copy(a[:], hw)
	return a, nil
}

// MustParseAddr is ParseAddr for constants; it panics on error
func MustParseAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is the unset address
func (a Addr) IsZero() bool {
	return a == Addr{}
}

func (a Addr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

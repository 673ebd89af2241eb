package models

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidHardwareAddress is returned for anything that is not a 6-octet MAC.
var ErrInvalidHardwareAddress = errors.New("invalid hardware address")

// NormalizeMAC converts s into lower-case colon-separated form.
// Dash and dot separated spellings are accepted; EUI-64 and longer are not.
func NormalizeMAC(s string) (string, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidHardwareAddress, s)
	}
	if len(hw) != 6 {
		return "", fmt.Errorf("%w: %q is not 6 octets", ErrInvalidHardwareAddress, s)
	}
	return hw.String(), nil
}

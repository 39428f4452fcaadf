package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Networks accepted by Listen.
const (
	NetworkUnix   = "unix"
	NetworkTCP    = "tcp"
	NetworkRFCOMM = "rfcomm"
)

// Listen opens a listener for the control link. A stale unix socket file
// is removed first. An rfcomm address has the form
// "XX:XX:XX:XX:XX:XX/channel"; the all-zero address binds every adapter.
func Listen(network, address string) (net.Listener, error) {
	switch network {
	case NetworkUnix:
		if err := os.Remove(address); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("removing stale socket %s: %w", address, err)
		}
		return net.Listen("unix", address)
	case NetworkTCP:
		return net.Listen("tcp", address)
	case NetworkRFCOMM:
		addr, channel, err := ParseRFCOMMAddress(address)
		if err != nil {
			return nil, err
		}
		return listenRFCOMM(addr, channel)
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}

// ParseRFCOMMAddress splits "XX:XX:XX:XX:XX:XX/channel" into the adapter
// address, most significant byte first, and the channel. The channel
// defaults to 1.
func ParseRFCOMMAddress(s string) ([6]byte, uint8, error) {
	var addr [6]byte
	channel := uint8(1)

	host, ch, hasChannel := strings.Cut(s, "/")
	if hasChannel {
		n, err := strconv.ParseUint(ch, 10, 8)
		if err != nil || n < 1 || n > 30 {
			return addr, 0, fmt.Errorf("invalid rfcomm channel %q", ch)
		}
		channel = uint8(n)
	}

	mac, err := net.ParseMAC(host)
	if err != nil || len(mac) != 6 {
		return addr, 0, fmt.Errorf("invalid bluetooth address %q", host)
	}
	copy(addr[:], mac)
	return addr, channel, nil
}

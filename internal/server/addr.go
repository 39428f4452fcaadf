package server

import (
	"fmt"
	"net"
)

// rfcommAddr is a Bluetooth RFCOMM endpoint.
type rfcommAddr struct {
	addr    [6]byte
	channel uint8
}

func (a rfcommAddr) Network() string {
	return NetworkRFCOMM
}

func (a rfcommAddr) String() string {
	return fmt.Sprintf("%s/%d", net.HardwareAddr(a.addr[:]).String(), a.channel)
}

//go:build !linux

package server

import (
	"errors"
	"net"
)

func listenRFCOMM([6]byte, uint8) (net.Listener, error) {
	return nil, errors.New("rfcomm is only supported on linux")
}

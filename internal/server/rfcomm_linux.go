//go:build linux

package server

import (
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// rfcommListener accepts Bluetooth RFCOMM connections. The standard
// library has no AF_BLUETOOTH support, so sockets are driven through
// x/sys/unix and wrapped in pollable files.
type rfcommListener struct {
	file *os.File
	addr rfcommAddr
}

func listenRFCOMM(addr [6]byte, channel uint8) (net.Listener, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("rfcomm socket: %w", err)
	}

	sa := &unix.SockaddrRFCOMM{Addr: toBdaddr(addr), Channel: channel}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rfcomm bind channel %d: %w", channel, err)
	}
	if err := unix.Listen(fd, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rfcomm listen: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rfcomm nonblock: %w", err)
	}

	return &rfcommListener{
		file: os.NewFile(uintptr(fd), "rfcomm-listener"),
		addr: rfcommAddr{addr: addr, channel: channel},
	}, nil
}

// toBdaddr converts a most-significant-first address to the kernel's
// little-endian bdaddr_t.
func toBdaddr(addr [6]byte) [6]uint8 {
	var b [6]uint8
	for i := range addr {
		b[i] = addr[5-i]
	}
	return b
}

func (l *rfcommListener) Accept() (net.Conn, error) {
	raw, err := l.file.SyscallConn()
	if err != nil {
		return nil, net.ErrClosed
	}

	var (
		nfd    int
		peer   unix.Sockaddr
		sysErr error
	)
	err = raw.Read(func(fd uintptr) bool {
		nfd, peer, sysErr = unix.Accept4(int(fd), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		return !errors.Is(sysErr, unix.EAGAIN)
	})
	if err != nil {
		if errors.Is(err, os.ErrClosed) {
			return nil, net.ErrClosed
		}
		return nil, err
	}
	if sysErr != nil {
		return nil, fmt.Errorf("rfcomm accept: %w", sysErr)
	}

	remote := rfcommAddr{}
	if sa, ok := peer.(*unix.SockaddrRFCOMM); ok {
		remote = rfcommAddr{addr: toBdaddr(sa.Addr), channel: sa.Channel}
	}
	return &rfcommConn{
		File:   os.NewFile(uintptr(nfd), "rfcomm"),
		local:  l.addr,
		remote: remote,
	}, nil
}

func (l *rfcommListener) Close() error {
	return l.file.Close()
}

func (l *rfcommListener) Addr() net.Addr {
	return l.addr
}

// rfcommConn adapts a connected RFCOMM socket to net.Conn.
type rfcommConn struct {
	*os.File
	local  rfcommAddr
	remote rfcommAddr
}

func (c *rfcommConn) LocalAddr() net.Addr {
	return c.local
}

func (c *rfcommConn) RemoteAddr() net.Addr {
	return c.remote
}

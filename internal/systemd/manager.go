// Package systemd integrates with the host service manager: readiness and
// watchdog notifications, and powering the host off through logind.
package systemd

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/login1"
)

// Manager powers the host off via the login1 D-Bus API.
type Manager struct {
	conn *login1.Conn
}

// NewManager connects to logind on the system bus.
func NewManager() (*Manager, error) {
	conn, err := login1.New()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to logind: %w", err)
	}
	return &Manager{conn: conn}, nil
}

// PowerOff asks logind to power the host off. It returns before the host
// goes down.
func (m *Manager) PowerOff() {
	m.conn.PowerOff(false)
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

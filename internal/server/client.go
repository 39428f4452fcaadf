package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/smazurov/canister/internal/command"
)

// Client sends commands over the control link in JSON mode.
type Client struct {
	conn    net.Conn
	enc     *json.Encoder
	dec     *json.Decoder
	timeout time.Duration
}

// Dial connects to a unix or tcp control link. timeout bounds each
// request/response round trip; zero disables it.
func Dial(ctx context.Context, network, address string, timeout time.Duration) (*Client, error) {
	switch network {
	case NetworkUnix, NetworkTCP:
	default:
		return nil, fmt.Errorf("cannot dial network %q", network)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return &Client{
		conn:    conn,
		enc:     json.NewEncoder(conn),
		dec:     json.NewDecoder(conn),
		timeout: timeout,
	}, nil
}

// Send writes req and waits for its response.
func (c *Client) Send(req command.Request) (Response, error) {
	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if err := c.enc.Encode(req); err != nil {
		return Response{}, fmt.Errorf("failed to send command: %w", err)
	}
	var resp Response
	if err := c.dec.Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

package indicator

import (
	"log/slog"
	"sync"
)

// noop implements Controller for setups without an indicator. It still
// tracks the requested state so status queries stay meaningful.
type noop struct {
	mu     sync.Mutex
	on     bool
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{logger: logger}
}

// Set logs the request but performs no hardware control
func (n *noop) Set(on bool) error {
	n.logger.Debug("Indicator not available (no-op)", "on", on)
	n.mu.Lock()
	n.on = on
	n.mu.Unlock()
	return nil
}

func (n *noop) State() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.on
}

func (n *noop) Close() error {
	return nil
}

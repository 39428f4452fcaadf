package indicator

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// gpio drives the indicator through a GPIO character device line.
type gpio struct {
	mu   sync.Mutex
	line *gpiocdev.Line
	on   bool
}

func newGPIO(chip string, offset int) (*gpio, error) {
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("canister"))
	if err != nil {
		return nil, fmt.Errorf("failed to request GPIO line %s:%d: %w", chip, offset, err)
	}
	return &gpio{line: line}, nil
}

func (g *gpio) Set(on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	value := 0
	if on {
		value = 1
	}
	if err := g.line.SetValue(value); err != nil {
		return fmt.Errorf("failed to set GPIO line: %w", err)
	}
	g.on = on
	return nil
}

func (g *gpio) State() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on
}

func (g *gpio) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_ = g.line.SetValue(0)
	return g.line.Close()
}

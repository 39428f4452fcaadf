package indicator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Controller using the Linux sysfs LED interface
type sysfs struct {
	mu   sync.Mutex
	path string
	on   bool
}

// newSysfs creates a controller for the LED named name under root.
func newSysfs(root, name string) (*sysfs, error) {
	ledPath := filepath.Join(root, name)
	if _, err := os.Stat(ledPath); err != nil {
		return nil, fmt.Errorf("LED %q not found at %s: %w", name, ledPath, err)
	}

	// Take the LED away from its kernel trigger so brightness sticks
	if err := os.WriteFile(filepath.Join(ledPath, "trigger"), []byte("none"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to set LED trigger to none: %w", err)
	}

	return &sysfs{path: ledPath}, nil
}

func (s *sysfs) Set(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := "0"
	if on {
		value = "1"
	}
	if err := os.WriteFile(filepath.Join(s.path, "brightness"), []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	s.on = on
	return nil
}

func (s *sysfs) State() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

func (s *sysfs) Close() error {
	return s.Set(false)
}

package strip

import (
	"sync"

	"github.com/smazurov/canister/internal/animation"
)

// Memory is a Device that keeps the strip contents in process. It backs
// development setups without LED hardware and the HTTP status preview.
type Memory struct {
	mu      sync.Mutex
	corr    correction
	pending animation.Frame
	shown   animation.Frame
	flushes uint64
	closed  bool
}

func newMemory(pixels int, corr correction) *Memory {
	return &Memory{
		corr:    corr,
		pending: make(animation.Frame, pixels),
		shown:   make(animation.Frame, pixels),
	}
}

// NewMemory creates an all-off in-memory strip without color correction.
func NewMemory(pixels int) *Memory {
	return newMemory(pixels, correction{scale: 255})
}

// Len implements Device.
func (m *Memory) Len() int {
	return len(m.pending)
}

// Write implements Device.
func (m *Memory) Write(frame animation.Frame) error {
	if err := checkLen("write", frame, len(m.pending)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range frame {
		m.pending[i] = m.corr.apply(c)
	}
	return nil
}

// Flush implements Device.
func (m *Memory) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return deviceIO("flush", "strip is closed", nil)
	}
	copy(m.shown, m.pending)
	m.flushes++
	return nil
}

// Close implements Device.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.shown {
		m.shown[i] = animation.Off
		m.pending[i] = animation.Off
	}
	m.closed = true
	return nil
}

// Shown returns a copy of the last flushed frame.
func (m *Memory) Shown() animation.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(animation.Frame, len(m.shown))
	copy(out, m.shown)
	return out
}

// Flushes returns how many frames have been pushed.
func (m *Memory) Flushes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

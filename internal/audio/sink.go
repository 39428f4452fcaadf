package audio

import (
	"log/slog"
	"time"
)

// Sink is an audio output holding at most one voice.
type Sink interface {
	// Start decodes path and plays it at the given level. The previous
	// voice must already have been faded out.
	Start(path string, level float64, muted bool) error
	// FadeOut ramps the current voice to silence over d and releases it.
	// It returns without waiting for the ramp.
	FadeOut(d time.Duration)
	// Rewind restarts the current voice from the beginning, including one
	// that already played to its end.
	Rewind() error
	SetPaused(paused bool)
	SetVolume(level float64, muted bool)
	Close() error
}

// noop implements Sink for systems without audio output.
type noop struct {
	logger *slog.Logger
}

// NewNoopSink returns a sink that only logs.
func NewNoopSink(logger *slog.Logger) Sink {
	return &noop{logger: logger}
}

func (n *noop) Start(path string, level float64, muted bool) error {
	n.logger.Debug("Audio output not available (no-op)", "path", path, "level", level, "muted", muted)
	return nil
}

func (n *noop) FadeOut(time.Duration) {}

func (n *noop) Rewind() error { return nil }

func (n *noop) SetPaused(bool) {}

func (n *noop) SetVolume(float64, bool) {}

func (n *noop) Close() error { return nil }

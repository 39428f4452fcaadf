// Package audio plays animation sound clips on a single channel. The
// Coordinator keeps the device-global volume, mute and pause state; a Sink
// does the decoding and mixing.
package audio

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// FadeDuration is how long a replaced or stopped clip takes to fade out.
const FadeDuration = 500 * time.Millisecond

// State is a copy of the coordinator state.
type State struct {
	Clip   string  `json:"clip,omitempty" example:"alarm.mp3" doc:"Clip on the channel"`
	Volume float64 `json:"volume" example:"0.8" doc:"Volume level 0-1"`
	Muted  bool    `json:"muted" doc:"Whether output is muted"`
	Paused bool    `json:"paused" doc:"Whether the clip is paused"`
}

// Coordinator owns the audio channel.
type Coordinator struct {
	mu       sync.Mutex
	sink     Sink
	soundDir string
	clip     string
	volume   float64
	muted    bool
	paused   bool
	logger   *slog.Logger
}

// NewCoordinator creates a coordinator playing clips from soundDir.
func NewCoordinator(sink Sink, soundDir string, volume float64, logger *slog.Logger) *Coordinator {
	if volume < 0 || volume > 1 {
		volume = 1
	}
	return &Coordinator{
		sink:     sink,
		soundDir: soundDir,
		volume:   volume,
		logger:   logger,
	}
}

// Play starts clip, a file name in the sound directory, fading out the
// current clip first. An empty clip stops the channel.
func (c *Coordinator) Play(clip string) error {
	if clip == "" {
		c.Stop()
		return nil
	}
	if clip != filepath.Base(clip) {
		return &Error{Code: ErrCodeInvalidClip, Clip: clip, Message: "clip must be a file name"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clip != "" {
		c.sink.FadeOut(FadeDuration)
	}
	c.clip = ""
	c.paused = false

	if err := c.sink.Start(filepath.Join(c.soundDir, clip), c.volume, c.muted); err != nil {
		return err
	}
	c.clip = clip
	c.logger.Debug("Clip started", "clip", clip)
	return nil
}

// Stop fades out the current clip.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clip == "" {
		return
	}
	c.sink.FadeOut(FadeDuration)
	c.logger.Debug("Clip stopped", "clip", c.clip)
	c.clip = ""
	c.paused = false
}

// Rewind restarts the current clip. Without a clip it does nothing.
func (c *Coordinator) Rewind() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clip == "" {
		return nil
	}
	return c.sink.Rewind()
}

// Pause holds the current clip at its position.
func (c *Coordinator) Pause() {
	c.setPaused(true)
}

// Resume continues a paused clip.
func (c *Coordinator) Resume() {
	c.setPaused(false)
}

func (c *Coordinator) setPaused(paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clip == "" || c.paused == paused {
		return
	}
	c.paused = paused
	c.sink.SetPaused(paused)
}

// SetVolume sets the output level, 0 to 1. It applies to the current and
// every later clip.
func (c *Coordinator) SetVolume(level float64) error {
	if level < 0 || level > 1 {
		return &Error{Code: ErrCodeInvalidLevel, Message: fmt.Sprintf("volume %.2f out of range 0-1", level)}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = level
	c.sink.SetVolume(c.volume, c.muted)
	return nil
}

// SetMuted mutes or unmutes the output without losing the volume level.
func (c *Coordinator) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = muted
	c.sink.SetVolume(c.volume, c.muted)
}

// State returns a copy of the channel state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Clip:   c.clip,
		Volume: c.volume,
		Muted:  c.muted,
		Paused: c.paused,
	}
}

// Close stops the channel and releases the output.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clip = ""
	return c.sink.Close()
}

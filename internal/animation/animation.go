// Package animation loads animation assets and builds the synthetic
// animations (idle, solid fill, morse) the controller can play.
package animation

import (
	"fmt"
	"time"
)

// Reserved names.
const (
	DefaultName = "default"
	EmptyName   = "none"
)

// Infinite is the loop count of an animation that never completes.
const Infinite = -1

// Frame is one snapshot of every pixel on the strip.
type Frame []Color

// Definition is a loaded animation. It is read-only once returned by the
// loader; the controller keeps the playback position separately.
type Definition struct {
	Name              string
	Frames            []Frame
	Interval          time.Duration
	Loops             int
	RepeatAudioOnLoop bool
	// Sound is a file name relative to the sound directory, or empty.
	Sound string
}

// IsEmpty reports whether d is the idle sentinel.
func (d *Definition) IsEmpty() bool {
	return d.Name == EmptyName
}

// Empty returns the idle animation: a single all-off frame with no sound.
func Empty(pixels int) *Definition {
	return &Definition{
		Name:     EmptyName,
		Frames:   []Frame{solidFrame(Off, pixels)},
		Interval: time.Second,
		Loops:    Infinite,
	}
}

// Solid returns an animation that holds every pixel at c until replaced.
func Solid(name string, c Color, pixels int) *Definition {
	return &Definition{
		Name:     name,
		Frames:   []Frame{solidFrame(c, pixels)},
		Interval: time.Second,
		Loops:    Infinite,
	}
}

func solidFrame(c Color, pixels int) Frame {
	f := make(Frame, pixels)
	for i := range f {
		f[i] = c
	}
	return f
}

func intervalFor(framerate int) time.Duration {
	return time.Second / time.Duration(framerate)
}

// Validate checks a definition built outside the loader against the strip.
func Validate(d *Definition, pixels int) error {
	if d == nil {
		return invalid("", "definition is nil", nil)
	}
	if d.Interval <= 0 {
		return invalid(d.Name, "frame interval must be positive", nil)
	}
	if d.Loops < Infinite {
		return invalid(d.Name, "loops must be -1 or greater", nil)
	}
	if len(d.Frames) == 0 && d.Loops != 0 {
		return invalid(d.Name, "animation has no frames", nil)
	}
	for i, f := range d.Frames {
		if len(f) != pixels {
			return invalid(d.Name, fmt.Sprintf("frame %d has %d pixels, strip has %d", i, len(f), pixels), nil)
		}
	}
	return nil
}

package playback

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/canister/internal/animation"
)

// Strip is the LED output the renderer writes frames to.
type Strip interface {
	Write(frame animation.Frame) error
	Flush() error
}

// Audio is the sound channel the renderer keeps in step with playback.
type Audio interface {
	// Play starts clip from the beginning, fading out the current one.
	Play(clip string) error
	// Stop fades out the current clip.
	Stop()
	// Rewind restarts the current clip.
	Rewind() error
}

// Observer is told about every rendered frame. Used for metrics.
type Observer interface {
	FrameRendered(animation string)
	FlushFailed(err error)
}

type audioAction int

const (
	audioNone audioAction = iota
	audioPlay
	audioStop
	audioRewind
)

// maxCompletions bounds the natural completions handled before a frame is
// rendered. A loops=0 animation can complete into a loops=0 default, which
// then completes into the idle animation.
const maxCompletions = 3

// Renderer renders the controller's active animation onto the strip.
type Renderer struct {
	ctrl     *Controller
	strip    Strip
	audio    Audio
	observer Observer
	logger   *slog.Logger
}

// NewRenderer creates a renderer. observer may be nil.
func NewRenderer(ctrl *Controller, strip Strip, audio Audio, observer Observer, logger *slog.Logger) *Renderer {
	return &Renderer{
		ctrl:     ctrl,
		strip:    strip,
		audio:    audio,
		observer: observer,
		logger:   logger,
	}
}

// step is the outcome of advancing the playback state by one frame.
type step struct {
	changes  []change
	name     string
	interval time.Duration
	writeErr error
	action   audioAction
	clip     string
	// gen is the transition sequence the audio action belongs to.
	gen uint64
}

// Tick renders one frame and returns how long it should stay on the strip.
//
// The frame is copied into the strip buffer under the controller lock so a
// concurrent transition cannot tear it. Audio and the hardware flush run
// after the lock is released.
func (r *Renderer) Tick() time.Duration {
	st := r.advance()
	r.apply(st)
	return st.interval
}

// advance copies the current frame into the strip buffer and moves the
// cursor, all under the controller lock.
func (r *Renderer) advance() step {
	c := r.ctrl
	c.mu.Lock()
	defer c.mu.Unlock()

	var out step
	// loops=0 animations never show a frame.
	for i := 0; c.state.remaining == 0 && i < maxCompletions; i++ {
		out.changes = append(out.changes, c.completeLocked())
	}

	st := &c.state
	def := st.def
	out.name = def.Name
	out.interval = def.Interval
	out.clip = def.Sound

	out.writeErr = r.strip.Write(def.Frames[st.cursor])

	switch {
	case !st.audioStarted:
		st.audioStarted = true
		st.rewindPending = false
		if out.clip == "" {
			out.action = audioStop
		} else {
			out.action = audioPlay
		}
	case st.rewindPending:
		st.rewindPending = false
		out.action = audioRewind
	}

	st.cursor++
	if st.cursor >= len(def.Frames) {
		st.cursor = 0
		if st.remaining > 0 {
			st.remaining--
		}
		if st.remaining == 0 {
			out.changes = append(out.changes, c.completeLocked())
		} else if def.RepeatAudioOnLoop && out.clip != "" {
			st.rewindPending = true
		}
	}

	out.gen = c.seq
	return out
}

// apply publishes the transitions of st, runs its audio action and
// flushes the strip.
func (r *Renderer) apply(st step) {
	c := r.ctrl
	for _, ch := range st.changes {
		r.logger.Info("Animation completed", "animation", ch.previous, "next", ch.current)
		c.publish(ch)
	}

	r.runAudio(st)

	if st.writeErr != nil {
		r.flushFailed(st.name, st.writeErr)
		return
	}
	if err := r.strip.Flush(); err != nil {
		r.flushFailed(st.name, err)
		return
	}
	if r.observer != nil {
		r.observer.FrameRendered(st.name)
	}
}

// runAudio performs the audio action unless a transition happened since
// the frame was taken; the next tick starts the new animation's sound.
func (r *Renderer) runAudio(st step) {
	if st.action == audioNone {
		return
	}
	c := r.ctrl
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	if c.seq != st.gen {
		r.logger.Debug("Skipped audio of replaced animation", "animation", st.name, "clip", st.clip)
		return
	}

	switch st.action {
	case audioPlay:
		if err := r.audio.Play(st.clip); err != nil {
			r.logger.Warn("Failed to play animation sound", "clip", st.clip, "error", err)
		}
	case audioStop:
		r.audio.Stop()
	case audioRewind:
		if err := r.audio.Rewind(); err != nil {
			r.logger.Warn("Failed to rewind animation sound", "clip", st.clip, "error", err)
		}
	}
}

func (r *Renderer) flushFailed(name string, err error) {
	r.logger.Warn("Dropped frame", "animation", name, "error", err)
	if r.observer != nil {
		r.observer.FlushFailed(err)
	}
}

// Run renders until ctx is cancelled. Each frame is held for its
// animation's interval; a transition cuts the wait short.
func (r *Renderer) Run(ctx context.Context) {
	r.logger.Info("Render loop started")
	defer r.logger.Info("Render loop stopped")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-r.ctrl.wake:
			timer.Stop()
		}

		start := time.Now()
		hold := r.Tick()
		timer.Reset(hold - time.Since(start))
	}
}

// Package playback owns the active animation. The Controller applies
// start/stop transitions and the default fallback policy; the Renderer
// advances the active animation one frame per tick and drives the strip
// and the audio channel.
package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/canister/internal/animation"
	"github.com/smazurov/canister/internal/events"
)

// Source loads animation definitions by name.
type Source interface {
	Load(name string) (*animation.Definition, error)
}

// Publisher receives transition events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev events.Event)
}

// state is the playback position within the active definition.
type state struct {
	def           *animation.Definition
	cursor        int
	remaining     int
	audioStarted  bool
	rewindPending bool
}

// Snapshot is a consistent copy of the playback state.
type Snapshot struct {
	Name             string `json:"name" example:"meltdown" doc:"Active animation"`
	Idle             bool   `json:"idle" doc:"Whether the strip is idle"`
	Cursor           int    `json:"cursor" doc:"Index of the next frame to render"`
	Frames           int    `json:"frames" doc:"Frame count of the active animation"`
	RemainingLoops   int    `json:"remaining_loops" doc:"Loops left, -1 when infinite"`
	AudioStarted     bool   `json:"audio_started" doc:"Whether the clip has been started"`
	Sound            string `json:"sound,omitempty" doc:"Sound file of the active animation"`
	DefaultAvailable bool   `json:"default_available" doc:"Whether fallback to the default animation is enabled"`
}

// change describes one transition, published once the lock is released.
type change struct {
	previous string
	current  string
	reason   string
	idle     bool
	seq      uint64
}

// Controller holds the active animation behind a single mutex. The
// renderer and the command handlers share one Controller.
type Controller struct {
	mu         sync.Mutex
	state      state
	defaultDef *animation.Definition

	// seq numbers transitions so subscribers can drop out-of-order events
	// and the renderer can drop audio of a replaced animation. It is
	// written holding both mu and audioMu, read holding either.
	seq     uint64
	audioMu sync.Mutex

	source Source
	pixels int
	bus    Publisher
	logger *slog.Logger

	// wake tells the renderer a transition happened.
	wake chan struct{}
}

// NewController creates an idle controller. bus may be nil.
func NewController(source Source, pixels int, bus Publisher, logger *slog.Logger) *Controller {
	c := &Controller{
		source: source,
		pixels: pixels,
		bus:    bus,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
	c.state = newState(animation.Empty(pixels))
	return c
}

func newState(def *animation.Definition) state {
	return state{def: def, remaining: def.Loops}
}

// Start loads name and makes it the active animation. On error the
// active animation is left untouched. Starting the animation that is
// already playing restarts it from the first frame.
func (c *Controller) Start(name string) error {
	def, err := c.source.Load(name)
	if err != nil {
		c.logger.Warn("Failed to start animation", "animation", name, "error", err)
		return err
	}
	return c.Play(def)
}

// Play makes def the active animation. def must match the strip.
func (c *Controller) Play(def *animation.Definition) error {
	if err := animation.Validate(def, c.pixels); err != nil {
		return err
	}

	c.mu.Lock()
	ch := c.replaceLocked(def, events.ReasonStart)
	c.mu.Unlock()

	c.logger.Info("Animation started", "animation", def.Name, "frames", len(def.Frames), "loops", def.Loops)
	c.publish(ch)
	c.signal()
	return nil
}

// Stop ends the active animation. With fallback set the default
// animation takes over, unless it is absent or already the one playing;
// otherwise the strip goes idle.
func (c *Controller) Stop(fallback bool) {
	c.mu.Lock()
	var ch change
	if fallback && c.canFallbackLocked() {
		ch = c.replaceLocked(c.defaultDef, events.ReasonFallback)
	} else {
		ch = c.replaceLocked(animation.Empty(c.pixels), events.ReasonStop)
	}
	c.mu.Unlock()

	c.logger.Info("Animation stopped", "previous", ch.previous, "now", ch.current, "fallback", fallback)
	c.publish(ch)
	c.signal()
}

// Name returns the name of the active animation.
func (c *Controller) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.def.Name
}

// Snapshot returns a copy of the playback state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	return Snapshot{
		Name:             st.def.Name,
		Idle:             st.def.IsEmpty(),
		Cursor:           st.cursor,
		Frames:           len(st.def.Frames),
		RemainingLoops:   st.remaining,
		AudioStarted:     st.audioStarted,
		Sound:            st.def.Sound,
		DefaultAvailable: c.defaultDef != nil,
	}
}

// SetDefault sets the fallback definition. nil disables fallback.
func (c *Controller) SetDefault(def *animation.Definition) {
	c.mu.Lock()
	c.defaultDef = def
	c.mu.Unlock()
}

// DefaultAvailable reports whether fallback to the default is enabled.
func (c *Controller) DefaultAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defaultDef != nil
}

// ProbeDefault loads the default animation and enables fallback when it is
// valid. A missing default disables fallback silently; an invalid one
// disables it and returns the load error.
func (c *Controller) ProbeDefault() error {
	def, err := c.source.Load(animation.DefaultName)
	if err != nil {
		c.SetDefault(nil)
		if animation.IsNotFound(err) {
			c.logger.Info("No default animation, fallback disabled")
			return nil
		}
		c.logger.Warn("Default animation is invalid, fallback disabled", "error", err)
		return err
	}
	c.SetDefault(def)
	c.logger.Info("Default animation available", "frames", len(def.Frames))
	return nil
}

func (c *Controller) canFallbackLocked() bool {
	return c.defaultDef != nil && c.state.def.Name != animation.DefaultName
}

// completeLocked applies the fallback policy after the active animation
// ran out of loops.
func (c *Controller) completeLocked() change {
	next := animation.Empty(c.pixels)
	if c.canFallbackLocked() {
		next = c.defaultDef
	}
	return c.replaceLocked(next, events.ReasonCompleted)
}

func (c *Controller) replaceLocked(def *animation.Definition, reason string) change {
	c.audioMu.Lock()
	c.seq++
	c.audioMu.Unlock()
	ch := change{
		previous: c.state.def.Name,
		current:  def.Name,
		reason:   reason,
		idle:     def.IsEmpty(),
		seq:      c.seq,
	}
	c.state = newState(def)
	return ch
}

func (c *Controller) publish(ch change) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.AnimationChangedEvent{
		Previous:  ch.previous,
		Current:   ch.current,
		Reason:    ch.reason,
		Idle:      ch.idle,
		Seq:       ch.seq,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// signal wakes the renderer without blocking. One pending signal is enough.
func (c *Controller) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

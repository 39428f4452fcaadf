package indicator

import (
	"log/slog"
	"time"

	"github.com/smazurov/canister/internal/events"
)

// Sources of an indicator change.
const (
	SourceCommand  = "command"
	SourcePlayback = "playback"
)

// Manager applies indicator changes. The indicator is independent of
// playback unless follow is set, in which case it is lit while a non-idle
// animation plays.
type Manager struct {
	controller  Controller
	eventBus    *events.Bus
	follow      bool
	unsubscribe func()
	latest      events.Latest
	logger      *slog.Logger
}

// NewManager creates a manager. eventBus may be nil when follow is false.
func NewManager(controller Controller, eventBus *events.Bus, follow bool, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		follow:     follow,
		logger:     logger,
	}
}

// Start begins following playback, if enabled.
func (m *Manager) Start() {
	if !m.follow || m.eventBus == nil {
		return
	}
	m.unsubscribe = m.eventBus.Subscribe(func(e events.AnimationChangedEvent) {
		m.handleEvent(e)
	})
	m.logger.Info("Indicator follows playback")
}

// Stop unsubscribes from events and switches the indicator off.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	if err := m.controller.Close(); err != nil {
		m.logger.Warn("Failed to release indicator", "error", err)
	}
}

func (m *Manager) handleEvent(e events.AnimationChangedEvent) {
	if !m.latest.Admit(e.Seq) {
		m.logger.Debug("Dropped stale transition", "animation", e.Current, "seq", e.Seq)
		return
	}
	if err := m.Set(!e.Idle, SourcePlayback); err != nil {
		m.logger.Warn("Failed to follow playback", "animation", e.Current, "error", err)
	}
}

// Set switches the indicator and publishes the change.
func (m *Manager) Set(on bool, source string) error {
	if err := m.controller.Set(on); err != nil {
		return err
	}
	m.logger.Debug("Indicator set", "on", on, "source", source)
	if m.eventBus != nil {
		m.eventBus.Publish(events.IndicatorChangedEvent{
			On:        on,
			Source:    source,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
	return nil
}

// State returns the indicator state.
func (m *Manager) State() bool {
	return m.controller.State()
}

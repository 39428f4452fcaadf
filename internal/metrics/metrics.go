// Package metrics provides Prometheus metrics for playback, commands and
// control connections.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smazurov/canister/internal/command"
)

var (
	framesRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canister",
		Subsystem: "playback",
		Name:      "frames_rendered_total",
		Help:      "Frames flushed to the strip",
	}, []string{"animation"})

	flushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "canister",
		Subsystem: "playback",
		Name:      "flush_failures_total",
		Help:      "Frames dropped because the strip could not be flushed",
	})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canister",
		Subsystem: "playback",
		Name:      "transitions_total",
		Help:      "Animation transitions by reason",
	}, []string{"reason"})

	idle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "canister",
		Subsystem: "playback",
		Name:      "idle",
		Help:      "1 while the strip shows the idle animation",
	})

	commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canister",
		Subsystem: "command",
		Name:      "handled_total",
		Help:      "Dispatched commands by result code",
	}, []string{"command", "code"})

	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "canister",
		Subsystem: "server",
		Name:      "connections_active",
		Help:      "Open control connections",
	})

	// Local cache for SSE exporter access.
	cache   Snapshot
	cacheMu sync.RWMutex
)

// Snapshot holds the current counter values.
type Snapshot struct {
	Animation         string
	FramesRendered    float64
	FlushFailures     float64
	Transitions       float64
	Commands          float64
	CommandErrors     float64
	ConnectionsActive float64
}

// okCode labels commands that succeeded.
const okCode = "ok"

// ObserveFrame counts one flushed frame of animation.
func ObserveFrame(animation string) {
	framesRendered.WithLabelValues(animation).Inc()
	update(func(s *Snapshot) {
		s.FramesRendered++
		s.Animation = animation
	})
}

// ObserveFlushFailure counts one dropped frame.
func ObserveFlushFailure() {
	flushFailures.Inc()
	update(func(s *Snapshot) { s.FlushFailures++ })
}

// ObserveTransition counts an animation change.
func ObserveTransition(reason string) {
	transitions.WithLabelValues(reason).Inc()
	update(func(s *Snapshot) {
		s.Transitions++
	})
}

// SetActive records the animation a transition switched to.
func SetActive(current string, isIdle bool) {
	if isIdle {
		idle.Set(1)
	} else {
		idle.Set(0)
	}
	update(func(s *Snapshot) {
		s.Animation = current
	})
}

// ObserveCommand counts a dispatched command. code is empty on success.
// Unknown command names share one label value.
func ObserveCommand(name, code string) {
	switch code {
	case "":
		code = okCode
	case command.ErrCodeUnknownOperation:
		name = "unknown"
	}
	commands.WithLabelValues(name, code).Inc()
	update(func(s *Snapshot) {
		s.Commands++
		if code != okCode {
			s.CommandErrors++
		}
	})
}

// SetConnectionsActive records the number of open control connections.
func SetConnectionsActive(n int) {
	connectionsActive.Set(float64(n))
	update(func(s *Snapshot) { s.ConnectionsActive = float64(n) })
}

// Current returns a copy of the cached values.
func Current() Snapshot {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	return cache
}

func update(fn func(*Snapshot)) {
	cacheMu.Lock()
	fn(&cache)
	cacheMu.Unlock()
}

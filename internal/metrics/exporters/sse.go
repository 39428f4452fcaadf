package exporters

import (
	"context"
	"sync"
	"time"

	"github.com/smazurov/canister/internal/events"
	"github.com/smazurov/canister/internal/metrics"
)

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// SSEExporter periodically publishes the cached counters as a MetricsEvent.
type SSEExporter struct {
	eventBus EventPublisher
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSSEExporter creates a new SSE exporter.
func NewSSEExporter(eventBus EventPublisher) *SSEExporter {
	return &SSEExporter{
		eventBus: eventBus,
		interval: 1 * time.Second,
	}
}

// Start begins the SSE export loop.
func (s *SSEExporter) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
}

// Stop stops the SSE exporter and waits for the goroutine to finish.
func (s *SSEExporter) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *SSEExporter) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.publishMetrics()
		}
	}
}

func (s *SSEExporter) publishMetrics() {
	s.eventBus.Publish(Event(metrics.Current()))
}

// Event converts a metrics snapshot into its bus event.
func Event(snap metrics.Snapshot) events.MetricsEvent {
	return events.MetricsEvent{
		Animation:         snap.Animation,
		FramesRendered:    snap.FramesRendered,
		FlushFailures:     snap.FlushFailures,
		Transitions:       snap.Transitions,
		Commands:          snap.Commands,
		CommandErrors:     snap.CommandErrors,
		ConnectionsActive: snap.ConnectionsActive,
		Timestamp:         time.Now().Format(time.RFC3339),
	}
}

// GetEventTypes returns event types for SSE endpoint registration.
func GetEventTypes() map[string]any {
	return map[string]any{
		"metrics": events.MetricsEvent{},
	}
}

package exporters

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/canister/internal/events"
	"github.com/smazurov/canister/internal/metrics"
)

type mockEventBus struct {
	mu        sync.Mutex
	events    []events.Event
	published chan struct{}
}

func newMockEventBus() *mockEventBus {
	return &mockEventBus{
		events:    make([]events.Event, 0),
		published: make(chan struct{}, 100),
	}
}

func (m *mockEventBus) Publish(ev events.Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	select {
	case m.published <- struct{}{}:
	default:
	}
}

func (m *mockEventBus) getEvents() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]events.Event, len(m.events))
	copy(result, m.events)
	return result
}

func TestSSEExporterPublishesMetrics(t *testing.T) {
	metrics.ObserveFrame("sse-test")
	before := metrics.Current()

	mock := newMockEventBus()
	exporter := NewSSEExporter(mock)
	exporter.interval = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	exporter.Start(ctx)

	select {
	case <-mock.published:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for metrics publish")
	}

	cancel()
	exporter.Stop()

	evts := mock.getEvents()
	if len(evts) == 0 {
		t.Fatal("expected at least one event")
	}
	me, ok := evts[0].(events.MetricsEvent)
	if !ok {
		t.Fatalf("event type = %T, want events.MetricsEvent", evts[0])
	}
	if me.FramesRendered < before.FramesRendered {
		t.Errorf("FramesRendered = %v, want >= %v", me.FramesRendered, before.FramesRendered)
	}
	if me.Timestamp == "" {
		t.Error("Timestamp is empty")
	}
}

func TestEvent(t *testing.T) {
	snap := metrics.Snapshot{
		Animation:         "meltdown",
		FramesRendered:    120,
		FlushFailures:     2,
		Transitions:       4,
		Commands:          9,
		CommandErrors:     1,
		ConnectionsActive: 3,
	}

	me := Event(snap)

	if me.Animation != "meltdown" {
		t.Errorf("Animation = %q, want meltdown", me.Animation)
	}
	if me.FramesRendered != 120 || me.FlushFailures != 2 || me.Transitions != 4 {
		t.Errorf("playback counters = %v/%v/%v, want 120/2/4", me.FramesRendered, me.FlushFailures, me.Transitions)
	}
	if me.Commands != 9 || me.CommandErrors != 1 {
		t.Errorf("command counters = %v/%v, want 9/1", me.Commands, me.CommandErrors)
	}
	if me.ConnectionsActive != 3 {
		t.Errorf("ConnectionsActive = %v, want 3", me.ConnectionsActive)
	}
}

func TestSSEExporterStopIdempotent(t *testing.T) {
	mock := newMockEventBus()
	exporter := NewSSEExporter(mock)
	exporter.interval = 10 * time.Millisecond

	exporter.Start(context.Background())
	time.Sleep(30 * time.Millisecond)

	exporter.Stop()
	exporter.Stop()
	exporter.Stop()

	countAfterStop := len(mock.getEvents())
	time.Sleep(30 * time.Millisecond)
	countAfterWait := len(mock.getEvents())

	if countAfterWait != countAfterStop {
		t.Errorf("events published after stop: got %d, want %d", countAfterWait, countAfterStop)
	}
}

func TestSSEExporterStopBeforeStart(t *testing.T) {
	mock := newMockEventBus()
	exporter := NewSSEExporter(mock)
	exporter.interval = 10 * time.Millisecond

	// Stop before start should not panic
	exporter.Stop()

	exporter.Start(t.Context())
	time.Sleep(50 * time.Millisecond)
	exporter.Stop()

	if len(mock.getEvents()) == 0 {
		t.Error("expected events after Start(), got none")
	}
}

func TestGetEventTypes(t *testing.T) {
	types := GetEventTypes()
	if _, ok := types["metrics"].(events.MetricsEvent); !ok {
		t.Error("expected metrics event type")
	}
}

package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan AnimationChangedEvent, 1)

	unsub := bus.Subscribe(func(e AnimationChangedEvent) {
		received <- e
	})
	defer unsub()

	event := AnimationChangedEvent{
		Previous:  "none",
		Current:   "meltdown",
		Reason:    ReasonStart,
		Timestamp: "2026-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.Current != event.Current {
		t.Errorf("Expected current %s, got %s", event.Current, got.Current)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan CommandHandledEvent, 1)
	received2 := make(chan CommandHandledEvent, 1)

	unsub1 := bus.Subscribe(func(e CommandHandledEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e CommandHandledEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(CommandHandledEvent{Command: "help", OK: true})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan ConnectionEvent, 1)

	unsub := bus.Subscribe(func(e ConnectionEvent) {
		received <- e
	})

	bus.Publish(ConnectionEvent{Remote: "unix", Action: ConnectionOpened})
	<-received

	unsub()

	bus.Publish(ConnectionEvent{Remote: "unix", Action: ConnectionClosed})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	animationReceived := make(chan bool, 1)
	commandReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ AnimationChangedEvent) {
		animationReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ CommandHandledEvent) {
		commandReceived <- true
	})
	defer unsub2()

	bus.Publish(AnimationChangedEvent{Current: "default"})
	<-animationReceived

	select {
	case <-commandReceived:
		t.Fatal("Command subscriber should NOT have received AnimationChangedEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}

	bus.Publish(CommandHandledEvent{Command: "pause"})
	<-commandReceived

	select {
	case <-animationReceived:
		t.Fatal("Animation subscriber should NOT have received CommandHandledEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	if unsub == nil {
		t.Fatal("Subscribe() returned nil for unknown handler type")
	}
	unsub()
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ IndicatorChangedEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(IndicatorChangedEvent{
					On:        true,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_AllEventTypes(t *testing.T) {
	bus := New()

	tests := []struct {
		name  string
		event Event
	}{
		{"AnimationChanged", AnimationChangedEvent{Current: "default"}},
		{"CommandHandled", CommandHandledEvent{Command: "help"}},
		{"Connection", ConnectionEvent{Action: ConnectionOpened}},
		{"IndicatorChanged", IndicatorChangedEvent{On: true}},
		{"LogEntry", LogEntryEvent{Message: "hello"}},
		{"Metrics", MetricsEvent{FramesRendered: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(_ *testing.T) {
			received := make(chan Event, 1)

			var unsub func()
			switch tt.event.(type) {
			case AnimationChangedEvent:
				unsub = bus.Subscribe(func(e AnimationChangedEvent) { received <- e })
			case CommandHandledEvent:
				unsub = bus.Subscribe(func(e CommandHandledEvent) { received <- e })
			case ConnectionEvent:
				unsub = bus.Subscribe(func(e ConnectionEvent) { received <- e })
			case IndicatorChangedEvent:
				unsub = bus.Subscribe(func(e IndicatorChangedEvent) { received <- e })
			case LogEntryEvent:
				unsub = bus.Subscribe(func(e LogEntryEvent) { received <- e })
			case MetricsEvent:
				unsub = bus.Subscribe(func(e MetricsEvent) { received <- e })
			}
			defer unsub()

			bus.Publish(tt.event)
			<-received
		})
	}
}

func TestEventJSONSerialization(t *testing.T) {
	data, err := json.Marshal(AnimationChangedEvent{
		Previous:  "meltdown",
		Current:   "default",
		Reason:    ReasonCompleted,
		Timestamp: "2026-01-27T10:30:00Z",
	})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if result["reason"] != ReasonCompleted {
		t.Errorf("reason = %v, want %s", result["reason"], ReasonCompleted)
	}
	if _, ok := result["idle"]; !ok {
		t.Error("idle field missing")
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[AnimationChangedEvent](bus, ch)
	defer unsub()

	bus.Publish(AnimationChangedEvent{Current: "test"})

	received := <-ch
	got, ok := received.(AnimationChangedEvent)
	if !ok {
		t.Fatalf("Expected AnimationChangedEvent, got %T", received)
	}
	if got.Current != "test" {
		t.Errorf("Expected current test, got %s", got.Current)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any) // No buffer

	unsub := SubscribeToChannel[CommandHandledEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(CommandHandledEvent{Command: "help"})
		done <- true
	}()

	<-done // Should complete without blocking
}

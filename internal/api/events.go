package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/canister/internal/api/models"
	"github.com/smazurov/canister/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of animation changes, handled commands, control connections and indicator changes. The current status is sent first.",
		Tags:        []string{"events"},
	}, map[string]any{
		"status":            models.StatusData{},
		"animation-changed": events.AnimationChangedEvent{},
		"command-handled":   events.CommandHandledEvent{},
		"connection":        events.ConnectionEvent{},
		"indicator-changed": events.IndicatorChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.AnimationChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.CommandHandledEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ConnectionEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.IndicatorChangedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(s.status()); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}

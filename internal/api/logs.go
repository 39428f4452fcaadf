package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/canister/internal/events"
	"github.com/smazurov/canister/internal/logging"
)

// LogsInput filters the buffered log entries.
type LogsInput struct {
	Module string `query:"module" example:"playback" doc:"Only entries from this module"`
	Limit  int    `query:"limit" minimum:"0" example:"100" doc:"Return at most this many of the newest entries, 0 for all"`
}

// LogsResponse lists buffered log entries, oldest first.
type LogsResponse struct {
	Body struct {
		Entries []events.LogEntryEvent `json:"entries" doc:"Log entries, oldest first"`
		Count   int                    `json:"count" example:"42" doc:"Number of entries returned"`
		Stats   logging.Stats          `json:"stats" doc:"Log history and log file counters"`
	}
}

// registerLogRoutes registers the buffered log endpoint and, when an event
// bus is configured, the log streaming SSE endpoint.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Logs",
		Description: "Get the most recent log entries from the in-memory history",
		Tags:        []string{"logs"},
	}, func(_ context.Context, input *LogsInput) (*LogsResponse, error) {
		resp := &LogsResponse{}
		resp.Body.Entries = []events.LogEntryEvent{}
		if history := logging.GetHistory(); history != nil {
			for _, entry := range history.Query(input.Module, input.Limit) {
				resp.Body.Entries = append(resp.Body.Entries, toLogEvent(entry))
			}
		}
		resp.Body.Count = len(resp.Body.Entries)
		resp.Body.Stats = logging.GetStats()
		return resp, nil
	})

	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Sends historical logs first, then streams new logs.",
		Tags:        []string{"logs"},
	}, func() map[string]any {
		return map[string]any{
			"message": events.LogEntryEvent{},
		}
	}(), func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// History first, then live entries
		if history := logging.GetHistory(); history != nil {
			for _, entry := range history.Query("", 0) {
				if err := send.Data(toLogEvent(entry)); err != nil {
					return
				}
			}
		}

		// Create event channel for this connection
		eventCh := make(chan any, 100) // Larger buffer for logs

		// Subscribe to log events
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		// Stream new log entries as they arrive
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

func toLogEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

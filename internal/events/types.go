package events

// Event type constants for kelindar/event.
const (
	TypeAnimationChanged uint32 = iota + 1
	TypeCommandHandled
	TypeConnection
	TypeIndicatorChanged
	TypeLogEntry
	TypeMetrics
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// Transition reasons carried by AnimationChangedEvent.
const (
	ReasonStart     = "start"
	ReasonStop      = "stop"
	ReasonFallback  = "fallback"
	ReasonCompleted = "completed"
)

// AnimationChangedEvent is published on every playback transition.
type AnimationChangedEvent struct {
	Previous  string `json:"previous" example:"default" doc:"Animation that was playing"`
	Current   string `json:"current" example:"meltdown" doc:"Animation now playing"`
	Reason    string `json:"reason" example:"start" doc:"Transition reason: start, stop, fallback, completed"`
	Idle      bool   `json:"idle" example:"false" doc:"Whether the strip is now idle"`
	Seq       uint64 `json:"seq" example:"42" doc:"Transition sequence number, increasing"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for AnimationChangedEvent.
func (e AnimationChangedEvent) Type() uint32 { return TypeAnimationChanged }

// CommandHandledEvent is published after every dispatched command.
type CommandHandledEvent struct {
	Command   string `json:"command" example:"playAnimation" doc:"Operation name"`
	Source    string `json:"source" example:"socket" doc:"Where the request came from"`
	OK        bool   `json:"ok" doc:"Whether the command succeeded"`
	Code      string `json:"code,omitempty" example:"ASSET_NOT_FOUND" doc:"Error code on failure"`
	Duration  string `json:"duration" example:"1.2ms" doc:"Handler duration"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CommandHandledEvent.
func (e CommandHandledEvent) Type() uint32 { return TypeCommandHandled }

// Connection actions.
const (
	ConnectionOpened = "opened"
	ConnectionClosed = "closed"
)

// ConnectionEvent is published when a control connection opens or closes.
type ConnectionEvent struct {
	Remote    string `json:"remote" example:"unix" doc:"Remote address"`
	Action    string `json:"action" example:"opened" doc:"opened or closed"`
	Active    int    `json:"active" example:"1" doc:"Connections open after this event"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConnectionEvent.
func (e ConnectionEvent) Type() uint32 { return TypeConnection }

// IndicatorChangedEvent is published when the aux indicator is switched.
type IndicatorChangedEvent struct {
	On        bool   `json:"on" doc:"Indicator state"`
	Source    string `json:"source" example:"command" doc:"command or playback"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for IndicatorChangedEvent.
func (e IndicatorChangedEvent) Type() uint32 { return TypeIndicatorChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2026-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"playback" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// MetricsEvent is a periodic snapshot of the playback counters.
type MetricsEvent struct {
	Animation         string  `json:"animation" example:"meltdown" doc:"Active animation"`
	FramesRendered    float64 `json:"frames_rendered" doc:"Frames flushed to the strip"`
	FlushFailures     float64 `json:"flush_failures" doc:"Frames dropped by the strip"`
	Transitions       float64 `json:"transitions" doc:"Animation transitions"`
	Commands          float64 `json:"commands" doc:"Commands dispatched"`
	CommandErrors     float64 `json:"command_errors" doc:"Commands that failed"`
	ConnectionsActive float64 `json:"connections_active" doc:"Open control connections"`
	Timestamp         string  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for MetricsEvent.
func (e MetricsEvent) Type() uint32 { return TypeMetrics }

package metrics

import (
	"log/slog"

	"github.com/smazurov/canister/internal/events"
)

// Recorder feeds the metrics from the render loop and the event bus. It
// satisfies playback.Observer.
type Recorder struct {
	logger *slog.Logger
	unsubs []func()
	latest events.Latest
}

// NewRecorder creates a recorder.
func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// FrameRendered implements playback.Observer.
func (r *Recorder) FrameRendered(animation string) {
	ObserveFrame(animation)
}

// FlushFailed implements playback.Observer.
func (r *Recorder) FlushFailed(err error) {
	ObserveFlushFailure()
	r.logger.Debug("Flush failure recorded", "error", err)
}

// Subscribe starts counting transitions, commands and connections.
func (r *Recorder) Subscribe(bus *events.Bus) {
	r.unsubs = append(r.unsubs,
		bus.Subscribe(func(e events.AnimationChangedEvent) {
			ObserveTransition(e.Reason)
			if r.latest.Admit(e.Seq) {
				SetActive(e.Current, e.Idle)
			}
		}),
		bus.Subscribe(func(e events.CommandHandledEvent) {
			ObserveCommand(e.Command, e.Code)
		}),
		bus.Subscribe(func(e events.ConnectionEvent) {
			SetConnectionsActive(e.Active)
		}),
	)
}

// Unsubscribe stops listening to the bus.
func (r *Recorder) Unsubscribe() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}

package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/smazurov/canister/internal/animation"
	"github.com/smazurov/canister/internal/api/models"
	"github.com/smazurov/canister/internal/audio"
	"github.com/smazurov/canister/internal/command"
	"github.com/smazurov/canister/internal/events"
	"github.com/smazurov/canister/internal/logging"
	"github.com/smazurov/canister/internal/playback"
	"github.com/smazurov/canister/internal/version"
)

type fakePlayback struct{ snap playback.Snapshot }

func (f *fakePlayback) Snapshot() playback.Snapshot { return f.snap }

type fakeAssets struct {
	animations []string
	sounds     []string
	err        error
}

func (f *fakeAssets) List() ([]string, error)   { return f.animations, f.err }
func (f *fakeAssets) Sounds() ([]string, error) { return f.sounds, f.err }

type fakeAudio struct{ state audio.State }

func (f *fakeAudio) State() audio.State { return f.state }

type fakeIndicator struct {
	mu      sync.Mutex
	on      bool
	sources []string
}

func (f *fakeIndicator) Set(on bool, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on = on
	f.sources = append(f.sources, source)
	return nil
}

func (f *fakeIndicator) State() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

type testEnv struct {
	server    *Server
	api       humatest.TestAPI
	bus       *events.Bus
	indicator *fakeIndicator
	requests  chan command.Request
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		bus:       events.New(),
		indicator: &fakeIndicator{},
		requests:  make(chan command.Request, 10),
	}

	registry := command.NewRegistry(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	registry.Register(command.Operation{
		Name:   "playAnimation",
		Params: []command.Param{{Name: "name", Type: command.TypeString}},
		Handler: func(_ context.Context, args command.Args) (string, error) {
			if args.String(0) == "missing" {
				return "", &animation.Error{Code: animation.ErrCodeAssetNotFound, Name: "missing", Message: "animation file not found"}
			}
			return command.OK, nil
		},
	})
	registry.Register(command.Operation{
		Name:   "setVolume",
		Params: []command.Param{{Name: "percent", Type: command.TypeInt}},
		Help:   "Set the volume in percent",
		Handler: func(_ context.Context, args command.Args) (string, error) {
			return command.OK, nil
		},
	})
	recording := &recordingDispatcher{Registry: registry, requests: env.requests}

	env.server = NewServer(&Options{
		EventBus: env.bus,
		Playback: &fakePlayback{snap: playback.Snapshot{
			Name:             "meltdown",
			Frames:           12,
			RemainingLoops:   2,
			Sound:            "alarm.mp3",
			DefaultAvailable: true,
		}},
		Dispatcher: recording,
		Assets:     &fakeAssets{animations: []string{"default", "meltdown"}, sounds: []string{"alarm.mp3"}},
		Audio:      &fakeAudio{state: audio.State{Clip: "alarm.mp3", Volume: 0.8}},
		Indicator:  env.indicator,
	})
	env.api = humatest.Wrap(t, env.server.GetAPI())
	return env
}

type recordingDispatcher struct {
	*command.Registry
	requests chan command.Request
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, req command.Request) (string, error) {
	d.requests <- req
	return d.Registry.Dispatch(ctx, req)
}

func decode[T any](t *testing.T, body io.Reader) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestHealthAndVersion(t *testing.T) {
	env := newTestEnv(t)

	resp := env.api.Get("/api/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.Code)
	}
	health := decode[models.HealthData](t, resp.Body)
	if health.Status != "ok" {
		t.Errorf("health.Status = %q, want ok", health.Status)
	}

	resp = env.api.Get("/api/version")
	if resp.Code != http.StatusOK {
		t.Fatalf("version status = %d, want 200", resp.Code)
	}
	v := decode[version.Info](t, resp.Body)
	if v.GoVersion == "" || v.Platform == "" {
		t.Errorf("version data incomplete: %+v", v)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	env.indicator.on = true

	resp := env.api.Get("/api/status")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	status := decode[models.StatusData](t, resp.Body)
	if status.Playback.Name != "meltdown" || status.Playback.RemainingLoops != 2 {
		t.Errorf("playback = %+v, want meltdown with 2 loops left", status.Playback)
	}
	if !status.Playback.DefaultAvailable {
		t.Error("playback.DefaultAvailable = false, want true")
	}
	if status.Audio.Clip != "alarm.mp3" || status.Audio.Volume != 0.8 {
		t.Errorf("audio = %+v, want alarm.mp3 at 0.8", status.Audio)
	}
	if !status.Indicator {
		t.Error("indicator = false, want true")
	}
}

func TestAssetLists(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path string
		want []string
	}{
		{"/api/animations", []string{"default", "meltdown"}},
		{"/api/sounds", []string{"alarm.mp3"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := env.api.Get(tt.path)
			if resp.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.Code)
			}
			list := decode[models.ListData](t, resp.Body)
			if list.Count != len(tt.want) {
				t.Fatalf("count = %d, want %d", list.Count, len(tt.want))
			}
			for i, name := range tt.want {
				if list.Items[i] != name {
					t.Errorf("items[%d] = %q, want %q", i, list.Items[i], name)
				}
			}
		})
	}
}

func TestDispatchCommand(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success",
			body:       map[string]any{"command": "playAnimation", "args": []any{"meltdown"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown operation",
			body:       map[string]any{"command": "selfDestruct"},
			wantStatus: http.StatusNotFound,
			wantCode:   command.ErrCodeUnknownOperation,
		},
		{
			name:       "argument mismatch",
			body:       map[string]any{"command": "setVolume", "args": []any{"loud"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   command.ErrCodeArgumentMismatch,
		},
		{
			name:       "missing asset",
			body:       map[string]any{"command": "playAnimation", "args": []any{"missing"}},
			wantStatus: http.StatusNotFound,
			wantCode:   animation.ErrCodeAssetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			resp := env.api.Post("/api/commands", tt.body)
			if resp.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", resp.Code, tt.wantStatus, resp.Body.String())
			}

			req := <-env.requests
			if req.Source != SourceHTTP {
				t.Errorf("request source = %q, want %q", req.Source, SourceHTTP)
			}

			if tt.wantCode == "" {
				result := decode[models.CommandResultData](t, resp.Body)
				if !result.OK || result.Result != command.OK {
					t.Errorf("result = %+v, want OK", result)
				}
				return
			}
			if !strings.Contains(resp.Body.String(), tt.wantCode) {
				t.Errorf("body %q does not carry code %s", resp.Body.String(), tt.wantCode)
			}
		})
	}
}

func TestListCommands(t *testing.T) {
	env := newTestEnv(t)

	resp := env.api.Get("/api/commands")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	ops := decode[models.OperationsData](t, resp.Body)
	if ops.Count != 2 {
		t.Fatalf("count = %d, want 2", ops.Count)
	}
	if ops.Operations[1].Usage != "setVolume <percent:int>" {
		t.Errorf("usage = %q, want %q", ops.Operations[1].Usage, "setVolume <percent:int>")
	}
	if ops.Operations[1].Help == "" {
		t.Error("help text missing")
	}
}

func TestIndicator(t *testing.T) {
	env := newTestEnv(t)

	resp := env.api.Put("/api/indicator", map[string]any{"on": true})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.Code, resp.Body.String())
	}
	if got := decode[models.IndicatorData](t, resp.Body); !got.On {
		t.Error("response on = false, want true")
	}
	if len(env.indicator.sources) != 1 || env.indicator.sources[0] != "command" {
		t.Errorf("indicator sources = %v, want [command]", env.indicator.sources)
	}

	resp = env.api.Get("/api/indicator")
	if got := decode[models.IndicatorData](t, resp.Body); !got.On {
		t.Error("GET on = false, want true")
	}
}

func TestLogs(t *testing.T) {
	if err := logging.Initialize(logging.Config{Level: "info", Format: "text"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	env := newTestEnv(t)

	logger := logging.GetLogger("playback")
	for _, name := range []string{"a", "b", "c"} {
		logger.Info("Animation started", "animation", name)
	}
	logging.GetLogger("api").Info("unrelated")

	resp := env.api.Get("/api/logs?module=playback&limit=2")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	body := decode[struct {
		Entries []events.LogEntryEvent `json:"entries"`
		Count   int                    `json:"count"`
		Stats   logging.Stats          `json:"stats"`
	}](t, resp.Body)
	if body.Count != 2 || len(body.Entries) != 2 {
		t.Fatalf("count = %d with %d entries, want 2", body.Count, len(body.Entries))
	}
	for i, want := range []string{"b", "c"} {
		e := body.Entries[i]
		if e.Module != "playback" || e.Attributes["animation"] != want {
			t.Errorf("entry %d = %s %v, want playback animation=%s", i, e.Module, e.Attributes, want)
		}
	}
	if body.Stats.Capacity == 0 || body.Stats.Written < 4 {
		t.Errorf("stats = %+v, want capacity > 0 and written >= 4", body.Stats)
	}
}

func TestSSEStatusAndEvents(t *testing.T) {
	env := newTestEnv(t)

	ts := httptest.NewServer(env.server.GetMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	defer resp.Body.Close()

	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("Expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	messages := make(chan string, 10)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data:") {
				messages <- line
			}
		}
	}()

	select {
	case msg := <-messages:
		if !strings.Contains(msg, `"meltdown"`) {
			t.Errorf("initial status = %s, want active animation", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for initial status")
	}

	env.bus.Publish(events.AnimationChangedEvent{
		Previous:  "meltdown",
		Current:   "default",
		Reason:    events.ReasonCompleted,
		Timestamp: time.Now().Format(time.RFC3339),
	})

	select {
	case msg := <-messages:
		if !strings.Contains(msg, `"current":"default"`) {
			t.Errorf("event = %s, want animation change to default", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for animation event")
	}
}

func TestPrometheusHandler(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("canister_up 1\n"))
	})
	server := NewServer(&Options{
		Playback:          &fakePlayback{},
		Dispatcher:        command.NewRegistry(nil, slog.New(slog.NewTextHandler(io.Discard, nil))),
		Assets:            &fakeAssets{},
		PrometheusHandler: handler,
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	server.GetMux().ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "canister_up") {
		t.Errorf("GET /metrics = %d %q", w.Code, w.Body.String())
	}
}

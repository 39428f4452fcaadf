package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/canister/internal/api/models"
	"github.com/smazurov/canister/internal/audio"
	"github.com/smazurov/canister/internal/command"
	"github.com/smazurov/canister/internal/events"
	"github.com/smazurov/canister/internal/logging"
	"github.com/smazurov/canister/internal/playback"
	"github.com/smazurov/canister/internal/version"
)

// Playback reports the active animation.
type Playback interface {
	Snapshot() playback.Snapshot
}

// Dispatcher runs commands. *command.Registry satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req command.Request) (string, error)
	Operations() []command.Operation
}

// Assets lists the animation and sound files.
type Assets interface {
	List() ([]string, error)
	Sounds() ([]string, error)
}

// AudioState reports the audio channel.
type AudioState interface {
	State() audio.State
}

// Indicator is the aux indicator. *indicator.Manager satisfies it.
type Indicator interface {
	Set(on bool, source string) error
	State() bool
}

// Options holds the collaborators the API reports on and drives.
type Options struct {
	EventBus          *events.Bus
	Playback          Playback
	Dispatcher        Dispatcher
	Assets            Assets
	Audio             AudioState
	Indicator         Indicator
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// Server is the HTTP status and control API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	eventBus   *events.Bus
	options    *Options
	logger     *slog.Logger
}

// NewServer creates a new API server with Huma v2 using Go 1.22+ native routing
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("Canister API", version.Version)
	config.Info.Description = "Status and control API for an addressable-LED prop"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	server := &Server{
		api:      api,
		mux:      mux,
		eventBus: opts.EventBus,
		options:  opts,
		logger:   logging.GetLogger("api"),
	}

	installCORS(mux, api, DefaultCORSConfig())
	api.UseMiddleware(newRequestLogger(logging.GetLogger("http")))

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	return server
}

// GetMux returns the underlying HTTP ServeMux for additional setup
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start starts the HTTP server on the specified address. It blocks until
// the server is stopped.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	return s.httpServer.ListenAndServe()
}

// Stop closes the server without waiting for SSE streams to drain.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		return &models.VersionResponse{Body: version.Get()}, nil
	})

	s.registerStatusRoutes()
	s.registerCommandRoutes()
	s.registerIndicatorRoutes()
	s.registerAudioRoutes()
	s.registerLogRoutes()

	if s.eventBus != nil {
		s.registerSSERoutes()
		s.registerMetricsRoutes()
	}
}

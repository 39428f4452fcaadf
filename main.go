package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/canister/cmd"
	"github.com/smazurov/canister/internal/animation"
	"github.com/smazurov/canister/internal/api"
	"github.com/smazurov/canister/internal/audio"
	"github.com/smazurov/canister/internal/command"
	"github.com/smazurov/canister/internal/config"
	"github.com/smazurov/canister/internal/events"
	"github.com/smazurov/canister/internal/indicator"
	"github.com/smazurov/canister/internal/logging"
	"github.com/smazurov/canister/internal/metrics"
	"github.com/smazurov/canister/internal/metrics/exporters"
	"github.com/smazurov/canister/internal/playback"
	"github.com/smazurov/canister/internal/server"
	"github.com/smazurov/canister/internal/strip"
	"github.com/smazurov/canister/internal/systemd"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Asset paths
	AnimationsDir string `help:"Animation directory" default:"animations" toml:"paths.animations" env:"PATHS_ANIMATIONS"`
	SoundsDir     string `help:"Sound directory" default:"sounds" toml:"paths.sounds" env:"PATHS_SOUNDS"`

	// Strip settings
	StripDriver     string `help:"LED strip driver (ws281x, memory)" default:"ws281x" toml:"strip.driver" env:"STRIP_DRIVER"`
	StripPixels     int    `help:"Number of pixels on the strip" default:"60" toml:"strip.pixels" env:"STRIP_PIXELS"`
	StripGpioPin    int    `help:"GPIO pin driving the strip" default:"18" toml:"strip.gpio_pin" env:"STRIP_GPIO_PIN"`
	StripBrightness int    `help:"Global strip brightness (0-255)" default:"255" toml:"strip.brightness" env:"STRIP_BRIGHTNESS"`
	StripGamma      bool   `help:"Apply gamma correction" default:"false" toml:"strip.gamma" env:"STRIP_GAMMA"`

	// Audio settings
	AudioEnabled    bool `help:"Enable sound output" default:"true" toml:"audio.enabled" env:"AUDIO_ENABLED"`
	AudioSampleRate int  `help:"Speaker sample rate in Hz" default:"44100" toml:"audio.sample_rate" env:"AUDIO_SAMPLE_RATE"`
	AudioVolume     int  `help:"Initial volume in percent" default:"100" toml:"audio.volume" env:"AUDIO_VOLUME"`

	// Indicator settings
	IndicatorDriver         string `help:"Indicator driver (auto, gpio, sysfs, none)" default:"auto" toml:"indicator.driver" env:"INDICATOR_DRIVER"`
	IndicatorChip           string `help:"GPIO chip of the indicator line" default:"gpiochip0" toml:"indicator.chip" env:"INDICATOR_CHIP"`
	IndicatorLine           int    `help:"GPIO line offset of the indicator" default:"17" toml:"indicator.line" env:"INDICATOR_LINE"`
	IndicatorSysfsName      string `help:"LED name under /sys/class/leds" default:"" toml:"indicator.sysfs_name" env:"INDICATOR_SYSFS_NAME"`
	IndicatorFollowPlayback bool   `help:"Light the indicator while an animation plays" default:"false" toml:"indicator.follow_playback" env:"INDICATOR_FOLLOW_PLAYBACK"`

	// Control link settings
	ServerNetwork     string `help:"Control link network (unix, tcp, rfcomm)" default:"unix" toml:"server.network" env:"SERVER_NETWORK"`
	ServerAddress     string `help:"Control link address" default:"/run/canister.sock" toml:"server.address" env:"SERVER_ADDRESS"`
	ServerIdleTimeout string `help:"Close idle control connections after this long, 0 to disable" default:"0s" toml:"server.idle_timeout" env:"SERVER_IDLE_TIMEOUT"`

	// HTTP API settings
	HTTPEnabled bool   `help:"Enable the HTTP status API" default:"true" toml:"http.enabled" env:"HTTP_ENABLED"`
	HTTPPort    string `help:"HTTP API listen address" short:"p" default:":8090" toml:"http.port" env:"HTTP_PORT"`

	// Command settings
	MorseColor string `help:"Default morseCode color (rrggbb)" default:"ff0000" toml:"commands.morse_color" env:"COMMANDS_MORSE_COLOR"`

	// Power settings
	PowerOffOnShutdown bool `help:"Power the host off on the shutdown command" default:"true" toml:"power.poweroff_on_shutdown" env:"POWER_POWEROFF_ON_SHUTDOWN"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingFile   string `help:"Append log lines to this file" default:"" toml:"logging.file" env:"LOGGING_FILE"`
}

// stopGrace lets the reply to stop or shutdown reach the client before
// connections are closed.
const stopGrace = 200 * time.Millisecond

// lifecycle ends the service on request from the command set.
type lifecycle struct {
	once     sync.Once
	cancel   context.CancelFunc
	powerOff atomic.Bool
}

func (l *lifecycle) RequestStop(powerOff bool) {
	if powerOff {
		l.powerOff.Store(true)
	}
	l.once.Do(func() {
		time.AfterFunc(stopGrace, l.cancel)
	})
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		configErr := config.LoadConfig(opts, cli.Root())

		// Module levels come from the file; the rest follows CLI > env > file
		loggingConfig := config.LoadLoggingConfig(opts.Config)
		loggingConfig.Level = opts.LoggingLevel
		loggingConfig.Format = opts.LoggingFormat
		loggingConfig.File = opts.LoggingFile
		logErr := logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")
		if configErr != nil {
			logger.Warn("Failed to load config", "error", configErr)
		}
		if logErr != nil {
			logger.Warn("Failed to open log file", "file", opts.LoggingFile, "error", logErr)
		}

		ctx, cancel := context.WithCancel(context.Background())
		lc := &lifecycle{cancel: cancel}
		stopped := make(chan struct{})

		hooks.OnStart(func() {
			defer close(stopped)
			if err := run(ctx, opts, lc, logger); err != nil {
				logger.Error("Service failed", "error", err)
				logging.Shutdown()
				os.Exit(1)
			}
			logging.Shutdown()
		})

		hooks.OnStop(func() {
			logger.Info("Received stop signal")
			cancel()
			<-stopped
		})
	})

	cli.Root().AddCommand(cmd.CreateSendCmd())
	cli.Root().AddCommand(cmd.CreateValidateCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())
	cli.Root().AddCommand(cmd.CreateUpdateCmd())

	cli.Run()
}

// run wires the devices, the playback engine and the control surfaces, and
// blocks until ctx is cancelled.
func run(ctx context.Context, opts *Options, lc *lifecycle, logger *slog.Logger) error {
	notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
	eventBus := events.New()

	logging.SetLogCallback(func(entry logging.LogEntry) {
		eventBus.Publish(events.LogEntryEvent{
			Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
			Level:      entry.Level,
			Module:     entry.Module,
			Message:    entry.Message,
			Attributes: entry.Attributes,
		})
	})
	defer logging.SetLogCallback(nil)

	// Devices
	dev := openStrip(opts, logger)
	defer func() {
		blank := animation.Empty(dev.Len())
		_ = dev.Write(blank.Frames[0])
		_ = dev.Flush()
		if err := dev.Close(); err != nil {
			logger.Warn("Failed to close strip", "error", err)
		}
	}()

	coordinator := audio.NewCoordinator(openSink(opts, logger), opts.SoundsDir, volumeLevel(opts.AudioVolume), logging.GetLogger("audio"))
	defer func() {
		if err := coordinator.Close(); err != nil {
			logger.Warn("Failed to close audio", "error", err)
		}
	}()

	indicatorLogger := logging.GetLogger("indicator")
	ctl, err := indicator.New(indicator.Options{
		Driver:    opts.IndicatorDriver,
		Chip:      opts.IndicatorChip,
		Line:      opts.IndicatorLine,
		SysfsName: opts.IndicatorSysfsName,
	}, indicatorLogger)
	if err != nil {
		logger.Warn("Indicator unavailable, continuing without it", "driver", opts.IndicatorDriver, "error", err)
		ctl, _ = indicator.New(indicator.Options{Driver: indicator.DriverNone}, indicatorLogger)
	}
	indicatorManager := indicator.NewManager(ctl, eventBus, opts.IndicatorFollowPlayback, indicatorLogger)
	indicatorManager.Start()
	defer indicatorManager.Stop()

	// Playback engine
	loader := animation.NewLoader(opts.AnimationsDir, opts.SoundsDir, dev.Len())
	playbackLogger := logging.GetLogger("playback")
	controller := playback.NewController(loader, dev.Len(), eventBus, playbackLogger)
	if err := controller.ProbeDefault(); err != nil {
		logger.Warn("Default animation rejected", "error", err)
	}

	recorder := metrics.NewRecorder(logging.GetLogger("metrics"))
	recorder.Subscribe(eventBus)
	defer recorder.Unsubscribe()

	watcher := config.NewWatcher(
		opts.AnimationsDir,
		func(string) (*animation.Definition, error) { return loader.Load(animation.DefaultName) },
		logging.GetLogger("config"),
		config.WithFilter[*animation.Definition](func(name string) bool {
			return animation.Normalize(name) == animation.DefaultName
		}),
		config.WithErrorHandler[*animation.Definition](func(error) { controller.SetDefault(nil) }),
	)
	watcher.OnReload(controller.SetDefault)
	if err := watcher.Start(); err != nil {
		logger.Warn("Failed to watch animation directory", "path", opts.AnimationsDir, "error", err)
	}
	defer watcher.Stop()

	// Commands
	morseColor, err := animation.ParseColor(opts.MorseColor)
	if err != nil {
		logger.Warn("Invalid morse color, using red", "color", opts.MorseColor, "error", err)
		morseColor = animation.Color{255, 0, 0}
	}
	registry := command.NewRegistry(eventBus, logging.GetLogger("command"))
	command.RegisterBuiltins(registry, command.Deps{
		Controller: controller,
		Assets:     loader,
		Audio:      coordinator,
		Indicator:  indicatorManager,
		Lifecycle:  lc,
		Pixels:     dev.Len(),
		MorseColor: morseColor,
	})
	aliases, err := config.LoadAliases(opts.Config, command.DefaultAliases)
	if err != nil {
		logger.Warn("Failed to load aliases, using defaults", "error", err)
		aliases = command.DefaultAliases
	}
	if err := command.RegisterAliases(registry, controller, aliases); err != nil {
		logger.Warn("Failed to register aliases", "error", err)
	}

	// Control link
	listener, err := server.Listen(opts.ServerNetwork, opts.ServerAddress)
	if err != nil {
		return err
	}
	idleTimeout, err := time.ParseDuration(opts.ServerIdleTimeout)
	if err != nil {
		logger.Warn("Invalid idle timeout, disabling it", "value", opts.ServerIdleTimeout, "error", err)
		idleTimeout = 0
	}
	socketServer := server.New(registry, eventBus, server.Options{
		IdleTimeout: idleTimeout,
		Source:      opts.ServerNetwork,
	}, logging.GetLogger("connection"))

	var wg sync.WaitGroup

	renderer := playback.NewRenderer(controller, dev, coordinator, recorder, playbackLogger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		renderer.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Control link listening", "network", opts.ServerNetwork, "address", opts.ServerAddress)
		if err := socketServer.Serve(ctx, listener); err != nil {
			logger.Error("Control link failed", "error", err)
		}
	}()

	// HTTP API
	var apiServer *api.Server
	sseExporter := exporters.NewSSEExporter(eventBus)
	if opts.HTTPEnabled {
		sseExporter.Start(ctx)
		apiServer = api.NewServer(&api.Options{
			EventBus:          eventBus,
			Playback:          controller,
			Dispatcher:        registry,
			Assets:            loader,
			Audio:             coordinator,
			Indicator:         indicatorManager,
			PrometheusHandler: exporters.HTTPHandler(),
		})
		go func() {
			if err := apiServer.Start(opts.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", "error", err)
			}
		}()
	}

	go notifier.Watchdog(ctx)
	notifier.Ready()
	logger.Info("Service started", "pixels", dev.Len(), "default_available", controller.DefaultAvailable())

	<-ctx.Done()

	notifier.Stopping()
	logger.Info("Shutting down")

	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			logger.Warn("Error stopping HTTP server", "error", err)
		}
	}
	sseExporter.Stop()
	wg.Wait()

	if lc.powerOff.Load() {
		powerOff(opts, logger)
	}
	return nil
}

func openStrip(opts *Options, logger *slog.Logger) strip.Device {
	dev, err := strip.New(strip.Options{
		Driver:     opts.StripDriver,
		Pixels:     opts.StripPixels,
		GpioPin:    opts.StripGpioPin,
		Brightness: opts.StripBrightness,
		Gamma:      opts.StripGamma,
	}, logging.GetLogger("strip"))
	if err != nil {
		logger.Error("Failed to open strip, rendering to memory", "driver", opts.StripDriver, "error", err)
		return strip.NewMemory(max(opts.StripPixels, 1))
	}
	return dev
}

func openSink(opts *Options, logger *slog.Logger) audio.Sink {
	audioLogger := logging.GetLogger("audio")
	if !opts.AudioEnabled {
		return audio.NewNoopSink(audioLogger)
	}
	if len(audio.ListPlaybackDevices()) == 0 {
		logger.Warn("No playback device found, sound disabled")
		return audio.NewNoopSink(audioLogger)
	}
	sink, err := audio.NewSpeakerSink(opts.AudioSampleRate)
	if err != nil {
		logger.Warn("Failed to open speaker, sound disabled", "error", err)
		return audio.NewNoopSink(audioLogger)
	}
	return sink
}

func volumeLevel(percent int) float64 {
	return float64(min(max(percent, 0), 100)) / 100
}

func powerOff(opts *Options, logger *slog.Logger) {
	if !opts.PowerOffOnShutdown {
		logger.Info("Power off disabled, exiting only")
		return
	}
	mgr, err := systemd.NewManager()
	if err != nil {
		logger.Error("Failed to power off", "error", err)
		return
	}
	defer mgr.Close()
	logger.Info("Powering off")
	mgr.PowerOff()
}

package indicator

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Driver names.
const (
	DriverAuto  = "auto"
	DriverGPIO  = "gpio"
	DriverSysfs = "sysfs"
	DriverNone  = "none"
)

// Options configures the indicator driver.
type Options struct {
	Driver    string
	Chip      string
	Line      int
	SysfsName string
}

// New creates the configured controller. The auto driver picks the
// board's activity LED when the board is recognised and falls back to a
// no-op controller otherwise.
func New(opts Options, logger *slog.Logger) (Controller, error) {
	switch strings.ToLower(opts.Driver) {
	case DriverGPIO:
		logger.Info("Using GPIO indicator", "chip", opts.Chip, "line", opts.Line)
		return newGPIO(opts.Chip, opts.Line)
	case DriverSysfs:
		logger.Info("Using sysfs indicator", "led", opts.SysfsName)
		return newSysfs(sysfsLEDPath, opts.SysfsName)
	case DriverNone:
		return newNoop(logger), nil
	case DriverAuto, "":
		return detect(detectBoard(), opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown indicator driver %q", opts.Driver)
	}
}

// boardLEDs maps device tree model substrings to their activity LED.
var boardLEDs = []struct {
	model string
	led   string
}{
	{"Raspberry Pi", "ACT"},
	{"NanoPC-T6", "usr_led"},
	{"Orange Pi", "green_led"},
}

func detect(boardModel string, opts Options, logger *slog.Logger) Controller {
	logger.Info("Detecting board for indicator", "board_model", boardModel)

	for _, b := range boardLEDs {
		if !strings.Contains(boardModel, b.model) {
			continue
		}
		name := b.led
		if opts.SysfsName != "" {
			name = opts.SysfsName
		}
		ctrl, err := newSysfs(sysfsLEDPath, name)
		if err != nil {
			logger.Warn("Board LED unavailable, using no-op indicator", "led", name, "error", err)
			return newNoop(logger)
		}
		logger.Info("Using board LED as indicator", "board", b.model, "led", name)
		return ctrl
	}

	logger.Info("No indicator support detected, using no-op controller", "board_model", boardModel)
	return newNoop(logger)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}

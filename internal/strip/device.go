// Package strip drives the addressable LED strip. A Device holds a pending
// pixel buffer that Write fills and Flush pushes to the hardware.
package strip

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smazurov/canister/internal/animation"
)

// ErrCodeDeviceIO marks a failed write to the physical strip.
const ErrCodeDeviceIO = "DEVICE_IO"

// Error is returned by drivers when the hardware rejects an operation.
type Error struct {
	Code    string
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Code, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func deviceIO(op, message string, cause error) *Error {
	return &Error{Code: ErrCodeDeviceIO, Op: op, Message: message, Cause: cause}
}

// IsDeviceIO reports whether err is a DEVICE_IO error.
func IsDeviceIO(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDeviceIO
}

// Device is an LED strip with a fixed pixel count.
type Device interface {
	// Len returns the pixel count.
	Len() int
	// Write copies frame into the pending buffer. It does not touch the hardware.
	Write(frame animation.Frame) error
	// Flush pushes the pending buffer to the strip.
	Flush() error
	// Close blanks the strip and releases the hardware.
	Close() error
}

// Options configures a strip driver.
type Options struct {
	Driver     string
	Pixels     int
	GpioPin    int
	Brightness int
	Gamma      bool
}

// Driver names.
const (
	DriverMemory = "memory"
	DriverWS281x = "ws281x"
)

// New opens the configured driver.
func New(opts Options, logger *slog.Logger) (Device, error) {
	if opts.Pixels <= 0 {
		return nil, fmt.Errorf("pixel count must be positive, got %d", opts.Pixels)
	}
	if opts.Brightness < 0 || opts.Brightness > 255 {
		return nil, fmt.Errorf("brightness must be 0-255, got %d", opts.Brightness)
	}

	switch strings.ToLower(opts.Driver) {
	case DriverMemory, "":
		logger.Info("Using in-memory LED strip", "pixels", opts.Pixels)
		return newMemory(opts.Pixels, newCorrection(opts)), nil
	case DriverWS281x:
		logger.Info("Opening ws281x LED strip",
			"pixels", opts.Pixels,
			"gpio_pin", opts.GpioPin,
			"brightness", opts.Brightness,
			"gamma", opts.Gamma)
		return openWS281x(opts)
	default:
		return nil, fmt.Errorf("unknown strip driver %q", opts.Driver)
	}
}

func checkLen(op string, frame animation.Frame, pixels int) error {
	if len(frame) != pixels {
		return deviceIO(op, fmt.Sprintf("frame has %d pixels, strip has %d", len(frame), pixels), nil)
	}
	return nil
}

//go:build ws281x

package strip

import (
	"sync"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"

	"github.com/smazurov/canister/internal/animation"
)

// ws281x drives a WS2811/WS2812 strip through the rpi_ws281x library.
// Brightness is applied by the library, gamma here.
type ws281x struct {
	mu     sync.Mutex
	dev    *ws2811.WS2811
	corr   correction
	pixels int
}

func openWS281x(opts Options) (Device, error) {
	opt := ws2811.DefaultOptions
	opt.Channels[0].GpioPin = opts.GpioPin
	opt.Channels[0].Brightness = opts.Brightness
	opt.Channels[0].LedCount = opts.Pixels

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, deviceIO("open", "failed to create ws281x device", err)
	}
	if err := dev.Init(); err != nil {
		return nil, deviceIO("open", "failed to initialize ws281x device", err)
	}

	return &ws281x{
		dev:    dev,
		corr:   correction{gamma: opts.Gamma, scale: 255},
		pixels: opts.Pixels,
	}, nil
}

func (w *ws281x) Len() int {
	return w.pixels
}

func (w *ws281x) Write(frame animation.Frame) error {
	if err := checkLen("write", frame, w.pixels); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	leds := w.dev.Leds(0)
	for i, c := range frame {
		leds[i] = w.corr.apply(c).RGB()
	}
	return nil
}

func (w *ws281x) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.dev.Render(); err != nil {
		return deviceIO("flush", "failed to render frame", err)
	}
	return nil
}

func (w *ws281x) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	leds := w.dev.Leds(0)
	for i := range leds {
		leds[i] = 0
	}
	err := w.dev.Render()
	w.dev.Fini()
	if err != nil {
		return deviceIO("close", "failed to blank strip", err)
	}
	return nil
}

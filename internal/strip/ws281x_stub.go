//go:build !ws281x

package strip

import "fmt"

func openWS281x(Options) (Device, error) {
	return nil, fmt.Errorf("ws281x driver not available: rebuild with -tags ws281x")
}

package audio

import (
	"bufio"
	"os"
	"strings"
)

const procPCMPath = "/proc/asound/pcm"

// PlaybackDevice is an ALSA PCM device that can play sound.
type PlaybackDevice struct {
	ID   string // "card-device", e.g. "00-00"
	Name string
}

// ListPlaybackDevices reads the ALSA PCM table and returns the devices
// with a playback stream. It returns nil when ALSA is not present.
func ListPlaybackDevices() []PlaybackDevice {
	f, err := os.Open(procPCMPath)
	if err != nil {
		return nil
	}
	defer f.Close()
	return parsePCM(bufio.NewScanner(f))
}

// parsePCM parses lines such as
// "00-00: bcm2835 Headphones : bcm2835 Headphones : playback 8".
func parsePCM(sc *bufio.Scanner) []PlaybackDevice {
	var devices []PlaybackDevice
	for sc.Scan() {
		fields := strings.Split(sc.Text(), ":")
		if len(fields) < 3 {
			continue
		}
		playback := false
		for _, f := range fields[2:] {
			if strings.HasPrefix(strings.TrimSpace(f), "playback") {
				playback = true
				break
			}
		}
		if !playback {
			continue
		}
		devices = append(devices, PlaybackDevice{
			ID:   strings.TrimSpace(fields[0]),
			Name: strings.TrimSpace(fields[1]),
		})
	}
	return devices
}

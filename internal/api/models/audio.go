package models

// AudioDevice is an ALSA device that can play sound.
type AudioDevice struct {
	ID   string `json:"id" example:"00-00" doc:"ALSA card-device identifier"`
	Name string `json:"name" example:"bcm2835 Headphones" doc:"Device name"`
}

// AudioDevicesData represents the response data for audio device enumeration
type AudioDevicesData struct {
	Devices []AudioDevice `json:"devices" doc:"List of available playback devices"`
	Count   int           `json:"count" example:"1" doc:"Number of devices found"`
}

// AudioDevicesResponse represents the HTTP response for audio device enumeration
type AudioDevicesResponse struct {
	Body AudioDevicesData
}

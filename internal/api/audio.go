package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/canister/internal/api/models"
	"github.com/smazurov/canister/internal/audio"
)

// registerAudioRoutes registers the audio device endpoint.
func (s *Server) registerAudioRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-audio-devices",
		Method:      http.MethodGet,
		Path:        "/api/audio/devices",
		Summary:     "List Audio Devices",
		Description: "List the ALSA devices that can play sound",
		Tags:        []string{"audio"},
	}, func(_ context.Context, _ *struct{}) (*models.AudioDevicesResponse, error) {
		devices := audio.ListPlaybackDevices()

		apiDevices := make([]models.AudioDevice, len(devices))
		for i, device := range devices {
			apiDevices[i] = models.AudioDevice{ID: device.ID, Name: device.Name}
		}

		return &models.AudioDevicesResponse{
			Body: models.AudioDevicesData{
				Devices: apiDevices,
				Count:   len(apiDevices),
			},
		}, nil
	})
}

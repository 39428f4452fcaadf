package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/canister/internal/api/models"
)

func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status",
		Description: "Get the active animation, the audio channel and the indicator",
		Tags:        []string{"status"},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-animations",
		Method:      http.MethodGet,
		Path:        "/api/animations",
		Summary:     "List Animations",
		Description: "List the animation files that can be played",
		Tags:        []string{"assets"},
		Errors:      []int{500},
	}, func(_ context.Context, _ *struct{}) (*models.ListResponse, error) {
		return s.listAssets(s.options.Assets.List)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-sounds",
		Method:      http.MethodGet,
		Path:        "/api/sounds",
		Summary:     "List Sounds",
		Description: "List the sound files that can be played",
		Tags:        []string{"assets"},
		Errors:      []int{500},
	}, func(_ context.Context, _ *struct{}) (*models.ListResponse, error) {
		return s.listAssets(s.options.Assets.Sounds)
	})
}

func (s *Server) status() models.StatusData {
	var data models.StatusData
	if s.options.Playback != nil {
		data.Playback = s.options.Playback.Snapshot()
	}
	if s.options.Audio != nil {
		data.Audio = s.options.Audio.State()
	}
	if s.options.Indicator != nil {
		data.Indicator = s.options.Indicator.State()
	}
	return data
}

func (s *Server) listAssets(list func() ([]string, error)) (*models.ListResponse, error) {
	items, err := list()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list assets", err)
	}
	if items == nil {
		items = []string{}
	}
	return &models.ListResponse{
		Body: models.ListData{Items: items, Count: len(items)},
	}, nil
}

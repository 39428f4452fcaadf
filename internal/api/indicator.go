package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/canister/internal/api/models"
	"github.com/smazurov/canister/internal/indicator"
)

// registerIndicatorRoutes registers the aux indicator endpoints
func (s *Server) registerIndicatorRoutes() {
	if s.options.Indicator == nil {
		s.logger.Debug("Indicator not available, skipping indicator routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-indicator",
		Method:      http.MethodGet,
		Path:        "/api/indicator",
		Summary:     "Get Indicator",
		Description: "Get whether the aux indicator is lit",
		Tags:        []string{"indicator"},
	}, func(_ context.Context, _ *struct{}) (*models.IndicatorResponse, error) {
		return &models.IndicatorResponse{
			Body: models.IndicatorData{On: s.options.Indicator.State()},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-indicator",
		Method:      http.MethodPut,
		Path:        "/api/indicator",
		Summary:     "Set Indicator",
		Description: "Switch the aux indicator on or off",
		Tags:        []string{"indicator"},
		Errors:      []int{500},
	}, func(_ context.Context, input *models.IndicatorRequest) (*models.IndicatorResponse, error) {
		if err := s.options.Indicator.Set(input.Body.On, indicator.SourceCommand); err != nil {
			return nil, huma.Error500InternalServerError("Failed to set indicator", err)
		}
		return &models.IndicatorResponse{
			Body: models.IndicatorData{On: s.options.Indicator.State()},
		}, nil
	})
}

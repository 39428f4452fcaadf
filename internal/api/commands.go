package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/canister/internal/animation"
	"github.com/smazurov/canister/internal/api/models"
	"github.com/smazurov/canister/internal/command"
)

// SourceHTTP tags requests dispatched through the API.
const SourceHTTP = "http"

func (s *Server) registerCommandRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "dispatch-command",
		Method:      http.MethodPost,
		Path:        "/api/commands",
		Summary:     "Dispatch Command",
		Description: "Run one command, the same way the socket link does",
		Tags:        []string{"commands"},
		Errors:      []int{400, 404, 422, 500},
	}, func(ctx context.Context, input *models.CommandRequest) (*models.CommandResponse, error) {
		req := command.Request{Command: input.Body.Command, Source: SourceHTTP}
		for i, arg := range input.Body.Args {
			raw, err := json.Marshal(arg)
			if err != nil {
				return nil, huma.Error400BadRequest("Invalid argument", &huma.ErrorDetail{
					Location: "body.args",
					Value:    i,
					Message:  err.Error(),
				})
			}
			req.Args = append(req.Args, raw)
		}

		result, err := s.options.Dispatcher.Dispatch(ctx, req)
		if err != nil {
			code := command.Code(err)
			return nil, huma.NewError(statusForCode(code), err.Error(), &huma.ErrorDetail{
				Location: "body.command",
				Value:    input.Body.Command,
				Message:  code,
			})
		}
		return &models.CommandResponse{
			Body: models.CommandResultData{OK: true, Result: result},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-commands",
		Method:      http.MethodGet,
		Path:        "/api/commands",
		Summary:     "List Commands",
		Description: "List the registered operations with their call signatures",
		Tags:        []string{"commands"},
	}, func(_ context.Context, _ *struct{}) (*models.OperationsResponse, error) {
		ops := s.options.Dispatcher.Operations()
		infos := make([]models.OperationInfo, 0, len(ops))
		for _, op := range ops {
			infos = append(infos, models.OperationInfo{
				Name:  op.Name,
				Usage: op.Usage(),
				Help:  op.Help,
			})
		}
		return &models.OperationsResponse{
			Body: models.OperationsData{Operations: infos, Count: len(infos)},
		}, nil
	})
}

// statusForCode maps a command error code to an HTTP status.
func statusForCode(code string) int {
	switch code {
	case command.ErrCodeUnknownOperation, animation.ErrCodeAssetNotFound:
		return http.StatusNotFound
	case command.ErrCodeArgumentMismatch, animation.ErrCodeInvalidAsset:
		return http.StatusUnprocessableEntity
	case command.ErrCodeMalformedRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

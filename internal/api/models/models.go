package models

import (
	"github.com/smazurov/canister/internal/audio"
	"github.com/smazurov/canister/internal/playback"
	"github.com/smazurov/canister/internal/version"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// VersionResponse reports the running build.
type VersionResponse struct {
	Body version.Info
}

// Status models
type StatusData struct {
	Playback  playback.Snapshot `json:"playback" doc:"Playback state"`
	Audio     audio.State       `json:"audio" doc:"Audio channel state"`
	Indicator bool              `json:"indicator" doc:"Whether the aux indicator is lit"`
}

type StatusResponse struct {
	Body StatusData
}

// Asset list models
type ListData struct {
	Items []string `json:"items" doc:"Asset names"`
	Count int      `json:"count" example:"3" doc:"Number of assets"`
}

type ListResponse struct {
	Body ListData
}

// Command models
type CommandRequestData struct {
	Command string `json:"command" minLength:"1" example:"playAnimation" doc:"Operation name"`
	Args    []any  `json:"args,omitempty" doc:"Positional arguments"`
}

type CommandRequest struct {
	Body CommandRequestData
}

type CommandResultData struct {
	OK     bool   `json:"ok" doc:"Whether the command succeeded"`
	Result string `json:"result" example:"OK" doc:"Command reply"`
}

type CommandResponse struct {
	Body CommandResultData
}

type OperationInfo struct {
	Name  string `json:"name" example:"playAnimation" doc:"Operation name"`
	Usage string `json:"usage" example:"playAnimation <name:string>" doc:"Call signature"`
	Help  string `json:"help,omitempty" doc:"What the operation does"`
}

type OperationsData struct {
	Operations []OperationInfo `json:"operations" doc:"Registered operations in registration order"`
	Count      int             `json:"count" example:"18" doc:"Number of operations"`
}

type OperationsResponse struct {
	Body OperationsData
}

// Indicator models
type IndicatorRequest struct {
	Body struct {
		On bool `json:"on" example:"true" doc:"Whether the indicator should be lit"`
	}
}

type IndicatorData struct {
	On bool `json:"on" doc:"Whether the indicator is lit"`
}

type IndicatorResponse struct {
	Body IndicatorData
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cuemarkapp/cuemark-server/internal/store"
)

func (s *Server) registerInstanceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getInstance",
		Method:      http.MethodGet,
		Path:        "/api/v1/instance",
		Summary:     "Server identity",
		Description: "Returns the server's name and whether first-boot setup is still required. Public so clients can discover setup state.",
		Tags:        []string{"Instance"},
	}, s.handleGetInstance)
}

// InstanceResponse describes the server to connecting clients.
type InstanceResponse struct {
	ID            string `json:"id,omitempty" doc:"Instance ID"`
	Name          string `json:"name,omitempty" doc:"Server display name"`
	SetupRequired bool   `json:"setup_required" doc:"Whether initial setup has not run yet"`
}

// InstanceOutput wraps the instance response for Huma.
type InstanceOutput struct {
	Body InstanceResponse
}

func (s *Server) handleGetInstance(ctx context.Context, _ *struct{}) (*InstanceOutput, error) {
	inst, err := s.store.GetInstance(ctx)
	if err != nil {
		if store.ErrNotFound.Is(err) {
			return &InstanceOutput{Body: InstanceResponse{SetupRequired: true}}, nil
		}
		return nil, err
	}

	return &InstanceOutput{
		Body: InstanceResponse{
			ID:            inst.ID,
			Name:          inst.Name,
			SetupRequired: !inst.SetupDone,
		},
	}, nil
}

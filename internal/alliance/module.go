package alliance

import (
	"log/slog"

	"statecraft/internal/alliance/services"
	history "statecraft/internal/history/services"
	"statecraft/pkg/database"
	"statecraft/pkg/module"
)

// Module represents the alliance module
type Module struct {
	*module.BaseModule
	service *services.Service
}

// Dependencies are the collaborators of the alliance module
type Dependencies struct {
	MongoDB    *database.MongoDB
	Repository services.Repository
	Transactor database.Transactor
	Authorizer services.Authorizer
	Admins     services.AdminChecker
	States     services.StateDirectory
	Flags      services.FlagStore
	History    history.Log
}

// NewModule creates a new alliance module instance
func NewModule(deps Dependencies) (*Module, error) {
	service, err := services.NewService(deps.Repository, deps.Transactor, deps.Authorizer, deps.Admins, deps.States, deps.Flags, deps.History)
	if err != nil {
		return nil, err
	}

	m := &Module{
		BaseModule: module.NewBaseModule("alliance", deps.MongoDB, nil),
		service:    service,
	}

	slog.Info("Alliance module initialized", "name", m.Name())
	return m, nil
}

// GetService returns the alliance service
func (m *Module) GetService() *services.Service {
	return m.service
}

package wars

import (
	"log/slog"

	history "statecraft/internal/history/services"
	"statecraft/internal/wars/services"
	"statecraft/pkg/database"
	"statecraft/pkg/module"
)

// Module represents the wars module
type Module struct {
	*module.BaseModule
	service *services.Service
}

// Dependencies are the collaborators of the wars module
type Dependencies struct {
	MongoDB    *database.MongoDB
	Repository services.Repository
	Transactor database.Transactor
	Authorizer services.Authorizer
	Admins     services.AdminChecker
	States     services.StateDirectory
	Alliances  services.AllianceReader
	History    history.Log
}

// NewModule creates a new wars module instance
func NewModule(deps Dependencies) (*Module, error) {
	service, err := services.NewService(deps.Repository, deps.Transactor, deps.Authorizer, deps.Admins, deps.States, deps.Alliances, deps.History)
	if err != nil {
		return nil, err
	}

	m := &Module{
		BaseModule: module.NewBaseModule("wars", deps.MongoDB, nil),
		service:    service,
	}

	slog.Info("Wars module initialized", "name", m.Name())
	return m, nil
}

// GetService returns the wars service
func (m *Module) GetService() *services.Service {
	return m.service
}

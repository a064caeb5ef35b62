package relations

import (
	"log/slog"

	history "statecraft/internal/history/services"
	"statecraft/internal/relations/services"
	"statecraft/pkg/database"
	"statecraft/pkg/module"
)

// Module represents the relations module
type Module struct {
	*module.BaseModule
	service *services.Service
}

// NewModule creates a new relations module instance
func NewModule(mongodb *database.MongoDB, repo services.Repository, tx database.Transactor, authz services.Authorizer, admins services.AdminChecker, states services.StateDirectory, log history.Log) *Module {
	m := &Module{
		BaseModule: module.NewBaseModule("relations", mongodb, nil),
		service:    services.NewService(repo, tx, authz, admins, states, log),
	}

	slog.Info("Relations module initialized", "name", m.Name())
	return m
}

// GetService returns the relations service
func (m *Module) GetService() *services.Service {
	return m.service
}

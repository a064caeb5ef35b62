package citizenship

import (
	"log/slog"

	"statecraft/internal/citizenship/services"
	history "statecraft/internal/history/services"
	"statecraft/pkg/database"
	"statecraft/pkg/module"
)

// Module represents the citizenship module
type Module struct {
	*module.BaseModule
	service *services.Service
}

// NewModule creates a new citizenship module instance. mongodb is used for
// health reporting only and may be nil.
func NewModule(mongodb *database.MongoDB, repo services.Repository, tx database.Transactor, states services.StateDirectory, log history.Log) *Module {
	m := &Module{
		BaseModule: module.NewBaseModule("citizenship", mongodb, nil),
		service:    services.NewService(repo, tx, states, log),
	}

	slog.Info("Citizenship module initialized", "name", m.Name())
	return m
}

// GetService returns the citizenship service
func (m *Module) GetService() *services.Service {
	return m.service
}

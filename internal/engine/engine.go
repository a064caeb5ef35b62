// Package engine wires the citizenship, alliance, relations and wars
// modules together over one set of shared collaborators.
package engine

import (
	"context"
	"fmt"

	"statecraft/internal/alliance"
	allianceservices "statecraft/internal/alliance/services"
	"statecraft/internal/citizenship"
	citizenshipservices "statecraft/internal/citizenship/services"
	dirmodels "statecraft/internal/directory/models"
	history "statecraft/internal/history/services"
	"statecraft/internal/relations"
	relationservices "statecraft/internal/relations/services"
	"statecraft/internal/wars"
	warservices "statecraft/internal/wars/services"
	"statecraft/pkg/database"
	"statecraft/pkg/module"
)

// StateDirectory looks states up by id
type StateDirectory interface {
	Get(ctx context.Context, stateID string) (*dirmodels.State, error)
	Exists(ctx context.Context, stateID string) (bool, error)
}

// AdminChecker answers platform-administrator privilege
type AdminChecker interface {
	IsAdmin(ctx context.Context, playerID string) (bool, error)
}

// Dependencies are the collaborators shared by every module
type Dependencies struct {
	// MongoDB and Redis are used for health reporting and may be nil
	MongoDB *database.MongoDB
	Redis   *database.Redis

	Transactor database.Transactor
	Members    citizenshipservices.Repository
	Alliances  allianceservices.Repository
	Relations  relationservices.Repository
	Wars       warservices.Repository

	States  StateDirectory
	History history.Log
	Admins  AdminChecker
	// Flags may be nil; alliances are then created without a flag
	Flags allianceservices.FlagStore
}

// Engine exposes the four domain services
type Engine struct {
	Citizenship *citizenshipservices.Service
	Alliances   *allianceservices.Service
	Relations   *relationservices.Service
	Wars        *warservices.Service

	modules []module.Module
	base    *module.BaseModule
}

// New constructs every module from deps
func New(deps Dependencies) (*Engine, error) {
	if deps.Transactor == nil || deps.States == nil || deps.Admins == nil {
		return nil, fmt.Errorf("engine requires a transactor, a state directory and an admin checker")
	}

	citizenshipModule := citizenship.NewModule(deps.MongoDB, deps.Members, deps.Transactor, deps.States, deps.History)
	roles := citizenshipModule.GetService()

	allianceModule, err := alliance.NewModule(alliance.Dependencies{
		MongoDB:    deps.MongoDB,
		Repository: deps.Alliances,
		Transactor: deps.Transactor,
		Authorizer: roles,
		Admins:     deps.Admins,
		States:     deps.States,
		Flags:      deps.Flags,
		History:    deps.History,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create alliance module: %w", err)
	}

	relationsModule := relations.NewModule(deps.MongoDB, deps.Relations, deps.Transactor, roles, deps.Admins, deps.States, deps.History)

	warsModule, err := wars.NewModule(wars.Dependencies{
		MongoDB:    deps.MongoDB,
		Repository: deps.Wars,
		Transactor: deps.Transactor,
		Authorizer: roles,
		Admins:     deps.Admins,
		States:     deps.States,
		Alliances:  allianceModule.GetService(),
		History:    deps.History,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create wars module: %w", err)
	}

	return &Engine{
		Citizenship: roles,
		Alliances:   allianceModule.GetService(),
		Relations:   relationsModule.GetService(),
		Wars:        warsModule.GetService(),
		modules:     []module.Module{citizenshipModule, allianceModule, relationsModule, warsModule},
		base:        module.NewBaseModule("engine", deps.MongoDB, deps.Redis),
	}, nil
}

// Modules returns the constructed modules in dependency order
func (e *Engine) Modules() []module.Module {
	return e.modules
}

// Health reports the shared stores first, then each module
func (e *Engine) Health(ctx context.Context) []module.HealthStatus {
	statuses := []module.HealthStatus{e.base.Health(ctx)}
	for _, m := range e.modules {
		statuses = append(statuses, m.Health(ctx))
	}
	return statuses
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	mongodbadapter "github.com/casbin/mongodb-adapter/v3"
	"go.mongodb.org/mongo-driver/mongo"
)

// adminModel is a plain RBAC model: players inherit the platform_admin
// role, which is granted the single administer action on the platform.
const adminModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

const (
	AdminRole      = "platform_admin"
	platformObject = "platform"
	administerAct  = "administer"
)

// Service answers platform-admin checks and manages the admin role
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewMongoService creates a service whose policies persist in MongoDB
func NewMongoService(client *mongo.Client, dbName, collection string) (*Service, error) {
	adapter, err := mongodbadapter.NewAdapterByDB(client, &mongodbadapter.AdapterConfig{
		DatabaseName:   dbName,
		CollectionName: collection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin MongoDB adapter: %w", err)
	}

	svc, err := newService(adapter)
	if err != nil {
		return nil, err
	}
	svc.enforcer.EnableAutoSave(true)
	if err := svc.enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load Casbin policies: %w", err)
	}
	if err := svc.ensureAdminPolicy(); err != nil {
		return nil, err
	}

	slog.Info("Platform admin enforcer initialized", "adapter", "mongodb", "collection", collection)
	return svc, nil
}

// NewMemoryService creates a service with policies held in memory only
func NewMemoryService() (*Service, error) {
	svc, err := newService(nil)
	if err != nil {
		return nil, err
	}
	if err := svc.ensureAdminPolicy(); err != nil {
		return nil, err
	}
	return svc, nil
}

func newService(adapter persist.Adapter) (*Service, error) {
	m, err := model.NewModelFromString(adminModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if adapter != nil {
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ensureAdminPolicy() error {
	if _, err := s.enforcer.AddPolicy(AdminRole, platformObject, administerAct); err != nil {
		return fmt.Errorf("failed to seed admin policy: %w", err)
	}
	return nil
}

func playerSubject(playerID string) string {
	return "player:" + strings.ToLower(playerID)
}

// IsAdmin reports whether the player holds platform-admin privilege
func (s *Service) IsAdmin(ctx context.Context, playerID string) (bool, error) {
	if playerID == "" {
		return false, nil
	}
	allowed, err := s.enforcer.Enforce(playerSubject(playerID), platformObject, administerAct)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate admin policy: %w", err)
	}
	return allowed, nil
}

// Grant gives the player platform-admin privilege
func (s *Service) Grant(ctx context.Context, playerID string) error {
	added, err := s.enforcer.AddRoleForUser(playerSubject(playerID), AdminRole)
	if err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}
	slog.InfoContext(ctx, "Granted platform admin", "player_id", playerID, "changed", added)
	return nil
}

// Revoke removes platform-admin privilege from the player
func (s *Service) Revoke(ctx context.Context, playerID string) error {
	removed, err := s.enforcer.DeleteRoleForUser(playerSubject(playerID), AdminRole)
	if err != nil {
		return fmt.Errorf("failed to revoke admin role: %w", err)
	}
	slog.InfoContext(ctx, "Revoked platform admin", "player_id", playerID, "changed", removed)
	return nil
}

// Admins lists the subjects currently holding the admin role
func (s *Service) Admins() ([]string, error) {
	subjects, err := s.enforcer.GetUsersForRole(AdminRole)
	if err != nil {
		return nil, err
	}
	players := make([]string, 0, len(subjects))
	for _, sub := range subjects {
		players = append(players, strings.TrimPrefix(sub, "player:"))
	}
	return players, nil
}

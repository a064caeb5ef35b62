package module

import (
	"context"
	"log/slog"

	"statecraft/pkg/database"
)

// HealthStatus represents module health status
type HealthStatus struct {
	Module  string `json:"module"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Status represents health status values
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Module defines the interface that all engine modules implement
type Module interface {
	// Name returns the module name for logging and identification
	Name() string

	// Health reports whether the module's backing stores answer
	Health(ctx context.Context) HealthStatus
}

// BaseModule provides common functionality for all modules
type BaseModule struct {
	name    string
	mongodb *database.MongoDB
	redis   *database.Redis
}

// NewBaseModule creates a new base module with common dependencies. Either
// connection may be nil when the module runs without it.
func NewBaseModule(name string, mongodb *database.MongoDB, redis *database.Redis) *BaseModule {
	return &BaseModule{
		name:    name,
		mongodb: mongodb,
		redis:   redis,
	}
}

// Name returns the module name
func (b *BaseModule) Name() string {
	return b.name
}

// MongoDB returns the MongoDB connection
func (b *BaseModule) MongoDB() *database.MongoDB {
	return b.mongodb
}

// Redis returns the Redis connection
func (b *BaseModule) Redis() *database.Redis {
	return b.redis
}

// Health pings MongoDB (required) and Redis (optional). A Redis failure
// degrades the module; a MongoDB failure makes it unhealthy.
func (b *BaseModule) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{Module: b.name, Status: StatusHealthy}

	if b.mongodb != nil {
		if err := b.mongodb.HealthCheck(ctx); err != nil {
			slog.WarnContext(ctx, "MongoDB health check failed", "module", b.name, "error", err)
			status.Status = StatusUnhealthy
			status.Message = "mongodb: " + err.Error()
			return status
		}
	}
	if b.redis != nil {
		if err := b.redis.HealthCheck(ctx); err != nil {
			slog.WarnContext(ctx, "Redis health check failed", "module", b.name, "error", err)
			status.Status = StatusDegraded
			status.Message = "redis: " + err.Error()
		}
	}
	return status
}

package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	adminauth "statecraft/internal/adminauth/services"
	"statecraft/internal/engine"
	history "statecraft/internal/history/services"
	"statecraft/pkg/config"
	"statecraft/pkg/database"
	"statecraft/pkg/logging"

	"github.com/joho/godotenv"
)

// AppContext holds the shared application context and dependencies
type AppContext struct {
	Config           *config.Config
	MongoDB          *database.MongoDB
	Redis            *database.Redis
	History          history.Log
	Admins           *adminauth.Service
	Engine           *engine.Engine
	TelemetryManager *logging.TelemetryManager
	ServiceName      string
	shutdownFuncs    []func(context.Context) error
}

// InitializeApp initializes common application dependencies
func InitializeApp(ctx context.Context, serviceName string) (*AppContext, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it: %v", err)
	}

	cfg := config.Load(serviceName)
	appCtx := &AppContext{Config: cfg, ServiceName: cfg.ServiceName}

	// Initialize telemetry
	telemetryManager := logging.NewTelemetryManager(cfg)
	if err := telemetryManager.Initialize(ctx); err != nil {
		log.Printf("Warning: Failed to initialize telemetry: %v", err)
		// Continue without telemetry rather than failing
	}
	appCtx.TelemetryManager = telemetryManager
	appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, telemetryManager.Shutdown)

	// MongoDB holds every engine table, so it is mandatory
	mongodb, err := database.NewMongoDB(ctx, cfg)
	if err != nil {
		appCtx.Shutdown(ctx)
		return nil, err
	}
	appCtx.MongoDB = mongodb
	appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, mongodb.Close)

	redis, err := database.NewRedis(ctx, cfg)
	if err != nil {
		slog.Error("Failed to connect to Redis, state lookups will not be cached", "error", err)
	} else {
		appCtx.Redis = redis
		appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, func(ctx context.Context) error {
			return redis.Close()
		})
	}

	historyLog, err := appCtx.openHistory(ctx)
	if err != nil {
		appCtx.Shutdown(ctx)
		return nil, err
	}
	appCtx.History = historyLog

	admins, err := adminauth.NewMongoService(mongodb.Client, cfg.MongoDatabase, cfg.CasbinPolicyCollection)
	if err != nil {
		appCtx.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize admin policies: %w", err)
	}
	appCtx.Admins = admins

	eng, err := engine.New(engine.MongoDependencies(cfg, mongodb, appCtx.Redis, historyLog, admins))
	if err != nil {
		appCtx.Shutdown(ctx)
		return nil, err
	}
	appCtx.Engine = eng

	slog.Info("Application initialized",
		"service", cfg.ServiceName,
		"history_backend", cfg.HistoryBackend,
		"redis", appCtx.Redis != nil)
	return appCtx, nil
}

// openHistory selects the history sink. The MongoDB sink joins the engine's
// transactions; the PostgreSQL sink is an external audit database.
func (a *AppContext) openHistory(ctx context.Context) (history.Log, error) {
	switch a.Config.HistoryBackend {
	case config.HistoryBackendMongo, "":
		return history.NewRepository(a.MongoDB), nil
	case config.HistoryBackendPostgres:
		if a.Config.HistoryDatabaseURL == "" {
			return nil, fmt.Errorf("HISTORY_DATABASE_URL is required for the postgres history backend")
		}
		pg, err := history.NewPostgresLog(ctx, a.Config.HistoryDatabaseURL, 4)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		a.shutdownFuncs = append(a.shutdownFuncs, func(context.Context) error {
			pg.Close()
			return nil
		})
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", a.Config.HistoryBackend)
	}
}

// Shutdown gracefully shuts down all application dependencies in reverse
// order of initialization
func (a *AppContext) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application", "service", a.ServiceName)

	for i := len(a.shutdownFuncs) - 1; i >= 0; i-- {
		if err := a.shutdownFuncs[i](ctx); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}
	a.shutdownFuncs = nil

	slog.Info("Application shutdown completed", "service", a.ServiceName)
	return nil
}

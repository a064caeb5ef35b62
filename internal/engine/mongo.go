package engine

import (
	allianceservices "statecraft/internal/alliance/services"
	citizenshipservices "statecraft/internal/citizenship/services"
	directoryservices "statecraft/internal/directory/services"
	flagservices "statecraft/internal/flagstore/services"
	history "statecraft/internal/history/services"
	relationservices "statecraft/internal/relations/services"
	warservices "statecraft/internal/wars/services"
	"statecraft/pkg/config"
	"statecraft/pkg/database"
)

// MongoDependencies builds Dependencies backed by MongoDB. redis may be nil,
// in which case state lookups are not cached.
func MongoDependencies(cfg *config.Config, mongodb *database.MongoDB, redis *database.Redis, log history.Log, admins AdminChecker) Dependencies {
	var cache directoryservices.Cache
	if redis != nil {
		cache = directoryservices.NewRedisCache(redis, cfg.StateCacheTTL)
	}

	return Dependencies{
		MongoDB:    mongodb,
		Redis:      redis,
		Transactor: mongodb,
		Members:    citizenshipservices.NewRepository(mongodb),
		Alliances:  allianceservices.NewRepository(mongodb),
		Relations:  relationservices.NewRepository(mongodb),
		Wars:       warservices.NewRepository(mongodb),
		States:     directoryservices.NewService(directoryservices.NewRepository(mongodb), cache),
		History:    log,
		Admins:     admins,
		Flags:      flagservices.NewLocalStore(cfg.FlagStorageDir),
	}
}

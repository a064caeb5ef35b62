package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	Register(Migration{
		Version:     "009_create_war_battles_indexes",
		Description: "Create indexes for war battles",
		Up:          up009,
		Down:        down009,
	})
}

func up009(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "war_battles", []mongo.IndexModel{
		{Keys: bson.D{{Key: "war_id", Value: 1}, {Key: "start_date", Value: 1}}},
		{Keys: bson.D{{Key: "creator_state_id", Value: 1}}},
	})
}

func down009(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, "war_battles")
}

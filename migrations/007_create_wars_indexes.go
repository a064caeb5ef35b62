package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	Register(Migration{
		Version:     "007_create_wars_indexes",
		Description: "Create indexes for wars",
		Up:          up007,
		Down:        down007,
	})
}

func up007(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "wars", []mongo.IndexModel{
		{Keys: bson.D{{Key: "attacker_state_id", Value: 1}, {Key: "defender_state_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduled_for", Value: 1}}},
		{Keys: bson.D{{Key: "created", Value: -1}}},
	})
}

func down007(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, "wars")
}

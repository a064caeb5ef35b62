package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	Register(Migration{
		Version:     "001_create_states_indexes",
		Description: "Create lookup indexes for the states directory",
		Up:          up001,
		Down:        down001,
	})
}

func up001(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "states", []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "ruler_id", Value: 1}}},
	})
}

func down001(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, "states")
}

package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "005_create_state_relations_indexes",
		Description: "Create indexes for state relations",
		Up:          up005,
		Down:        down005,
	})
}

func up005(ctx context.Context, db *mongo.Database) error {
	// Pairs are stored canonically (state_a < state_b)
	return createIndexes(ctx, db, "state_relations", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state_a", Value: 1}, {Key: "state_b", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "state_b", Value: 1}}},
	})
}

func down005(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, "state_relations")
}

package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "002_create_state_members_indexes",
		Description: "Create indexes for state memberships",
		Up:          up002,
		Down:        down002,
	})
}

func up002(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "state_members", []mongo.IndexModel{
		// one row per (state, player)
		{
			Keys:    bson.D{{Key: "state_id", Value: 1}, {Key: "player_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "player_id", Value: 1}}},
		{Keys: bson.D{{Key: "state_id", Value: 1}, {Key: "role", Value: 1}}},
	})
}

func down002(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, "state_members")
}

package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "008_create_war_participants_indexes",
		Description: "Create indexes for war participants, one row per state and war",
		Up:          up008,
		Down:        down008,
	})
}

func up008(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "war_participants", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "war_id", Value: 1}, {Key: "state_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "state_id", Value: 1}}},
	})
}

func down008(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, "war_participants")
}

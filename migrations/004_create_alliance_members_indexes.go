package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "004_create_alliance_members_indexes",
		Description: "Create indexes for alliance membership rows",
		Up:          up004,
		Down:        down004,
	})
}

func up004(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "alliance_members", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "alliance_id", Value: 1}, {Key: "state_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "alliance_id", Value: 1}, {Key: "is_pending", Value: 1}}},
		{Keys: bson.D{{Key: "state_id", Value: 1}, {Key: "is_pending", Value: 1}}},
	})
}

func down004(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, "alliance_members")
}

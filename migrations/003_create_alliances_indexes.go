package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "003_create_alliances_indexes",
		Description: "Create case-insensitive unique name index for alliances",
		Up:          up003,
		Down:        down003,
	})
}

func up003(ctx context.Context, db *mongo.Database) error {
	// Must match the collation the alliance repository queries with
	collation := &options.Collation{Locale: "en", Strength: 2}

	return createIndexes(ctx, db, "alliances", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(collation),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetCollation(collation),
		},
		{Keys: bson.D{{Key: "creator_state_id", Value: 1}}},
	})
}

func down003(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, "alliances")
}

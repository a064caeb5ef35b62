package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "006_create_state_relation_requests_indexes",
		Description: "Create indexes for relation requests, one pending request per pair",
		Up:          up006,
		Down:        down006,
	})
}

func up006(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "state_relation_requests", []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "state_a", Value: 1}, {Key: "state_b", Value: 1}},
			Options: options.Index().
				SetName("one_pending_per_pair").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "PENDING"}),
		},
		{Keys: bson.D{{Key: "state_a", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "state_b", Value: 1}, {Key: "status", Value: 1}}},
	})
}

func down006(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, "state_relation_requests")
}

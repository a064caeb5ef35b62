package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	Register(Migration{
		Version:     "010_create_history_events_indexes",
		Description: "Create indexes for the history event log",
		Up:          up010,
		Down:        down010,
	})
}

func up010(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "history_events", []mongo.IndexModel{
		{Keys: bson.D{{Key: "related_state_ids", Value: 1}, {Key: "created", Value: -1}}},
		{Keys: bson.D{{Key: "related_war_id", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "created", Value: -1}}},
	})
}

func down010(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, "history_events")
}

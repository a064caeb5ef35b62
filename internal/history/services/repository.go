package services

import (
	"context"
	"fmt"

	"statecraft/internal/history/models"
	"statecraft/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores history events in MongoDB. Appends made with a session
// context are part of the caller's transaction.
type Repository struct {
	collection *mongo.Collection
}

// NewRepository creates a new history repository
func NewRepository(mongodb *database.MongoDB) *Repository {
	return &Repository{
		collection: mongodb.Database.Collection(models.EventCollection),
	}
}

// Append inserts one event.
func (r *Repository) Append(ctx context.Context, event models.Event) error {
	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert history event: %w", err)
	}
	return nil
}

// ListForState returns the most recent events mentioning stateID, newest first.
func (r *Repository) ListForState(ctx context.Context, stateID string, limit int64) ([]models.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"related_state_ids": stateID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

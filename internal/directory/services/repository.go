package services

import (
	"context"

	"statecraft/internal/directory/models"
	"statecraft/pkg/apperrors"
	"statecraft/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repository reads states from MongoDB
type Repository struct {
	collection *mongo.Collection
}

// NewRepository creates a new state repository
func NewRepository(mongodb *database.MongoDB) *Repository {
	return &Repository{
		collection: mongodb.Database.Collection(models.StateCollection),
	}
}

// GetState retrieves a state by its identifier
func (r *Repository) GetState(ctx context.Context, stateID string) (*models.State, error) {
	var state models.State
	err := r.collection.FindOne(ctx, bson.M{"_id": stateID}).Decode(&state)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.With(apperrors.ErrStateNotFound, "state %s not found", stateID)
		}
		return nil, err
	}
	return &state, nil
}

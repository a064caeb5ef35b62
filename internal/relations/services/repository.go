package services

import (
	"context"

	"statecraft/internal/relations/models"
	"statecraft/pkg/apperrors"
	"statecraft/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository is the persistence contract for relations and relation
// requests. Pair arguments are always canonical.
type Repository interface {
	GetRelation(ctx context.Context, stateA, stateB string) (*models.Relation, error)
	UpsertRelation(ctx context.Context, relation *models.Relation) error
	DeleteRelation(ctx context.Context, stateA, stateB string) error
	ListRelationsForState(ctx context.Context, stateID string) ([]models.Relation, error)

	GetRequest(ctx context.Context, requestID string) (*models.Request, error)
	FindPendingRequest(ctx context.Context, stateA, stateB string) (*models.Request, error)
	InsertRequest(ctx context.Context, request *models.Request) error
	ResolveRequest(ctx context.Context, requestID string, status models.RequestStatus, reviewerID string, updated int64) error
	DeleteOtherRequests(ctx context.Context, stateA, stateB, keepID string, statuses ...models.RequestStatus) (int64, error)
	ListPendingRequestsForState(ctx context.Context, stateID string) ([]models.Request, error)
}

// MongoRepository handles database operations for relations
type MongoRepository struct {
	relations *mongo.Collection
	requests  *mongo.Collection
}

// NewRepository creates a new relation repository
func NewRepository(mongodb *database.MongoDB) *MongoRepository {
	return &MongoRepository{
		relations: mongodb.Database.Collection(models.RelationCollection),
		requests:  mongodb.Database.Collection(models.RequestCollection),
	}
}

// GetRelation returns the live relation of the pair or nil
func (r *MongoRepository) GetRelation(ctx context.Context, stateA, stateB string) (*models.Relation, error) {
	var relation models.Relation
	err := r.relations.FindOne(ctx, bson.M{"state_a": stateA, "state_b": stateB}).Decode(&relation)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &relation, nil
}

// UpsertRelation writes the relation keyed by its pair. The stored UUID and
// created time of an existing row are kept.
func (r *MongoRepository) UpsertRelation(ctx context.Context, relation *models.Relation) error {
	filter := bson.M{"state_a": relation.StateA, "state_b": relation.StateB}
	update := bson.M{
		"$set": bson.M{"kind": relation.Kind, "updated": relation.Updated},
		"$setOnInsert": bson.M{
			"_id":     relation.UUID,
			"created": relation.Created,
		},
	}
	_, err := r.relations.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return database.MapWriteError(err, nil)
}

// DeleteRelation drops the pair's relation; a missing row is not an error
func (r *MongoRepository) DeleteRelation(ctx context.Context, stateA, stateB string) error {
	_, err := r.relations.DeleteOne(ctx, bson.M{"state_a": stateA, "state_b": stateB})
	return err
}

// ListRelationsForState returns every relation the state is part of
func (r *MongoRepository) ListRelationsForState(ctx context.Context, stateID string) ([]models.Relation, error) {
	filter := bson.M{"$or": bson.A{bson.M{"state_a": stateID}, bson.M{"state_b": stateID}}}
	cursor, err := r.relations.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updated", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	relations := []models.Relation{}
	if err := cursor.All(ctx, &relations); err != nil {
		return nil, err
	}
	return relations, nil
}

// GetRequest retrieves a request by UUID
func (r *MongoRepository) GetRequest(ctx context.Context, requestID string) (*models.Request, error) {
	var request models.Request
	err := r.requests.FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.With(apperrors.ErrRequestNotFound, "relation request %s not found", requestID)
		}
		return nil, err
	}
	return &request, nil
}

// FindPendingRequest returns the pair's PENDING request or nil
func (r *MongoRepository) FindPendingRequest(ctx context.Context, stateA, stateB string) (*models.Request, error) {
	var request models.Request
	filter := bson.M{"state_a": stateA, "state_b": stateB, "status": models.RequestPending}
	err := r.requests.FindOne(ctx, filter).Decode(&request)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// InsertRequest inserts a request; the partial unique index on PENDING
// pairs turns a concurrent duplicate into apperrors.ErrAlreadyRequested
func (r *MongoRepository) InsertRequest(ctx context.Context, request *models.Request) error {
	_, err := r.requests.InsertOne(ctx, request)
	return database.MapWriteError(err, apperrors.ErrAlreadyRequested)
}

// ResolveRequest moves a PENDING request to status
func (r *MongoRepository) ResolveRequest(ctx context.Context, requestID string, status models.RequestStatus, reviewerID string, updated int64) error {
	result, err := r.requests.UpdateOne(ctx,
		bson.M{"_id": requestID, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": status, "reviewer_player_id": reviewerID, "updated": updated}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNoRowsAffected
	}
	return nil
}

// DeleteOtherRequests removes the pair's requests in the given statuses,
// except keepID
func (r *MongoRepository) DeleteOtherRequests(ctx context.Context, stateA, stateB, keepID string, statuses ...models.RequestStatus) (int64, error) {
	filter := bson.M{
		"state_a": stateA,
		"state_b": stateB,
		"_id":     bson.M{"$ne": keepID},
		"status":  bson.M{"$in": statuses},
	}
	result, err := r.requests.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// ListPendingRequestsForState returns PENDING requests on either side of
// the state, oldest first
func (r *MongoRepository) ListPendingRequestsForState(ctx context.Context, stateID string) ([]models.Request, error) {
	filter := bson.M{
		"status": models.RequestPending,
		"$or":    bson.A{bson.M{"state_a": stateID}, bson.M{"state_b": stateID}},
	}
	cursor, err := r.requests.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []models.Request{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

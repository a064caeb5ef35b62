package services

import (
	"context"

	"statecraft/internal/citizenship/models"
	"statecraft/internal/roles"
	"statecraft/pkg/apperrors"
	"statecraft/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository is the persistence contract for state memberships
type Repository interface {
	GetMember(ctx context.Context, stateID, playerID string) (*models.Member, error)
	FindRuler(ctx context.Context, stateID string) (*models.Member, error)
	ListMembers(ctx context.Context, stateID string) ([]models.Member, error)
	ListMembershipsForPlayer(ctx context.Context, playerID string) ([]models.Member, error)
	CountNonApplicants(ctx context.Context, stateID string) (int64, error)
	InsertMember(ctx context.Context, member *models.Member) error
	UpdateMemberRole(ctx context.Context, stateID, playerID string, role roles.Role, updated int64) error
	DeleteMember(ctx context.Context, stateID, playerID string) error
}

// MongoRepository handles database operations for state memberships
type MongoRepository struct {
	collection *mongo.Collection
}

// NewRepository creates a new membership repository
func NewRepository(mongodb *database.MongoDB) *MongoRepository {
	return &MongoRepository{
		collection: mongodb.Database.Collection(models.MemberCollection),
	}
}

// GetMember returns the membership row or apperrors.ErrNotMember
func (r *MongoRepository) GetMember(ctx context.Context, stateID, playerID string) (*models.Member, error) {
	var member models.Member
	err := r.collection.FindOne(ctx, bson.M{"state_id": stateID, "player_id": playerID}).Decode(&member)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.ErrNotMember
		}
		return nil, err
	}
	return &member, nil
}

// FindRuler returns the state's RULER row, or nil when the state has none
func (r *MongoRepository) FindRuler(ctx context.Context, stateID string) (*models.Member, error) {
	var member models.Member
	err := r.collection.FindOne(ctx, bson.M{"state_id": stateID, "role": roles.Ruler}).Decode(&member)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// ListMembers returns every membership row of a state, oldest first
func (r *MongoRepository) ListMembers(ctx context.Context, stateID string) ([]models.Member, error) {
	return r.find(ctx, bson.M{"state_id": stateID})
}

// ListMembershipsForPlayer returns every membership row held by a player
func (r *MongoRepository) ListMembershipsForPlayer(ctx context.Context, playerID string) ([]models.Member, error) {
	return r.find(ctx, bson.M{"player_id": playerID})
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	members := []models.Member{}
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// CountNonApplicants counts confirmed members of a state
func (r *MongoRepository) CountNonApplicants(ctx context.Context, stateID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"state_id": stateID,
		"role":     bson.M{"$ne": roles.Applicant},
	})
}

// InsertMember inserts a membership row; the (state, player) unique index
// turns a concurrent duplicate into apperrors.ErrAlreadyMember
func (r *MongoRepository) InsertMember(ctx context.Context, member *models.Member) error {
	_, err := r.collection.InsertOne(ctx, member)
	return database.MapWriteError(err, apperrors.ErrAlreadyMember)
}

// UpdateMemberRole sets the role of an existing row
func (r *MongoRepository) UpdateMemberRole(ctx context.Context, stateID, playerID string, role roles.Role, updated int64) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"state_id": stateID, "player_id": playerID},
		bson.M{"$set": bson.M{"role": role, "updated": updated}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNoRowsAffected
	}
	return nil
}

// DeleteMember removes a membership row
func (r *MongoRepository) DeleteMember(ctx context.Context, stateID, playerID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"state_id": stateID, "player_id": playerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrNoRowsAffected
	}
	return nil
}

package services

import (
	"context"

	"statecraft/internal/alliance/models"
	"statecraft/pkg/apperrors"
	"statecraft/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository is the persistence contract for alliances and their members
type Repository interface {
	GetAlliance(ctx context.Context, allianceID string) (*models.Alliance, error)
	FindAllianceByName(ctx context.Context, name string) (*models.Alliance, error)
	InsertAlliance(ctx context.Context, alliance *models.Alliance) error
	MarkDissolved(ctx context.Context, allianceID string, at int64) error
	ListActiveAlliances(ctx context.Context, skip, limit int64) ([]models.Alliance, int64, error)

	GetMember(ctx context.Context, allianceID, stateID string) (*models.Member, error)
	InsertMember(ctx context.Context, member *models.Member) error
	ConfirmMember(ctx context.Context, allianceID, stateID string, updated int64) error
	DeleteMember(ctx context.Context, allianceID, stateID string) error
	DeleteAllMembers(ctx context.Context, allianceID string) (int64, error)
	ListMembers(ctx context.Context, allianceID string, pending bool) ([]models.Member, error)
	CountConfirmed(ctx context.Context, allianceID string) (int64, error)
	ListStateMemberships(ctx context.Context, stateID string) ([]models.Member, error)
}

// nameCollation compares names case-insensitively; it must match the
// collation of the unique name index
var nameCollation = &options.Collation{Locale: "en", Strength: 2}

// MongoRepository handles database operations for alliances
type MongoRepository struct {
	alliances *mongo.Collection
	members   *mongo.Collection
}

// NewRepository creates a new alliance repository
func NewRepository(mongodb *database.MongoDB) *MongoRepository {
	return &MongoRepository{
		alliances: mongodb.Database.Collection(models.AllianceCollection),
		members:   mongodb.Database.Collection(models.MemberCollection),
	}
}

// GetAlliance retrieves an alliance by its UUID
func (r *MongoRepository) GetAlliance(ctx context.Context, allianceID string) (*models.Alliance, error) {
	var alliance models.Alliance
	err := r.alliances.FindOne(ctx, bson.M{"_id": allianceID}).Decode(&alliance)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.With(apperrors.ErrAllianceNotFound, "alliance %s not found", allianceID)
		}
		return nil, err
	}
	return &alliance, nil
}

// FindAllianceByName looks an alliance up by case-insensitive name,
// returning nil when none exists. Dissolved alliances keep their name.
func (r *MongoRepository) FindAllianceByName(ctx context.Context, name string) (*models.Alliance, error) {
	var alliance models.Alliance
	opts := options.FindOne().SetCollation(nameCollation)
	err := r.alliances.FindOne(ctx, bson.M{"name": name}, opts).Decode(&alliance)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &alliance, nil
}

// InsertAlliance creates a new alliance record
func (r *MongoRepository) InsertAlliance(ctx context.Context, alliance *models.Alliance) error {
	_, err := r.alliances.InsertOne(ctx, alliance)
	return database.MapWriteError(err, apperrors.ErrAllianceNameTaken)
}

// MarkDissolved moves an ACTIVE alliance to DISSOLVED
func (r *MongoRepository) MarkDissolved(ctx context.Context, allianceID string, at int64) error {
	result, err := r.alliances.UpdateOne(ctx,
		bson.M{"_id": allianceID, "status": models.StatusActive},
		bson.M{"$set": bson.M{"status": models.StatusDissolved, "dissolved": at, "updated": at}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNoRowsAffected
	}
	return nil
}

// ListActiveAlliances returns one page of ACTIVE alliances ordered by name
// together with the total number of ACTIVE alliances
func (r *MongoRepository) ListActiveAlliances(ctx context.Context, skip, limit int64) ([]models.Alliance, int64, error) {
	filter := bson.M{"status": models.StatusActive}

	total, err := r.alliances.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetCollation(nameCollation).
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := r.alliances.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	alliances := []models.Alliance{}
	if err := cursor.All(ctx, &alliances); err != nil {
		return nil, 0, err
	}
	return alliances, total, nil
}

// GetMember returns the (alliance, state) row, pending or confirmed
func (r *MongoRepository) GetMember(ctx context.Context, allianceID, stateID string) (*models.Member, error) {
	var member models.Member
	err := r.members.FindOne(ctx, bson.M{"alliance_id": allianceID, "state_id": stateID}).Decode(&member)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.With(apperrors.ErrAllianceMemberNotFound, "state %s has no row in alliance %s", stateID, allianceID)
		}
		return nil, err
	}
	return &member, nil
}

// InsertMember inserts a membership row
func (r *MongoRepository) InsertMember(ctx context.Context, member *models.Member) error {
	_, err := r.members.InsertOne(ctx, member)
	return database.MapWriteError(err, apperrors.ErrAlreadyAllianceMember)
}

// ConfirmMember flips a pending row to confirmed
func (r *MongoRepository) ConfirmMember(ctx context.Context, allianceID, stateID string, updated int64) error {
	result, err := r.members.UpdateOne(ctx,
		bson.M{"alliance_id": allianceID, "state_id": stateID, "is_pending": true},
		bson.M{"$set": bson.M{"is_pending": false, "updated": updated}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNoRowsAffected
	}
	return nil
}

// DeleteMember removes a single membership row
func (r *MongoRepository) DeleteMember(ctx context.Context, allianceID, stateID string) error {
	result, err := r.members.DeleteOne(ctx, bson.M{"alliance_id": allianceID, "state_id": stateID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrNoRowsAffected
	}
	return nil
}

// DeleteAllMembers removes every row of an alliance, pending included
func (r *MongoRepository) DeleteAllMembers(ctx context.Context, allianceID string) (int64, error) {
	result, err := r.members.DeleteMany(ctx, bson.M{"alliance_id": allianceID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// ListMembers returns the alliance's pending or confirmed rows, oldest first
func (r *MongoRepository) ListMembers(ctx context.Context, allianceID string, pending bool) ([]models.Member, error) {
	return r.findMembers(ctx, bson.M{"alliance_id": allianceID, "is_pending": pending})
}

// CountConfirmed counts the alliance's confirmed members
func (r *MongoRepository) CountConfirmed(ctx context.Context, allianceID string) (int64, error) {
	return r.members.CountDocuments(ctx, bson.M{"alliance_id": allianceID, "is_pending": false})
}

// ListStateMemberships returns the confirmed rows held by a state
func (r *MongoRepository) ListStateMemberships(ctx context.Context, stateID string) ([]models.Member, error) {
	return r.findMembers(ctx, bson.M{"state_id": stateID, "is_pending": false})
}

func (r *MongoRepository) findMembers(ctx context.Context, filter bson.M) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}})
	cursor, err := r.members.Find(ctx, filter, opts)
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

package services

import (
	"context"

	"statecraft/internal/wars/models"
	"statecraft/pkg/apperrors"
	"statecraft/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatusChange is applied to a war when it moves between statuses. Nil
// fields are left untouched.
type StatusChange struct {
	To           models.Status
	Result       *string
	ResultAction *string
	ScheduledFor *int64
	Started      *int64
	Ended        *int64
	Updated      int64
}

// BattleChange is applied to a battle by an administrator
type BattleChange struct {
	Status  models.Status
	Result  *string
	EndDate *int64
	Updated int64
}

// Repository is the persistence contract for wars, participants and battles
type Repository interface {
	GetWar(ctx context.Context, warID string) (*models.War, error)
	InsertWar(ctx context.Context, war *models.War) error
	ChangeWarStatus(ctx context.Context, warID string, from models.Status, change StatusChange) error
	FindActiveWarBetween(ctx context.Context, stateA, stateB string) (*models.War, error)
	ListWarsForState(ctx context.Context, stateID string) ([]models.War, error)
	ListScheduledBefore(ctx context.Context, before int64) ([]models.War, error)

	InsertParticipants(ctx context.Context, participants []models.Participant) error
	GetParticipant(ctx context.Context, warID, stateID string) (*models.Participant, error)
	ListParticipants(ctx context.Context, warID string) ([]models.Participant, error)

	InsertBattle(ctx context.Context, battle *models.Battle) error
	GetBattle(ctx context.Context, battleID string) (*models.Battle, error)
	UpdateBattle(ctx context.Context, battleID string, change BattleChange) error
	ListBattles(ctx context.Context, warID string) ([]models.Battle, error)
}

// MongoRepository handles database operations for wars
type MongoRepository struct {
	wars         *mongo.Collection
	participants *mongo.Collection
	battles      *mongo.Collection
}

// NewRepository creates a new war repository
func NewRepository(mongodb *database.MongoDB) *MongoRepository {
	return &MongoRepository{
		wars:         mongodb.Database.Collection(models.WarCollection),
		participants: mongodb.Database.Collection(models.ParticipantCollection),
		battles:      mongodb.Database.Collection(models.BattleCollection),
	}
}

// GetWar retrieves a war by UUID
func (r *MongoRepository) GetWar(ctx context.Context, warID string) (*models.War, error) {
	var war models.War
	err := r.wars.FindOne(ctx, bson.M{"_id": warID}).Decode(&war)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.With(apperrors.ErrWarNotFound, "war %s not found", warID)
		}
		return nil, err
	}
	return &war, nil
}

// InsertWar creates a new war record
func (r *MongoRepository) InsertWar(ctx context.Context, war *models.War) error {
	_, err := r.wars.InsertOne(ctx, war)
	return database.MapWriteError(err, nil)
}

// ChangeWarStatus applies change only while the war is still in from
func (r *MongoRepository) ChangeWarStatus(ctx context.Context, warID string, from models.Status, change StatusChange) error {
	set := bson.M{"status": change.To, "updated": change.Updated}
	if change.Result != nil {
		set["result"] = *change.Result
	}
	if change.ResultAction != nil {
		set["result_action"] = *change.ResultAction
	}
	if change.ScheduledFor != nil {
		set["scheduled_for"] = *change.ScheduledFor
	}
	if change.Started != nil {
		set["started"] = *change.Started
	}
	if change.Ended != nil {
		set["ended"] = *change.Ended
	}

	result, err := r.wars.UpdateOne(ctx, bson.M{"_id": warID, "status": from}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNoRowsAffected
	}
	return nil
}

// FindActiveWarBetween returns a non-terminal war between the two states in
// either direction, or nil
func (r *MongoRepository) FindActiveWarBetween(ctx context.Context, stateA, stateB string) (*models.War, error) {
	filter := bson.M{
		"status": bson.M{"$in": models.ActiveStatuses()},
		"$or": bson.A{
			bson.M{"attacker_state_id": stateA, "defender_state_id": stateB},
			bson.M{"attacker_state_id": stateB, "defender_state_id": stateA},
		},
	}
	var war models.War
	if err := r.wars.FindOne(ctx, filter).Decode(&war); err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &war, nil
}

// ListWarsForState returns every war the state participates in, newest first
func (r *MongoRepository) ListWarsForState(ctx context.Context, stateID string) ([]models.War, error) {
	warIDs, err := r.participants.Distinct(ctx, "war_id", bson.M{"state_id": stateID})
	if err != nil {
		return nil, err
	}
	wars := []models.War{}
	if len(warIDs) == 0 {
		return wars, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}})
	cursor, err := r.wars.Find(ctx, bson.M{"_id": bson.M{"$in": warIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &wars); err != nil {
		return nil, err
	}
	return wars, nil
}

// ListScheduledBefore returns SCHEDULED wars whose start time is at or
// before the given millisecond timestamp, earliest first
func (r *MongoRepository) ListScheduledBefore(ctx context.Context, before int64) ([]models.War, error) {
	filter := bson.M{
		"status":        models.StatusScheduled,
		"scheduled_for": bson.M{"$lte": before},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_for", Value: 1}})
	cursor, err := r.wars.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	wars := []models.War{}
	if err := cursor.All(ctx, &wars); err != nil {
		return nil, err
	}
	return wars, nil
}

// InsertParticipants writes the participant snapshot of a war
func (r *MongoRepository) InsertParticipants(ctx context.Context, participants []models.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	docs := make([]interface{}, len(participants))
	for i := range participants {
		docs[i] = participants[i]
	}
	_, err := r.participants.InsertMany(ctx, docs)
	return database.MapWriteError(err, nil)
}

// GetParticipant returns the state's row in a war or apperrors.ErrNotParticipant
func (r *MongoRepository) GetParticipant(ctx context.Context, warID, stateID string) (*models.Participant, error) {
	var participant models.Participant
	err := r.participants.FindOne(ctx, bson.M{"war_id": warID, "state_id": stateID}).Decode(&participant)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.With(apperrors.ErrNotParticipant, "state %s is not part of war %s", stateID, warID)
		}
		return nil, err
	}
	return &participant, nil
}

// ListParticipants returns the participants of a war in insertion order
func (r *MongoRepository) ListParticipants(ctx context.Context, warID string) ([]models.Participant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}})
	cursor, err := r.participants.Find(ctx, bson.M{"war_id": warID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	participants := []models.Participant{}
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

// InsertBattle creates a new battle record
func (r *MongoRepository) InsertBattle(ctx context.Context, battle *models.Battle) error {
	_, err := r.battles.InsertOne(ctx, battle)
	return database.MapWriteError(err, nil)
}

// GetBattle retrieves a battle by UUID
func (r *MongoRepository) GetBattle(ctx context.Context, battleID string) (*models.Battle, error) {
	var battle models.Battle
	err := r.battles.FindOne(ctx, bson.M{"_id": battleID}).Decode(&battle)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.With(apperrors.ErrBattleNotFound, "battle %s not found", battleID)
		}
		return nil, err
	}
	return &battle, nil
}

// UpdateBattle applies an administrative change to a battle
func (r *MongoRepository) UpdateBattle(ctx context.Context, battleID string, change BattleChange) error {
	set := bson.M{"status": change.Status, "updated": change.Updated}
	if change.Result != nil {
		set["result"] = *change.Result
	}
	if change.EndDate != nil {
		set["end_date"] = *change.EndDate
	}

	result, err := r.battles.UpdateOne(ctx, bson.M{"_id": battleID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNoRowsAffected
	}
	return nil
}

// ListBattles returns the battles of a war ordered by start date
func (r *MongoRepository) ListBattles(ctx context.Context, warID string) ([]models.Battle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "created", Value: 1}})
	cursor, err := r.battles.Find(ctx, bson.M{"war_id": warID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	battles := []models.Battle{}
	if err := cursor.All(ctx, &battles); err != nil {
		return nil, err
	}
	return battles, nil
}

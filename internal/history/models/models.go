package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType identifies the engine operation that produced an event.
type EventType string

const (
	EventMembershipApplied   EventType = "MEMBERSHIP_APPLIED"
	EventMembershipApproved  EventType = "MEMBERSHIP_APPROVED"
	EventMembershipRejected  EventType = "MEMBERSHIP_REJECTED"
	EventMemberRemoved       EventType = "MEMBER_REMOVED"
	EventMemberRoleChanged   EventType = "MEMBER_ROLE_CHANGED"
	EventRulerSucceeded      EventType = "RULER_SUCCEEDED"
	EventMemberLeft          EventType = "MEMBER_LEFT"
	EventAllianceCreated     EventType = "ALLIANCE_CREATED"
	EventAllianceJoinRequest EventType = "ALLIANCE_JOIN_REQUESTED"
	EventAllianceJoined      EventType = "ALLIANCE_JOINED"
	EventAllianceJoinDenied  EventType = "ALLIANCE_JOIN_DENIED"
	EventAllianceLeft        EventType = "ALLIANCE_LEFT"
	EventAllianceDissolved   EventType = "ALLIANCE_DISSOLVED"
	EventRelationRequested   EventType = "RELATION_REQUESTED"
	EventRelationChanged     EventType = "RELATION_CHANGED"
	EventRelationDeclined    EventType = "RELATION_DECLINED"
	EventWarDeclared         EventType = "WAR_DECLARED"
	EventWarAccepted         EventType = "WAR_ACCEPTED"
	EventWarDeclined         EventType = "WAR_DECLINED"
	EventWarScheduled        EventType = "WAR_SCHEDULED"
	EventWarStarted          EventType = "WAR_STARTED"
	EventWarEnded            EventType = "WAR_ENDED"
	EventWarCancelled        EventType = "WAR_CANCELLED"
	EventBattleCreated       EventType = "BATTLE_CREATED"
	EventBattleUpdated       EventType = "BATTLE_UPDATED"
)

// Event is one append-only audit record.
type Event struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type               EventType          `bson:"type" json:"type"`
	Title              string             `bson:"title" json:"title"`
	Description        string             `bson:"description" json:"description"`
	RelatedStateIDs    []string           `bson:"related_state_ids,omitempty" json:"related_state_ids,omitempty"`
	RelatedPlayerIDs   []string           `bson:"related_player_ids,omitempty" json:"related_player_ids,omitempty"`
	RelatedAllianceIDs []string           `bson:"related_alliance_ids,omitempty" json:"related_alliance_ids,omitempty"`
	RelatedWarID       string             `bson:"related_war_id,omitempty" json:"related_war_id,omitempty"`
	DetailsJSON        string             `bson:"details_json,omitempty" json:"details_json,omitempty"`
	ActorID            string             `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	Created            int64              `bson:"created" json:"created"`
}

// Constants for collection names
const (
	EventCollection = "history_events"
)

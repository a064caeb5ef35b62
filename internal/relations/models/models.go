package models

import "strings"

// Kind is the treaty standing between two states. No row means neutral.
type Kind string

const (
	KindNeutral Kind = "NEUTRAL"
	KindAlly    Kind = "ALLY"
	KindEnemy   Kind = "ENEMY"
)

// Valid reports whether k is a recognized relation kind
func (k Kind) Valid() bool {
	switch k {
	case KindNeutral, KindAlly, KindEnemy:
		return true
	}
	return false
}

// ParseKind converts a kind name (case-insensitive) into a Kind
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	return k, k.Valid()
}

// RequestStatus is the lifecycle of a relation request
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestDeclined RequestStatus = "DECLINED"
)

// Relation is the live standing of one unordered pair, stored with
// StateA < StateB
type Relation struct {
	UUID    string `bson:"_id" json:"uuid"`
	StateA  string `bson:"state_a" json:"state_a"`
	StateB  string `bson:"state_b" json:"state_b"`
	Kind    Kind   `bson:"kind" json:"kind"`
	Created int64  `bson:"created" json:"created"`
	Updated int64  `bson:"updated" json:"updated"`
}

// Other returns the counterpart of stateID in the pair
func (r *Relation) Other(stateID string) string {
	if r.StateA == stateID {
		return r.StateB
	}
	return r.StateA
}

// Request proposes a change of the relation of a canonical pair. A nil
// RequestedKind asks to drop the treaty altogether.
type Request struct {
	UUID             string        `bson:"_id" json:"uuid"`
	StateA           string        `bson:"state_a" json:"state_a"`
	StateB           string        `bson:"state_b" json:"state_b"`
	ProposerStateID  string        `bson:"proposer_state_id" json:"proposer_state_id"`
	ProposerPlayerID string        `bson:"proposer_player_id" json:"proposer_player_id"`
	RequestedKind    *Kind         `bson:"requested_kind" json:"requested_kind"`
	Status           RequestStatus `bson:"status" json:"status"`
	ReviewerPlayerID *string       `bson:"reviewer_player_id,omitempty" json:"reviewer_player_id,omitempty"`
	Created          int64         `bson:"created" json:"created"`
	Updated          int64         `bson:"updated" json:"updated"`
}

// ReviewingState returns the side of the pair that did not propose
func (r *Request) ReviewingState() string {
	if r.ProposerStateID == r.StateA {
		return r.StateB
	}
	return r.StateA
}

// CanonicalPair orders two state ids so that the first is the smaller
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Constants for collection names
const (
	RelationCollection = "state_relations"
	RequestCollection  = "state_relation_requests"
)

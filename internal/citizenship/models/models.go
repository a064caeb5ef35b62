package models

import (
	"statecraft/internal/roles"
)

// Member links a player to a state with a role. One row per (state, player).
type Member struct {
	UUID     string     `bson:"_id" json:"uuid"`
	StateID  string     `bson:"state_id" json:"state_id"`
	PlayerID string     `bson:"player_id" json:"player_id"`
	Role     roles.Role `bson:"role" json:"role"`
	CityID   *string    `bson:"city_id,omitempty" json:"city_id,omitempty"`
	Created  int64      `bson:"created" json:"created"`
	Updated  int64      `bson:"updated" json:"updated"`
}

// IsApplicant reports whether the row is still an unreviewed application.
func (m *Member) IsApplicant() bool {
	return m.Role == roles.Applicant
}

// Constants for collection names
const (
	MemberCollection = "state_members"
)

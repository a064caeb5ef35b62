package models

// Status is the alliance lifecycle status. DISSOLVED is terminal.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusDissolved Status = "DISSOLVED"
)

// Alliance represents a supra-state alliance stored in the database
type Alliance struct {
	UUID           string  `bson:"_id" json:"uuid"`
	Name           string  `bson:"name" json:"name"`
	Purpose        string  `bson:"purpose" json:"purpose"`
	Color          string  `bson:"color" json:"color"`
	FlagPath       *string `bson:"flag_path,omitempty" json:"flag_path,omitempty"`
	CreatorStateID string  `bson:"creator_state_id" json:"creator_state_id"`
	Status         Status  `bson:"status" json:"status"`

	// Metadata
	Created   int64  `bson:"created" json:"created"`
	Updated   int64  `bson:"updated" json:"updated"`
	Dissolved *int64 `bson:"dissolved,omitempty" json:"dissolved,omitempty"`
}

// IsActive reports whether the alliance still accepts members
func (a *Alliance) IsActive() bool {
	return a.Status == StatusActive
}

// Member links a state to an alliance. A pending row is a join request.
type Member struct {
	UUID       string `bson:"_id" json:"uuid"`
	AllianceID string `bson:"alliance_id" json:"alliance_id"`
	StateID    string `bson:"state_id" json:"state_id"`
	IsPending  bool   `bson:"is_pending" json:"is_pending"`
	Created    int64  `bson:"created" json:"created"`
	Updated    int64  `bson:"updated" json:"updated"`
}

// Constants for collection names
const (
	AllianceCollection = "alliances"
	MemberCollection   = "alliance_members"
)

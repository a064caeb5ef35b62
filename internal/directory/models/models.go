package models

// State is a player-governed nation. States are owned by the wider
// platform; the engine only reads them.
type State struct {
	UUID                 string `bson:"_id" json:"uuid"`
	Name                 string `bson:"name" json:"name"`
	RulerID              string `bson:"ruler_id,omitempty" json:"ruler_id,omitempty"`
	AllowDualCitizenship bool   `bson:"allow_dual_citizenship" json:"allow_dual_citizenship"`
	FreeEntry            bool   `bson:"free_entry" json:"free_entry"`
	Created              int64  `bson:"created" json:"created"`
	Updated              int64  `bson:"updated" json:"updated"`
}

// Constants for collection names
const (
	StateCollection = "states"
)

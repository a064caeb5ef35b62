package models

// Status is shared by wars and battles
type Status string

const (
	StatusProposed  Status = "PROPOSED"
	StatusAccepted  Status = "ACCEPTED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
	StatusScheduled Status = "SCHEDULED"
	StatusOngoing   Status = "ONGOING"
	StatusEnded     Status = "ENDED"
)

// Valid reports whether s is a recognized status
func (s Status) Valid() bool {
	switch s {
	case StatusProposed, StatusAccepted, StatusDeclined, StatusCancelled,
		StatusScheduled, StatusOngoing, StatusEnded:
		return true
	}
	return false
}

// IsTerminal reports whether no further war transition can leave s
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDeclined, StatusCancelled, StatusEnded:
		return true
	}
	return false
}

// ActiveStatuses lists the non-terminal war statuses
func ActiveStatuses() []Status {
	return []Status{StatusProposed, StatusAccepted, StatusScheduled, StatusOngoing}
}

// CanTransition reports whether a war may move from one status to another
func CanTransition(from, to Status) bool {
	switch from {
	case StatusProposed:
		return to == StatusAccepted || to == StatusDeclined || to == StatusCancelled
	case StatusAccepted:
		return to == StatusScheduled || to == StatusCancelled
	case StatusScheduled:
		return to == StatusOngoing || to == StatusEnded || to == StatusCancelled
	case StatusOngoing:
		return to == StatusEnded
	default:
		return false
	}
}

// Side is the role a state plays in a war
type Side string

const (
	SideAttacker     Side = "ATTACKER"
	SideDefender     Side = "DEFENDER"
	SideAllyAttacker Side = "ALLY_ATTACKER"
	SideAllyDefender Side = "ALLY_DEFENDER"
)

// BattleType classifies a battle
type BattleType string

const (
	BattleField          BattleType = "FIELD_BATTLE"
	BattleSiege          BattleType = "SIEGE"
	BattleFlagCapture    BattleType = "FLAG_CAPTURE"
	BattleScenario       BattleType = "SCENARIO"
	BattleDuelTournament BattleType = "DUEL_TOURNAMENT"
)

// Valid reports whether t is a recognized battle type
func (t BattleType) Valid() bool {
	switch t {
	case BattleField, BattleSiege, BattleFlagCapture, BattleScenario, BattleDuelTournament:
		return true
	}
	return false
}

// War is a formally declared conflict between two states
type War struct {
	UUID             string  `bson:"_id" json:"uuid"`
	Name             string  `bson:"name" json:"name"`
	Reason           string  `bson:"reason" json:"reason"`
	VictoryCondition string  `bson:"victory_condition" json:"victory_condition"`
	Status           Status  `bson:"status" json:"status"`
	AttackerStateID  string  `bson:"attacker_state_id" json:"attacker_state_id"`
	DefenderStateID  string  `bson:"defender_state_id" json:"defender_state_id"`
	DeclaredBy       string  `bson:"declared_by" json:"declared_by"`
	Result           *string `bson:"result,omitempty" json:"result,omitempty"`
	ResultAction     *string `bson:"result_action,omitempty" json:"result_action,omitempty"`
	ScheduledFor     *int64  `bson:"scheduled_for,omitempty" json:"scheduled_for,omitempty"`
	Started          *int64  `bson:"started,omitempty" json:"started,omitempty"`
	Ended            *int64  `bson:"ended,omitempty" json:"ended,omitempty"`
	Created          int64   `bson:"created" json:"created"`
	Updated          int64   `bson:"updated" json:"updated"`
}

// Participant is one state's side in a war, fixed at declaration
type Participant struct {
	UUID          string  `bson:"_id" json:"uuid"`
	WarID         string  `bson:"war_id" json:"war_id"`
	StateID       string  `bson:"state_id" json:"state_id"`
	Side          Side    `bson:"side" json:"side"`
	ViaAllianceID *string `bson:"via_alliance_id,omitempty" json:"via_alliance_id,omitempty"`
	Created       int64   `bson:"created" json:"created"`
}

// Battle is a sub-event of a war
type Battle struct {
	UUID           string     `bson:"_id" json:"uuid"`
	WarID          string     `bson:"war_id" json:"war_id"`
	Name           string     `bson:"name" json:"name"`
	Description    string     `bson:"description" json:"description"`
	Type           BattleType `bson:"type" json:"type"`
	Status         Status     `bson:"status" json:"status"`
	Result         *string    `bson:"result,omitempty" json:"result,omitempty"`
	StartDate      int64      `bson:"start_date" json:"start_date"`
	EndDate        *int64     `bson:"end_date,omitempty" json:"end_date,omitempty"`
	CreatorStateID string     `bson:"creator_state_id" json:"creator_state_id"`
	Created        int64      `bson:"created" json:"created"`
	Updated        int64      `bson:"updated" json:"updated"`
}

// Constants for collection names
const (
	WarCollection         = "wars"
	ParticipantCollection = "war_participants"
	BattleCollection      = "war_battles"
)

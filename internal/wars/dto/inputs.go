package dto

// DeclareWarInput carries the arguments of DeclareWar
type DeclareWarInput struct {
	AttackerStateID  string `json:"attacker_state_id" validate:"required"`
	DefenderStateID  string `json:"defender_state_id" validate:"required"`
	AttackerPlayerID string `json:"attacker_player_id" validate:"required"`
	Name             string `json:"name" validate:"required,min=2,max=64"`
	Reason           string `json:"reason" validate:"max=1000"`
	VictoryCondition string `json:"victory_condition" validate:"max=1000"`
}

// CreateBattleInput carries the arguments of CreateBattle
type CreateBattleInput struct {
	WarID           string `json:"war_id" validate:"required"`
	CreatorStateID  string `json:"creator_state_id" validate:"required"`
	CreatorPlayerID string `json:"creator_player_id" validate:"required"`
	Name            string `json:"name" validate:"required,min=2,max=64"`
	Description     string `json:"description" validate:"max=1000"`
	Type            string `json:"type" validate:"required,battle_type"`
	// StartDate is in milliseconds since epoch
	StartDate int64 `json:"start_date" validate:"required,gt=0"`
}

package dto

// CreateAllianceInput carries the arguments of CreateAlliance
type CreateAllianceInput struct {
	CreatorStateID  string `json:"creator_state_id" validate:"required"`
	CreatorPlayerID string `json:"creator_player_id" validate:"required"`
	Name            string `json:"name" validate:"required,min=2,max=48"`
	Purpose         string `json:"purpose" validate:"max=500"`
	Color           string `json:"color" validate:"required,alliance_color"`
	// Flag is the raw flag image; empty means no flag
	Flag []byte `json:"-"`
}

// ListAlliancesInput selects one page of active alliances
type ListAlliancesInput struct {
	Page     int `json:"page" validate:"omitempty,min=1"`
	PageSize int `json:"page_size" validate:"omitempty,min=1,max=100"`
}

// SetDefaults sets default values for pagination
func (i *ListAlliancesInput) SetDefaults() {
	if i.Page == 0 {
		i.Page = 1
	}
	if i.PageSize == 0 {
		i.PageSize = 20
	}
}

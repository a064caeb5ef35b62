package dto

import "statecraft/internal/alliance/models"

// AllianceListOutput is one page of active alliances
type AllianceListOutput struct {
	Alliances []models.Alliance `json:"alliances"`
	Total     int64             `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
}

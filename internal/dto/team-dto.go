package dto

import "gearguard/internal/entities"

type CreateTeamDTO struct {
	Name string `json:"name" validate:"required"`
}

type UpdateTeamDTO struct {
	Name string `json:"name" validate:"required"`
}

type AddTeamMemberDTO struct {
	UserID uint64 `json:"userId" validate:"required"`
}

type TeamDetailsDTO struct {
	entities.Team
	Members      []entities.User      `json:"members"`
	Equipment    []entities.Equipment `json:"equipment"`
	OpenRequests []RequestDTO         `json:"openRequests"`
}

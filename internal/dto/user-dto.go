package dto

import (
	"github.com/aarondl/null/v8"

	"gearguard/internal/entities"
	"gearguard/pkg/constants"
)

type UpdateProfileDTO struct {
	Name   null.String `json:"name" validate:"omitempty,min=1"`
	Avatar null.String `json:"avatar"`

	Fields map[string]bool `json:"-"`
}

func (d UpdateProfileDTO) Has(field string) bool {
	if d.Fields == nil {
		switch field {
		case "name":
			return d.Name.Valid
		case "avatar":
			return d.Avatar.Valid
		}
		return false
	}
	return d.Fields[field]
}

type UpdateUserRoleDTO struct {
	Role   string      `json:"role" validate:"required,user_role"`
	TeamID null.Uint64 `json:"teamId"`
}

type UserFilter struct {
	Role   *constants.Role
	TeamID *uint64
}

type UserDetailsDTO struct {
	entities.User
	AssignedRequestsCount uint64 `json:"assignedRequestsCount"`
}

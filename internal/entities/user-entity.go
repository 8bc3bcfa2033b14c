// Файл: internal/entities/user-entity.go
package entities

import (
	"gearguard/pkg/constants"
	"gearguard/pkg/types"
)

type User struct {
	ID       uint64         `json:"id" db:"id"`
	Email    string         `json:"email" db:"email"`
	Password string         `json:"-" db:"password"`
	Name     string         `json:"name" db:"name"`
	Avatar   *string        `json:"avatar,omitempty" db:"avatar"`
	Role     constants.Role `json:"role" db:"role"`
	TeamID   *uint64        `json:"teamId" db:"team_id"`

	types.BaseEntity

	Team *TeamRef `json:"team,omitempty" db:"-"`
}

// InTeam - техник считается членом команды, только если team_id совпадает.
func (u *User) InTeam(teamID uint64) bool {
	return u.TeamID != nil && *u.TeamID == teamID
}

// UserRef - краткая ссылка на пользователя (исполнитель, автор).
type UserRef struct {
	ID     uint64  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}

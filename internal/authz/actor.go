package authz

import (
	"gearguard/internal/entities"
	"gearguard/pkg/constants"
)

// Actor - тот, кто выполняет операцию. Собирается из пользователя в БД на каждый запрос.
type Actor struct {
	ID     uint64
	Name   string
	Role   constants.Role
	TeamID *uint64
}

func ActorFromUser(u *entities.User) Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role, TeamID: u.TeamID}
}

func (a Actor) InTeam(teamID uint64) bool {
	return a.TeamID != nil && *a.TeamID == teamID
}

func (a Actor) IsManager() bool    { return a.Role == constants.RoleManager }
func (a Actor) IsTechnician() bool { return a.Role == constants.RoleTechnician }

// TeamScope - техник с командой видит только заявки своей команды.
// nil означает отсутствие ограничения.
func (a Actor) TeamScope() *uint64 {
	if a.IsTechnician() && a.TeamID != nil {
		id := *a.TeamID
		return &id
	}
	return nil
}

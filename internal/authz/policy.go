package authz

import (
	"gearguard/internal/entities"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
)

// Decision - результат проверки политики.
type Decision struct {
	Action  string
	Allowed bool
	Reason  string
}

func allow(action string) Decision {
	return Decision{Action: action, Allowed: true}
}

func deny(action, reason string) Decision {
	return Decision{Action: action, Reason: reason}
}

// Err возвращает ошибку доступа для запрещённого действия и nil для разрешённого.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperrors.NewForbiddenError("%s", d.Reason)
}

// CanCreateRequest: плановые заявки создаёт только менеджер.
func CanCreateRequest(actor Actor, requestType constants.RequestType) Decision {
	if requestType == constants.TypePreventive && !actor.IsManager() {
		return deny(RequestsCreate, "only managers can create preventive maintenance requests")
	}
	return allow(RequestsCreate)
}

func CanSetStage(actor Actor, req *entities.MaintenanceRequest) Decision {
	switch actor.Role {
	case constants.RoleUser:
		return deny(RequestsStage, "users cannot change request stage")
	case constants.RoleTechnician:
		if !actor.InTeam(req.TeamID) {
			return deny(RequestsStage, "you can only update your team's requests")
		}
	}
	return allow(RequestsStage)
}

// CanAssignTechnician: техник может только назначить или снять себя, и только в своей команде.
// technicianID == nil означает снятие исполнителя.
func CanAssignTechnician(actor Actor, req *entities.MaintenanceRequest, technicianID *uint64) Decision {
	if !actor.IsTechnician() {
		return allow(RequestsAssign)
	}
	if technicianID != nil && *technicianID != actor.ID {
		return deny(RequestsAssign, "technicians can only assign themselves to requests")
	}
	if !actor.InTeam(req.TeamID) {
		return deny(RequestsAssign, "you can only assign yourself to your team's requests")
	}
	return allow(RequestsAssign)
}

func CanComplete(actor Actor, req *entities.MaintenanceRequest) Decision {
	switch actor.Role {
	case constants.RoleUser:
		return deny(RequestsComplete, "users cannot complete requests")
	case constants.RoleTechnician:
		if !req.IsAssignedTo(actor.ID) {
			return deny(RequestsComplete, "only the assigned technician can complete this request")
		}
	}
	return allow(RequestsComplete)
}

// CanUpdateDetails: любой аутентифицированный пользователь, ограничение только по этапу.
func CanUpdateDetails(_ Actor, _ *entities.MaintenanceRequest) Decision {
	return allow(RequestsUpdate)
}

func CanDeleteRequest(actor Actor, _ *entities.MaintenanceRequest) Decision {
	if !actor.IsManager() {
		return deny(RequestsDelete, "only managers can delete requests")
	}
	return allow(RequestsDelete)
}

// CanManage - действия над справочниками (команды, оборудование, роли) и экспорт.
func CanManage(actor Actor, action string) Decision {
	if !actor.IsManager() {
		return deny(action, "only managers can perform this action")
	}
	return allow(action)
}

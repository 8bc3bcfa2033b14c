package events

import "gearguard/internal/entities"

const (
	RequestChanged    = "request.changed"
	EquipmentScrapped = "equipment.scrapped"
)

// Действия над заявкой, о которых сообщает RequestChangedEvent.
const (
	ActionCreated   = "created"
	ActionStage     = "stage_changed"
	ActionAssigned  = "assigned"
	ActionCompleted = "completed"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
)

// RequestChangedEvent публикуется после коммита любой операции над заявкой.
type RequestChangedEvent struct {
	Action  string
	Request entities.MaintenanceRequest
	ActorID uint64
}

func (e RequestChangedEvent) Name() string { return RequestChanged }

// EquipmentScrappedEvent публикуется, когда заявка переведена в SCRAP.
type EquipmentScrappedEvent struct {
	EquipmentID uint64
	RequestID   uint64
	ActorID     uint64
}

func (e EquipmentScrappedEvent) Name() string { return EquipmentScrapped }

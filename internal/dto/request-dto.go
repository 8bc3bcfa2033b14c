package dto

import (
	"time"

	"github.com/aarondl/null/v8"

	"gearguard/internal/entities"
	"gearguard/pkg/constants"
)

type CreateRequestDTO struct {
	Subject       string      `json:"subject" validate:"required"`
	Description   null.String `json:"description"`
	Type          string      `json:"type" validate:"required,request_type"`
	Priority      null.Int    `json:"priority" validate:"omitempty,min=1,max=4"`
	EquipmentID   uint64      `json:"equipmentId" validate:"required"`
	ScheduledDate null.Time   `json:"scheduledDate"`
	TechnicianID  null.Uint64 `json:"technicianId"`
}

// UpdateRequestDTO - частичное обновление. Fields хранит ключи, реально пришедшие в теле,
// чтобы "description": null очищал поле, а отсутствие ключа оставляло его как есть.
type UpdateRequestDTO struct {
	Subject       null.String `json:"subject"`
	Description   null.String `json:"description"`
	Priority      null.Int    `json:"priority" validate:"omitempty,min=1,max=4"`
	ScheduledDate null.Time   `json:"scheduledDate"`

	Fields map[string]bool `json:"-"`
}

// Has сообщает, было ли поле передано. Без Fields поле считается переданным, если оно не null.
func (d UpdateRequestDTO) Has(field string) bool {
	if d.Fields == nil {
		switch field {
		case "subject":
			return d.Subject.Valid
		case "description":
			return d.Description.Valid
		case "priority":
			return d.Priority.Valid
		case "scheduledDate":
			return d.ScheduledDate.Valid
		}
		return false
	}
	return d.Fields[field]
}

type SetStageDTO struct {
	Stage string `json:"stage" validate:"required,request_stage"`
}

// AssignTechnicianDTO: technicianId = null снимает исполнителя.
type AssignTechnicianDTO struct {
	TechnicianID null.Uint64 `json:"technicianId"`
}

type CompleteRequestDTO struct {
	Duration null.Float64 `json:"duration" validate:"omitempty,min=0"`
	Notes    null.String  `json:"notes"`
}

// RequestFilter - условия выборки заявок для списка, канбана, календаря, статистики и экспорта.
type RequestFilter struct {
	Type          *constants.RequestType
	Stage         *constants.RequestStage
	TeamID        *uint64
	EquipmentID   *uint64
	TechnicianID  *uint64
	Priority      *int
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time

	// Overdue: только открытые заявки, созданные раньше CreatedBefore.
	Overdue       bool
	CreatedBefore *time.Time

	// ScheduledOnly: плановые заявки с заполненной датой (календарь).
	ScheduledOnly bool
}

type RequestDTO struct {
	entities.MaintenanceRequest
	IsOverdue bool `json:"isOverdue"`
}

type RequestDetailsDTO struct {
	RequestDTO
	AuditTrail []entities.RequestAuditEntry `json:"auditTrail"`
}

// KanbanDTO всегда содержит все четыре колонки.
type KanbanDTO map[constants.RequestStage][]RequestDTO

type CalendarEventPropsDTO struct {
	Stage      constants.RequestStage `json:"stage"`
	Equipment  *entities.EquipmentRef `json:"equipment"`
	Technician *entities.UserRef      `json:"technician"`
	Priority   int                    `json:"priority"`
}

type CalendarEventDTO struct {
	ID              uint64                `json:"id"`
	Title           string                `json:"title"`
	Start           time.Time             `json:"start"`
	End             time.Time             `json:"end"`
	AllDay          bool                  `json:"allDay"`
	ExtendedProps   CalendarEventPropsDTO `json:"extendedProps"`
	BackgroundColor string                `json:"backgroundColor"`
	BorderColor     string                `json:"borderColor"`
}

type TeamCountDTO struct {
	Team  string `json:"team"`
	Count int64  `json:"count"`
}

type RequestStatsDTO struct {
	ByStage map[string]int64 `json:"byStage"`
	ByType  map[string]int64 `json:"byType"`
	ByTeam  []TeamCountDTO   `json:"byTeam"`
	Overdue int64            `json:"overdue"`
}

package entities

import (
	"time"

	"gearguard/pkg/constants"
	"gearguard/pkg/types"
)

type MaintenanceRequest struct {
	ID            uint64                 `json:"id" db:"id"`
	Subject       string                 `json:"subject" db:"subject"`
	Description   *string                `json:"description" db:"description"`
	Type          constants.RequestType  `json:"type" db:"type"`
	Priority      int                    `json:"priority" db:"priority"`
	Stage         constants.RequestStage `json:"stage" db:"stage"`
	EquipmentID   uint64                 `json:"equipmentId" db:"equipment_id"`
	TeamID        uint64                 `json:"teamId" db:"team_id"`
	CreatedByID   uint64                 `json:"createdById" db:"created_by_id"`
	TechnicianID  *uint64                `json:"technicianId" db:"technician_id"`
	ScheduledDate *time.Time             `json:"scheduledDate" db:"scheduled_date"`
	Duration      *float64               `json:"duration" db:"duration"`
	Notes         *string                `json:"notes" db:"notes"`

	types.BaseEntity

	Equipment  *EquipmentRef `json:"equipment,omitempty" db:"-"`
	Team       *TeamRef      `json:"team,omitempty" db:"-"`
	Technician *UserRef      `json:"technician,omitempty" db:"-"`
	CreatedBy  *UserRef      `json:"createdBy,omitempty" db:"-"`
}

// IsOverdue - вычисляется при чтении, в БД не хранится.
func (r *MaintenanceRequest) IsOverdue(now time.Time) bool {
	return r.Stage.IsOpen() && now.Sub(r.CreatedAt) > constants.OverdueAfter
}

func (r *MaintenanceRequest) IsAssignedTo(userID uint64) bool {
	return r.TechnicianID != nil && *r.TechnicianID == userID
}

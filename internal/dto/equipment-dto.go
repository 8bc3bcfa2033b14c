package dto

import (
	"time"

	"github.com/aarondl/null/v8"

	"gearguard/internal/entities"
)

type CreateEquipmentDTO struct {
	Name             string      `json:"name" validate:"required"`
	SerialNumber     string      `json:"serialNumber" validate:"required"`
	Department       string      `json:"department" validate:"required"`
	Location         string      `json:"location" validate:"required"`
	AssignedEmployee null.String `json:"assignedEmployee"`
	PurchaseDate     time.Time   `json:"purchaseDate" validate:"required"`
	WarrantyEndDate  null.Time   `json:"warrantyEndDate"`
	TeamID           uint64      `json:"teamId" validate:"required"`
}

// UpdateEquipmentDTO: serialNumber и isScrapped здесь не меняются.
type UpdateEquipmentDTO struct {
	Name             null.String `json:"name" validate:"omitempty,min=1"`
	Department       null.String `json:"department" validate:"omitempty,min=1"`
	Location         null.String `json:"location" validate:"omitempty,min=1"`
	AssignedEmployee null.String `json:"assignedEmployee"`
	WarrantyEndDate  null.Time   `json:"warrantyEndDate"`
	TeamID           null.Uint64 `json:"teamId"`

	Fields map[string]bool `json:"-"`
}

func (d UpdateEquipmentDTO) Has(field string) bool {
	if d.Fields == nil {
		switch field {
		case "name":
			return d.Name.Valid
		case "department":
			return d.Department.Valid
		case "location":
			return d.Location.Valid
		case "assignedEmployee":
			return d.AssignedEmployee.Valid
		case "warrantyEndDate":
			return d.WarrantyEndDate.Valid
		case "teamId":
			return d.TeamID.Valid
		}
		return false
	}
	return d.Fields[field]
}

type EquipmentDetailsDTO struct {
	entities.Equipment
	RecentRequests []entities.MaintenanceRequest `json:"recentRequests"`
}

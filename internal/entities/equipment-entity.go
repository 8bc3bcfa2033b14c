package entities

import (
	"time"

	"gearguard/pkg/types"
)

type Equipment struct {
	ID               uint64     `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	SerialNumber     string     `json:"serialNumber" db:"serial_number"`
	Department       string     `json:"department" db:"department"`
	Location         string     `json:"location" db:"location"`
	AssignedEmployee *string    `json:"assignedEmployee" db:"assigned_employee"`
	PurchaseDate     time.Time  `json:"purchaseDate" db:"purchase_date"`
	WarrantyEndDate  *time.Time `json:"warrantyEndDate" db:"warranty_end_date"`
	TeamID           uint64     `json:"teamId" db:"team_id"`
	IsScrapped       bool       `json:"isScrapped" db:"is_scrapped"`

	types.BaseEntity

	Team              *TeamRef `json:"team,omitempty" db:"-"`
	OpenRequestsCount uint64   `json:"openRequestsCount" db:"-"`
}

// EquipmentRef - краткая ссылка на оборудование внутри заявки.
type EquipmentRef struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serialNumber,omitempty"`
	IsScrapped   bool   `json:"isScrapped"`
}

package entities

import "gearguard/pkg/types"

type Team struct {
	ID   uint64 `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	types.BaseEntity

	// Агрегаты, заполняются только в списках
	MemberCount    uint64 `json:"memberCount" db:"-"`
	EquipmentCount uint64 `json:"equipmentCount" db:"-"`
}

// TeamRef - краткая ссылка на команду внутри других сущностей.
type TeamRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

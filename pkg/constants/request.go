package constants

import "time"

// RequestStage - этап заявки на обслуживание (совпадает со значениями в БД).
type RequestStage string

const (
	StageNew        RequestStage = "NEW"
	StageInProgress RequestStage = "IN_PROGRESS"
	StageRepaired   RequestStage = "REPAIRED"
	StageScrap      RequestStage = "SCRAP"
)

// AllStages задаёт порядок колонок канбан-доски.
var AllStages = []RequestStage{StageNew, StageInProgress, StageRepaired, StageScrap}

func (s RequestStage) IsValid() bool {
	switch s {
	case StageNew, StageInProgress, StageRepaired, StageScrap:
		return true
	}
	return false
}

// IsTerminal - из REPAIRED и SCRAP основные поля заявки уже не меняются.
func (s RequestStage) IsTerminal() bool {
	return s == StageRepaired || s == StageScrap
}

// IsOpen - этапы, для которых считается просрочка.
func (s RequestStage) IsOpen() bool {
	return s == StageNew || s == StageInProgress
}

// Color - цвет события в календаре.
func (s RequestStage) Color() string {
	switch s {
	case StageNew:
		return "#3B82F6"
	case StageInProgress:
		return "#F59E0B"
	case StageRepaired:
		return "#10B981"
	case StageScrap:
		return "#EF4444"
	}
	return "#6B7280"
}

type RequestType string

const (
	TypeCorrective RequestType = "CORRECTIVE"
	TypePreventive RequestType = "PREVENTIVE"
)

func (t RequestType) IsValid() bool {
	return t == TypeCorrective || t == TypePreventive
}

// Приоритеты: 1 - низкий, 4 - критический.
const (
	PriorityLow      = 1
	PriorityMedium   = 2
	PriorityHigh     = 3
	PriorityCritical = 4

	DefaultPriority = PriorityLow
)

var PriorityNames = map[int]string{
	PriorityLow:      "Low",
	PriorityMedium:   "Medium",
	PriorityHigh:     "High",
	PriorityCritical: "Critical",
}

func IsValidPriority(p int) bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// OverdueAfter - открытая заявка старше этого срока считается просроченной.
const OverdueAfter = 48 * time.Hour

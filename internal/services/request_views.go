package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/pkg/constants"
	"gearguard/pkg/utils"
)

// noteTimeLayout - ISO-8601 в UTC с миллисекундами, как пишется в журнал заявки.
const noteTimeLayout = "2006-01-02T15:04:05.000Z"

// RenderNoteLine форматирует одну строку журнала: "[<время>] <сообщение>".
func RenderNoteLine(at time.Time, message string) string {
	return fmt.Sprintf("[%s] %s", at.UTC().Format(noteTimeLayout), message)
}

// AppendNote дописывает строку к заметкам заявки с новой строки и обрезает пробелы по краям.
func AppendNote(notes *string, line string) string {
	return strings.TrimSpace(utils.SafeDeref(notes) + "\n" + line)
}

func toRequestDTO(req entities.MaintenanceRequest, now time.Time) dto.RequestDTO {
	return dto.RequestDTO{MaintenanceRequest: req, IsOverdue: req.IsOverdue(now)}
}

func toRequestDTOs(requests []entities.MaintenanceRequest, now time.Time) []dto.RequestDTO {
	result := make([]dto.RequestDTO, 0, len(requests))
	for _, r := range requests {
		result = append(result, toRequestDTO(r, now))
	}
	return result
}

// requestLess - общий порядок списка и колонок канбана: приоритет по убыванию, затем новые выше.
func requestLess(a, b *entities.MaintenanceRequest) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortRequests сортирует заявки на месте.
func SortRequests(requests []dto.RequestDTO) {
	sort.SliceStable(requests, func(i, j int) bool {
		return requestLess(&requests[i].MaintenanceRequest, &requests[j].MaintenanceRequest)
	})
}

// GroupKanban раскладывает заявки по четырём колонкам. Пустые колонки тоже присутствуют.
func GroupKanban(requests []entities.MaintenanceRequest, now time.Time) dto.KanbanDTO {
	kanban := make(dto.KanbanDTO, len(constants.AllStages))
	for _, stage := range constants.AllStages {
		kanban[stage] = make([]dto.RequestDTO, 0)
	}
	for _, r := range requests {
		if _, ok := kanban[r.Stage]; !ok {
			continue
		}
		kanban[r.Stage] = append(kanban[r.Stage], toRequestDTO(r, now))
	}
	for _, column := range kanban {
		SortRequests(column)
	}
	return kanban
}

// ToCalendarEvents превращает плановые заявки с датой в события календаря.
func ToCalendarEvents(requests []entities.MaintenanceRequest) []dto.CalendarEventDTO {
	events := make([]dto.CalendarEventDTO, 0, len(requests))
	for _, r := range requests {
		if r.Type != constants.TypePreventive || r.ScheduledDate == nil {
			continue
		}
		color := r.Stage.Color()
		events = append(events, dto.CalendarEventDTO{
			ID:     r.ID,
			Title:  r.Subject,
			Start:  *r.ScheduledDate,
			End:    *r.ScheduledDate,
			AllDay: true,
			ExtendedProps: dto.CalendarEventPropsDTO{
				Stage:      r.Stage,
				Equipment:  r.Equipment,
				Technician: r.Technician,
				Priority:   r.Priority,
			},
			BackgroundColor: color,
			BorderColor:     color,
		})
	}
	return events
}

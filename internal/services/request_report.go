package services

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gearguard/internal/authz"
	"gearguard/internal/dto"
)

const exportSheet = "Requests"

var exportHeaders = []interface{}{
	"ID", "Subject", "Type", "Stage", "Priority", "Equipment", "Team",
	"Technician", "Scheduled Date", "Duration (h)", "Created At", "Overdue",
}

func exportRow(r dto.RequestDTO) []interface{} {
	const dateFmt = "2006-01-02"
	var equipment, team, technician, scheduled, duration string
	if r.Equipment != nil {
		equipment = r.Equipment.Name
	}
	if r.Team != nil {
		team = r.Team.Name
	}
	if r.Technician != nil {
		technician = r.Technician.Name
	}
	if r.ScheduledDate != nil {
		scheduled = r.ScheduledDate.Format(dateFmt)
	}
	if r.Duration != nil {
		duration = fmt.Sprintf("%.2f", *r.Duration)
	}
	overdue := "no"
	if r.IsOverdue {
		overdue = "yes"
	}
	return []interface{}{
		r.ID, r.Subject, string(r.Type), string(r.Stage), r.Priority, equipment, team,
		technician, scheduled, duration, r.CreatedAt.Format(dateFmt + " 15:04"), overdue,
	}
}

// ExportRequests строит XLSX по тем же фильтрам, что и список. Доступно только менеджеру.
func (s *MaintenanceRequestService) ExportRequests(ctx context.Context, filter dto.RequestFilter) ([]byte, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.CanManage(actor, authz.RequestsExport).Err(); err != nil {
		return nil, err
	}

	requests, err := s.GetRequests(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, err
	}
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(exportSheet, "A1", "L1", style)

	for i, r := range requests {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := exportRow(r)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(exportSheet, "B", "B", 40)
	_ = f.SetColWidth(exportSheet, "F", "H", 25)

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("Ошибка формирования XLSX", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Экспорт заявок", zap.Uint64("actorID", actor.ID), zap.Int("rows", len(requests)))
	return buf.Bytes(), nil
}

package controllers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gearguard/internal/dto"
	"gearguard/internal/services"
	"gearguard/pkg/api"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type MaintenanceRequestController struct {
	requestService services.MaintenanceRequestServiceInterface
	logger         *zap.Logger
}

func NewMaintenanceRequestController(requestService services.MaintenanceRequestServiceInterface, logger *zap.Logger) *MaintenanceRequestController {
	return &MaintenanceRequestController{requestService: requestService, logger: logger}
}

// parseRequestFilter разбирает фильтры списка:
// ?type=PREVENTIVE&stage=NEW&team_id=1&equipment_id=2&technician_id=3&priority=4&overdue=true&scheduled_from=2024-12-01&scheduled_to=2024-12-31
func parseRequestFilter(query url.Values) (dto.RequestFilter, error) {
	var filter dto.RequestFilter

	if raw := query.Get("type"); raw != "" {
		t := constants.RequestType(raw)
		if !t.IsValid() {
			return filter, apperrors.NewInvalidInputError("type must be CORRECTIVE or PREVENTIVE")
		}
		filter.Type = &t
	}
	if raw := query.Get("stage"); raw != "" {
		s := constants.RequestStage(raw)
		if !s.IsValid() {
			return filter, apperrors.NewInvalidInputError("invalid stage")
		}
		filter.Stage = &s
	}
	if raw := query.Get("priority"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || !constants.IsValidPriority(p) {
			return filter, apperrors.NewInvalidInputError("priority must be between 1 and 4")
		}
		filter.Priority = &p
	}
	if raw := query.Get("overdue"); raw != "" {
		overdue, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, apperrors.NewInvalidInputError("overdue must be true or false")
		}
		filter.Overdue = overdue
	}

	var err error
	for key, target := range map[string]**uint64{
		"team_id":       &filter.TeamID,
		"equipment_id":  &filter.EquipmentID,
		"technician_id": &filter.TechnicianID,
	} {
		if *target, err = utils.ParseOptionalUint(query, key); err != nil {
			return filter, apperrors.NewInvalidInputError("%s", err.Error())
		}
	}
	if filter.ScheduledFrom, err = utils.ParseOptionalDate(query, "scheduled_from"); err != nil {
		return filter, apperrors.NewInvalidInputError("%s", err.Error())
	}
	if filter.ScheduledTo, err = utils.ParseOptionalDate(query, "scheduled_to"); err != nil {
		return filter, apperrors.NewInvalidInputError("%s", err.Error())
	}
	return filter, nil
}

func (c *MaintenanceRequestController) GetRequests(ctx echo.Context) error {
	filter, err := parseRequestFilter(ctx.QueryParams())
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	requests, err := c.requestService.GetRequests(ctx.Request().Context(), filter)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Maintenance requests", requests)
}

func (c *MaintenanceRequestController) GetKanban(ctx echo.Context) error {
	kanban, err := c.requestService.GetKanban(ctx.Request().Context())
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Kanban board", kanban)
}

func (c *MaintenanceRequestController) GetCalendar(ctx echo.Context) error {
	query := ctx.QueryParams()
	start, err := utils.ParseOptionalDate(query, "start")
	if err != nil {
		return api.ErrorResponse(ctx, apperrors.NewInvalidInputError("%s", err.Error()))
	}
	end, err := utils.ParseOptionalDate(query, "end")
	if err != nil {
		return api.ErrorResponse(ctx, apperrors.NewInvalidInputError("%s", err.Error()))
	}
	if start != nil && end != nil && end.Before(*start) {
		return api.ErrorResponse(ctx, apperrors.NewInvalidInputError("end must not be before start"))
	}

	events, err := c.requestService.GetCalendar(ctx.Request().Context(), start, end)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Calendar", events)
}

func (c *MaintenanceRequestController) GetStats(ctx echo.Context) error {
	stats, err := c.requestService.GetStats(ctx.Request().Context())
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Statistics", stats)
}

func (c *MaintenanceRequestController) ExportRequests(ctx echo.Context) error {
	filter, err := parseRequestFilter(ctx.QueryParams())
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	content, err := c.requestService.ExportRequests(ctx.Request().Context(), filter)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	filename := fmt.Sprintf("maintenance-requests-%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, xlsxContentType, content)
}

func (c *MaintenanceRequestController) FindRequest(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	request, err := c.requestService.FindRequest(ctx.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Maintenance request", request)
}

func (c *MaintenanceRequestController) CreateRequest(ctx echo.Context) error {
	var payload dto.CreateRequestDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	request, err := c.requestService.CreateRequest(ctx.Request().Context(), payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Maintenance request created", request)
}

func (c *MaintenanceRequestController) UpdateRequest(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.UpdateRequestDTO
	fields, err := bindPatch(ctx, &payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	payload.Fields = fields

	request, err := c.requestService.UpdateRequest(ctx.Request().Context(), id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Maintenance request updated", request)
}

func (c *MaintenanceRequestController) SetStage(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.SetStageDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	request, err := c.requestService.SetStage(ctx.Request().Context(), id, constants.RequestStage(payload.Stage))
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Stage updated", request)
}

func (c *MaintenanceRequestController) AssignTechnician(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.AssignTechnicianDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	request, err := c.requestService.AssignTechnician(ctx.Request().Context(), id, utils.Uint64Ptr(payload.TechnicianID))
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Technician updated", request)
}

func (c *MaintenanceRequestController) CompleteRequest(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.CompleteRequestDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	request, err := c.requestService.CompleteRequest(ctx.Request().Context(), id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Maintenance request completed", request)
}

func (c *MaintenanceRequestController) DeleteRequest(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	if err := c.requestService.DeleteRequest(ctx.Request().Context(), id); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Maintenance request deleted", nil)
}

package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gearguard/internal/dto"
	"gearguard/internal/services"
	"gearguard/pkg/api"
)

type TeamController struct {
	teamService services.TeamServiceInterface
	logger      *zap.Logger
}

func NewTeamController(teamService services.TeamServiceInterface, logger *zap.Logger) *TeamController {
	return &TeamController{teamService: teamService, logger: logger}
}

func (c *TeamController) GetTeams(ctx echo.Context) error {
	teams, err := c.teamService.GetTeams(ctx.Request().Context())
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Teams", teams)
}

func (c *TeamController) FindTeam(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	team, err := c.teamService.FindTeam(ctx.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Team", team)
}

func (c *TeamController) CreateTeam(ctx echo.Context) error {
	var payload dto.CreateTeamDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	team, err := c.teamService.CreateTeam(ctx.Request().Context(), payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Team created", team)
}

func (c *TeamController) UpdateTeam(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.UpdateTeamDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	team, err := c.teamService.UpdateTeam(ctx.Request().Context(), id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Team updated", team)
}

func (c *TeamController) DeleteTeam(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	if err := c.teamService.DeleteTeam(ctx.Request().Context(), id); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Team deleted", nil)
}

func (c *TeamController) AddMember(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.AddTeamMemberDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	user, err := c.teamService.AddMember(ctx.Request().Context(), id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Member added", user)
}

func (c *TeamController) RemoveMember(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	userID, err := parseID(ctx, "userId")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	if err := c.teamService.RemoveMember(ctx.Request().Context(), id, userID); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "Member removed", nil)
}

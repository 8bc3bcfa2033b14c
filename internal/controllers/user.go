package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gearguard/internal/dto"
	"gearguard/internal/services"
	"gearguard/pkg/api"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/utils"
)

type UserController struct {
	userService services.UserServiceInterface
	logger      *zap.Logger
}

func NewUserController(userService services.UserServiceInterface, logger *zap.Logger) *UserController {
	return &UserController{userService: userService, logger: logger}
}

func (c *UserController) GetUsers(ctx echo.Context) error {
	query := ctx.QueryParams()
	teamID, err := utils.ParseOptionalUint(query, "team_id")
	if err != nil {
		return api.ErrorResponse(ctx, apperrors.NewInvalidInputError("%s", err.Error()))
	}
	filter := dto.UserFilter{TeamID: teamID}
	if raw := query.Get("role"); raw != "" {
		role := constants.Role(raw)
		if !role.IsValid() {
			return api.ErrorResponse(ctx, apperrors.NewInvalidInputError("invalid role"))
		}
		filter.Role = &role
	}

	users, err := c.userService.GetUsers(ctx.Request().Context(), filter)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Users", users)
}

func (c *UserController) GetTechnicians(ctx echo.Context) error {
	teamID, err := utils.ParseOptionalUint(ctx.QueryParams(), "team_id")
	if err != nil {
		return api.ErrorResponse(ctx, apperrors.NewInvalidInputError("%s", err.Error()))
	}
	users, err := c.userService.GetTechnicians(ctx.Request().Context(), teamID)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Technicians", users)
}

func (c *UserController) FindUser(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	user, err := c.userService.FindUser(ctx.Request().Context(), id)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "User", user)
}

func (c *UserController) UpdateRole(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	var payload dto.UpdateUserRoleDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return api.ErrorResponse(ctx, err)
	}
	user, err := c.userService.UpdateRole(ctx.Request().Context(), id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Role updated", user)
}

package controllers

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/utils"
)

func parseID(ctx echo.Context, param string) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewInvalidInputError("invalid %s", param)
	}
	return id, nil
}

// bindAndValidate разбирает тело запроса и проверяет теги validate.
func bindAndValidate(ctx echo.Context, payload interface{}) error {
	if err := ctx.Bind(payload); err != nil {
		return apperrors.NewInvalidInputError("invalid request body")
	}
	return ctx.Validate(payload)
}

// bindPatch разбирает тело частичного обновления и возвращает ключи, которые реально пришли.
func bindPatch(ctx echo.Context, payload interface{}) (map[string]bool, error) {
	raw, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("invalid request body")
	}
	fields, err := utils.SentFields(raw)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("request body must be a JSON object")
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, apperrors.NewInvalidInputError("invalid request body")
	}
	if err := ctx.Validate(payload); err != nil {
		return nil, err
	}
	return fields, nil
}

package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gearguard/internal/authz"
	"gearguard/internal/entities"
	"gearguard/pkg/api"
	"gearguard/pkg/constants"
	"gearguard/pkg/contextkeys"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/service"
)

// UserFinder - источник актуальных данных пользователя (роль и команда могли смениться после выдачи токена).
type UserFinder interface {
	FindUserByID(ctx context.Context, id uint64) (*entities.User, error)
}

type AuthMiddleware struct {
	jwtService service.JWTService
	users      UserFinder
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, users UserFinder, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		users:      users,
		logger:     logger,
	}
}

// Auth проверяет access-токен и кладёт Actor в контекст запроса.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return api.ErrorResponse(c, apperrors.ErrEmptyAuthHeader)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("AuthMiddleware: Неверный формат заголовка Authorization")
			return api.ErrorResponse(c, apperrors.ErrInvalidAuthHeader)
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Debug("AuthMiddleware: Ошибка валидации токена", zap.Error(err))
			return api.ErrorResponse(c, err)
		}
		if claims.IsRefreshToken {
			m.logger.Warn("AuthMiddleware: Попытка доступа с refresh токеном", zap.Uint64("userID", claims.UserID))
			return api.ErrorResponse(c, apperrors.ErrTokenIsNotAccess)
		}

		ctx := c.Request().Context()
		user, err := m.users.FindUserByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return api.ErrorResponse(c, apperrors.NewUnauthorizedError("user not found"))
			}
			return api.ErrorResponse(c, err)
		}

		ctx = context.WithValue(ctx, contextkeys.UserIDKey, user.ID)
		ctx = authz.WithActor(ctx, authz.ActorFromUser(user))
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireRole пропускает только перечисленные роли. Ставится после Auth.
func RequireRole(roles ...constants.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := authz.ActorFromContext(c.Request().Context())
			if err != nil {
				return api.ErrorResponse(c, err)
			}
			for _, role := range roles {
				if actor.Role == role {
					return next(c)
				}
			}
			return api.ErrorResponse(c, apperrors.NewForbiddenError("insufficient permissions"))
		}
	}
}

package controllers

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gearguard/internal/authz"
	"gearguard/pkg/api"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/middleware"
	"gearguard/pkg/service"
	appwebsocket "gearguard/pkg/websocket"
)

type WebSocketController struct {
	hub        *appwebsocket.Hub
	jwtService service.JWTService
	users      middleware.UserFinder
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// allowedOrigins пустой - разрешены любые источники.
func NewWebSocketController(hub *appwebsocket.Hub, jwtService service.JWTService, users middleware.UserFinder, allowedOrigins []string, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		hub:        hub,
		jwtService: jwtService,
		users:      users,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeWs: браузер не умеет передавать заголовки при открытии WebSocket, поэтому токен приходит в ?token=.
func (c *WebSocketController) ServeWs(ctx echo.Context) error {
	tokenString := ctx.QueryParam("token")
	if tokenString == "" {
		return api.ErrorResponse(ctx, apperrors.ErrEmptyAuthHeader)
	}
	claims, err := c.jwtService.ValidateToken(tokenString)
	if err != nil {
		return api.ErrorResponse(ctx, err)
	}
	if claims.IsRefreshToken {
		return api.ErrorResponse(ctx, apperrors.ErrTokenIsNotAccess)
	}
	user, err := c.users.FindUserByID(ctx.Request().Context(), claims.UserID)
	if err != nil {
		return api.ErrorResponse(ctx, apperrors.NewUnauthorizedError("user not found"))
	}

	conn, err := c.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Warn("WebSocket: не удалось установить соединение", zap.Error(err))
		return nil
	}

	actor := authz.ActorFromUser(user)
	client := appwebsocket.NewClient(c.hub, conn, user.ID, actor.TeamScope())
	if !c.hub.Join(client) {
		c.logger.Warn("WebSocket: сервер останавливается, соединение закрыто", zap.Uint64("userID", user.ID))
		_ = conn.Close()
		return nil
	}

	go client.WritePump()
	go client.ReadPump()

	c.logger.Info("WebSocket: клиент подключён", zap.Uint64("userID", user.ID))
	return nil
}

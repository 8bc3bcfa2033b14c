package routes

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gearguard/internal/controllers"
	"gearguard/internal/listeners"
	"gearguard/internal/repositories"
	"gearguard/internal/services"
	"gearguard/pkg/config"
	"gearguard/pkg/eventbus"
	"gearguard/pkg/middleware"
	"gearguard/pkg/service"
	"gearguard/pkg/websocket"
)

// Dependencies - внешние ресурсы, которые main передаёт в роутер.
type Dependencies struct {
	DB     *pgxpool.Pool
	Redis  *redis.Client
	JWT    service.JWTService
	Hub    *websocket.Hub
	Bus    *eventbus.Bus
	Logger *zap.Logger
	Config *config.Config
}

// Handlers - собранные контроллеры и middleware авторизации.
type Handlers struct {
	AuthMW    *middleware.AuthMiddleware
	Auth      *controllers.AuthController
	User      *controllers.UserController
	Team      *controllers.TeamController
	Equipment *controllers.EquipmentController
	Request   *controllers.MaintenanceRequestController
	WebSocket *controllers.WebSocketController
	Health    *controllers.HealthController
}

// NewHandlers создаёт репозитории, сервисы и контроллеры и подписывает слушателей на шину.
func NewHandlers(deps Dependencies) *Handlers {
	logger := deps.Logger
	cfg := deps.Config

	// --- 1. РЕПОЗИТОРИИ ---
	txManager := repositories.NewTxManager(deps.DB)
	cacheRepo := repositories.NewRedisCacheRepository(deps.Redis)
	userRepo := repositories.NewUserRepository(deps.DB, logger)
	teamRepo := repositories.NewTeamRepository(deps.DB, logger)
	equipmentRepo := repositories.NewEquipmentRepository(deps.DB, logger)
	requestRepo := repositories.NewMaintenanceRequestRepository(deps.DB, logger)
	auditRepo := repositories.NewRequestAuditRepository(deps.DB)

	// --- 2. СЕРВИСЫ ---
	authService := services.NewAuthService(userRepo, cacheRepo, deps.JWT, logger, cfg.Auth)
	userService := services.NewUserService(userRepo, teamRepo, logger)
	teamService := services.NewTeamService(txManager, teamRepo, userRepo, equipmentRepo, requestRepo, logger)
	equipmentService := services.NewEquipmentService(equipmentRepo, teamRepo, requestRepo, logger)
	requestService := services.NewMaintenanceRequestService(
		txManager, requestRepo, equipmentRepo, userRepo, auditRepo, cacheRepo,
		deps.Bus, cfg.Cache, logger,
	)

	// --- 3. СЛУШАТЕЛИ ---
	listeners.NewCacheInvalidationListener(cacheRepo, logger).Register(deps.Bus)
	listeners.NewBoardListener(deps.Hub, logger).Register(deps.Bus)

	// --- 4. КОНТРОЛЛЕРЫ ---
	return &Handlers{
		AuthMW:    middleware.NewAuthMiddleware(deps.JWT, userRepo, logger),
		Auth:      controllers.NewAuthController(authService, logger),
		User:      controllers.NewUserController(userService, logger),
		Team:      controllers.NewTeamController(teamService, logger),
		Equipment: controllers.NewEquipmentController(equipmentService, logger),
		Request:   controllers.NewMaintenanceRequestController(requestService, logger),
		WebSocket: controllers.NewWebSocketController(deps.Hub, deps.JWT, userRepo, cfg.Server.AllowedOrigins, logger),
		Health: controllers.NewHealthController(map[string]controllers.Pinger{
			"postgres": deps.DB,
			"redis": controllers.PingFunc(func(ctx context.Context) error {
				return deps.Redis.Ping(ctx).Err()
			}),
		}, logger),
	}
}

// InitRouter регистрирует все маршруты приложения.
func InitRouter(e *echo.Echo, h *Handlers, cfg *config.Config, logger *zap.Logger) {
	logger.Info("InitRouter: Начало создания маршрутов")

	e.GET("/health", h.Health.Health)

	api := e.Group("/api", middleware.InjectLogger(logger))
	runAuthRouter(api, h, cfg.RateLimit)

	secureGroup := api.Group("", h.AuthMW.Auth)
	runUserRouter(secureGroup, h.User)
	runTeamRouter(secureGroup, h.Team)
	runEquipmentRouter(secureGroup, h.Equipment, cfg.Cache)
	runRequestRouter(secureGroup, h.Request)

	// токен передаётся в query, браузер не умеет ставить заголовки на upgrade
	api.GET("/ws", h.WebSocket.ServeWs)

	logger.Info("INIT_ROUTER: Создание маршрутов завершено")
}

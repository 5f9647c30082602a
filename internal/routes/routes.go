package routes

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"inventory-system/internal/authz"
	"inventory-system/internal/controllers"
	"inventory-system/internal/repositories"
	"inventory-system/internal/services"
	"inventory-system/pkg/codeimage"
	"inventory-system/pkg/config"
	"inventory-system/pkg/metrics"
	"inventory-system/pkg/middleware"
	"inventory-system/pkg/service"
	"inventory-system/pkg/validation"
)

type Loggers struct {
	Main      *zap.Logger
	Auth      *zap.Logger
	Equipment *zap.Logger
}

// Deps - всё, что создаётся в main и живёт до конца процесса
type Deps struct {
	DB         *pgxpool.Pool
	Redis      *redis.Client
	JWT        service.JWTService
	CodeImages codeimage.Generator
	Validator  *validation.CustomValidator
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry
	Config     *config.Config
	Loggers    *Loggers
}

// InitRouter собирает репозитории, сервисы и контроллеры и вешает маршруты.
// Возвращает сервис авторизации, чтобы main мог создать администратора по умолчанию.
func InitRouter(e *echo.Echo, deps Deps) services.AuthServiceInterface {
	loggers := deps.Loggers
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	txManager := repositories.NewTxManager(deps.DB)
	gatekeeper := authz.NewGatekeeper()

	// --- 1. РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(deps.DB, loggers.Auth)
	equipmentRepo := repositories.NewEquipmentRepository(deps.DB)
	historyRepo := repositories.NewEquipmentHistoryRepository(deps.DB)
	var cacheRepo repositories.CacheRepositoryInterface
	if deps.Redis != nil {
		cacheRepo = repositories.NewRedisCacheRepository(deps.Redis)
	}

	// --- 2. СЕРВИСЫ ---
	authService := services.NewAuthService(userRepo, cacheRepo, deps.JWT, deps.Validator,
		deps.Config.Auth, deps.Config.Redis, loggers.Auth)
	registry := services.NewIdentityRegistry(equipmentRepo, deps.CodeImages, nil, loggers.Equipment)
	auditLog := services.NewAuditLog(historyRepo)
	equipmentService := services.NewEquipmentService(txManager, equipmentRepo, registry, auditLog,
		deps.CodeImages, gatekeeper, deps.Validator, deps.Metrics, loggers.Equipment)
	directory := services.NewEquipmentDirectory(txManager, equipmentRepo, registry, auditLog,
		gatekeeper, deps.Validator, loggers.Equipment)

	// --- 3. КОНТРОЛЛЕРЫ ---
	authCtrl := controllers.NewAuthController(authService, deps.JWT, loggers.Auth)
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, directory, loggers.Equipment)

	// --- 4. РОУТЕРЫ ---
	authMW := middleware.NewAuthMiddleware(deps.JWT, authService, loggers.Auth)
	runAPIRouter(e, authCtrl, equipmentCtrl, authMW)
	runServiceRouter(e, deps)

	loggers.Main.Info("INIT_ROUTER: Создание маршрутов завершено")
	return authService
}

// runAPIRouter вешает /api. Principal подключается по группам, а не на весь /api:
// вход и обновление токенов должны работать с просроченным access-токеном в заголовке.
func runAPIRouter(e *echo.Echo, authCtrl *controllers.AuthController, equipmentCtrl *controllers.EquipmentController, authMW *middleware.AuthMiddleware) {
	api := e.Group("/api")

	runAuthRouter(api, authCtrl, authMW)
	runEquipmentRouter(api, equipmentCtrl, authMW)
}

// runServiceRouter - служебные маршруты вне /api
func runServiceRouter(e *echo.Echo, deps Deps) {
	e.GET("/health", func(c echo.Context) error {
		if err := deps.DB.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// изображения QR-кодов раздаются напрямую только при локальном хранилище
	if deps.Config.Storage.Driver == "" || deps.Config.Storage.Driver == "local" {
		e.Static("/uploads", deps.Config.Storage.LocalPath)
	}
}

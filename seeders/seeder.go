package seeders

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"inventory-system/internal/authz"
	"inventory-system/internal/dto"
	"inventory-system/internal/repositories"
	"inventory-system/internal/services"
	"inventory-system/pkg/codeimage"
	"inventory-system/pkg/config"
	"inventory-system/pkg/constants"
	"inventory-system/pkg/filestorage"
	"inventory-system/pkg/metrics"
	"inventory-system/pkg/service"
	"inventory-system/pkg/utils"
	"inventory-system/pkg/validation"
)

// newAuthService - настоящие валидатор и JWT; cache может быть nil
func newAuthService(db *pgxpool.Pool, cache repositories.CacheRepositoryInterface, cfg *config.Config, logger *zap.Logger) services.AuthServiceInterface {
	return services.NewAuthService(
		repositories.NewUserRepository(db, logger),
		cache,
		service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL),
		validation.New(),
		cfg.Auth,
		cfg.Redis,
		logger,
	)
}

// SeedDefaultAdmin создаёт администратора, если таблица пользователей пуста.
func SeedDefaultAdmin(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) (bool, error) {
	return newAuthService(db, nil, cfg, logger).EnsureDefaultAdmin(ctx)
}

func CreateUser(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zap.Logger, payload dto.CreateUserDTO) (*dto.UserPublicDTO, error) {
	return newAuthService(db, nil, cfg, logger).CreateUser(ctx, payload)
}

// ResetPassword - для случая, когда пароль администратора утерян. Через cache
// сервер перестанет отдавать старый принципал из Redis.
func ResetPassword(ctx context.Context, db *pgxpool.Pool, cache repositories.CacheRepositoryInterface, cfg *config.Config, logger *zap.Logger, payload dto.ResetPasswordDTO) error {
	return newAuthService(db, cache, cfg, logger).ResetPassword(ctx, payload)
}

// OpenCache подключается к Redis сервера. Если он недоступен, возвращает nil:
// команды работают и без кэша.
func OpenCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.CacheRepositoryInterface, func()) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis недоступен, кэш принципалов не будет сброшен", zap.Error(err))
		_ = client.Close()
		return nil, func() {}
	}
	return repositories.NewRedisCacheRepository(client), func() { _ = client.Close() }
}

var demoEquipment = []dto.CreateEquipmentDTO{
	{Name: "Дрель Bosch", Location: "Склад, стеллаж A"},
	{Name: "Ноутбук Lenovo T14", Location: "Кабинет 204", Notes: utils.ToPtr("Зарядка в комплекте")},
	{Name: "Проектор Epson", Location: "Переговорная 1"},
}

// SeedDemoEquipment заводит несколько единиц через обычный сервис, так что у каждой
// появляется QR-код и запись о создании в истории.
func SeedDemoEquipment(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) (int, error) {
	storage, err := filestorage.Open(ctx, cfg.Storage)
	if err != nil {
		return 0, err
	}
	codeImages := codeimage.NewQRGenerator(storage, logger)

	equipmentRepo := repositories.NewEquipmentRepository(db)
	registry := services.NewIdentityRegistry(equipmentRepo, codeImages, nil, logger)
	equipmentService := services.NewEquipmentService(
		repositories.NewTxManager(db),
		equipmentRepo,
		registry,
		services.NewAuditLog(repositories.NewEquipmentHistoryRepository(db)),
		codeImages,
		authz.NewGatekeeper(),
		validation.New(),
		metrics.New(prometheus.NewRegistry()),
		logger,
	)

	seedCtx := authz.WithPrincipal(ctx, &authz.Principal{Username: "seeder", Role: constants.RoleAdmin})
	for i, item := range demoEquipment {
		if _, err := equipmentService.CreateEquipment(seedCtx, item); err != nil {
			return i, fmt.Errorf("не удалось создать %q: %w", item.Name, err)
		}
	}
	return len(demoEquipment), nil
}

// Файл: internal/services/auth.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"inventory-system/internal/authz"
	"inventory-system/internal/dto"
	"inventory-system/internal/entities"
	"inventory-system/internal/repositories"
	"inventory-system/pkg/config"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/service"
	"inventory-system/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error)
	ResolvePrincipal(ctx context.Context, userID uint64) (*authz.Principal, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserPublicDTO, error)
	ResetPassword(ctx context.Context, payload dto.ResetPasswordDTO) error
	EnsureDefaultAdmin(ctx context.Context) (bool, error)
}

type AuthService struct {
	*BaseService
	userRepo     repositories.UserRepositoryInterface
	jwtService   service.JWTService
	validator    inputValidator
	cfg          config.AuthConfig
	principalTTL time.Duration
	logger       *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	validator inputValidator,
	cfg config.AuthConfig,
	redisCfg config.RedisConfig,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		BaseService:  NewBaseService(cacheRepo, logger),
		userRepo:     userRepo,
		jwtService:   jwtService,
		validator:    validator,
		cfg:          cfg,
		principalTTL: redisCfg.PrincipalTTL,
		logger:       logger,
	}
}

func principalCacheKey(userID uint64) string {
	return fmt.Sprintf("principal:%d", userID)
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	if err := s.validator.Validate(payload); err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("username", payload.Username))

	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(payload.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Попытка входа несуществующего пользователя")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.VerifyPassword(payload.Password, user.PasswordHash) {
		logger.Warn("Неверный пароль")
		return nil, apperrors.ErrInvalidCredentials
	}

	logger.Info("Успешный вход", zap.Uint64("userID", user.ID))
	return s.issueTokens(user)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error) {
	if refreshToken == "" {
		return nil, apperrors.ErrInvalidToken
	}
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("пользователь %d не найден: %w", claims.UserID, apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *entities.User) (*dto.AuthResponseDTO, error) {
	accessToken, refreshToken, err := s.jwtService.GenerateTokens(user.ID)
	if err != nil {
		return nil, fmt.Errorf("не удалось выпустить токены: %w", err)
	}
	return &dto.AuthResponseDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toUserPublicDTO(user),
	}, nil
}

// ResolvePrincipal - сначала кэш, потом БД. Удалённый пользователь даёт 401.
func (s *AuthService) ResolvePrincipal(ctx context.Context, userID uint64) (*authz.Principal, error) {
	key := principalCacheKey(userID)

	var cached authz.Principal
	if s.CacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("пользователь %d не найден: %w", userID, apperrors.ErrUnauthorized)
		}
		return nil, err
	}

	principal := &authz.Principal{ID: user.ID, Username: user.Username, Role: user.Role}
	s.CacheSet(ctx, key, principal, s.principalTTL)
	return principal, nil
}

func (s *AuthService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserPublicDTO, error) {
	if err := s.validator.Validate(payload); err != nil {
		return nil, err
	}
	if !constants.IsKnownRole(payload.Role) {
		return nil, apperrors.NewInvalidInputError("неизвестная роль: %s", payload.Role)
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, &entities.User{
		Username:     strings.TrimSpace(payload.Username),
		Role:         payload.Role,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Пользователь создан", zap.String("username", user.Username), zap.String("role", user.Role))
	out := toUserPublicDTO(user)
	return &out, nil
}

// ResetPassword меняет пароль и выкидывает пользователя из кэша принципалов.
func (s *AuthService) ResetPassword(ctx context.Context, payload dto.ResetPasswordDTO) error {
	if err := s.validator.Validate(payload); err != nil {
		return err
	}

	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(payload.Username))
	if err != nil {
		return err
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	s.CacheDel(ctx, principalCacheKey(user.ID))
	s.logger.Info("Пароль пользователя изменён", zap.String("username", user.Username))
	return nil
}

// EnsureDefaultAdmin создаёт администратора по умолчанию, если пользователей ещё нет.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context) (bool, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	_, err = s.CreateUser(ctx, dto.CreateUserDTO{
		Username: s.cfg.DefaultAdminUsername,
		Password: s.cfg.DefaultAdminPassword,
		Role:     constants.RoleAdmin,
	})
	if err != nil {
		// параллельный старт мог успеть создать его раньше
		if errors.Is(err, apperrors.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	s.logger.Warn("Создан администратор по умолчанию, смените пароль", zap.String("username", s.cfg.DefaultAdminUsername))
	return true, nil
}

func toUserPublicDTO(user *entities.User) dto.UserPublicDTO {
	return dto.UserPublicDTO{ID: user.ID, Username: user.Username, Role: user.Role}
}

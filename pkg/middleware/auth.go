package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/authz"
	"inventory-system/pkg/api"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/service"
)

// PrincipalResolver превращает UserID из токена в Principal (пользователь мог быть удалён).
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID uint64) (*authz.Principal, error)
}

type AuthMiddleware struct {
	jwtService service.JWTService
	resolver   PrincipalResolver
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, resolver PrincipalResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		resolver:   resolver,
		logger:     logger,
	}
}

// Principal определяет вызывающего. Без заголовка запрос идёт дальше анонимно;
// испорченный заголовок или токен - это 401, а не тихий переход в аноним.
func (m *AuthMiddleware) Principal(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return next(c)
		}

		// Формат "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("AuthMiddleware: Неверный формат заголовка Authorization")
			return api.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("AuthMiddleware: Ошибка валидации токена", zap.Error(err))
			return api.ErrorResponse(c, err, m.logger)
		}

		if claims.IsRefreshToken {
			m.logger.Warn("AuthMiddleware: Попытка доступа с refresh токеном")
			return api.ErrorResponse(c, apperrors.ErrTokenIsNotAccess, m.logger)
		}

		ctx := c.Request().Context()
		principal, err := m.resolver.ResolvePrincipal(ctx, claims.UserID)
		if err != nil {
			m.logger.Warn("AuthMiddleware: Не удалось определить пользователя", zap.Uint64("userID", claims.UserID), zap.Error(err))
			return api.ErrorResponse(c, err, m.logger)
		}

		c.SetRequest(c.Request().WithContext(authz.WithPrincipal(ctx, principal)))
		return next(c)
	}
}

// RequirePrincipal - для маршрутов, где аноним не имеет смысла (например /auth/me)
func (m *AuthMiddleware) RequirePrincipal(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if authz.PrincipalFromContext(c.Request().Context()) == nil {
			return api.ErrorResponse(c, apperrors.ErrUnauthorized, m.logger)
		}
		return next(c)
	}
}

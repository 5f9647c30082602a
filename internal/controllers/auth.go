package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/authz"
	"inventory-system/internal/dto"
	"inventory-system/internal/services"
	"inventory-system/pkg/api"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/service"
)

const refreshCookieName = "refreshToken"

type AuthController struct {
	authService services.AuthServiceInterface
	jwtSvc      service.JWTService
	logger      *zap.Logger
}

func NewAuthController(
	authService services.AuthServiceInterface,
	jwtSvc service.JWTService,
	logger *zap.Logger,
) *AuthController {
	return &AuthController{
		authService: authService,
		jwtSvc:      jwtSvc,
		logger:      logger,
	}
}

func (ctrl *AuthController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *AuthController) Login(c echo.Context) error {
	var payload dto.LoginDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Warn("Login: ошибка привязки данных", zap.Error(err))
		return ctrl.errorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных для входа", err, nil))
	}

	res, err := ctrl.authService.Login(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	ctrl.setRefreshCookie(c, res.RefreshToken)
	return api.SuccessOne(c, http.StatusOK, "Авторизация прошла успешно", res)
}

// RefreshToken принимает refresh-токен из cookie, а если её нет - из тела запроса.
func (ctrl *AuthController) RefreshToken(c echo.Context) error {
	var token string
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		token = cookie.Value
	} else {
		var payload dto.RefreshDTO
		if err := c.Bind(&payload); err != nil {
			return ctrl.errorResponse(c, apperrors.ErrUnauthorized)
		}
		token = payload.RefreshToken
	}
	if token == "" {
		return ctrl.errorResponse(c, apperrors.ErrUnauthorized)
	}

	res, err := ctrl.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	ctrl.setRefreshCookie(c, res.RefreshToken)
	return api.SuccessOne(c, http.StatusOK, "Токены успешно обновлены", res)
}

func (ctrl *AuthController) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return api.SuccessOne[any](c, http.StatusOK, "Вы успешно вышли из системы.", nil)
}

func (ctrl *AuthController) Me(c echo.Context) error {
	principal := authz.PrincipalFromContext(c.Request().Context())
	if principal == nil {
		return ctrl.errorResponse(c, apperrors.ErrUnauthorized)
	}
	return api.SuccessOne(c, http.StatusOK, "Текущий пользователь", dto.UserPublicDTO{
		ID:       principal.ID,
		Username: principal.Username,
		Role:     principal.Role,
	})
}

func (ctrl *AuthController) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ctrl.jwtSvc.GetRefreshTokenTTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

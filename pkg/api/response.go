package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "inventory-system/pkg/errors"
)

type Response[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Body    T      `json:"body,omitempty"`
}

// ListResponse - body всегда присутствует, пустой список отдаётся как []
type ListResponse[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Body    []T    `json:"body"`
}

type ErrorBody struct {
	Fields map[string]string `json:"fields,omitempty"`
}

// SuccessOne - для возврата одного объекта
func SuccessOne[T any](c echo.Context, code int, message string, data T) error {
	return c.JSON(code, Response[T]{
		Status:  true,
		Message: message,
		Body:    data,
	})
}

// SuccessList - для списков; nil превращается в пустой массив
func SuccessList[T any](c echo.Context, message string, list []T) error {
	if list == nil {
		list = make([]T, 0)
	}
	return c.JSON(http.StatusOK, ListResponse[T]{
		Status:  true,
		Message: message,
		Body:    list,
	})
}

// ErrorResponse переводит доменную ошибку в HTTP-ответ. Технические детали только в логах.
func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	code, msg, fields := classify(err)

	if code >= http.StatusInternalServerError && logger != nil {
		logger.Error("Внутренняя ошибка при обработке запроса",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err),
		)
	}

	resp := Response[*ErrorBody]{Status: false, Message: msg}
	if len(fields) > 0 {
		resp.Body = &ErrorBody{Fields: fields}
	}
	return c.JSON(code, resp)
}

func classify(err error) (int, string, map[string]string) {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Code, httpErr.Message, nil
	}

	var inputErr *apperrors.InvalidInputError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest, inputErr.Message, inputErr.Fields
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, apperrors.ErrNotFound.Error(), nil
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, apperrors.ErrBadRequest.Error(), nil
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, apperrors.ErrForbidden.Error(), nil
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, apperrors.ErrConflict.Error(), nil
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrTokenNotYetValid),
		errors.Is(err, apperrors.ErrInvalidSigningMethod),
		errors.Is(err, apperrors.ErrTokenIsNotAccess),
		errors.Is(err, apperrors.ErrTokenIsNotRefresh),
		errors.Is(err, apperrors.ErrInvalidAuthHeader):
		return http.StatusUnauthorized, err.Error(), nil
	}

	return http.StatusInternalServerError, "Внутренняя ошибка сервера", nil
}

package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"

	apperrors "inventory-system/pkg/errors"
)

// CustomValidator - обертка для использования в Echo и в сервисах
type CustomValidator struct {
	validator *validator.Validate
}

// Validate реализует интерфейс echo.Validator. Ошибки правил сразу переводятся в InvalidInputError.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			return translate(vErrs)
		}
		return apperrors.NewInvalidInputError("некорректные данные: %v", err)
	}
	return nil
}

// New создает и настраивает валидатор
func New() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	useJSONNames(v)

	// Если правило не зарегистрировалось - паникуем, сервер не должен стартовать
	if err := registerRules(v); err != nil {
		panic("ошибка регистрации валидаторов: " + err.Error())
	}

	return &CustomValidator{validator: v}
}

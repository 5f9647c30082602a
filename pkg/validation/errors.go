package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "inventory-system/pkg/errors"
)

// translate собирает ошибки по полям в одну InvalidInputError
func translate(vErrs validator.ValidationErrors) error {
	fields := make(map[string]string, len(vErrs))
	for _, fe := range vErrs {
		fields[fe.Field()] = describe(fe)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, fields[name]))
	}

	return apperrors.NewFieldsError("Ошибка валидации: "+strings.Join(parts, "; "), fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "not_blank":
		return "обязательное поле"
	case "max":
		return fmt.Sprintf("длина не должна превышать %s", fe.Param())
	case "min":
		return fmt.Sprintf("длина должна быть не меньше %s", fe.Param())
	case "equipment_status":
		return "допустимые значения: available, issued, lost"
	case "oneof":
		return fmt.Sprintf("допустимые значения: %s", fe.Param())
	default:
		return fmt.Sprintf("не прошло проверку '%s'", fe.Tag())
	}
}

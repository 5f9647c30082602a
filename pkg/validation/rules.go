package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"inventory-system/pkg/constants"
)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("equipment_status", isEquipmentStatus); err != nil {
		return err
	}
	if err := v.RegisterValidation("not_blank", isNotBlank); err != nil {
		return err
	}
	return nil
}

// useJSONNames - в ошибках показываем имя поля из json-тега, а не имя поля структуры
func useJSONNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// isEquipmentStatus - available | issued | lost
func isEquipmentStatus(fl validator.FieldLevel) bool {
	return constants.EquipmentStatus(fl.Field().String()).IsValid()
}

// isNotBlank - строка не должна состоять из одних пробелов
func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

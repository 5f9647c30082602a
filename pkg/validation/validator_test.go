package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "inventory-system/pkg/errors"
)

type sample struct {
	Name   string  `json:"name" validate:"required,not_blank,max=5"`
	Status string  `json:"status" validate:"required,equipment_status"`
	Notes  *string `json:"notes" validate:"omitnil,max=3"`
}

func TestValidate(t *testing.T) {
	v := New()
	long := "longer"

	cases := []struct {
		name   string
		input  sample
		fields []string
	}{
		{"ок", sample{Name: "Drill", Status: "lost"}, nil},
		{"пустое имя", sample{Name: "", Status: "lost"}, []string{"name"}},
		{"имя из пробелов", sample{Name: "   ", Status: "issued"}, []string{"name"}},
		{"длинное имя", sample{Name: "abcdef", Status: "available"}, []string{"name"}},
		{"чужой статус", sample{Name: "a", Status: "broken"}, []string{"status"}},
		{"статус с другим регистром", sample{Name: "a", Status: "Issued"}, []string{"status"}},
		{"длинные заметки", sample{Name: "a", Status: "lost", Notes: &long}, []string{"notes"}},
		{"всё плохо", sample{}, []string{"name", "status"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.input)
			if tc.fields == nil {
				assert.NoError(t, err)
				return
			}
			var inputErr *apperrors.InvalidInputError
			require.True(t, errors.As(err, &inputErr))
			assert.Len(t, inputErr.Fields, len(tc.fields))
			for _, f := range tc.fields {
				assert.Contains(t, inputErr.Fields, f)
			}
		})
	}
}

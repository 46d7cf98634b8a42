package val

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const tagNotBlank = "notblank"

func registerCustomValidations(v *validator.Validate) {
	_ = v.RegisterValidation(tagNotBlank, isNotBlank)
}

// isNotBlank fails strings that are empty or only whitespace.
func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

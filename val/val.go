// Package val validates structs with go-playground/validator and reports failures
// as errx validation errors.
package val

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate //nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use

func init() { //nolint:gochecknoinits // custom validations must be registered before first use
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(getTagName)
	registerCustomValidations(validate)
}

// getTagName names a field after its json tag, falling back to the field name.
func getTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0] //nolint:mnd // name and options
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

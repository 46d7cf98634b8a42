package cfgloader

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

func printConfig(config any) {
	out, err := yaml.Marshal(maskValue(reflect.ValueOf(config)).Interface())
	if err != nil {
		slog.Error("failed to marshal config", "error", err.Error())
		return
	}
	slog.Info(fmt.Sprintf("Loaded config:\n%s", string(out)))
}

// maskValue returns a copy of val where string fields tagged `mask:"true"`
// are replaced by asterisks.
func maskValue(val reflect.Value) reflect.Value {
	switch val.Kind() { //nolint:exhaustive // only containers need walking
	case reflect.Ptr:
		if val.IsNil() {
			return val
		}
		ptr := reflect.New(val.Elem().Type())
		ptr.Elem().Set(maskValue(val.Elem()))
		return ptr

	case reflect.Struct:
		masked := reflect.New(val.Type()).Elem()
		for i := range val.NumField() {
			field := val.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			fv := val.Field(i)
			if field.Tag.Get("mask") == "true" && fv.Kind() == reflect.String {
				masked.Field(i).SetString(strings.Repeat("*", fv.Len()))
				continue
			}
			masked.Field(i).Set(maskValue(fv))
		}
		return masked

	default:
		return val
	}
}

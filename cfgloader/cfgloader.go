// Package cfgloader loads and validates configuration at application start.
package cfgloader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"

	envVarName = "ENVIRONMENT"
)

// MustLoad is Load that logs the failure and exits the process.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		slog.Error("[cfgloader]: " + err.Error())
		os.Exit(1)
	}
	return cfg
}

// Load reads ${dir}/${ENVIRONMENT}.yaml, expands ${VAR} references from the
// environment (after loading .env if present), applies `default` tags and
// validates the result with `validate` tags.
//
//	type Config struct {
//	    Host string `yaml:"host" validate:"required"`
//	    Port int    `yaml:"port" default:"8080"`
//	}
func Load[T any](opts ...Option) (T, error) {
	var cfg T

	o := Options{Dir: "./config"}
	for _, opt := range opts {
		opt(&o)
	}

	if reflect.ValueOf(cfg).Kind() == reflect.Ptr {
		return cfg, errors.New("config type must not be a pointer")
	}

	_ = godotenv.Load()

	env := os.Getenv(envVarName)
	if !slices.Contains([]string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}, env) {
		return cfg, fmt.Errorf(
			"%s env variable is not set or invalid. Choices are: production, staging, dev, local, test",
			envVarName,
		)
	}

	path := filepath.Join(o.Dir, env+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal %s config file: %w", env, err)
	}

	if err = defaults.Set(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to set default values for config: %w", err)
	}

	if err = validate(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid fields in %s config -> %w", env, err)
	}

	if !o.Silent {
		printConfig(cfg)
	}

	return cfg, nil
}

func validate(cfg any) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	failed := make([]string, 0, len(errs))
	for _, fe := range errs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		failed = append(failed, fmt.Sprintf("%s: %s", fe.Namespace(), tag))
	}
	return errors.New(strings.Join(failed, ",  "))
}

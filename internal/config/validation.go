package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct tags and the rules that span several fields.
func Validate(cfg *Config) error {
	v := validator.New()
	// Report config keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("koanf")
	})
	if err := v.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return formatValidationErrors(fieldErrs)
		}
		return wrap(ErrInvalidConfig, err)
	}
	return validateCrossField(cfg)
}

func validateCrossField(cfg *Config) error {
	if cfg.PredictRateLimit > 0 && cfg.PredictRateBurst < 1 {
		return fmt.Errorf("%w: predict_rate_burst must be at least 1 when predict_rate_limit is set", ErrInvalidConfig)
	}
	if cfg.BreakerOpenTimeoutMS < cfg.ModelTimeoutMS {
		return fmt.Errorf("%w: breaker_open_timeout_ms must not be shorter than model_timeout_ms", ErrInvalidConfig)
	}
	return nil
}

func formatValidationErrors(fieldErrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fe.Field()
		switch fe.Tag() {
		case "required", "required_if", "required_without":
			msgs = append(msgs, key+" must not be empty")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid URL, got %q", key, fe.Value()))
		case "gt", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", key, fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", key, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func wrap(kind, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}

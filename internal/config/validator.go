package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/promoforge/promoforge/internal/types"
)

// Validate checks the configuration's struct tags plus the cross-field
// rules the tags cannot express.
func Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}

	if err := validator.New().Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, "validation error", err)
		}

		messages := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			messages = append(messages, formatValidationError(e))
		}
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"configuration validation failed:\n  - "+strings.Join(messages, "\n  - "))
	}

	if cfg.Model.Provider != "mock" && cfg.Model.APIKey == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("model.api_key is required for provider %q", cfg.Model.Provider))
	}

	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Namespace())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", e.Namespace(), e.Param(), e.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", e.Namespace(), e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", e.Namespace(), e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed %s validation (got: %v)", e.Namespace(), e.Tag(), e.Value())
	}
}

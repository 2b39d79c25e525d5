package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// Validator wraps go-playground/validator with the tags used by request DTOs.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator registers the notblank tag and reports field names by their
// JSON key so error details match what the client sent.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		logger.Error("failed to register notblank validator", "error", err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct validates s and returns a validation_missing_required_field
// AppError listing the offending fields. message becomes the caller-facing
// text; an empty message falls back to a generic one.
func (v *Validator) ValidateStruct(s any, message string) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.logger.Error("struct validation failed unexpectedly", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, genericInternalMessage, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	if message == "" {
		message = "missing or invalid fields: " + strings.Join(fields, ", ")
	}

	return types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField, message, err,
		map[string]any{"fields": fields})
}

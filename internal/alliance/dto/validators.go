package dto

import (
	"fmt"
	"regexp"
	"strings"

	"statecraft/pkg/apperrors"

	"github.com/go-playground/validator/v10"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// NewValidator returns a validator with the alliance rules registered
func NewValidator() (*validator.Validate, error) {
	validate := validator.New()
	if err := RegisterCustomValidators(validate); err != nil {
		return nil, err
	}
	return validate, nil
}

// RegisterCustomValidators registers custom validation rules for alliance module
func RegisterCustomValidators(validate *validator.Validate) error {
	if err := validate.RegisterValidation("alliance_color", validateAllianceColor); err != nil {
		return fmt.Errorf("failed to register alliance_color validator: %w", err)
	}
	return nil
}

// validateAllianceColor accepts #RRGGBB hex colors
func validateAllianceColor(fl validator.FieldLevel) bool {
	return colorPattern.MatchString(fl.Field().String())
}

// ValidateStruct validates s and folds every failure into one InvalidInput error
func ValidateStruct(validate *validator.Validate, s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(apperrors.KindInvalidInput, apperrors.CodeInvalidInput, "invalid input", err)
	}

	code := apperrors.CodeInvalidInput
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Tag() == "alliance_color" {
			code = apperrors.CodeInvalidColor
		}
		messages = append(messages, formatValidationError(fe))
	}
	return apperrors.New(apperrors.KindInvalidInput, code, strings.Join(messages, "; "))
}

// formatValidationError formats validation errors for user-friendly messages
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "alliance_color":
		return fmt.Sprintf("%s must be a #RRGGBB color", err.Field())
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}

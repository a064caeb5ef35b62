package dto

import (
	"fmt"
	"strings"

	"statecraft/internal/wars/models"
	"statecraft/pkg/apperrors"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator with the war rules registered
func NewValidator() (*validator.Validate, error) {
	validate := validator.New()
	if err := RegisterCustomValidators(validate); err != nil {
		return nil, err
	}
	return validate, nil
}

// RegisterCustomValidators registers custom validation rules for wars module
func RegisterCustomValidators(validate *validator.Validate) error {
	if err := validate.RegisterValidation("battle_type", validateBattleType); err != nil {
		return fmt.Errorf("failed to register battle_type validator: %w", err)
	}
	return nil
}

// validateBattleType accepts the known battle types
func validateBattleType(fl validator.FieldLevel) bool {
	return models.BattleType(fl.Field().String()).Valid()
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

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatValidationError(fe))
	}
	return apperrors.New(apperrors.KindInvalidInput, apperrors.CodeInvalidInput, strings.Join(messages, "; "))
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
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "battle_type":
		return fmt.Sprintf("%s must be one of FIELD_BATTLE, SIEGE, FLAG_CAPTURE, SCENARIO, DUEL_TOURNAMENT", err.Field())
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}

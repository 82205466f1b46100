package validator

import (
	"github.com/dmitrymomot/onboardkit/pkg/password"
)

// PasswordStrength fails when a non-empty password is below password.Threshold.
func PasswordStrength(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return value == "" || password.Acceptable(value)
		},
		Error: ValidationError{
			Field:          field,
			Message:        "password is too weak",
			TranslationKey: "validation.password_strength",
			TranslationValues: map[string]any{
				"field":    field,
				"required": password.Threshold.String(),
			},
		},
	}
}

// PasswordsMatch fails when a non-empty confirmation differs from the password.
func PasswordsMatch(field, pw, confirm string) Rule {
	return Rule{
		Check: func() bool {
			return confirm == "" || pw == "" || password.Match(pw, confirm)
		},
		Error: ValidationError{
			Field:             field,
			Message:           "passwords do not match",
			TranslationKey:    "validation.password_match",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

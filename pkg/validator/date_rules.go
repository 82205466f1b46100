package validator

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for dates of birth.
const DateLayout = "2006-01-02"

// ValidDate fails when a non-empty value does not parse as DateLayout.
func ValidDate(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			_, err := time.Parse(DateLayout, value)
			return err == nil
		},
		Error: ValidationError{
			Field:             field,
			Message:           "must be a date in YYYY-MM-DD format",
			TranslationKey:    "validation.date",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// ValidBirthdate rejects future dates and dates more than 150 years ago.
// Unparseable values pass; ValidDate reports them.
func ValidBirthdate(field, value string, now time.Time) Rule {
	return Rule{
		Check: func() bool {
			d, err := time.Parse(DateLayout, value)
			if err != nil {
				return true
			}
			return !d.After(now) && d.After(now.AddDate(-150, 0, 0))
		},
		Error: ValidationError{
			Field:             field,
			Message:           "must not be in the future or more than 150 years ago",
			TranslationKey:    "validation.valid_birthdate",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// MinAge fails when the person born on value is younger than minAge at now.
func MinAge(field, value string, minAge int, now time.Time) Rule {
	return Rule{
		Check: func() bool {
			d, err := time.Parse(DateLayout, value)
			if err != nil {
				return true
			}
			return Age(d, now) >= minAge
		},
		Error: ValidationError{
			Field:             field,
			Message:           fmt.Sprintf("minimum age of %d years required", minAge),
			TranslationKey:    "validation.min_age",
			TranslationValues: map[string]any{"field": field, "min_age": minAge},
		},
	}
}

// Age returns full years elapsed between birth and now.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

package validator

import (
	"net/mail"
	"regexp"
	"strings"
)

var (
	// Optional "+", optional country code, 10 to 15 digits overall.
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	otpRegex   = regexp.MustCompile(`^[0-9A-Za-z]{4,8}$`)
)

// ValidEmail validates an address with net/mail and requires a dotted domain.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value {
				return false
			}
			local, domain, ok := strings.Cut(value, "@")
			if !ok || local == "" {
				return false
			}
			if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
				return false
			}
			for part := range strings.SplitSeq(domain, ".") {
				if part == "" {
					return false
				}
			}
			return true
		},
		Error: ValidationError{
			Field:             field,
			Message:           "must be a valid email address",
			TranslationKey:    "validation.email",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// ValidPhone accepts digits with an optional leading "+"; spaces and dashes are ignored.
func ValidPhone(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			cleaned := strings.NewReplacer(" ", "", "-", "").Replace(value)
			return phoneRegex.MatchString(cleaned)
		},
		Error: ValidationError{
			Field:             field,
			Message:           "must be a valid phone number",
			TranslationKey:    "validation.phone",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// ValidOTP accepts 4 to 8 alphanumeric characters.
func ValidOTP(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return value == "" || otpRegex.MatchString(value)
		},
		Error: ValidationError{
			Field:             field,
			Message:           "must be the code from the verification email",
			TranslationKey:    "validation.otp",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

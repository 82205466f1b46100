package signup

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalizeName trims, collapses inner whitespace and title-cases a person's
// name: "  ada   LOVELACE " becomes "Ada Lovelace".
func normalizeName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(s)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizePhone drops the separators people type into phone numbers.
func normalizePhone(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(s))
}

func normalizeChoice(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

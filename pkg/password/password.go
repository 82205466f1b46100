package password

import (
	"strings"
	"unicode"
)

// Strength is the coarse classification shown next to a password field.
type Strength int

const (
	Weak Strength = iota
	Medium
	Strong
)

// MaxScore is the highest value Score can return.
const MaxScore = 6

// Threshold is the minimum strength required to enable submission.
const Threshold = Medium

func (s Strength) String() string {
	switch s {
	case Strong:
		return "Strong"
	case Medium:
		return "Medium"
	default:
		return "Weak"
	}
}

// MarshalText renders the strength as its label for JSON/YAML output.
func (s Strength) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Score returns a value in [0, MaxScore].
func Score(pw string) int {
	if pw == "" || IsCommon(pw) {
		return 0
	}

	n := len([]rune(pw))
	score := 0
	if n >= 8 {
		score++
	}
	if n >= 12 {
		score++
	}

	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
		default:
			special = true
		}
	}
	for _, ok := range []bool{lower, upper, digit, special} {
		if ok {
			score++
		}
	}
	return score
}

// Classify maps a password to Weak, Medium or Strong.
func Classify(pw string) Strength {
	switch s := Score(pw); {
	case s >= 5:
		return Strong
	case s >= 3:
		return Medium
	default:
		return Weak
	}
}

// Acceptable reports whether pw reaches Threshold.
func Acceptable(pw string) bool {
	return Classify(pw) >= Threshold
}

// Match reports whether the confirmation equals the password. An empty
// confirmation never matches.
func Match(pw, confirm string) bool {
	return confirm != "" && pw == confirm
}

// IsCommon reports whether pw appears on the list of frequently leaked passwords.
func IsCommon(pw string) bool {
	return commonPasswords[strings.ToLower(pw)]
}

// Report bundles the values a form renders next to the password inputs.
type Report struct {
	Score      int      `json:"score"`
	Strength   Strength `json:"strength"`
	Acceptable bool     `json:"acceptable"`
	Match      bool     `json:"match"`
}

// Evaluate computes a Report for a password and its confirmation.
func Evaluate(pw, confirm string) Report {
	st := Classify(pw)
	return Report{
		Score:      Score(pw),
		Strength:   st,
		Acceptable: st >= Threshold,
		Match:      Match(pw, confirm),
	}
}

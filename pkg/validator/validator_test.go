package validator_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/onboardkit/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		err := validator.Apply(
			validator.RequiredString("email", "a@b.com"),
			validator.ValidEmail("email", "a@b.com"),
		)
		assert.NoError(t, err)
	})

	t.Run("first failure per field wins", func(t *testing.T) {
		err := validator.Apply(
			validator.RequiredString("email", ""),
			validator.ValidEmail("email", ""),
			validator.RequiredString("password", "x"),
			validator.PasswordStrength("password", "x"),
		)
		require.Error(t, err)

		verrs := validator.ExtractValidationErrors(err)
		require.Len(t, verrs, 2)
		assert.Equal(t, "field is required", verrs.Get("email"))
		assert.Equal(t, "password is too weak", verrs.Get("password"))
		assert.Equal(t, []string{"email", "password"}, verrs.Fields())
	})

	t.Run("errors.Is and wrapping", func(t *testing.T) {
		err := fmt.Errorf("step 1: %w", validator.Apply(validator.RequiredString("email", " ")))
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
		assert.True(t, validator.IsValidationError(err))
		assert.Equal(t, map[string]string{"email": "field is required"}, validator.ExtractValidationErrors(err).Map())
	})
}

func TestMerge(t *testing.T) {
	a := validator.Apply(validator.RequiredString("first_name", ""))
	b := validator.Apply(validator.RequiredString("first_name", ""), validator.RequiredString("last_name", ""))

	merged := validator.ExtractValidationErrors(validator.Merge(nil, a, b))
	assert.Equal(t, []string{"first_name", "last_name"}, merged.Fields())

	assert.NoError(t, validator.Merge(nil, nil))

	other := errors.New("network down")
	assert.Equal(t, other, validator.Merge(a, other))
}

func TestFormatRules(t *testing.T) {
	tests := []struct {
		name string
		rule validator.Rule
		ok   bool
	}{
		{"email ok", validator.ValidEmail("email", "a@b.com"), true},
		{"email empty passes", validator.ValidEmail("email", ""), true},
		{"email without dot", validator.ValidEmail("email", "a@b"), false},
		{"email display name", validator.ValidEmail("email", "A <a@b.com>"), false},
		{"phone ok", validator.ValidPhone("phone", "+91 98765-43210"), true},
		{"phone short", validator.ValidPhone("phone", "12345"), false},
		{"otp ok", validator.ValidOTP("otp", "1234"), true},
		{"otp bad", validator.ValidOTP("otp", "12"), false},
		{"one of", validator.OneOfString("gender", "female", []string{"female", "male"}), true},
		{"not one of", validator.OneOfString("gender", "x", []string{"female", "male"}), false},
		{"match", validator.PasswordsMatch("confirm_password", "Str0ng!Pass99", "Str0ng!Pass99"), true},
		{"mismatch", validator.PasswordsMatch("confirm_password", "Str0ng!Pass99", "nope"), false},
		{"mismatch skipped without password", validator.PasswordsMatch("confirm_password", "", "nope"), true},
		{"when false", validator.When(false, validator.RequiredString("x", "")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.rule.Check())
		})
	}
}

func TestDateRules(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	assert.True(t, validator.ValidDate("dob", "2000-02-29").Check())
	assert.False(t, validator.ValidDate("dob", "29/02/2000").Check())
	assert.False(t, validator.ValidBirthdate("dob", "2030-01-01", now).Check())
	assert.False(t, validator.ValidBirthdate("dob", "1850-01-01", now).Check())
	assert.True(t, validator.MinAge("dob", "2008-10-19", 18, now).Check())
	assert.False(t, validator.MinAge("dob", "2008-10-20", 18, now).Check())
	assert.Equal(t, 17, validator.Age(time.Date(2008, 10, 20, 0, 0, 0, 0, time.UTC), now))
}

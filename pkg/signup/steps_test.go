package signup_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/onboardkit/pkg/signup"
	"github.com/dmitrymomot/onboardkit/pkg/validator"
)

var blank = map[string]func(d *signup.Draft){
	signup.FieldEmail:           func(d *signup.Draft) { d.Account.Email = "" },
	signup.FieldPassword:        func(d *signup.Draft) { d.Account.Password = "" },
	signup.FieldConfirmPassword: func(d *signup.Draft) { d.Account.ConfirmPassword = "" },
	signup.FieldOTP:             func(d *signup.Draft) { d.Verification.Code = "" },
	signup.FieldFirstName:       func(d *signup.Draft) { d.Personal.FirstName = " " },
	signup.FieldLastName:        func(d *signup.Draft) { d.Personal.LastName = "" },
	signup.FieldDateOfBirth:     func(d *signup.Draft) { d.Personal.DateOfBirth = "" },
	signup.FieldGender:          func(d *signup.Draft) { d.Personal.Gender = "" },
	signup.FieldPhone:           func(d *signup.Draft) { d.Personal.Phone = "" },
	signup.FieldOccupation:      func(d *signup.Draft) { d.Professional.Occupation = "" },
	signup.FieldQualification:   func(d *signup.Draft) { d.Professional.Qualification = "" },
	signup.FieldState:           func(d *signup.Draft) { d.Location.StateID = "" },
	signup.FieldDistrict:        func(d *signup.Draft) { d.Location.DistrictID = "" },
}

func testValidator() signup.Validator {
	return signup.Validator{Now: func() time.Time { return fixedNow }}
}

func TestValidator_ValidDraftPasses(t *testing.T) {
	v := testValidator()
	for _, step := range signup.Steps {
		assert.NoError(t, v.Step(step, validDraft()), step.String())
	}
	assert.NoError(t, v.All(validDraft()))
}

func TestValidator_SingleMissingFieldIsTheOnlyError(t *testing.T) {
	v := testValidator()

	for _, step := range signup.Steps {
		for _, field := range step.RequiredFields() {
			t.Run(step.String()+"/"+field, func(t *testing.T) {
				d := validDraft()
				blankField, ok := blank[field]
				require.True(t, ok, "no blanker for %s", field)
				blankField(&d)

				err := v.Step(step, d)
				require.Error(t, err)
				verrs := validator.ExtractValidationErrors(err)
				require.NotNil(t, verrs)
				assert.Equal(t, []string{field}, verrs.Fields())
			})
		}
	}
}

func TestValidator_OptionalLocationLevels(t *testing.T) {
	d := validDraft()
	d.Location.MandalID = ""
	d.Location.GramPanchayatID = ""
	assert.NoError(t, testValidator().Step(signup.StepLocation, d))

	d.Professional.ReferralSource = ""
	assert.NoError(t, testValidator().Step(signup.StepProfessional, d))
}

func TestValidator_FieldRules(t *testing.T) {
	tests := []struct {
		name  string
		step  signup.Step
		edit  func(d *signup.Draft)
		field string
	}{
		{"bad email", signup.StepAccount, func(d *signup.Draft) { d.Account.Email = "not-an-email" }, signup.FieldEmail},
		{"weak password", signup.StepAccount, func(d *signup.Draft) { d.Account.Password, d.Account.ConfirmPassword = "abc", "abc" }, signup.FieldPassword},
		{"mismatch", signup.StepAccount, func(d *signup.Draft) { d.Account.ConfirmPassword = "Str0ng!Pass98" }, signup.FieldConfirmPassword},
		{"bad otp", signup.StepVerify, func(d *signup.Draft) { d.Verification.Code = "12" }, signup.FieldOTP},
		{"bad date", signup.StepPersonal, func(d *signup.Draft) { d.Personal.DateOfBirth = "17/05/1990" }, signup.FieldDateOfBirth},
		{"future date", signup.StepPersonal, func(d *signup.Draft) { d.Personal.DateOfBirth = "2030-01-01" }, signup.FieldDateOfBirth},
		{"too young", signup.StepPersonal, func(d *signup.Draft) { d.Personal.DateOfBirth = "2020-01-01" }, signup.FieldDateOfBirth},
		{"unknown gender", signup.StepPersonal, func(d *signup.Draft) { d.Personal.Gender = "robot" }, signup.FieldGender},
		{"bad phone", signup.StepPersonal, func(d *signup.Draft) { d.Personal.Phone = "12ab" }, signup.FieldPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.edit(&d)
			verrs := validator.ExtractValidationErrors(testValidator().Step(tt.step, d))
			require.NotNil(t, verrs)
			assert.Equal(t, []string{tt.field}, verrs.Fields())
		})
	}
}

func TestStep_Names(t *testing.T) {
	assert.Equal(t, "account", signup.StepAccount.String())
	assert.Equal(t, "location", signup.StepLocation.String())
	assert.False(t, signup.Step(0).Valid())
	assert.Equal(t, []string{"state", "district"}, signup.StepLocation.RequiredFields())
}

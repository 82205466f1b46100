package signup

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/onboardkit/pkg/statemachine"
	"github.com/dmitrymomot/onboardkit/pkg/validator"
)

// Step is a page of the signup form, numbered from 1.
type Step int

const (
	StepAccount Step = iota + 1
	StepVerify
	StepPersonal
	StepProfessional
	StepLocation
)

const (
	FirstStep = StepAccount
	LastStep  = StepLocation
)

// Steps lists every step in order.
var Steps = []Step{StepAccount, StepVerify, StepPersonal, StepProfessional, StepLocation}

// Field names as reported in validation errors.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldOTP             = "otp"
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldDateOfBirth     = "date_of_birth"
	FieldGender          = "gender"
	FieldPhone           = "phone"
	FieldOccupation      = "occupation"
	FieldQualification   = "qualification"
	FieldReferralSource  = "referral_source"
	FieldState           = "state"
	FieldDistrict        = "district"
	FieldMandal          = "mandal"
	FieldGramPanchayat   = "gram_panchayat"
)

var requiredFields = map[Step][]string{
	StepAccount:      {FieldEmail, FieldPassword, FieldConfirmPassword},
	StepVerify:       {FieldOTP},
	StepPersonal:     {FieldFirstName, FieldLastName, FieldDateOfBirth, FieldGender, FieldPhone},
	StepProfessional: {FieldOccupation, FieldQualification},
	StepLocation:     {FieldState, FieldDistrict},
}

var stepNames = map[Step]string{
	StepAccount:      "account",
	StepVerify:       "verify",
	StepPersonal:     "personal",
	StepProfessional: "professional",
	StepLocation:     "location",
}

// Genders accepted on the personal step.
var Genders = []string{"male", "female", "other"}

func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// RequiredFields lists the fields that must be filled to leave the step.
func (s Step) RequiredFields() []string {
	return append([]string(nil), requiredFields[s]...)
}

func (s Step) state() statemachine.State {
	return statemachine.State("step_" + strconv.Itoa(int(s)))
}

func stepOf(st statemachine.State) (Step, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(string(st), "step_"))
	if err != nil || !strings.HasPrefix(string(st), "step_") {
		return 0, false
	}
	step := Step(n)
	return step, step.Valid()
}

// DefaultMinAge is the youngest age allowed to sign up.
const DefaultMinAge = 13

// Validator checks the fields of each step. The zero value uses time.Now
// and DefaultMinAge.
type Validator struct {
	Now    func() time.Time
	MinAge int
}

func (v Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func (v Validator) minAge() int {
	if v.MinAge > 0 {
		return v.MinAge
	}
	return DefaultMinAge
}

// Step validates the fields of step. It returns nil or
// validator.ValidationErrors; a field reports at most one error.
func (v Validator) Step(step Step, d Draft) error {
	switch step {
	case StepAccount:
		email := normalizeEmail(d.Account.Email)
		return validator.Apply(
			validator.RequiredString(FieldEmail, email),
			validator.MaxLenString(FieldEmail, email, 254),
			validator.ValidEmail(FieldEmail, email),
			validator.RequiredString(FieldPassword, d.Account.Password),
			validator.MaxLenString(FieldPassword, d.Account.Password, 128),
			validator.PasswordStrength(FieldPassword, d.Account.Password),
			validator.RequiredString(FieldConfirmPassword, d.Account.ConfirmPassword),
			validator.PasswordsMatch(FieldConfirmPassword, d.Account.Password, d.Account.ConfirmPassword),
		)
	case StepVerify:
		code := strings.TrimSpace(d.Verification.Code)
		return validator.Apply(
			validator.RequiredString(FieldOTP, code),
			validator.ValidOTP(FieldOTP, code),
		)
	case StepPersonal:
		p := d.Personal
		now := v.now()
		return validator.Apply(
			validator.RequiredString(FieldFirstName, p.FirstName),
			validator.MaxLenString(FieldFirstName, strings.TrimSpace(p.FirstName), 50),
			validator.RequiredString(FieldLastName, p.LastName),
			validator.MaxLenString(FieldLastName, strings.TrimSpace(p.LastName), 50),
			validator.RequiredString(FieldDateOfBirth, p.DateOfBirth),
			validator.ValidDate(FieldDateOfBirth, strings.TrimSpace(p.DateOfBirth)),
			validator.ValidBirthdate(FieldDateOfBirth, strings.TrimSpace(p.DateOfBirth), now),
			validator.MinAge(FieldDateOfBirth, strings.TrimSpace(p.DateOfBirth), v.minAge(), now),
			validator.RequiredString(FieldGender, p.Gender),
			validator.OneOfString(FieldGender, normalizeChoice(p.Gender), Genders),
			validator.RequiredString(FieldPhone, p.Phone),
			validator.ValidPhone(FieldPhone, normalizePhone(p.Phone)),
		)
	case StepProfessional:
		p := d.Professional
		return validator.Apply(
			validator.RequiredString(FieldOccupation, p.Occupation),
			validator.MaxLenString(FieldOccupation, strings.TrimSpace(p.Occupation), 100),
			validator.RequiredString(FieldQualification, p.Qualification),
			validator.MaxLenString(FieldQualification, strings.TrimSpace(p.Qualification), 100),
			validator.MaxLenString(FieldReferralSource, strings.TrimSpace(p.ReferralSource), 100),
		)
	case StepLocation:
		return validator.Apply(
			validator.RequiredString(FieldState, d.Location.StateID),
			validator.RequiredString(FieldDistrict, d.Location.DistrictID),
		)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidStep, int(step))
	}
}

// All validates every step and merges the errors.
func (v Validator) All(d Draft) error {
	errs := make([]error, 0, len(Steps))
	for _, s := range Steps {
		errs = append(errs, v.Step(s, d))
	}
	return validator.Merge(errs...)
}

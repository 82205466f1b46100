package signup

import (
	"strings"

	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/location"
	"github.com/dmitrymomot/onboardkit/pkg/validator"
)

// NameResolver exposes the current selection of each level and its display
// name. *location.Cascade satisfies it.
type NameResolver interface {
	Selected(level location.Level) string
	Name(level location.Level) string
}

// BuildPayload turns a validated draft into the signup request. Every
// selected location id is replaced by its display name; an id that cannot
// be resolved is reported under the level's field.
func BuildPayload(d Draft, names NameResolver, otp string) (apiclient.SignupRequest, error) {
	req := apiclient.SignupRequest{
		Email:          normalizeEmail(d.Account.Email),
		Password:       d.Account.Password,
		FirstName:      normalizeName(d.Personal.FirstName),
		LastName:       normalizeName(d.Personal.LastName),
		DateOfBirth:    strings.TrimSpace(d.Personal.DateOfBirth),
		Gender:         normalizeChoice(d.Personal.Gender),
		Phone:          normalizePhone(d.Personal.Phone),
		Occupation:     strings.TrimSpace(d.Professional.Occupation),
		Qualification:  strings.TrimSpace(d.Professional.Qualification),
		ReferralSource: strings.TrimSpace(d.Professional.ReferralSource),
		OTP:            strings.TrimSpace(otp),
	}

	var errs validator.ValidationErrors
	resolve := func(field string, level location.Level, id string) string {
		if id == "" {
			return ""
		}
		var name string
		if names.Selected(level) == id {
			name = names.Name(level)
		}
		if name == "" {
			errs.Add(validator.ValidationError{
				Field:             field,
				Message:           "select an option from the list",
				TranslationKey:    "validation.location_unresolved",
				TranslationValues: map[string]any{"field": field},
			})
		}
		return name
	}

	req.State = resolve(FieldState, location.State, d.Location.StateID)
	req.District = resolve(FieldDistrict, location.District, d.Location.DistrictID)
	req.Mandal = resolve(FieldMandal, location.Mandal, d.Location.MandalID)
	req.GramPanchayat = resolve(FieldGramPanchayat, location.GramPanchayat, d.Location.GramPanchayatID)

	if !errs.IsEmpty() {
		return apiclient.SignupRequest{}, errs
	}
	return req, nil
}

package signup

import (
	flow "github.com/dmitrymomot/onboardkit/pkg/signup"
)

// updateRequest is a partial draft update; nil fields are left unchanged.
type updateRequest struct {
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirm_password"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	DateOfBirth     *string `json:"date_of_birth"`
	Gender          *string `json:"gender"`
	Phone           *string `json:"phone"`
	Occupation      *string `json:"occupation"`
	Qualification   *string `json:"qualification"`
	ReferralSource  *string `json:"referral_source"`
}

func (u updateRequest) apply(d *flow.Draft) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&d.Account.Email, u.Email)
	set(&d.Account.Password, u.Password)
	set(&d.Account.ConfirmPassword, u.ConfirmPassword)
	set(&d.Personal.FirstName, u.FirstName)
	set(&d.Personal.LastName, u.LastName)
	set(&d.Personal.DateOfBirth, u.DateOfBirth)
	set(&d.Personal.Gender, u.Gender)
	set(&d.Personal.Phone, u.Phone)
	set(&d.Professional.Occupation, u.Occupation)
	set(&d.Professional.Qualification, u.Qualification)
	set(&d.Professional.ReferralSource, u.ReferralSource)
}

type verifyRequest struct {
	Code string `json:"otp"`
}

type locationRequest struct {
	Level string `path:"level" json:"-"`
	ID    string `json:"id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionKey   string `json:"session_key"`
	MobileNumber string `json:"mobile_number,omitempty"`
	ProfilePhoto string `json:"profile_photo,omitempty"`
}

package signup

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Draft is the in-progress signup form, one record per step.
type Draft struct {
	Account      Account      `json:"account" yaml:"account"`
	Verification Verification `json:"verification" yaml:"verification"`
	Personal     Personal     `json:"personal" yaml:"personal"`
	Professional Professional `json:"professional" yaml:"professional"`
	Location     Location     `json:"location" yaml:"location"`
}

type Account struct {
	Email           string `json:"email" yaml:"email"`
	Password        string `json:"password,omitempty" yaml:"password,omitempty"`
	ConfirmPassword string `json:"confirm_password,omitempty" yaml:"confirm_password,omitempty"`
}

type Verification struct {
	Code string `json:"otp,omitempty" yaml:"otp,omitempty"`
}

type Personal struct {
	FirstName   string `json:"first_name" yaml:"first_name"`
	LastName    string `json:"last_name" yaml:"last_name"`
	DateOfBirth string `json:"date_of_birth" yaml:"date_of_birth"`
	Gender      string `json:"gender" yaml:"gender"`
	Phone       string `json:"phone" yaml:"phone"`
}

type Professional struct {
	Occupation     string `json:"occupation" yaml:"occupation"`
	Qualification  string `json:"qualification" yaml:"qualification"`
	ReferralSource string `json:"referral_source,omitempty" yaml:"referral_source,omitempty"`
}

// Location mirrors the cascade selection by id.
type Location struct {
	StateID         string `json:"state" yaml:"state"`
	DistrictID      string `json:"district" yaml:"district"`
	MandalID        string `json:"mandal,omitempty" yaml:"mandal,omitempty"`
	GramPanchayatID string `json:"gram_panchayat,omitempty" yaml:"gram_panchayat,omitempty"`
}

// IDs returns the selection from the root level down.
func (l Location) IDs() []string {
	return []string{l.StateID, l.DistrictID, l.MandalID, l.GramPanchayatID}
}

// Redacted returns a copy without secrets, fit for views and logs.
func (d Draft) Redacted() Draft {
	if d.Account.Password != "" {
		d.Account.Password = "********"
	}
	if d.Account.ConfirmPassword != "" {
		d.Account.ConfirmPassword = "********"
	}
	return d
}

// LoadDraft reads a YAML draft. Unknown keys are rejected so a typo does not
// silently leave a field empty.
func LoadDraft(r io.Reader) (Draft, error) {
	var d Draft
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && err != io.EOF {
		return Draft{}, fmt.Errorf("%w: %w", ErrInvalidDraft, err)
	}
	return d, nil
}

// LoadDraftFile reads a YAML draft from path.
func LoadDraftFile(path string) (Draft, error) {
	f, err := os.Open(path)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %w", ErrInvalidDraft, err)
	}
	defer func() { _ = f.Close() }()
	return LoadDraft(f)
}

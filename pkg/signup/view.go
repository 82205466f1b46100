package signup

import (
	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/location"
	"github.com/dmitrymomot/onboardkit/pkg/otpgate"
	"github.com/dmitrymomot/onboardkit/pkg/password"
)

// View is a read-only snapshot of a flow for rendering.
type View struct {
	ID             string                    `json:"flow_id,omitempty"`
	Step           int                       `json:"step"`
	StepName       string                    `json:"step_name,omitempty"`
	TotalSteps     int                       `json:"total_steps"`
	State          string                    `json:"state"`
	RequiredFields []string                  `json:"required_fields,omitempty"`
	Verification   otpgate.VerificationState `json:"verification"`
	Password       password.Report           `json:"password"`
	Draft          Draft                     `json:"draft"`
	Locations      []LocationView            `json:"locations"`
	Error          string                    `json:"error,omitempty"`
	Result         *Result                   `json:"result,omitempty"`
}

// LocationView is one level of the picker.
type LocationView struct {
	Level    string            `json:"level"`
	Options  []location.Option `json:"options"`
	Selected string            `json:"selected,omitempty"`
	Name     string            `json:"name,omitempty"`
}

// View snapshots the flow. Passwords are masked.
func (f *Flow) View() View {
	d := f.Draft()
	step := f.Step()

	v := View{
		ID:           f.id,
		Step:         int(step),
		TotalSteps:   len(Steps),
		State:        f.State(),
		Verification: f.gate.State(d.Account.Email),
		Password:     password.Evaluate(d.Account.Password, d.Account.ConfirmPassword),
		Draft:        d.Redacted(),
		Error:        f.LastError(),
		Result:       f.Result(),
	}
	if step.Valid() {
		v.StepName = step.String()
		v.RequiredFields = step.RequiredFields()
	}

	v.Locations = make([]LocationView, 0, len(apiclient.Levels))
	for _, l := range apiclient.Levels {
		opts := f.cascade.Options(l)
		if opts == nil {
			opts = []location.Option{}
		}
		v.Locations = append(v.Locations, LocationView{
			Level:    l.String(),
			Options:  opts,
			Selected: f.cascade.Selected(l),
			Name:     f.cascade.Name(l),
		})
	}
	return v
}

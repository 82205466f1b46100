package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/authsession"
	"github.com/dmitrymomot/onboardkit/pkg/location"
	"github.com/dmitrymomot/onboardkit/pkg/otpgate"
	"github.com/dmitrymomot/onboardkit/pkg/password"
	flow "github.com/dmitrymomot/onboardkit/pkg/signup"
	"github.com/dmitrymomot/onboardkit/pkg/validator"
)

func newSignupCmd(a *app) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account step by step",
		Long: `Walks through the five signup steps: account, email verification,
personal details, professional details and location.

With --from, answers are taken from a YAML draft and only missing or
rejected fields are asked for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := []flow.FlowOption{
				flow.WithLogger(a.log),
				flow.WithSessionKey(authsession.LocalKey),
			}
			var prefill flow.Location
			if from != "" {
				d, err := flow.LoadDraftFile(from)
				if err != nil {
					return err
				}
				prefill = d.Location
				opts = append(opts, flow.WithDraft(d))
			}

			f := flow.NewFlow(a.api, a.sessions, opts...)
			if prefill != (flow.Location{}) {
				if err := f.ApplyLocation(cmd.Context(), prefill); err != nil {
					fmt.Fprintf(a.out, "Saved location could not be used (%v); you will be asked again.\n", err)
				}
			}

			w := &wizard{flow: f, in: a.in, out: a.out, asked: map[string]bool{}}
			res, err := w.run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\nAccount created. You are signed in; continue at %s\n", res.LandingURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "YAML draft with prefilled answers")
	return cmd
}

// input is one text field of a step.
type input struct {
	name     string
	label    string
	optional bool
	ptr      func(d *flow.Draft) *string
}

var stepInputs = map[flow.Step][]input{
	flow.StepAccount: {
		{name: flow.FieldEmail, label: "Email", ptr: func(d *flow.Draft) *string { return &d.Account.Email }},
		{name: flow.FieldPassword, label: "Password", ptr: func(d *flow.Draft) *string { return &d.Account.Password }},
		{name: flow.FieldConfirmPassword, label: "Confirm password", ptr: func(d *flow.Draft) *string { return &d.Account.ConfirmPassword }},
	},
	flow.StepPersonal: {
		{name: flow.FieldFirstName, label: "First name", ptr: func(d *flow.Draft) *string { return &d.Personal.FirstName }},
		{name: flow.FieldLastName, label: "Last name", ptr: func(d *flow.Draft) *string { return &d.Personal.LastName }},
		{name: flow.FieldDateOfBirth, label: "Date of birth (YYYY-MM-DD)", ptr: func(d *flow.Draft) *string { return &d.Personal.DateOfBirth }},
		{name: flow.FieldGender, label: "Gender (" + strings.Join(flow.Genders, "/") + ")", ptr: func(d *flow.Draft) *string { return &d.Personal.Gender }},
		{name: flow.FieldPhone, label: "Phone", ptr: func(d *flow.Draft) *string { return &d.Personal.Phone }},
	},
	flow.StepProfessional: {
		{name: flow.FieldOccupation, label: "Occupation", ptr: func(d *flow.Draft) *string { return &d.Professional.Occupation }},
		{name: flow.FieldQualification, label: "Qualification", ptr: func(d *flow.Draft) *string { return &d.Professional.Qualification }},
		{name: flow.FieldReferralSource, label: "How did you hear about us (optional)", optional: true, ptr: func(d *flow.Draft) *string { return &d.Professional.ReferralSource }},
	},
}

// wizard drives a flow from the terminal.
type wizard struct {
	flow  *flow.Flow
	in    *prompter
	out   io.Writer
	asked map[string]bool
}

func (w *wizard) run(ctx context.Context) (*flow.Result, error) {
	for {
		step := w.flow.Step()
		if step.Valid() {
			fmt.Fprintf(w.out, "\n[%d/%d] %s\n", int(step), len(flow.Steps), step)
		}

		var err error
		switch step {
		case flow.StepVerify:
			err = w.verify(ctx)
		case flow.StepLocation:
			err = w.location(ctx)
		default:
			err = w.fill(step)
		}
		if err != nil {
			return nil, err
		}

		res, err := w.flow.Next(ctx)
		switch {
		case err == nil && res != nil:
			return res, nil
		case err == nil:
			continue
		}

		if errs := validator.ExtractValidationErrors(err); !errs.IsEmpty() {
			w.reject(errs)
			continue
		}
		if apiErr, ok := apiclient.AsAPIError(err); ok && apiErr.IsClientError() {
			fmt.Fprintf(w.out, "The server refused the signup: %s\n", apiErr.Message)
			retry, cerr := w.in.confirm("Try again", false)
			if cerr != nil || !retry {
				return nil, errors.Join(err, cerr)
			}
			continue
		}
		return nil, err
	}
}

// fill asks for every empty field of step. Optional fields are asked once.
func (w *wizard) fill(step flow.Step) error {
	d := w.flow.Draft()
	for _, in := range stepInputs[step] {
		if *in.ptr(&d) != "" || (in.optional && w.asked[in.name]) {
			continue
		}
		for {
			ans, err := w.in.ask(in.label)
			if err != nil {
				return err
			}
			w.asked[in.name] = true
			if ans == "" && !in.optional {
				fmt.Fprintln(w.out, "  required")
				continue
			}
			*in.ptr(&d) = ans
			break
		}
		if in.name == flow.FieldPassword {
			fmt.Fprintf(w.out, "  strength: %s\n", password.Classify(d.Account.Password))
		}
	}
	return w.flow.Update(func(dst *flow.Draft) {
		loc := dst.Location
		*dst = d
		dst.Location = loc
	})
}

// reject prints field errors and clears the rejected answers so they are
// asked again.
func (w *wizard) reject(errs validator.ValidationErrors) {
	for _, field := range errs.Fields() {
		fmt.Fprintf(w.out, "  %s: %s\n", field, errs.Get(field))
	}
	_ = w.flow.Update(func(d *flow.Draft) {
		for _, inputs := range stepInputs {
			for _, in := range inputs {
				if errs.Has(in.name) {
					*in.ptr(d) = ""
				}
			}
		}
		if errs.Has(flow.FieldPassword) {
			d.Account.ConfirmPassword = ""
		}
	})
}

func (w *wizard) verify(ctx context.Context) error {
	email := w.flow.Draft().Account.Email
	switch w.flow.Gate().State(email) {
	case otpgate.Verified:
		return nil
	case otpgate.Unsent:
		if err := w.flow.RequestCode(ctx); err != nil && !isCooldown(err) {
			return err
		}
		fmt.Fprintf(w.out, "A verification code was sent to %s.\n", email)
	}

	for {
		code, err := w.in.ask("Verification code (r to resend)")
		if err != nil {
			return err
		}
		if strings.EqualFold(code, "r") {
			if err := w.flow.ResendCode(ctx); err != nil {
				var cooldown *otpgate.CooldownError
				if !errors.As(err, &cooldown) {
					return err
				}
				fmt.Fprintf(w.out, "  please wait %s before asking for another code\n", cooldown.Remaining.Round(time.Second))
				continue
			}
			fmt.Fprintln(w.out, "  a new code is on its way")
			continue
		}

		err = w.flow.VerifyCode(ctx, code)
		if err == nil {
			fmt.Fprintln(w.out, "  email verified")
			return nil
		}
		if errs := validator.ExtractValidationErrors(err); !errs.IsEmpty() {
			fmt.Fprintf(w.out, "  %s\n", errs.Get(flow.FieldOTP))
			continue
		}
		if apiErr, ok := apiclient.AsAPIError(err); ok && apiErr.IsClientError() {
			fmt.Fprintf(w.out, "  %s\n", apiErr.Message)
			continue
		}
		return err
	}
}

var errNoLocations = errors.New("no locations are available, try again later")

func levelLabel(level location.Level) string {
	return strings.ReplaceAll(level.String(), "_", " ")
}

// location picks each level from a numbered list, root first. Mandal and
// gram panchayat may be skipped with an empty answer. A required level with
// nothing listed sends the user back to its parent.
func (w *wizard) location(ctx context.Context) error {
	cascade := w.flow.Cascade()
	levels := apiclient.Levels
	reask := -1

	for i := 0; i < len(levels); i++ {
		level := levels[i]
		if cascade.Selected(level) != "" && i != reask {
			continue
		}
		opts, err := w.flow.LocationOptions(ctx, level)
		if err != nil {
			return err
		}

		optional := level == location.Mandal || level == location.GramPanchayat
		label := levelLabel(level)
		if len(opts) == 0 {
			if optional {
				return nil
			}
			if i == 0 {
				return errNoLocations
			}
			parent := levels[i-1]
			fmt.Fprintf(w.out, "  no %s is listed for %s, choose another %s\n", label, cascade.Name(parent), levelLabel(parent))
			reask = i - 1
			i -= 2
			continue
		}

		for k, o := range opts {
			fmt.Fprintf(w.out, "  %2d) %s\n", k+1, o.Name)
		}

		for {
			prompt := "Choose " + label
			if optional {
				prompt += " (Enter to skip)"
			}
			ans, err := w.in.ask(prompt)
			if err != nil {
				return err
			}
			if ans == "" && optional {
				return nil
			}
			n, err := strconv.Atoi(ans)
			if err != nil || n < 1 || n > len(opts) {
				fmt.Fprintf(w.out, "  enter a number between 1 and %d\n", len(opts))
				continue
			}
			if err := w.flow.SelectLocation(ctx, level, opts[n-1].ID); err != nil {
				if errors.Is(err, location.ErrUnknownOption) || errors.Is(err, location.ErrSuperseded) {
					fmt.Fprintln(w.out, "  that choice is no longer available, pick again")
					continue
				}
				return err
			}
			break
		}
	}
	return nil
}

func isCooldown(err error) bool {
	var cooldown *otpgate.CooldownError
	return errors.As(err, &cooldown)
}

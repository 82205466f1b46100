package signup_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/authsession"
	"github.com/dmitrymomot/onboardkit/pkg/location"
	"github.com/dmitrymomot/onboardkit/pkg/signup"
)

var fixedNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func validDraft() signup.Draft {
	return signup.Draft{
		Account: signup.Account{
			Email:           "a@b.com",
			Password:        "Str0ng!Pass99",
			ConfirmPassword: "Str0ng!Pass99",
		},
		Verification: signup.Verification{Code: "1234"},
		Personal: signup.Personal{
			FirstName:   "  ada ",
			LastName:    "LOVELACE",
			DateOfBirth: "1990-05-17",
			Gender:      "Female",
			Phone:       "+91 98765-43210",
		},
		Professional: signup.Professional{
			Occupation:     "Engineer",
			Qualification:  "B.Tech",
			ReferralSource: "friend",
		},
		Location: signup.Location{
			StateID:         "1",
			DistrictID:      "10",
			MandalID:        "100",
			GramPanchayatID: "1000",
		},
	}
}

type dirKey struct {
	level  location.Level
	parent string
}

type fakeAPI struct {
	mu         sync.Mutex
	registered map[string]bool
	code       string
	signupErr  error
	tokens     *apiclient.TokenPair
	sent       []string
	signups    []apiclient.SignupRequest
	directory  map[dirKey][]location.Option
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		registered: map[string]bool{"taken@b.com": true},
		code:       "1234",
		directory: map[dirKey][]location.Option{
			{location.State, ""}:            {{ID: "1", Name: "Telangana"}, {ID: "2", Name: "Andhra Pradesh"}},
			{location.District, "1"}:        {{ID: "10", Name: "Hyderabad"}},
			{location.District, "2"}:        {{ID: "20", Name: "Guntur"}},
			{location.Mandal, "10"}:         {{ID: "100", Name: "Secunderabad"}},
			{location.Mandal, "20"}:         {{ID: "200", Name: "Tenali"}},
			{location.GramPanchayat, "100"}: {{ID: "1000", Name: "Bowenpally"}},
		},
	}
}

func (f *fakeAPI) SendOTP(_ context.Context, email, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeAPI) VerifyOTP(_ context.Context, _, otp string) error {
	if otp != f.code {
		return &apiclient.APIError{StatusCode: 400, Message: "Invalid OTP"}
	}
	return nil
}

func (f *fakeAPI) CheckEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered[email], nil
}

func (f *fakeAPI) Signup(_ context.Context, req apiclient.SignupRequest) (apiclient.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signups = append(f.signups, req)
	if f.signupErr != nil {
		return apiclient.TokenPair{}, f.signupErr
	}
	if f.tokens != nil {
		return *f.tokens, nil
	}
	return apiclient.TokenPair{Access: "x", Refresh: "y"}, nil
}

func (f *fakeAPI) Locations(_ context.Context, level location.Level, parent string) ([]location.Option, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.directory[dirKey{level, parent}], nil
}

func (f *fakeAPI) signupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.signups)
}

func newSessions(t *testing.T) (*authsession.Manager, *authsession.MemoryStore) {
	t.Helper()
	store := authsession.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	return authsession.NewManager(store), store
}

func newFlow(t *testing.T, api signup.API, opts ...signup.FlowOption) *signup.Flow {
	t.Helper()
	sessions, _ := newSessions(t)
	base := []signup.FlowOption{signup.WithClock(func() time.Time { return fixedNow }), signup.WithID("flow-1")}
	return signup.NewFlow(api, sessions, append(base, opts...)...)
}

// advanceToLastStep fills the draft, verifies the email and walks to step 5
// with the full location path selected.
func advanceToLastStep(t *testing.T, ctx context.Context, f *signup.Flow) {
	t.Helper()
	d := validDraft()
	require.NoError(t, f.Update(func(dst *signup.Draft) { *dst = d }))

	_, err := f.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, f.RequestCode(ctx))
	require.NoError(t, f.VerifyCode(ctx, "1234"))

	for range 3 {
		_, err = f.Next(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, signup.StepLocation, f.Step())
	require.NoError(t, f.ApplyLocation(ctx, d.Location))
}

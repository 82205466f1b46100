package signup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/authsession"
	"github.com/dmitrymomot/onboardkit/pkg/location"
	"github.com/dmitrymomot/onboardkit/pkg/logger"
	"github.com/dmitrymomot/onboardkit/pkg/otpgate"
	"github.com/dmitrymomot/onboardkit/pkg/statemachine"
	"github.com/dmitrymomot/onboardkit/pkg/validator"
)

// API is the slice of the remote API a flow talks to. *apiclient.Client
// satisfies it.
type API interface {
	otpgate.Client
	location.Fetcher
	CheckEmail(ctx context.Context, email string) (bool, error)
	Signup(ctx context.Context, req apiclient.SignupRequest) (apiclient.TokenPair, error)
}

// SessionStarter persists the token pair of a new account.
// *authsession.Manager satisfies it.
type SessionStarter interface {
	Create(ctx context.Context, key string, s authsession.Session) (*authsession.Session, error)
}

// Result is the outcome of a successful submission.
type Result struct {
	LandingURL string `json:"redirect"`
	SessionKey string `json:"session_key"`
}

// Flow is one signup attempt. Safe for concurrent use.
type Flow struct {
	id         string
	api        API
	sessions   SessionStarter
	gate       *otpgate.Gate
	gateOpts   []otpgate.Option
	cascade    *location.Cascade
	seq        *Sequencer
	validator  Validator
	landingURL string
	sessionKey string
	now        func() time.Time
	logger     *slog.Logger

	mu        sync.Mutex
	draft     Draft
	created   *apiclient.TokenPair
	lastErr   string
	result    *Result
	updatedAt time.Time
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

func WithID(id string) FlowOption {
	return func(f *Flow) {
		f.id = id
	}
}

func WithLogger(l *slog.Logger) FlowOption {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithLandingURL sets where the user goes after signing up.
func WithLandingURL(url string) FlowOption {
	return func(f *Flow) {
		if url != "" {
			f.landingURL = url
		}
	}
}

// WithSessionKey stores the new session under a fixed key instead of a
// random one.
func WithSessionKey(key string) FlowOption {
	return func(f *Flow) {
		f.sessionKey = key
	}
}

// WithGateOptions configures the flow's OTP gate.
func WithGateOptions(opts ...otpgate.Option) FlowOption {
	return func(f *Flow) {
		f.gateOpts = append(f.gateOpts, opts...)
	}
}

func WithValidator(v Validator) FlowOption {
	return func(f *Flow) {
		f.validator = v
	}
}

// WithDraft seeds the form. Location ids are not applied until ApplyLocation
// replays them through the cascade.
func WithDraft(d Draft) FlowOption {
	return func(f *Flow) {
		f.draft = d
	}
}

func WithClock(now func() time.Time) FlowOption {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFlow starts a signup attempt at the first step.
func NewFlow(api API, sessions SessionStarter, opts ...FlowOption) *Flow {
	f := &Flow{
		api:        api,
		sessions:   sessions,
		landingURL: "/dashboard",
		now:        time.Now,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.validator.Now == nil {
		f.validator.Now = f.now
	}
	f.logger = f.logger.With(logger.Component("signup"), logger.FlowID(f.id))

	// The cascade owns the location selection; seeded ids go through
	// ApplyLocation.
	f.draft.Location = Location{}
	f.updatedAt = f.now()

	f.gate = otpgate.New(api, append([]otpgate.Option{otpgate.WithLogger(f.logger)}, f.gateOpts...)...)
	f.gate.Track(f.draft.Account.Email)
	f.cascade = location.New(api, location.WithLogger(f.logger))
	checks := map[Step]stepCheck{StepAccount: f.checkEmailAvailable}
	for _, s := range Steps {
		if s >= StepVerify {
			checks[s] = f.checkVerified
		}
	}
	f.seq = newSequencer(f.validator, checks, f.prepareSubmission, f.logTransition)

	return f
}

func (f *Flow) ID() string {
	return f.id
}

// Step returns the active step, or 0 once the flow is submitting or done.
func (f *Flow) Step() Step {
	return f.seq.Current()
}

// State returns the sequencer state name, e.g. "step_2" or "failed".
func (f *Flow) State() string {
	return string(f.seq.State())
}

// Done reports whether the account was created.
func (f *Flow) Done() bool {
	return f.seq.State() == StateSucceeded
}

// Gate exposes the flow's OTP gate.
func (f *Flow) Gate() *otpgate.Gate {
	return f.gate
}

// Cascade exposes the flow's location picker.
func (f *Flow) Cascade() *location.Cascade {
	return f.cascade
}

// Draft returns a copy of the form.
func (f *Flow) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// LastError is the message of the last failed submission.
func (f *Flow) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Result is set once the flow succeeded.
func (f *Flow) Result() *Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// UpdatedAt is when the flow last changed.
func (f *Flow) UpdatedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updatedAt
}

func (f *Flow) touch() {
	f.mu.Lock()
	f.updatedAt = f.now()
	f.mu.Unlock()
}

func (f *Flow) writable() error {
	switch f.seq.State() {
	case StateSubmitting:
		return ErrSubmitting
	case StateSucceeded:
		return ErrAlreadySubmitted
	}
	if f.accountCreated() {
		return ErrAccountCreated
	}
	return nil
}

func (f *Flow) accountCreated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created != nil
}

// Update edits the form through fn. Location fields are ignored; use
// SelectLocation. Changing the email resets its verification and sends the
// flow back to the first step, where the address is checked again.
func (f *Flow) Update(fn func(d *Draft)) error {
	if err := f.writable(); err != nil {
		return err
	}

	f.mu.Lock()
	prev := normalizeEmail(f.draft.Account.Email)
	d := f.draft
	fn(&d)
	d.Location = f.draft.Location
	f.draft = d
	f.updatedAt = f.now()
	email := d.Account.Email
	f.mu.Unlock()

	f.gate.Track(email)
	if normalizeEmail(email) != prev && f.seq.State() != FirstStep.state() {
		f.logger.Debug("email changed, restarting at first step",
			logger.Step(int(f.seq.Current())),
			logger.State(string(f.seq.State())),
		)
		f.seq.rewind()
	}
	return nil
}

// Next validates the active step and advances. On the last step it submits
// and returns the result.
func (f *Flow) Next(ctx context.Context) (*Result, error) {
	defer f.touch()

	switch f.seq.State() {
	case StateFailed:
		return f.Submit(ctx)
	case StateSubmitting:
		return nil, ErrSubmitting
	case StateSucceeded:
		return nil, ErrAlreadySubmitted
	}

	if f.seq.Current() == LastStep {
		if err := f.validator.Step(LastStep, f.Draft()); err != nil {
			f.logRejected(ctx, LastStep, err)
			return nil, err
		}
		return f.Submit(ctx)
	}

	step := f.seq.Current()
	if err := f.seq.fire(ctx, EventNext, &transition{draft: f.Draft()}); err != nil {
		f.logRejected(ctx, step, err)
		return nil, err
	}
	return nil, nil
}

// Previous steps back without validating. It is a no-op on the first step.
func (f *Flow) Previous(ctx context.Context) error {
	defer f.touch()

	step := f.seq.Current()
	switch {
	case step == FirstStep:
		return nil
	case step == 0:
		if err := f.writable(); err != nil {
			return err
		}
		return &statemachine.NoTransitionError{State: f.seq.State(), Event: EventPrevious}
	}
	return f.seq.fire(ctx, EventPrevious, nil)
}

// RequestCode emails a verification code to the draft's address.
func (f *Flow) RequestCode(ctx context.Context) error {
	email, name, err := f.otpTarget()
	if err != nil {
		return err
	}
	defer f.touch()
	return f.gate.RequestCode(ctx, email, name)
}

// ResendCode sends a new code, subject to the resend cooldown.
func (f *Flow) ResendCode(ctx context.Context) error {
	email, name, err := f.otpTarget()
	if err != nil {
		return err
	}
	defer f.touch()
	return f.gate.Resend(ctx, email, name)
}

// VerifyCode records code in the draft and verifies it.
func (f *Flow) VerifyCode(ctx context.Context, code string) error {
	if err := f.writable(); err != nil {
		return err
	}
	if err := f.validator.Step(StepVerify, Draft{Verification: Verification{Code: code}}); err != nil {
		return err
	}

	f.mu.Lock()
	f.draft.Verification.Code = code
	email := normalizeEmail(f.draft.Account.Email)
	f.mu.Unlock()
	defer f.touch()

	return f.gate.VerifyCode(ctx, email, code)
}

func (f *Flow) otpTarget() (email, name string, err error) {
	if err := f.writable(); err != nil {
		return "", "", err
	}
	d := f.Draft()
	email = normalizeEmail(d.Account.Email)
	if err := validator.Apply(
		validator.RequiredString(FieldEmail, email),
		validator.ValidEmail(FieldEmail, email),
	); err != nil {
		return "", "", err
	}
	return email, normalizeName(d.Personal.FirstName + " " + d.Personal.LastName), nil
}

// LocationOptions lists the options of level, loading the state list on
// first use.
func (f *Flow) LocationOptions(ctx context.Context, level location.Level) ([]location.Option, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %d", location.ErrInvalidLevel, int(level))
	}
	if level == location.State && !f.cascade.Loaded(location.State) {
		if err := f.cascade.LoadStates(ctx); err != nil {
			return nil, err
		}
		f.syncLocation()
	}
	return f.cascade.Options(level), nil
}

// SelectLocation picks id at level and loads the next level.
func (f *Flow) SelectLocation(ctx context.Context, level location.Level, id string) error {
	if err := f.writable(); err != nil {
		return err
	}
	if level == location.State && !f.cascade.Loaded(location.State) {
		if err := f.cascade.LoadStates(ctx); err != nil {
			return err
		}
	}
	defer f.syncLocation()
	return f.cascade.Select(ctx, level, id)
}

// ApplyLocation replays a stored selection through the cascade, root first.
func (f *Flow) ApplyLocation(ctx context.Context, loc Location) error {
	if err := f.writable(); err != nil {
		return err
	}
	defer f.syncLocation()
	return f.cascade.SelectPath(ctx, loc.IDs()...)
}

func (f *Flow) syncLocation() {
	loc := Location{
		StateID:         f.cascade.Selected(location.State),
		DistrictID:      f.cascade.Selected(location.District),
		MandalID:        f.cascade.Selected(location.Mandal),
		GramPanchayatID: f.cascade.Selected(location.GramPanchayat),
	}
	f.mu.Lock()
	f.draft.Location = loc
	f.updatedAt = f.now()
	f.mu.Unlock()
}

// Submit validates every step, requires a verified email and posts the
// account. On success the token pair is stored as an auth session and the
// draft is discarded.
func (f *Flow) Submit(ctx context.Context) (*Result, error) {
	defer f.touch()

	switch f.seq.State() {
	case StateSubmitting:
		return nil, ErrSubmitting
	case StateSucceeded:
		return nil, ErrAlreadySubmitted
	case LastStep.state(), StateFailed:
	default:
		d := f.Draft()
		if err := validator.Merge(f.validator.All(d), f.verificationError(d)); err != nil {
			return nil, err
		}
		return nil, ErrNotAtFinalStep
	}

	data := &transition{draft: f.Draft()}
	if err := f.seq.fire(ctx, EventSubmit, data); err != nil {
		if statemachine.IsNoTransitionError(err) {
			return nil, ErrSubmitting
		}
		f.logRejected(ctx, LastStep, err)
		return nil, err
	}

	tokens, err := f.createAccount(ctx, data.request)
	if err != nil {
		f.fail(ctx, err)
		return nil, err
	}

	sess, err := f.sessions.Create(ctx, f.sessionKey, authsession.FromTokens(tokens))
	if err != nil {
		err = fmt.Errorf("signup: store session: %w", err)
		f.fail(ctx, err)
		return nil, err
	}

	if err := f.seq.fire(ctx, EventSucceed, nil); err != nil {
		return nil, err
	}

	result := &Result{LandingURL: f.landingURL, SessionKey: sess.Key}
	f.mu.Lock()
	f.result = result
	f.lastErr = ""
	f.draft = Draft{}
	f.mu.Unlock()

	f.logger.InfoContext(ctx, "signup completed",
		logger.Event("signup_completed"),
		logger.Email(data.request.Email),
	)
	return result, nil
}

// createAccount posts the account at most once. After a failed session write
// the retry reuses the token pair of the first call.
func (f *Flow) createAccount(ctx context.Context, req apiclient.SignupRequest) (apiclient.TokenPair, error) {
	f.mu.Lock()
	created := f.created
	f.mu.Unlock()
	if created != nil {
		return *created, nil
	}

	tokens, err := f.api.Signup(ctx, req)
	if err != nil {
		return apiclient.TokenPair{}, err
	}
	f.mu.Lock()
	f.created = &tokens
	f.mu.Unlock()
	return tokens, nil
}

func (f *Flow) fail(ctx context.Context, err error) {
	f.mu.Lock()
	f.lastErr = err.Error()
	f.mu.Unlock()

	_ = f.seq.fire(ctx, EventFail, nil)
	f.logger.WarnContext(ctx, "signup failed", logger.Event("signup_failed"), logger.Error(err))
}

func (f *Flow) checkEmailAvailable(ctx context.Context, d Draft) error {
	email := normalizeEmail(d.Account.Email)
	f.gate.Track(email)

	exists, err := f.api.CheckEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return validator.Field(FieldEmail, "email already registered", "validation.email_registered")
	}
	return nil
}

func (f *Flow) checkVerified(_ context.Context, d Draft) error {
	return f.verificationError(d)
}

func (f *Flow) verificationError(d Draft) error {
	if f.gate.Verified(normalizeEmail(d.Account.Email)) {
		return nil
	}
	return validator.Field(FieldOTP, "email address has not been verified", "validation.otp_unverified")
}

// prepareSubmission is the submit action: full validation, the verification
// check and payload assembly. Any error keeps the flow where it was.
func (f *Flow) prepareSubmission(_ context.Context, _, _ statemachine.State, _ statemachine.Event, data any) error {
	t := data.(*transition)
	if err := validator.Merge(f.validator.All(t.draft), f.verificationError(t.draft)); err != nil {
		return err
	}

	req, err := BuildPayload(t.draft, f.cascade, f.gate.Code(normalizeEmail(t.draft.Account.Email)))
	if err != nil {
		return err
	}
	t.request = req
	return nil
}

func (f *Flow) logTransition(ctx context.Context, from, to statemachine.State, event statemachine.Event) {
	f.logger.DebugContext(ctx, "signup transition",
		slog.String("from", string(from)),
		logger.State(string(to)),
		logger.Event(string(event)),
	)
}

func (f *Flow) logRejected(ctx context.Context, step Step, err error) {
	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		f.logger.DebugContext(ctx, "step rejected", logger.Step(int(step)), logger.Fields(verrs.Fields()))
		return
	}
	f.logger.WarnContext(ctx, "step failed", logger.Step(int(step)), logger.Error(err))
}

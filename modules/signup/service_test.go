package signup_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/onboardkit/handler"
	"github.com/dmitrymomot/onboardkit/modules/signup"
	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/authsession"
	"github.com/dmitrymomot/onboardkit/pkg/otpgate"
	"github.com/dmitrymomot/onboardkit/pkg/ratelimiter"
)

// upstream is a fake of the remote REST API.
type upstream struct {
	mu         sync.Mutex
	registered map[string]bool
	otp        string
	signups    []map[string]any
	signupFail int
	sent       int
}

func newUpstream(t *testing.T) (*upstream, *apiclient.Client) {
	t.Helper()
	u := &upstream{registered: map[string]bool{"taken@b.com": true}, otp: "4321"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/send-otp/", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.sent++
		u.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"detail": "sent"})
	})
	mux.HandleFunc("POST /auth/verify-otp/", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["otp"] != u.otp {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid OTP"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"detail": "verified"})
	})
	mux.HandleFunc("POST /auth/check-email/", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		u.mu.Lock()
		defer u.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]bool{"exists": u.registered[in["email"]]})
	})
	mux.HandleFunc("POST /auth/signup/", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		u.mu.Lock()
		defer u.mu.Unlock()
		u.signups = append(u.signups, in)
		if u.signupFail != 0 {
			writeJSON(w, u.signupFail, map[string]any{"phone": []string{"Phone number already in use."}})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"access": "x", "refresh": "y"})
	})
	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "Str0ng!Pass99" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access":  "la",
			"refresh": "lr",
			"user":    map[string]string{"mobile_number": "9876543210"},
		})
	})
	locations := map[string]string{
		"/locations/states/":                       `[{"id":1,"name":"Telangana"},{"id":2,"name":"Andhra Pradesh"}]`,
		"/locations/districts/?state_id=1":         `[{"id":10,"name":"Hyderabad"}]`,
		"/locations/districts/?state_id=2":         `[{"id":20,"name":"Guntur"}]`,
		"/locations/mandals/?district_id=10":       `[{"id":100,"name":"Secunderabad"}]`,
		"/locations/grampanchayats/?mandal_id=100": `[{"id":1000,"name":"Bowenpally"}]`,
	}
	mux.HandleFunc("GET /locations/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := locations[r.URL.RequestURI()]
		if !ok {
			body = "[]"
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL, apiclient.WithTimeout(2*time.Second))
	require.NoError(t, err)
	return u, client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type harness struct {
	t        *testing.T
	up       *upstream
	store    *authsession.MemoryStore
	svc      *signup.Service
	srv      *httptest.Server
	sessions *authsession.Manager
}

func newHarness(t *testing.T, opts ...signup.Option) *harness {
	t.Helper()
	up, client := newUpstream(t)

	store := authsession.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	sessions := authsession.NewManager(store)

	svc := signup.NewService(client, sessions, append([]signup.Option{signup.WithCleanupInterval(0)}, opts...)...)
	t.Cleanup(func() { _ = svc.Close() })

	srv := httptest.NewServer(svc.Handle())
	t.Cleanup(srv.Close)

	return &harness{t: t, up: up, store: store, svc: svc, srv: srv, sessions: sessions}
}

type reply struct {
	status int
	body   handler.JSONResponse
	header http.Header
}

func (h *harness) do(method, path string, body any, headers ...string) reply {
	h.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(h.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	var out handler.JSONResponse
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return reply{status: resp.StatusCode, body: out, header: resp.Header}
}

// data returns the "data" member as a map.
func (r reply) data(t *testing.T) map[string]any {
	t.Helper()
	m, ok := r.body.Data.(map[string]any)
	require.True(t, ok, "data is %T", r.body.Data)
	return m
}

func (h *harness) start() string {
	h.t.Helper()
	r := h.do(http.MethodPost, "/signup", nil)
	require.Equal(h.t, http.StatusCreated, r.status)
	id, _ := r.data(h.t)["flow_id"].(string)
	require.NotEmpty(h.t, id)
	return id
}

func account(email string) map[string]string {
	return map[string]string{
		"email":            email,
		"password":         "Str0ng!Pass99",
		"confirm_password": "Str0ng!Pass99",
	}
}

var personal = map[string]string{
	"first_name":    "ada",
	"last_name":     "lovelace",
	"date_of_birth": "1990-05-17",
	"gender":        "female",
	"phone":         "9876543210",
}

var professional = map[string]string{
	"occupation":    "Engineer",
	"qualification": "B.Tech",
}

// walkToLocation completes steps 1-4 of flow id.
func (h *harness) walkToLocation(id string) {
	h.t.Helper()
	base := "/signup/" + id

	require.Equal(h.t, http.StatusOK, h.do(http.MethodPatch, base, account("new@b.com")).status)
	require.Equal(h.t, http.StatusOK, h.do(http.MethodPost, base+"/next", nil).status)
	require.Equal(h.t, http.StatusOK, h.do(http.MethodPost, base+"/otp/send", nil).status)
	require.Equal(h.t, http.StatusOK, h.do(http.MethodPost, base+"/otp/verify", map[string]string{"otp": "4321"}).status)
	require.Equal(h.t, http.StatusOK, h.do(http.MethodPost, base+"/next", nil).status)
	require.Equal(h.t, http.StatusOK, h.do(http.MethodPatch, base, personal).status)
	require.Equal(h.t, http.StatusOK, h.do(http.MethodPost, base+"/next", nil).status)
	require.Equal(h.t, http.StatusOK, h.do(http.MethodPatch, base, professional).status)
	r := h.do(http.MethodPost, base+"/next", nil)
	require.Equal(h.t, http.StatusOK, r.status)
	require.Equal(h.t, float64(5), r.data(h.t)["step"])
}

func TestService_EndToEnd(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	id := h.start()
	base := "/signup/" + id

	h.walkToLocation(id)

	r := h.do(http.MethodGet, base+"/locations/state", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Len(t, r.data(t)["options"], 2)

	require.Equal(t, http.StatusOK, h.do(http.MethodPut, base+"/locations/state", map[string]string{"id": "1"}).status)
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, base+"/locations/district", map[string]string{"id": "10"}).status)

	r = h.do(http.MethodGet, base+"/locations/mandal", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, []any{map[string]any{"id": "100", "name": "Secunderabad"}}, r.data(t)["options"])

	r = h.do(http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, r.status, "%+v", r.body.Error)
	result := r.data(t)
	assert.Equal(t, "/dashboard", result["redirect"])
	key, _ := result["session_key"].(string)
	require.NotEmpty(t, key)

	sess, err := h.sessions.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "x", sess.AccessToken)
	assert.Equal(t, "y", sess.RefreshToken)

	h.up.mu.Lock()
	require.Len(t, h.up.signups, 1)
	sent := h.up.signups[0]
	h.up.mu.Unlock()
	assert.Equal(t, "Telangana", sent["state"])
	assert.Equal(t, "Hyderabad", sent["district"])
	assert.Equal(t, "4321", sent["otp"])
	assert.Equal(t, "Ada", sent["firstName"])

	r = h.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "succeeded", r.data(t)["state"])

	r = h.do(http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, r.status)

	r = h.do(http.MethodPost, "/logout", nil, authsession.DefaultHeader, key)
	assert.Equal(t, http.StatusNoContent, r.status)
	_, err = h.sessions.Get(context.Background(), key)
	assert.ErrorIs(t, err, authsession.ErrSessionNotFound)
}

func TestService_StepValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	id := h.start()
	base := "/signup/" + id

	fields := account("new@b.com")
	delete(fields, "confirm_password")
	require.Equal(t, http.StatusOK, h.do(http.MethodPatch, base, fields).status)

	r := h.do(http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusUnprocessableEntity, r.status)
	require.NotNil(t, r.body.Error)
	assert.Equal(t, "validation_error", r.body.Error.Code)
	assert.Equal(t, []string{"confirm_password"}, keys(r.body.Error.Details))

	r = h.do(http.MethodGet, base, nil)
	assert.Equal(t, float64(1), r.data(t)["step"])
}

func TestService_EmailRegistered(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	id := h.start()
	base := "/signup/" + id

	require.Equal(t, http.StatusOK, h.do(http.MethodPatch, base, account("taken@b.com")).status)
	r := h.do(http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.Equal(t, []string{"email already registered"}, r.body.Error.Details["email"])
}

func TestService_VerificationRequired(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	id := h.start()
	base := "/signup/" + id

	require.Equal(t, http.StatusOK, h.do(http.MethodPatch, base, account("new@b.com")).status)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, base+"/next", nil).status)

	t.Run("verify before send", func(t *testing.T) {
		r := h.do(http.MethodPost, base+"/otp/verify", map[string]string{"otp": "4321"})
		assert.Equal(t, http.StatusConflict, r.status)
	})

	t.Run("next without verification", func(t *testing.T) {
		r := h.do(http.MethodPost, base+"/next", nil)
		require.Equal(t, http.StatusUnprocessableEntity, r.status)
		assert.Contains(t, r.body.Error.Details, "otp")
	})

	t.Run("wrong code shows server message", func(t *testing.T) {
		require.Equal(t, http.StatusOK, h.do(http.MethodPost, base+"/otp/send", nil).status)
		r := h.do(http.MethodPost, base+"/otp/verify", map[string]string{"otp": "0000"})
		require.Equal(t, http.StatusBadRequest, r.status)
		assert.Equal(t, "Invalid OTP", r.body.Error.Message)

		view := h.do(http.MethodGet, base, nil).data(t)
		assert.Equal(t, "sent", view["verification"])
	})

	t.Run("resend cooldown", func(t *testing.T) {
		r := h.do(http.MethodPost, base+"/otp/resend", nil)
		require.Equal(t, http.StatusTooManyRequests, r.status)
		assert.Contains(t, r.body.Error.Message, "remaining")
	})

	t.Run("submit refused", func(t *testing.T) {
		r := h.do(http.MethodPost, base+"/submit", nil)
		require.Equal(t, http.StatusUnprocessableEntity, r.status)
		assert.Contains(t, r.body.Error.Details, "otp")
	})
}

func TestService_SharedCooldown(t *testing.T) {
	t.Parallel()
	cooldown, err := otpgate.NewCooldown(ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0)), time.Minute)
	require.NoError(t, err)
	h := newHarness(t, signup.WithCooldown(cooldown))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		id := h.start()
		base := "/signup/" + id
		require.Equal(t, http.StatusOK, h.do(http.MethodPatch, base, account("new@b.com")).status)
		r := h.do(http.MethodPost, base+"/otp/send", nil)
		assert.Equal(t, want, r.status, "flow %d", i)
	}
}

func TestService_LocationErrors(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	id := h.start()
	base := "/signup/" + id

	r := h.do(http.MethodPut, base+"/locations/state", map[string]string{"id": "99"})
	require.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.Equal(t, []string{"select a valid state"}, r.body.Error.Details["state"])

	r = h.do(http.MethodPut, base+"/locations/district", map[string]string{"id": "10"})
	require.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.Equal(t, []string{"select a state first"}, r.body.Error.Details["district"])

	r = h.do(http.MethodGet, base+"/locations/planet", nil)
	assert.Equal(t, http.StatusNotFound, r.status)

	require.Equal(t, http.StatusOK, h.do(http.MethodPut, base+"/locations/state", map[string]string{"id": "1"}).status)
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, base+"/locations/district", map[string]string{"id": "10"}).status)
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, base+"/locations/state", map[string]string{"id": "2"}).status)

	r = h.do(http.MethodGet, base+"/locations/district", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Empty(t, r.data(t)["selected"])
	assert.Equal(t, []any{map[string]any{"id": "20", "name": "Guntur"}}, r.data(t)["options"])
}

func TestService_SubmitFailureThenRetry(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	id := h.start()
	base := "/signup/" + id
	h.walkToLocation(id)
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, base+"/locations/state", map[string]string{"id": "1"}).status)
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, base+"/locations/district", map[string]string{"id": "10"}).status)

	h.up.mu.Lock()
	h.up.signupFail = http.StatusBadRequest
	h.up.mu.Unlock()

	r := h.do(http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "Phone number already in use.", r.body.Error.Message)

	view := h.do(http.MethodGet, base, nil).data(t)
	assert.Equal(t, "failed", view["state"])
	assert.Equal(t, "Phone number already in use.", view["error"])

	h.up.mu.Lock()
	h.up.signupFail = http.StatusInternalServerError
	h.up.mu.Unlock()
	r = h.do(http.MethodPost, base+"/next", nil)
	assert.Equal(t, http.StatusBadGateway, r.status)

	h.up.mu.Lock()
	h.up.signupFail = 0
	h.up.mu.Unlock()
	r = h.do(http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.NotEmpty(t, r.data(t)["session_key"])
}

func TestService_UnknownFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	for _, path := range []string{"/signup/nope", "/signup/nope/next", "/signup/nope/otp/send"} {
		method := http.MethodPost
		if path == "/signup/nope" {
			method = http.MethodGet
		}
		r := h.do(method, path, nil)
		assert.Equal(t, http.StatusNotFound, r.status, path)
		assert.Equal(t, "not_found", r.body.Error.Code, path)
	}
}

func TestService_BadRequestBody(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	id := h.start()

	r := h.do(http.MethodPatch, "/signup/"+id, map[string]any{"nickname": "x"})
	assert.Equal(t, http.StatusBadRequest, r.status)
}

func TestService_StartLimit(t *testing.T) {
	t.Parallel()
	limiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0)), ratelimiter.Config{
		Capacity:       2,
		RefillRate:     2,
		RefillInterval: time.Hour,
	})
	require.NoError(t, err)
	h := newHarness(t, signup.WithStartLimiter(limiter))

	h.start()
	h.start()
	r := h.do(http.MethodPost, "/signup", nil)
	assert.Equal(t, http.StatusTooManyRequests, r.status)
	assert.NotEmpty(t, r.header.Get("Retry-After"))
}

func TestService_Login(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	t.Run("invalid input", func(t *testing.T) {
		r := h.do(http.MethodPost, "/login", map[string]string{"email": "nope"})
		require.Equal(t, http.StatusUnprocessableEntity, r.status)
		assert.Contains(t, r.body.Error.Details, "email")
	})

	t.Run("rejected credentials", func(t *testing.T) {
		r := h.do(http.MethodPost, "/login", map[string]string{"email": "a@b.com", "password": "wrong"})
		require.Equal(t, http.StatusBadRequest, r.status)
		assert.Equal(t, "Invalid credentials", r.body.Error.Message)
	})

	t.Run("success and logout", func(t *testing.T) {
		r := h.do(http.MethodPost, "/login", map[string]string{"email": "a@b.com", "password": "Str0ng!Pass99"})
		require.Equal(t, http.StatusOK, r.status)
		data := r.data(t)
		assert.Equal(t, "9876543210", data["mobile_number"])
		key := data["session_key"].(string)

		sess, err := h.sessions.Get(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, "la", sess.AccessToken)

		r = h.do(http.MethodPost, "/logout", nil, authsession.DefaultHeader, "Bearer "+key)
		assert.Equal(t, http.StatusNoContent, r.status)
		assert.Equal(t, 0, h.store.Len())
	})

	t.Run("logout without key", func(t *testing.T) {
		r := h.do(http.MethodPost, "/logout", nil)
		assert.Equal(t, http.StatusUnauthorized, r.status)
	})
}

func keys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

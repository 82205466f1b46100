package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
)

func newClient(t *testing.T, h http.Handler, opts ...apiclient.ClientOption) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := apiclient.New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestNew_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "http://", "://bad"} {
		_, err := apiclient.New(raw)
		assert.ErrorIs(t, err, apiclient.ErrInvalidBaseURL, raw)
	}
}

func TestClient_SendOTP(t *testing.T) {
	var got map[string]any
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/send-otp/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		got = decodeBody(t, r)
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.SendOTP(context.Background(), "a@b.com", "Ada"))
	assert.Equal(t, map[string]any{"email": "a@b.com", "name": "Ada"}, got)

	assert.ErrorIs(t, c.SendOTP(context.Background(), "", "Ada"), apiclient.ErrEmptyEmail)
}

func TestClient_VerifyOTP(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if body["otp"] != "1234" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid OTP"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.VerifyOTP(context.Background(), "a@b.com", "1234"))

	err := c.VerifyOTP(context.Background(), "a@b.com", "0000")
	apiErr, ok := apiclient.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid OTP", apiErr.Message)
	assert.True(t, apiErr.IsClientError())
}

func TestClient_CheckEmail(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/check-email/", r.URL.Path)
		body := decodeBody(t, r)
		_ = json.NewEncoder(w).Encode(map[string]bool{"exists": body["email"] == "taken@b.com"})
	}))

	exists, err := c.CheckEmail(context.Background(), "taken@b.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.CheckEmail(context.Background(), "free@b.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_SignupAndLogin(t *testing.T) {
	var signupBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signup/", func(w http.ResponseWriter, r *http.Request) {
		signupBody = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"access":"x","refresh":"y"}`))
	})
	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access":"a","refresh":"r","user":{"id":7}}`))
	})
	c := newClient(t, mux)

	tokens, err := c.Signup(context.Background(), apiclient.SignupRequest{
		Email:     "a@b.com",
		FirstName: "Ada",
		State:     "Telangana",
		OTP:       "1234",
	})
	require.NoError(t, err)
	assert.Equal(t, apiclient.TokenPair{Access: "x", Refresh: "y"}, tokens)
	assert.Equal(t, "Ada", signupBody["firstName"])
	assert.Equal(t, "Telangana", signupBody["state"])
	assert.Equal(t, "1234", signupBody["otp"])
	assert.NotContains(t, signupBody, "mandal")

	resp, err := c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Access)
	assert.Equal(t, "r", resp.Refresh)
	assert.JSONEq(t, `{"id":7}`, string(resp.User))
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error key", 400, `{"error":"Email already registered"}`, "Email already registered"},
		{"message key", 400, `{"message":"bad"}`, "bad"},
		{"detail key", 401, `{"detail":"Not authenticated"}`, "Not authenticated"},
		{"field error", 400, `{"email":["user with this email already exists."]}`, "user with this email already exists."},
		{"plain string", 400, `"nope"`, "nope"},
		{"not json", 500, `<html>oops</html>`, "Internal Server Error"},
		{"empty body", 503, ``, "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			err := c.SendOTP(context.Background(), "a@b.com", "")
			apiErr, ok := apiclient.AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Error())
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := apiclient.New(url)
	require.NoError(t, err)

	err = c.SendOTP(context.Background(), "a@b.com", "")
	assert.ErrorIs(t, err, apiclient.ErrRequestFailed)
	_, ok := apiclient.AsAPIError(err)
	assert.False(t, ok)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), apiclient.WithTimeout(50*time.Millisecond))
	defer close(release)

	err := c.SendOTP(context.Background(), "a@b.com", "")
	assert.ErrorIs(t, err, apiclient.ErrRequestFailed)
}

func TestClient_TokenSource(t *testing.T) {
	var auth atomic.Value
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}), apiclient.WithTokenSource(apiclient.StaticToken("tok")))

	_, err := c.States(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", auth.Load())

	failing := newClient(t, http.NotFoundHandler(), apiclient.WithTokenSource(
		apiclient.TokenSourceFunc(func(context.Context) (string, error) { return "", errors.New("boom") }),
	))
	assert.Error(t, failing.SendOTP(context.Background(), "a@b.com", ""))
}

func TestClient_Locations(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /locations/states/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[{"id":1,"name":"Telangana"},{"id":"2","name":"Andhra Pradesh"}]`))
	})
	mux.HandleFunc("GET /locations/districts/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "1", r.URL.Query().Get("state_id"))
		_, _ = w.Write([]byte(`[{"id":10,"name":"Hyderabad"}]`))
	})
	mux.HandleFunc("GET /locations/mandals/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("district_id"))
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("GET /locations/grampanchayats/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newClient(t, mux)
	ctx := context.Background()

	states, err := c.States(ctx)
	require.NoError(t, err)
	assert.Equal(t, []apiclient.Option{{ID: "1", Name: "Telangana"}, {ID: "2", Name: "Andhra Pradesh"}}, states)

	t.Run("cached", func(t *testing.T) {
		states[0].Name = "mutated"
		again, err := c.States(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Telangana", again[0].Name)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("children", func(t *testing.T) {
		districts, err := c.Districts(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, []apiclient.Option{{ID: "10", Name: "Hyderabad"}}, districts)

		mandals, err := c.Mandals(ctx, "10")
		require.NoError(t, err)
		assert.Empty(t, mandals)
		assert.NotNil(t, mandals)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		_, err := c.GramPanchayats(ctx, "5")
		_, ok := apiclient.AsAPIError(err)
		assert.True(t, ok)
	})

	t.Run("parent required", func(t *testing.T) {
		_, err := c.Districts(ctx, "")
		assert.ErrorIs(t, err, apiclient.ErrMissingParent)
		_, err = c.Locations(ctx, apiclient.Level(9), "1")
		assert.ErrorIs(t, err, apiclient.ErrInvalidLevel)
	})

	t.Run("invalidate", func(t *testing.T) {
		c.InvalidateLocations()
		_, err := c.States(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestClient_LocationsCoalesced(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(`[{"id":1,"name":"Telangana"}]`))
	}), apiclient.WithLocationCache(0, 0))

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			opts, err := c.States(context.Background())
			assert.NoError(t, err)
			assert.Len(t, opts, 1)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_LocationsCallerCancel(t *testing.T) {
	release := make(chan struct{})
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`[]`))
	}))
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.States(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLevel(t *testing.T) {
	l, err := apiclient.ParseLevel("district")
	require.NoError(t, err)
	assert.Equal(t, apiclient.LevelDistrict, l)
	assert.Equal(t, apiclient.LevelState, l.Parent())
	assert.Equal(t, apiclient.LevelMandal, l.Child())

	l, err = apiclient.ParseLevel("village")
	require.NoError(t, err)
	assert.Equal(t, apiclient.LevelGramPanchayat, l)
	assert.Equal(t, apiclient.Level(0), l.Child())

	_, err = apiclient.ParseLevel("planet")
	assert.ErrorIs(t, err, apiclient.ErrInvalidLevel)
}

package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
)

// TokenPair is the credential pair returned by signup and login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginResponse is the login answer. User is kept raw; its shape belongs to
// the API.
type LoginResponse struct {
	TokenPair
	User json.RawMessage `json:"user,omitempty"`
}

// SignupRequest is the signup body. Location fields carry display names.
type SignupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	DateOfBirth    string `json:"dateOfBirth"`
	Gender         string `json:"gender"`
	Phone          string `json:"phone"`
	Occupation     string `json:"occupation"`
	Qualification  string `json:"qualification"`
	ReferralSource string `json:"referralSource,omitempty"`
	State          string `json:"state"`
	District       string `json:"district"`
	Mandal         string `json:"mandal,omitempty"`
	GramPanchayat  string `json:"gramPanchayat,omitempty"`
	OTP            string `json:"otp"`
}

// SendOTP asks the API to email a one-time code.
func (c *Client) SendOTP(ctx context.Context, email, name string) error {
	if email == "" {
		return ErrEmptyEmail
	}
	body := struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}{email, name}
	return c.do(ctx, http.MethodPost, "/auth/send-otp/", nil, body, nil)
}

// VerifyOTP checks a code previously sent to email.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	if email == "" {
		return ErrEmptyEmail
	}
	body := struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}{email, otp}
	return c.do(ctx, http.MethodPost, "/auth/verify-otp/", nil, body, nil)
}

// CheckEmail reports whether an account already uses email.
func (c *Client) CheckEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, ErrEmptyEmail
	}
	body := struct {
		Email string `json:"email"`
	}{email}
	var resp struct {
		Exists bool `json:"exists"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/check-email/", nil, body, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// Signup creates the account and returns its tokens.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (TokenPair, error) {
	var tokens TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/signup/", nil, req, &tokens); err != nil {
		return TokenPair{}, err
	}
	return tokens, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	if email == "" {
		return LoginResponse{}, ErrEmptyEmail
	}
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login/", nil, body, &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

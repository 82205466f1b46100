package authsession

import (
	"encoding/json"
	"time"

	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
)

// Storage field names. They match the keys the web front-end keeps in local
// storage, so a session written by either side reads the same.
const (
	FieldAccessToken  = "access_token"
	FieldRefreshToken = "refresh_token"
	FieldUser         = "user"
	FieldMobileNumber = "mobile_number"
	FieldProfilePhoto = "profile_photo"
	FieldCreatedAt    = "created_at"
)

// Session is an authenticated token pair plus the profile bits the front-end
// caches next to it.
type Session struct {
	Key          string    `json:"-"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	User         string    `json:"user,omitempty"`
	MobileNumber string    `json:"mobile_number,omitempty"`
	ProfilePhoto string    `json:"profile_photo,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromTokens builds a session from a signup answer.
func FromTokens(tokens apiclient.TokenPair) Session {
	return Session{
		AccessToken:  tokens.Access,
		RefreshToken: tokens.Refresh,
	}
}

// FromLogin builds a session from a login answer. The user document is kept
// verbatim; mobile number and profile photo are lifted out of it when present.
func FromLogin(resp apiclient.LoginResponse) Session {
	s := FromTokens(resp.TokenPair)
	if len(resp.User) == 0 || string(resp.User) == "null" {
		return s
	}
	s.User = string(resp.User)

	var profile map[string]any
	if err := json.Unmarshal(resp.User, &profile); err != nil {
		return s
	}
	s.MobileNumber = firstString(profile, "mobile_number", "mobileNumber", "phone")
	s.ProfilePhoto = firstString(profile, "profile_photo", "profilePhoto")
	return s
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Valid reports whether the session carries an access token.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != ""
}

// Fields flattens the session into its storage fields. Empty optional fields
// are omitted.
func (s *Session) Fields() map[string]string {
	fields := map[string]string{
		FieldAccessToken:  s.AccessToken,
		FieldRefreshToken: s.RefreshToken,
		FieldCreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if s.User != "" {
		fields[FieldUser] = s.User
	}
	if s.MobileNumber != "" {
		fields[FieldMobileNumber] = s.MobileNumber
	}
	if s.ProfilePhoto != "" {
		fields[FieldProfilePhoto] = s.ProfilePhoto
	}
	return fields
}

// sessionFromFields is the inverse of Fields.
func sessionFromFields(key string, fields map[string]string) (*Session, error) {
	s := &Session{
		Key:          key,
		AccessToken:  fields[FieldAccessToken],
		RefreshToken: fields[FieldRefreshToken],
		User:         fields[FieldUser],
		MobileNumber: fields[FieldMobileNumber],
		ProfilePhoto: fields[FieldProfilePhoto],
	}
	if raw := fields[FieldCreatedAt]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, ErrInvalidSession
		}
		s.CreatedAt = t
	}
	if !s.Valid() {
		return nil, ErrInvalidSession
	}
	return s, nil
}

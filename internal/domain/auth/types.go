// Package auth contains domain-level types for admin authentication and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"net/http"
	"time"
)

// Credentials are what an admin types into the sign-in form.
type Credentials struct {
	Email    string
	Password string
}

// Identity is the admin principal returned by the platform on sign-in.
type Identity struct {
	AdminID string
	Name    string
	Email   string
}

// Tokens is the persisted form of the platform credentials held for one admin.
// Cookies carry the refresh token set by the platform; AccessToken is the bearer.
type Tokens struct {
	AccessToken string         `json:"access_token"`
	Cookies     []*http.Cookie `json:"cookies,omitempty"`
}

// Session is the server-side record we persist for a signed-in admin.
// ID is an opaque session identifier (random UUID) carried in the session cookie.
type Session struct {
	ID        string    `json:"id"`
	AdminID   string    `json:"admin_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Tokens    Tokens    `json:"tokens"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

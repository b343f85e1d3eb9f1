package config

import (
	"strings"
	"time"
)

// SessionConfig controls admin web sessions.
type SessionConfig struct {
	// TTL is how long a signed-in admin stays signed in.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// CookieName names the cookie carrying the session ID.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"session_id"`

	// KeyPrefix namespaces session keys in Redis.
	KeyPrefix string `env:"SESSION_KEY_PREFIX" envDefault:"admin-session:"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.TTL < 5*time.Minute {
		s.TTL = 5 * time.Minute
	}
	if s.CookieName = strings.TrimSpace(s.CookieName); s.CookieName == "" {
		s.CookieName = "session_id"
	}
	if s.KeyPrefix == "" {
		s.KeyPrefix = "admin-session:"
	}
}

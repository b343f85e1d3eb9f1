package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	"github.com/edukit/admin-dashboard/internal/ports"
)

// DefaultSessionTTL is how long an admin stays signed in when no TTL is configured.
const DefaultSessionTTL = 12 * time.Hour

// ErrSessionExpired is returned for missing, expired or revoked admin sessions.
var ErrSessionExpired = errors.New("session expired")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Authenticator ports.Authenticator // Required: platform sign-in
	Sessions      ports.SessionStore  // Required: session persistence
	TTL           time.Duration       // Optional: session lifetime
	Now           func() time.Time    // Optional: clock
	Logger        *slog.Logger        // Optional: structured logger
}

// AuthService signs admins in against the platform and keeps their sessions,
// including the platform tokens, in the session store.
type AuthService struct {
	auth     ports.Authenticator
	sessions ports.SessionStore
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu       sync.Mutex
	onLogout []func(sessionID string)
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Authenticator == nil {
		return nil, errors.New("authenticator is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		auth:     opts.Authenticator,
		sessions: opts.Sessions,
		ttl:      ttl,
		now:      now,
		logger:   logger.With("component", "auth_service"),
	}, nil
}

// OnLogout registers fn to run whenever a session ends, by logout or expiry.
func (s *AuthService) OnLogout(fn func(sessionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// SignIn checks credentials with the platform and persists a new session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domainauth.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.ValidationField("email", "email is required")
	}
	if password == "" {
		return nil, apperrors.ValidationField("password", "password is required")
	}

	identity, tokens, err := s.auth.SignIn(ctx, domainauth.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		AdminID:   identity.AdminID,
		Name:      identity.Name,
		Email:     identity.Email,
		Tokens:    tokens,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.logger.InfoContext(ctx, "admin signed in", "admin_id", session.AdminID, "session_id", session.ID)
	return &session, nil
}

// GetSession retrieves a live session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionExpired
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired(s.now()) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		s.notifyLogout(sessionID)
		return nil, ErrSessionExpired
	}
	if session.Tokens.AccessToken == "" {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// Logout revokes the platform refresh cookie and removes the session.
// A platform failure is logged; the local session is removed regardless.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	session, err := s.sessions.Get(ctx, sessionID)
	switch {
	case err == nil:
		if signOutErr := s.auth.SignOut(ctx, session.Tokens); signOutErr != nil {
			s.logger.WarnContext(ctx, "platform sign-out failed", "session_id", sessionID, "error", signOutErr)
		}
	case !errors.Is(err, ports.ErrSessionNotFound):
		s.logger.WarnContext(ctx, "load session for logout failed", "session_id", sessionID, "error", err)
	}

	return s.Expire(ctx, sessionID)
}

// Expire removes the session without contacting the platform.
// Used when a token refresh failed and the platform session is already gone.
func (s *AuthService) Expire(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.notifyLogout(sessionID)
	return nil
}

// PersistTokens writes refreshed platform tokens back to the session.
func (s *AuthService) PersistTokens(ctx context.Context, sessionID string, tokens domainauth.Tokens) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	session.Tokens = tokens
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return fmt.Errorf("save session: %w", saveErr)
	}
	return nil
}

func (s *AuthService) notifyLogout(sessionID string) {
	s.mu.Lock()
	hooks := append([]func(string){}, s.onLogout...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(sessionID)
	}
}

// generateSessionID creates a random session ID.
func generateSessionID() string {
	// Use UUID for session ID - it's URL-safe and has good entropy
	return uuid.NewString()
}

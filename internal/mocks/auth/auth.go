// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	"github.com/edukit/admin-dashboard/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Authenticator = (*MockAuthenticator)(nil)
	_ ports.SessionStore  = (*MemorySessionStore)(nil)
)

// MockAuthenticator simulates the platform sign-in endpoints.
// Without SignInFunc it accepts Password and issues numbered access tokens.
type MockAuthenticator struct {
	SignInFunc  func(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, domainauth.Tokens, error)
	SignOutFunc func(ctx context.Context, tokens domainauth.Tokens) error

	Password    string
	DefaultUser domainauth.Identity

	mu       sync.Mutex
	signIns  int
	SignOuts []domainauth.Tokens
}

// ErrInvalidCredentials is returned by the default SignIn for a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// NewMockAuthenticator creates a MockAuthenticator accepting password for any email.
func NewMockAuthenticator(password string) *MockAuthenticator {
	return &MockAuthenticator{
		Password: password,
		DefaultUser: domainauth.Identity{
			AdminID: "admin-1",
			Name:    "Mock Admin",
		},
	}
}

func (m *MockAuthenticator) SignIn(
	ctx context.Context,
	creds domainauth.Credentials,
) (domainauth.Identity, domainauth.Tokens, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, creds)
	}
	if creds.Password != m.Password {
		return domainauth.Identity{}, domainauth.Tokens{}, ErrInvalidCredentials
	}

	m.mu.Lock()
	m.signIns++
	n := m.signIns
	m.mu.Unlock()

	id := m.DefaultUser
	id.Email = creds.Email
	tokens := domainauth.Tokens{
		AccessToken: "access-" + strconv.Itoa(n),
		Cookies:     []*http.Cookie{{Name: "refreshToken", Value: "refresh", Path: "/"}},
	}
	return id, tokens, nil
}

func (m *MockAuthenticator) SignOut(ctx context.Context, tokens domainauth.Tokens) error {
	m.mu.Lock()
	m.SignOuts = append(m.SignOuts, tokens)
	m.mu.Unlock()
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx, tokens)
	}
	return nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if id == "" || !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are stored.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

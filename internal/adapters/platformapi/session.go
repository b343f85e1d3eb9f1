package platformapi

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
)

// Session holds one admin's platform credentials: the bearer access token and
// the cookie jar carrying the refresh cookie. It is safe for concurrent use and
// is injected into a Client rather than held globally.
type Session struct {
	mu         sync.RWMutex
	token      string
	jar        *cookiejar.Jar
	refreshURL *url.URL
}

// NewSession restores a session for baseURL from previously persisted tokens.
func NewSession(baseURL *url.URL, tokens domainauth.Tokens) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	s := &Session{
		token:      tokens.AccessToken,
		jar:        jar,
		refreshURL: baseURL.JoinPath(pathRefresh),
	}
	if len(tokens.Cookies) > 0 {
		jar.SetCookies(s.refreshURL, tokens.Cookies)
	}
	return s, nil
}

// Token returns the current access token, read at request-send time.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the access token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear drops the access token and every cookie. Used on logout and refresh failure.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err == nil {
		s.jar = jar
	}
}

// Active reports whether the session holds an access token.
func (s *Session) Active() bool {
	return s.Token() != ""
}

// Tokens snapshots the session in its persisted form.
func (s *Session) Tokens() domainauth.Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domainauth.Tokens{
		AccessToken: s.token,
		Cookies:     s.jar.Cookies(s.refreshURL),
	}
}

// Jar returns a cookie jar that always delegates to the session's current jar.
func (s *Session) Jar() http.CookieJar {
	return sessionJar{s: s}
}

type sessionJar struct{ s *Session }

func (j sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.s.mu.RLock()
	jar := j.s.jar
	j.s.mu.RUnlock()
	jar.SetCookies(u, cookies)
}

func (j sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.s.mu.RLock()
	jar := j.s.jar
	j.s.mu.RUnlock()
	return jar.Cookies(u)
}

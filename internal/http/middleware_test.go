package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

type staticSessions map[string]*domainauth.Session

func (s staticSessions) GetSession(_ context.Context, id string) (*domainauth.Session, error) {
	if sess, ok := s[id]; ok {
		return sess, nil
	}
	return nil, apperrors.Auth("session expired")
}

func protectedEcho(t *testing.T, sessions SessionReader) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSessionFromContext(r.Context())
		require.NotNil(t, sess)
		_, _ = w.Write([]byte(sess.Email))
	})
	return RequireAuth(sessions, CookieConfig{Name: "session_id", Insecure: true})(next)
}

func TestRequireAuth_RedirectsBrowserToSignIn(t *testing.T) {
	h := protectedEcho(t, staticSessions{})

	req := httptest.NewRequest(http.MethodGet, "/learners?page=2", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/signin?redirect_uri=%2Flearners%3Fpage%3D2", rec.Header().Get("Location"))
}

func TestRequireAuth_HTMXGetsRedirectHeader(t *testing.T) {
	h := protectedEcho(t, staticSessions{})

	req := httptest.NewRequest(http.MethodPost, "/learners/l1/toggle", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Current-URL", "http://admin.local/learners?search=ann")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/auth/signin?redirect_uri=%2Flearners%3Fsearch%3Dann", rec.Header().Get("HX-Redirect"))
}

func TestRequireAuth_ClearsStaleCookie(t *testing.T) {
	h := protectedEcho(t, staticSessions{})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "gone"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "stale session cookie should be expired")
}

func TestRequireAuth_PassesSessionThrough(t *testing.T) {
	sess := &domainauth.Session{ID: "s1", Email: "ops@example.com", ExpiresAt: time.Now().Add(time.Hour)}
	h := protectedEcho(t, staticSessions{"s1": sess})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "s1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@example.com", rec.Body.String())
}

func TestSafeRedirectPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/learners?page=2", "/learners?page=2"},
		{"", "/"},
		{"https://evil.example/learners", "/"},
		{"//evil.example", "/"},
		{"learners", "/"},
		{"/courses", "/courses"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, safeRedirectPath(tt.in))
		})
	}
}

func TestCookieConfig_SetUsesSessionExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := CookieConfig{Name: "session_id", Domain: "admin.local"}
	req := httptest.NewRequest(http.MethodPost, "/auth/signin", nil)
	rec := httptest.NewRecorder()

	cfg.set(rec, req, &domainauth.Session{ID: "s1", ExpiresAt: now.Add(2 * time.Hour)}, now)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "s1", c.Value)
	assert.Equal(t, 7200, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestRecover_Returns500(t *testing.T) {
	h := Recover(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

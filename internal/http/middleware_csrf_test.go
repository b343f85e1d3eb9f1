package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfEcho() http.Handler {
	return CSRF(CookieConfig{Insecure: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(CSRFToken(r)))
	}))
}

func TestCSRF_GetIssuesToken(t *testing.T) {
	rec := httptest.NewRecorder()
	csrfEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/learners", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var issued *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			issued = c
		}
	}
	require.NotNil(t, issued, "csrf cookie not set")
	assert.NotEmpty(t, issued.Value)
	assert.Equal(t, issued.Value, rec.Body.String(), "handlers see the issued token")
}

func TestCSRF_RejectsPostWithoutToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/learners/l1/toggle", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	csrfEcho().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRF_AcceptsHeaderToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/learners/l1/toggle", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	req.Header.Set(CSRFHeader, "tok")
	rec := httptest.NewRecorder()
	csrfEcho().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_AcceptsFormToken(t *testing.T) {
	form := url.Values{"csrf_token": {"tok"}, "email": {"ops@example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	csrfEcho().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_RejectsMismatchedToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/learners/confirm", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	req.Header.Set(CSRFHeader, "other")
	rec := httptest.NewRecorder()
	csrfEcho().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

package httpx

import (
	"net/http"
	"strings"

	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

const postSignInPath = "/dashboard"

func signInMeta() PageMeta {
	return PageMeta{Title: "Sign in", PageTitle: "Admin sign in", CurrentPage: PageSignIn}
}

// SignInPage renders the sign-in form. Signed-in admins go straight on.
// GET /auth/signin.
func (h *UIHandlers) SignInPage(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	if redirectURI == "/" {
		redirectURI = postSignInPath
	}
	if sess := getSessionFromRequest(r, h.Auth, h.Cookies.Name); sess != nil {
		http.Redirect(w, r, redirectURI, http.StatusSeeOther)
		return
	}
	data := NewTemplateData(r, signInMeta()).
		With("RedirectURI", redirectURI).
		With("Form", map[string]string{}).
		Build()
	h.renderPage(w, r, data)
}

// SignIn checks the admin's credentials with the platform and starts a session.
// POST /auth/signin.
func (h *UIHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	redirectURI := safeRedirectPath(r.FormValue("redirect_uri"))
	if redirectURI == "/" {
		redirectURI = postSignInPath
	}

	sess, err := h.Auth.SignIn(r.Context(), email, r.FormValue("password"))
	if err != nil {
		if !apperrors.IsValidation(err) && !apperrors.IsAuth(err) {
			h.logger().WarnContext(r.Context(), "admin sign-in failed", "error", err)
		}
		h.RenderError(ErrorOpts{
			W:        w,
			R:        r,
			Err:      err,
			PageMeta: signInMeta(),
			Data: map[string]any{
				"RedirectURI": redirectURI,
				"Form":        map[string]string{"email": email},
			},
			StatusCode: signInFailureStatus(r, err),
		})
		return
	}

	h.Cookies.set(w, r, sess, h.now())
	if IsHTMX(r) {
		HTMX(w).Redirect(redirectURI)
		return
	}
	http.Redirect(w, r, redirectURI, http.StatusSeeOther)
}

// signInFailureStatus keeps 200 for htmx so the form with its errors swaps in.
func signInFailureStatus(r *http.Request, err error) int {
	if IsHTMX(r) {
		return 0
	}
	if apperrors.IsValidation(err) {
		return http.StatusUnprocessableEntity
	}
	if apperrors.IsAuth(err) {
		return http.StatusUnauthorized
	}
	return 0
}

// Logout ends the admin session on the platform and locally.
// POST /auth/logout.
func (h *UIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.Cookies.Name); err == nil && c.Value != "" {
		if logoutErr := h.Auth.Logout(r.Context(), c.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}
	h.Cookies.clear(w, r)

	if IsHTMX(r) {
		HTMX(w).Redirect(SignInPath)
		return
	}
	http.Redirect(w, r, SignInPath, http.StatusSeeOther)
}

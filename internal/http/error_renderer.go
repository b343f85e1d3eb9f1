package httpx

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	"github.com/edukit/admin-dashboard/internal/service"
)

const errMsgFixBelow = "Please fix the errors below."

// ErrorOpts contains the options for re-rendering a page after a failed submit.
type ErrorOpts struct {
	W   http.ResponseWriter
	R   *http.Request
	Err error
	// FieldErrors contains field-level validation errors (field name → message).
	FieldErrors map[string]string
	PageMeta    PageMeta
	// Data preserves form input and other page fields.
	Data map[string]any
	// StatusCode is set when non-zero; htmx forms keep 200 so the form swaps in.
	StatusCode int
	ShowToast  bool
}

// sessionGone reports whether err means the admin must sign in again.
func sessionGone(err error) bool {
	return apperrors.IsRefreshFailure(err) || errors.Is(err, service.ErrSessionExpired)
}

// respondError answers a failed action. A lost session sends the browser to
// sign in; other failures become a toast for htmx, leaving the page as it is,
// or a plain error response otherwise.
func (h *UIHandlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if sessionGone(err) {
		h.Cookies.clear(w, r)
		redirectToSignIn(w, r)
		return
	}
	if !apperrors.IsValidation(err) && !apperrors.IsConflict(err) && !apperrors.IsNotFound(err) {
		h.logger().WarnContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	if IsHTMX(r) {
		triggerToast(w, apperrors.UserMessage(err), "error")
		HTMX(w).NoSwap()
		return
	}
	http.Error(w, apperrors.UserMessage(err), StatusFor(err))
}

// RenderError re-renders a page with field errors and a general message.
func (h *UIHandlers) RenderError(opts ErrorOpts) {
	builder := NewTemplateData(opts.R, opts.PageMeta)

	generalError := processError(opts.Err, &opts.FieldErrors)
	if len(opts.FieldErrors) > 0 {
		builder.WithFieldErrors(opts.FieldErrors)
	}
	if generalError != "" {
		builder.WithError(generalError)
	}
	for k, v := range opts.Data {
		builder.With(k, v)
	}
	if opts.ShowToast && generalError != "" {
		triggerToast(opts.W, generalError, "error")
	}
	if opts.StatusCode != 0 {
		opts.W.Header().Set("Content-Type", "text/html; charset=utf-8")
		opts.W.WriteHeader(opts.StatusCode)
	}
	h.renderPage(opts.W, opts.R, builder.Build())
}

// processError returns the general message for err and moves a validation
// error naming a field into fieldErrors.
func processError(err error, fieldErrors *map[string]string) string {
	if err == nil {
		if fieldErrors != nil && len(*fieldErrors) > 0 {
			return errMsgFixBelow
		}
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out. Please try again."
	}
	if errors.Is(err, context.Canceled) {
		return "Request was canceled."
	}
	if apperrors.IsValidation(err) {
		if field := apperrors.GetField(err); field != "" && fieldErrors != nil {
			if *fieldErrors == nil {
				*fieldErrors = make(map[string]string)
			}
			(*fieldErrors)[field] = apperrors.UserMessage(err)
			return errMsgFixBelow
		}
	}
	return apperrors.UserMessage(err)
}

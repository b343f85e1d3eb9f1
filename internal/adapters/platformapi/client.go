// Package platformapi talks to the learning platform's admin REST API.
package platformapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	"github.com/edukit/admin-dashboard/internal/observability/metrics"
	"github.com/edukit/admin-dashboard/internal/observability/statsd"
)

const (
	pathSignIn  = "/admin/signin"
	pathLogout  = "/admin/logout"
	pathRefresh = "/admin/refresh"

	maxResponseBytes = 4 << 20
	refreshTimeout   = 15 * time.Second
)

// Hooks observe session changes made by the client.
type Hooks struct {
	// OnRefreshed runs after a refresh stored a new access token.
	OnRefreshed func(ctx context.Context, tokens domainauth.Tokens)
	// OnCleared runs after a failed refresh cleared the session.
	OnCleared func(ctx context.Context)
}

// Client issues authenticated requests for one admin session.
//
// A 401 answer triggers a single token refresh followed by one replay of the
// original request. Concurrent 401s on the same client share one refresh.
type Client struct {
	base    *url.URL
	http    *http.Client
	session *Session
	hooks   Hooks
	mapping Mapping
	eval    Evaluator
	metrics statsd.Sink
	logger  *slog.Logger
	now     func() time.Time

	refreshes singleflight.Group
}

// Request describes one platform call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// NoRefresh disables the refresh-and-replay path (sign-in, logout).
	NoRefresh bool
}

// Do sends req and decodes the JSON response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	_, err := c.do(ctx, req, out)
	return err
}

func (c *Client) do(ctx context.Context, req Request, out any) (document, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return document{}, err
	}

	token := c.session.Token()
	res, err := c.send(ctx, req, body, token, false)
	if err != nil {
		return document{}, err
	}

	if res.status == http.StatusUnauthorized && !req.NoRefresh {
		fresh, rerr := c.tokenAfter(ctx, token)
		if rerr != nil {
			return document{}, rerr
		}
		// Replayed once; a second 401 falls through to the error mapping below.
		res, err = c.send(ctx, req, body, fresh, true)
		if err != nil {
			return document{}, err
		}
	}

	doc, derr := parseDocument(res.payload, c.eval)
	if res.status < 200 || res.status > 299 {
		msg := ""
		if derr == nil {
			msg = doc.str(c.mapping.Message)
		}
		return doc, apperrors.FromStatus(res.status, msg)
	}
	if derr != nil {
		return doc, apperrors.Wrap(derr, apperrors.ErrCodeServer, apperrors.GenericRetryMessage)
	}
	if out != nil && doc.data != nil {
		raw, _ := json.Marshal(doc.data)
		if err := json.Unmarshal(raw, out); err != nil {
			return doc, apperrors.Wrap(err, apperrors.ErrCodeServer, apperrors.GenericRetryMessage)
		}
	}
	return doc, nil
}

type response struct {
	status  int
	payload []byte
}

func (c *Client) send(ctx context.Context, req Request, body []byte, token string, retried bool) (response, error) {
	start := c.now()
	res, err := c.roundTrip(ctx, req, body, token)
	metrics.EmitPlatformRequest(c.metrics, metrics.PlatformRequest{
		Method:   req.Method,
		Route:    req.Path,
		Status:   res.status,
		Retried:  retried,
		Duration: c.now().Sub(start),
		Err:      err,
	})
	return res, err
}

func (c *Client) roundTrip(ctx context.Context, req Request, body []byte, token string) (response, error) {
	u := c.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), rdr)
	if err != nil {
		return response{}, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "build %s %s", req.Method, req.Path)
	}
	hreq.Header.Set("Accept", "application/json")
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		hreq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		return response{}, transportError(ctx, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{status: resp.StatusCode}, transportError(ctx, err)
	}
	return response{status: resp.StatusCode, payload: payload}, nil
}

// tokenAfter returns a token newer than stale, refreshing when nobody else has.
func (c *Client) tokenAfter(ctx context.Context, stale string) (string, error) {
	if current := c.session.Token(); current != "" && current != stale {
		return current, nil
	}
	v, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		// Another caller may have finished a refresh between our 401 and this flight.
		if current := c.session.Token(); current != "" && current != stale {
			return current, nil
		}
		return c.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	// Shared by every waiter, so one caller's cancellation must not fail the rest.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()

	start := c.now()
	token, err := c.requestToken(rctx)
	metrics.EmitRefresh(c.metrics, c.now().Sub(start), err)
	if err != nil {
		c.logger.WarnContext(ctx, "platform token refresh failed", "error", err)
		c.session.Clear()
		if c.hooks.OnCleared != nil {
			c.hooks.OnCleared(rctx)
		}
		return "", apperrors.RefreshFailed(err)
	}

	c.session.SetToken(token)
	if c.hooks.OnRefreshed != nil {
		c.hooks.OnRefreshed(rctx, c.session.Tokens())
	}
	c.logger.DebugContext(ctx, "platform token refreshed")
	return token, nil
}

func (c *Client) requestToken(ctx context.Context) (string, error) {
	// The refresh call authenticates with the refresh cookie only.
	res, err := c.send(ctx, Request{Method: http.MethodPost, Path: pathRefresh}, nil, "", false)
	if err != nil {
		return "", err
	}
	doc, derr := parseDocument(res.payload, c.eval)
	if res.status < 200 || res.status > 299 {
		msg := ""
		if derr == nil {
			msg = doc.str(c.mapping.Message)
		}
		return "", apperrors.FromStatus(res.status, msg)
	}
	if derr != nil {
		return "", derr
	}
	token := doc.str(c.mapping.Token)
	if token == "" {
		return "", errors.New("refresh response carried no access token")
	}
	return token, nil
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session { return c.session }

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request body")
	}
	return b, nil
}

func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "request was canceled")
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, apperrors.GenericRetryMessage)
	default:
		return apperrors.Network(err)
	}
}

package platformapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	"github.com/edukit/admin-dashboard/internal/observability/statsd"
)

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper // shared by every client; defaults to http.DefaultTransport
	Mapping   Mapping
	Evaluator Evaluator
	Metrics   statsd.Sink
	Logger    *slog.Logger
	Now       func() time.Time
}

// Factory builds per-admin clients that share one transport.
type Factory struct {
	base      *url.URL
	timeout   time.Duration
	transport http.RoundTripper
	mapping   Mapping
	eval      Evaluator
	metrics   statsd.Sink
	logger    *slog.Logger
	now       func() time.Time
}

// NewFactory validates opts and returns a Factory.
func NewFactory(opts FactoryOptions) (*Factory, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("platform base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse platform base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("platform base url must be http or https, got %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, errors.New("platform base url must include a host")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	eval := opts.Evaluator
	if eval == nil {
		eval = jmespathLibEvaluator{}
	}
	mapping := opts.Mapping.withDefaults()
	if err := mapping.Validate(eval); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Factory{
		base:      base,
		timeout:   timeout,
		transport: transport,
		mapping:   mapping,
		eval:      eval,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "platformapi"),
		now:       now,
	}, nil
}

// BaseURL returns the platform base URL.
func (f *Factory) BaseURL() *url.URL {
	u := *f.base
	return &u
}

// NewSession restores a session from persisted tokens.
func (f *Factory) NewSession(tokens domainauth.Tokens) (*Session, error) {
	return NewSession(f.base, tokens)
}

// NewClient returns a client bound to sess.
func (f *Factory) NewClient(sess *Session, hooks Hooks) *Client {
	return &Client{
		base: f.base,
		http: &http.Client{
			Transport: f.transport,
			Jar:       sess.Jar(),
			Timeout:   f.timeout,
		},
		session: sess,
		hooks:   hooks,
		mapping: f.mapping,
		eval:    f.eval,
		metrics: f.metrics,
		logger:  f.logger,
		now:     f.now,
	}
}

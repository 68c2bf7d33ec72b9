// Package api is the client of the link shortening backend.
//
// Every backend action is one method on Client. Responses are classified in one
// place into the outcomes OK, BadRequest, Unauthorized, ServerError and
// NetworkFailure. A 401 from any authenticated call clears the session and
// triggers the unauthorized handler before the error is returned.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/vadimbarashkov/dlink/internal/session"
	"golang.org/x/oauth2"
)

// Client calls the backend REST API.
type Client struct {
	baseURL        string
	session        *session.Session
	public         *http.Client
	authed         *http.Client
	onUnauthorized func()
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for calls. Authenticated calls wrap
// its transport to attach the bearer token.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.public = hc
	}
}

// WithUnauthorizedHandler sets fn to run after a 401 has cleared the session,
// typically to navigate back to the landing view.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithLogger sets the logger used for call tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		session:        sess,
		public:         &http.Client{},
		onUnauthorized: func() {},
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	base := c.public.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	c.authed = &http.Client{
		Transport: &oauth2.Transport{
			Source: sess,
			Base:   base,
		},
		CheckRedirect: c.public.CheckRedirect,
		Jar:           c.public.Jar,
		Timeout:       c.public.Timeout,
	}

	return c
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
	// attach sends the token when one is present without requiring it.
	attach bool
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	if req.auth && !c.session.Authenticated() {
		err := classify(req.op, nil, session.ErrNoToken, nil)
		c.unauthorized(req)
		return err
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return &Error{Op: req.op, Outcome: OutcomeNetworkFailure, Err: err}
	}

	hc := c.public
	if req.auth || (req.attach && c.session.Authenticated()) {
		hc = c.authed
	}

	resp, err := hc.Do(httpReq)
	err = classify(req.op, resp, err, out)

	outcome := OutcomeOf(err)
	attrs := []any{
		slog.String("op", req.op),
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.String("outcome", outcome.String()),
	}
	if resp != nil {
		attrs = append(attrs, slog.Int("status", resp.StatusCode))
	}

	switch {
	case err == nil:
		c.logger.Debug("api call", attrs...)
	case isCanceled(err):
		c.logger.Debug("api call canceled", attrs...)
	default:
		c.logger.Info("api call failed", append(attrs, slog.Any("err", err))...)
	}

	if req.auth && outcome == OutcomeUnauthorized {
		c.unauthorized(req)
	}

	return err
}

func (c *Client) unauthorized(req request) {
	if err := c.session.Expire(); err != nil {
		c.logger.Error("failed to clear session", slog.String("op", req.op), slog.Any("err", err))
	}
	c.onUnauthorized()
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}

// Apple Music catalog and library API client
//
// Every request carries the user's Music-User-Token, the web player Origin and a bearer token
// scraped once per client from the web player bundle.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spta/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// APIOrigin is the catalog API host all relative paths resolve against.
	APIOrigin = "https://api.music.apple.com"

	DefaultMaxRetries    = 30
	DefaultRetryInterval = time.Second
)

// Config holds the client's credentials and retry policy.
type Config struct {
	UserToken     string
	MaxRetries    int           // total attempts for a request answered with 5xx
	RetryInterval time.Duration // fixed wait between attempts
	// RequestsPerSecond paces outgoing requests. Zero means unlimited.
	RequestsPerSecond float64
}

// DefaultConfig returns the standard retry policy for the given user token.
func DefaultConfig(userToken string) Config {
	return Config{
		UserToken:     userToken,
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: DefaultRetryInterval,
	}
}

// Client issues authenticated requests against the catalog API.
//
// The bearer token is bootstrapped lazily on the first request and kept for the lifetime of the client.
// It is never refreshed, so a token that expires mid-run surfaces as failed requests.
type Client struct {
	config     Config
	baseURL    *url.URL
	origin     string
	httpClient *http.Client
	tokens     TokenFetcher
	limiter    *rate.Limiter
	logger     *log.Logger

	mu     sync.Mutex
	bearer *oauth2.Token
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for API calls and, unless overridden, bootstrapping.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the client at another API host.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil && raw != "" {
			c.baseURL = u
		}
	}
}

// WithOrigin overrides the Origin header value.
func WithOrigin(origin string) Option {
	return func(c *Client) {
		if origin != "" {
			c.origin = origin
		}
	}
}

// WithTokenFetcher replaces the bearer token bootstrap.
func WithTokenFetcher(f TokenFetcher) Option {
	return func(c *Client) {
		if f != nil {
			c.tokens = f
		}
	}
}

// WithLogger sets the logger for request and retry diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a catalog client. Missing retry settings fall back to the defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryInterval < 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}

	base, _ := url.Parse(APIOrigin)
	c := &Client{
		config:     cfg,
		baseURL:    base,
		origin:     WebOrigin,
		httpClient: http.DefaultClient,
		logger:     shared.NewLogger(io.Discard),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.tokens == nil {
		c.tokens = NewBootstrapper(WebOrigin, c.httpClient, c.logger)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	c.limiter = rate.NewLimiter(limit, 1)

	return c
}

// Token returns the bearer token, bootstrapping it on first use.
//
// Concurrent first callers share one bootstrap. A failed bootstrap is not cached.
func (c *Client) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bearer != nil {
		return c.bearer, nil
	}

	raw, err := c.tokens.FetchBearerToken(ctx)
	if err != nil {
		return nil, err
	}

	c.bearer = &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	return c.bearer, nil
}

// Get issues a GET against path and decodes the body into out.
//
// Query values are merged into any query already present in path, which lets pagination links be passed through verbatim.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out Envelope) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decode(resp.body, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body any, out Envelope) error {
	resp, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return decode(resp.body, out)
}

// PostNoContent sends body as JSON to an endpoint that answers with an empty body on success.
//
// A failure status is decoded as an error envelope and returned as data.
func (c *Client) PostNoContent(ctx context.Context, path string, body any) (ErrorResponse, error) {
	var failure ErrorResponse

	resp, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return failure, err
	}

	if resp.status < http.StatusBadRequest {
		return failure, nil
	}

	if err := decode(resp.body, &failure); err != nil {
		return failure, fmt.Errorf("status %d: %w", resp.status, err)
	}
	return failure, nil
}

type rawResponse struct {
	status int
	proto  string
	body   []byte
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}

	u := c.baseURL.ResolveReference(ref)
	if len(query) > 0 {
		merged := u.Query()
		for k, vs := range query {
			merged[k] = vs
		}
		u.RawQuery = merged.Encode()
	}
	return u.String(), nil
}

// do performs the request, retrying on 5xx until the attempt budget is spent.
//
// When every attempt fails with 5xx the last response is returned without an error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*rawResponse, error) {
	target, err := c.resolve(path, query)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	var last *rawResponse
	attempt := 0
	op := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		req.Header.Set("Music-User-Token", c.config.UserToken)
		req.Header.Set("Origin", c.origin)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		token.SetAuthHeader(req)

		c.logger.Debug("request", "method", method, "url", target, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %s %s: %v", ErrTransport, method, target, err))
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: failed to read response: %v", ErrTransport, err))
		}

		last = &rawResponse{status: resp.StatusCode, proto: resp.Proto, body: data}
		c.logger.Debug("response", "proto", resp.Proto, "status", resp.StatusCode, "body", string(data))

		if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
			return errServerStatus
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.config.RetryInterval), uint64(c.config.MaxRetries-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("retrying after server error", "url", target, "status", last.status, "wait", wait)
	}

	err = backoff.RetryNotify(op, policy, notify)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	switch {
	case errors.Is(err, errServerStatus):
		c.logger.Warn("giving up after server errors", "url", target, "attempts", attempt, "status", last.status)
		return last, nil
	case err != nil:
		return nil, err
	}

	return last, nil
}

// Package shopify provides a Shopify Admin REST API client: OAuth code
// exchange, query and webhook signature verification, and authenticated
// admin calls with normalized responses.
package shopify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/donaldgifford/shopify-admin/internal/metrics"
	"github.com/donaldgifford/shopify-admin/pkg/logger"
)

const (
	// DefaultTTL is the default timeout of the transport built by New.
	DefaultTTL = 10 * time.Second

	// AccessTokenHeader authenticates admin API calls.
	AccessTokenHeader = "X-Shopify-Access-Token" //nolint:gosec // header name, not a credential

	platformDomain = "myshopify.com"
)

// Config is the per-shop client state.
type Config struct {
	Shop   string
	Key    string
	Secret string
	TTL    time.Duration

	// BaseURL is scheme and host of the shop's admin API.
	BaseURL *url.URL
}

// Client is a Shopify Admin API client bound to one shop.
type Client struct {
	cfg      Config
	log      *slog.Logger
	doer     Doer
	verifier Verifier
	pipeline *pipeline
	exchange *TokenExchanger

	mu    sync.RWMutex
	token string
}

// Option configures the Client.
type Option func(*options)

type options struct {
	token   string
	key     string
	secret  string
	ttl     time.Duration
	baseURL string
	doer    Doer
	log     *slog.Logger
}

// WithAccessToken supplies an existing access token.
func WithAccessToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithCredentials supplies the app's API key and secret.
func WithCredentials(key, secret string) Option {
	return func(o *options) {
		o.key = key
		o.secret = secret
	}
}

// WithTTL sets the timeout of the default transport.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithBaseURL overrides the admin API origin derived from the shop.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithHTTPClient overrides the HTTP collaborator.
func WithHTTPClient(d Doer) Option {
	return func(o *options) {
		o.doer = d
	}
}

// WithLogger sets the logger used for debug and audit lines.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// New creates a client for shop. Either an access token, or an API key and
// secret, must be supplied.
func New(shop string, opts ...Option) (*Client, error) {
	o := options{ttl: DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	shop = strings.TrimSpace(shop)
	if shop == "" {
		return nil, fmt.Errorf("%w: shop is required", ErrInvalidConfig)
	}

	hasToken := strings.TrimSpace(o.token) != ""
	hasCreds := strings.TrimSpace(o.key) != "" && strings.TrimSpace(o.secret) != ""
	if !hasToken && !hasCreds {
		return nil, fmt.Errorf(
			"%w: either an access token or an api key and secret are required",
			ErrInvalidConfig,
		)
	}
	if o.ttl <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", ErrInvalidConfig)
	}

	base, err := resolveBaseURL(shop, o.baseURL)
	if err != nil {
		return nil, err
	}

	if o.log == nil {
		o.log = logger.Discard()
	}
	if o.doer == nil {
		o.doer = &http.Client{Timeout: o.ttl}
	}

	c := &Client{
		cfg: Config{
			Shop:    shop,
			TTL:     o.ttl,
			BaseURL: base,
		},
		log:  o.log.With("shop", shop),
		doer: o.doer,
	}

	switch {
	case hasToken:
		c.token = o.token
		c.log.Debug("configured with access token")
	default:
		c.log.Debug("configured with api credentials")
	}
	if hasCreds {
		c.cfg.Key = o.key
		c.cfg.Secret = o.secret
	}

	c.verifier = NewVerifier(c.cfg.Secret)
	c.pipeline = &pipeline{
		base:   base,
		doer:   c.doer,
		tokens: c,
		log:    c.log,
	}
	c.exchange = &TokenExchanger{
		shop:     shop,
		verifier: c.verifier,
		secret:   c.cfg.Secret,
		calls:    c.pipeline,
		store:    c,
		log:      c.log,
	}

	return c, nil
}

func resolveBaseURL(shop, override string) (*url.URL, error) {
	raw := override
	if raw == "" {
		host := shop
		if !strings.Contains(host, ".") {
			host += "." + platformDomain
		}
		raw = "https://" + host
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %w", ErrInvalidConfig, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q needs scheme and host", ErrInvalidConfig, raw)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	cfg := c.cfg
	base := *c.cfg.BaseURL
	cfg.BaseURL = &base
	return cfg
}

// Shop returns the shop the client is bound to.
func (c *Client) Shop() string { return c.cfg.Shop }

// Token returns the cached access token, or "" before an exchange.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// GetToken exchanges the authorization code carried by src for an access
// token and caches it on the client.
func (c *Client) GetToken(ctx context.Context, src QuerySource) (string, error) {
	if c.cfg.Secret == "" {
		return "", fmt.Errorf("exchanging code: %w", ErrSecretNotConfigured)
	}
	token, err := c.exchange.Exchange(ctx, src)
	if err != nil {
		return "", fmt.Errorf("exchanging code: %w", err)
	}
	return token, nil
}

// Request performs an admin API call. data is optional: for GET it becomes
// the query string, for POST and PUT the request body.
func (c *Client) Request(
	ctx context.Context,
	method, path string,
	data any,
) (*Response, error) {
	return c.pipeline.call(ctx, method, path, data)
}

// VerifyQuery checks the signature of a redirect query.
func (c *Client) VerifyQuery(src QuerySource) error {
	err := c.verifier.VerifyQuery(src)
	recordSignatureCheck("query", err)
	return err
}

// IsInvalidQuerySignature reports whether a redirect query fails to verify.
func (c *Client) IsInvalidQuerySignature(src QuerySource) bool {
	return c.VerifyQuery(src) != nil
}

// VerifyBody checks the HMAC signature of a webhook payload.
func (c *Client) VerifyBody(src SignatureSource, payload []byte) error {
	err := c.verifier.VerifyBody(src, payload)
	recordSignatureCheck("body", err)
	return err
}

// IsInvalidBodySignature reports whether a webhook payload fails to verify.
func (c *Client) IsInvalidBodySignature(src SignatureSource, payload []byte) bool {
	return c.VerifyBody(src, payload) != nil
}

func recordSignatureCheck(kind string, err error) {
	result := "valid"
	switch {
	case err == nil:
	case errors.Is(err, ErrSignatureMismatch):
		result = "mismatch"
	case errors.Is(err, ErrSecretNotConfigured):
		result = "no_secret"
	default:
		result = "missing"
	}
	metrics.SignatureChecksTotal.WithLabelValues(kind, result).Inc()
}

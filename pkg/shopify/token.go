package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/donaldgifford/shopify-admin/internal/metrics"
)

const accessTokenPath = "/oauth/access_token" //nolint:gosec // endpoint path, not a credential

// caller dispatches admin API calls.
type caller interface {
	call(ctx context.Context, method, path string, data any) (*Response, error)
}

// tokenWriter stores a freshly exchanged token.
type tokenWriter interface {
	setToken(token string)
}

// TokenExchanger trades an OAuth authorization code for an access token.
// Concurrent exchanges of the same code share one request; exchanges of
// different codes are last-write-wins on the stored token.
type TokenExchanger struct {
	shop     string
	verifier Verifier
	secret   string
	calls    caller
	store    tokenWriter
	log      *slog.Logger

	inflight singleflight.Group
}

type exchangeRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
}

type exchangeResponse struct {
	AccessToken *string `json:"access_token"`
	Scope       string  `json:"scope"`
}

// Exchange resolves the code from src, verifies the query signature and
// performs the exchange. Nothing is sent when the signature does not verify.
func (e *TokenExchanger) Exchange(ctx context.Context, src QuerySource) (string, error) {
	q, err := resolveQuery(src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCodeNotFound, err)
	}
	code, err := resolveCode(q)
	if err != nil {
		return "", err
	}

	if err := e.verifier.VerifyQuery(NestedQuery{Query: q}); err != nil {
		metrics.TokenExchangesTotal.WithLabelValues("invalid_signature").Inc()
		e.log.Warn("rejected token exchange", "shop", e.shop, "reason", err)
		return "", fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	// The shared exchange is detached from any one caller's cancellation;
	// each caller only stops waiting on its own ctx.
	detached := context.WithoutCancel(ctx)
	ch := e.inflight.DoChan(code, func() (any, error) {
		return e.exchange(detached, code)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			e.log.Debug("joined in-flight token exchange", "shop", e.shop)
		}
		return res.Val.(string), nil
	}
}

func (e *TokenExchanger) exchange(ctx context.Context, code string) (string, error) {
	resp, err := e.calls.call(ctx, http.MethodPost, accessTokenPath, exchangeRequest{
		ClientID:     e.shop,
		ClientSecret: e.secret,
		Code:         code,
	})
	if err != nil {
		metrics.TokenExchangesTotal.WithLabelValues("error").Inc()
		return "", err
	}

	token, err := accessTokenFrom(resp)
	if err != nil {
		metrics.TokenExchangesTotal.WithLabelValues("no_token").Inc()
		return "", err
	}

	e.store.setToken(token)
	metrics.TokenExchangesTotal.WithLabelValues("success").Inc()
	e.log.Info("exchanged authorization code", "shop", e.shop)
	return token, nil
}

// accessTokenFrom reads access_token from the raw body so that the
// single-key envelope rule cannot hide it.
func accessTokenFrom(resp *Response) (string, error) {
	if resp == nil || resp.Raw == nil || len(resp.Raw.Body) == 0 {
		return "", ErrNoToken
	}

	var r exchangeResponse
	if err := json.Unmarshal(resp.Raw.Body, &r); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoToken, err)
	}
	if r.AccessToken == nil || strings.TrimSpace(*r.AccessToken) == "" {
		return "", ErrNoToken
	}
	return *r.AccessToken, nil
}

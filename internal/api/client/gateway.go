package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Status is the gateway's probe state.
type Status struct {
	Healthy   bool   `json:"healthy"`
	Ready     bool   `json:"ready"`
	Readiness string `json:"readiness"`
}

// Status reports the gateway's liveness and whether it holds an access
// token. A not-ready gateway is not an error.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var health, ready struct {
		Status string `json:"status"`
	}

	if err := c.get(ctx, "/healthz", &health); err != nil {
		return nil, fmt.Errorf("checking health: %w", err)
	}

	s := &Status{Healthy: health.Status == "ok"}

	err := c.get(ctx, "/readyz", &ready)
	switch {
	case err == nil:
		s.Ready = true
		s.Readiness = ready.Status
	case StatusCode(err) == http.StatusServiceUnavailable:
		s.Readiness = "not ready"
		var apiErr *Error
		if errors.As(err, &apiErr) && json.Unmarshal([]byte(apiErr.Body), &ready) == nil && ready.Status != "" {
			s.Readiness = ready.Status
		}
	default:
		return nil, fmt.Errorf("checking readiness: %w", err)
	}

	return s, nil
}

// AuthURL asks the gateway for an OAuth authorize URL.
func (c *Client) AuthURL(ctx context.Context, scope, redirectURI string) (string, error) {
	q := url.Values{}
	if scope != "" {
		q.Set("scope", scope)
	}
	if redirectURI != "" {
		q.Set("redirect_uri", redirectURI)
	}

	path := "/api/v1/auth/url"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return "", fmt.Errorf("getting auth url: %w", err)
	}
	return out.URL, nil
}

// SignatureResult is the gateway's verdict on a signature.
type SignatureResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// VerifyQuery asks the gateway to check a signed redirect query.
func (c *Client) VerifyQuery(ctx context.Context, query string) (*SignatureResult, error) {
	var out SignatureResult
	if err := c.post(ctx, "/api/v1/signatures/query", map[string]string{"query": query}, &out); err != nil {
		return nil, fmt.Errorf("verifying query signature: %w", err)
	}
	return &out, nil
}

// VerifyBody asks the gateway to check a webhook body signature.
func (c *Client) VerifyBody(ctx context.Context, payload, signature string) (*SignatureResult, error) {
	body := map[string]string{"payload": payload, "signature": signature}

	var out SignatureResult
	if err := c.post(ctx, "/api/v1/signatures/body", body, &out); err != nil {
		return nil, fmt.Errorf("verifying body signature: %w", err)
	}
	return &out, nil
}

// Shop fetches the shop resource through the gateway.
func (c *Client) Shop(ctx context.Context) (map[string]any, error) {
	var out struct {
		Shop map[string]any `json:"shop"`
	}
	if err := c.get(ctx, "/api/v1/shop", &out); err != nil {
		return nil, fmt.Errorf("getting shop: %w", err)
	}
	return out.Shop, nil
}

// AdminRequest is an Admin API call relayed by the gateway.
type AdminRequest struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Data   any    `json:"data,omitempty"`
}

// AdminResponse is the gateway's normalized view of an Admin API response.
type AdminResponse struct {
	Status    int             `json:"status"`
	Envelope  string          `json:"envelope,omitempty"`
	Unwrapped bool            `json:"unwrapped"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Admin relays an Admin API call through the gateway.
func (c *Client) Admin(ctx context.Context, req AdminRequest) (*AdminResponse, error) {
	var out AdminResponse
	if err := c.post(ctx, "/api/v1/admin/request", req, &out); err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return &out, nil
}

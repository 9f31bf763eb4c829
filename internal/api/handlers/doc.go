// Package handlers implements the HTTP handlers of the shop gateway: the
// OAuth install flow, webhook verification, health probes and the JSON API.
package handlers

import (
	"context"

	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

// ShopClient is the part of *shopify.Client the handlers depend on.
type ShopClient interface {
	Shop() string
	Token() string
	AuthURL(scopes []string, redirectURI string) (string, error)
	GetToken(ctx context.Context, src shopify.QuerySource) (string, error)
	Request(ctx context.Context, method, path string, data any) (*shopify.Response, error)
	VerifyQuery(src shopify.QuerySource) error
	VerifyBody(src shopify.SignatureSource, payload []byte) error
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

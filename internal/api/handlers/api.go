package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

// APIHandler serves the JSON API of the gateway.
type APIHandler struct {
	client      ShopClient
	scopes      []string
	redirectURL string
}

// NewAPIHandler creates a new APIHandler. scopes and redirectURL are the
// defaults used by the auth URL endpoint.
func NewAPIHandler(client ShopClient, scopes []string, redirectURL string) *APIHandler {
	return &APIHandler{client: client, scopes: scopes, redirectURL: redirectURL}
}

// AuthURLInput selects the scopes and redirect of an authorize URL.
type AuthURLInput struct {
	Scope       string `query:"scope" doc:"Comma-separated scopes; defaults to the configured scopes" example:"read_products,write_orders"`
	RedirectURI string `query:"redirect_uri" doc:"Callback URL; defaults to the configured redirect" example:"https://app.example.com/auth/callback"`
}

// AuthURLOutput is the response body for the auth URL endpoint.
type AuthURLOutput struct {
	Body struct {
		URL string `json:"url" doc:"OAuth authorize URL to send the merchant to"`
	}
}

// AuthURL builds the OAuth authorize URL.
func (h *APIHandler) AuthURL(_ context.Context, input *AuthURLInput) (*AuthURLOutput, error) {
	scopes := h.scopes
	if input.Scope != "" {
		scopes = strings.Split(input.Scope, ",")
	}
	redirect := h.redirectURL
	if input.RedirectURI != "" {
		redirect = input.RedirectURI
	}

	u, err := h.client.AuthURL(scopes, redirect)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	out := &AuthURLOutput{}
	out.Body.URL = u
	return out, nil
}

// QuerySignatureInput is the request body for query signature checks.
type QuerySignatureInput struct {
	Body struct {
		Query string `json:"query" minLength:"1" doc:"Raw query string or full callback URL" example:"code=abc&shop=acme.myshopify.com&timestamp=1337178173&signature=..."`
	}
}

// BodySignatureInput is the request body for webhook signature checks.
type BodySignatureInput struct {
	Body struct {
		Payload   string `json:"payload" doc:"Raw webhook body"`
		Signature string `json:"signature" minLength:"1" doc:"Value of the X-Shopify-Hmac-SHA256 header"`
	}
}

// SignatureOutput reports the outcome of a signature check.
type SignatureOutput struct {
	Body struct {
		Valid  bool   `json:"valid" doc:"Whether the signature matches"`
		Reason string `json:"reason,omitempty" doc:"Why verification failed"`
	}
}

// VerifyQuery checks the signature of a redirect query.
func (h *APIHandler) VerifyQuery(_ context.Context, input *QuerySignatureInput) (*SignatureOutput, error) {
	return signatureResult(h.client.VerifyQuery(shopify.RawQuery(input.Body.Query)))
}

// VerifyBody checks the HMAC signature of a webhook payload.
func (h *APIHandler) VerifyBody(_ context.Context, input *BodySignatureInput) (*SignatureOutput, error) {
	return signatureResult(h.client.VerifyBody(
		shopify.RawSignature(input.Body.Signature),
		[]byte(input.Body.Payload),
	))
}

func signatureResult(err error) (*SignatureOutput, error) {
	out := &SignatureOutput{}
	switch {
	case err == nil:
		out.Body.Valid = true
	case errors.Is(err, shopify.ErrSecretNotConfigured):
		return nil, huma.Error503ServiceUnavailable("api secret not configured")
	case errors.Is(err, shopify.ErrContractViolation):
		return nil, huma.Error400BadRequest(err.Error())
	default:
		out.Body.Reason = err.Error()
	}
	return out, nil
}

// ShopOutput is the response body for the shop endpoint.
type ShopOutput struct {
	Body struct {
		Shop map[string]any `json:"shop" doc:"Shop resource as returned by the Admin API"`
	}
}

// Shop fetches the shop resource with the cached access token.
func (h *APIHandler) Shop(ctx context.Context, _ *struct{}) (*ShopOutput, error) {
	resp, err := h.client.Request(ctx, http.MethodGet, "shop.json", nil)
	if err != nil {
		return nil, upstreamError(err)
	}

	out := &ShopOutput{}
	if err := resp.Decode(&out.Body.Shop); err != nil {
		return nil, huma.Error502BadGateway("unexpected shop response: " + err.Error())
	}
	return out, nil
}

// AdminRequestInput describes a raw admin API call.
type AdminRequestInput struct {
	Body struct {
		Method string `json:"method" enum:"GET,POST,PUT" doc:"HTTP method" example:"GET"`
		Path   string `json:"path" minLength:"1" doc:"Admin path, with or without the /admin prefix" example:"products/count.json"`
		Data   any    `json:"data,omitempty" doc:"Query parameters for GET, JSON body for POST and PUT"`
	}
}

// AdminRequestOutput is the normalized response of an admin API call.
type AdminRequestOutput struct {
	Body struct {
		Status    int    `json:"status" doc:"Upstream HTTP status"`
		Envelope  string `json:"envelope,omitempty" doc:"Top-level key removed from a single-key response"`
		Unwrapped bool   `json:"unwrapped" doc:"Whether the payload was unwrapped from its envelope"`
		Payload   any    `json:"payload,omitempty" doc:"Normalized payload"`
	}
}

// AdminRequest forwards a call to the Admin API and returns the normalized
// response.
func (h *APIHandler) AdminRequest(ctx context.Context, input *AdminRequestInput) (*AdminRequestOutput, error) {
	resp, err := h.client.Request(ctx, input.Body.Method, input.Body.Path, input.Body.Data)
	if err != nil {
		return nil, upstreamError(err)
	}

	out := &AdminRequestOutput{}
	out.Body.Status = resp.Raw.StatusCode
	out.Body.Envelope = resp.Envelope
	out.Body.Unwrapped = resp.Unwrapped
	if resp.HasPayload() {
		if err := resp.Decode(&out.Body.Payload); err != nil {
			return nil, huma.Error502BadGateway(err.Error())
		}
	}
	return out, nil
}

func upstreamError(err error) error {
	var apiErr *shopify.APIError
	switch {
	case errors.Is(err, shopify.ErrContractViolation):
		return huma.Error400BadRequest(err.Error())
	case errors.As(err, &apiErr):
		return huma.Error502BadGateway("shopify API error: " + apiErr.Error())
	default:
		return huma.Error502BadGateway(err.Error())
	}
}

// RegisterAPIRoutes registers the JSON endpoints with the Huma API.
func RegisterAPIRoutes(api huma.API, h *APIHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-auth-url",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/url",
		Summary:     "Build OAuth authorize URL",
		Description: "Returns the URL a merchant is sent to when installing the app.",
		Tags:        []string{"auth"},
		Errors:      []int{http.StatusBadRequest},
	}, h.AuthURL)

	huma.Register(api, huma.Operation{
		OperationID: "verify-query-signature",
		Method:      http.MethodPost,
		Path:        "/api/v1/signatures/query",
		Summary:     "Verify redirect query signature",
		Tags:        []string{"signatures"},
		Errors:      []int{http.StatusBadRequest, http.StatusServiceUnavailable},
	}, h.VerifyQuery)

	huma.Register(api, huma.Operation{
		OperationID: "verify-body-signature",
		Method:      http.MethodPost,
		Path:        "/api/v1/signatures/body",
		Summary:     "Verify webhook body signature",
		Tags:        []string{"signatures"},
		Errors:      []int{http.StatusBadRequest, http.StatusServiceUnavailable},
	}, h.VerifyBody)

	huma.Register(api, huma.Operation{
		OperationID: "get-shop",
		Method:      http.MethodGet,
		Path:        "/api/v1/shop",
		Summary:     "Get shop",
		Description: "Fetches the shop resource from the Admin API.",
		Tags:        []string{"admin"},
		Errors:      []int{http.StatusBadGateway},
	}, h.Shop)

	huma.Register(api, huma.Operation{
		OperationID: "admin-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/request",
		Summary:     "Call the Admin API",
		Description: "Forwards a GET, POST or PUT to the Admin API and returns the normalized response.",
		Tags:        []string{"admin"},
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, h.AdminRequest)
}

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopify-admin/internal/api/handlers"
	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

func TestAPIHandler_AuthURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		path         string
		defaults     []string
		wantStatus   int
		wantScope    string
		wantRedirect string
	}{
		{
			name:         "configured defaults",
			path:         "/api/v1/auth/url",
			defaults:     []string{"read_products"},
			wantStatus:   http.StatusOK,
			wantScope:    "read_products",
			wantRedirect: testRedirect,
		},
		{
			name:         "query overrides",
			path:         "/api/v1/auth/url?scope=read_orders,write_orders&redirect_uri=https://other.example.com/cb",
			defaults:     []string{"read_products"},
			wantStatus:   http.StatusOK,
			wantScope:    "read_orders,write_orders",
			wantRedirect: "https://other.example.com/cb",
		},
		{
			name:       "no scopes returns 400",
			path:       "/api/v1/auth/url",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := handlers.NewAPIHandler(newShop(t, tokenEndpoint), tt.defaults, testRedirect)

			_, api := humatest.New(t)
			handlers.RegisterAPIRoutes(api, h)

			resp := api.Get(tt.path)
			require.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body struct {
				URL string `json:"url"`
			}
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			u, err := url.Parse(body.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScope, u.Query().Get("scope"))
			assert.Equal(t, tt.wantRedirect, u.Query().Get("redirect_uri"))
		})
	}
}

func TestAPIHandler_VerifySignatures(t *testing.T) {
	t.Parallel()

	const payload = `{"id":1}`

	tampered := signedCallback()
	tampered.Set("timestamp", "1")

	tests := []struct {
		name       string
		path       string
		body       any
		tokenOnly  bool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid query",
			path:       "/api/v1/signatures/query",
			body:       map[string]any{"query": signedCallback().Encode()},
			wantStatus: http.StatusOK,
			wantBody:   `{"valid":true}`,
		},
		{
			name:       "valid callback URL",
			path:       "/api/v1/signatures/query",
			body:       map[string]any{"query": testRedirect + "?" + signedCallback().Encode()},
			wantStatus: http.StatusOK,
			wantBody:   `{"valid":true}`,
		},
		{
			name:       "tampered query",
			path:       "/api/v1/signatures/query",
			body:       map[string]any{"query": tampered.Encode()},
			wantStatus: http.StatusOK,
			wantBody:   `"valid":false`,
		},
		{
			name:       "empty query returns 422",
			path:       "/api/v1/signatures/query",
			body:       map[string]any{"query": ""},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "valid body",
			path:       "/api/v1/signatures/body",
			body:       map[string]any{"payload": payload, "signature": shopify.SignBody(testSecret, []byte(payload))},
			wantStatus: http.StatusOK,
			wantBody:   `{"valid":true}`,
		},
		{
			name:       "flipped body",
			path:       "/api/v1/signatures/body",
			body:       map[string]any{"payload": `{"id":2}`, "signature": shopify.SignBody(testSecret, []byte(payload))},
			wantStatus: http.StatusOK,
			wantBody:   `"valid":false`,
		},
		{
			name:       "no secret returns 503",
			path:       "/api/v1/signatures/body",
			body:       map[string]any{"payload": payload, "signature": "abc"},
			tokenOnly:  true,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "invalid JSON returns 400",
			path:       "/api/v1/signatures/body",
			body:       strings.NewReader(`not json`),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var client handlers.ShopClient = newShop(t, tokenEndpoint)
			if tt.tokenOnly {
				c, err := shopify.New("acme", shopify.WithAccessToken("shpat_x"))
				require.NoError(t, err)
				client = c
			}

			_, api := humatest.New(t)
			handlers.RegisterAPIRoutes(api, handlers.NewAPIHandler(client, nil, ""))

			resp := api.Post(tt.path, tt.body)
			require.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantBody != "" {
				assert.Contains(t, resp.Body.String(), strings.Trim(tt.wantBody, "{}"))
			}
		})
	}
}

func TestAPIHandler_Shop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		upstream   http.HandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			name: "unwraps shop envelope",
			upstream: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/admin/shop.json", r.URL.Path)
				assert.Equal(t, "shpat_x", r.Header.Get(shopify.AccessTokenHeader))
				_, _ = w.Write([]byte(`{"shop":{"id":1,"name":"Acme"}}`))
			},
			wantStatus: http.StatusOK,
			wantBody:   `"name":"Acme"`,
		},
		{
			name: "upstream 401 returns 502",
			upstream: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"errors":"[API] Invalid API key or access token"}`))
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `shopify API error`,
		},
		{
			name: "empty body returns 502",
			upstream: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `unexpected shop response`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newShop(t, tt.upstream, shopify.WithAccessToken("shpat_x"))

			_, api := humatest.New(t)
			handlers.RegisterAPIRoutes(api, handlers.NewAPIHandler(client, nil, ""))

			resp := api.Get("/api/v1/shop")
			require.Equal(t, tt.wantStatus, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}

func TestAPIHandler_AdminRequest(t *testing.T) {
	t.Parallel()

	client := newShop(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/admin/products/count.json":
			assert.Equal(t, "active", r.URL.Query().Get("status"))
			_, _ = w.Write([]byte(`{"count":3}`))
		case r.Method == http.MethodPut && r.URL.Path == "/admin/products/1.json":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"product":{"id":1},"warnings":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, shopify.WithAccessToken("shpat_x"))

	_, api := humatest.New(t)
	handlers.RegisterAPIRoutes(api, handlers.NewAPIHandler(client, nil, ""))

	resp := api.Post("/api/v1/admin/request", map[string]any{
		"method": "GET",
		"path":   "products/count.json",
		"data":   map[string]any{"status": "active"},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	out := decodeAdmin(t, resp.Body.Bytes())
	assert.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t, "count", out.Envelope)
	assert.True(t, out.Unwrapped)
	assert.JSONEq(t, `3`, string(out.Payload))

	resp = api.Post("/api/v1/admin/request", map[string]any{
		"method": "PUT",
		"path":   "/admin/products/1.json",
		"data":   map[string]any{"product": map[string]any{"title": "New"}},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	out = decodeAdmin(t, resp.Body.Bytes())
	assert.Empty(t, out.Envelope)
	assert.False(t, out.Unwrapped)
	assert.JSONEq(t, `{"product":{"id":1},"warnings":[]}`, string(out.Payload))

	resp = api.Post("/api/v1/admin/request", map[string]any{
		"method": "GET",
		"path":   "missing.json",
	})
	assert.Equal(t, http.StatusBadGateway, resp.Code)

	resp = api.Post("/api/v1/admin/request", map[string]any{
		"method": "DELETE",
		"path":   "products/1.json",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

type adminResult struct {
	Status    int             `json:"status"`
	Envelope  string          `json:"envelope"`
	Unwrapped bool            `json:"unwrapped"`
	Payload   json.RawMessage `json:"payload"`
}

func decodeAdmin(t *testing.T, body []byte) adminResult {
	t.Helper()

	var out adminResult
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

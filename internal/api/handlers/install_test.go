package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopify-admin/internal/api/handlers"
	"github.com/donaldgifford/shopify-admin/pkg/logger"
	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

func TestInstallHandler_Install(t *testing.T) {
	t.Parallel()

	client := newShop(t, tokenEndpoint)
	h := handlers.NewInstallHandler(client, []string{"read_products", "write_orders"}, testRedirect, logger.Discard())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/install", http.NoBody)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Install(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	assert.Equal(t, "/admin/oauth/authorize", loc.Path)
	assert.Equal(t, "app-key", loc.Query().Get("client_id"))
	assert.Equal(t, "read_products,write_orders", loc.Query().Get("scope"))
	assert.Equal(t, testRedirect, loc.Query().Get("redirect_uri"))
}

func TestInstallHandler_Install_NotConfigured(t *testing.T) {
	t.Parallel()

	client, err := shopify.New("acme", shopify.WithAccessToken("shpat_x"))
	require.NoError(t, err)
	h := handlers.NewInstallHandler(client, nil, "", logger.Discard())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/install", http.NoBody)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Install(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "install is not configured")
}

func TestInstallHandler_Callback(t *testing.T) {
	t.Parallel()

	tampered := signedCallback()
	tampered.Set("shop", "evil.myshopify.com")

	noCode := url.Values{"shop": {"acme.myshopify.com"}}
	noCode.Set("signature", shopify.SignQuery(noCode))

	tests := []struct {
		name       string
		query      string
		upstream   http.HandlerFunc
		wantStatus int
		wantBody   string
		wantToken  string
		wantHits   int32
	}{
		{
			name:       "valid callback installs the app",
			query:      signedCallback().Encode(),
			upstream:   tokenEndpoint,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"installed"}`,
			wantToken:  "shpat_new",
			wantHits:   1,
		},
		{
			name:       "tampered query returns 401",
			query:      tampered.Encode(),
			upstream:   tokenEndpoint,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"invalid signature"}`,
		},
		{
			name:       "missing code returns 400",
			query:      noCode.Encode(),
			upstream:   tokenEndpoint,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"missing authorization code"}`,
		},
		{
			name:  "rejected exchange returns 502",
			query: signedCallback().Encode(),
			upstream: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"error":"token exchange rejected (HTTP 400)"}`,
			wantHits:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits atomic.Int32
			client := newShop(t, func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				tt.upstream(w, r)
			})
			h := handlers.NewInstallHandler(client, []string{"read_products"}, testRedirect, logger.Discard())

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+tt.query, http.NoBody)
			rec := httptest.NewRecorder()

			require.NoError(t, h.Callback(e.NewContext(req, rec)))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantToken, client.Token())
			assert.Equal(t, tt.wantHits, hits.Load())
			assert.NotContains(t, rec.Body.String(), "shpat_")
		})
	}
}

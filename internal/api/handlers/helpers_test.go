package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

const (
	testSecret   = "hush"
	testRedirect = "https://app.example.com/auth/callback"
)

// newShop starts a fake Admin API and returns a credential client bound to it.
func newShop(t *testing.T, handler http.HandlerFunc, opts ...shopify.Option) *shopify.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]shopify.Option{
		shopify.WithCredentials("app-key", testSecret),
		shopify.WithBaseURL(srv.URL),
	}, opts...)

	c, err := shopify.New("acme", opts...)
	require.NoError(t, err)
	return c
}

func signedCallback() url.Values {
	q := url.Values{
		"code":      {"0907a61c0c8d55e99db179b68161bc00"},
		"shop":      {"acme.myshopify.com"},
		"timestamp": {"1337178173"},
	}
	q.Set("signature", shopify.SignQuery(q))
	return q
}

func tokenEndpoint(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/admin/oauth/access_token" {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(`{"access_token":"shpat_new","scope":"read_products"}`))
}

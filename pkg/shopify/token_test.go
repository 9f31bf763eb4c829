package shopify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

func newCredentialClient(t *testing.T, baseURL string) *shopify.Client {
	t.Helper()

	c, err := shopify.New("acme",
		shopify.WithCredentials("app-key", testSecret),
		shopify.WithBaseURL(baseURL),
	)
	require.NoError(t, err)
	return c
}

func TestClient_GetToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantToken  string
		wantErr    error
		checkError func(t *testing.T, err error)
	}{
		{
			name: "successful exchange",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/admin/oauth/access_token", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Empty(t, r.Header.Get(shopify.AccessTokenHeader))

				var body map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, map[string]string{
					"client_id":     "acme",
					"client_secret": testSecret,
					"code":          "0907a61c0c8d55e99db179b68161bc00",
				}, body)

				_, _ = w.Write([]byte(`{"access_token":"shpat_new","scope":"read_products"}`))
			},
			wantToken: "shpat_new",
		},
		{
			name: "single key token response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"access_token":"shpat_solo"}`))
			},
			wantToken: "shpat_solo",
		},
		{
			name: "response without token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"scope":"read_products","expires_in":0}`))
			},
			wantErr: shopify.ErrNoToken,
		},
		{
			name: "non-string token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"access_token":42,"scope":"x"}`))
			},
			wantErr: shopify.ErrNoToken,
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			wantErr: shopify.ErrNoToken,
		},
		{
			name: "API error propagates",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
			},
			checkError: func(t *testing.T, err error) {
				t.Helper()
				var apiErr *shopify.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := newCredentialClient(t, srv.URL)
			token, err := c.GetToken(context.Background(), shopify.NestedQuery{Query: signedQuery()})

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, c.Token())
			case tt.checkError != nil:
				require.Error(t, err)
				tt.checkError(t, err)
				assert.Empty(t, c.Token())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, tt.wantToken, c.Token())
			}
		})
	}
}

func TestClient_GetToken_TokenUsedForLaterCalls(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/oauth/access_token":
			_, _ = w.Write([]byte(`{"access_token":"shpat_new","scope":"read_products"}`))
		case "/admin/shop.json":
			assert.Equal(t, "shpat_new", r.Header.Get(shopify.AccessTokenHeader))
			_, _ = w.Write([]byte(`{"shop":{"id":1}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newCredentialClient(t, srv.URL)

	_, err := c.GetToken(context.Background(), shopify.RawQuery("/auth/callback?"+signedQuery().Encode()))
	require.NoError(t, err)

	resp, err := c.Request(context.Background(), http.MethodGet, "shop.json", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(resp.Payload))
}

func TestClient_GetToken_RejectsBeforeNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"shpat_new","scope":"x"}`))
	}))
	defer srv.Close()

	c := newCredentialClient(t, srv.URL)

	tampered := signedQuery()
	tampered.Set("shop", "evil.myshopify.com")

	unsigned := signedQuery()
	unsigned.Del("signature")

	noCode := url.Values{"shop": {"acme.myshopify.com"}}
	noCode.Set("signature", shopify.SignQuery(noCode))

	tests := []struct {
		name    string
		src     shopify.QuerySource
		wantErr []error
	}{
		{
			name:    "tampered query",
			src:     shopify.NestedQuery{Query: tampered},
			wantErr: []error{shopify.ErrInvalidSignature, shopify.ErrSignatureMismatch},
		},
		{
			name:    "unsigned query",
			src:     shopify.NestedQuery{Query: unsigned},
			wantErr: []error{shopify.ErrInvalidSignature, shopify.ErrSignatureMissing},
		},
		{
			name:    "query without code",
			src:     shopify.NestedQuery{Query: noCode},
			wantErr: []error{shopify.ErrCodeNotFound},
		},
		{
			name:    "request without URL",
			src:     shopify.RequestQuery{},
			wantErr: []error{shopify.ErrCodeNotFound, shopify.ErrContractViolation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.GetToken(context.Background(), tt.src)
			for _, want := range tt.wantErr {
				require.ErrorIs(t, err, want)
			}
		})
	}

	assert.Equal(t, int32(0), hits.Load())
	assert.Empty(t, c.Token())
}

func TestClient_GetToken_RequestSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"shpat_req","scope":"x"}`))
	}))
	defer srv.Close()

	c := newCredentialClient(t, srv.URL)
	inbound := httptest.NewRequest(http.MethodGet, "/auth/callback?"+signedQuery().Encode(), http.NoBody)

	token, err := c.GetToken(context.Background(), shopify.RequestQuery{Request: inbound})
	require.NoError(t, err)
	assert.Equal(t, "shpat_req", token)
}

func TestClient_GetToken_TokenOnlyClient(t *testing.T) {
	t.Parallel()

	c, err := shopify.New("acme", shopify.WithAccessToken("shpat_x"))
	require.NoError(t, err)

	_, err = c.GetToken(context.Background(), shopify.NestedQuery{Query: signedQuery()})
	require.ErrorIs(t, err, shopify.ErrSecretNotConfigured)
}

func TestClient_GetToken_ConcurrentSameCode(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"access_token":"shpat_once","scope":"x"}`))
	}))
	defer srv.Close()

	c := newCredentialClient(t, srv.URL)
	q := signedQuery()

	const goroutines = 8

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			token, err := c.GetToken(context.Background(), shopify.NestedQuery{Query: q})
			assert.NoError(t, err)
			assert.Equal(t, "shpat_once", token)
		}()
	}

	// Let the goroutines pile up on the in-flight exchange.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Less(t, hits.Load(), int32(goroutines))
	assert.Equal(t, "shpat_once", c.Token())
}

func TestClient_GetToken_CanceledCallerDoesNotFailJoined(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			close(started)
		}
		<-release
		_, _ = w.Write([]byte(`{"access_token":"shpat_once","scope":"x"}`))
	}))
	defer srv.Close()

	c := newCredentialClient(t, srv.URL)
	q := signedQuery()

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetToken(ctx, shopify.NestedQuery{Query: q})
		firstErr <- err
	}()
	<-started

	type result struct {
		token string
		err   error
	}
	joined := make(chan result, 1)
	go func() {
		token, err := c.GetToken(context.Background(), shopify.NestedQuery{Query: q})
		joined <- result{token: token, err: err}
	}()

	// Let the second caller join the in-flight exchange.
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-joined
	require.NoError(t, got.err)
	assert.Equal(t, "shpat_once", got.token)
	assert.Equal(t, "shpat_once", c.Token())
	assert.Equal(t, int32(1), hits.Load())
}

// Package main implements a mock Shopify Admin API server for local
// development. It runs the OAuth install handshake, issues access tokens and
// serves canned shop and product resources from an embedded fixture, so the
// gateway and shopctl can be exercised without a real store.
package main

import (
	"bytes"
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/donaldgifford/shopify-admin/pkg/logger"
	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

//go:embed fixtures/store.json
var storeFixture []byte

type store struct {
	Shop     json.RawMessage   `json:"shop"`
	Products []json.RawMessage `json:"products"`
}

type product struct {
	Status string `json:"status"`
}

// mockAdmin is the fake Admin API of a single shop.
type mockAdmin struct {
	shop   string
	key    string
	secret string
	store  *store
	log    *slog.Logger
	sender *http.Client

	mu     sync.Mutex
	codes  map[string]struct{}
	tokens map[string]struct{}
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	shop := flag.String("shop", "acme.myshopify.com", "shop domain to impersonate")
	key := flag.String("api-key", "mock-key", "API key the app must present")
	secret := flag.String("api-secret", "mock-secret", "API secret checked on token exchange and used to sign webhooks")
	token := flag.String("token", "", "pre-issued access token accepted without an install")
	flag.Parse()

	log := logger.New(logger.Options{Level: "debug", Output: os.Stdout})

	st, err := loadStore(storeFixture)
	if err != nil {
		log.Error("failed to load fixture", "error", err)
		os.Exit(1)
	}

	m := newMockAdmin(*shop, *key, *secret, st, log)
	if *token != "" {
		m.tokens[*token] = struct{}{}
	}

	addr := fmt.Sprintf(":%d", *port)
	log.Info("starting mock Shopify Admin API", "addr", addr, "shop", *shop)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(log, m.routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMockAdmin(shop, key, secret string, st *store, log *slog.Logger) *mockAdmin {
	return &mockAdmin{
		shop:   shop,
		key:    key,
		secret: secret,
		store:  st,
		log:    log,
		sender: &http.Client{Timeout: 10 * time.Second},
		codes:  make(map[string]struct{}),
		tokens: make(map[string]struct{}),
	}
}

func loadStore(data []byte) (*store, error) {
	var st store
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &st, nil
}

func (m *mockAdmin) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/oauth/authorize", m.authorizeHandler)
	mux.HandleFunc("POST /admin/oauth/access_token", m.tokenHandler)
	mux.HandleFunc("GET /admin/shop.json", m.authenticated(m.shopHandler))
	mux.HandleFunc("GET /admin/products.json", m.authenticated(m.productsHandler))
	mux.HandleFunc("GET /admin/products/count.json", m.authenticated(m.productCountHandler))
	mux.HandleFunc("POST /mock/webhooks", m.webhookHandler)
	return mux
}

func requestLogger(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// authorizeHandler plays a merchant who approves the install immediately:
// it redirects back to redirect_uri with a signed code.
func (m *mockAdmin) authorizeHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("client_id") != m.key {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown client_id"})
		return
	}
	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || !redirect.IsAbs() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "redirect_uri must be absolute"})
		return
	}

	code := randomHex(16)
	m.mu.Lock()
	m.codes[code] = struct{}{}
	m.mu.Unlock()

	callback := url.Values{
		"code":      {code},
		"shop":      {m.shop},
		"timestamp": {strconv.FormatInt(time.Now().Unix(), 10)},
	}
	callback.Set("signature", shopify.SignQuery(callback))
	redirect.RawQuery = callback.Encode()

	m.log.Info("approved install", "scope", q.Get("scope"))
	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (m *mockAdmin) tokenHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
		Code         string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if req.ClientSecret != m.secret {
		m.log.Warn("token request with wrong client_secret")
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_client",
			"error_description": "client authentication failed",
		})
		return
	}

	m.mu.Lock()
	_, known := m.codes[req.Code]
	delete(m.codes, req.Code)
	token := "shpat_mock_" + randomHex(12)
	if known {
		m.tokens[token] = struct{}{}
	}
	m.mu.Unlock()

	if !known {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_request",
			"error_description": "The authorization code was not found or was already used",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"scope":        "read_products",
	})
	m.log.Info("issued mock token")
}

func (m *mockAdmin) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		_, ok := m.tokens[r.Header.Get(shopify.AccessTokenHeader)]
		m.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"errors": "[API] Invalid API key or access token (unrecognized login or wrong password)",
			})
			return
		}
		w.Header().Set(shopify.CallLimitHeader, "1/40")
		next(w, r)
	}
}

func (m *mockAdmin) shopHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"shop": m.store.Shop})
}

func (m *mockAdmin) productsHandler(w http.ResponseWriter, r *http.Request) {
	matched := m.filterProducts(r.URL.Query().Get("status"))

	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v < len(matched) {
		matched = matched[:v]
	}

	writeJSON(w, http.StatusOK, map[string][]json.RawMessage{"products": matched})
}

func (m *mockAdmin) productCountHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"count": len(m.filterProducts(r.URL.Query().Get("status"))),
	})
}

func (m *mockAdmin) filterProducts(status string) []json.RawMessage {
	matched := make([]json.RawMessage, 0, len(m.store.Products))
	for _, raw := range m.store.Products {
		var p product
		//nolint:errcheck,gosec // fixture data is trusted; status extraction is best-effort
		json.Unmarshal(raw, &p)
		if status == "" || status == p.Status {
			matched = append(matched, raw)
		}
	}
	return matched
}

// webhookHandler signs the request body and delivers it to target the way
// Shopify would, then reports the receiver's status.
func (m *mockAdmin) webhookHandler(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	topic := r.URL.Query().Get("topic")
	if target == "" || topic == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target and topic are required"})
		return
	}

	var payload bytes.Buffer
	if _, err := payload.ReadFrom(r.Body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading payload"})
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, target, bytes.NewReader(payload.Bytes()))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Topic", topic)
	req.Header.Set("X-Shopify-Shop-Domain", m.shop)
	req.Header.Set("X-Shopify-Webhook-Id", randomHex(8))
	req.Header.Set(shopify.HMACHeader, shopify.SignBody(m.secret, payload.Bytes()))

	resp, err := m.sender.Do(req)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	_ = resp.Body.Close()

	m.log.Info("delivered webhook", "topic", topic, "target", target, "status", resp.StatusCode)
	writeJSON(w, http.StatusOK, map[string]int{"delivery_status": resp.StatusCode})
}

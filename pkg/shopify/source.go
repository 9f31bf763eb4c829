package shopify

import (
	"net/http"
	"net/url"
	"strings"
)

// QuerySource is a signed query as it arrives from a Shopify redirect. The
// set of implementations is closed: RawQuery, NestedQuery and RequestQuery.
type QuerySource interface {
	query() (url.Values, error)
}

// RawQuery is a raw query string ("code=...&shop=...&signature=...") or a
// full callback URL.
type RawQuery string

func (r RawQuery) query() (url.Values, error) {
	s := strings.TrimSpace(string(r))
	if s == "" {
		return nil, contractErr("empty query string")
	}
	if looksLikeURL(s) {
		u, err := url.Parse(s)
		if err != nil {
			return nil, contractErr("parsing callback URL: %v", err)
		}
		s = u.RawQuery
	}
	values, err := url.ParseQuery(strings.TrimPrefix(s, "?"))
	if err != nil {
		return nil, contractErr("parsing query string: %v", err)
	}
	return values, nil
}

// looksLikeURL reports whether s starts with a scheme or a path. Only the part
// before the first '?' or '&' counts, so parameter values holding URLs
// (return_to=https://...) stay in the query.
func looksLikeURL(s string) bool {
	head := s
	if i := strings.IndexAny(s, "?&"); i >= 0 {
		head = s[:i]
	}
	if strings.HasPrefix(head, "/") {
		return true
	}
	scheme, _, ok := strings.Cut(head, "://")
	if !ok || scheme == "" {
		return false
	}
	for i, c := range scheme {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// NestedQuery is a query that has already been parsed by the caller.
type NestedQuery struct {
	Query url.Values
}

func (n NestedQuery) query() (url.Values, error) {
	if n.Query == nil {
		return nil, contractErr("nested query is nil")
	}
	return n.Query, nil
}

// RequestQuery reads the query from an inbound HTTP request.
type RequestQuery struct {
	Request *http.Request
}

func (r RequestQuery) query() (url.Values, error) {
	if r.Request == nil || r.Request.URL == nil {
		return nil, contractErr("request has no URL")
	}
	return r.Request.URL.Query(), nil
}

// resolveQuery normalizes any QuerySource into url.Values.
func resolveQuery(src QuerySource) (url.Values, error) {
	if src == nil {
		return nil, contractErr("query source is nil")
	}
	return src.query()
}

// resolveCode extracts the authorization code carried by a query.
func resolveCode(q url.Values) (string, error) {
	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		return "", ErrCodeNotFound
	}
	return code, nil
}

// SignatureSource supplies the value of the webhook HMAC header. The set of
// implementations is closed: RawSignature, RequestHeaders and HeaderGetter.
type SignatureSource interface {
	signature() string
}

// RawSignature is the header value itself.
type RawSignature string

func (r RawSignature) signature() string { return strings.TrimSpace(string(r)) }

// RequestHeaders reads the signature header from an inbound HTTP request.
type RequestHeaders struct {
	Request *http.Request
}

func (r RequestHeaders) signature() string {
	if r.Request == nil {
		return ""
	}
	return strings.TrimSpace(r.Request.Header.Get(HMACHeader))
}

// HeaderGetter reads the signature header through any value exposing a
// header lookup, such as http.Header.
type HeaderGetter struct {
	Getter interface {
		Get(key string) string
	}
}

func (h HeaderGetter) signature() string {
	if h.Getter == nil {
		return ""
	}
	return strings.TrimSpace(h.Getter.Get(HMACHeader))
}

func resolveSignature(src SignatureSource) string {
	if src == nil {
		return ""
	}
	return src.signature()
}

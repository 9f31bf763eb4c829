package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/shopify-admin/internal/metrics"
)

const adminPrefix = "/admin"

var allowedMethods = map[string]struct{}{
	http.MethodGet:  {},
	http.MethodPost: {},
	http.MethodPut:  {},
}

// Doer is the HTTP collaborator used to dispatch requests. *http.Client
// satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// tokenReader exposes the cached access token to the pipeline.
type tokenReader interface {
	Token() string
}

// pipeline builds canonical admin URLs, dispatches calls and normalizes the
// responses.
type pipeline struct {
	base   *url.URL
	doer   Doer
	tokens tokenReader
	log    *slog.Logger
}

// call validates its arguments, dispatches the request and normalizes the
// response. Argument errors are returned before anything is sent.
func (p *pipeline) call(
	ctx context.Context,
	method, path string,
	data any,
) (*Response, error) {
	req, err := p.build(ctx, method, path, data)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := p.doer.Do(req)
	if err != nil {
		metrics.AdminAPIRequestsTotal.WithLabelValues(req.Method, "error").Inc()
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	recordCallLimit(resp.Header)

	body, err := io.ReadAll(resp.Body)
	raw := &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
	if err != nil {
		metrics.AdminAPIRequestsTotal.WithLabelValues(req.Method, "error").Inc()
		return nil, &TransportError{Err: fmt.Errorf("reading response body: %w", err), Response: raw}
	}

	status := strconv.Itoa(resp.StatusCode)
	elapsed := time.Since(start)
	metrics.AdminAPIRequestDuration.WithLabelValues(req.Method, status).Observe(elapsed.Seconds())
	metrics.AdminAPIRequestsTotal.WithLabelValues(req.Method, status).Inc()

	p.log.Debug("shopify request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
	)

	return normalize(raw)
}

func (p *pipeline) build(
	ctx context.Context,
	method, path string,
	data any,
) (*http.Request, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return nil, contractErr("method is required")
	}
	if _, ok := allowedMethods[method]; !ok {
		return nil, contractErr("invalid request method %q, expected one of GET, POST, PUT", method)
	}
	if strings.TrimSpace(path) == "" {
		return nil, contractErr("path is required")
	}

	u := p.resolve(path)

	var (
		body        io.Reader = http.NoBody
		contentType string
	)
	if method == http.MethodGet {
		q, err := encodeQuery(data)
		if err != nil {
			return nil, err
		}
		u.RawQuery = joinQuery(u.RawQuery, q)
	} else {
		b, ct, err := encodeBody(data)
		if err != nil {
			return nil, err
		}
		if b != nil {
			body = bytes.NewReader(b)
		}
		contentType = ct
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := p.tokens.Token(); token != "" {
		req.Header.Set(AccessTokenHeader, token)
	}
	return req, nil
}

// resolve maps a caller path onto the admin API. Paths that already start
// with /admin/ are used verbatim; others get the prefix and exactly one
// separator.
func (p *pipeline) resolve(path string) *url.URL {
	path = strings.TrimSpace(path)
	path, rawQuery, _ := strings.Cut(path, "?")

	if !strings.HasPrefix(strings.ToLower(path), adminPrefix+"/") {
		path = adminPrefix + "/" + strings.TrimPrefix(path, "/")
	}

	u := *p.base
	u.Path = path
	u.RawQuery = rawQuery
	return &u
}

func joinQuery(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "&" + b
	}
}

func encodeQuery(data any) (string, error) {
	switch v := data.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimPrefix(strings.TrimSpace(v), "?"), nil
	case url.Values:
		return v.Encode(), nil
	case map[string]string:
		q := make(url.Values, len(v))
		for k, val := range v {
			q.Set(k, val)
		}
		return q.Encode(), nil
	case map[string]any:
		return flattenQuery(v), nil
	}

	if !isPlainObject(data) {
		return "", contractErr("query must be nil, string, url.Values, map or struct, got %T", data)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", contractErr("encoding query: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return "", contractErr("query must encode to a JSON object, got %T", data)
	}
	return flattenQuery(fields), nil
}

// flattenQuery writes top-level fields as key=value pairs. Null fields are
// skipped; nested values are sent as their fmt form.
func flattenQuery(fields map[string]any) string {
	q := make(url.Values, len(fields))
	for k, val := range fields {
		if val == nil {
			continue
		}
		q.Set(k, fmt.Sprint(val))
	}
	return q.Encode()
}

func encodeBody(data any) ([]byte, string, error) {
	switch v := data.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(v), "", nil
	case []byte:
		return v, "", nil
	}

	if !isPlainObject(data) {
		return nil, "", contractErr("body must be nil, string, []byte, map or struct, got %T", data)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, "", contractErr("encoding request body: %v", err)
	}
	return b, "application/json", nil
}

func isPlainObject(data any) bool {
	t := reflect.TypeOf(data)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		return true
	case reflect.Map:
		return t.Key().Kind() == reflect.String
	default:
		return false
	}
}

// normalize turns a received response into a Response or a typed error.
func normalize(raw *RawResponse) (*Response, error) {
	switch raw.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	default:
		return nil, newAPIError(raw)
	}

	out := &Response{Raw: raw}

	trimmed := bytes.TrimSpace(raw.Body)
	if len(trimmed) == 0 {
		return out, nil
	}
	if !json.Valid(trimmed) {
		var v any
		err := json.Unmarshal(trimmed, &v)
		return nil, &ParseError{Err: err, Response: raw}
	}
	if trimmed[0] != '{' {
		return out, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, &ParseError{Err: err, Response: raw}
	}

	if len(fields) == 1 {
		for key, inner := range fields {
			out.Envelope = key
			out.Unwrapped = true
			if !bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
				out.Payload = inner
			}
		}
		return out, nil
	}

	out.Payload = json.RawMessage(trimmed)
	return out, nil
}

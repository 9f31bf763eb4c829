package shopify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/donaldgifford/shopify-admin/internal/metrics"
)

// CallLimitHeader reports the shop's API call bucket usage as "used/size".
const CallLimitHeader = "X-Shopify-Shop-Api-Call-Limit"

// Response is the normalized result of an admin API call.
//
// Payload is nil when the body was empty or not a JSON object. When the
// object had exactly one top-level key, Payload holds the value under that
// key, Unwrapped is true and Envelope names the removed key ("shop" for
// {"shop": {...}}). Otherwise Payload is the whole object.
type Response struct {
	Payload   json.RawMessage
	Envelope  string
	Unwrapped bool
	Raw       *RawResponse
}

// HasPayload reports whether the call produced a payload.
func (r *Response) HasPayload() bool {
	return r != nil && len(r.Payload) > 0
}

// Decode unmarshals the payload into dst.
func (r *Response) Decode(dst any) error {
	if !r.HasPayload() {
		return fmt.Errorf("decoding %T: response has no payload", dst)
	}
	if err := json.Unmarshal(r.Payload, dst); err != nil {
		return fmt.Errorf("decoding %T: %w", dst, err)
	}
	return nil
}

// CallLimit returns the API call bucket usage reported with the response.
// ok is false when the header is absent or malformed.
func (r *Response) CallLimit() (used, size int, ok bool) {
	if r == nil || r.Raw == nil {
		return 0, 0, false
	}
	return parseCallLimit(r.Raw.Header.Get(CallLimitHeader))
}

func recordCallLimit(h http.Header) {
	used, size, ok := parseCallLimit(h.Get(CallLimitHeader))
	if !ok {
		return
	}
	metrics.AdminAPICallLimitRatio.Set(float64(used) / float64(size))
}

func parseCallLimit(v string) (used, size int, ok bool) {
	a, b, found := strings.Cut(strings.TrimSpace(v), "/")
	if !found {
		return 0, 0, false
	}
	used, err := strconv.Atoi(a)
	if err != nil || used < 0 {
		return 0, 0, false
	}
	size, err = strconv.Atoi(b)
	if err != nil || size <= 0 {
		return 0, 0, false
	}
	return used, size, true
}

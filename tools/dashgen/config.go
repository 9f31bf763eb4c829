package main

import "errors"

// KnownMetrics is the set of metric names exported by the shop gateway plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// Gateway HTTP metrics.
	"shopify_http_request_duration_seconds": true,
	"shopify_http_requests_total":           true,

	// Health metrics.
	"shopify_healthz_up": true,
	"shopify_readyz_up":  true,

	// Admin API client metrics.
	"shopify_admin_api_request_duration_seconds": true,
	"shopify_admin_api_requests_total":           true,
	"shopify_admin_api_call_limit_ratio":         true,
	"shopify_token_exchanges_total":              true,

	// Signature and webhook metrics.
	"shopify_signature_checks_total":  true,
	"shopify_webhooks_received_total": true,

	// Recording rules.
	"shopify:http_requests:rate5m":        true,
	"shopify:http_errors:rate5m":          true,
	"shopify:admin_api_requests:rate5m":   true,
	"shopify:admin_api_errors:rate5m":     true,
	"shopify:signature_mismatches:rate5m": true,
	"shopify:webhooks_rejected:rate5m":    true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}

package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return gatewayRule("shop-gateway-recording-rules", "shop-gateway-recording",
		record("http_requests", counterRate("shopify_http_requests_total", "", "")),
		record("http_errors", counterRate("shopify_http_requests_total", "", `status=~"5.."`)),
		record("admin_api_requests", counterRate("shopify_admin_api_requests_total", "", "")),
		record("admin_api_errors", counterRate("shopify_admin_api_requests_total", "", `status!~"2.."`)),
		record("signature_mismatches", counterRate("shopify_signature_checks_total", "kind", `result="mismatch"`)),
		record("webhooks_rejected", counterRate("shopify_webhooks_received_total", "", `result!="accepted"`)),
	)
}

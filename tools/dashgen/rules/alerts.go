package rules

import "fmt"

// AlertRules returns a PrometheusRule CR containing alert rules for
// shop gateway operational monitoring.
func AlertRules() PrometheusRule {
	return gatewayRule("shop-gateway-alerts", "shop-gateway-alerts",
		alert("ShopGatewayDown",
			fmt.Sprintf(`absent(up{job=%q})`, job), "2m", SeverityCritical,
			"Shop gateway is down",
			"The shop-gateway job has been absent for more than 2 minutes."),
		alert("ShopGatewayNotInstalled",
			`shopify_readyz_up == 0`, "15m", SeverityWarning,
			"Shop gateway has no access token",
			"The gateway has been awaiting app installation for more than 15 minutes."),
		alert("ShopGatewayHighErrorRate",
			ratioAbove("http_errors", "http_requests", 0.05), "5m", SeverityWarning,
			"High HTTP error rate on the shop gateway",
			"More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes."),
		alert("ShopifyAdminAPIErrors",
			ratioAbove("admin_api_errors", "admin_api_requests", 0.1), "5m", SeverityWarning,
			"Shopify Admin API calls are failing",
			"More than 10% of Admin API calls failed or returned a non-2xx status over the last 5 minutes."),
		alert("ShopifyTokenExchangeFailures",
			`increase(shopify_token_exchanges_total{result="error"}[15m]) > 0`, "0m", SeverityWarning,
			"OAuth code exchange failed",
			"At least one app install failed to exchange its authorization code in the last 15 minutes."),
		alert("ShopifySignatureMismatches",
			`shopify:signature_mismatches:rate5m > 0.1`, "5m", SeverityWarning,
			"Signature mismatches detected",
			"Signed redirects or webhooks are failing verification. Check the API secret or look for forged traffic."),
		alert("ShopifyWebhooksRejected",
			`shopify:webhooks_rejected:rate5m > 0`, "10m", SeverityWarning,
			"Webhook deliveries are being rejected",
			"The gateway has rejected webhook deliveries for more than 10 minutes."),
	)
}

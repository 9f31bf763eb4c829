package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// AdminCallsByStatus returns a timeseries panel showing Admin API calls per
// second split by upstream status ("error" for transport failures).
func AdminCallsByStatus() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Admin API Calls by Status").
		Description("Shopify Admin API calls per second by response status").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			RateBy("status", "shopify_admin_api_requests_total"),
			ByLabelLegend("status"), "A",
		)).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// AdminLatency returns a timeseries panel showing Admin API call latency
// percentiles.
func AdminLatency() *timeseries.PanelBuilder {
	return percentilePanel(
		"Admin API Latency",
		"Shopify Admin API call duration percentiles",
		"shopify_admin_api_request_duration_seconds_bucket",
	)
}

// AdminErrorRate returns a timeseries panel showing failed Admin API calls as
// a percentage of all calls.
func AdminErrorRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Admin API Error Rate %").
		Description("Admin API calls that failed in transport or returned a non-success status").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			ErrorPercent("admin_api_errors", "admin_api_requests"),
			"error %", "A",
		)).
		Unit("percent").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// TokenExchanges returns a timeseries panel showing code exchanges by result.
func TokenExchanges() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Token Exchanges").
		Description("OAuth code exchanges by result").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			Increase("1h", "result", "shopify_token_exchanges_total"),
			ByLabelLegend("result"), "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("sum")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleBars)
}

// CallBucketFill returns a timeseries panel showing how full the shop's API
// call bucket was on the last response.
func CallBucketFill() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Call Bucket Fill").
		Description("Shop API call bucket usage reported by Shopify").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			"max(" + Selector("shopify_admin_api_call_limit_ratio") + ")",
			"fill", "A",
		)).
		Unit("percentunit").
		Min(0).
		Max(1).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.75, 0.95)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

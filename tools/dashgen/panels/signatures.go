package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// SignatureChecks returns a timeseries panel showing signature checks by kind
// and result.
func SignatureChecks() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Signature Checks").
		Description("Query and body signature checks per second by result").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			RateBy("kind, result", "shopify_signature_checks_total"),
			"{{kind}} {{result}}", "A",
		)).
		Unit("ops").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// WebhooksByTopic returns a timeseries panel showing accepted webhook
// deliveries per topic.
func WebhooksByTopic() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Webhooks by Topic").
		Description("Verified webhook deliveries per minute by topic").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			PerMinute(RateBy("topic", "shopify_webhooks_received_total", `result="accepted"`)),
			ByLabelLegend("topic"), "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// WebhooksRejected returns a timeseries panel showing rejected deliveries by
// reason.
func WebhooksRejected() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Webhooks Rejected").
		Description("Webhook deliveries rejected per minute by reason").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			PerMinute(RateBy("result", "shopify_webhooks_received_total", `result!="accepted"`)),
			ByLabelLegend("result"), "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// Package panels builds the Grafana panels of the shop gateway dashboard.
// Raw queries go through Selector so every series is scoped to the gateway
// job; recorded shopify:*:rate5m series are already scoped.
package panels

import (
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/cog"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
)

// Job is the Prometheus job label the gateway is scraped under.
const Job = "shop-gateway"

// Window is the range of every rate the dashboard draws. It matches the
// recording rules so raw and recorded panels line up.
const Window = "5m"

// Selector returns metric{job="shop-gateway",matchers...}.
func Selector(metric string, matchers ...string) string {
	labels := append([]string{fmt.Sprintf("job=%q", Job)}, matchers...)
	return metric + "{" + strings.Join(labels, ",") + "}"
}

// RateBy sums the per-second rate of a gateway counter by the given labels.
func RateBy(by, metric string, matchers ...string) string {
	return fmt.Sprintf("sum by (%s) (rate(%s[%s]))", by, Selector(metric, matchers...), Window)
}

// PerMinute scales a per-second expression; webhook volume reads better per
// minute.
func PerMinute(expr string) string {
	return expr + " * 60"
}

// Increase sums how much a gateway counter grew over window.
func Increase(window, by, metric string, matchers ...string) string {
	if by == "" {
		return fmt.Sprintf("sum(increase(%s[%s]))", Selector(metric, matchers...), window)
	}
	return fmt.Sprintf("sum by (%s) (increase(%s[%s]))", by, Selector(metric, matchers...), window)
}

// ErrorPercent divides two recorded shopify:<name>:rate5m series.
func ErrorPercent(errors, total string) string {
	return fmt.Sprintf("shopify:%s:rate5m / shopify:%s:rate5m * 100", errors, total)
}

// Quantile is the q-th latency quantile of a gateway histogram.
func Quantile(q, bucket string) string {
	return fmt.Sprintf("histogram_quantile(%s, sum(rate(%s[%s])) by (le))", q, Selector(bucket), Window)
}

// Standard panel dimensions for a 24-column grid.
const (
	StatWidth  = 6
	StatHeight = 4

	TSWidth  = 12
	TSHeight = 8

	FullWidth = 24
)

// DSRef points panels at the dashboard's ${datasource} variable.
func DSRef() dashboard.DataSourceRef {
	return dashboard.DataSourceRef{
		Type: cog.ToPtr("prometheus"),
		Uid:  cog.ToPtr("${datasource}"),
	}
}

// PromQuery builds one query target.
func PromQuery(expr, legendFormat, refID string) *prometheus.DataqueryBuilder {
	return prometheus.NewDataqueryBuilder().
		Expr(expr).
		LegendFormat(legendFormat).
		RefId(refID)
}

// ThresholdsRedGreen is red below greenAbove; used for the 0/1 healthz and readyz gauges.
func ThresholdsRedGreen(greenAbove float64) cog.Builder[dashboard.ThresholdsConfig] {
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps([]dashboard.Threshold{
			{Color: "red"},
			{Value: cog.ToPtr[float64](greenAbove), Color: "green"},
		})
}

// ThresholdsGreenYellowRed colours error percentages.
func ThresholdsGreenYellowRed(yellow, red float64) cog.Builder[dashboard.ThresholdsConfig] {
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps([]dashboard.Threshold{
			{Color: "green"},
			{Value: cog.ToPtr[float64](yellow), Color: "yellow"},
			{Value: cog.ToPtr[float64](red), Color: "red"},
		})
}

// ThresholdsGreenOnly is for series with no bad value, such as traffic.
func ThresholdsGreenOnly() cog.Builder[dashboard.ThresholdsConfig] {
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps([]dashboard.Threshold{
			{Color: "green"},
		})
}

// ColorSchemeThresholds colours values by their threshold step.
func ColorSchemeThresholds() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().
		Mode(dashboard.FieldColorModeIdThresholds)
}

// ByLabelLegend prints one label, e.g. {{topic}} for webhook panels.
func ByLabelLegend(label string) string {
	return "{{" + label + "}}"
}

// ColorSchemePaletteClassic gives each series its own colour.
func ColorSchemePaletteClassic() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().
		Mode(dashboard.FieldColorModeIdPaletteClassic)
}

// TableLegend shows a bottom table legend with calcs as columns.
func TableLegend(calcs ...string) *common.VizLegendOptionsBuilder {
	return common.NewVizLegendOptionsBuilder().
		DisplayMode(common.LegendDisplayModeTable).
		Placement(common.LegendPlacementBottom).
		Calcs(calcs)
}

// MultiTooltip lists all series, largest first.
func MultiTooltip() *common.VizTooltipOptionsBuilder {
	return common.NewVizTooltipOptionsBuilder().
		Mode(common.TooltipDisplayModeMulti).
		Sort(common.SortOrderDescending)
}
